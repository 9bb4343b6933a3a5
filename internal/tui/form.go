package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/daybar-app/daybar/internal/models"
	"github.com/daybar-app/daybar/internal/store"
	"github.com/daybar-app/daybar/internal/timeutil"
)

type formKind int

const (
	formDay formKind = iota
	formPeriod
)

// editForm wraps a huh form for either the selected day's settings or
// one busy period. Values live behind pointers so they survive the
// value copies bubbletea makes.
type editForm struct {
	kind  formKind
	index int // period index being edited, -1 for a new period
	form  *huh.Form

	enabled     *bool
	customRange *bool
	start       *string
	end         *string

	title      *string
	periodType *string
	duration   *string
	color      *string
}

func newDayForm(cfg models.DayConfig) *editForm {
	enabled := cfg.Enabled
	custom := cfg.UseCustomRange
	start := timeutil.Format(cfg.StartTime)
	end := timeutil.Format(cfg.EndTime)

	f := &editForm{
		kind:        formDay,
		enabled:     &enabled,
		customRange: &custom,
		start:       &start,
		end:         &end,
	}
	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().Title("Enabled").Value(f.enabled),
			huh.NewConfirm().Title("Custom time range").Value(f.customRange),
			huh.NewInput().Title("Day starts (HH:MM)").Value(f.start).Validate(validateClock),
			huh.NewInput().Title("Day ends (HH:MM)").Value(f.end).Validate(validateClock),
		).Title("Day settings"),
	).WithShowHelp(true).WithShowErrors(true)
	return f
}

func newPeriodForm(index int, p models.BusyPeriod) *editForm {
	title := p.Title
	periodType := "fixed"
	if p.Kind() == models.PeriodFloating {
		periodType = "floating"
	}
	start, end, duration := "", "", ""
	if p.Start != nil {
		start = timeutil.Format(*p.Start)
	}
	if p.End != nil {
		end = timeutil.Format(*p.End)
	}
	if p.Duration != nil {
		duration = timeutil.Format(*p.Duration)
	}
	color := p.Color

	f := &editForm{
		kind:       formPeriod,
		index:      index,
		title:      &title,
		periodType: &periodType,
		start:      &start,
		end:        &end,
		duration:   &duration,
		color:      &color,
	}

	groupTitle := "New busy period"
	if index >= 0 {
		groupTitle = "Edit busy period"
	}
	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(f.title),
			huh.NewSelect[string]().Title("Type").
				Options(
					huh.NewOption("Fixed times", "fixed"),
					huh.NewOption("Floating duration", "floating"),
				).Value(f.periodType),
			huh.NewInput().Title("Start (HH:MM, fixed only)").Value(f.start).Validate(validateClockOptional),
			huh.NewInput().Title("End (HH:MM, fixed only)").Value(f.end).Validate(validateClockOptional),
			huh.NewInput().Title("Duration (HH:MM, floating only)").Value(f.duration).Validate(validateClockOptional),
			huh.NewInput().Title("Color (#RRGGBB, optional)").Value(f.color),
		).Title(groupTitle),
	).WithShowHelp(true).WithShowErrors(true)
	return f
}

func (f *editForm) Init() tea.Cmd {
	return f.form.Init()
}

func (f *editForm) Update(msg tea.Msg) tea.Cmd {
	form, cmd := f.form.Update(msg)
	if next, ok := form.(*huh.Form); ok {
		f.form = next
	}
	return cmd
}

func (f *editForm) Done() bool {
	return f.form.State == huh.StateCompleted
}

func (f *editForm) View() string {
	return f.form.View()
}

// Apply pushes the form values into the store.
func (f *editForm) Apply(s *store.Store) error {
	switch f.kind {
	case formDay:
		start, err := parseClock(*f.start)
		if err != nil {
			return err
		}
		end, err := parseClock(*f.end)
		if err != nil {
			return err
		}
		s.SetEnabled(*f.enabled)
		s.SetUseCustomRange(*f.customRange)
		s.SetStartTime(start)
		s.SetEndTime(end)
		return nil

	case formPeriod:
		var p models.BusyPeriod
		if *f.periodType == "floating" {
			duration, err := parseClock(*f.duration)
			if err != nil {
				return fmt.Errorf("floating period needs a duration: %w", err)
			}
			p = models.FloatingPeriod(*f.title, duration, *f.color)
		} else {
			start, err := parseClock(*f.start)
			if err != nil {
				return fmt.Errorf("fixed period needs a start: %w", err)
			}
			end, err := parseClock(*f.end)
			if err != nil {
				return fmt.Errorf("fixed period needs an end: %w", err)
			}
			p = models.FixedPeriod(*f.title, start, end, *f.color)
		}
		if f.index < 0 {
			s.AddBusyPeriod(p)
		} else {
			s.UpdateBusyPeriod(f.index, p)
		}
		return nil
	}
	return nil
}

// parseClock parses zero-padded or bare H:MM / HH:MM.
func parseClock(s string) (timeutil.Time, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return timeutil.Time{}, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return timeutil.Time{}, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return timeutil.Time{}, fmt.Errorf("invalid minute in %q", s)
	}
	return timeutil.Time{Hour: hour, Minute: minute}, nil
}

func validateClock(s string) error {
	_, err := parseClock(s)
	return err
}

func validateClockOptional(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return validateClock(s)
}
