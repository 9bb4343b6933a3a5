// Package tui is the interactive consumer of the schedule store: it
// renders the store's read model and calls its mutation operations.
// All scheduling state and persistence live behind the store.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/daybar-app/daybar/internal/models"
	"github.com/daybar-app/daybar/internal/store"
	"github.com/daybar-app/daybar/internal/timeutil"
)

type storeChangedMsg struct{}
type readyMsg struct{}

// App is the root Bubble Tea model.
type App struct {
	store  *store.Store
	width  int
	height int

	loading      bool
	cursor       int
	showHelp     bool
	confirmReset bool
	status       string

	form *editForm

	changes chan struct{}
	help    help.Model
}

func NewApp(s *store.Store) *App {
	a := &App{
		store:   s,
		loading: !s.Ready(),
		changes: make(chan struct{}, 8),
		help:    help.New(),
	}
	// Coalescing send: a burst of mutations wakes the UI once.
	s.Subscribe(func() {
		select {
		case a.changes <- struct{}{}:
		default:
		}
	})
	return a
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.waitReady(), a.nextChange())
}

func (a *App) waitReady() tea.Cmd {
	return func() tea.Msg {
		a.store.WaitUntilReady(context.Background())
		return readyMsg{}
	}
}

func (a *App) nextChange() tea.Cmd {
	return func() tea.Msg {
		<-a.changes
		return storeChangedMsg{}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		return a, nil

	case readyMsg:
		a.loading = false
		if a.store.Degraded() {
			a.status = "storage unavailable: changes will not be saved"
		}
		return a, nil

	case storeChangedMsg:
		a.clampCursor()
		return a, a.nextChange()

	case tea.KeyMsg:
		if a.form != nil {
			return a.updateForm(msg)
		}
		return a.updateKeys(msg)
	}

	if a.form != nil {
		return a.updateForm(msg)
	}
	return a, nil
}

func (a *App) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.confirmReset {
		switch msg.String() {
		case "y":
			a.confirmReset = false
			a.store.ResetAll()
			a.status = "schedule reset to defaults"
		default:
			a.confirmReset = false
			a.status = ""
		}
		return a, nil
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, keys.Help):
		a.showHelp = !a.showHelp
		return a, nil

	case key.Matches(msg, keys.PrevDay):
		a.selectOffset(-1)
		return a, nil

	case key.Matches(msg, keys.NextDay):
		a.selectOffset(1)
		return a, nil

	case key.Matches(msg, keys.Today):
		a.store.SelectDay(models.DayOf(time.Now()))
		a.cursor = 0
		return a, nil

	case key.Matches(msg, keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
		return a, nil

	case key.Matches(msg, keys.Down):
		if a.cursor < len(a.store.CurrentDayConfig().BusyPeriods)-1 {
			a.cursor++
		}
		return a, nil

	case key.Matches(msg, keys.Toggle):
		return a.toggleCursor()

	case key.Matches(msg, keys.New):
		a.form = newPeriodForm(-1, models.BusyPeriod{})
		return a, a.form.Init()

	case key.Matches(msg, keys.Edit):
		periods := a.store.CurrentDayConfig().BusyPeriods
		if a.cursor < len(periods) {
			a.form = newPeriodForm(a.cursor, periods[a.cursor])
			return a, a.form.Init()
		}
		return a, nil

	case key.Matches(msg, keys.Delete):
		if a.cursor < len(a.store.CurrentDayConfig().BusyPeriods) {
			a.store.RemoveBusyPeriod(a.cursor)
			a.clampCursor()
			a.status = "period removed"
		}
		return a, nil

	case key.Matches(msg, keys.Settings):
		a.form = newDayForm(a.store.CurrentDayConfig())
		return a, a.form.Init()

	case key.Matches(msg, keys.Reset):
		a.confirmReset = true
		return a, nil
	}

	return a, nil
}

func (a *App) toggleCursor() (tea.Model, tea.Cmd) {
	now := time.Now()
	if a.store.SelectedDay() != models.DayOf(now) {
		a.status = "completions are tracked for today; press t to jump there"
		return a, nil
	}
	if a.cursor >= len(a.store.CurrentDayConfig().BusyPeriods) {
		return a, nil
	}
	trigger := timeutil.Time{Hour: now.Hour(), Minute: now.Minute()}
	a.store.ToggleCompletion(a.cursor, trigger, now)
	a.status = ""
	return a, nil
}

func (a *App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		a.form = nil
		return a, nil
	}

	cmd := a.form.Update(msg)
	if a.form.Done() {
		if err := a.form.Apply(a.store); err != nil {
			a.status = err.Error()
		} else {
			a.status = ""
		}
		a.form = nil
		a.clampCursor()
		return a, nil
	}
	return a, cmd
}

func (a *App) selectOffset(offset int) {
	current := a.store.SelectedDay()
	for i, day := range models.Days {
		if day == current {
			next := (i + offset + len(models.Days)) % len(models.Days)
			a.store.SelectDay(models.Days[next])
			break
		}
	}
	a.cursor = 0
}

func (a *App) clampCursor() {
	n := len(a.store.CurrentDayConfig().BusyPeriods)
	if a.cursor >= n {
		a.cursor = n - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

func (a *App) View() string {
	if a.loading {
		return mutedStyle.Render("opening schedule...")
	}

	if a.form != nil {
		return panelStyle.Render(a.form.View())
	}

	var b strings.Builder
	b.WriteString(a.viewWeekStrip())
	b.WriteString("\n\n")
	b.WriteString(a.viewDay())
	b.WriteString("\n")

	if a.confirmReset {
		b.WriteString(warningStyle.Render("reset everything to defaults? (y/N)"))
		b.WriteString("\n")
	} else if a.status != "" {
		b.WriteString(warningStyle.Render(a.status))
		b.WriteString("\n")
	}

	if a.showHelp {
		a.help.ShowAll = true
	} else {
		a.help.ShowAll = false
	}
	b.WriteString(footerStyle.Render(a.help.View(keys)))
	return b.String()
}

func (a *App) viewWeekStrip() string {
	selected := a.store.SelectedDay()
	today := models.DayOf(time.Now())

	var tabs []string
	for _, day := range models.Days {
		label := models.DayLabels[day]
		if day == today {
			label = "•" + label
		}
		cfg := a.store.DayConfigFor(day)
		switch {
		case day == selected:
			tabs = append(tabs, activeDayStyle.Render(label))
		case !cfg.Enabled:
			tabs = append(tabs, disabledDayStyle.Render(label))
		default:
			tabs = append(tabs, inactiveDayStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)
}

func (a *App) viewDay() string {
	cfg := a.store.CurrentDayConfig()
	selected := a.store.SelectedDay()
	now := time.Now()
	isToday := selected == models.DayOf(now)

	var rows []string
	header := titleStyle.Render(string(selected))
	window := fmt.Sprintf("%s – %s", timeutil.Format(cfg.StartTime), timeutil.Format(cfg.EndTime))
	if !cfg.UseCustomRange {
		window += " (default)"
	}
	if !cfg.Enabled {
		window = "disabled"
	}
	rows = append(rows, header+"  "+mutedStyle.Render(window), "")

	if len(cfg.BusyPeriods) == 0 {
		rows = append(rows, mutedStyle.Render("no busy periods (press n to add one)"))
	}

	for i, p := range cfg.BusyPeriods {
		mark := "[ ]"
		suffix := ""
		if isToday {
			if at, ok := a.store.CompletionTimeAt(i, now); ok {
				mark = doneStyle.Render("[x]")
				suffix = doneStyle.Render("  done " + timeutil.Format(at))
			}
		} else {
			mark = "   "
		}

		line := fmt.Sprintf("%s %s  %s%s", mark, describePeriod(p), titleOf(p), suffix)
		if i == a.cursor {
			rows = append(rows, selectedItemStyle.Render("> "+line))
		} else {
			rows = append(rows, normalItemStyle.Render("  "+line))
		}
	}

	return panelStyle.Width(max(40, a.width-4)).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func describePeriod(p models.BusyPeriod) string {
	if p.Kind() == models.PeriodFloating {
		return "~" + timeutil.Format(*p.Duration)
	}
	if p.Start != nil && p.End != nil {
		return timeutil.Format(*p.Start) + "-" + timeutil.Format(*p.End)
	}
	return "     "
}

func titleOf(p models.BusyPeriod) string {
	if p.Title == "" {
		return mutedStyle.Render("(untitled)")
	}
	return p.Title
}
