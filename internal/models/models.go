package models

import (
	"time"

	"github.com/daybar-app/daybar/internal/timeutil"
)

// DayOfWeek is one of the 7 fixed day identifiers used as the stable
// primary key for schedule configuration.
type DayOfWeek string

const (
	Sunday    DayOfWeek = "sunday"
	Monday    DayOfWeek = "monday"
	Tuesday   DayOfWeek = "tuesday"
	Wednesday DayOfWeek = "wednesday"
	Thursday  DayOfWeek = "thursday"
	Friday    DayOfWeek = "friday"
	Saturday  DayOfWeek = "saturday"
)

// Days lists the days of the week in calendar order, indexed so that
// Days[time.Weekday] is the matching day.
var Days = [7]DayOfWeek{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

var DayLabels = map[DayOfWeek]string{
	Sunday:    "Sun",
	Monday:    "Mon",
	Tuesday:   "Tue",
	Wednesday: "Wed",
	Thursday:  "Thu",
	Friday:    "Fri",
	Saturday:  "Sat",
}

// DayOf resolves the day-of-week key for a calendar date.
func DayOf(date time.Time) DayOfWeek {
	return Days[int(date.Weekday())]
}

// PeriodKind tags the two shapes a busy period can take.
type PeriodKind int

const (
	// PeriodFixed runs between fixed clock times.
	PeriodFixed PeriodKind = iota
	// PeriodFloating is defined by a duration; its completion time is
	// computed relative to when it is marked done.
	PeriodFloating
)

// BusyPeriod is one entry in a day's ordered schedule. It is identified
// by its position in the day's sequence, not by a stable id. JSON tags
// match the legacy snapshot format.
type BusyPeriod struct {
	Title    string         `json:"title,omitempty"`
	Start    *timeutil.Time `json:"start,omitempty"`
	End      *timeutil.Time `json:"end,omitempty"`
	Duration *timeutil.Time `json:"duration,omitempty"`
	Floating bool           `json:"floating,omitempty"`
	Color    string         `json:"color,omitempty"`
}

// FixedPeriod builds a period anchored to clock times.
func FixedPeriod(title string, start, end timeutil.Time, color string) BusyPeriod {
	return BusyPeriod{Title: title, Start: &start, End: &end, Color: color}
}

// FloatingPeriod builds a duration-based period.
func FloatingPeriod(title string, duration timeutil.Time, color string) BusyPeriod {
	return BusyPeriod{Title: title, Duration: &duration, Floating: true, Color: color}
}

// Kind reports whether the period is fixed or floating. A period marked
// floating but missing its duration cannot compute a completion time
// and is treated as fixed.
func (p BusyPeriod) Kind() PeriodKind {
	if p.Floating && p.Duration != nil {
		return PeriodFloating
	}
	return PeriodFixed
}

// CompletionTime returns the time to record when the period is marked
// done at trigger. Floating periods complete at trigger + duration;
// fixed periods, unknown periods (nil receiver) and floating periods
// without a duration fall back to the raw trigger time.
func (p *BusyPeriod) CompletionTime(trigger timeutil.Time) timeutil.Time {
	if p != nil && p.Kind() == PeriodFloating {
		return timeutil.Add(trigger, *p.Duration)
	}
	return trigger
}

// Completion records that a period was marked done.
type Completion struct {
	CompletedAt timeutil.Time `json:"completedAt"`
}

// DailyCompletions maps period index to its completion for one date.
type DailyCompletions map[int]Completion

// DateCompletions maps YYYY-MM-DD date keys to that date's completions.
// Date entries are pruned when their inner map empties.
type DateCompletions map[string]DailyCompletions

// DayConfig is the schedule configuration for one day of the week.
type DayConfig struct {
	Enabled        bool          `json:"enabled"`
	StartTime      timeutil.Time `json:"startTime"`
	EndTime        timeutil.Time `json:"endTime"`
	UseCustomRange bool          `json:"useCustomRange"`
	BusyPeriods    []BusyPeriod  `json:"busyPeriods"`
}

// WeekConfig maps every day of the week to its configuration. It is
// always fully populated, never partially absent.
type WeekConfig map[DayOfWeek]DayConfig

// DefaultDayConfig returns the seeded configuration for a day.
func DefaultDayConfig() DayConfig {
	return DayConfig{
		Enabled:        true,
		StartTime:      timeutil.Time{Hour: 6, Minute: 0},
		EndTime:        timeutil.Time{Hour: 22, Minute: 0},
		UseCustomRange: false,
		BusyPeriods:    []BusyPeriod{},
	}
}

// DefaultWeekConfig returns a fully populated week of defaults.
func DefaultWeekConfig() WeekConfig {
	week := make(WeekConfig, len(Days))
	for _, day := range Days {
		week[day] = DefaultDayConfig()
	}
	return week
}
