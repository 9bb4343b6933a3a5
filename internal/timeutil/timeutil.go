// Package timeutil provides the clock-time value type used throughout
// daybar and the arithmetic the schedule model needs: decimal-hour
// conversion for layout math, HH:MM formatting, duration addition and
// canonical date keys.
package timeutil

import (
	"fmt"
	"time"
)

// Time is a wall-clock value. Hour is 0-23 for stored times but may
// exceed 23 on computed values, see Add.
type Time struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// ToDecimal converts t to fractional hours (e.g. 09:30 -> 9.5).
func ToDecimal(t Time) float64 {
	return float64(t.Hour) + float64(t.Minute)/60
}

// FromDecimal converts fractional hours back to a Time. The minute is
// rounded, and a minute that rounds up to 60 carries into the hour
// (12.9999 is 13:00, not 12:60).
func FromDecimal(d float64) Time {
	hour := int(d)
	minute := int((d-float64(hour))*60 + 0.5)
	if minute == 60 {
		hour++
		minute = 0
	}
	return Time{Hour: hour, Minute: minute}
}

// Format renders t as zero-padded HH:MM.
func Format(t Time) string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Add returns base advanced by duration. The result is not wrapped at
// midnight: a floating task finishing past 24:00 keeps the raw hour so
// callers can display it as an overflow rather than the next morning.
func Add(base, duration Time) Time {
	total := base.Hour*60 + base.Minute + duration.Hour*60 + duration.Minute
	return Time{
		Hour:   total / 60,
		Minute: total % 60,
	}
}

// DateKey returns the canonical YYYY-MM-DD key for a calendar date,
// truncated in UTC. This matches the key format of the legacy snapshot,
// so migrated completions stay addressable under the same keys.
func DateKey(date time.Time) string {
	return date.UTC().Format("2006-01-02")
}
