package store

import (
	"fmt"
	"time"

	"github.com/daybar-app/daybar/internal/database"
	"github.com/daybar-app/daybar/internal/models"
	"github.com/daybar-app/daybar/internal/timeutil"
)

// CompletionsForDate returns the completions recorded for a calendar
// date, keyed by period index.
func (s *Store) CompletionsForDate(date time.Time) models.DailyCompletions {
	key := timeutil.DateKey(date)
	s.mu.RLock()
	defer s.mu.RUnlock()

	daily := s.completions[key]
	out := make(models.DailyCompletions, len(daily))
	for index, c := range daily {
		out[index] = c
	}
	return out
}

// IsCompleted reports whether the period at index is completed on date.
func (s *Store) IsCompleted(index int, date time.Time) bool {
	key := timeutil.DateKey(date)
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.completions[key][index]
	return ok
}

// CompletionTimeAt returns the recorded completion time for the period
// at index on date.
func (s *Store) CompletionTimeAt(index int, date time.Time) (timeutil.Time, bool) {
	key := timeutil.DateKey(date)
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.completions[key][index]
	return c.CompletedAt, ok
}

// ToggleCompletion flips the completion state of the period at index
// for the given date. Completing a floating period records
// trigger + duration; anything else records the trigger verbatim.
// Uncompleting removes the entry and prunes the date key once its last
// completion is gone.
func (s *Store) ToggleCompletion(index int, trigger timeutil.Time, date time.Time) {
	key := timeutil.DateKey(date)
	day := models.DayOf(date)

	s.mu.Lock()
	// The period may no longer exist if the config changed since it
	// was scheduled; CompletionTime falls back to the trigger then.
	var period *models.BusyPeriod
	if periods := s.week[day].BusyPeriods; index >= 0 && index < len(periods) {
		period = &periods[index]
	}

	if _, completed := s.completions[key][index]; completed {
		delete(s.completions[key], index)
		if len(s.completions[key]) == 0 {
			delete(s.completions, key)
		}
		s.mu.Unlock()
		s.notify()

		s.enqueue("delete completion", func(db *database.DB) error {
			_, err := db.Exec(
				`DELETE FROM completions WHERE date = ? AND period_index = ?`, key, index,
			)
			return err
		})
		return
	}

	completedAt := period.CompletionTime(trigger)
	if s.completions[key] == nil {
		s.completions[key] = models.DailyCompletions{}
	}
	s.completions[key][index] = models.Completion{CompletedAt: completedAt}
	s.mu.Unlock()
	s.notify()

	s.enqueue("upsert completion", func(db *database.DB) error {
		// On-conflict update: a write racing a stale read can never
		// produce a duplicate row, the last write for the key wins.
		_, err := db.Exec(
			`INSERT INTO completions (date, period_index, completed_at_hour, completed_at_minute)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(date, period_index) DO UPDATE SET
				completed_at_hour = excluded.completed_at_hour,
				completed_at_minute = excluded.completed_at_minute`,
			key, index, completedAt.Hour, completedAt.Minute,
		)
		return err
	})
}

// ResetAll restores the seeded defaults. Memory resets immediately so
// the UI reflects defaults even while the durable reset is in flight.
func (s *Store) ResetAll() {
	s.mu.Lock()
	s.week = models.DefaultWeekConfig()
	s.completions = models.DateCompletions{}
	s.mu.Unlock()
	s.notify()

	s.enqueue("reset all", func(db *database.DB) error {
		defaults := models.DefaultDayConfig()
		for _, day := range models.Days {
			if err := persistDayRow(db, day, defaults); err != nil {
				return fmt.Errorf("reset day %s: %w", day, err)
			}
		}
		if _, err := db.Exec(`DELETE FROM busy_periods`); err != nil {
			return fmt.Errorf("clear busy periods: %w", err)
		}
		if _, err := db.Exec(`DELETE FROM completions`); err != nil {
			return fmt.Errorf("clear completions: %w", err)
		}
		return nil
	})
}
