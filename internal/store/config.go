package store

import (
	"fmt"

	"github.com/daybar-app/daybar/internal/database"
	"github.com/daybar-app/daybar/internal/models"
	"github.com/daybar-app/daybar/internal/timeutil"
)

// SelectedDay returns the day the UI is editing.
func (s *Store) SelectedDay() models.DayOfWeek {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// CurrentDayConfig returns the configuration of the selected day.
func (s *Store) CurrentDayConfig() models.DayConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneDayConfig(s.week[s.selected])
}

// TodayConfig returns the configuration of the real-world current day,
// regardless of selection.
func (s *Store) TodayConfig() models.DayConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneDayConfig(s.week[models.DayOf(s.now())])
}

// DayConfigFor returns the configuration of an arbitrary day.
func (s *Store) DayConfigFor(day models.DayOfWeek) models.DayConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneDayConfig(s.week[day])
}

// SelectDay changes the selected day. Selection is transient UI state
// and is never persisted.
func (s *Store) SelectDay(day models.DayOfWeek) {
	s.mu.Lock()
	s.selected = day
	s.mu.Unlock()
	s.notify()
}

// SetEnabled toggles the selected day on or off.
func (s *Store) SetEnabled(value bool) {
	s.updateSelected(func(cfg *models.DayConfig) {
		cfg.Enabled = value
	})
}

// SetStartTime sets the selected day's window start.
func (s *Store) SetStartTime(t timeutil.Time) {
	s.updateSelected(func(cfg *models.DayConfig) {
		cfg.StartTime = t
	})
}

// SetEndTime sets the selected day's window end.
func (s *Store) SetEndTime(t timeutil.Time) {
	s.updateSelected(func(cfg *models.DayConfig) {
		cfg.EndTime = t
	})
}

// SetUseCustomRange toggles the selected day's custom time window.
func (s *Store) SetUseCustomRange(value bool) {
	s.updateSelected(func(cfg *models.DayConfig) {
		cfg.UseCustomRange = value
	})
}

// updateSelected applies an in-memory edit to the selected day, then
// persists that day's row.
func (s *Store) updateSelected(edit func(*models.DayConfig)) {
	s.mu.Lock()
	day := s.selected
	cfg := s.week[day]
	edit(&cfg)
	s.week[day] = cfg
	snapshot := cfg
	s.mu.Unlock()
	s.notify()

	s.enqueue("update day config", func(db *database.DB) error {
		return persistDayRow(db, day, snapshot)
	})
}

// AddBusyPeriod appends a period to the selected day's sequence.
func (s *Store) AddBusyPeriod(p models.BusyPeriod) {
	s.mutatePeriods(func(periods []models.BusyPeriod) []models.BusyPeriod {
		return append(periods, p)
	})
}

// UpdateBusyPeriod replaces the period at index. Out-of-range indexes
// are ignored.
func (s *Store) UpdateBusyPeriod(index int, p models.BusyPeriod) {
	s.mutatePeriods(func(periods []models.BusyPeriod) []models.BusyPeriod {
		if index < 0 || index >= len(periods) {
			return periods
		}
		periods[index] = p
		return periods
	})
}

// RemoveBusyPeriod deletes the period at index. Out-of-range indexes
// are ignored.
func (s *Store) RemoveBusyPeriod(index int) {
	s.mutatePeriods(func(periods []models.BusyPeriod) []models.BusyPeriod {
		if index < 0 || index >= len(periods) {
			return periods
		}
		return append(periods[:index], periods[index+1:]...)
	})
}

// mutatePeriods edits the selected day's ordered sequence in memory,
// then re-persists the day's period rows wholesale so the stored sort
// order always matches the sequence.
func (s *Store) mutatePeriods(edit func([]models.BusyPeriod) []models.BusyPeriod) {
	s.mu.Lock()
	day := s.selected
	cfg := s.week[day]
	cfg.BusyPeriods = edit(cfg.BusyPeriods)
	s.week[day] = cfg
	snapshot := clonePeriods(cfg.BusyPeriods)
	s.mu.Unlock()
	s.notify()

	s.enqueue("replace busy periods", func(db *database.DB) error {
		return replacePeriods(db, day, snapshot)
	})
}

func persistDayRow(db *database.DB, day models.DayOfWeek, cfg models.DayConfig) error {
	_, err := db.Exec(
		`UPDATE day_config SET
			enabled = ?,
			start_hour = ?,
			start_minute = ?,
			end_hour = ?,
			end_minute = ?,
			use_custom_range = ?
		WHERE day_of_week = ?`,
		boolInt(cfg.Enabled),
		cfg.StartTime.Hour, cfg.StartTime.Minute,
		cfg.EndTime.Hour, cfg.EndTime.Minute,
		boolInt(cfg.UseCustomRange),
		string(day),
	)
	return err
}

// replacePeriods rewrites a day's period rows in one transaction:
// delete-all-then-reinsert keeps sort_order dense and in sequence
// order.
func replacePeriods(db *database.DB, day models.DayOfWeek, periods []models.BusyPeriod) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM busy_periods WHERE day_of_week = ?`, string(day)); err != nil {
		return fmt.Errorf("clear periods: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO busy_periods (
			day_of_week, title, start_hour, start_minute, end_hour, end_minute,
			duration_hour, duration_minute, floating, color, sort_order
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, p := range periods {
		startHour, startMinute := nullableTimeCols(p.Start)
		endHour, endMinute := nullableTimeCols(p.End)
		durationHour, durationMinute := nullableTimeCols(p.Duration)
		_, err := stmt.Exec(
			string(day), nullableString(p.Title),
			startHour, startMinute, endHour, endMinute,
			durationHour, durationMinute,
			boolInt(p.Floating), nullableString(p.Color), i,
		)
		if err != nil {
			return fmt.Errorf("insert period %d: %w", i, err)
		}
	}

	return tx.Commit()
}

func cloneDayConfig(cfg models.DayConfig) models.DayConfig {
	cfg.BusyPeriods = clonePeriods(cfg.BusyPeriods)
	return cfg
}

func clonePeriods(periods []models.BusyPeriod) []models.BusyPeriod {
	out := make([]models.BusyPeriod, len(periods))
	copy(out, periods)
	return out
}

func nullableTimeCols(t *timeutil.Time) (any, any) {
	if t == nil {
		return nil, nil
	}
	return t.Hour, t.Minute
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
