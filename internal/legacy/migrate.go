package legacy

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/daybar-app/daybar/internal/database"
	"github.com/daybar-app/daybar/internal/logger"
	"github.com/daybar-app/daybar/internal/models"
	"github.com/daybar-app/daybar/internal/timeutil"
)

// MigrationID is the ledger identifier of the one-time key-value
// migration.
const MigrationID = "legacy_kv_v1"

// ParseError reports a malformed legacy blob. The blob it names is
// skipped; the other blob still migrates and the ledger entry is still
// written so the bad blob is not retried on the next start.
type ParseError struct {
	Key string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse legacy blob %s: %v", e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Migrate moves the legacy snapshot into the relational store. It runs
// after schema setup and before hydration, and is guarded by the
// migrations ledger so it applies at most once. Config and completions
// are independent best-effort passes: a corrupt blob is logged and
// skipped without blocking the other.
func Migrate(db *database.DB, kv KV) error {
	var applied string
	err := db.QueryRow(`SELECT id FROM migrations WHERE id = ?`, MigrationID).Scan(&applied)
	if err == nil {
		return nil // already migrated
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check migration ledger: %w", err)
	}

	if configStr, ok, err := kv.Get(ConfigKey); err != nil {
		logger.Error("read legacy config blob", "error", err)
	} else if ok {
		if err := migrateConfig(db, configStr); err != nil {
			logger.Error("legacy config migration failed", "error", err)
		}
	}

	if completionsStr, ok, err := kv.Get(CompletionsKey); err != nil {
		logger.Error("read legacy completions blob", "error", err)
	} else if ok {
		if err := migrateCompletions(db, completionsStr); err != nil {
			logger.Error("legacy completions migration failed", "error", err)
		}
	}

	if _, err := db.Exec(`INSERT INTO migrations (id) VALUES (?)`, MigrationID); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}

	if err := kv.Remove(ConfigKey); err != nil {
		logger.Warn("remove legacy config blob", "error", err)
	}
	if err := kv.Remove(CompletionsKey); err != nil {
		logger.Warn("remove legacy completions blob", "error", err)
	}

	logger.Info("migrated legacy snapshot", "id", MigrationID)
	return nil
}

func migrateConfig(db *database.DB, blob string) error {
	var config map[models.DayOfWeek]models.DayConfig
	if err := json.Unmarshal([]byte(blob), &config); err != nil {
		return &ParseError{Key: ConfigKey, Err: err}
	}

	for day, dayConfig := range config {
		_, err := db.Exec(
			`UPDATE day_config SET
				enabled = ?,
				start_hour = ?,
				start_minute = ?,
				end_hour = ?,
				end_minute = ?,
				use_custom_range = ?
			WHERE day_of_week = ?`,
			boolInt(dayConfig.Enabled),
			dayConfig.StartTime.Hour, dayConfig.StartTime.Minute,
			dayConfig.EndTime.Hour, dayConfig.EndTime.Minute,
			boolInt(dayConfig.UseCustomRange),
			string(day),
		)
		if err != nil {
			return fmt.Errorf("update day %s: %w", day, err)
		}

		// Replace the day's periods wholesale so sort_order mirrors
		// the snapshot's sequence order.
		if _, err := db.Exec(`DELETE FROM busy_periods WHERE day_of_week = ?`, string(day)); err != nil {
			return fmt.Errorf("clear periods for %s: %w", day, err)
		}
		for i, period := range dayConfig.BusyPeriods {
			if err := InsertBusyPeriod(db, day, i, period); err != nil {
				return fmt.Errorf("insert period %d for %s: %w", i, day, err)
			}
		}
	}
	return nil
}

func migrateCompletions(db *database.DB, blob string) error {
	// Inner keys arrive as JSON object keys, so indexes are strings.
	var completions map[string]map[string]models.Completion
	if err := json.Unmarshal([]byte(blob), &completions); err != nil {
		return &ParseError{Key: CompletionsKey, Err: err}
	}

	for date, daily := range completions {
		for indexStr, completion := range daily {
			index, err := strconv.Atoi(indexStr)
			if err != nil {
				return &ParseError{Key: CompletionsKey, Err: fmt.Errorf("period index %q: %w", indexStr, err)}
			}
			// First write wins within this one-time pass: never
			// overwrite an already-migrated completion.
			_, err = db.Exec(
				`INSERT INTO completions (date, period_index, completed_at_hour, completed_at_minute)
				 VALUES (?, ?, ?, ?)
				 ON CONFLICT(date, period_index) DO NOTHING`,
				date, index, completion.CompletedAt.Hour, completion.CompletedAt.Minute,
			)
			if err != nil {
				return fmt.Errorf("insert completion %s/%d: %w", date, index, err)
			}
		}
	}
	return nil
}

// InsertBusyPeriod writes one period row at the given sort position,
// mapping absent optional fields to NULL columns.
func InsertBusyPeriod(db *database.DB, day models.DayOfWeek, sortOrder int, p models.BusyPeriod) error {
	startHour, startMinute := nullableTime(p.Start)
	endHour, endMinute := nullableTime(p.End)
	durationHour, durationMinute := nullableTime(p.Duration)

	_, err := db.Exec(
		`INSERT INTO busy_periods (
			day_of_week, title, start_hour, start_minute, end_hour, end_minute,
			duration_hour, duration_minute, floating, color, sort_order
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(day), nullableString(p.Title),
		startHour, startMinute, endHour, endMinute,
		durationHour, durationMinute,
		boolInt(p.Floating), nullableString(p.Color), sortOrder,
	)
	return err
}

func nullableTime(t *timeutil.Time) (any, any) {
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
