package database

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("open memory db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestSchemaAndSeed(t *testing.T) {
	d := newTestDB(t)

	var count int
	if err := d.QueryRow(`SELECT COUNT(*) FROM day_config`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 7 {
		t.Fatalf("expected 7 day rows, got %d", count)
	}

	var enabled, startHour, endHour, custom int
	err := d.QueryRow(
		`SELECT enabled, start_hour, end_hour, use_custom_range FROM day_config WHERE day_of_week = 'monday'`,
	).Scan(&enabled, &startHour, &endHour, &custom)
	if err != nil {
		t.Fatal(err)
	}
	if enabled != 1 || startHour != 6 || endHour != 22 || custom != 0 {
		t.Fatalf("unexpected seeded row: enabled=%d start=%d end=%d custom=%d", enabled, startHour, endHour, custom)
	}
}

func TestSeedDoesNotOverwriteEdits(t *testing.T) {
	d := newTestDB(t)

	if _, err := d.Exec(`UPDATE day_config SET start_hour = 8 WHERE day_of_week = 'monday'`); err != nil {
		t.Fatal(err)
	}

	// A second schema pass must keep the edit.
	if err := d.initSchema(); err != nil {
		t.Fatalf("reapply schema: %v", err)
	}

	var startHour int
	if err := d.QueryRow(`SELECT start_hour FROM day_config WHERE day_of_week = 'monday'`).Scan(&startHour); err != nil {
		t.Fatal(err)
	}
	if startHour != 8 {
		t.Fatalf("seed overwrote user edit: start_hour=%d", startHour)
	}
}

func TestCompletionsUniqueConstraint(t *testing.T) {
	d := newTestDB(t)

	insert := `INSERT INTO completions (date, period_index, completed_at_hour, completed_at_minute) VALUES (?, ?, ?, ?)`
	if _, err := d.Exec(insert, "2025-03-09", 0, 9, 30); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Exec(insert, "2025-03-09", 0, 10, 0); err == nil {
		t.Fatal("expected unique constraint violation on duplicate (date, period_index)")
	}
}

func TestBusyPeriodsCascadeDelete(t *testing.T) {
	d := newTestDB(t)

	if _, err := d.Exec(
		`INSERT INTO busy_periods (day_of_week, title, sort_order) VALUES ('monday', 'Gym', 0)`,
	); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Exec(`DELETE FROM day_config WHERE day_of_week = 'monday'`); err != nil {
		t.Fatal(err)
	}

	var count int
	if err := d.QueryRow(`SELECT COUNT(*) FROM busy_periods WHERE day_of_week = 'monday'`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("expected cascade delete, %d rows remain", count)
	}
}

func TestOpenConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daybar.db")

	const callers = 16
	var wg sync.WaitGroup
	dbs := make([]*DB, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dbs[i], errs[i] = Open(path)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if dbs[i] != dbs[0] {
			t.Fatalf("caller %d got a different instance", i)
		}
	}
	dbs[0].Close()
}

func TestOpenAfterClose(t *testing.T) {
	dir := t.TempDir()

	d1, err := Open(filepath.Join(dir, "a.db"))
	if err != nil {
		t.Fatal(err)
	}
	if err := d1.Close(); err != nil {
		t.Fatal(err)
	}

	// Close re-arms the memo, so a fresh Open initializes again.
	d2, err := Open(filepath.Join(dir, "b.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer d2.Close()
	if d2 == d1 {
		t.Fatal("expected a fresh instance after Close")
	}
	if d2.Path() != filepath.Join(dir, "b.db") {
		t.Fatalf("unexpected path %s", d2.Path())
	}
}

func TestOpenFailureSurfacesAndRetries(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	// The parent "directory" is a regular file, so the instance cannot
	// be created.
	if _, err := Open(filepath.Join(blocker, "sub", "daybar.db")); err == nil {
		t.Fatal("expected open failure")
	}

	// Failure re-arms the memo; a valid path succeeds afterwards.
	d, err := Open(filepath.Join(dir, "daybar.db"))
	if err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	d.Close()
}
