// Package store holds daybar's reactive schedule state: the in-memory
// week configuration and completions map that the UI reads, mirrored
// into the embedded database. Mutations apply to memory synchronously
// and are persisted by a serialized background writer, so reads always
// reflect the latest mutation while durable writes settle behind it.
package store

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/daybar-app/daybar/internal/database"
	"github.com/daybar-app/daybar/internal/legacy"
	"github.com/daybar-app/daybar/internal/logger"
	"github.com/daybar-app/daybar/internal/models"
	"github.com/daybar-app/daybar/internal/timeutil"
)

// Options configures a Store.
type Options struct {
	// DBPath is the database location, used when DB is nil.
	DBPath string
	// DB injects an already-open handle, bypassing the process-wide
	// gateway. Used by tests.
	DB *database.DB
	// Legacy, when set, is consulted once for a pre-relational
	// snapshot to migrate.
	Legacy legacy.KV
	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// Store is the schedule state container. All exported methods are safe
// for concurrent use.
type Store struct {
	mu          sync.RWMutex
	week        models.WeekConfig
	completions models.DateCompletions
	selected    models.DayOfWeek
	db          *database.DB // nil while initializing or when degraded
	degraded    bool
	subs        map[int]func()
	nextSub     int

	ready  chan struct{} // closed once startup settles, success or not
	writes chan func(*database.DB)
	now    func() time.Time
}

// New creates a Store seeded with defaults and starts initialization in
// the background: gateway open, legacy migration, then hydration. The
// store is usable immediately; WaitUntilReady blocks until startup
// settles. On any startup failure the store degrades to serving the
// seeded defaults from memory instead of hanging.
func New(opts Options) *Store {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &Store{
		week:        models.DefaultWeekConfig(),
		completions: models.DateCompletions{},
		selected:    models.DayOf(now()),
		subs:        make(map[int]func()),
		ready:       make(chan struct{}),
		writes:      make(chan func(*database.DB), 256),
		now:         now,
	}

	go s.initialize(opts)
	go s.writer()
	return s
}

func (s *Store) initialize(opts Options) {
	defer close(s.ready)

	db := opts.DB
	if db == nil {
		var err error
		db, err = database.Open(opts.DBPath)
		if err != nil {
			logger.Error("storage unavailable, serving defaults from memory", "error", err)
			s.mu.Lock()
			s.degraded = true
			s.mu.Unlock()
			return
		}
	}

	if opts.Legacy != nil {
		if err := legacy.Migrate(db, opts.Legacy); err != nil {
			logger.Error("legacy migration failed", "error", err)
		}
	}

	week, completions, err := hydrate(db)
	if err != nil {
		logger.Error("hydration failed, serving defaults from memory", "error", err)
		s.mu.Lock()
		s.degraded = true
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.week = week
	s.completions = completions
	s.db = db
	s.mu.Unlock()
	s.notify()
}

// writer drains the durable-write queue in issuance order. One worker
// keeps delete-then-reinsert sequences from interleaving, so the last
// mutation enqueued is the last one persisted.
func (s *Store) writer() {
	<-s.ready
	s.mu.RLock()
	db := s.db
	s.mu.RUnlock()

	for fn := range s.writes {
		fn(db)
	}
}

// enqueue schedules a durable write. In degraded mode the write is
// discarded: memory is the only view we have.
func (s *Store) enqueue(op string, fn func(db *database.DB) error) {
	s.writes <- func(db *database.DB) {
		if db == nil {
			return
		}
		if err := fn(db); err != nil {
			// The in-memory change already happened and stays; the
			// views reconcile on the next successful write.
			logger.Error("durable write failed", "op", op, "error", err)
		}
	}
}

// Ready reports whether startup has settled.
func (s *Store) Ready() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

// Degraded reports whether startup failed and the store is serving
// defaults from memory only.
func (s *Store) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

// WaitUntilReady blocks until startup settles, success or failure.
func (s *Store) WaitUntilReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush blocks until every durable write issued so far has been
// applied (or discarded, in degraded mode).
func (s *Store) Flush() {
	ack := make(chan struct{})
	s.writes <- func(*database.DB) { close(ack) }
	<-ack
}

// Close flushes pending writes and releases the database handle.
func (s *Store) Close() error {
	s.Flush()
	s.mu.Lock()
	db := s.db
	s.db = nil
	s.mu.Unlock()
	if db != nil {
		return db.Close()
	}
	return nil
}

// Subscribe registers fn to run after every in-memory mutation. The
// returned function unsubscribes.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify() {
	s.mu.RLock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()
	for _, fn := range fns {
		fn()
	}
}

// hydrate reads the full durable state: day rows, busy periods ordered
// by day and sort position, and completions.
func hydrate(db *database.DB) (models.WeekConfig, models.DateCompletions, error) {
	week := models.DefaultWeekConfig()

	rows, err := db.Query(
		`SELECT day_of_week, enabled, start_hour, start_minute, end_hour, end_minute, use_custom_range
		 FROM day_config`,
	)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var day string
		var enabled, custom int
		cfg := models.DayConfig{BusyPeriods: []models.BusyPeriod{}}
		if err := rows.Scan(
			&day, &enabled,
			&cfg.StartTime.Hour, &cfg.StartTime.Minute,
			&cfg.EndTime.Hour, &cfg.EndTime.Minute,
			&custom,
		); err != nil {
			return nil, nil, err
		}
		cfg.Enabled = enabled == 1
		cfg.UseCustomRange = custom == 1
		week[models.DayOfWeek(day)] = cfg
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	periodRows, err := db.Query(
		`SELECT day_of_week, title, start_hour, start_minute, end_hour, end_minute,
		        duration_hour, duration_minute, floating, color
		 FROM busy_periods ORDER BY day_of_week, sort_order`,
	)
	if err != nil {
		return nil, nil, err
	}
	defer periodRows.Close()
	for periodRows.Next() {
		var day string
		var title, color sql.NullString
		var startH, startM, endH, endM, durH, durM sql.NullInt64
		var floating sql.NullInt64
		if err := periodRows.Scan(
			&day, &title, &startH, &startM, &endH, &endM, &durH, &durM, &floating, &color,
		); err != nil {
			return nil, nil, err
		}
		p := models.BusyPeriod{
			Title:    title.String,
			Start:    nullableToTime(startH, startM),
			End:      nullableToTime(endH, endM),
			Duration: nullableToTime(durH, durM),
			Floating: floating.Valid && floating.Int64 == 1,
			Color:    color.String,
		}
		key := models.DayOfWeek(day)
		cfg := week[key]
		cfg.BusyPeriods = append(cfg.BusyPeriods, p)
		week[key] = cfg
	}
	if err := periodRows.Err(); err != nil {
		return nil, nil, err
	}

	completions := models.DateCompletions{}
	completionRows, err := db.Query(
		`SELECT date, period_index, completed_at_hour, completed_at_minute FROM completions`,
	)
	if err != nil {
		return nil, nil, err
	}
	defer completionRows.Close()
	for completionRows.Next() {
		var date string
		var index int
		var c models.Completion
		if err := completionRows.Scan(&date, &index, &c.CompletedAt.Hour, &c.CompletedAt.Minute); err != nil {
			return nil, nil, err
		}
		if completions[date] == nil {
			completions[date] = models.DailyCompletions{}
		}
		completions[date][index] = c
	}
	if err := completionRows.Err(); err != nil {
		return nil, nil, err
	}

	return week, completions, nil
}

func nullableToTime(hour, minute sql.NullInt64) *timeutil.Time {
	if !hour.Valid {
		return nil
	}
	return &timeutil.Time{Hour: int(hour.Int64), Minute: int(minute.Int64)}
}
