package tui

import (
	"context"
	"testing"
	"time"

	"github.com/daybar-app/daybar/internal/database"
	"github.com/daybar-app/daybar/internal/models"
	"github.com/daybar-app/daybar/internal/store"
	"github.com/daybar-app/daybar/internal/timeutil"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("open memory db: %v", err)
	}
	s := store.New(store.Options{DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.WaitUntilReady(ctx); err != nil {
		t.Fatalf("store never became ready: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    timeutil.Time
		wantErr bool
	}{
		{in: "09:30", want: timeutil.Time{Hour: 9, Minute: 30}},
		{in: "9:05", want: timeutil.Time{Hour: 9, Minute: 5}},
		{in: " 23:59 ", want: timeutil.Time{Hour: 23, Minute: 59}},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := parseClock(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseClock(%q): expected error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseClock(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseClock(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestDayFormApply(t *testing.T) {
	s := newTestStore(t)

	f := newDayForm(s.CurrentDayConfig())
	*f.enabled = false
	*f.customRange = true
	*f.start = "08:15"
	*f.end = "20:45"
	if err := f.Apply(s); err != nil {
		t.Fatalf("apply: %v", err)
	}

	cfg := s.CurrentDayConfig()
	if cfg.Enabled {
		t.Error("day should be disabled")
	}
	if !cfg.UseCustomRange {
		t.Error("custom range should be set")
	}
	if cfg.StartTime != (timeutil.Time{Hour: 8, Minute: 15}) {
		t.Errorf("start = %v", cfg.StartTime)
	}
	if cfg.EndTime != (timeutil.Time{Hour: 20, Minute: 45}) {
		t.Errorf("end = %v", cfg.EndTime)
	}
}

func TestDayFormRejectsBadClock(t *testing.T) {
	s := newTestStore(t)
	before := s.CurrentDayConfig()

	f := newDayForm(before)
	*f.start = "25:00"
	if err := f.Apply(s); err == nil {
		t.Fatal("expected error for invalid start time")
	}
	if got := s.CurrentDayConfig(); got.StartTime != before.StartTime {
		t.Errorf("start time changed to %v on failed apply", got.StartTime)
	}
}

func TestPeriodFormAddFixed(t *testing.T) {
	s := newTestStore(t)

	f := newPeriodForm(-1, models.BusyPeriod{})
	*f.title = "standup"
	*f.periodType = "fixed"
	*f.start = "09:00"
	*f.end = "09:15"
	if err := f.Apply(s); err != nil {
		t.Fatalf("apply: %v", err)
	}

	periods := s.CurrentDayConfig().BusyPeriods
	if len(periods) != 1 {
		t.Fatalf("got %d periods", len(periods))
	}
	p := periods[0]
	if p.Kind() != models.PeriodFixed {
		t.Error("expected a fixed period")
	}
	if p.Title != "standup" || p.Start == nil || p.End == nil {
		t.Errorf("unexpected period %+v", p)
	}
}

func TestPeriodFormEditToFloating(t *testing.T) {
	s := newTestStore(t)
	s.AddBusyPeriod(models.FixedPeriod("walk", timeutil.Time{Hour: 7}, timeutil.Time{Hour: 8}, ""))

	f := newPeriodForm(0, s.CurrentDayConfig().BusyPeriods[0])
	*f.periodType = "floating"
	*f.duration = "00:45"
	if err := f.Apply(s); err != nil {
		t.Fatalf("apply: %v", err)
	}

	p := s.CurrentDayConfig().BusyPeriods[0]
	if p.Kind() != models.PeriodFloating {
		t.Fatal("expected a floating period")
	}
	if p.Duration == nil || *p.Duration != (timeutil.Time{Hour: 0, Minute: 45}) {
		t.Errorf("duration = %v", p.Duration)
	}
	if p.Title != "walk" {
		t.Errorf("title = %q", p.Title)
	}
}

func TestPeriodFormFloatingNeedsDuration(t *testing.T) {
	s := newTestStore(t)

	f := newPeriodForm(-1, models.BusyPeriod{})
	*f.periodType = "floating"
	if err := f.Apply(s); err == nil {
		t.Fatal("expected error for missing duration")
	}
	if n := len(s.CurrentDayConfig().BusyPeriods); n != 0 {
		t.Errorf("got %d periods after failed apply", n)
	}
}

func TestDescribePeriod(t *testing.T) {
	fixed := models.FixedPeriod("x", timeutil.Time{Hour: 9}, timeutil.Time{Hour: 10, Minute: 30}, "")
	if got := describePeriod(fixed); got != "09:00-10:30" {
		t.Errorf("fixed = %q", got)
	}
	floating := models.FloatingPeriod("x", timeutil.Time{Minute: 20}, "")
	if got := describePeriod(floating); got != "~00:20" {
		t.Errorf("floating = %q", got)
	}
}
