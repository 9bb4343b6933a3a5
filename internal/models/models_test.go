package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/daybar-app/daybar/internal/timeutil"
)

func TestDayOf(t *testing.T) {
	// 2025-12-31 is a Wednesday.
	d := time.Date(2025, 12, 31, 12, 0, 0, 0, time.UTC)
	if got := DayOf(d); got != Wednesday {
		t.Errorf("DayOf = %v, want wednesday", got)
	}

	d = time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC) // a Sunday
	if got := DayOf(d); got != Sunday {
		t.Errorf("DayOf = %v, want sunday", got)
	}
}

func TestPeriodKind(t *testing.T) {
	fixed := FixedPeriod("Gym", timeutil.Time{Hour: 9}, timeutil.Time{Hour: 10}, "#FF0000")
	if fixed.Kind() != PeriodFixed {
		t.Error("fixed period reported as floating")
	}

	floating := FloatingPeriod("Reading", timeutil.Time{Minute: 30}, "")
	if floating.Kind() != PeriodFloating {
		t.Error("floating period reported as fixed")
	}

	// Floating flag without a duration cannot compute a completion
	// time, so the period degrades to fixed.
	broken := BusyPeriod{Title: "Broken", Floating: true}
	if broken.Kind() != PeriodFixed {
		t.Error("floating period without duration should degrade to fixed")
	}
}

func TestCompletionTime(t *testing.T) {
	trigger := timeutil.Time{Hour: 9, Minute: 0}

	floating := FloatingPeriod("Reading", timeutil.Time{Minute: 30}, "")
	if got := floating.CompletionTime(trigger); got != (timeutil.Time{Hour: 9, Minute: 30}) {
		t.Errorf("floating completion = %v, want 09:30", got)
	}

	fixed := FixedPeriod("Gym", timeutil.Time{Hour: 9}, timeutil.Time{Hour: 10}, "")
	if got := fixed.CompletionTime(trigger); got != trigger {
		t.Errorf("fixed completion = %v, want trigger", got)
	}

	// A period that no longer exists still yields the trigger time.
	var missing *BusyPeriod
	if got := missing.CompletionTime(trigger); got != trigger {
		t.Errorf("missing period completion = %v, want trigger", got)
	}
}

func TestDefaultWeekConfig(t *testing.T) {
	week := DefaultWeekConfig()
	if len(week) != 7 {
		t.Fatalf("expected 7 days, got %d", len(week))
	}
	for _, day := range Days {
		cfg, ok := week[day]
		if !ok {
			t.Fatalf("missing day %s", day)
		}
		if !cfg.Enabled {
			t.Errorf("%s: expected enabled by default", day)
		}
		if cfg.StartTime != (timeutil.Time{Hour: 6}) || cfg.EndTime != (timeutil.Time{Hour: 22}) {
			t.Errorf("%s: unexpected default range %v-%v", day, cfg.StartTime, cfg.EndTime)
		}
		if cfg.UseCustomRange {
			t.Errorf("%s: custom range should default off", day)
		}
		if len(cfg.BusyPeriods) != 0 {
			t.Errorf("%s: expected no default busy periods", day)
		}
	}
}

func TestBusyPeriodLegacyJSON(t *testing.T) {
	// The JSON shape must match the legacy snapshot: optional fields
	// omitted rather than null-filled.
	data, err := json.Marshal(FloatingPeriod("Reading", timeutil.Time{Minute: 30}, ""))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"title":"Reading","duration":{"hour":0,"minute":30},"floating":true}`
	if string(data) != want {
		t.Errorf("marshal = %s, want %s", data, want)
	}

	var p BusyPeriod
	if err := json.Unmarshal([]byte(`{"start":{"hour":9,"minute":0},"end":{"hour":10,"minute":15}}`), &p); err != nil {
		t.Fatal(err)
	}
	if p.Kind() != PeriodFixed || p.Start == nil || p.End.Minute != 15 {
		t.Errorf("unexpected decode: %+v", p)
	}
}
