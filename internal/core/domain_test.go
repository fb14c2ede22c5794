package core

import (
	"errors"
	"testing"
	"time"
)

func TestParsePeriod(t *testing.T) {
	cases := []struct {
		in   string
		want Period
		ok   bool
	}{
		{"2024-03", Period{2024, time.March}, true},
		{" 2024-12 ", Period{2024, time.December}, true},
		{"2024-1", Period{2024, time.January}, true},
		{"2024-13", Period{}, false},
		{"2024-00", Period{}, false},
		{"2024", Period{}, false},
		{"abcd-01", Period{}, false},
		{"", Period{}, false},
	}
	for _, tc := range cases {
		got, err := ParsePeriod(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.want, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidPeriod) {
			t.Fatalf("%q expected ErrInvalidPeriod, got %v", tc.in, err)
		}
	}
}

func TestPeriodPrevious(t *testing.T) {
	if got := (Period{2024, time.January}).Previous(); got != (Period{2023, time.December}) {
		t.Fatalf("expected 2023-12, got %v", got)
	}
	if got := (Period{2024, time.March}).Previous(); got != (Period{2024, time.February}) {
		t.Fatalf("expected 2024-02, got %v", got)
	}
}

func TestPeriodStringAndLabel(t *testing.T) {
	p := Period{2024, time.March}
	if p.String() != "2024-03" {
		t.Fatalf("unexpected string %q", p.String())
	}
	if p.Label() != "Março 2024" {
		t.Fatalf("unexpected label %q", p.Label())
	}
	if MonthName(0) != "" || MonthName(13) != "" {
		t.Fatalf("out of range months must have no name")
	}
}

func TestPeriodContains(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	p := Period{2024, time.March}
	if !p.Contains(time.Date(2024, 3, 31, 23, 0, 0, 0, loc)) {
		t.Fatalf("expected last day of march to be contained")
	}
	if p.Contains(time.Date(2024, 4, 1, 0, 0, 0, 0, loc)) {
		t.Fatalf("april must not be contained")
	}
}

func TestUpsertMonthConfig(t *testing.T) {
	var s Settings
	if err := s.UpsertMonthConfig(MonthConfig{Year: 2024, Month: time.March, GID: "123"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.UpsertMonthConfig(MonthConfig{Year: 2024, Month: time.April, GID: "456", Name: "Abril"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.UpsertMonthConfig(MonthConfig{Year: 2024, Month: time.March, GID: " 789 "}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if len(s.MonthConfigs) != 2 {
		t.Fatalf("expected 2 configs, got %d", len(s.MonthConfigs))
	}
	mc, ok := s.MonthConfigFor(Period{2024, time.March})
	if !ok || mc.GID != "789" || mc.Name != "Março 2024" {
		t.Fatalf("unexpected config %+v (ok=%v)", mc, ok)
	}
	mc, _ = s.MonthConfigFor(Period{2024, time.April})
	if mc.Name != "Abril" {
		t.Fatalf("explicit name must be kept, got %q", mc.Name)
	}
}

func TestUpsertMonthConfigRejectsInvalid(t *testing.T) {
	bads := []MonthConfig{
		{Year: 2024, Month: 0, GID: "1"},
		{Year: 2024, Month: 13, GID: "1"},
		{Year: 2024, Month: time.May, GID: ""},
		{Year: 2024, Month: time.May, GID: "abc"},
	}
	for i, mc := range bads {
		var s Settings
		if err := s.UpsertMonthConfig(mc); err == nil {
			t.Fatalf("case %d expected error", i)
		}
		if len(s.MonthConfigs) != 0 {
			t.Fatalf("case %d must not store invalid config", i)
		}
	}
}

func TestRemoveMonthConfig(t *testing.T) {
	s := Settings{MonthConfigs: []MonthConfig{
		{Year: 2024, Month: time.March, GID: "1"},
		{Year: 2024, Month: time.April, GID: "2"},
	}}
	if !s.RemoveMonthConfig(Period{2024, time.March}) {
		t.Fatalf("expected removal")
	}
	if s.RemoveMonthConfig(Period{2024, time.March}) {
		t.Fatalf("second removal must report false")
	}
	if _, ok := s.MonthConfigFor(Period{2024, time.April}); !ok {
		t.Fatalf("april must survive")
	}
}

func TestResultIsValid(t *testing.T) {
	for _, r := range Results {
		if !r.IsValid() {
			t.Fatalf("%q should be valid", r)
		}
	}
	if Result("green").IsValid() {
		t.Fatalf("labels are case sensitive")
	}
}
