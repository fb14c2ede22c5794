package services

import (
	"testing"
	"time"

	"arbdash/internal/core"
)

func TestOccurrenceCounters(t *testing.T) {
	march := core.Period{Year: 2024, Month: time.March}

	tests := []struct {
		name        string
		periodicity core.Periodicity
		start       time.Time
		want        int
	}{
		{"one-off in month", core.OneOff, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), 1},
		{"one-off other month", core.OneOff, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), 0},
		{"empty is one-off", "", time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC), 1},
		{"monthly started earlier", core.Monthly, time.Date(2023, 11, 5, 0, 0, 0, 0, time.UTC), 1},
		{"monthly starts this month", core.Monthly, time.Date(2024, 3, 28, 0, 0, 0, 0, time.UTC), 1},
		{"monthly starts later", core.Monthly, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), 0},
		// Fridays of March 2024: 1, 8, 15, 22, 29.
		{"weekly started long before", core.Weekly, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), 5},
		{"weekly started the day before the month", core.Weekly, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), 4},
		{"weekly starts mid month", core.Weekly, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC), 2},
		{"weekly starts on the last day", core.Weekly, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), 1},
		{"weekly starts later", core.Weekly, time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter, err := GetOccurrenceCounter(tt.periodicity)
			if err != nil {
				t.Fatalf("GetOccurrenceCounter: %v", err)
			}
			if got := counter.Occurrences(tt.start, march); got != tt.want {
				t.Errorf("Occurrences() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetOccurrenceCounter_Unknown(t *testing.T) {
	if _, err := GetOccurrenceCounter("anual"); err == nil {
		t.Fatalf("expected error for unknown periodicity")
	}
}
