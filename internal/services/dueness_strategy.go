// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for recurring expenses: each
// periodicity has an OccurrenceCounter that tells how many times an expense
// falls due within a month.
package services

import (
	"fmt"
	"time"

	"arbdash/internal/core"
)

// OccurrenceCounter is the strategy interface for recurring expenses.
type OccurrenceCounter interface {
	// Occurrences returns how many times an expense first due on start is
	// due within p. Dates are compared in start's location.
	Occurrences(start time.Time, p core.Period) int
}

// OneOffCounter counts an expense once, in the month of its date.
type OneOffCounter struct{}

func (OneOffCounter) Occurrences(start time.Time, p core.Period) int {
	if p.Contains(start) {
		return 1
	}
	return 0
}

// MonthlyCounter counts an expense once in every month from its start on.
type MonthlyCounter struct{}

func (MonthlyCounter) Occurrences(start time.Time, p core.Period) int {
	if monthIndex(p) >= monthIndex(core.PeriodOf(start)) {
		return 1
	}
	return 0
}

// WeeklyCounter counts every seventh day from start that falls within p.
type WeeklyCounter struct{}

func (WeeklyCounter) Occurrences(start time.Time, p core.Period) int {
	loc := start.Location()
	first := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, loc)
	next := first.AddDate(0, 1, 0)
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	if !day.Before(next) {
		return 0
	}
	if day.Before(first) {
		// Jump to the first weekly date on or after the 1st.
		days := int(first.Sub(day).Hours()/24+0.5) + 6
		day = day.AddDate(0, 0, days/7*7)
	}
	n := 0
	for ; day.Before(next); day = day.AddDate(0, 0, 7) {
		n++
	}
	return n
}

func monthIndex(p core.Period) int {
	return p.Year*12 + int(p.Month) - 1
}

// occurrenceStrategies maps periodicities to their counters.
var occurrenceStrategies = map[core.Periodicity]OccurrenceCounter{
	core.OneOff:  OneOffCounter{},
	core.Monthly: MonthlyCounter{},
	core.Weekly:  WeeklyCounter{},
}

// GetOccurrenceCounter returns the counter for a periodicity. An empty
// periodicity means one-off.
func GetOccurrenceCounter(periodicity core.Periodicity) (OccurrenceCounter, error) {
	if periodicity == "" {
		periodicity = core.OneOff
	}
	counter, ok := occurrenceStrategies[periodicity]
	if !ok {
		return nil, fmt.Errorf("unknown periodicity: %s", periodicity)
	}
	return counter, nil
}
