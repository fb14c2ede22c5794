package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"arbdash/internal/core"
)

// Range selects the window of a report, relative to now.
type Range string

const (
	RangeDay   Range = "day"
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
	RangeYear  Range = "year"
	RangeAll   Range = "all"
)

func ParseRange(s string) (Range, error) {
	switch r := Range(s); r {
	case RangeDay, RangeWeek, RangeMonth, RangeYear, RangeAll:
		return r, nil
	case "":
		return RangeMonth, nil
	default:
		return "", fmt.Errorf("invalid range %q", s)
	}
}

// contains reports whether t falls in the window r ending at now.
func (r Range) contains(t, now time.Time) bool {
	t = t.In(now.Location())
	switch r {
	case RangeDay:
		y1, m1, d1 := t.Date()
		y2, m2, d2 := now.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	case RangeWeek:
		return !t.Before(now.AddDate(0, 0, -7)) && !t.After(now)
	case RangeMonth:
		return core.PeriodOf(t) == core.PeriodOf(now)
	case RangeYear:
		return t.Year() == now.Year()
	default:
		return true
	}
}

// Report is the profit and cost breakdown of a window.
type Report struct {
	Range         Range                   `json:"range"`
	Stats         core.ImportStats        `json:"stats"`
	GrossProfit   decimal.Decimal         `json:"grossProfit"`
	TotalExpenses decimal.Decimal         `json:"totalExpenses"`
	NetProfit     decimal.Decimal         `json:"netProfit"`
	ByCategory    []core.CategoryTotal    `json:"expensesByCategory"`
	TopHouses     []core.GroupProfit      `json:"topHouses"`
	TopOperations []core.BettingOperation `json:"topOperations"`
}

// Report aggregates the operations of the current month's sheet and the
// expenses that fall in r. Operations are windowed by event date.
func (s *DashboardService) Report(ctx context.Context, r Range) (*Report, error) {
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if settings.SheetURL == "" {
		return nil, ErrSheetNotConfigured
	}

	now := s.now().In(s.location)
	period := core.PeriodOf(now)
	if s.session != nil {
		if st := s.session.State(); st.SheetURL == settings.SheetURL && len(st.Records) > 0 {
			period = st.Period
		}
	}
	ops, _, err := s.records(ctx, settings.SheetURL, period)
	if err != nil {
		return nil, err
	}
	allExpenses, err := s.expenses.List(ctx, nil)
	if err != nil {
		return nil, err
	}

	var inOps []core.BettingOperation
	for _, op := range ops {
		if r.contains(op.EventAt, now) {
			inOps = append(inOps, op)
		}
	}
	var inExpenses []core.Expense
	for _, e := range allExpenses {
		if r.contains(e.Date, now) {
			inExpenses = append(inExpenses, e)
		}
	}

	stats := core.Stats(inOps)
	total := core.TotalExpenses(inExpenses)
	return &Report{
		Range:         r,
		Stats:         stats,
		GrossProfit:   stats.TotalProfit,
		TotalExpenses: total,
		NetProfit:     stats.TotalProfit.Sub(total),
		ByCategory:    core.ExpensesByCategory(inExpenses),
		TopHouses:     core.Top(core.ProfitByHouse(inOps), topN),
		TopOperations: core.TopOperations(inOps, topN),
	}, nil
}
