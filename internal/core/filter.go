package core

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OperationFilter narrows a list of operations. Empty fields match
// everything; Query is a case-insensitive substring of the event, sport or
// house.
type OperationFilter struct {
	Query  string
	Sport  string
	House  string
	Result Result
}

func (f OperationFilter) Match(op BettingOperation) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(op.EventName), q) &&
			!strings.Contains(strings.ToLower(op.Sport), q) &&
			!strings.Contains(strings.ToLower(op.House), q) {
			return false
		}
	}
	if f.Sport != "" && op.Sport != f.Sport {
		return false
	}
	if f.House != "" && op.House != f.House {
		return false
	}
	return f.Result == "" || op.Result == f.Result
}

// FilterOperations returns the operations matching f, in their original order.
func FilterOperations(ops []BettingOperation, f OperationFilter) []BettingOperation {
	out := make([]BettingOperation, 0, len(ops))
	for _, op := range ops {
		if f.Match(op) {
			out = append(out, op)
		}
	}
	return out
}

// Sports lists the distinct non-empty sports in ops, sorted.
func Sports(ops []BettingOperation) []string {
	return distinct(ops, func(op BettingOperation) string { return op.Sport })
}

// Houses lists the distinct non-empty betting houses in ops, sorted.
func Houses(ops []BettingOperation) []string {
	return distinct(ops, func(op BettingOperation) string { return op.House })
}

func distinct(ops []BettingOperation, key func(BettingOperation) string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, op := range ops {
		k := key(op)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DailyProfit is the profit of the events of one day.
type DailyProfit struct {
	Day    string          `json:"day"` // YYYY-MM-DD
	Profit decimal.Decimal `json:"profit"`
}

// ProfitByDay sums profit per event day in loc, oldest first. Operations
// without an event date are left out.
func ProfitByDay(ops []BettingOperation, loc *time.Location) []DailyProfit {
	if loc == nil {
		loc = time.UTC
	}
	sums := make(map[string]decimal.Decimal)
	for _, op := range ops {
		if op.EventAt.IsZero() {
			continue
		}
		day := op.EventAt.In(loc).Format(time.DateOnly)
		sums[day] = sums[day].Add(op.Profit)
	}
	out := make([]DailyProfit, 0, len(sums))
	for day, p := range sums {
		out = append(out, DailyProfit{Day: day, Profit: p})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Day < out[b].Day })
	return out
}
