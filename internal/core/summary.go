package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ImportStats summarizes a collection of operations.
type ImportStats struct {
	TotalOperations int             `json:"totalOperations"`
	TotalStake      decimal.Decimal `json:"totalStake"`
	TotalProfit     decimal.Decimal `json:"totalProfit"`
	Greens          int             `json:"greens"`
	Reds            int             `json:"reds"`
	Refunds         int             `json:"refunds"`
	HalfGreens      int             `json:"halfGreens"`
	HalfReds        int             `json:"halfReds"`
	WinRate         decimal.Decimal `json:"winRate"` // percent
	ROI             decimal.Decimal `json:"roi"`     // percent
	AverageOdd      decimal.Decimal `json:"averageOdd"`
}

// GroupProfit is the profit aggregated under a name (sport, house).
type GroupProfit struct {
	Name       string          `json:"name"`
	Profit     decimal.Decimal `json:"profit"`
	Stake      decimal.Decimal `json:"stake"`
	Operations int             `json:"operations"`
}

// Stats computes totals, counts per result, win rate and ROI.
// Win rate counts full greens only; ROI is profit over stake.
func Stats(ops []BettingOperation) ImportStats {
	s := ImportStats{
		TotalOperations: len(ops),
		TotalStake:      decimal.Zero,
		TotalProfit:     decimal.Zero,
		WinRate:         decimal.Zero,
		ROI:             decimal.Zero,
		AverageOdd:      decimal.Zero,
	}
	oddSum := decimal.Zero
	for _, op := range ops {
		s.TotalStake = s.TotalStake.Add(op.Stake)
		s.TotalProfit = s.TotalProfit.Add(op.Profit)
		oddSum = oddSum.Add(op.Odd)
		switch op.Result {
		case ResultGreen:
			s.Greens++
		case ResultRed:
			s.Reds++
		case ResultRefunded:
			s.Refunds++
		case ResultHalfGreen:
			s.HalfGreens++
		case ResultHalfRed:
			s.HalfReds++
		}
	}
	if n := len(ops); n > 0 {
		s.WinRate = decimal.NewFromInt(int64(s.Greens)).Mul(hundred).Div(decimal.NewFromInt(int64(n))).Round(2)
		s.AverageOdd = oddSum.Div(decimal.NewFromInt(int64(n))).Round(2)
	}
	if s.TotalStake.IsPositive() {
		s.ROI = s.TotalProfit.Mul(hundred).Div(s.TotalStake).Round(2)
	}
	return s
}

// ProfitBySport groups profit by sport, most profitable first. Operations
// without a sport are grouped under "Outros".
func ProfitBySport(ops []BettingOperation) []GroupProfit {
	return groupProfit(ops, func(op BettingOperation) string { return orDefault(op.Sport, "Outros") })
}

// ProfitByHouse groups profit by betting house, most profitable first.
// Operations without a house are grouped under "Outras".
func ProfitByHouse(ops []BettingOperation) []GroupProfit {
	return groupProfit(ops, func(op BettingOperation) string { return orDefault(op.House, "Outras") })
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func groupProfit(ops []BettingOperation, key func(BettingOperation) string) []GroupProfit {
	idx := make(map[string]int)
	var out []GroupProfit
	for _, op := range ops {
		k := key(op)
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, GroupProfit{Name: k, Profit: decimal.Zero, Stake: decimal.Zero})
		}
		out[i].Profit = out[i].Profit.Add(op.Profit)
		out[i].Stake = out[i].Stake.Add(op.Stake)
		out[i].Operations++
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Profit.GreaterThan(out[b].Profit)
	})
	return out
}

// TopOperations returns up to n operations with the highest profit.
func TopOperations(ops []BettingOperation, n int) []BettingOperation {
	out := make([]BettingOperation, len(ops))
	copy(out, ops)
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Profit.GreaterThan(out[b].Profit)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Top truncates groups to at most n entries.
func Top(groups []GroupProfit, n int) []GroupProfit {
	if n >= 0 && len(groups) > n {
		return groups[:n]
	}
	return groups
}

// OperationsIn returns the operations whose bet was placed within p.
func OperationsIn(ops []BettingOperation, p Period) []BettingOperation {
	var out []BettingOperation
	for _, op := range ops {
		if p.Contains(op.BetPlacedAt) {
			out = append(out, op)
		}
	}
	return out
}

// PercentageChange returns (current-previous)/|previous| in percent.
// A zero previous value yields 100 when current is positive and 0 otherwise.
func PercentageChange(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		if current.IsPositive() {
			return hundred
		}
		return decimal.Zero
	}
	return current.Sub(previous).Mul(hundred).Div(previous.Abs()).Round(2)
}
