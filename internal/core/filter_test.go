package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFilterOperations(t *testing.T) {
	ops := []BettingOperation{
		{EventName: "Flamengo x Vasco", Sport: "Futebol", House: "Bet365", Result: ResultGreen},
		{EventName: "Nadal x Federer", Sport: "Tênis", House: "Betano", Result: ResultRed},
		{EventName: "Lakers x Celtics", Sport: "Basquete", House: "Bet365", Result: ResultRed},
	}

	tests := []struct {
		name string
		f    OperationFilter
		want int
	}{
		{"empty matches all", OperationFilter{}, 3},
		{"query on event, case insensitive", OperationFilter{Query: "FLAMENGO"}, 1},
		{"query on house", OperationFilter{Query: "bet365"}, 2},
		{"sport exact", OperationFilter{Sport: "Tênis"}, 1},
		{"house and result", OperationFilter{House: "Bet365", Result: ResultRed}, 1},
		{"no match", OperationFilter{Query: "vôlei"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(FilterOperations(ops, tt.f)); got != tt.want {
				t.Fatalf("FilterOperations() returned %d, want %d", got, tt.want)
			}
		})
	}

	if got := Houses(ops); len(got) != 2 || got[0] != "Bet365" || got[1] != "Betano" {
		t.Fatalf("Houses() = %v", got)
	}
	if got := Sports(append(ops, BettingOperation{})); len(got) != 3 {
		t.Fatalf("Sports() = %v", got)
	}
}

func TestProfitByDay(t *testing.T) {
	brt := time.FixedZone("BRT", -3*3600)
	ops := []BettingOperation{
		{EventAt: time.Date(2024, 3, 11, 1, 0, 0, 0, time.UTC), Profit: decimal.NewFromInt(10)}, // Mar 10 in BRT
		{EventAt: time.Date(2024, 3, 10, 15, 0, 0, 0, brt), Profit: decimal.NewFromInt(-4)},
		{EventAt: time.Date(2024, 3, 9, 15, 0, 0, 0, brt), Profit: decimal.NewFromInt(7)},
		{Profit: decimal.NewFromInt(100)},
	}
	got := ProfitByDay(ops, brt)
	if len(got) != 2 {
		t.Fatalf("expected 2 days, got %+v", got)
	}
	if got[0].Day != "2024-03-09" || !got[1].Profit.Equal(decimal.NewFromInt(6)) {
		t.Fatalf("unexpected series %+v", got)
	}
}
