package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"arbdash/internal/adapters"
	"arbdash/internal/core"
	"arbdash/internal/log"
	"arbdash/internal/sheets/memory"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newExpenseService(t *testing.T) *ExpenseService {
	t.Helper()
	return NewExpenseService(adapters.NewExpenseRepository(memory.New()), "user1", log.Discard())
}

func TestExpenseService_CreateListDelete(t *testing.T) {
	ctx := context.Background()
	svc := newExpenseService(t)

	e, err := svc.Create(ctx, core.Expense{Name: "Chip Vivo", Category: core.Chips, Value: decimal.NewFromInt(20), Date: date(2024, 3, 8)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if e.UserID != "user1" || e.ID == "" {
		t.Fatalf("unexpected expense %+v", e)
	}
	if _, err := svc.Create(ctx, core.Expense{Name: "Uber", Category: core.Transport, Value: decimal.NewFromInt(30), Date: date(2024, 2, 2)}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	march := core.Period{Year: 2024, Month: time.March}
	list, err := svc.List(ctx, &march)
	if err != nil || len(list) != 1 || list[0].ID != e.ID {
		t.Fatalf("List(march) = %+v, %v", list, err)
	}
	all, _ := svc.List(ctx, nil)
	if len(all) != 2 {
		t.Fatalf("List(nil) returned %d expenses", len(all))
	}

	if err := svc.Delete(ctx, e.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, e.ID); !errors.Is(err, core.ErrExpenseNotFound) {
		t.Fatalf("second Delete error = %v", err)
	}
}

func TestExpenseService_Update(t *testing.T) {
	ctx := context.Background()
	svc := newExpenseService(t)
	e, err := svc.Create(ctx, core.Expense{Name: "Selfie", Category: core.Selfies, Value: decimal.NewFromInt(10), Date: date(2024, 3, 1)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	e.Notes = "cliente novo"
	got, err := svc.Update(ctx, e)
	if err != nil || got.Notes != "cliente novo" {
		t.Fatalf("Update = %+v, %v", got, err)
	}
}

func TestExpenseService_Summary(t *testing.T) {
	ctx := context.Background()
	svc := newExpenseService(t)
	for _, e := range []core.Expense{
		{Name: "Chip", Category: core.Chips, Value: decimal.NewFromInt(20), Date: date(2024, 3, 8)},
		{Name: "Parceria", Category: core.Partnerships, Value: decimal.NewFromInt(500), Date: date(2024, 1, 10), Periodicity: core.Monthly},
		{Name: "Uber", Category: core.Transport, Value: decimal.NewFromInt(30), Date: date(2024, 2, 2)},
		{Name: "Gasolina", Category: core.Transport, Value: decimal.NewFromInt(50), Date: date(2024, 3, 27), Periodicity: core.Weekly},
	} {
		if _, err := svc.Create(ctx, e); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	sum, err := svc.Summary(ctx, core.Period{Year: 2024, Month: time.March})
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(sum.Expenses) != 2 || !sum.Total.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("dated total = %s over %d expenses", sum.Total, len(sum.Expenses))
	}
	if sum.ByCategory[0].Category != core.Transport {
		t.Fatalf("unexpected category order %+v", sum.ByCategory)
	}
	// chip 20 + partnership 500 + fuel on the 27th only (next is April 3rd).
	if !sum.Recurring.Equal(decimal.NewFromInt(570)) {
		t.Fatalf("Recurring = %s, want 570", sum.Recurring)
	}

	empty, _ := svc.Summary(ctx, core.Period{Year: 2023, Month: time.December})
	if empty.Expenses == nil || !empty.Total.IsZero() || !empty.Recurring.IsZero() {
		t.Fatalf("unexpected empty summary %+v", empty)
	}
}
