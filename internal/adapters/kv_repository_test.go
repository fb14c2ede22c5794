package adapters

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"arbdash/internal/core"
	"arbdash/internal/sheets/memory"
)

func TestConfigRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	repo := NewConfigRepository(kv)

	empty, err := repo.Load(ctx)
	if err != nil || empty.SheetURL != "" || len(empty.MonthConfigs) != 0 {
		t.Fatalf("expected empty settings, got %+v err=%v", empty, err)
	}

	s := core.Settings{SheetURL: "https://docs.google.com/spreadsheets/d/abc"}
	_ = s.UpsertMonthConfig(core.MonthConfig{Year: 2024, Month: time.April, GID: "2"})
	_ = s.UpsertMonthConfig(core.MonthConfig{Year: 2024, Month: time.March, GID: "1"})
	if err := repo.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, _, _ := kv.Get(ctx, KeyMonthConfigs)
	if !strings.Contains(raw, `"month":3`) {
		t.Fatalf("months must be stored 1-indexed, got %s", raw)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.SheetURL != s.SheetURL || len(got.MonthConfigs) != 2 || got.MonthConfigs[0].Month != time.March {
		t.Fatalf("unexpected settings %+v", got)
	}
	if mc, ok := got.MonthConfigFor(core.Period{Year: 2024, Month: time.April}); !ok || mc.Name != "Abril 2024" {
		t.Fatalf("unexpected april config %+v", mc)
	}

	got.SheetURL = ""
	if err := repo.Save(ctx, got); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, KeySheetURL); ok {
		t.Fatalf("clearing the url must delete the key")
	}
}

func TestConfigRepositoryCorruptConfigs(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	_ = kv.Set(ctx, KeyMonthConfigs, "{not json")
	if _, err := NewConfigRepository(kv).Load(ctx); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestExpenseRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewExpenseRepository(memory.New())
	fixed := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	older, err := repo.Add(ctx, core.Expense{Name: "Chip", Category: core.Chips, Value: decimal.NewFromInt(20), Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	newer, err := repo.Add(ctx, core.Expense{Name: "Uber", Category: core.Transport, Value: decimal.NewFromInt(35), Date: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), Periodicity: core.Weekly})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if older.ID == "" || older.ID == newer.ID || !older.CreatedAt.Equal(fixed) || older.Periodicity != core.OneOff {
		t.Fatalf("unexpected stored expense %+v", older)
	}

	list, err := repo.List(ctx)
	if err != nil || len(list) != 2 || list[0].ID != newer.ID {
		t.Fatalf("expected newest first, got %+v err=%v", list, err)
	}

	if err := repo.Delete(ctx, older.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, older.ID); !errors.Is(err, core.ErrExpenseNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	list, _ = repo.List(ctx)
	if len(list) != 1 || !list[0].Value.Equal(decimal.NewFromInt(35)) {
		t.Fatalf("unexpected list after delete %+v", list)
	}
}

func TestExpenseRepositoryRejectsInvalid(t *testing.T) {
	repo := NewExpenseRepository(memory.New())
	if _, err := repo.Add(context.Background(), core.Expense{Name: "x", Category: "food", Value: decimal.NewFromInt(1), Date: time.Now()}); !errors.Is(err, core.ErrInvalidCategory) {
		t.Fatalf("expected invalid category, got %v", err)
	}
}

func TestExpenseRepositoryUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewExpenseRepository(memory.New())
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return created }

	e, err := repo.Add(ctx, core.Expense{UserID: "user1", Name: "Parceria João", Category: core.Partnerships, Value: decimal.NewFromInt(500), Date: created, Periodicity: core.Monthly})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	edited := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return edited }
	e.Value = decimal.NewFromInt(650)
	e.UserID = ""
	e.CreatedAt = time.Time{}
	got, err := repo.Update(ctx, e)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !got.CreatedAt.Equal(created) || !got.UpdatedAt.Equal(edited) || got.UserID != "user1" || !got.Value.Equal(decimal.NewFromInt(650)) {
		t.Fatalf("unexpected updated expense %+v", got)
	}

	list, _ := repo.List(ctx)
	if len(list) != 1 || !list[0].Value.Equal(decimal.NewFromInt(650)) {
		t.Fatalf("update not persisted: %+v", list)
	}

	e.ID = "missing"
	if _, err := repo.Update(ctx, e); !errors.Is(err, core.ErrExpenseNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	e.Name = " "
	if _, err := repo.Update(ctx, e); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected empty name, got %v", err)
	}
}
