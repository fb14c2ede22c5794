// Package adapters implements the repository ports on top of a KVStore.
// Each repository reads and writes whole JSON documents; there is no partial
// update.
package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"arbdash/internal/core"
	ports "arbdash/internal/sheets"
)

// Keys in the KV store.
const (
	KeySheetURL     = "googleSheetsUrl"
	KeyMonthConfigs = "monthConfigs"
	KeyExpenses     = "expenses"
)

var (
	_ ports.ConfigRepository  = (*ConfigRepository)(nil)
	_ ports.ExpenseRepository = (*ExpenseRepository)(nil)
)

// ConfigRepository persists core.Settings as two keys.
type ConfigRepository struct {
	kv ports.KVStore
}

func NewConfigRepository(kv ports.KVStore) *ConfigRepository {
	return &ConfigRepository{kv: kv}
}

func (r *ConfigRepository) Load(ctx context.Context) (core.Settings, error) {
	var s core.Settings
	url, _, err := r.kv.Get(ctx, KeySheetURL)
	if err != nil {
		return s, fmt.Errorf("load sheet url: %w", err)
	}
	s.SheetURL = url

	raw, ok, err := r.kv.Get(ctx, KeyMonthConfigs)
	if err != nil {
		return s, fmt.Errorf("load month configs: %w", err)
	}
	if ok && strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &s.MonthConfigs); err != nil {
			return s, fmt.Errorf("decode month configs: %w", err)
		}
	}
	return s, nil
}

// Save writes both keys. An empty sheet URL deletes the key.
func (r *ConfigRepository) Save(ctx context.Context, s core.Settings) error {
	if s.SheetURL == "" {
		if err := r.kv.Delete(ctx, KeySheetURL); err != nil {
			return fmt.Errorf("delete sheet url: %w", err)
		}
	} else if err := r.kv.Set(ctx, KeySheetURL, s.SheetURL); err != nil {
		return fmt.Errorf("save sheet url: %w", err)
	}

	configs := s.MonthConfigs
	if configs == nil {
		configs = []core.MonthConfig{}
	}
	sorted := append([]core.MonthConfig(nil), configs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Year != sorted[j].Year {
			return sorted[i].Year < sorted[j].Year
		}
		return sorted[i].Month < sorted[j].Month
	})
	b, err := json.Marshal(sorted)
	if err != nil {
		return fmt.Errorf("encode month configs: %w", err)
	}
	if err := r.kv.Set(ctx, KeyMonthConfigs, string(b)); err != nil {
		return fmt.Errorf("save month configs: %w", err)
	}
	return nil
}

// ExpenseRepository stores all expenses under one key.
type ExpenseRepository struct {
	kv  ports.KVStore
	now func() time.Time
	mu  sync.Mutex
}

func NewExpenseRepository(kv ports.KVStore) *ExpenseRepository {
	return &ExpenseRepository{kv: kv, now: time.Now}
}

// List returns the expenses sorted by date, newest first.
func (r *ExpenseRepository) List(ctx context.Context) ([]core.Expense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Date.After(list[j].Date) })
	return list, nil
}

// Add validates e, assigns an id and timestamps and stores it.
func (r *ExpenseRepository) Add(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("validation failed: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	list, err := r.load(ctx)
	if err != nil {
		return core.Expense{}, err
	}
	now := r.now()
	e.ID = uuid.NewString()
	e.CreatedAt = now
	e.UpdatedAt = now
	if e.Periodicity == "" {
		e.Periodicity = core.OneOff
	}
	list = append(list, e)
	if err := r.save(ctx, list); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

// Update replaces the expense with e.ID, keeping its creation time and owner.
func (r *ExpenseRepository) Update(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("validation failed: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	list, err := r.load(ctx)
	if err != nil {
		return core.Expense{}, err
	}
	for i, old := range list {
		if old.ID != e.ID {
			continue
		}
		e.CreatedAt = old.CreatedAt
		if e.UserID == "" {
			e.UserID = old.UserID
		}
		if e.Periodicity == "" {
			e.Periodicity = core.OneOff
		}
		e.UpdatedAt = r.now()
		list[i] = e
		if err := r.save(ctx, list); err != nil {
			return core.Expense{}, err
		}
		return e, nil
	}
	return core.Expense{}, fmt.Errorf("%w: %s", core.ErrExpenseNotFound, e.ID)
}

func (r *ExpenseRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list, err := r.load(ctx)
	if err != nil {
		return err
	}
	out := list[:0]
	found := false
	for _, e := range list {
		if e.ID == id {
			found = true
			continue
		}
		out = append(out, e)
	}
	if !found {
		return fmt.Errorf("%w: %s", core.ErrExpenseNotFound, id)
	}
	return r.save(ctx, out)
}

func (r *ExpenseRepository) load(ctx context.Context) ([]core.Expense, error) {
	raw, ok, err := r.kv.Get(ctx, KeyExpenses)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var list []core.Expense
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("decode expenses: %w", err)
	}
	return list, nil
}

func (r *ExpenseRepository) save(ctx context.Context, list []core.Expense) error {
	if list == nil {
		list = []core.Expense{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode expenses: %w", err)
	}
	if err := r.kv.Set(ctx, KeyExpenses, string(b)); err != nil {
		return fmt.Errorf("save expenses: %w", err)
	}
	return nil
}
