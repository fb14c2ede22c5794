package sheets

import (
	"context"

	"arbdash/internal/core"
)

// Ports for outbound adapters.
type (
	// Fetcher retrieves one tab of a spreadsheet as raw CSV text.
	Fetcher interface {
		FetchCSV(ctx context.Context, sheetID, tabID string) (string, error)
	}

	// KVStore is an opaque string key-value store.
	KVStore interface {
		// Get returns ok=false when the key does not exist.
		Get(ctx context.Context, key string) (value string, ok bool, err error)
		Set(ctx context.Context, key, value string) error
		Delete(ctx context.Context, key string) error
	}

	// ConfigRepository loads and saves the whole dashboard configuration.
	ConfigRepository interface {
		Load(ctx context.Context) (core.Settings, error)
		Save(ctx context.Context, s core.Settings) error
	}

	// ExpenseRepository stores user-entered expenses.
	ExpenseRepository interface {
		List(ctx context.Context) ([]core.Expense, error)
		Add(ctx context.Context, e core.Expense) (core.Expense, error)
		// Update replaces the stored expense with the same ID.
		Update(ctx context.Context, e core.Expense) (core.Expense, error)
		Delete(ctx context.Context, id string) error
	}
)
