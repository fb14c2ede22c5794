package backend

import (
	"context"
	"fmt"

	"arbdash/internal/log"
	"arbdash/internal/sheets"
	gsheet "arbdash/internal/sheets/google"
	"arbdash/internal/sheets/memory"
	"arbdash/internal/storage"
	"arbdash/internal/storage/redisstore"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	fetcher, err := f.createFetcher(ctx, config)
	if err != nil {
		return nil, err
	}

	var result *BackendResult
	switch config.Type {
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	case RedisBackend:
		result, err = f.createRedisBackend(ctx, config)
	case MemoryBackend:
		result, err = f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}
	result.Fetcher = fetcher
	return result, nil
}

func (f *DefaultFactory) createFetcher(ctx context.Context, config Config) (sheets.Fetcher, error) {
	switch config.FetchMode {
	case FetchAPI:
		fetcher, err := gsheet.NewAPIFetcherFromEnv(ctx, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets API client: %w", err)
		}
		f.logger.Info("Using Sheets API fetcher")
		return fetcher, nil
	case FetchFile:
		f.logger.Info("Using fixture fetcher", "dir", config.FixturesDir)
		return memory.NewFetcherFromDir(config.FixturesDir), nil
	default:
		f.logger.Info("Using CSV export fetcher", "base_url", config.BaseURL, "timeout", config.FetchTimeout)
		return gsheet.NewExportFetcher(nil, config.BaseURL, config.FetchTimeout), nil
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	store, err := storage.NewSQLiteStore(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Store:   store,
		Ping:    store.Ping,
		Cleanup: store.Close,
	}, nil
}

func (f *DefaultFactory) createRedisBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := redisstore.Connect(ctx, config.RedisAddr, config.RedisPassword, config.RedisDB, config.RedisPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	f.logger.Info("Initialized Redis backend", "addr", config.RedisAddr, "db", config.RedisDB)

	return &BackendResult{
		Store:   store,
		Ping:    store.Ping,
		Cleanup: store.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data" // Default directory
	}

	store := memory.NewFromDir(dataDir)

	f.logger.Info("Initialized memory backend", "data_directory", dataDir, "seeded_keys", store.Len())

	return &BackendResult{
		Store: store,
	}, nil
}
