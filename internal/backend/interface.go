package backend

import (
	"context"
	"time"

	"arbdash/internal/sheets"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// PingFunc reports whether the store is reachable.
type PingFunc func(ctx context.Context) error

// BackendResult contains the store, the sheet fetcher and optional hooks.
type BackendResult struct {
	Store   sheets.KVStore
	Fetcher sheets.Fetcher
	Ping    PingFunc
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates the key-value store and the fetcher described by config.
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Redis specific
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// Memory backend specific
	DataDirectory string

	// Sheet fetching
	FetchMode    FetchMode
	BaseURL      string
	FixturesDir  string
	FetchTimeout time.Duration
}

// BackendType represents the type of key-value backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	RedisBackend  BackendType = "redis"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, RedisBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// FetchMode selects how sheet tabs are downloaded.
type FetchMode string

const (
	FetchExport FetchMode = "export"
	FetchAPI    FetchMode = "api"
	FetchFile   FetchMode = "file"
)

func (m FetchMode) IsValid() bool {
	switch m {
	case FetchExport, FetchAPI, FetchFile:
		return true
	default:
		return false
	}
}
