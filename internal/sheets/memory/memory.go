// Package memory provides in-process implementations of the sheets ports,
// for development without external services and for tests.
package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ports "arbdash/internal/sheets"
)

var (
	_ ports.KVStore = (*Store)(nil)
	_ ports.Fetcher = (*Fetcher)(nil)
)

// Store is a mutex-guarded map.
type Store struct {
	mu   sync.Mutex
	data map[string]string
}

func New() *Store {
	return &Store{data: make(map[string]string)}
}

// NewFromDir seeds the store from files named seed_<key>.json (or .txt) in
// dir. Missing or unreadable files are ignored.
func NewFromDir(dir string) *Store {
	s := New()
	for _, pattern := range []string{"seed_*.json", "seed_*.txt"} {
		matches, _ := filepath.Glob(filepath.Join(dir, pattern))
		for _, path := range matches {
			b, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			name := filepath.Base(path)
			key := strings.TrimSuffix(strings.TrimPrefix(name, "seed_"), filepath.Ext(name))
			s.data[key] = strings.TrimSpace(string(b))
		}
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Fetcher serves CSV text registered per sheet and tab.
type Fetcher struct {
	mu   sync.Mutex
	tabs map[string]string
	dir  string
}

func NewFetcher() *Fetcher {
	return &Fetcher{tabs: make(map[string]string)}
}

// NewFetcherFromDir serves <dir>/<sheetID>_<tabID>.csv, falling back to
// <dir>/<tabID>.csv.
func NewFetcherFromDir(dir string) *Fetcher {
	f := NewFetcher()
	f.dir = dir
	return f
}

// Put registers the CSV text of one tab.
func (f *Fetcher) Put(sheetID, tabID, csv string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tabs[sheetID+"/"+tabID] = csv
}

func (f *Fetcher) FetchCSV(ctx context.Context, sheetID, tabID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	v, ok := f.tabs[sheetID+"/"+tabID]
	f.mu.Unlock()
	if ok {
		return v, nil
	}
	if f.dir != "" {
		for _, name := range []string{sheetID + "_" + tabID + ".csv", tabID + ".csv"} {
			b, err := os.ReadFile(filepath.Join(f.dir, name))
			if err == nil {
				return string(b), nil
			}
		}
	}
	return "", fmt.Errorf("no csv for sheet %s tab %s", sheetID, tabID)
}
