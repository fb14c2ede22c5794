package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestStoreGetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatalf("expected missing key")
	}
	_ = s.Set(ctx, "k", "v")
	if v, ok, err := s.Get(ctx, "k"); err != nil || !ok || v != "v" {
		t.Fatalf("unexpected get %q %v %v", v, ok, err)
	}
	_ = s.Delete(ctx, "k")
	if s.Len() != 0 {
		t.Fatalf("expected empty store")
	}
}

func TestNewFromDirSeeds(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "seed_googleSheetsUrl.txt"), []byte("https://docs.google.com/spreadsheets/d/x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "seed_monthConfigs.json"), []byte(`[{"year":2024,"month":3,"gid":"1"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ignored.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewFromDir(dir)
	if s.Len() != 2 {
		t.Fatalf("expected 2 seeded keys, got %d", s.Len())
	}
	v, _, _ := s.Get(context.Background(), "googleSheetsUrl")
	if v != "https://docs.google.com/spreadsheets/d/x" {
		t.Fatalf("unexpected seed %q", v)
	}
	if NewFromDir(filepath.Join(dir, "missing")).Len() != 0 {
		t.Fatalf("missing dir must give empty store")
	}
}

func TestFetcher(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "42.csv"), []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	f := NewFetcherFromDir(dir)
	f.Put("s", "0", "x\ny\n")

	if v, err := f.FetchCSV(ctx, "s", "0"); err != nil || v != "x\ny\n" {
		t.Fatalf("registered tab: %q %v", v, err)
	}
	if v, err := f.FetchCSV(ctx, "s", "42"); err != nil || v != "a,b\n1,2\n" {
		t.Fatalf("file tab: %q %v", v, err)
	}
	if _, err := f.FetchCSV(ctx, "s", "7"); err == nil {
		t.Fatalf("expected error for unknown tab")
	}
}
