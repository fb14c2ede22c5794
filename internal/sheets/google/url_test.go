package google

import (
	"testing"
	"time"

	"arbdash/internal/core"
)

func TestExtractSheetID(t *testing.T) {
	cases := []struct {
		url  string
		want string
		ok   bool
	}{
		{"https://docs.google.com/spreadsheets/d/1AbC-d_9/edit#gid=0", "1AbC-d_9", true},
		{"https://docs.google.com/spreadsheets/d/xyz", "xyz", true},
		{"https://docs.google.com/spreadsheets/u/0/", "", false},
		{"not a url", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ExtractSheetID(tc.url)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ExtractSheetID(%q) = %q,%v want %q,%v", tc.url, got, ok, tc.want, tc.ok)
		}
	}
}

func TestIsValidSheetURL(t *testing.T) {
	if !IsValidSheetURL("https://docs.google.com/spreadsheets/d/abc/edit") {
		t.Fatalf("expected valid")
	}
	if IsValidSheetURL("https://example.com/spreadsheets/d/abc") {
		t.Fatalf("expected invalid")
	}
}

func TestTabIDFromURL(t *testing.T) {
	cases := []struct {
		url  string
		want string
		ok   bool
	}{
		{"https://docs.google.com/spreadsheets/d/abc/edit#gid=123", "123", true},
		{"https://docs.google.com/spreadsheets/d/abc/edit?usp=sharing&gid=77", "77", true},
		{"https://docs.google.com/spreadsheets/d/abc/edit?gid=5#gid=5", "5", true},
		{"https://docs.google.com/spreadsheets/d/abc/edit#gid=abc", "", false},
		{"https://docs.google.com/spreadsheets/d/abc/edit", "", false},
	}
	for _, tc := range cases {
		got, ok := TabIDFromURL(tc.url)
		if ok != tc.ok || got != tc.want {
			t.Errorf("TabIDFromURL(%q) = %q,%v want %q,%v", tc.url, got, ok, tc.want, tc.ok)
		}
	}
}

func TestResolveTabID(t *testing.T) {
	march := core.Period{Year: 2024, Month: time.March}
	configs := []core.MonthConfig{{Year: 2024, Month: time.March, GID: "999"}}
	withGID := "https://docs.google.com/spreadsheets/d/abc/edit#gid=123"
	plain := "https://docs.google.com/spreadsheets/d/abc/edit"

	if got := ResolveTabID(configs, withGID, march); got != "999" {
		t.Fatalf("configured tab must win, got %q", got)
	}
	if got := ResolveTabID(configs, withGID, march.Previous()); got != "123" {
		t.Fatalf("expected tab from url, got %q", got)
	}
	if got := ResolveTabID(nil, plain, march); got != DefaultTabID {
		t.Fatalf("expected default tab, got %q", got)
	}
}

func TestExportURL(t *testing.T) {
	got := ExportURL("", "abc", "123")
	want := "https://docs.google.com/spreadsheets/d/abc/export?format=csv&gid=123"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if got := ExportURL("http://127.0.0.1:9000/", "abc", "0"); got != "http://127.0.0.1:9000/spreadsheets/d/abc/export?format=csv&gid=0" {
		t.Fatalf("unexpected %q", got)
	}
}
