package google

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestExportFetcher_OK(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("H1,H2\na,b\n"))
	}))
	defer srv.Close()

	f := NewExportFetcher(srv.Client(), srv.URL, time.Second)
	body, err := f.FetchCSV(context.Background(), "sheet1", "42")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if body != "H1,H2\na,b\n" {
		t.Fatalf("unexpected body %q", body)
	}
	if gotPath != "/spreadsheets/d/sheet1/export" || gotQuery != "format=csv&gid=42" {
		t.Fatalf("unexpected request %s?%s", gotPath, gotQuery)
	}
}

func TestExportFetcher_Forbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewExportFetcher(srv.Client(), srv.URL, time.Second)
	_, err := f.FetchCSV(context.Background(), "sheet1", "0")
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 StatusError, got %v", err)
	}
}

func TestExportFetcher_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := NewExportFetcher(srv.Client(), srv.URL, time.Second)
	if _, err := f.FetchCSV(ctx, "sheet1", "0"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

const loginPage = `<!DOCTYPE html><html><head><script>var a=1,b=2,c=3,d=4;</script></head><body>Sign in</body></html>`

func TestExportFetcher_RejectsNonCSV(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{name: "login page after redirect", contentType: "text/html; charset=utf-8", body: loginPage},
		{name: "html served as text", contentType: "text/plain", body: "\n  <html><body>x</body></html>"},
		{name: "html without content type", body: "\xef\xbb\xbf<!doctype html><p>"},
		{name: "json", contentType: "application/json", body: `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/spreadsheets/d/", func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, "/login", http.StatusFound)
			})
			mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
				if tt.contentType != "" {
					w.Header().Set("Content-Type", tt.contentType)
				} else {
					w.Header()["Content-Type"] = nil
				}
				_, _ = w.Write([]byte(tt.body))
			})
			srv := httptest.NewServer(mux)
			defer srv.Close()

			f := NewExportFetcher(srv.Client(), srv.URL, time.Second)
			body, err := f.FetchCSV(context.Background(), "sheet1", "0")
			var nc *NotCSVError
			if !errors.As(err, &nc) {
				t.Fatalf("expected NotCSVError, got %v (body %q)", err, body)
			}
		})
	}
}

func TestExportFetcher_AcceptsPlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("H1,H2\n<b>,c\n"))
	}))
	defer srv.Close()

	f := NewExportFetcher(srv.Client(), srv.URL, time.Second)
	if _, err := f.FetchCSV(context.Background(), "sheet1", "0"); err != nil {
		t.Fatalf("fetch: %v", err)
	}
}

func TestExportFetcher_TooLarge(t *testing.T) {
	body := "H1,H2\n" + strings.Repeat("a,b\n", 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	f := NewExportFetcher(srv.Client(), srv.URL, time.Second)
	f.maxBytes = int64(len(body)) - 1
	if _, err := f.FetchCSV(context.Background(), "sheet1", "0"); !errors.Is(err, ErrExportTooLarge) {
		t.Fatalf("expected ErrExportTooLarge, got %v", err)
	}

	f.maxBytes = int64(len(body))
	got, err := f.FetchCSV(context.Background(), "sheet1", "0")
	if err != nil || got != body {
		t.Fatalf("body at the limit: %q, %v", got, err)
	}
}
