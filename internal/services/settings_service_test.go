package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"arbdash/internal/cache"
	"arbdash/internal/core"
	"arbdash/internal/ingest"
	"arbdash/internal/log"
)

func newSettingsFixture(t *testing.T) (*SettingsService, *ingest.Session, *fixture) {
	t.Helper()
	f := newFixture(t, true)
	session := ingest.NewSession(f.orch, ingest.SessionOptions{Logger: log.Discard()})
	svc := NewSettingsService(f.configs, session, time.UTC, log.Discard())
	svc.now = func() time.Time { return time.Date(2024, 3, 12, 18, 0, 0, 0, time.UTC) }
	return svc, session, f
}

func TestSettingsService_SetSheetURL(t *testing.T) {
	svc, session, _ := newSettingsFixture(t)
	ctx := context.Background()

	if _, err := svc.SetSheetURL(ctx, "https://example.com/nope"); ingest.KindOf(err) != ingest.KindInvalidURL {
		t.Fatalf("expected invalid_url, got %v", err)
	}

	if _, err := svc.Sync(ctx, nil); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(session.State().Records) != 3 {
		t.Fatalf("expected March records in session")
	}

	// Same URL keeps the session.
	if _, err := svc.SetSheetURL(ctx, "  "+sheetURL+" "); err != nil {
		t.Fatalf("SetSheetURL: %v", err)
	}
	if len(session.State().Records) != 3 {
		t.Fatalf("saving the same URL should not reset the session")
	}

	other := "https://docs.google.com/spreadsheets/d/other/edit"
	s, err := svc.SetSheetURL(ctx, other)
	if err != nil || s.SheetURL != other {
		t.Fatalf("SetSheetURL: %+v %v", s, err)
	}
	if len(session.State().Records) != 0 {
		t.Fatalf("switching sheets should reset the session")
	}
	if len(s.MonthConfigs) != 2 {
		t.Fatalf("month configs must survive a URL change, got %d", len(s.MonthConfigs))
	}
}

func TestSettingsService_Disconnect(t *testing.T) {
	svc, _, _ := newSettingsFixture(t)
	ctx := context.Background()

	if err := svc.DisconnectSheet(ctx); err != nil {
		t.Fatalf("DisconnectSheet: %v", err)
	}
	if _, err := svc.Sync(ctx, nil); !errors.Is(err, ErrSheetNotConfigured) {
		t.Fatalf("expected ErrSheetNotConfigured, got %v", err)
	}
	if _, err := svc.Operations(ctx, core.OperationFilter{}); !errors.Is(err, ErrSheetNotConfigured) {
		t.Fatalf("expected ErrSheetNotConfigured from Operations, got %v", err)
	}
}

func TestSettingsService_MonthConfigs(t *testing.T) {
	svc, _, _ := newSettingsFixture(t)
	ctx := context.Background()

	s, err := svc.UpsertMonthConfig(ctx, core.MonthConfig{Year: 2024, Month: time.March, GID: "77"})
	if err != nil {
		t.Fatalf("UpsertMonthConfig: %v", err)
	}
	mc, ok := s.MonthConfigFor(march)
	if !ok || mc.GID != "77" || mc.Name != "Março 2024" || len(s.MonthConfigs) != 2 {
		t.Fatalf("unexpected configs %+v", s.MonthConfigs)
	}

	if _, err := svc.UpsertMonthConfig(ctx, core.MonthConfig{Year: 2024, Month: 13, GID: "1"}); !errors.Is(err, core.ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
	if _, err := svc.UpsertMonthConfig(ctx, core.MonthConfig{Year: 2024, Month: time.May, GID: "abc"}); !errors.Is(err, core.ErrInvalidGID) {
		t.Fatalf("expected ErrInvalidGID, got %v", err)
	}

	if err := svc.RemoveMonthConfig(ctx, march); err != nil {
		t.Fatalf("RemoveMonthConfig: %v", err)
	}
	if err := svc.RemoveMonthConfig(ctx, march); !errors.Is(err, core.ErrMonthConfigNotFound) {
		t.Fatalf("expected ErrMonthConfigNotFound, got %v", err)
	}
	got, err := svc.Get(ctx)
	if err != nil || len(got.MonthConfigs) != 1 {
		t.Fatalf("Get: %+v %v", got, err)
	}
}

func TestSettingsService_Operations(t *testing.T) {
	svc, _, f := newSettingsFixture(t)
	ctx := context.Background()

	list, err := svc.Operations(ctx, core.OperationFilter{House: "Betano"})
	if err != nil {
		t.Fatalf("Operations: %v", err)
	}
	if list.Period != "2024-03" || len(list.Operations) != 2 || list.Stats.TotalOperations != 2 {
		t.Fatalf("unexpected list %+v", list)
	}
	if len(list.Houses) != 2 || len(list.Sports) != 2 {
		t.Fatalf("filter options should come from all records: %v %v", list.Houses, list.Sports)
	}
	if len(list.Daily) != 2 {
		t.Fatalf("expected 2 days of profit, got %+v", list.Daily)
	}

	calls := f.fetcher.calls.Load()
	if _, err := svc.Operations(ctx, core.OperationFilter{Query: "flamengo"}); err != nil {
		t.Fatalf("Operations: %v", err)
	}
	if f.fetcher.calls.Load() != calls {
		t.Fatalf("a filled session should not be fetched again")
	}
}

func TestSettingsService_SyncPeriod(t *testing.T) {
	svc, session, _ := newSettingsFixture(t)
	feb := core.Period{Year: 2024, Month: time.February}

	batch, err := svc.Sync(context.Background(), &feb)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if batch.TabID != "9" || len(batch.Records) != 1 || session.State().Period != feb {
		t.Fatalf("unexpected batch %+v", batch)
	}
}

func TestSettingsService_ChangesInvalidateCachedBatches(t *testing.T) {
	svc, _, f := newSettingsFixture(t)
	ctx := context.Background()

	cached := ingest.NewCachingIngester(f.orch, cache.NewLRU[*ingest.Batch](8, time.Hour))
	svc.OnChange(cached.Invalidate)
	dash := NewDashboardService(f.configs, cached, nil, f.expenses, time.UTC, log.Discard())
	dash.now = f.svc.now

	if _, err := dash.Dashboard(ctx, march); err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	first := f.fetcher.calls.Load()
	if _, err := dash.Dashboard(ctx, march); err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if got := f.fetcher.calls.Load(); got != first {
		t.Fatalf("second dashboard fetched %d more tabs, want 0", got-first)
	}

	if _, err := svc.UpsertMonthConfig(ctx, core.MonthConfig{Year: 2024, Month: time.March, GID: "9"}); err != nil {
		t.Fatalf("UpsertMonthConfig: %v", err)
	}
	d, err := dash.Dashboard(ctx, march)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if f.fetcher.calls.Load() == first {
		t.Fatal("month config change should drop cached batches")
	}
	if d.Current.TotalOperations != 1 {
		t.Errorf("TotalOperations = %d, want 1 from the remapped tab", d.Current.TotalOperations)
	}
}

func TestSettingsService_LogsUnderOwnComponent(t *testing.T) {
	_, session, f := newSettingsFixture(t)
	var buf bytes.Buffer
	logger := log.New(log.Config{Handler: slog.NewTextHandler(&buf, nil)})
	svc := NewSettingsService(f.configs, session, time.UTC, logger)

	if _, err := svc.SetSheetURL(context.Background(), sheetURL); err != nil {
		t.Fatalf("SetSheetURL: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "component=settings") || strings.Contains(out, "component=session") {
		t.Fatalf("unexpected component in %q", out)
	}
}
