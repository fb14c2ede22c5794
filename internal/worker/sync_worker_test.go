package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"arbdash/internal/adapters"
	"arbdash/internal/amqp"
	"arbdash/internal/core"
	"arbdash/internal/ingest"
	"arbdash/internal/log"
	"arbdash/internal/sheets/memory"
)

const sheetURL = "https://docs.google.com/spreadsheets/d/abc123/edit#gid=0"

type fakeSyncer struct {
	mu      sync.Mutex
	periods []core.Period
	urls    []string
	err     error
}

func (f *fakeSyncer) Sync(_ context.Context, url string, p core.Period) (*ingest.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.periods = append(f.periods, p)
	f.urls = append(f.urls, url)
	if f.err != nil {
		return nil, f.err
	}
	return &ingest.Batch{Records: make([]core.BettingOperation, 2), Period: p}, nil
}

func newWorker(t *testing.T, url string, syncer Syncer) *SyncWorker {
	t.Helper()
	repo := adapters.NewConfigRepository(memory.New())
	if url != "" {
		if err := repo.Save(context.Background(), core.Settings{SheetURL: url}); err != nil {
			t.Fatalf("save settings: %v", err)
		}
	}
	loc := time.FixedZone("BRT", -3*3600)
	w := NewSyncWorker(syncer, repo, loc, log.Discard())
	// 00:30 on April 1st UTC is still March 31st in BRT.
	w.now = func() time.Time { return time.Date(2024, 4, 1, 0, 30, 0, 0, time.UTC) }
	return w
}

// ingestErr produces a real *ingest.Error of the given kind.
func ingestErr(t *testing.T, kind ingest.Kind) error {
	t.Helper()
	var text, url string
	url = sheetURL
	switch kind {
	case ingest.KindInvalidURL:
		url = "https://example.com/nothing"
	case ingest.KindEmptySheet:
		text = "DATA_APOSTA\n"
	case ingest.KindFetch:
	}
	fetcher := memory.NewFetcher()
	if kind != ingest.KindFetch {
		fetcher.Put("abc123", "0", text)
	}
	_, err := ingest.NewOrchestrator(fetcher, nil, ingest.Options{Logger: log.Discard()}).
		Ingest(context.Background(), url, core.Period{Year: 2024, Month: time.March})
	if ingest.KindOf(err) != kind {
		t.Fatalf("setup: got kind %q, want %q (%v)", ingest.KindOf(err), kind, err)
	}
	return err
}

func TestSyncCurrentMonth_UsesConfiguredTimezone(t *testing.T) {
	syncer := &fakeSyncer{}
	w := newWorker(t, sheetURL, syncer)

	if err := w.SyncCurrentMonth(context.Background()); err != nil {
		t.Fatalf("SyncCurrentMonth: %v", err)
	}
	want := core.Period{Year: 2024, Month: time.March}
	if len(syncer.periods) != 1 || syncer.periods[0] != want || syncer.urls[0] != sheetURL {
		t.Fatalf("synced %v %v, want %v", syncer.periods, syncer.urls, want)
	}
}

func TestSync_NoSheetConfigured(t *testing.T) {
	syncer := &fakeSyncer{}
	w := newWorker(t, "", syncer)

	if err := w.SyncCurrentMonth(context.Background()); err != nil {
		t.Fatalf("SyncCurrentMonth: %v", err)
	}
	if len(syncer.periods) != 0 {
		t.Fatalf("expected no sync without a sheet url")
	}
}

func TestHandleSyncRequest(t *testing.T) {
	tests := []struct {
		name      string
		msg       *amqp.SyncRequested
		syncErr   ingest.Kind
		wantErr   bool
		wantSyncs int
	}{
		{name: "valid request", msg: &amqp.SyncRequested{Year: 2024, Month: 2}, wantSyncs: 1},
		{name: "invalid month dropped", msg: &amqp.SyncRequested{Year: 2024, Month: 0}},
		{name: "fetch failure retried", msg: &amqp.SyncRequested{Year: 2024, Month: 2}, syncErr: ingest.KindFetch, wantErr: true, wantSyncs: 1},
		{name: "empty sheet acknowledged", msg: &amqp.SyncRequested{Year: 2024, Month: 2}, syncErr: ingest.KindEmptySheet, wantSyncs: 1},
		{name: "invalid url acknowledged", msg: &amqp.SyncRequested{Year: 2024, Month: 2}, syncErr: ingest.KindInvalidURL, wantSyncs: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			syncer := &fakeSyncer{}
			if tt.syncErr != "" {
				syncer.err = ingestErr(t, tt.syncErr)
			}
			w := newWorker(t, sheetURL, syncer)

			err := w.HandleSyncRequest(context.Background(), tt.msg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("HandleSyncRequest error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(syncer.periods) != tt.wantSyncs {
				t.Fatalf("syncs = %d, want %d", len(syncer.periods), tt.wantSyncs)
			}
		})
	}
}

func TestHandleSyncRequest_Superseded(t *testing.T) {
	release := make(chan struct{})
	first := make(chan struct{})
	session := ingest.NewSession(ingest.IngesterFunc(func(ctx context.Context, _ string, p core.Period) (*ingest.Batch, error) {
		if p.Month == time.January {
			close(first)
			<-release
		}
		return &ingest.Batch{Records: make([]core.BettingOperation, 1)}, nil
	}), ingest.SessionOptions{Logger: log.Discard()})
	w := newWorker(t, sheetURL, session)

	errc := make(chan error, 1)
	go func() { errc <- w.HandleSyncRequest(context.Background(), &amqp.SyncRequested{Year: 2024, Month: 1}) }()
	<-first
	if err := w.HandleSyncRequest(context.Background(), &amqp.SyncRequested{Year: 2024, Month: 2}); err != nil {
		t.Fatalf("second request: %v", err)
	}
	close(release)
	if err := <-errc; err != nil {
		t.Fatalf("superseded request should be acknowledged, got %v", err)
	}
	if got := session.State().Period; got.Month != time.February {
		t.Fatalf("session period = %v, want February", got)
	}
}

type fakePublisher struct {
	msgs []*amqp.SyncCompleted
	err  error
}

func (f *fakePublisher) PublishSyncCompleted(_ context.Context, msg *amqp.SyncCompleted) error {
	f.msgs = append(f.msgs, msg)
	return f.err
}

func TestPublishSyncEvents(t *testing.T) {
	pub := &fakePublisher{}
	hook := PublishSyncEvents(pub, log.Discard())
	march := core.Period{Year: 2024, Month: time.March}
	syncedAt := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	hook(context.Background(), march, &ingest.Batch{Records: make([]core.BettingOperation, 3), Skipped: 1, SyncedAt: syncedAt}, nil)
	hook(context.Background(), march, nil, ingestErr(t, ingest.KindEmptySheet))

	if len(pub.msgs) != 2 {
		t.Fatalf("published %d messages, want 2", len(pub.msgs))
	}
	ok := pub.msgs[0]
	if !ok.Success || ok.Records != 3 || ok.Skipped != 1 || !ok.SyncedAt.Equal(syncedAt) || ok.Period != "2024-03" {
		t.Fatalf("unexpected success event %+v", ok)
	}
	failed := pub.msgs[1]
	if failed.Success || failed.Kind != string(ingest.KindEmptySheet) || failed.Error == "" {
		t.Fatalf("unexpected failure event %+v", failed)
	}

	pub.err = errors.New("broker down")
	hook(context.Background(), march, &ingest.Batch{}, nil) // must not panic
}
