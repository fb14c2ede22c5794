package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"arbdash/internal/amqp"
	"arbdash/internal/core"
	"arbdash/internal/ingest"
	"arbdash/internal/log"
	"arbdash/internal/sheets"
)

// Syncer runs one ingestion for a period. *ingest.Session implements it.
type Syncer interface {
	Sync(ctx context.Context, sheetURL string, period core.Period) (*ingest.Batch, error)
}

// Publisher sends sync outcomes to the broker. *amqp.Client implements it.
type Publisher interface {
	PublishSyncCompleted(ctx context.Context, msg *amqp.SyncCompleted) error
}

// SyncWorker triggers syncs of the configured sheet from the scheduler and
// from queued sync requests.
type SyncWorker struct {
	syncer   Syncer
	settings sheets.ConfigRepository
	location *time.Location
	now      func() time.Time
	logger   *log.Logger
}

func NewSyncWorker(syncer Syncer, settings sheets.ConfigRepository, location *time.Location, logger *log.Logger) *SyncWorker {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &SyncWorker{
		syncer:   syncer,
		settings: settings,
		location: location,
		now:      time.Now,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleSyncRequest processes one sync request from AMQP. Only failures
// worth retrying are returned; the rest are logged and acknowledged.
func (w *SyncWorker) HandleSyncRequest(ctx context.Context, msg *amqp.SyncRequested) error {
	period, err := msg.Period()
	if err != nil {
		w.logger.WarnContext(ctx, "Dropping invalid sync request", log.FieldError, err)
		return nil
	}
	w.logger.InfoContext(ctx, "Processing sync request",
		log.FieldPeriod, period.String(), "requested_at", msg.Timestamp)
	return w.sync(ctx, period)
}

// SyncCurrentMonth ingests the month containing now in the configured timezone.
func (w *SyncWorker) SyncCurrentMonth(ctx context.Context) error {
	return w.sync(ctx, core.PeriodOf(w.now().In(w.location)))
}

func (w *SyncWorker) sync(ctx context.Context, period core.Period) error {
	settings, err := w.settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if settings.SheetURL == "" {
		w.logger.InfoContext(ctx, "No sheet configured, skipping sync", log.FieldPeriod, period.String())
		return nil
	}

	batch, err := w.syncer.Sync(ctx, settings.SheetURL, period)
	switch {
	case err == nil:
		w.logger.InfoContext(ctx, "Sync completed",
			log.FieldPeriod, period.String(), log.FieldRecords, len(batch.Records), log.FieldSkipped, batch.Skipped)
		return nil
	case errors.Is(err, ingest.ErrSuperseded):
		return nil
	case errors.Is(err, ingest.ErrFetch):
		return fmt.Errorf("sync %s: %w", period, err)
	default:
		// The sheet itself is wrong; retrying will not help.
		w.logger.WarnContext(ctx, "Sync rejected",
			log.FieldPeriod, period.String(), log.FieldErrorKind, ingest.KindOf(err), log.FieldError, err)
		return nil
	}
}

// PublishSyncEvents returns a session hook that announces every applied
// sync. Publish failures are logged and never affect the sync.
func PublishSyncEvents(p Publisher, logger *log.Logger) ingest.SyncHook {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentAMQP)
	return func(ctx context.Context, period core.Period, batch *ingest.Batch, err error) {
		msg := &amqp.SyncCompleted{Period: period.String(), Success: err == nil}
		if batch != nil {
			msg.Records = len(batch.Records)
			msg.Skipped = batch.Skipped
			msg.SyncedAt = batch.SyncedAt
		}
		if err != nil {
			msg.Error = err.Error()
			msg.Kind = string(ingest.KindOf(err))
			msg.SyncedAt = time.Now()
		}
		if perr := p.PublishSyncCompleted(ctx, msg); perr != nil {
			logger.WarnContext(ctx, "Failed to publish sync event",
				log.FieldPeriod, msg.Period, log.FieldError, perr)
		}
	}
}
