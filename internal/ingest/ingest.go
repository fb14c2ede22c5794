// Package ingest turns a published spreadsheet tab into betting operations.
//
// The pipeline resolves the sheet and tab from a URL, fetches the tab as CSV,
// tokenizes each line, normalizes Brazilian formatted fields and maps rows to
// core.BettingOperation. Malformed rows are skipped; only whole-batch
// failures are reported, as *Error values.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"arbdash/internal/core"
	"arbdash/internal/log"
	"arbdash/internal/sheets"
	"arbdash/internal/sheets/google"
)

// Batch is the result of one successful ingestion.
type Batch struct {
	Records   []core.BettingOperation
	SyncedAt  time.Time
	SheetID   string
	TabID     string
	Period    core.Period
	DataLines int
	Skipped   int
	Missing   []string // header columns not found
}

// Options configures an Orchestrator. Zero values are usable.
type Options struct {
	UserID       string
	Location     *time.Location
	StrictHeader bool
	Now          func() time.Time
	Logger       *log.Logger
	Metrics      *Metrics
}

// Orchestrator runs the ingestion pipeline.
type Orchestrator struct {
	fetcher sheets.Fetcher
	configs sheets.ConfigRepository
	opts    Options
	logger  *log.Logger
}

// NewOrchestrator wires a fetcher and the configuration repository used to
// resolve month tabs. configs may be nil.
func NewOrchestrator(fetcher sheets.Fetcher, configs sheets.ConfigRepository, opts Options) *Orchestrator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.UserID == "" {
		opts.UserID = "user1"
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Orchestrator{
		fetcher: fetcher,
		configs: configs,
		opts:    opts,
		logger:  logger.WithComponent(log.ComponentIngest),
	}
}

// Ingest fetches the tab configured for period (or the one named in the URL)
// and returns its operations.
func (o *Orchestrator) Ingest(ctx context.Context, sheetURL string, period core.Period) (batch *Batch, err error) {
	started := time.Now()
	defer func() { o.opts.Metrics.observeRun(err, started) }()

	sheetID, ok := google.ExtractSheetID(sheetURL)
	if !ok {
		return nil, newError(KindInvalidURL, nil)
	}

	var configs []core.MonthConfig
	if o.configs != nil {
		settings, lerr := o.configs.Load(ctx)
		if lerr != nil {
			o.logger.WarnContext(ctx, "Could not load month configs, using tab from url",
				log.FieldError, lerr, log.FieldPeriod, period.String())
		} else {
			configs = settings.MonthConfigs
		}
	}
	tabID := google.ResolveTabID(configs, sheetURL, period)

	o.logger.DebugContext(ctx, "Fetching sheet", log.NewFields().WithSheet(sheetID, tabID, period.String()).ToSlice()...)
	text, err := o.fetcher.FetchCSV(ctx, sheetID, tabID)
	if err != nil {
		o.logger.WarnContext(ctx, "Sheet fetch failed",
			log.NewFields().WithSheet(sheetID, tabID, period.String()).WithError(err).ToSlice()...)
		return nil, newError(KindFetch, err)
	}

	batch, err = o.ParseCSV(ctx, text, o.opts.Now())
	if err != nil {
		return nil, err
	}
	batch.SheetID = sheetID
	batch.TabID = tabID
	batch.Period = period

	o.logger.InfoContext(ctx, "Sheet ingested",
		append(log.NewFields().WithSheet(sheetID, tabID, period.String()).ToSlice(),
			log.FieldRecords, len(batch.Records), log.FieldSkipped, batch.Skipped)...)
	return batch, nil
}

// ParseCSV runs the text half of the pipeline on already retrieved CSV. A
// canceled ctx stops it with the bare context error.
func (o *Orchestrator) ParseCSV(ctx context.Context, text string, batchAt time.Time) (*Batch, error) {
	lines := splitLines(text)
	if len(lines) < 2 {
		return nil, newError(KindEmptySheet, fmt.Errorf("%d line(s)", len(lines)))
	}

	missing := ValidateHeader(ParseLine(lines[0]))
	if len(missing) > 0 {
		if o.opts.StrictHeader {
			return nil, newError(KindHeaderMismatch, fmt.Errorf("missing %s", strings.Join(missing, ",")))
		}
		o.logger.WarnContext(ctx, "Sheet header is missing expected columns", log.FieldMissing, missing)
	}

	mapOpts := MapOptions{UserID: o.opts.UserID, Location: o.opts.Location}
	batch := &Batch{SyncedAt: batchAt, Missing: missing}
	for i := 1; i < len(lines); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		batch.DataLines++
		op, err := mapLine(line, i, batchAt, mapOpts)
		if err != nil {
			batch.Skipped++
			o.logger.DebugContext(ctx, "Skipping row", log.FieldRow, i, log.FieldError, err)
			continue
		}
		batch.Records = append(batch.Records, op)
	}
	o.opts.Metrics.observeRows(len(batch.Records), batch.Skipped)

	if len(batch.Records) == 0 {
		return nil, newError(KindNoValidRows, fmt.Errorf("%d data line(s), all skipped", batch.DataLines))
	}
	return batch, nil
}

// mapLine isolates one row so a panic in conversion only loses that row.
func mapLine(line string, rowIndex int, batchAt time.Time, opts MapOptions) (op core.BettingOperation, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("row %d: recovered: %v", rowIndex, r)
		}
	}()
	return MapRow(ParseLine(line), rowIndex, batchAt, opts)
}
