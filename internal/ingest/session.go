package ingest

import (
	"context"
	"sync"
	"time"

	"arbdash/internal/core"
	"arbdash/internal/log"
)

// Ingester is the pipeline a Session drives.
type Ingester interface {
	Ingest(ctx context.Context, sheetURL string, period core.Period) (*Batch, error)
}

// IngesterFunc adapts a function to Ingester.
type IngesterFunc func(ctx context.Context, sheetURL string, period core.Period) (*Batch, error)

func (f IngesterFunc) Ingest(ctx context.Context, sheetURL string, period core.Period) (*Batch, error) {
	return f(ctx, sheetURL, period)
}

// State is a snapshot of what a Session currently holds.
type State struct {
	Records    []core.BettingOperation
	SyncedAt   time.Time
	Period     core.Period
	SheetURL   string
	Err        error
	Generation uint64
}

// SyncHook is told about every sync that was not superseded.
type SyncHook func(ctx context.Context, period core.Period, batch *Batch, err error)

// SessionOptions configures a Session.
type SessionOptions struct {
	// KeepStaleOnError keeps the last good records when a sync fails.
	KeepStaleOnError bool
	Logger           *log.Logger
	OnSync           SyncHook
}

// Session holds the operations of one dashboard and serializes syncs:
// starting a sync cancels the one in flight, and a result is applied only
// while its generation is the newest.
type Session struct {
	ingester Ingester
	opts     SessionOptions
	logger   *log.Logger

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	state  State
}

func NewSession(ingester Ingester, opts SessionOptions) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Session{
		ingester: ingester,
		opts:     opts,
		logger:   logger.WithComponent(log.ComponentSession),
	}
}

// Sync ingests period from sheetURL and replaces the session records.
// A call overtaken by a newer Sync or Reset returns ErrSuperseded, and a call
// whose ctx is canceled by the caller returns the context error; both leave
// the state alone.
func (s *Session) Sync(parent context.Context, sheetURL string, period core.Period) (*Batch, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	s.cancel = cancel
	s.mu.Unlock()

	batch, err := s.ingester.Ingest(ctx, sheetURL, period)
	if err == nil && batch == nil {
		err = newError(KindNoValidRows, nil)
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "Discarding superseded sync",
			log.FieldGeneration, gen, log.FieldPeriod, period.String())
		return nil, newError(KindSuperseded, err)
	}
	s.cancel = nil
	if err != nil && parent.Err() != nil {
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "Sync abandoned by caller",
			log.FieldGeneration, gen, log.FieldPeriod, period.String())
		return nil, parent.Err()
	}
	if err != nil {
		s.state.Err = err
		s.state.Generation = gen
		s.state.SheetURL = sheetURL
		if !s.opts.KeepStaleOnError {
			s.state.Records = nil
			s.state.SyncedAt = time.Time{}
			s.state.Period = period
		}
	} else {
		s.state = State{
			Records:    batch.Records,
			SyncedAt:   batch.SyncedAt,
			Period:     period,
			SheetURL:   sheetURL,
			Generation: gen,
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.WarnContext(ctx, "Sync failed",
			log.FieldPeriod, period.String(), log.FieldErrorKind, KindOf(err), log.FieldError, err)
	}
	if s.opts.OnSync != nil {
		s.opts.OnSync(context.WithoutCancel(ctx), period, batch, err)
	}
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	if st.Records != nil {
		st.Records = append([]core.BettingOperation(nil), st.Records...)
	}
	return st
}

// Reset cancels any sync in flight and forgets all records.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	s.state = State{Generation: s.gen}
}
