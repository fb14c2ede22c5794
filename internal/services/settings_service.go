package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"arbdash/internal/core"
	"arbdash/internal/ingest"
	"arbdash/internal/log"
	"arbdash/internal/sheets"
	"arbdash/internal/sheets/google"
)

// SessionControl is the part of *ingest.Session the settings and sync
// flows drive.
type SessionControl interface {
	Sync(ctx context.Context, sheetURL string, period core.Period) (*ingest.Batch, error)
	State() ingest.State
	Reset()
}

// SettingsService edits the dashboard configuration and triggers syncs.
// Edits are read-modify-write on the whole document, so they are
// serialized.
type SettingsService struct {
	mu       sync.Mutex
	repo     sheets.ConfigRepository
	session  SessionControl
	location *time.Location
	now      func() time.Time
	logger   *log.Logger
	onChange []func()
}

func NewSettingsService(repo sheets.ConfigRepository, session SessionControl, location *time.Location, logger *log.Logger) *SettingsService {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &SettingsService{
		repo:     repo,
		session:  session,
		location: location,
		now:      time.Now,
		logger:   logger.WithComponent(log.ComponentSettings),
	}
}

// OnChange registers fn to run after every saved edit. It must be called
// before the service is shared.
func (s *SettingsService) OnChange(fn func()) {
	s.onChange = append(s.onChange, fn)
}

func (s *SettingsService) changed() {
	for _, fn := range s.onChange {
		fn()
	}
}

func (s *SettingsService) Get(ctx context.Context) (core.Settings, error) {
	settings, err := s.repo.Load(ctx)
	if err != nil {
		return core.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	if settings.MonthConfigs == nil {
		settings.MonthConfigs = []core.MonthConfig{}
	}
	return settings, nil
}

// SetSheetURL stores a new spreadsheet URL. Switching to a different sheet
// drops the records held by the session.
func (s *SettingsService) SetSheetURL(ctx context.Context, sheetURL string) (core.Settings, error) {
	sheetURL = strings.TrimSpace(sheetURL)
	if !google.IsValidSheetURL(sheetURL) {
		return core.Settings{}, &ingest.Error{Kind: ingest.KindInvalidURL}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	settings, err := s.Get(ctx)
	if err != nil {
		return core.Settings{}, err
	}
	changed := settings.SheetURL != sheetURL
	settings.SheetURL = sheetURL
	if err := s.repo.Save(ctx, settings); err != nil {
		return core.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	s.changed()
	if changed && s.session != nil {
		s.session.Reset()
	}
	s.logger.InfoContext(ctx, "Spreadsheet connected", log.FieldOperation, log.OpUpdate, log.FieldChanged, changed)
	return settings, nil
}

// DisconnectSheet forgets the spreadsheet URL and the session records.
// Month configs are kept.
func (s *SettingsService) DisconnectSheet(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings, err := s.Get(ctx)
	if err != nil {
		return err
	}
	settings.SheetURL = ""
	if err := s.repo.Save(ctx, settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	s.changed()
	if s.session != nil {
		s.session.Reset()
	}
	s.logger.InfoContext(ctx, "Spreadsheet disconnected", log.FieldOperation, log.OpDelete)
	return nil
}

// UpsertMonthConfig maps a month to a tab, replacing any previous mapping.
func (s *SettingsService) UpsertMonthConfig(ctx context.Context, mc core.MonthConfig) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings, err := s.Get(ctx)
	if err != nil {
		return core.Settings{}, err
	}
	if err := settings.UpsertMonthConfig(mc); err != nil {
		return core.Settings{}, err
	}
	if err := s.repo.Save(ctx, settings); err != nil {
		return core.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	s.changed()
	return settings, nil
}

// RemoveMonthConfig deletes the mapping for p. It returns
// core.ErrMonthConfigNotFound when there was none.
func (s *SettingsService) RemoveMonthConfig(ctx context.Context, p core.Period) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings, err := s.Get(ctx)
	if err != nil {
		return err
	}
	if !settings.RemoveMonthConfig(p) {
		return fmt.Errorf("%w: %s", core.ErrMonthConfigNotFound, p)
	}
	if err := s.repo.Save(ctx, settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	s.changed()
	return nil
}

// Sync ingests period, or the current month when period is nil, into the
// session.
func (s *SettingsService) Sync(ctx context.Context, period *core.Period) (*ingest.Batch, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	if settings.SheetURL == "" {
		return nil, ErrSheetNotConfigured
	}
	p := core.PeriodOf(s.now().In(s.location))
	if period != nil {
		p = *period
	}
	return s.session.Sync(ctx, settings.SheetURL, p)
}

// Operations returns the session records matching f together with their
// stats. The session is synced for the current month when it is empty.
func (s *SettingsService) Operations(ctx context.Context, f core.OperationFilter) (*OperationList, error) {
	st := s.session.State()
	if len(st.Records) == 0 && st.Err == nil {
		if _, err := s.Sync(ctx, nil); err != nil {
			return nil, err
		}
		st = s.session.State()
	}
	ops := core.FilterOperations(st.Records, f)
	list := &OperationList{
		SyncedAt:   st.SyncedAt,
		Operations: ops,
		Stats:      core.Stats(ops),
		Sports:     core.Sports(st.Records),
		Houses:     core.Houses(st.Records),
		Daily:      core.ProfitByDay(ops, s.location),
	}
	if !st.Period.IsZero() {
		list.Period = st.Period.String()
	}
	if st.Err != nil {
		list.Error = ingest.UserMessage(st.Err)
		list.Kind = string(ingest.KindOf(st.Err))
	}
	return list, nil
}

// OperationList is the filtered view of the session.
type OperationList struct {
	Period     string                  `json:"period,omitempty"`
	SyncedAt   time.Time               `json:"syncedAt"`
	Operations []core.BettingOperation `json:"operations"`
	Stats      core.ImportStats        `json:"stats"`
	Sports     []string                `json:"sports"`
	Houses     []string                `json:"houses"`
	Daily      []core.DailyProfit      `json:"daily"`
	// Error describes the last failed sync when stale records are shown.
	Error string `json:"error,omitempty"`
	Kind  string `json:"kind,omitempty"`
}
