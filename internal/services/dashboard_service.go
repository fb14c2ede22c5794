package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"arbdash/internal/core"
	"arbdash/internal/ingest"
	"arbdash/internal/log"
	"arbdash/internal/sheets"
)

// ErrSheetNotConfigured means no spreadsheet URL has been saved yet.
var ErrSheetNotConfigured = errors.New("no spreadsheet configured")

const topN = 5

// Snapshotter exposes the records of the last sync. *ingest.Session
// implements it.
type Snapshotter interface {
	State() ingest.State
}

// DashboardService aggregates operations and expenses for the dashboard and
// reports views.
type DashboardService struct {
	settings sheets.ConfigRepository
	ingester ingest.Ingester
	session  Snapshotter
	expenses *ExpenseService
	location *time.Location
	now      func() time.Time
	logger   *log.Logger
}

// NewDashboardService wires the collaborators. session may be nil, in which
// case every request ingests from the sheet.
func NewDashboardService(settings sheets.ConfigRepository, ingester ingest.Ingester, session Snapshotter,
	expenses *ExpenseService, location *time.Location, logger *log.Logger) *DashboardService {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DashboardService{
		settings: settings,
		ingester: ingester,
		session:  session,
		expenses: expenses,
		location: location,
		now:      time.Now,
		logger:   logger.WithComponent(log.ComponentDashboard),
	}
}

// Changes compares a month with the one before it, in percent. WinRate is
// the difference in percentage points.
type Changes struct {
	Stake      decimal.Decimal `json:"stake"`
	Profit     decimal.Decimal `json:"profit"`
	Operations decimal.Decimal `json:"operations"`
	WinRate    decimal.Decimal `json:"winRate"`
}

// Dashboard is the month view.
type Dashboard struct {
	Period            string                  `json:"period"`
	Label             string                  `json:"label"`
	SyncedAt          time.Time               `json:"syncedAt"`
	Current           core.ImportStats        `json:"current"`
	Previous          core.ImportStats        `json:"previous"`
	PreviousAvailable bool                    `json:"previousAvailable"`
	Changes           Changes                 `json:"changes"`
	TopSports         []core.GroupProfit      `json:"topSports"`
	TopHouses         []core.GroupProfit      `json:"topHouses"`
	TopOperations     []core.BettingOperation `json:"topOperations"`
	RecentOperations  []core.BettingOperation `json:"recentOperations"`
	Expenses          ExpenseSummary          `json:"expenses"`
	NetProfit         decimal.Decimal         `json:"netProfit"`
}

// Dashboard builds the view for p. The current and previous month and the
// expenses are loaded concurrently. The previous month is compared only when
// it has its own tab configured; failing to load it is logged and ignored.
func (s *DashboardService) Dashboard(ctx context.Context, p core.Period) (*Dashboard, error) {
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if settings.SheetURL == "" {
		return nil, ErrSheetNotConfigured
	}

	var (
		current, previous []core.BettingOperation
		syncedAt          time.Time
		havePrevious      bool
		expenses          ExpenseSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, syncedAt, err = s.records(gctx, settings.SheetURL, p)
		return err
	})
	if _, ok := settings.MonthConfigFor(p.Previous()); ok {
		g.Go(func() error {
			batch, err := s.ingester.Ingest(gctx, settings.SheetURL, p.Previous())
			if err != nil {
				if gctx.Err() == nil {
					s.logger.WarnContext(ctx, "Previous month unavailable",
						log.FieldPeriod, p.Previous().String(), log.FieldError, err)
				}
				return nil
			}
			previous, havePrevious = batch.Records, true
			return nil
		})
	}
	g.Go(func() error {
		var err error
		expenses, err = s.expenses.Summary(gctx, p)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cur, prev := core.Stats(current), core.Stats(previous)
	d := &Dashboard{
		Period:            p.String(),
		Label:             p.Label(),
		SyncedAt:          syncedAt,
		Current:           cur,
		Previous:          prev,
		PreviousAvailable: havePrevious,
		Changes: Changes{
			Stake:      core.PercentageChange(cur.TotalStake, prev.TotalStake),
			Profit:     core.PercentageChange(cur.TotalProfit, prev.TotalProfit),
			Operations: core.PercentageChange(decimal.NewFromInt(int64(cur.TotalOperations)), decimal.NewFromInt(int64(prev.TotalOperations))),
			WinRate:    cur.WinRate.Sub(prev.WinRate),
		},
		TopSports:        core.Top(core.ProfitBySport(current), topN),
		TopHouses:        core.Top(core.ProfitByHouse(current), topN),
		TopOperations:    core.TopOperations(current, topN),
		RecentOperations: recentOperations(current, topN),
		Expenses:         expenses,
		NetProfit:        cur.TotalProfit.Sub(expenses.Total),
	}
	return d, nil
}

// records returns the operations of p, reusing the session when it already
// holds that month of the same sheet.
func (s *DashboardService) records(ctx context.Context, sheetURL string, p core.Period) ([]core.BettingOperation, time.Time, error) {
	if s.session != nil {
		st := s.session.State()
		if st.Err == nil && len(st.Records) > 0 && st.Period == p && st.SheetURL == sheetURL {
			return st.Records, st.SyncedAt, nil
		}
	}
	batch, err := s.ingester.Ingest(ctx, sheetURL, p)
	if err != nil {
		return nil, time.Time{}, err
	}
	return batch.Records, batch.SyncedAt, nil
}

func recentOperations(ops []core.BettingOperation, n int) []core.BettingOperation {
	out := make([]core.BettingOperation, len(ops))
	copy(out, ops)
	sort.SliceStable(out, func(a, b int) bool { return out[a].EventAt.After(out[b].EventAt) })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
