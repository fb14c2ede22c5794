package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"arbdash/internal/core"
	"arbdash/internal/log"
	"arbdash/internal/sheets"
)

// ExpenseService owns user-entered expenses on top of the repository.
type ExpenseService struct {
	repo   sheets.ExpenseRepository
	userID string
	logger *log.Logger
}

func NewExpenseService(repo sheets.ExpenseRepository, userID string, logger *log.Logger) *ExpenseService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ExpenseService{
		repo:   repo,
		userID: userID,
		logger: logger.WithComponent(log.ComponentExpense),
	}
}

// ExpenseSummary totals the expenses of one month.
type ExpenseSummary struct {
	Period     core.Period          `json:"-"`
	Expenses   []core.Expense       `json:"expenses"`
	Total      decimal.Decimal      `json:"total"`
	ByCategory []core.CategoryTotal `json:"byCategory"`
	// Recurring projects monthly and weekly expenses into the month, counting
	// every occurrence instead of only the entry date.
	Recurring decimal.Decimal `json:"recurring"`
}

// List returns all expenses, newest first. A non-nil period restricts the
// result to expenses dated within it.
func (s *ExpenseService) List(ctx context.Context, period *core.Period) ([]core.Expense, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	if period != nil {
		list = core.ExpensesIn(list, *period)
	}
	return list, nil
}

// Create stores a new expense for the default user.
func (s *ExpenseService) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.UserID == "" {
		e.UserID = s.userID
	}
	created, err := s.repo.Add(ctx, e)
	if err != nil {
		return core.Expense{}, err
	}
	s.logger.InfoContext(ctx, "Expense created",
		log.FieldExpenseID, created.ID, log.FieldCategory, string(created.Category), "value", created.Value.StringFixed(2))
	return created, nil
}

func (s *ExpenseService) Update(ctx context.Context, e core.Expense) (core.Expense, error) {
	updated, err := s.repo.Update(ctx, e)
	if err != nil {
		return core.Expense{}, err
	}
	s.logger.InfoContext(ctx, "Expense updated", log.FieldExpenseID, updated.ID)
	return updated, nil
}

func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Expense deleted", log.FieldExpenseID, id)
	return nil
}

// Summary totals the expenses dated in p and projects recurring ones.
func (s *ExpenseService) Summary(ctx context.Context, p core.Period) (ExpenseSummary, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return ExpenseSummary{}, fmt.Errorf("list expenses: %w", err)
	}
	return summarizeExpenses(all, p, s.logger), nil
}

func summarizeExpenses(all []core.Expense, p core.Period, logger *log.Logger) ExpenseSummary {
	in := core.ExpensesIn(all, p)
	sum := ExpenseSummary{
		Period:     p,
		Expenses:   in,
		Total:      core.TotalExpenses(in),
		ByCategory: core.ExpensesByCategory(in),
		Recurring:  decimal.Zero,
	}
	if sum.Expenses == nil {
		sum.Expenses = []core.Expense{}
	}
	for _, e := range all {
		counter, err := GetOccurrenceCounter(e.Periodicity)
		if err != nil {
			logger.Warn("Skipping expense with unknown periodicity", log.FieldExpenseID, e.ID, log.FieldError, err)
			continue
		}
		if n := counter.Occurrences(e.Date, p); n > 0 {
			sum.Recurring = sum.Recurring.Add(e.Value.Mul(decimal.NewFromInt(int64(n))))
		}
	}
	return sum
}
