package core

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Partnerships Category = "parcerias"
	Phones       Category = "telefones"
	Chips        Category = "chips"
	Transport    Category = "transportes"
	Selfies      Category = "selfs"
	EntryCosts   Category = "custos_entradas"
	Other        Category = "outras"

	Monthly Periodicity = "mensal"
	Weekly  Periodicity = "semanal"
	OneOff  Periodicity = "unico"
)

type (
	Category    string
	Periodicity string

	// Expense is an operating cost entered by the user.
	Expense struct {
		ID          string          `json:"id"`
		UserID      string          `json:"userId"`
		Name        string          `json:"name"`
		Category    Category        `json:"category"`
		Value       decimal.Decimal `json:"value"`
		Date        time.Time       `json:"date"`
		Notes       string          `json:"notes,omitempty"`
		Periodicity Periodicity     `json:"periodicity"`
		CreatedAt   time.Time       `json:"createdAt"`
		UpdatedAt   time.Time       `json:"updatedAt"`
	}
)

var (
	ErrEmptyName           = errors.New("empty name")
	ErrNameTooLong         = errors.New("name too long (max 200 characters)")
	ErrInvalidCategory     = errors.New("invalid category")
	ErrInvalidPeriodicity  = errors.New("invalid periodicity")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidDate         = errors.New("date cannot be zero")
	ErrExpenseNotFound     = errors.New("expense not found")
	ErrMonthConfigNotFound = errors.New("month config not found")
)

var categoryLabels = map[Category]string{
	Partnerships: "Parcerias",
	Phones:       "Telefones",
	Chips:        "Chips",
	Transport:    "Transportes",
	Selfies:      "Selfs",
	EntryCosts:   "Custos de Entradas",
	Other:        "Outras",
}

func (c Category) IsValid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the display name of the category.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

func (p Periodicity) IsValid() bool {
	switch p {
	case Monthly, Weekly, OneOff:
		return true
	}
	return false
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if len(e.Name) > 200 {
		return ErrNameTooLong
	}
	if !e.Category.IsValid() {
		return ErrInvalidCategory
	}
	if e.Periodicity != "" && !e.Periodicity.IsValid() {
		return ErrInvalidPeriodicity
	}
	if !e.Value.IsPositive() {
		return ErrInvalidAmount
	}
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// ExpensesIn returns the expenses dated within p.
func ExpensesIn(expenses []Expense, p Period) []Expense {
	var out []Expense
	for _, e := range expenses {
		if p.Contains(e.Date) {
			out = append(out, e)
		}
	}
	return out
}

// TotalExpenses sums the values of expenses.
func TotalExpenses(expenses []Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Value)
	}
	return total
}

// CategoryTotal is the amount spent in one category.
type CategoryTotal struct {
	Category Category        `json:"category"`
	Label    string          `json:"label"`
	Value    decimal.Decimal `json:"value"`
}

// ExpensesByCategory totals expenses per category, largest first.
func ExpensesByCategory(expenses []Expense) []CategoryTotal {
	idx := make(map[Category]int)
	var out []CategoryTotal
	for _, e := range expenses {
		c := e.Category
		if c == "" {
			c = Other
		}
		i, ok := idx[c]
		if !ok {
			i = len(out)
			idx[c] = i
			out = append(out, CategoryTotal{Category: c, Label: c.Label(), Value: decimal.Zero})
		}
		out[i].Value = out[i].Value.Add(e.Value)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Value.GreaterThan(out[b].Value) })
	return out
}
