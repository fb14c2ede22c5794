package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Result is the outcome classification of a wagered operation.
type Result string

const (
	ResultGreen     Result = "Green"
	ResultRed       Result = "Red"
	ResultRefunded  Result = "Devolvido"
	ResultHalfRed   Result = "Meio Red"
	ResultHalfGreen Result = "Meio Green"
)

// Results lists the canonical labels in display order.
var Results = []Result{ResultGreen, ResultRed, ResultRefunded, ResultHalfRed, ResultHalfGreen}

// IsValid reports whether r is one of the canonical labels.
func (r Result) IsValid() bool {
	for _, v := range Results {
		if r == v {
			return true
		}
	}
	return false
}

type (
	// BettingOperation is one row of the operations tab, normalized.
	BettingOperation struct {
		ID          string          `json:"id"`
		UserID      string          `json:"userId"`
		BetPlacedAt time.Time       `json:"betPlacedAt"`
		EventAt     time.Time       `json:"eventAt"`
		Sport       string          `json:"sport"`
		EventName   string          `json:"eventName"`
		House       string          `json:"house"`
		Market      string          `json:"market"`
		Odd         decimal.Decimal `json:"odd"`
		Stake       decimal.Decimal `json:"stake"`
		Percentage  decimal.Decimal `json:"percentage"`
		Result      Result          `json:"result"`
		Profit      decimal.Decimal `json:"profit"`
		CreatedAt   time.Time       `json:"createdAt"`
		UpdatedAt   time.Time       `json:"updatedAt"`
	}

	// Period identifies a calendar month.
	Period struct {
		Year  int
		Month time.Month
	}

	// MonthConfig maps a period to the spreadsheet tab holding its data.
	MonthConfig struct {
		Year  int        `json:"year"`
		Month time.Month `json:"month"` // 1-12
		GID   string     `json:"gid"`
		Name  string     `json:"name"`
	}

	// Settings is the whole persisted dashboard configuration.
	Settings struct {
		SheetURL     string        `json:"sheetUrl"`
		MonthConfigs []MonthConfig `json:"monthConfigs"`
	}
)

var (
	ErrInvalidPeriod = errors.New("invalid period")
	ErrInvalidGID    = errors.New("tab id must be numeric")
)

var monthNames = [...]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// MonthName returns the pt-BR name of m.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParsePeriod accepts "YYYY-MM".
func ParsePeriod(s string) (Period, error) {
	y, m, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	year, err := strconv.Atoi(y)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	month, err := strconv.Atoi(m)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	p := Period{Year: year, Month: time.Month(month)}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

func (p Period) Validate() error {
	if p.Month < time.January || p.Month > time.December {
		return fmt.Errorf("%w: month %d", ErrInvalidPeriod, p.Month)
	}
	if p.Year < 1900 || p.Year > 3000 {
		return fmt.Errorf("%w: year %d", ErrInvalidPeriod, p.Year)
	}
	return nil
}

// Previous returns the month before p.
func (p Period) Previous() Period {
	if p.Month == time.January {
		return Period{Year: p.Year - 1, Month: time.December}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

// Contains reports whether t falls in p, in t's own location.
func (p Period) Contains(t time.Time) bool {
	return t.Year() == p.Year && t.Month() == p.Month
}

// IsZero reports whether p is the zero Period.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Label returns the display name, e.g. "Março 2024".
func (p Period) Label() string {
	return fmt.Sprintf("%s %d", MonthName(p.Month), p.Year)
}

func (mc MonthConfig) Period() Period {
	return Period{Year: mc.Year, Month: mc.Month}
}

func (mc MonthConfig) Validate() error {
	if err := mc.Period().Validate(); err != nil {
		return err
	}
	gid := strings.TrimSpace(mc.GID)
	if gid == "" {
		return ErrInvalidGID
	}
	if _, err := strconv.ParseUint(gid, 10, 64); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidGID, mc.GID)
	}
	return nil
}

// MonthConfigFor returns the tab configured for p, if any.
func (s Settings) MonthConfigFor(p Period) (MonthConfig, bool) {
	for _, mc := range s.MonthConfigs {
		if mc.Year == p.Year && mc.Month == p.Month {
			return mc, true
		}
	}
	return MonthConfig{}, false
}

// UpsertMonthConfig replaces any entry for the same period and appends mc.
// An empty Name is filled from the period label.
func (s *Settings) UpsertMonthConfig(mc MonthConfig) error {
	mc.GID = strings.TrimSpace(mc.GID)
	if err := mc.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(mc.Name) == "" {
		mc.Name = mc.Period().Label()
	}
	s.removeMonthConfig(mc.Period())
	s.MonthConfigs = append(s.MonthConfigs, mc)
	return nil
}

// RemoveMonthConfig deletes the entry for p and reports whether one existed.
func (s *Settings) RemoveMonthConfig(p Period) bool {
	return s.removeMonthConfig(p)
}

func (s *Settings) removeMonthConfig(p Period) bool {
	out := s.MonthConfigs[:0]
	removed := false
	for _, mc := range s.MonthConfigs {
		if mc.Year == p.Year && mc.Month == p.Month {
			removed = true
			continue
		}
		out = append(out, mc)
	}
	s.MonthConfigs = out
	return removed
}
