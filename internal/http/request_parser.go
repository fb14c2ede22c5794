// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"arbdash/internal/core"
)

const maxBodyBytes = 1 << 20

var errBodyTooLarge = errors.New("request body too large")

// ParseMonthParams reads year and month from query parameters, defaulting
// each to the month of now. Present but malformed values are an error.
func ParseMonthParams(query url.Values, now time.Time) (core.Period, error) {
	p := core.PeriodOf(now)
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return core.Period{}, fmt.Errorf("%w: year %q", core.ErrInvalidPeriod, v)
		}
		p.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return core.Period{}, fmt.Errorf("%w: month %q", core.ErrInvalidPeriod, v)
		}
		p.Month = time.Month(m)
	}
	if err := p.Validate(); err != nil {
		return core.Period{}, err
	}
	return p, nil
}

// HasMonthParams reports whether the query names a period explicitly.
func HasMonthParams(query url.Values) bool {
	return query.Get("year") != "" || query.Get("month") != ""
}

// ParsePathPeriod reads the {year} and {month} path wildcards.
func ParsePathPeriod(r *http.Request) (core.Period, error) {
	y, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		return core.Period{}, fmt.Errorf("%w: year %q", core.ErrInvalidPeriod, r.PathValue("year"))
	}
	m, err := strconv.Atoi(r.PathValue("month"))
	if err != nil {
		return core.Period{}, fmt.Errorf("%w: month %q", core.ErrInvalidPeriod, r.PathValue("month"))
	}
	p := core.Period{Year: y, Month: time.Month(m)}
	return p, p.Validate()
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON objects and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads at most maxBodyBytes of the body once.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = errBodyTooLarge
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	body := strings.TrimSpace(string(p.body))
	if body == "" {
		p.formData = url.Values{}
		return nil
	}

	if body[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(body), &p.jsonData); err != nil {
			p.err = fmt.Errorf("invalid json: %w", err)
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(body)
	return p.err
}

// Get returns a trimmed, sanitized string value from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Has reports whether key was sent at all.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	_, ok := p.formData[key]
	return ok
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseExpense builds an expense from the body fields name, category,
// value, date (YYYY-MM-DD in loc, today when empty), notes and
// periodicity. Validation of the result is left to the domain.
func ParseExpense(p *RequestBodyParser, now time.Time, loc *time.Location) (core.Expense, error) {
	value, err := core.ParseAmount(p.Get("value"))
	if err != nil {
		return core.Expense{}, err
	}
	date := now.In(loc)
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	if v := p.Get("date"); v != "" {
		date, err = time.ParseInLocation(time.DateOnly, v, loc)
		if err != nil {
			return core.Expense{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, v)
		}
	}
	return core.Expense{
		Name:        p.Get("name"),
		Category:    core.Category(p.Get("category")),
		Value:       value,
		Date:        date,
		Notes:       p.Get("notes"),
		Periodicity: core.Periodicity(p.Get("periodicity")),
	}, nil
}

// ParseMonthConfig builds a month config from the body fields year, month,
// gid and name.
func ParseMonthConfig(p *RequestBodyParser) (core.MonthConfig, error) {
	year, err := strconv.Atoi(p.Get("year"))
	if err != nil {
		return core.MonthConfig{}, fmt.Errorf("%w: year %q", core.ErrInvalidPeriod, p.Get("year"))
	}
	month, err := strconv.Atoi(p.Get("month"))
	if err != nil {
		return core.MonthConfig{}, fmt.Errorf("%w: month %q", core.ErrInvalidPeriod, p.Get("month"))
	}
	return core.MonthConfig{
		Year:  year,
		Month: time.Month(month),
		GID:   p.Get("gid"),
		Name:  p.Get("name"),
	}, nil
}
