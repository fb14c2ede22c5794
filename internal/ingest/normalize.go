package ingest

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"arbdash/internal/core"
)

// The normalizers are total: malformed input degrades to a default value
// instead of failing the row.

// ParseDateTime parses "DD/MM/YYYY[ HH:MM]" in loc. When the date part does
// not split into exactly three integers, now is returned. Hour and minute
// fall back to zero independently. Out-of-range components roll over the
// way time.Date normalizes them.
func ParseDateTime(s string, loc *time.Location, now time.Time) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	s = SanitizeString(s)
	if s == "" {
		return now
	}
	parts := strings.Fields(s)
	dateParts := strings.Split(parts[0], "/")
	if len(dateParts) != 3 {
		return now
	}
	var ymd [3]int
	for i, p := range dateParts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return now
		}
		ymd[i] = n
	}
	day, month, year := ymd[0], ymd[1], ymd[2]

	var hour, minute int
	if len(parts) > 1 {
		hm := strings.Split(parts[1], ":")
		hour = atoiOrZero(hm[0])
		if len(hm) > 1 {
			minute = atoiOrZero(hm[1])
		}
	}
	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc)
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// ParseCurrency parses Brazilian currency such as "R$ 1.234,56". Dots are
// thousands separators and the comma is the decimal separator. Returns zero
// on failure.
func ParseCurrency(s string) decimal.Decimal {
	s = strings.ReplaceAll(s, `"`, "")
	s = strings.ReplaceAll(s, "R$", "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '.' {
			return -1
		}
		return r
	}, s)
	s = strings.ReplaceAll(s, ",", ".")
	return parseDecimal(s)
}

// ParseNumber parses odds and percentages such as "1,85" or "12,5%".
// Returns zero on failure.
func ParseNumber(s string) decimal.Decimal {
	s = strings.ReplaceAll(s, `"`, "")
	s = strings.ReplaceAll(s, "%", "")
	s = strings.ReplaceAll(s, ",", ".")
	return parseDecimal(strings.TrimSpace(s))
}

func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// SanitizeString removes every double quote and trims surrounding space.
func SanitizeString(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}

var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// fold lower-cases s and strips diacritics.
func fold(s string) string {
	out, _, err := transform.String(accentFolder, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// NormalizeResult maps a free-form result label to a canonical one.
// Exact labels win; otherwise keywords are matched case and accent
// insensitively, half results before full ones. Anything else is Red.
func NormalizeResult(s string) core.Result {
	s = strings.TrimSpace(s)
	if r := core.Result(s); r.IsValid() {
		return r
	}
	lower := fold(s)
	half := strings.Contains(lower, "meio")
	switch {
	case half && strings.Contains(lower, "red"):
		return core.ResultHalfRed
	case half && strings.Contains(lower, "green"):
		return core.ResultHalfGreen
	case strings.Contains(lower, "green"):
		return core.ResultGreen
	case strings.Contains(lower, "red"):
		return core.ResultRed
	case strings.Contains(lower, "devol"):
		return core.ResultRefunded
	}
	return core.ResultRed
}
