package google

import (
	"net/url"
	"regexp"
	"strings"

	"arbdash/internal/core"
)

// DefaultBaseURL is the host serving spreadsheet CSV exports.
const DefaultBaseURL = "https://docs.google.com"

// DefaultTabID is the first tab of every spreadsheet.
const DefaultTabID = "0"

var (
	sheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)
	gidPattern     = regexp.MustCompile(`[#&?]gid=([0-9]+)`)
)

// ExtractSheetID returns the spreadsheet id following /spreadsheets/d/.
func ExtractSheetID(sheetURL string) (string, bool) {
	m := sheetIDPattern.FindStringSubmatch(sheetURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsValidSheetURL reports whether the URL points at Google Sheets.
func IsValidSheetURL(sheetURL string) bool {
	return strings.Contains(sheetURL, "docs.google.com/spreadsheets")
}

// TabIDFromURL returns the numeric gid carried in the URL fragment or query.
func TabIDFromURL(sheetURL string) (string, bool) {
	m := gidPattern.FindStringSubmatch(sheetURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ResolveTabID picks the tab to read for period: the configured month tab,
// then the tab named in the URL, then the first tab.
func ResolveTabID(configs []core.MonthConfig, sheetURL string, period core.Period) string {
	for _, mc := range configs {
		if mc.Year == period.Year && mc.Month == period.Month && strings.TrimSpace(mc.GID) != "" {
			return strings.TrimSpace(mc.GID)
		}
	}
	if gid, ok := TabIDFromURL(sheetURL); ok {
		return gid
	}
	return DefaultTabID
}

// ExportURL builds the CSV export endpoint of one tab.
func ExportURL(base, sheetID, tabID string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	q := url.Values{}
	q.Set("format", "csv")
	q.Set("gid", tabID)
	return base + "/spreadsheets/d/" + url.PathEscape(sheetID) + "/export?" + q.Encode()
}
