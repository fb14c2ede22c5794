package ingest

import "strings"

// Column positions of the operations tab.
const (
	ColBetPlacedAt = iota
	ColEventAt
	ColSport
	ColEvent
	ColHouse
	ColMarket
	ColOdd
	ColStake
	ColPercentage
	ColResult
	ColProfit

	columnCount
)

// RequiredColumns are the header names expected on the operations tab, in
// column order.
var RequiredColumns = [columnCount]string{
	"DATA_APOSTA",
	"DATA_EVENTO",
	"ESPORTE",
	"EVENTO",
	"CASA",
	"MERCADO",
	"ODD",
	"STAKE",
	"PERCENTUAL",
	"RESULTADO",
	"LUCRO",
}

// ValidateHeader reports which required columns are absent from headers.
// Names are compared ignoring case, accents, quotes and the difference
// between spaces and underscores.
func ValidateHeader(headers []string) (missing []string) {
	seen := make(map[string]bool, len(headers))
	for _, h := range headers {
		seen[headerKey(h)] = true
	}
	for _, col := range RequiredColumns {
		if !seen[headerKey(col)] {
			missing = append(missing, col)
		}
	}
	return missing
}

func headerKey(h string) string {
	h = fold(SanitizeString(h))
	return strings.Join(strings.FieldsFunc(h, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-'
	}), "_")
}
