package ingest

import (
	"fmt"
	"time"

	"arbdash/internal/core"
)

// MapOptions carries the per-batch context needed to build a record.
type MapOptions struct {
	UserID   string
	Location *time.Location
}

// MapRow converts tokenized fields into an operation. Columns are positional;
// missing trailing fields are treated as empty. A row without a bet date or
// event name is skipped with ErrBlankRow or ErrMissingEvent. Unparseable
// numbers become zero and never fail the row.
func MapRow(fields []string, rowIndex int, batchAt time.Time, opts MapOptions) (core.BettingOperation, error) {
	if SanitizeString(field(fields, ColBetPlacedAt)) == "" {
		return core.BettingOperation{}, ErrBlankRow
	}
	event := SanitizeString(field(fields, ColEvent))
	if event == "" {
		return core.BettingOperation{}, ErrMissingEvent
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	now := batchAt.In(loc)

	return core.BettingOperation{
		ID:          RecordID(rowIndex, batchAt),
		UserID:      opts.UserID,
		BetPlacedAt: ParseDateTime(field(fields, ColBetPlacedAt), loc, now),
		EventAt:     ParseDateTime(field(fields, ColEventAt), loc, now),
		Sport:       SanitizeString(field(fields, ColSport)),
		EventName:   event,
		House:       SanitizeString(field(fields, ColHouse)),
		Market:      SanitizeString(field(fields, ColMarket)),
		Odd:         ParseNumber(field(fields, ColOdd)),
		Stake:       ParseCurrency(field(fields, ColStake)),
		Percentage:  ParseNumber(field(fields, ColPercentage)),
		Result:      NormalizeResult(field(fields, ColResult)),
		Profit:      ParseCurrency(field(fields, ColProfit)),
		CreatedAt:   batchAt,
		UpdatedAt:   batchAt,
	}, nil
}

// RecordID derives a batch-unique id from the row index and batch time.
func RecordID(rowIndex int, batchAt time.Time) string {
	return fmt.Sprintf("sheet-%d-%d", rowIndex, batchAt.UnixMilli())
}

func field(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return fields[i]
}
