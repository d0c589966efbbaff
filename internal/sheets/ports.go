package sheets

import "context"

// RowStore is the outbound port for the range-addressable tabular store that
// holds all durable state. Ranges use A1 notation ("A:L", "H5:L5"); the first
// row of every sheet is a header row. There are no transactions and no
// compare-and-swap: AppendRows is the only atomic multi-cell primitive, which
// is why the engines batch whole logical writes into single calls.
type RowStore interface {
	// GetRange returns the rows of the range, header first. A missing or
	// empty sheet yields no rows and no error.
	GetRange(ctx context.Context, sheetID, rangeSpec string) ([][]string, error)

	// AppendRows appends rows after the last non-empty row of the range and
	// returns the 1-based sheet row where the first appended row landed.
	AppendRows(ctx context.Context, sheetID, rangeSpec string, rows [][]string) (startRow int, err error)

	// UpdateCell overwrites a single cell ("F7").
	UpdateCell(ctx context.Context, sheetID, cellRef, value string) error

	// UpdateRange overwrites a rectangular range in one call ("H5:L5").
	UpdateRange(ctx context.Context, sheetID, rangeSpec string, rows [][]string) error
}
