package google

import (
	"context"

	ports "expenseportal/internal/sheets"
)

// Spreadsheet binds a Client to one spreadsheet and exposes its tabs as the
// sheet ids of the RowStore port: callers pass a tab name ("Users") and a
// tab-relative range ("A:E").
type Spreadsheet struct {
	client        *Client
	spreadsheetID string
}

var _ ports.RowStore = (*Spreadsheet)(nil)

func NewSpreadsheet(client *Client, spreadsheetID string) *Spreadsheet {
	return &Spreadsheet{client: client, spreadsheetID: spreadsheetID}
}

func (s *Spreadsheet) GetRange(ctx context.Context, tab, rangeSpec string) ([][]string, error) {
	return s.client.GetRange(ctx, s.spreadsheetID, tab+"!"+rangeSpec)
}

func (s *Spreadsheet) AppendRows(ctx context.Context, tab, rangeSpec string, rows [][]string) (int, error) {
	return s.client.AppendRows(ctx, s.spreadsheetID, tab+"!"+rangeSpec, rows)
}

func (s *Spreadsheet) UpdateCell(ctx context.Context, tab, cellRef, value string) error {
	return s.client.UpdateCell(ctx, s.spreadsheetID, tab+"!"+cellRef, value)
}

func (s *Spreadsheet) UpdateRange(ctx context.Context, tab, rangeSpec string, rows [][]string) error {
	return s.client.UpdateRange(ctx, s.spreadsheetID, tab+"!"+rangeSpec, rows)
}
