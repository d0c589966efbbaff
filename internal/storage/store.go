// Package storage implements the tabular row store on SQLite, for
// deployments that want durable local state without a Google account. Rows
// live in a single sheet_rows table keyed by (sheet, row_num) with the cells
// as a JSON array, mirroring the spreadsheet shape one to one.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"expenseportal/internal/core"
	ports "expenseportal/internal/sheets"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// EnsureHeader writes the header at row 1 when the sheet is empty.
func (s *SQLiteStore) EnsureHeader(ctx context.Context, sheetID string, header []string) error {
	rows, err := s.GetRange(ctx, sheetID, "A:A")
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		return nil
	}
	cols, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sheet_rows (sheet, row_num, cols) VALUES (?, 1, ?)`,
		sheetID, string(cols))
	if err != nil {
		return storeErr("write header", err)
	}
	return nil
}

// GetRange returns all rows of the sheet in row order. Column bounds of the
// range are ignored: callers always read full-width ranges and the JSON rows
// already carry exactly the cells that were written.
func (s *SQLiteStore) GetRange(ctx context.Context, sheetID, rangeSpec string) ([][]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT cols FROM sheet_rows WHERE sheet = ? ORDER BY row_num`, sheetID)
	if err != nil {
		return nil, storeErr("query rows", err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, storeErr("scan row", err)
		}
		var cells []string
		if err := json.Unmarshal([]byte(blob), &cells); err != nil {
			return nil, storeErr("decode row", err)
		}
		out = append(out, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate rows", err)
	}
	return out, nil
}

// AppendRows inserts all rows in one transaction after the current last row,
// so a batch lands fully or not at all.
func (s *SQLiteStore) AppendRows(ctx context.Context, sheetID, rangeSpec string, newRows [][]string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storeErr("begin append", err)
	}
	defer tx.Rollback()

	var last sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT MAX(row_num) FROM sheet_rows WHERE sheet = ?`, sheetID).Scan(&last)
	if err != nil {
		return 0, storeErr("find last row", err)
	}
	startRow := int(last.Int64) + 1

	for i, row := range newRows {
		cols, err := json.Marshal(row)
		if err != nil {
			return 0, fmt.Errorf("encode row: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO sheet_rows (sheet, row_num, cols) VALUES (?, ?, ?)`,
			sheetID, startRow+i, string(cols))
		if err != nil {
			return 0, storeErr("insert row", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, storeErr("commit append", err)
	}
	return startRow, nil
}

func (s *SQLiteStore) UpdateCell(ctx context.Context, sheetID, cellRef, value string) error {
	col, row, err := ports.ParseCellRef(cellRef)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidFormat, err)
	}
	return s.updateCells(ctx, sheetID, col, row, [][]string{{value}})
}

func (s *SQLiteStore) UpdateRange(ctx context.Context, sheetID, rangeSpec string, rows [][]string) error {
	col, row, err := ports.ParseRangeStart(rangeSpec)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidFormat, err)
	}
	return s.updateCells(ctx, sheetID, col, row, rows)
}

// updateCells rewrites the affected rows inside one transaction, padding
// rows that are narrower than the write requires.
func (s *SQLiteStore) updateCells(ctx context.Context, sheetID string, startCol, startRow int, rows [][]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin update", err)
	}
	defer tx.Rollback()

	for i, newCells := range rows {
		rowNum := startRow + i

		var blob string
		cells := []string{}
		err := tx.QueryRowContext(ctx,
			`SELECT cols FROM sheet_rows WHERE sheet = ? AND row_num = ?`,
			sheetID, rowNum).Scan(&blob)
		switch {
		case err == nil:
			if err := json.Unmarshal([]byte(blob), &cells); err != nil {
				return storeErr("decode row", err)
			}
		case errors.Is(err, sql.ErrNoRows):
		default:
			return storeErr("load row", err)
		}

		need := startCol + len(newCells)
		for len(cells) < need {
			cells = append(cells, "")
		}
		copy(cells[startCol:], newCells)

		cols, err := json.Marshal(cells)
		if err != nil {
			return fmt.Errorf("encode row: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO sheet_rows (sheet, row_num, cols) VALUES (?, ?, ?)
			 ON CONFLICT (sheet, row_num) DO UPDATE SET cols = excluded.cols`,
			sheetID, rowNum, string(cols))
		if err != nil {
			return storeErr("write row", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit update", err)
	}
	return nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, core.ErrStoreUnavailable, err)
}
