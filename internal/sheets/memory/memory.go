// Package memory is an in-process RowStore used by tests and the default
// development backend. Rows live in a mutex-guarded map keyed by sheet name.
package memory

import (
	"context"
	"fmt"
	"sync"

	ports "expenseportal/internal/sheets"
)

type Store struct {
	mu     sync.Mutex
	tables map[string][][]string

	// Failure injection for tests; checked per operation.
	getErr    error
	appendErr error
	updateErr error
}

var _ ports.RowStore = (*Store)(nil)

func New() *Store {
	return &Store{tables: make(map[string][][]string)}
}

// EnsureSheet creates the sheet with its header row if it does not exist.
func (s *Store) EnsureSheet(sheetID string, header []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[sheetID]; !ok {
		s.tables[sheetID] = [][]string{append([]string(nil), header...)}
	}
}

func (s *Store) GetRange(_ context.Context, sheetID, _ string) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	rows := s.tables[sheetID]
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out, nil
}

func (s *Store) AppendRows(_ context.Context, sheetID, _ string, rows [][]string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return 0, s.appendErr
	}
	startRow := len(s.tables[sheetID]) + 1
	for _, row := range rows {
		s.tables[sheetID] = append(s.tables[sheetID], append([]string(nil), row...))
	}
	return startRow, nil
}

func (s *Store) UpdateCell(_ context.Context, sheetID, cellRef, value string) error {
	col, row, err := ports.ParseCellRef(cellRef)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	return s.writeCellsLocked(sheetID, col, row, [][]string{{value}})
}

func (s *Store) UpdateRange(_ context.Context, sheetID, rangeSpec string, rows [][]string) error {
	col, row, err := ports.ParseRangeStart(rangeSpec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	return s.writeCellsLocked(sheetID, col, row, rows)
}

func (s *Store) writeCellsLocked(sheetID string, col, row int, rows [][]string) error {
	table := s.tables[sheetID]
	for i, src := range rows {
		idx := row - 1 + i
		if idx < 0 {
			return fmt.Errorf("row %d out of range for sheet %s", row+i, sheetID)
		}
		for idx >= len(table) {
			table = append(table, nil)
		}
		dst := table[idx]
		for j, v := range src {
			for col+j >= len(dst) {
				dst = append(dst, "")
			}
			dst[col+j] = v
		}
		table[idx] = dst
	}
	s.tables[sheetID] = table
	return nil
}

// RowCount reports the number of rows in a sheet, header included.
func (s *Store) RowCount(sheetID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tables[sheetID])
}

// FailGets makes subsequent reads return err; nil restores normal behavior.
func (s *Store) FailGets(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getErr = err
}

// FailAppends makes subsequent appends return err; nil restores normal behavior.
func (s *Store) FailAppends(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendErr = err
}

// FailUpdates makes subsequent updates return err; nil restores normal behavior.
func (s *Store) FailUpdates(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateErr = err
}
