// Package draft persists the per-user monthly batch of unsubmitted expense
// line items: one row per (owner, month, year) in the drafts sheet, with the
// item list as a JSON blob in a single cell.
package draft

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"expenseportal/internal/core"
	ports "expenseportal/internal/sheets"
)

// Drafts sheet columns (0-based): teacher_id, month, year, expenses, status,
// created_date, last_modified, comments.
const (
	colOwner = iota
	colMonth
	colYear
	colExpenses
	colStatus
	colCreated
	colModified
	colComments
)

type Store struct {
	rows    ports.RowStore
	sheetID string
	locks   *KeyMutex
	now     func() time.Time
}

func NewStore(rows ports.RowStore, sheetID string) *Store {
	return &Store{
		rows:    rows,
		sheetID: sheetID,
		locks:   NewKeyMutex(),
		now:     time.Now,
	}
}

// Key renders the canonical draft key, also used by the submission engine to
// serialize submissions against saves.
func Key(ownerID string, month, year int) string {
	return ownerID + "/" + strconv.Itoa(month) + "/" + strconv.Itoa(year)
}

// LockKey serializes callers on the draft key and returns the unlock func.
func (s *Store) LockKey(ownerID string, month, year int) func() {
	return s.locks.Lock(Key(ownerID, month, year))
}

// Load returns the draft for the key, or a fresh empty draft with status
// "new" when no row exists. A corrupt expenses blob is logged and replaced
// by a fresh draft: the ledger, not the draft, is authoritative once
// submitted, so this is graceful degradation rather than data loss.
func (s *Store) Load(ctx context.Context, ownerID string, month, year int) (core.Draft, error) {
	if err := core.ValidateMonth(month); err != nil {
		return core.Draft{}, fmt.Errorf("%w: %v", core.ErrInvalidFormat, err)
	}
	fresh := core.Draft{OwnerID: ownerID, Month: month, Year: year, Status: core.DraftStatusNew}

	_, cells, found, err := s.findRow(ctx, ownerID, month, year)
	if err != nil {
		return core.Draft{}, err
	}
	if !found {
		return fresh, nil
	}

	items, err := decodeItems(cells[colExpenses])
	if err != nil {
		slog.ErrorContext(ctx, "Discarding corrupt draft",
			"owner_id", ownerID, "month", month, "year", year, "error", err)
		return fresh, nil
	}

	d := core.Draft{
		OwnerID: ownerID,
		Month:   month,
		Year:    year,
		Items:   items,
		Status:  core.DraftStatus(cells[colStatus]),
	}
	if d.Status != core.DraftStatusDraft && d.Status != core.DraftStatusSubmitted {
		d.Status = core.DraftStatusNew
	}
	d.CreatedAt = parseTimestamp(cells[colCreated])
	d.LastModifiedAt = parseTimestamp(cells[colModified])
	return d, nil
}

// Save validates every item and persists the whole batch, or nothing.
// An existing row is overwritten in place with a single ranged write; a
// missing row is appended. CreatedAt survives from the first save.
func (s *Store) Save(ctx context.Context, ownerID string, month, year int, items []core.LineItem) error {
	if err := core.ValidateMonth(month); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidFormat, err)
	}
	for _, li := range items {
		if err := li.Validate(); err != nil {
			return fmt.Errorf("%w: item %d: %v", core.ErrInvalidFormat, li.LocalID, err)
		}
	}
	blob, err := encodeItems(items)
	if err != nil {
		return err
	}

	unlock := s.LockKey(ownerID, month, year)
	defer unlock()

	rowNum, cells, found, err := s.findRow(ctx, ownerID, month, year)
	if err != nil {
		return err
	}

	now := s.now().Format(core.TimestampLayout)
	created := now
	comments := ""
	if found {
		if core.DraftStatus(cells[colStatus]) == core.DraftStatusSubmitted {
			return core.ErrDraftSubmitted
		}
		if cells[colCreated] != "" {
			created = cells[colCreated]
		}
		comments = cells[colComments]
	}

	row := []string{
		ownerID,
		strconv.Itoa(month),
		strconv.Itoa(year),
		blob,
		string(core.DraftStatusDraft),
		created,
		now,
		comments,
	}
	if found {
		spec := fmt.Sprintf("A%d:H%d", rowNum, rowNum)
		if err := s.rows.UpdateRange(ctx, s.sheetID, spec, [][]string{row}); err != nil {
			return fmt.Errorf("update draft row: %w", err)
		}
		return nil
	}
	if _, err := s.rows.AppendRows(ctx, s.sheetID, ports.DraftsRange, [][]string{row}); err != nil {
		return fmt.Errorf("append draft row: %w", err)
	}
	return nil
}

// MarkSubmitted flips the draft's status and refreshes last_modified in one
// ranged write. Called by the submission engine under the same key lock.
func (s *Store) MarkSubmitted(ctx context.Context, ownerID string, month, year int) error {
	rowNum, cells, found, err := s.findRow(ctx, ownerID, month, year)
	if err != nil {
		return err
	}
	if !found {
		return core.ErrNotFound
	}
	now := s.now().Format(core.TimestampLayout)
	spec := fmt.Sprintf("E%d:G%d", rowNum, rowNum)
	row := []string{string(core.DraftStatusSubmitted), cells[colCreated], now}
	if err := s.rows.UpdateRange(ctx, s.sheetID, spec, [][]string{row}); err != nil {
		return fmt.Errorf("mark draft submitted: %w", err)
	}
	return nil
}

// findRow is a linear scan over the drafts sheet. Acceptable only because
// row counts stay small; a production-scale store would index by key.
func (s *Store) findRow(ctx context.Context, ownerID string, month, year int) (rowNum int, cells []string, found bool, err error) {
	rows, err := s.rows.GetRange(ctx, s.sheetID, ports.DraftsRange)
	if err != nil {
		return 0, nil, false, fmt.Errorf("load drafts: %w", err)
	}
	monthStr := strconv.Itoa(month)
	yearStr := strconv.Itoa(year)
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		cells := padRow(row, len(ports.DraftsHeader))
		if strings.TrimSpace(cells[colOwner]) == ownerID &&
			strings.TrimSpace(cells[colMonth]) == monthStr &&
			strings.TrimSpace(cells[colYear]) == yearStr {
			return i + 1, cells, true, nil
		}
	}
	return 0, nil, false, nil
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(core.TimestampLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}

func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	out := make([]string, width)
	copy(out, row)
	return out
}
