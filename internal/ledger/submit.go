package ledger

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

// Submit turns the owner's draft for the month into pending ledger entries.
// All items are appended in one batched write with ids allocated as
// max(existing)+1, then the id column is re-read to detect a cross-process
// race; on collision the engine rewrites its own rows' id cells and checks
// again, a bounded number of times. Only after the entries are safely in the
// ledger is the draft closed. A failure between the append and the close
// surfaces as ErrPartialSubmission so the caller knows the ledger already
// holds the entries.
func (s *Service) Submit(ctx context.Context, ownerID string, month, year int) ([]int64, error) {
	unlock := s.drafts.LockKey(ownerID, month, year)
	defer unlock()

	d, err := s.drafts.Load(ctx, ownerID, month, year)
	if err != nil {
		return nil, err
	}
	if d.Status == core.DraftStatusSubmitted {
		return nil, core.ErrDraftSubmitted
	}
	if len(d.Items) == 0 {
		return nil, core.ErrEmptyDraft
	}
	for _, li := range d.Items {
		if err := li.Validate(); err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", core.ErrInvalidFormat, li.LocalID, err)
		}
	}

	entries, startRow, err := s.appendEntries(ctx, ownerID, d.Items)
	if err != nil {
		return nil, err
	}

	ids, err := s.verifyIDs(ctx, entries, startRow)
	if err != nil {
		return nil, fmt.Errorf("%w: entries appended at row %d: %v", core.ErrPartialSubmission, startRow, err)
	}

	if err := s.drafts.MarkSubmitted(ctx, ownerID, month, year); err != nil {
		return ids, fmt.Errorf("%w: entries %v in ledger but draft still open: %v", core.ErrPartialSubmission, ids, err)
	}

	slog.InfoContext(ctx, "Draft submitted",
		"owner_id", ownerID, "month", month, "year", year, "entries", len(ids))
	if s.events != nil {
		s.events.ExpensesSubmitted(ownerID, month, year, ids)
	}
	return ids, nil
}

// appendEntries allocates ids and writes every item in a single append call
// under the process id lock. Returns the entries as written and the 1-based
// sheet row of the first one.
func (s *Service) appendEntries(ctx context.Context, ownerID string, items []core.LineItem) ([]core.LedgerEntry, int, error) {
	s.idMu.Lock()
	defer s.idMu.Unlock()

	maxID, err := s.maxEntryID(ctx)
	if err != nil {
		return nil, 0, err
	}

	now := s.now()
	entries := make([]core.LedgerEntry, len(items))
	rows := make([][]string, len(items))
	for i, li := range items {
		entries[i] = core.LedgerEntry{
			ID:          maxID + 1 + int64(i),
			OwnerID:     ownerID,
			Date:        li.Date,
			Category:    li.Category,
			Vendor:      li.Vendor,
			Amount:      li.Amount,
			Description: li.Description,
			Status:      core.EntryStatusPending,
			SubmittedAt: now,
		}
		rows[i] = entryToRow(entries[i])
	}

	startRow, err := s.rows.AppendRows(ctx, s.sheetID, ports.LedgerRange, rows)
	if err != nil {
		return nil, 0, fmt.Errorf("append ledger entries: %w", err)
	}
	return entries, startRow, nil
}

// verifyIDs re-reads the id column and repairs this submission's rows when a
// concurrent writer claimed the same ids. The append's start row pins which
// rows belong to us, so repair never touches foreign entries. Writers sleep
// a row-derived jitter between attempts so two colliding processes do not
// re-allocate in lockstep.
func (s *Service) verifyIDs(ctx context.Context, entries []core.LedgerEntry, startRow int) ([]int64, error) {
	n := len(entries)
	ids := make([]int64, n)
	for i, e := range entries {
		ids[i] = e.ID
	}

	for attempt := 0; attempt <= s.maxIDRepairs; attempt++ {
		dup, maxID, err := s.findDuplicates(ctx, ids, startRow, n)
		if err != nil {
			return nil, err
		}
		if !dup {
			return ids, nil
		}
		if attempt == s.maxIDRepairs {
			break
		}

		select {
		case <-time.After(time.Duration(startRow%7+1) * 50 * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		cells := make([][]string, n)
		for i := range ids {
			ids[i] = maxID + 1 + int64(i)
			cells[i] = []string{strconv.FormatInt(ids[i], 10)}
		}
		spec := fmt.Sprintf("A%d:A%d", startRow, startRow+n-1)
		if err := s.rows.UpdateRange(ctx, s.sheetID, spec, cells); err != nil {
			return nil, fmt.Errorf("rewrite entry ids: %w", err)
		}
		slog.WarnContext(ctx, "Repaired colliding ledger ids",
			"start_row", startRow, "count", n, "attempt", attempt+1)
	}
	return nil, fmt.Errorf("entry ids still colliding after %d repairs", s.maxIDRepairs)
}

// findDuplicates reports whether any of ours appears in a row outside our
// span, plus the current max id across the whole column.
func (s *Service) findDuplicates(ctx context.Context, ours []int64, startRow, n int) (bool, int64, error) {
	rows, err := s.rows.GetRange(ctx, s.sheetID, ports.LedgerRange)
	if err != nil {
		return false, 0, fmt.Errorf("re-read ledger ids: %w", err)
	}
	mine := make(map[int64]bool, len(ours))
	for _, id := range ours {
		mine[id] = true
	}

	var maxID int64
	dup := false
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(row[colID]), 10, 64)
		if err != nil {
			continue
		}
		if id > maxID {
			maxID = id
		}
		sheetRow := sheetRowOf(i)
		if mine[id] && (sheetRow < startRow || sheetRow >= startRow+n) {
			dup = true
		}
	}
	return dup, maxID, nil
}

func (s *Service) maxEntryID(ctx context.Context) (int64, error) {
	rows, err := s.rows.GetRange(ctx, s.sheetID, ports.LedgerRange)
	if err != nil {
		return 0, fmt.Errorf("load ledger: %w", err)
	}
	var maxID int64
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(row[colID]), 10, 64)
		if err != nil {
			continue
		}
		if id > maxID {
			maxID = id
		}
	}
	return maxID, nil
}
