package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"expenseportal/internal/core"
	ports "expenseportal/internal/sheets"
)

// SetStatus decides a pending entry. The decision lands in one ranged write
// covering status through comments, so a reader never observes a decided
// status without its approver and timestamp. Already-decided entries are
// rejected rather than overwritten.
func (s *Service) SetStatus(ctx context.Context, entryID int64, status core.EntryStatus, approverID, comments string) error {
	if status != core.EntryStatusApproved && status != core.EntryStatusRejected {
		return fmt.Errorf("%w: status %q is not a decision", core.ErrInvalidFormat, status)
	}

	rows, err := s.rows.GetRange(ctx, s.sheetID, ports.LedgerRange)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	rowNum := 0
	var entry core.LedgerEntry
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		e, perr := parseEntryRow(row)
		if perr != nil {
			continue
		}
		if e.ID == entryID {
			rowNum = sheetRowOf(i)
			entry = e
			break
		}
	}
	if rowNum == 0 {
		return fmt.Errorf("%w: entry %d", core.ErrNotFound, entryID)
	}
	if entry.Status != core.EntryStatusPending {
		return fmt.Errorf("%w: entry %d is %s", core.ErrAlreadyDecided, entryID, entry.Status)
	}

	now := s.now().Format(core.TimestampLayout)
	spec := fmt.Sprintf("H%d:L%d", rowNum, rowNum)
	cells := []string{
		string(status),
		entry.SubmittedAt.Format(core.TimestampLayout),
		approverID,
		now,
		comments,
	}
	if err := s.rows.UpdateRange(ctx, s.sheetID, spec, [][]string{cells}); err != nil {
		return fmt.Errorf("write decision: %w", err)
	}

	slog.InfoContext(ctx, "Expense decided",
		"entry_id", entryID, "status", status, "approver_id", approverID)
	if s.events != nil {
		s.events.ExpenseDecided(entryID, string(status), approverID)
	}
	return nil
}
