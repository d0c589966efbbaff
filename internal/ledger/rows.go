// Package ledger owns the immutable expense ledger: the submission engine
// that turns drafts into pending entries, and the approval engine that
// decides them.
package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"expenseportal/internal/core"
)

// Ledger sheet columns (0-based): id, teacher_id, date, category, vendor,
// amount, description, status, submitted_date, approved_by, approved_date,
// comments. 12 columns, fixed order.
const (
	colID = iota
	colOwner
	colDate
	colCategory
	colVendor
	colAmount
	colDescription
	colStatus
	colSubmitted
	colApprover
	colApproved
	colComments

	ledgerWidth = 12
)

func entryToRow(e core.LedgerEntry) []string {
	approvedAt := ""
	if !e.ApprovedAt.IsZero() {
		approvedAt = e.ApprovedAt.Format(core.TimestampLayout)
	}
	return []string{
		strconv.FormatInt(e.ID, 10),
		e.OwnerID,
		e.Date.String(),
		e.Category,
		e.Vendor,
		e.Amount.String(),
		e.Description,
		string(e.Status),
		e.SubmittedAt.Format(core.TimestampLayout),
		e.ApproverID,
		approvedAt,
		e.Comments,
	}
}

func parseEntryRow(row []string) (core.LedgerEntry, error) {
	cells := padRow(row, ledgerWidth)
	id, err := strconv.ParseInt(strings.TrimSpace(cells[colID]), 10, 64)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("bad entry id %q", cells[colID])
	}
	date, err := core.ParseDate(cells[colDate])
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("entry %d: %w", id, err)
	}
	amount, err := core.ParseMoney(cells[colAmount])
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("entry %d: %w", id, err)
	}
	e := core.LedgerEntry{
		ID:          id,
		OwnerID:     strings.TrimSpace(cells[colOwner]),
		Date:        date,
		Category:    cells[colCategory],
		Vendor:      cells[colVendor],
		Amount:      amount,
		Description: cells[colDescription],
		Status:      core.EntryStatus(strings.TrimSpace(cells[colStatus])),
		SubmittedAt: parseTimestamp(cells[colSubmitted]),
		ApproverID:  strings.TrimSpace(cells[colApprover]),
		ApprovedAt:  parseTimestamp(cells[colApproved]),
		Comments:    strings.TrimSpace(cells[colComments]),
	}
	return e, nil
}

// sheetRowOf converts a data index in a GetRange result to its 1-based sheet
// row. rows[0] is the header at sheet row 1, so data index i lives at i+1.
func sheetRowOf(dataIndex int) int {
	return dataIndex + 1
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
