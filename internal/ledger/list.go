package ledger

import (
	"context"
	"fmt"
	"sort"

	"expenseportal/internal/core"
	ports "expenseportal/internal/sheets"
)

// MonthSummary is the per-month rollup shown on the portal dashboard.
type MonthSummary struct {
	Month  int        `json:"month"`
	Year   int        `json:"year"`
	Status string     `json:"status"`
	Total  core.Money `json:"total_cents"`
	Count  int        `json:"count"`
}

// ListPending returns all undecided entries, oldest submission first. The
// approval queue renders straight from this.
func (s *Service) ListPending(ctx context.Context) ([]core.LedgerEntry, error) {
	return s.list(ctx, func(e core.LedgerEntry) bool {
		return e.Status == core.EntryStatusPending
	})
}

// ListByOwner returns every entry the owner ever submitted, newest first.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]core.LedgerEntry, error) {
	entries, err := s.list(ctx, func(e core.LedgerEntry) bool {
		return e.OwnerID == ownerID
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].SubmittedAt.After(entries[j].SubmittedAt)
	})
	return entries, nil
}

// ListAll returns the full ledger for admin exports.
func (s *Service) ListAll(ctx context.Context) ([]core.LedgerEntry, error) {
	return s.list(ctx, func(core.LedgerEntry) bool { return true })
}

// SummarizeMonth rolls the owner's entries for a month into a single status
// and total. Precedence when statuses mix: any rejection wins, then any
// pending, then approved.
func (s *Service) SummarizeMonth(ctx context.Context, ownerID string, month, year int) (MonthSummary, error) {
	if err := core.ValidateMonth(month); err != nil {
		return MonthSummary{}, fmt.Errorf("%w: %v", core.ErrInvalidFormat, err)
	}
	entries, err := s.list(ctx, func(e core.LedgerEntry) bool {
		return e.OwnerID == ownerID &&
			int(e.Date.Month()) == month && e.Date.Year() == year
	})
	if err != nil {
		return MonthSummary{}, err
	}

	sum := MonthSummary{Month: month, Year: year, Status: "no_entries"}
	var rejected, pending, approved bool
	for _, e := range entries {
		sum.Total.Cents += e.Amount.Cents
		sum.Count++
		switch e.Status {
		case core.EntryStatusRejected:
			rejected = true
		case core.EntryStatusPending:
			pending = true
		case core.EntryStatusApproved:
			approved = true
		}
	}
	switch {
	case rejected:
		sum.Status = string(core.EntryStatusRejected)
	case pending:
		sum.Status = string(core.EntryStatusPending)
	case approved:
		sum.Status = string(core.EntryStatusApproved)
	}
	return sum, nil
}

func (s *Service) list(ctx context.Context, keep func(core.LedgerEntry) bool) ([]core.LedgerEntry, error) {
	rows, err := s.rows.GetRange(ctx, s.sheetID, ports.LedgerRange)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	var entries []core.LedgerEntry
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		e, err := parseEntryRow(row)
		if err != nil {
			continue
		}
		if keep(e) {
			entries = append(entries, e)
		}
	}
	return entries, nil
}
