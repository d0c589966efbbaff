package ledger

import (
	"sync"
	"time"

	"expenseportal/internal/draft"
	ports "expenseportal/internal/sheets"
)

// EventSink receives best-effort notifications after ledger state changes.
// A nil sink disables publishing.
type EventSink interface {
	ExpensesSubmitted(ownerID string, month, year int, entryIDs []int64)
	ExpenseDecided(entryID int64, status string, approverID string)
}

type Service struct {
	rows    ports.RowStore
	sheetID string
	drafts  *draft.Store
	events  EventSink

	// idMu serializes id allocation and append within the process so two
	// in-process submissions can never read the same max id.
	idMu sync.Mutex
	now  func() time.Time

	maxIDRepairs int
}

func NewService(rows ports.RowStore, ledgerSheetID string, drafts *draft.Store, events EventSink) *Service {
	return &Service{
		rows:         rows,
		sheetID:      ledgerSheetID,
		drafts:       drafts,
		events:       events,
		now:          time.Now,
		maxIDRepairs: 3,
	}
}
