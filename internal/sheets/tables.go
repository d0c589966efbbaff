package sheets

// Fixed table layouts, by convention of the backing spreadsheets.
// Column order is part of the persistence contract and never changes.
var (
	UsersHeader = []string{"teacher_id", "name", "pin", "role", "active"}

	LedgerHeader = []string{
		"id", "teacher_id", "date", "category", "vendor", "amount",
		"description", "status", "submitted_date", "approved_by",
		"approved_date", "comments",
	}

	DraftsHeader = []string{
		"teacher_id", "month", "year", "expenses", "status",
		"created_date", "last_modified", "comments",
	}
)

const (
	UsersRange  = "A:E"
	LedgerRange = "A:L"
	DraftsRange = "A:H"
)
