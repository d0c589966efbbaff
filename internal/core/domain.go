package core

import (
	"errors"
	"strings"
	"time"
)

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"

	DraftStatusNew       DraftStatus = "new"
	DraftStatusDraft     DraftStatus = "draft"
	DraftStatusSubmitted DraftStatus = "submitted"

	EntryStatusPending  EntryStatus = "pending"
	EntryStatusApproved EntryStatus = "approved"
	EntryStatusRejected EntryStatus = "rejected"
)

// DateLayout and TimestampLayout are the wire formats used in every sheet cell.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

type (
	Role        string
	DraftStatus string
	EntryStatus string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// User is a row of the users sheet. PINs are stored and compared as
	// plaintext; there is no token issuance at this layer.
	User struct {
		ID          string
		DisplayName string
		PIN         string
		Role        Role
		Active      bool
	}

	// LineItem is one expense inside a draft. LocalID is unique only within
	// its draft and never leaks into the ledger.
	LineItem struct {
		LocalID     int64
		Date        Date
		Category    string
		Vendor      string
		Description string
		Amount      Money
	}

	// Draft is the mutable monthly batch of line items for one owner.
	// Keyed by (OwnerID, Month, Year); at most one per key.
	Draft struct {
		OwnerID        string
		Month          int
		Year           int
		Items          []LineItem
		Status         DraftStatus
		CreatedAt      time.Time
		LastModifiedAt time.Time
	}

	// LedgerEntry is a submitted expense record. Immutable after creation
	// except for the decision fields, which the approval engine writes once.
	LedgerEntry struct {
		ID          int64
		OwnerID     string
		Date        Date
		Category    string
		Vendor      string
		Amount      Money
		Description string
		Status      EntryStatus
		SubmittedAt time.Time
		ApproverID  string
		ApprovedAt  time.Time
		Comments    string
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidLocalID   = errors.New("invalid line item id")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyVendor      = errors.New("empty vendor")
	ErrEmptyDescription = errors.New("empty description")
)

func (r Role) IsValid() bool {
	return r == RoleMember || r == RoleAdmin
}

func (s EntryStatus) IsDecision() bool {
	return s == EntryStatusApproved || s == EntryStatusRejected
}

// ParseDate parses a YYYY-MM-DD cell value.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (li LineItem) Validate() error {
	if li.LocalID < 0 {
		return ErrInvalidLocalID
	}
	if err := li.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(li.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(li.Vendor) == "" {
		return ErrEmptyVendor
	}
	if strings.TrimSpace(li.Description) == "" {
		return ErrEmptyDescription
	}
	if len(li.Description) > 500 {
		return errors.New("description too long (max 500 characters)")
	}
	return li.Amount.Validate()
}

// ValidateMonth checks a calendar month index.
func ValidateMonth(month int) error {
	if month < 1 || month > 12 {
		return errors.New("invalid month")
	}
	return nil
}

// Decided reports whether the entry left the pending state.
func (e LedgerEntry) Decided() bool {
	return e.Status != EntryStatusPending
}
