package core

import (
	"errors"
	"testing"
)

func validItem() LineItem {
	return LineItem{
		LocalID:     1,
		Date:        NewDate(2026, 3, 14),
		Category:    "Supplies",
		Vendor:      "Office Depot",
		Description: "Whiteboard markers",
		Amount:      Money{Cents: 1250},
	}
}

func TestLineItemValidate(t *testing.T) {
	if err := validItem().Validate(); err != nil {
		t.Fatalf("valid item rejected: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*LineItem)
		wantErr error
	}{
		{"negative local id", func(li *LineItem) { li.LocalID = -1 }, ErrInvalidLocalID},
		{"zero date", func(li *LineItem) { li.Date = Date{} }, ErrInvalidDate},
		{"empty category", func(li *LineItem) { li.Category = "  " }, ErrEmptyCategory},
		{"empty vendor", func(li *LineItem) { li.Vendor = "" }, ErrEmptyVendor},
		{"empty description", func(li *LineItem) { li.Description = "" }, ErrEmptyDescription},
		{"negative amount", func(li *LineItem) { li.Amount = Money{Cents: -1} }, ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			li := validItem()
			tt.mutate(&li)
			if err := li.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLineItemValidateZeroAmount(t *testing.T) {
	li := validItem()
	li.Amount = Money{Cents: 0}
	if err := li.Validate(); err != nil {
		t.Errorf("zero amount should be allowed, got %v", err)
	}
}

func TestLineItemValidateLongDescription(t *testing.T) {
	li := validItem()
	for len(li.Description) <= 500 {
		li.Description += li.Description
	}
	if err := li.Validate(); err == nil {
		t.Error("description over 500 characters should be rejected")
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-08-30")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.String() != "2026-08-30" {
		t.Errorf("round trip = %q", d.String())
	}

	for _, bad := range []string{"", "30/08/2026", "2026-13-01", "yesterday"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDate(%q) = %v, want ErrInvalidDate", bad, err)
		}
	}
}

func TestValidateMonth(t *testing.T) {
	for _, m := range []int{1, 6, 12} {
		if err := ValidateMonth(m); err != nil {
			t.Errorf("ValidateMonth(%d) = %v", m, err)
		}
	}
	for _, m := range []int{0, 13, -1} {
		if err := ValidateMonth(m); err == nil {
			t.Errorf("ValidateMonth(%d) should fail", m)
		}
	}
}

func TestEntryStatusIsDecision(t *testing.T) {
	if EntryStatusPending.IsDecision() {
		t.Error("pending is not a decision")
	}
	if !EntryStatusApproved.IsDecision() || !EntryStatusRejected.IsDecision() {
		t.Error("approved and rejected are decisions")
	}
}
