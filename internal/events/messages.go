// Package events publishes portal notifications over RabbitMQ. Publishing is
// best effort: the ledger is the source of truth and a lost notification is
// recoverable by re-reading it.
package events

import (
	"encoding/json"
	"time"
)

const (
	KindSubmitted = "expenses_submitted"
	KindDecided   = "expense_decided"
)

// Notification is the single wire message for both event kinds. Consumers
// switch on Kind; unused fields stay at their zero value.
type Notification struct {
	Kind       string    `json:"kind"`
	OwnerID    string    `json:"owner_id,omitempty"`
	Month      int       `json:"month,omitempty"`
	Year       int       `json:"year,omitempty"`
	EntryIDs   []int64   `json:"entry_ids,omitempty"`
	EntryID    int64     `json:"entry_id,omitempty"`
	Status     string    `json:"status,omitempty"`
	ApproverID string    `json:"approver_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func (n *Notification) ToJSON() ([]byte, error) {
	return json.Marshal(n)
}

func NotificationFromJSON(data []byte) (*Notification, error) {
	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	return &n, nil
}
