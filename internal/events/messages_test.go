package events

import (
	"testing"
	"time"
)

func TestNotificationRoundTrip(t *testing.T) {
	n := &Notification{
		Kind:      KindSubmitted,
		OwnerID:   "T001",
		Month:     3,
		Year:      2026,
		EntryIDs:  []int64{4, 5, 6},
		Timestamp: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
	}
	data, err := n.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := NotificationFromJSON(data)
	if err != nil {
		t.Fatalf("NotificationFromJSON: %v", err)
	}
	if got.Kind != KindSubmitted || got.OwnerID != "T001" || len(got.EntryIDs) != 3 {
		t.Errorf("round trip = %+v", got)
	}
}

func TestNotificationFromJSONRejectsGarbage(t *testing.T) {
	if _, err := NotificationFromJSON([]byte("{broken")); err == nil {
		t.Error("garbage body should fail to parse")
	}
}
