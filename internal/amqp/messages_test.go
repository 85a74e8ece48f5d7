package amqp

import (
	"testing"
	"time"
)

func TestLedgerEventRoundTrip(t *testing.T) {
	evt := NewLedgerEvent(ExpenseUpdated, 42, 7, 2024, 5)

	body, err := evt.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	decoded, err := LedgerEventFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded.Kind != ExpenseUpdated || decoded.EntityID != 42 || decoded.UserID != 7 {
		t.Fatalf("unexpected event %+v", decoded)
	}
	if decoded.Year != 2024 || decoded.Month != 5 {
		t.Fatalf("unexpected month scope %d-%d", decoded.Year, decoded.Month)
	}
	if time.Since(decoded.Timestamp) > time.Minute {
		t.Fatalf("timestamp not stamped: %v", decoded.Timestamp)
	}
}

func TestLedgerEventFromJSONInvalid(t *testing.T) {
	if _, err := LedgerEventFromJSON([]byte("{not json")); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}
