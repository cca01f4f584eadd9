package amqp

import (
	"testing"

	"treasury/internal/core"
)

func TestLedgerEventMessageRoundTrip(t *testing.T) {
	msg := NewLedgerEventMessage(42, core.KindExpense, true)

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := LedgerEventMessageFromJSON(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got.ID != 42 || got.Kind != core.KindExpense || !got.Deleted {
		t.Fatalf("got %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Fatal("timestamp lost")
	}
}

func TestLedgerEventMessageFromJSON_Invalid(t *testing.T) {
	if _, err := LedgerEventMessageFromJSON([]byte("{not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
