package amqp

import (
	"encoding/json"
	"time"

	"treasury/internal/core"
)

// LedgerEventMessage is a lightweight message telling the backup worker that
// a ledger row changed. It carries only the id and kind; the worker fetches
// the full record from the database.
type LedgerEventMessage struct {
	ID        int64     `json:"id"`
	Kind      core.Kind `json:"kind"`
	Deleted   bool      `json:"deleted,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEventMessage creates a change message for a ledger row.
func NewLedgerEventMessage(id int64, kind core.Kind, deleted bool) *LedgerEventMessage {
	return &LedgerEventMessage{
		ID:        id,
		Kind:      kind,
		Deleted:   deleted,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON creates a message from JSON bytes
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
