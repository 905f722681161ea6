package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	OpUpsert = "upsert"
	OpDelete = "delete"
)

// LedgerEvent signals that a master transaction changed. It carries only the
// operation and the id; the worker fetches the full record from the database.
type LedgerEvent struct {
	Op        string    `json:"op"`
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(op, id string) *LedgerEvent {
	return &LedgerEvent{
		Op:        op,
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (e *LedgerEvent) Validate() error {
	if e.Op != OpUpsert && e.Op != OpDelete {
		return fmt.Errorf("unknown ledger event op: %q", e.Op)
	}
	if e.ID == "" {
		return fmt.Errorf("ledger event missing id")
	}
	return nil
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON creates an event from JSON bytes
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var event LedgerEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return &event, nil
}
