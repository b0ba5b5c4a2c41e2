package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventKind names the ledger table an event refers to.
type EventKind string

const (
	EventTransaction     EventKind = "transaction"
	EventSavingsMovement EventKind = "savings_movement"
	EventDebtPayment     EventKind = "debt_payment"
)

// Action is what happened to the record.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// EventVersion is the current message schema version.
const EventVersion = 1

// LedgerEvent is a lightweight notification that a ledger record changed.
// It carries only identifiers; consumers fetch the record from the store.
// Year is the year of the record's date before the change, so consumers can
// locate data of records that no longer exist.
type LedgerEvent struct {
	Kind      EventKind `json:"kind"`
	Action    Action    `json:"action"`
	ID        int64     `json:"id"`
	Year      int       `json:"year,omitempty"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEvent creates an event stamped with the current time.
func NewLedgerEvent(kind EventKind, action Action, id int64, year int) *LedgerEvent {
	return &LedgerEvent{
		Kind:      kind,
		Action:    action,
		ID:        id,
		Year:      year,
		Version:   EventVersion,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes and sanity-checks an event.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Kind {
	case EventTransaction, EventSavingsMovement, EventDebtPayment:
	default:
		return nil, fmt.Errorf("unknown event kind %q", msg.Kind)
	}
	if msg.ID <= 0 {
		return nil, fmt.Errorf("invalid event id %d", msg.ID)
	}
	return &msg, nil
}
