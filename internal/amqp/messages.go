package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wisetogether/internal/core"
)

type EventType string

const (
	EventCreated EventType = "transaction.created"
	EventUpdated EventType = "transaction.updated"
	EventDeleted EventType = "transaction.deleted"
)

var ErrInvalidEvent = errors.New("invalid transaction event")

// TransactionEvent announces a change to a transaction. It carries
// identifiers only; consumers load the current state from the store.
type TransactionEvent struct {
	Type            EventType `json:"type"`
	TransactionID   string    `json:"transaction_id"`
	OwnerID         string    `json:"owner_id"`
	SharedAccountID string    `json:"shared_account_id,omitempty"`
	Version         int64     `json:"version"`
	Timestamp       time.Time `json:"timestamp"`
}

func NewTransactionEvent(t EventType, tx core.Transaction) *TransactionEvent {
	return &TransactionEvent{
		Type:            t,
		TransactionID:   tx.ID,
		OwnerID:         tx.OwnerID,
		SharedAccountID: tx.SharedAccountID,
		Version:         tx.Version,
		Timestamp:       time.Now().UTC(),
	}
}

func (e *TransactionEvent) Validate() error {
	switch e.Type {
	case EventCreated, EventUpdated, EventDeleted:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	}
	if e.TransactionID == "" {
		return fmt.Errorf("%w: missing transaction id", ErrInvalidEvent)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and validates an event.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var evt TransactionEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, err
	}
	if err := evt.Validate(); err != nil {
		return nil, err
	}
	return &evt, nil
}
