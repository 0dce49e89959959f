package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// LedgerSavedMessage announces that a ledger key was rewritten in the primary
// store. It carries the key only; consumers read the value themselves.
type LedgerSavedMessage struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerSavedMessage(key string) *LedgerSavedMessage {
	now := time.Now().UTC()
	return &LedgerSavedMessage{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Key:       key,
		Timestamp: now,
	}
}

func (m *LedgerSavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerSavedMessageFromJSON(data []byte) (*LedgerSavedMessage, error) {
	var msg LedgerSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Key == "" {
		return nil, fmt.Errorf("ledger saved message %q: missing key", msg.ID)
	}
	return &msg, nil
}
