package amqp

import (
	"encoding/json"
	"time"
)

// StateChangedMessage announces that a piece of quote state was persisted.
// It carries a summary only; consumers that need the data read the store.
type StateChangedMessage struct {
	Key       string    `json:"key"`
	Count     int       `json:"count"`
	Total     float64   `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}

// NewStateChangedMessage creates a message stamped with the current time.
func NewStateChangedMessage(key string, count int, total float64) *StateChangedMessage {
	return &StateChangedMessage{
		Key:       key,
		Count:     count,
		Total:     total,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *StateChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// StateChangedMessageFromJSON decodes a message body.
func StateChangedMessageFromJSON(data []byte) (*StateChangedMessage, error) {
	var msg StateChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
