package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Op names what changed in the record store.
type Op string

const (
	OpUpsert  Op = "upsert"
	OpDelete  Op = "delete"
	OpReplace Op = "replace"
)

// RecordSyncMessage tells the worker the store changed. It carries only the
// operation and the record id; the worker reads current state from the store.
type RecordSyncMessage struct {
	Op        Op        `json:"op"`
	ID        string    `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecordSyncMessage(op Op, id string) *RecordSyncMessage {
	return &RecordSyncMessage{
		Op:        op,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RecordSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordSyncMessageFromJSON decodes and validates a message.
func RecordSyncMessageFromJSON(data []byte) (*RecordSyncMessage, error) {
	var msg RecordSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Op {
	case OpUpsert, OpDelete, OpReplace:
	default:
		return nil, fmt.Errorf("unknown op %q", msg.Op)
	}
	return &msg, nil
}
