package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"tutorbook/internal/core"
)

// MessageType routes a message to its handler.
type MessageType string

const (
	TypePaymentSync   MessageType = "payment.sync"
	TypePaymentDelete MessageType = "payment.delete"
	TypeReminderDue   MessageType = "reminder.due"
)

// Envelope is the wire format shared by every message.
type Envelope struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// PaymentSyncMessage asks the statement worker to write one payment. The
// worker reads the payment itself, so only its id travels. PreviousYear is
// set when an update moved the payment to another year's sheet.
type PaymentSyncMessage struct {
	PaymentID    string `json:"payment_id"`
	Version      uint64 `json:"version"`
	PreviousYear int    `json:"previous_year,omitempty"`
}

// PaymentDeleteMessage carries the statement row of a deleted payment, since
// the payment can no longer be read.
type PaymentDeleteMessage struct {
	PaymentID string            `json:"payment_id"`
	Row       core.StatementRow `json:"row"`
}

// ReminderDueMessage tells the notifier that a student's fee is due.
type ReminderDueMessage struct {
	StudentID   string      `json:"student_id"`
	StudentName string      `json:"student_name"`
	Phone       string      `json:"phone"`
	DueDate     core.Date   `json:"due_date"`
	Phase       string      `json:"phase"`
	DaysBefore  int         `json:"days_before"`
	DaysAfter   int         `json:"days_after"`
	Fee         core.Amount `json:"fee"`
}

// NewEnvelope wraps payload under the given type.
func NewEnvelope(t MessageType, payload any) (*Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return &Envelope{Type: t, Timestamp: time.Now().UTC(), Payload: raw}, nil
}

// ToJSON converts the message to JSON bytes
func (e *Envelope) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Decode unmarshals the payload into v.
func (e *Envelope) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// EnvelopeFromJSON parses a delivery body. Bodies without a type are
// rejected.
func EnvelopeFromJSON(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	if env.Type == "" {
		return nil, fmt.Errorf("message has no type")
	}
	return &env, nil
}
