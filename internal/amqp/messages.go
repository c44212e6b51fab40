package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

var errEmptyID = errors.New("export message without payment id")

// PaymentExportMessage tells the worker a payment needs exporting to
// the ledger. It carries only the id; the worker fetches the current
// row from the database, so a stale message after an edit still
// exports the latest amounts.
type PaymentExportMessage struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewPaymentExportMessage creates a new export message for a payment id
func NewPaymentExportMessage(id string) *PaymentExportMessage {
	return &PaymentExportMessage{
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *PaymentExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PaymentExportMessageFromJSON creates a message from JSON bytes
func PaymentExportMessageFromJSON(data []byte) (*PaymentExportMessage, error) {
	var msg PaymentExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, errEmptyID
	}
	return &msg, nil
}
