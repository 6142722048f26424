package store

import (
	"context"
	"encoding/json"
)

// Kind distinguishes text records from image records.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Record is one accepted chat message. Records are immutable once appended.
type Record struct {
	ID            string          `json:"id"`
	Room          string          `json:"room"`
	Kind          Kind            `json:"kind"`
	Content       string          `json:"content"`
	ImageRef      string          `json:"imageRef,omitempty"`
	Sender        string          `json:"sender"`
	SenderProfile json.RawMessage `json:"senderProfile,omitempty"`
	Timestamp     string          `json:"timestamp"`
}

// Log is the durable side of the message store. Implementations only ever
// see appends in acceptance order, one at a time.
type Log interface {
	// Load returns every persisted record in append order.
	// A missing store is created empty.
	Load(ctx context.Context) ([]Record, error)

	// Append durably persists one record after all previously appended ones.
	Append(ctx context.Context, rec Record) error

	// Close releases the underlying file or database.
	Close() error
}
