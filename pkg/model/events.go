package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Envelope is the canonical event envelope published to NATS.
type Envelope struct {
	ID            uuid.UUID       `json:"id"`
	CorrelationID uuid.UUID       `json:"correlation_id"`
	Topic         string          `json:"topic"`
	EventType     string          `json:"event_type"`
	Version       string          `json:"version"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	Payload       json.RawMessage `json:"payload"`
}

// Product change operations, also used as event type suffixes.
const (
	ProductAdded   = "added"
	ProductChanged = "changed"
	ProductRemoved = "removed"
)

// ProductChange describes a successful catalog mutation.
// Seq increases by one per mutation of a catalog. Name is empty for removals.
type ProductChange struct {
	Seq         uint64    `json:"seq"`
	Op          string    `json:"op"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// EventType returns the envelope event type for the change, e.g. "product.added".
func (c ProductChange) EventType() string {
	return "product." + c.Op
}
