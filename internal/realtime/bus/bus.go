package bus

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventRumorScored  EventType = "rumor.scored"
	EventProofScored  EventType = "proof.scored"
	EventRumorSettled EventType = "rumor.settled"
)

// Event announces a committed change. Consumers must treat delivery as best-effort.
type Event struct {
	Type           EventType       `json:"type"`
	RumorID        uuid.UUID       `json:"rumor_id"`
	ProofID        *uuid.UUID      `json:"proof_id,omitempty"`
	TrustScore     decimal.Decimal `json:"trust_score"`
	Classification string          `json:"classification,omitempty"`
	Outcome        string          `json:"outcome,omitempty"`
	EventsWritten  int             `json:"events_written,omitempty"`
	At             time.Time       `json:"at"`
}

type Bus interface {
	Publish(ctx context.Context, ev Event) error
	StartForwarder(ctx context.Context, onEvent func(ev Event)) error
	Close() error
}
