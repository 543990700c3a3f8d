package recompute

import (
	"context"

	"github.com/google/uuid"
)

type Reason string

const (
	ReasonVoteCast       Reason = "vote_cast"
	ReasonProofVoteCast  Reason = "proof_vote_cast"
	ReasonProofSubmitted Reason = "proof_submitted"
	ReasonBackfill       Reason = "backfill"
	ReasonManual         Reason = "manual"
	ReasonModeration     Reason = "moderation"
)

// Trigger asks for a rumor to be rescored. ProofID is set when a proof vote
// changed; that proof is rescored first.
type Trigger struct {
	RumorID uuid.UUID  `json:"rumor_id"`
	ProofID *uuid.UUID `json:"proof_id,omitempty"`
	Reason  Reason     `json:"reason"`
}

func (t Trigger) kind() string {
	if t.ProofID != nil {
		return "proof"
	}
	return "rumor"
}

// TaskDispatcher hands triggers to something that eventually calls
// Orchestrator.Trigger, possibly in another process.
type TaskDispatcher interface {
	Enqueue(ctx context.Context, t Trigger) error
}

type namedDispatcher interface {
	Name() string
}

func dispatcherName(d TaskDispatcher) string {
	if n, ok := d.(namedDispatcher); ok {
		return n.Name()
	}
	return "custom"
}
