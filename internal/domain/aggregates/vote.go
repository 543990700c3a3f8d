package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/veritas-backend/internal/domain/rumor"
)

var VoteAggregateContract = Contract{
	Name:             "Trust.VoteAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes: "Owns the frozen-rumor guard, weight snapshotting and the bounded revision " +
		"counter for rumor and proof votes.",
}

// VoteAggregate owns vote writes.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodePreconditionFailed (rumor frozen, revision limit),
// CodeConflict, CodeRetryable, CodeInternal.
type VoteAggregate interface {
	Aggregate

	// CastVote creates or revises the voter's single vote on a rumor.
	CastVote(ctx context.Context, in CastVoteInput) (CastVoteResult, error)

	// CastProofVote creates or revises the voter's single vote on a proof.
	CastProofVote(ctx context.Context, in CastProofVoteInput) (CastProofVoteResult, error)
}

type CastVoteInput struct {
	RumorID  uuid.UUID
	VoterID  uuid.UUID
	VoteType rumor.VoteType
	CastAt   time.Time
}

type CastVoteResult struct {
	VoteID      uuid.UUID
	Weight      decimal.Decimal
	Reputation  decimal.Decimal
	ChangeCount int
	Revised     bool
}

type CastProofVoteInput struct {
	ProofID  uuid.UUID
	VoterID  uuid.UUID
	VoteType rumor.ProofVoteType
	CastAt   time.Time
}

type CastProofVoteResult struct {
	ProofVoteID uuid.UUID
	RumorID     uuid.UUID
	Weight      decimal.Decimal
	Revised     bool
}
