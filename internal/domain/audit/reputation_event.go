package audit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReputationEventType string

const (
	ReputationCorrectVote     ReputationEventType = "CORRECT_VOTE"
	ReputationIncorrectVote   ReputationEventType = "INCORRECT_VOTE"
	ReputationHelpfulProof    ReputationEventType = "HELPFUL_PROOF"
	ReputationMisleadingProof ReputationEventType = "MISLEADING_PROOF"
	ReputationAuthorBonus     ReputationEventType = "AUTHOR_BONUS"
	ReputationAuthorPenalty   ReputationEventType = "AUTHOR_PENALTY"
)

func ParseReputationEventType(raw string) (ReputationEventType, error) {
	switch t := ReputationEventType(raw); t {
	case ReputationCorrectVote, ReputationIncorrectVote,
		ReputationHelpfulProof, ReputationMisleadingProof,
		ReputationAuthorBonus, ReputationAuthorPenalty:
		return t, nil
	default:
		return "", fmt.Errorf("unknown reputation event type %q", raw)
	}
}

// ReputationEvent is an immutable ledger entry. Delta is the nominal amount the
// settlement rule asked for; AppliedDelta is what remained after clamping.
// One row exists per (rumor, user, event type).
type ReputationEvent struct {
	ID           uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID           `gorm:"type:uuid;not null;index;uniqueIndex:idx_reputation_event_settlement,priority:2;column:user_id" json:"user_id"`
	RumorID      uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_reputation_event_settlement,priority:1;column:rumor_id" json:"rumor_id"`
	ProofID      *uuid.UUID          `gorm:"type:uuid;column:proof_id" json:"proof_id,omitempty"`
	EventType    ReputationEventType `gorm:"not null;uniqueIndex:idx_reputation_event_settlement,priority:3;column:event_type" json:"event_type"`
	Delta        decimal.Decimal     `gorm:"type:numeric(5,2);not null;column:delta" json:"delta"`
	AppliedDelta decimal.Decimal     `gorm:"type:numeric(5,2);not null;column:applied_delta" json:"applied_delta"`
	BalanceAfter decimal.Decimal     `gorm:"type:numeric(5,2);not null;column:balance_after" json:"balance_after"`
	CreatedAt    time.Time           `gorm:"not null;index" json:"created_at"`
}

func (ReputationEvent) TableName() string { return "reputation_event" }
