package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/veritas-backend/internal/domain/audit"
	"github.com/yungbote/veritas-backend/internal/domain/rumor"
)

var SettlementAggregateContract = Contract{
	Name:             "Trust.SettlementAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes: "Owns the freeze guard, the freeze write and every participant's reputation " +
		"delta plus ledger event in one transaction.",
}

// SettlementAggregate owns rumor settlement writes.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodeRetryable, CodeInternal.
type SettlementAggregate interface {
	Aggregate

	// Settle freezes the rumor and redistributes reputation, or reports ALREADY_SETTLED.
	Settle(ctx context.Context, in SettleRumorInput) (SettleRumorResult, error)
}

type SettleRumorInput struct {
	RumorID   uuid.UUID
	SettledAt time.Time
}

// AppliedDelta is one reputation change that was committed.
type AppliedDelta struct {
	UserID       uuid.UUID
	EventType    audit.ReputationEventType
	Delta        decimal.Decimal
	AppliedDelta decimal.Decimal
	BalanceAfter decimal.Decimal
}

type SettleRumorResult struct {
	RumorID       uuid.UUID
	Outcome       rumor.Outcome
	TrustScore    decimal.Decimal
	EventsWritten int
	Deltas        []AppliedDelta
	SettledAt     time.Time
}

var ReputationLedgerContract = Contract{
	Name:             "Trust.ReputationLedger",
	WriteTxOwnership: WriteTxOwnedByCaller,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes: "Sole writer of user reputation. Runs inside the caller's transaction so " +
		"balance changes and ledger events commit or roll back together.",
}
