package aggregates

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/veritas-backend/internal/data/repos"
	types "github.com/yungbote/veritas-backend/internal/domain"
	domainagg "github.com/yungbote/veritas-backend/internal/domain/aggregates"
	domainaudit "github.com/yungbote/veritas-backend/internal/domain/audit"
	"github.com/yungbote/veritas-backend/internal/platform/dbctx"
	"github.com/yungbote/veritas-backend/internal/trust"
)

// ErrLedgerUserMissing is returned when the recipient of a delta no longer exists.
var ErrLedgerUserMissing = errors.New("reputation ledger: user not found")

// LedgerEntry is one requested reputation change.
type LedgerEntry struct {
	UserID    uuid.UUID
	RumorID   uuid.UUID
	ProofID   *uuid.UUID
	EventType types.ReputationEventType
	Delta     decimal.Decimal
	At        time.Time
}

// ReputationLedger is the only writer of User.Reputation. Every call locks the
// user row, clamps the new balance into [Floor, Ceiling] and appends the
// matching ReputationEvent on the caller's transaction.
type ReputationLedger struct {
	Users   repos.UserRepo
	Events  repos.ReputationEventRepo
	Floor   decimal.Decimal
	Ceiling decimal.Decimal
}

func NewReputationLedger(users repos.UserRepo, events repos.ReputationEventRepo, cfg trust.Config) *ReputationLedger {
	return &ReputationLedger{
		Users:   users,
		Events:  events,
		Floor:   cfg.ReputationFloor,
		Ceiling: cfg.ReputationCeiling,
	}
}

func (l *ReputationLedger) Contract() domainagg.Contract {
	return domainagg.ReputationLedgerContract
}

// ApplyDelta applies e and returns the committed change. The nominal delta is
// kept on the event even when clamping reduces the applied amount to zero.
func (l *ReputationLedger) ApplyDelta(dbc dbctx.Context, e LedgerEntry) (domainagg.AppliedDelta, error) {
	var out domainagg.AppliedDelta
	if err := RequireTx(dbc, "reputation ledger"); err != nil {
		return out, err
	}
	if e.UserID == uuid.Nil || e.RumorID == uuid.Nil {
		return out, ValidationError("ledger entry requires user_id and rumor_id")
	}
	if _, err := domainaudit.ParseReputationEventType(string(e.EventType)); err != nil {
		return out, ValidationError(err.Error())
	}

	u, err := l.Users.LockByID(dbc, e.UserID)
	if err != nil {
		return out, err
	}
	if u == nil {
		return out, ErrLedgerUserMissing
	}

	current := u.Reputation
	next := trust.Clamp(current.Add(e.Delta), l.Floor, l.Ceiling).Round(trust.ReputationScale)
	applied := next.Sub(current)
	if !applied.IsZero() {
		if err := l.Users.SetReputation(dbc, u.ID, next); err != nil {
			return out, err
		}
	}

	at := e.At.UTC()
	if at.IsZero() {
		at = time.Now().UTC()
	}
	event := &types.ReputationEvent{
		ID:           uuid.New(),
		UserID:       u.ID,
		RumorID:      e.RumorID,
		ProofID:      e.ProofID,
		EventType:    e.EventType,
		Delta:        e.Delta,
		AppliedDelta: applied,
		BalanceAfter: next,
		CreatedAt:    at,
	}
	if _, err := l.Events.Create(dbc, []*types.ReputationEvent{event}); err != nil {
		return out, err
	}

	out = domainagg.AppliedDelta{
		UserID:       u.ID,
		EventType:    e.EventType,
		Delta:        e.Delta,
		AppliedDelta: applied,
		BalanceAfter: next,
	}
	return out, nil
}
