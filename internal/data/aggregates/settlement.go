package aggregates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/veritas-backend/internal/data/repos"
	domainagg "github.com/yungbote/veritas-backend/internal/domain/aggregates"
	"github.com/yungbote/veritas-backend/internal/domain/rumor"
	"github.com/yungbote/veritas-backend/internal/platform/dbctx"
	"github.com/yungbote/veritas-backend/internal/trust"
)

type SettlementAggregateDeps struct {
	Base BaseDeps

	Rumors repos.RumorRepo
	Votes  repos.VoteRepo
	Ledger *ReputationLedger
	Config trust.Config
}

type settlementAggregate struct {
	deps SettlementAggregateDeps
}

func NewSettlementAggregate(deps SettlementAggregateDeps) domainagg.SettlementAggregate {
	deps.Base = deps.Base.withDefaults()
	return &settlementAggregate{deps: deps}
}

func (a *settlementAggregate) Contract() domainagg.Contract {
	return domainagg.SettlementAggregateContract
}

func (a *settlementAggregate) Settle(ctx context.Context, in domainagg.SettleRumorInput) (domainagg.SettleRumorResult, error) {
	const op = "Trust.Settlement.Settle"
	out := domainagg.SettleRumorResult{RumorID: in.RumorID}
	if in.RumorID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing rumor_id", nil)
	}
	if a.deps.Rumors == nil || a.deps.Votes == nil || a.deps.Ledger == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "settlement aggregate repos not configured", nil)
	}
	settledAt := in.SettledAt.UTC()
	if settledAt.IsZero() {
		settledAt = time.Now().UTC()
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		// Reset so a retried body never reports deltas from a rolled-back attempt.
		out = domainagg.SettleRumorResult{RumorID: in.RumorID}

		r, err := a.deps.Rumors.LockByID(dbc, in.RumorID)
		if err != nil {
			return err
		}
		if r == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("rumor not found: %s", in.RumorID), rumor.ErrRumorNotFound)
		}
		out.TrustScore = r.TrustScore
		if r.IsFrozen {
			out.Outcome = rumor.OutcomeAlreadySettled
			return nil
		}

		outcome := a.deps.Config.Classify(r.TrustScore)
		ok, err := a.deps.Base.CASGuard.UpdateByFlag(dbc, "rumor", r.ID, "is_frozen", false, map[string]any{
			"is_frozen":  true,
			"frozen_at":  settledAt,
			"outcome":    outcome,
			"updated_at": settledAt,
		})
		if err != nil {
			return err
		}
		if !ok {
			// Another settlement won the guard between our read and the write.
			out.Outcome = rumor.OutcomeAlreadySettled
			return nil
		}
		out.Outcome = outcome
		out.SettledAt = settledAt

		votes, err := a.deps.Votes.ListByRumor(dbc, r.ID)
		if err != nil {
			return err
		}
		ballots := make([]trust.Ballot, 0, len(votes))
		for _, v := range votes {
			ballots = append(ballots, trust.Ballot{VoterID: v.VoterID, VoteType: v.VoteType})
		}

		for _, d := range a.deps.Config.PlanSettlement(outcome, ballots, r.AuthorID) {
			applied, err := a.deps.Ledger.ApplyDelta(dbc, LedgerEntry{
				UserID:    d.UserID,
				RumorID:   r.ID,
				EventType: d.EventType,
				Delta:     d.Amount,
				At:        settledAt,
			})
			if errors.Is(err, ErrLedgerUserMissing) {
				a.deps.Base.Log.Warn("Skipping settlement delta for missing user", "rumor_id", r.ID, "user_id", d.UserID, "event_type", d.EventType)
				continue
			}
			if err != nil {
				return err
			}
			out.Deltas = append(out.Deltas, applied)
		}
		out.EventsWritten = len(out.Deltas)
		return nil
	})
	return out, err
}
