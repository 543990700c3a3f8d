package aggregates

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/veritas-backend/internal/data/repos"
	types "github.com/yungbote/veritas-backend/internal/domain"
	domainagg "github.com/yungbote/veritas-backend/internal/domain/aggregates"
	"github.com/yungbote/veritas-backend/internal/domain/rumor"
	"github.com/yungbote/veritas-backend/internal/platform/dbctx"
	"github.com/yungbote/veritas-backend/internal/trust"
)

type VoteAggregateDeps struct {
	Base BaseDeps

	Users      repos.UserRepo
	Rumors     repos.RumorRepo
	Votes      repos.VoteRepo
	Proofs     repos.ProofRepo
	ProofVotes repos.ProofVoteRepo
	Config     trust.Config
}

type voteAggregate struct {
	deps VoteAggregateDeps
}

func NewVoteAggregate(deps VoteAggregateDeps) domainagg.VoteAggregate {
	deps.Base = deps.Base.withDefaults()
	return &voteAggregate{deps: deps}
}

func (a *voteAggregate) Contract() domainagg.Contract {
	return domainagg.VoteAggregateContract
}

// lockActiveRumor takes the same row lock settlement takes, so a vote can never
// land on a rumor after it froze.
func (a *voteAggregate) lockActiveRumor(dbc dbctx.Context, op string, rumorID uuid.UUID) (*types.Rumor, error) {
	r, err := a.deps.Rumors.LockByID(dbc, rumorID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("rumor not found: %s", rumorID), rumor.ErrRumorNotFound)
	}
	if r.IsFrozen {
		return nil, PreconditionError(rumor.ErrFrozen)
	}
	return r, nil
}

func (a *voteAggregate) voter(dbc dbctx.Context, op string, voterID uuid.UUID) (*types.User, error) {
	u, err := a.deps.Users.GetByID(dbc, voterID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("voter not found: %s", voterID), rumor.ErrVoterNotFound)
	}
	return u, nil
}

func (a *voteAggregate) CastVote(ctx context.Context, in domainagg.CastVoteInput) (domainagg.CastVoteResult, error) {
	const op = "Trust.Vote.CastVote"
	var out domainagg.CastVoteResult
	if in.RumorID == uuid.Nil || in.VoterID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing rumor_id or voter_id", nil)
	}
	value, err := in.VoteType.Value()
	if err != nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, err.Error(), err)
	}
	castAt := in.CastAt.UTC()
	if castAt.IsZero() {
		castAt = time.Now().UTC()
	}

	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if _, err := a.lockActiveRumor(dbc, op, in.RumorID); err != nil {
			return err
		}
		u, err := a.voter(dbc, op, in.VoterID)
		if err != nil {
			return err
		}
		weight := trust.Weight(u.Reputation)

		existing, err := a.deps.Votes.GetByRumorAndVoter(dbc, in.RumorID, in.VoterID)
		if err != nil {
			return err
		}
		if existing == nil {
			v := &types.Vote{
				ID:                      uuid.New(),
				RumorID:                 in.RumorID,
				VoterID:                 in.VoterID,
				VoteType:                in.VoteType,
				VoteValue:               value,
				WeightSnapshot:          weight,
				VoterReputationSnapshot: u.Reputation,
				CastAt:                  castAt,
			}
			if _, err := a.deps.Votes.Create(dbc, []*types.Vote{v}); err != nil {
				return err
			}
			out = domainagg.CastVoteResult{VoteID: v.ID, Weight: weight, Reputation: u.Reputation}
			return nil
		}
		if existing.DeletedAt.Valid {
			return PreconditionError(rumor.ErrVoteRemoved)
		}

		ok, err := a.deps.Votes.ReviseWithinLimit(dbc, existing.ID, a.deps.Config.MaxVoteChanges, repos.VoteRevision{
			VoteType:                in.VoteType,
			VoteValue:               value,
			WeightSnapshot:          weight,
			VoterReputationSnapshot: u.Reputation,
		})
		if err != nil {
			return err
		}
		if !ok {
			return PreconditionError(rumor.ErrVoteChangeLimit)
		}
		out = domainagg.CastVoteResult{
			VoteID:      existing.ID,
			Weight:      weight,
			Reputation:  u.Reputation,
			ChangeCount: existing.ChangeCount + 1,
			Revised:     true,
		}
		return nil
	})
	return out, err
}

func (a *voteAggregate) CastProofVote(ctx context.Context, in domainagg.CastProofVoteInput) (domainagg.CastProofVoteResult, error) {
	const op = "Trust.Vote.CastProofVote"
	var out domainagg.CastProofVoteResult
	if in.ProofID == uuid.Nil || in.VoterID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing proof_id or voter_id", nil)
	}
	value, err := in.VoteType.Value()
	if err != nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, err.Error(), err)
	}
	castAt := in.CastAt.UTC()
	if castAt.IsZero() {
		castAt = time.Now().UTC()
	}

	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		p, err := a.deps.Proofs.GetByID(dbc, in.ProofID)
		if err != nil {
			return err
		}
		if p == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("proof not found: %s", in.ProofID), rumor.ErrProofNotFound)
		}
		if _, err := a.lockActiveRumor(dbc, op, p.RumorID); err != nil {
			return err
		}
		u, err := a.voter(dbc, op, in.VoterID)
		if err != nil {
			return err
		}
		weight := trust.Weight(u.Reputation)

		existing, err := a.deps.ProofVotes.GetByProofAndVoter(dbc, in.ProofID, in.VoterID)
		if err != nil {
			return err
		}
		pv := &types.ProofVote{
			ProofID:                 in.ProofID,
			VoterID:                 in.VoterID,
			VoteType:                in.VoteType,
			VoteValue:               value,
			WeightSnapshot:          weight,
			VoterReputationSnapshot: u.Reputation,
			CastAt:                  castAt,
		}
		switch {
		case existing == nil:
			pv.ID = uuid.New()
			if _, err := a.deps.ProofVotes.Create(dbc, []*types.ProofVote{pv}); err != nil {
				return err
			}
		case existing.DeletedAt.Valid:
			return PreconditionError(rumor.ErrVoteRemoved)
		default:
			pv.ID = existing.ID
			if err := a.deps.ProofVotes.Revise(dbc, existing.ID, pv); err != nil {
				return err
			}
		}
		out = domainagg.CastProofVoteResult{
			ProofVoteID: pv.ID,
			RumorID:     p.RumorID,
			Weight:      weight,
			Revised:     existing != nil,
		}
		return nil
	})
	return out, err
}
