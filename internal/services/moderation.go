package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/veritas-backend/internal/data/aggregates"
	"github.com/yungbote/veritas-backend/internal/data/repos"
	types "github.com/yungbote/veritas-backend/internal/domain"
	"github.com/yungbote/veritas-backend/internal/platform/dbctx"
	"github.com/yungbote/veritas-backend/internal/platform/logger"
	"github.com/yungbote/veritas-backend/internal/trust/recompute"
)

// ModerationService soft-deletes content. Settled rumors are history and
// cannot be moderated; everything else is rescored after removal.
type ModerationService interface {
	RemoveRumor(ctx context.Context, rumorID uuid.UUID) error
	RemoveVote(ctx context.Context, rumorID, voterID uuid.UUID) error
	RemoveProof(ctx context.Context, proofID uuid.UUID) error
	RemoveProofVote(ctx context.Context, proofID, voterID uuid.UUID) error
}

type moderationService struct {
	log        *logger.Logger
	runner     aggregates.TxRunner
	rumors     repos.RumorRepo
	votes      repos.VoteRepo
	proofs     repos.ProofRepo
	proofVotes repos.ProofVoteRepo
	dispatcher RecomputeDispatcher
}

func NewModerationService(db *gorm.DB, baseLog *logger.Logger, set repos.Set, dispatcher RecomputeDispatcher) ModerationService {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &moderationService{
		log:        baseLog.With("service", "ModerationService"),
		runner:     aggregates.NewGormTxRunner(db),
		rumors:     set.Rumors,
		votes:      set.Votes,
		proofs:     set.Proofs,
		proofVotes: set.ProofVotes,
		dispatcher: dispatcher,
	}
}

func (s *moderationService) lockOpenRumor(dbc dbctx.Context, rumorID uuid.UUID) error {
	r, err := s.rumors.LockByID(dbc, rumorID)
	if err != nil {
		return err
	}
	if r == nil {
		return ErrRumorNotFound
	}
	if r.IsFrozen {
		return ErrFrozen
	}
	return nil
}

func (s *moderationService) proof(dbc dbctx.Context, proofID uuid.UUID) (*types.Proof, error) {
	p, err := s.proofs.GetByID(dbc, proofID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProofNotFound
	}
	return p, nil
}

func (s *moderationService) RemoveRumor(ctx context.Context, rumorID uuid.UUID) error {
	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		if err := s.lockOpenRumor(dbc, rumorID); err != nil {
			return err
		}
		return s.rumors.SoftDelete(dbc, rumorID)
	})
	if err != nil {
		return fmt.Errorf("remove rumor: %w", err)
	}
	s.log.Info("Rumor removed", "rumor_id", rumorID)
	return nil
}

func (s *moderationService) RemoveVote(ctx context.Context, rumorID, voterID uuid.UUID) error {
	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		if err := s.lockOpenRumor(dbc, rumorID); err != nil {
			return err
		}
		v, err := s.votes.GetByRumorAndVoter(dbc, rumorID, voterID)
		if err != nil {
			return err
		}
		if v == nil || v.DeletedAt.Valid {
			return ErrVoteNotFound
		}
		return s.votes.SoftDelete(dbc, v.ID)
	})
	if err != nil {
		return fmt.Errorf("remove vote: %w", err)
	}
	s.log.Info("Vote removed", "rumor_id", rumorID, "voter_id", voterID)
	s.dispatch(ctx, recompute.Trigger{RumorID: rumorID, Reason: recompute.ReasonModeration})
	return nil
}

func (s *moderationService) RemoveProof(ctx context.Context, proofID uuid.UUID) error {
	var rumorID uuid.UUID
	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		p, err := s.proof(dbc, proofID)
		if err != nil {
			return err
		}
		rumorID = p.RumorID
		if err := s.lockOpenRumor(dbc, p.RumorID); err != nil {
			return err
		}
		return s.proofs.SoftDelete(dbc, proofID)
	})
	if err != nil {
		return fmt.Errorf("remove proof: %w", err)
	}
	s.log.Info("Proof removed", "rumor_id", rumorID, "proof_id", proofID)
	s.dispatch(ctx, recompute.Trigger{RumorID: rumorID, Reason: recompute.ReasonModeration})
	return nil
}

func (s *moderationService) RemoveProofVote(ctx context.Context, proofID, voterID uuid.UUID) error {
	var rumorID uuid.UUID
	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		p, err := s.proof(dbc, proofID)
		if err != nil {
			return err
		}
		rumorID = p.RumorID
		if err := s.lockOpenRumor(dbc, p.RumorID); err != nil {
			return err
		}
		pv, err := s.proofVotes.GetByProofAndVoter(dbc, proofID, voterID)
		if err != nil {
			return err
		}
		if pv == nil || pv.DeletedAt.Valid {
			return ErrVoteNotFound
		}
		return s.proofVotes.SoftDelete(dbc, pv.ID)
	})
	if err != nil {
		return fmt.Errorf("remove proof vote: %w", err)
	}
	s.log.Info("Proof vote removed", "proof_id", proofID, "voter_id", voterID)
	pid := proofID
	s.dispatch(ctx, recompute.Trigger{RumorID: rumorID, ProofID: &pid, Reason: recompute.ReasonModeration})
	return nil
}

func (s *moderationService) dispatch(ctx context.Context, t recompute.Trigger) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Dispatch(ctx, t); err != nil {
		s.log.Warn("Recompute after removal failed", "rumor_id", t.RumorID, "reason", t.Reason, "error", err)
	}
}
