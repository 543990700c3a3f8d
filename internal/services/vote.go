package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yungbote/veritas-backend/internal/data/aggregates"
	"github.com/yungbote/veritas-backend/internal/data/repos"
	types "github.com/yungbote/veritas-backend/internal/domain"
	domainagg "github.com/yungbote/veritas-backend/internal/domain/aggregates"
	"github.com/yungbote/veritas-backend/internal/domain/rumor"
	"github.com/yungbote/veritas-backend/internal/observability"
	"github.com/yungbote/veritas-backend/internal/platform/dbctx"
	"github.com/yungbote/veritas-backend/internal/platform/logger"
	"github.com/yungbote/veritas-backend/internal/trust"
	"github.com/yungbote/veritas-backend/internal/trust/recompute"
)

// RecomputeDispatcher schedules a rescore after a committed write.
type RecomputeDispatcher interface {
	Dispatch(ctx context.Context, t recompute.Trigger) error
}

type Evidence struct {
	Type string
	URL  string
}

type VoteResult struct {
	VoteID      uuid.UUID
	RumorID     uuid.UUID
	Weight      decimal.Decimal
	ChangeCount int
	Revised     bool
}

type ProofVoteResult struct {
	ProofVoteID uuid.UUID
	ProofID     uuid.UUID
	RumorID     uuid.UUID
	Weight      decimal.Decimal
	Revised     bool
}

type VoteService interface {
	SubmitRumor(ctx context.Context, authorID uuid.UUID, content string, evidence *Evidence) (*types.Rumor, error)
	SubmitProof(ctx context.Context, posterID, rumorID uuid.UUID, proofType, content, fileURL string) (*types.Proof, error)
	CastVote(ctx context.Context, voterID, rumorID uuid.UUID, voteType string) (VoteResult, error)
	CastProofVote(ctx context.Context, voterID, proofID uuid.UUID, voteType string) (ProofVoteResult, error)
}

type voteService struct {
	log        *logger.Logger
	runner     aggregates.TxRunner
	rumors     repos.RumorRepo
	proofs     repos.ProofRepo
	votes      domainagg.VoteAggregate
	dispatcher RecomputeDispatcher
	now        func() time.Time
}

func NewVoteService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cfg trust.Config,
	set repos.Set,
	dispatcher RecomputeDispatcher,
	metrics *observability.Metrics,
) VoteService {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &voteService{
		log:    baseLog.With("service", "VoteService"),
		runner: aggregates.NewGormTxRunner(db),
		rumors: set.Rumors,
		proofs: set.Proofs,
		votes: aggregates.NewVoteAggregate(aggregates.VoteAggregateDeps{
			Base: aggregates.BaseDeps{
				DB:    db,
				Log:   baseLog,
				Hooks: aggregates.NewObservabilityHooks(metrics),
			},
			Users:      set.Users,
			Rumors:     set.Rumors,
			Votes:      set.Votes,
			Proofs:     set.Proofs,
			ProofVotes: set.ProofVotes,
			Config:     cfg,
		}),
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

func (s *voteService) SubmitRumor(ctx context.Context, authorID uuid.UUID, content string, evidence *Evidence) (*types.Rumor, error) {
	content = strings.TrimSpace(content)
	if n := utf8.RuneCountInString(content); n < rumor.ContentMinLength || n > rumor.ContentMaxLength {
		return nil, ErrInvalidContent
	}
	now := s.now().UTC()
	n := trust.Neutral()
	r := &types.Rumor{
		ID:            uuid.New(),
		Content:       content,
		TrustScore:    trust.Composite(n, n, n),
		VoteScore:     n,
		ProofScore:    n,
		MomentumScore: n,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if authorID != uuid.Nil {
		r.AuthorID = &authorID
	}
	if evidence != nil && strings.TrimSpace(evidence.Type) != "" {
		et, err := rumor.ParseEvidenceType(evidence.Type)
		if err != nil {
			return nil, fmt.Errorf("submit rumor: %w", err)
		}
		r.EvidenceType = &et
		r.EvidenceURL = strings.TrimSpace(evidence.URL)
	}
	if _, err := s.rumors.Create(dbctx.Context{Ctx: ctx}, []*types.Rumor{r}); err != nil {
		return nil, fmt.Errorf("submit rumor: %w", err)
	}
	s.log.Info("Rumor submitted", "rumor_id", r.ID, "author_id", authorID)
	return r, nil
}

func (s *voteService) SubmitProof(ctx context.Context, posterID, rumorID uuid.UUID, proofType, content, fileURL string) (*types.Proof, error) {
	pt, err := rumor.ParseProofType(proofType)
	if err != nil {
		return nil, fmt.Errorf("submit proof: %w: %v", ErrInvalidProof, err)
	}
	content = strings.TrimSpace(content)
	fileURL = strings.TrimSpace(fileURL)
	if content == "" && fileURL == "" {
		return nil, fmt.Errorf("submit proof: %w: content or file_url required", ErrInvalidProof)
	}

	now := s.now().UTC()
	p := &types.Proof{
		ID:         uuid.New(),
		RumorID:    rumorID,
		ProofType:  pt,
		Content:    content,
		FileURL:    fileURL,
		TrustScore: decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if posterID != uuid.Nil {
		p.PosterID = &posterID
	}

	err = s.runner.InTx(ctx, func(dbc dbctx.Context) error {
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
		_, err = s.proofs.Create(dbc, []*types.Proof{p})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("submit proof: %w", err)
	}
	s.dispatch(ctx, recompute.Trigger{RumorID: rumorID, Reason: recompute.ReasonProofSubmitted})
	return p, nil
}

func (s *voteService) CastVote(ctx context.Context, voterID, rumorID uuid.UUID, voteType string) (VoteResult, error) {
	vt, err := rumor.ParseVoteType(voteType)
	if err != nil {
		return VoteResult{}, fmt.Errorf("cast vote: %w: %v", ErrInvalidVoteType, err)
	}
	in := domainagg.CastVoteInput{RumorID: rumorID, VoterID: voterID, VoteType: vt, CastAt: s.now()}

	res, err := s.votes.CastVote(ctx, in)
	if retryable(err) {
		// Two first votes by the same voter raced on the unique index; the
		// retry sees the winner's row and takes the revision path.
		s.log.Debug("Retrying vote after conflict", "rumor_id", rumorID, "voter_id", voterID, "error", err)
		res, err = s.votes.CastVote(ctx, in)
	}
	if err != nil {
		return VoteResult{}, fmt.Errorf("cast vote: %w", err)
	}

	s.dispatch(ctx, recompute.Trigger{RumorID: rumorID, Reason: recompute.ReasonVoteCast})
	return VoteResult{
		VoteID:      res.VoteID,
		RumorID:     rumorID,
		Weight:      res.Weight,
		ChangeCount: res.ChangeCount,
		Revised:     res.Revised,
	}, nil
}

func (s *voteService) CastProofVote(ctx context.Context, voterID, proofID uuid.UUID, voteType string) (ProofVoteResult, error) {
	vt, err := rumor.ParseProofVoteType(voteType)
	if err != nil {
		return ProofVoteResult{}, fmt.Errorf("cast proof vote: %w: %v", ErrInvalidVoteType, err)
	}
	in := domainagg.CastProofVoteInput{ProofID: proofID, VoterID: voterID, VoteType: vt, CastAt: s.now()}

	res, err := s.votes.CastProofVote(ctx, in)
	if retryable(err) {
		res, err = s.votes.CastProofVote(ctx, in)
	}
	if err != nil {
		return ProofVoteResult{}, fmt.Errorf("cast proof vote: %w", err)
	}

	pid := proofID
	s.dispatch(ctx, recompute.Trigger{RumorID: res.RumorID, ProofID: &pid, Reason: recompute.ReasonProofVoteCast})
	return ProofVoteResult{
		ProofVoteID: res.ProofVoteID,
		ProofID:     proofID,
		RumorID:     res.RumorID,
		Weight:      res.Weight,
		Revised:     res.Revised,
	}, nil
}

// dispatch never fails the caller: the write is already committed and a later
// trigger or backfill will converge the scores.
func (s *voteService) dispatch(ctx context.Context, t recompute.Trigger) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Dispatch(ctx, t); err != nil {
		s.log.Warn("Recompute after write failed", "rumor_id", t.RumorID, "reason", t.Reason, "error", err)
	}
}

func retryable(err error) bool {
	return domainagg.IsCode(err, domainagg.CodeConflict) || domainagg.IsCode(err, domainagg.CodeRetryable)
}
