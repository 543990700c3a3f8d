package scoring

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/veritas-backend/internal/data/aggregates"
	"github.com/yungbote/veritas-backend/internal/data/repos"
	domainaudit "github.com/yungbote/veritas-backend/internal/domain/audit"
	"github.com/yungbote/veritas-backend/internal/observability"
	"github.com/yungbote/veritas-backend/internal/platform/dbctx"
	"github.com/yungbote/veritas-backend/internal/platform/logger"
	"github.com/yungbote/veritas-backend/internal/trust"
	"github.com/yungbote/veritas-backend/internal/trust/audit"
)

const (
	statusSuccess = "success"
	statusSkipped = "skipped"
	statusError   = "error"
)

type ProofScoreResult struct {
	ProofID    uuid.UUID
	RumorID    uuid.UUID
	Updated    bool
	TrustScore decimal.Decimal
	VoteCount  int
	IsMature   bool
	// RumorRecomputeRequired asks the caller to rescore RumorID next.
	RumorRecomputeRequired bool
}

type RumorScoreResult struct {
	RumorID uuid.UUID
	Updated bool
	// Frozen is set when the rumor exists but is settled; it will never update again.
	Frozen bool
	Scores RumorScores
}

type ProofEngine interface {
	RecomputeProof(ctx context.Context, proofID uuid.UUID) (ProofScoreResult, error)
}

type RumorEngine interface {
	RecomputeRumor(ctx context.Context, rumorID uuid.UUID) (RumorScoreResult, error)
}

type Option func(*engine)

// WithClock overrides the clock used for the momentum window and audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *engine) {
		if now != nil {
			e.now = now
		}
	}
}

func WithTxRunner(r aggregates.TxRunner) Option {
	return func(e *engine) {
		if r != nil {
			e.runner = r
		}
	}
}

type engine struct {
	log        *logger.Logger
	cfg        trust.Config
	runner     aggregates.TxRunner
	rumors     repos.RumorRepo
	votes      repos.VoteRepo
	proofs     repos.ProofRepo
	proofVotes repos.ProofVoteRepo
	audit      audit.Sink
	metrics    *observability.Metrics
	now        func() time.Time
}

// Engine implements both ProofEngine and RumorEngine over one set of repos.
type Engine interface {
	ProofEngine
	RumorEngine
}

func NewEngine(
	db *gorm.DB,
	baseLog *logger.Logger,
	cfg trust.Config,
	set repos.Set,
	sink audit.Sink,
	metrics *observability.Metrics,
	opts ...Option,
) Engine {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	if sink == nil {
		sink = audit.Nop()
	}
	e := &engine{
		log:        baseLog.With("service", "ScoringEngine"),
		cfg:        cfg,
		runner:     aggregates.NewGormTxRunner(db),
		rumors:     set.Rumors,
		votes:      set.Votes,
		proofs:     set.Proofs,
		proofVotes: set.ProofVotes,
		audit:      sink,
		metrics:    metrics,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RecomputeProof rescores one proof. A missing proof, or a proof whose rumor
// is frozen, is a no-op.
func (e *engine) RecomputeProof(ctx context.Context, proofID uuid.UUID) (ProofScoreResult, error) {
	start := time.Now()
	out := ProofScoreResult{ProofID: proofID}
	ctx, span := observability.StartSpan(ctx, "scoring.RecomputeProof", attribute.String("proof_id", proofID.String()))

	err := e.runner.InTx(ctx, func(dbc dbctx.Context) error {
		p, err := e.proofs.GetByID(dbc, proofID)
		if err != nil || p == nil {
			return err
		}
		out.RumorID = p.RumorID
		// Same row lock settlement takes: a proof score never moves under a freeze.
		r, err := e.rumors.LockByID(dbc, p.RumorID)
		if err != nil || r == nil || r.IsFrozen {
			return err
		}
		votes, err := e.proofVotes.ListByProof(dbc, p.ID)
		if err != nil {
			return err
		}
		scores := ScoreProof(e.cfg, votes, p.IsMature)
		if err := e.proofs.UpdateScore(dbc, p.ID, scores.TrustScore, scores.VoteCount, scores.IsMature); err != nil {
			return err
		}
		out.Updated = true
		out.TrustScore = scores.TrustScore
		out.VoteCount = scores.VoteCount
		out.IsMature = scores.IsMature
		out.RumorRecomputeRequired = true
		return nil
	})
	observability.EndSpan(span, err)
	e.metrics.ObserveRecompute("proof", resultStatus(err, out.Updated), time.Since(start))
	if err != nil {
		e.log.Warn("Proof recompute failed", "proof_id", proofID, "error", err)
		return ProofScoreResult{ProofID: proofID}, err
	}
	if !out.Updated {
		e.log.Debug("Proof recompute skipped", "proof_id", proofID, "rumor_id", out.RumorID)
		return out, nil
	}

	rumorID := out.RumorID
	e.audit.Record(ctx, audit.Entry{
		EventType: domainaudit.EventProofScoreCalculated,
		RumorID:   &rumorID,
		ProofID:   &proofID,
		Data: map[string]any{
			"trust_score": out.TrustScore.StringFixed(trust.ScoreScale),
			"vote_count":  out.VoteCount,
			"is_mature":   out.IsMature,
		},
	})
	return out, nil
}

// RecomputeRumor rescores one rumor from its votes and mature proofs. A
// missing or frozen rumor is a no-op.
func (e *engine) RecomputeRumor(ctx context.Context, rumorID uuid.UUID) (RumorScoreResult, error) {
	start := time.Now()
	out := RumorScoreResult{RumorID: rumorID}
	ctx, span := observability.StartSpan(ctx, "scoring.RecomputeRumor", attribute.String("rumor_id", rumorID.String()))

	err := e.runner.InTx(ctx, func(dbc dbctx.Context) error {
		r, err := e.rumors.LockByID(dbc, rumorID)
		if err != nil || r == nil {
			return err
		}
		if r.IsFrozen {
			out.Frozen = true
			return nil
		}
		votes, err := e.votes.ListByRumor(dbc, rumorID)
		if err != nil {
			return err
		}
		mature, err := e.proofs.ListMatureScores(dbc, rumorID)
		if err != nil {
			return err
		}
		scores := ScoreRumor(e.cfg, votes, mature, e.now())
		ok, err := e.rumors.UpdateScoresUnlessFrozen(dbc, rumorID, repos.ScoreUpdate{
			VoteScore:      scores.VoteScore,
			ProofScore:     scores.ProofScore,
			MomentumScore:  scores.MomentumScore,
			TrustScore:     scores.TrustScore,
			Classification: scores.Classification,
		})
		if err != nil {
			return err
		}
		out.Updated = ok
		out.Frozen = !ok
		out.Scores = scores
		return nil
	})
	observability.EndSpan(span, err)
	e.metrics.ObserveRecompute("rumor", resultStatus(err, out.Updated), time.Since(start))
	if err != nil {
		e.log.Warn("Rumor recompute failed", "rumor_id", rumorID, "error", err)
		return RumorScoreResult{RumorID: rumorID}, err
	}
	if !out.Updated {
		e.log.Debug("Rumor recompute skipped", "rumor_id", rumorID)
		return out, nil
	}

	s := out.Scores
	e.audit.Record(ctx, audit.Entry{
		EventType: domainaudit.EventTrustScoreCalculated,
		RumorID:   &rumorID,
		Data: map[string]any{
			"vote_score":         s.VoteScore.StringFixed(trust.ScoreScale),
			"proof_score":        s.ProofScore.StringFixed(trust.ScoreScale),
			"momentum_score":     s.MomentumScore.StringFixed(trust.ScoreScale),
			"final_score":        s.TrustScore.StringFixed(trust.TrustScale),
			"classification":     string(s.Classification),
			"vote_count":         s.VoteCount,
			"recent_vote_count":  s.RecentVoteCount,
			"mature_proof_count": s.MatureProofCount,
			"calculated_at":      e.now().UTC().Format(time.RFC3339),
		},
	})
	return out, nil
}

func resultStatus(err error, updated bool) string {
	switch {
	case err != nil:
		return statusError
	case !updated:
		return statusSkipped
	default:
		return statusSuccess
	}
}
