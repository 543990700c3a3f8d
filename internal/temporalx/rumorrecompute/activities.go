package rumorrecompute

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/veritas-backend/internal/observability"
	"github.com/yungbote/veritas-backend/internal/platform/logger"
	"github.com/yungbote/veritas-backend/internal/realtime/bus"
	"github.com/yungbote/veritas-backend/internal/trust/scoring"
)

type Activities struct {
	Log     *logger.Logger
	Proofs  scoring.ProofEngine
	Rumors  scoring.RumorEngine
	Notify  *bus.Notifier
	Metrics *observability.Metrics
}

func (a *Activities) logger() *logger.Logger {
	if a.Log == nil {
		return logger.Nop()
	}
	return a.Log
}

func (a *Activities) RecomputeProof(ctx context.Context, proofID uuid.UUID) (out ProofOutcome, err error) {
	start := time.Now()
	defer func() { a.Metrics.ObserveActivity(ActivityRecomputeProof, activityStatus(err), time.Since(start)) }()
	if a.Proofs == nil {
		return out, fmt.Errorf("rumorrecompute: proof engine not configured")
	}

	res, err := a.Proofs.RecomputeProof(ctx, proofID)
	if err != nil {
		a.logger().Warn("Proof recompute activity failed", "proof_id", proofID, "error", err)
		return out, err
	}
	if res.Updated {
		pid := proofID
		a.Notify.Notify(ctx, bus.Event{Type: bus.EventProofScored, RumorID: res.RumorID, ProofID: &pid, TrustScore: res.TrustScore})
	}
	return ProofOutcome{ProofID: proofID, Updated: res.Updated, TrustScore: res.TrustScore, IsMature: res.IsMature}, nil
}

func (a *Activities) RecomputeRumor(ctx context.Context, rumorID uuid.UUID) (out RumorOutcome, err error) {
	start := time.Now()
	defer func() { a.Metrics.ObserveActivity(ActivityRecomputeRumor, activityStatus(err), time.Since(start)) }()
	if a.Rumors == nil {
		return out, fmt.Errorf("rumorrecompute: rumor engine not configured")
	}

	res, err := a.Rumors.RecomputeRumor(ctx, rumorID)
	if err != nil {
		a.logger().Warn("Rumor recompute activity failed", "rumor_id", rumorID, "error", err)
		return out, err
	}
	if res.Updated {
		a.Notify.Notify(ctx, bus.Event{
			Type:           bus.EventRumorScored,
			RumorID:        rumorID,
			TrustScore:     res.Scores.TrustScore,
			Classification: string(res.Scores.Classification),
		})
	}
	return RumorOutcome{
		RumorID:        rumorID,
		Updated:        res.Updated,
		Frozen:         res.Frozen,
		TrustScore:     res.Scores.TrustScore,
		Classification: string(res.Scores.Classification),
	}, nil
}

func activityStatus(err error) string {
	if err != nil {
		return "failed"
	}
	return "succeeded"
}
