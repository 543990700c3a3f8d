package scoring

import (
	"time"

	"github.com/shopspring/decimal"

	types "github.com/yungbote/veritas-backend/internal/domain"
	"github.com/yungbote/veritas-backend/internal/trust"
)

// RumorScores is the full breakdown of one rumor recompute.
type RumorScores struct {
	VoteScore        decimal.Decimal
	ProofScore       decimal.Decimal
	MomentumScore    decimal.Decimal
	TrustScore       decimal.Decimal
	Classification   types.Classification
	VoteCount        int
	RecentVoteCount  int
	MatureProofCount int
}

// ScoreRumor derives V, P, M and the composite from stored votes and mature
// proof scores. Weights are the snapshots on the votes; reputation is never read.
func ScoreRumor(cfg trust.Config, votes []*types.Vote, matureProofScores []decimal.Decimal, now time.Time) RumorScores {
	out := RumorScores{
		VoteCount:        len(votes),
		MatureProofCount: len(matureProofScores),
	}

	obs := make([]trust.Weighted, 0, len(votes))
	since := now.Add(-cfg.MomentumWindow)
	for _, v := range votes {
		obs = append(obs, trust.Weighted{Value: v.VoteValue, Weight: v.WeightSnapshot})
		if !v.CastAt.Before(since) {
			out.RecentVoteCount++
		}
	}

	out.VoteScore = trust.Neutral()
	if avg, ok := trust.WeightedAverage(obs); ok {
		out.VoteScore = avg
	}

	out.ProofScore = trust.Neutral()
	if mean, ok := trust.Mean(matureProofScores); ok {
		out.ProofScore = mean
	}

	out.MomentumScore = Momentum(cfg, out.VoteScore, out.RecentVoteCount)
	out.TrustScore = trust.Composite(out.VoteScore, out.ProofScore, out.MomentumScore)
	out.Classification = cfg.Band(out.TrustScore)
	return out
}

// Momentum boosts a rumor that is both busy and lopsided. It never goes below neutral.
func Momentum(cfg trust.Config, voteScore decimal.Decimal, recentVotes int) decimal.Decimal {
	if recentVotes <= cfg.MomentumActivityThreshold {
		return trust.Neutral()
	}
	if voteScore.GreaterThan(cfg.MomentumHighConsensus) || voteScore.LessThan(cfg.MomentumLowConsensus) {
		return cfg.MomentumBoost
	}
	return trust.Neutral()
}

// ProofScores is the breakdown of one proof recompute.
type ProofScores struct {
	TrustScore decimal.Decimal
	VoteCount  int
	IsMature   bool
}

// ScoreProof averages proof votes by their weight snapshots. A proof with no
// votes, or only zero-weight votes, scores 0. wasMature keeps maturity sticky.
func ScoreProof(cfg trust.Config, votes []*types.ProofVote, wasMature bool) ProofScores {
	out := ProofScores{
		TrustScore: decimal.Zero,
		VoteCount:  len(votes),
	}
	out.IsMature = wasMature || out.VoteCount >= cfg.MaturityThreshold
	if out.VoteCount == 0 {
		return out
	}
	obs := make([]trust.Weighted, 0, len(votes))
	for _, v := range votes {
		obs = append(obs, trust.Weighted{Value: v.VoteValue, Weight: v.WeightSnapshot})
	}
	if avg, ok := trust.WeightedAverage(obs); ok {
		out.TrustScore = avg
	}
	return out
}
