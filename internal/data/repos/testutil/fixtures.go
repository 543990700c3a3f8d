package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	types "github.com/yungbote/veritas-backend/internal/domain"
	"github.com/yungbote/veritas-backend/internal/domain/rumor"
	"github.com/yungbote/veritas-backend/internal/trust"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, reputation string) *types.User {
	tb.Helper()
	id := uuid.New()
	u := &types.User{
		ID:         id,
		Username:   "user-" + id.String()[:8],
		Reputation: decimal.RequireFromString(reputation),
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedRumor creates an active rumor carrying the neutral scores a fresh submission gets.
func SeedRumor(tb testing.TB, ctx context.Context, tx *gorm.DB, authorID *uuid.UUID) *types.Rumor {
	tb.Helper()
	r := &types.Rumor{
		ID:            uuid.New(),
		AuthorID:      authorID,
		Content:       "the campus library closes at noon on friday",
		TrustScore:    trust.Composite(trust.Neutral(), trust.Neutral(), trust.Neutral()),
		VoteScore:     trust.Neutral(),
		ProofScore:    trust.Neutral(),
		MomentumScore: trust.Neutral(),
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed rumor: %v", err)
	}
	return r
}

// SetTrustScore forces a rumor's composite score, bypassing the engine.
func SetTrustScore(tb testing.TB, ctx context.Context, tx *gorm.DB, rumorID uuid.UUID, score string) {
	tb.Helper()
	if err := tx.WithContext(ctx).Model(&types.Rumor{}).
		Where("id = ?", rumorID).
		Update("trust_score", decimal.RequireFromString(score)).Error; err != nil {
		tb.Fatalf("set trust score: %v", err)
	}
}

// SeedVote records a vote with the weight snapshot derived from the voter's current reputation.
func SeedVote(tb testing.TB, ctx context.Context, tx *gorm.DB, rumorID uuid.UUID, voter *types.User, vt rumor.VoteType, castAt time.Time) *types.Vote {
	tb.Helper()
	value, err := vt.Value()
	if err != nil {
		tb.Fatalf("seed vote: %v", err)
	}
	v := &types.Vote{
		ID:                      uuid.New(),
		RumorID:                 rumorID,
		VoterID:                 voter.ID,
		VoteType:                vt,
		VoteValue:               value,
		WeightSnapshot:          trust.Weight(voter.Reputation),
		VoterReputationSnapshot: voter.Reputation,
		CastAt:                  castAt.UTC(),
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed vote: %v", err)
	}
	return v
}

func SeedProof(tb testing.TB, ctx context.Context, tx *gorm.DB, rumorID uuid.UUID, posterID *uuid.UUID) *types.Proof {
	tb.Helper()
	p := &types.Proof{
		ID:         uuid.New(),
		RumorID:    rumorID,
		PosterID:   posterID,
		ProofType:  rumor.ProofLink,
		FileURL:    "https://example.org/notice",
		TrustScore: decimal.Zero,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed proof: %v", err)
	}
	return p
}

// SeedMatureProof creates a proof already past the maturity threshold with the given score.
func SeedMatureProof(tb testing.TB, ctx context.Context, tx *gorm.DB, rumorID uuid.UUID, score string) *types.Proof {
	tb.Helper()
	p := SeedProof(tb, ctx, tx, rumorID, nil)
	if err := tx.WithContext(ctx).Model(&types.Proof{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"trust_score": decimal.RequireFromString(score),
			"vote_count":  10,
			"is_mature":   true,
		}).Error; err != nil {
		tb.Fatalf("seed mature proof: %v", err)
	}
	return p
}

func SeedProofVote(tb testing.TB, ctx context.Context, tx *gorm.DB, proofID uuid.UUID, voter *types.User, vt rumor.ProofVoteType) *types.ProofVote {
	tb.Helper()
	value, err := vt.Value()
	if err != nil {
		tb.Fatalf("seed proof vote: %v", err)
	}
	v := &types.ProofVote{
		ID:                      uuid.New(),
		ProofID:                 proofID,
		VoterID:                 voter.ID,
		VoteType:                vt,
		VoteValue:               value,
		WeightSnapshot:          trust.Weight(voter.Reputation),
		VoterReputationSnapshot: voter.Reputation,
		CastAt:                  time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed proof vote: %v", err)
	}
	return v
}

// Freeze marks a rumor settled without going through settlement.
func Freeze(tb testing.TB, ctx context.Context, tx *gorm.DB, rumorID uuid.UUID) {
	tb.Helper()
	if err := tx.WithContext(ctx).Model(&types.Rumor{}).Where("id = ?", rumorID).Update("is_frozen", true).Error; err != nil {
		tb.Fatalf("freeze rumor: %v", err)
	}
}
