package scoring_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yungbote/veritas-backend/internal/data/repos"
	"github.com/yungbote/veritas-backend/internal/data/repos/testutil"
	types "github.com/yungbote/veritas-backend/internal/domain"
	domainaudit "github.com/yungbote/veritas-backend/internal/domain/audit"
	"github.com/yungbote/veritas-backend/internal/domain/rumor"
	"github.com/yungbote/veritas-backend/internal/trust"
	"github.com/yungbote/veritas-backend/internal/trust/audit"
	"github.com/yungbote/veritas-backend/internal/trust/scoring"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newEngine(t *testing.T) (*gorm.DB, scoring.Engine, *audit.Recorder) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	rec := &audit.Recorder{}
	return db, scoring.NewEngine(db, log, trust.DefaultConfig(), repos.NewSet(db, log), rec, nil), rec
}

func reload(t *testing.T, db *gorm.DB, id uuid.UUID) types.Rumor {
	t.Helper()
	var r types.Rumor
	if err := db.Where("id = ?", id).First(&r).Error; err != nil {
		t.Fatalf("reload rumor: %v", err)
	}
	return r
}

func TestRecomputeRumor_Empty(t *testing.T) {
	db, eng, rec := newEngine(t)
	ctx := context.Background()
	r := testutil.SeedRumor(t, ctx, db, nil)

	res, err := eng.RecomputeRumor(ctx, r.ID)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if !res.Updated || !res.Scores.TrustScore.Equal(dec("0.5")) {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := reload(t, db, r.ID); !got.TrustScore.Equal(dec("0.5")) {
		t.Fatalf("stored trust = %s", got.TrustScore)
	}
	entries := rec.Entries()
	if len(entries) != 1 || entries[0].EventType != domainaudit.EventTrustScoreCalculated {
		t.Fatalf("unexpected audit entries: %+v", entries)
	}
	if entries[0].Data["final_score"] != "0.50000" || entries[0].Data["vote_count"] != 0 {
		t.Fatalf("unexpected audit data: %+v", entries[0].Data)
	}
}

func TestRecomputeRumor_WeightedAndIdempotent(t *testing.T) {
	db, eng, _ := newEngine(t)
	ctx := context.Background()
	r := testutil.SeedRumor(t, ctx, db, nil)
	high := testutil.SeedUser(t, ctx, db, "80")
	low := testutil.SeedUser(t, ctx, db, "20")
	testutil.SeedVote(t, ctx, db, r.ID, high, rumor.VoteVerify, time.Now())
	testutil.SeedVote(t, ctx, db, r.ID, low, rumor.VoteDispute, time.Now())

	first, err := eng.RecomputeRumor(ctx, r.ID)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	stored := reload(t, db, r.ID)
	if !stored.VoteScore.Equal(dec("0.6667")) || !stored.TrustScore.Equal(dec("0.58335")) {
		t.Fatalf("stored V=%s trust=%s", stored.VoteScore, stored.TrustScore)
	}
	if stored.Classification == nil || *stored.Classification != rumor.ClassificationUncertain {
		t.Fatalf("classification = %v", stored.Classification)
	}

	second, err := eng.RecomputeRumor(ctx, r.ID)
	if err != nil {
		t.Fatalf("second recompute: %v", err)
	}
	if !second.Scores.TrustScore.Equal(first.Scores.TrustScore) || !second.Scores.VoteScore.Equal(first.Scores.VoteScore) {
		t.Fatalf("recompute not idempotent: %+v vs %+v", first.Scores, second.Scores)
	}
	if again := reload(t, db, r.ID); !again.TrustScore.Equal(stored.TrustScore) {
		t.Fatalf("stored trust drifted: %s -> %s", stored.TrustScore, again.TrustScore)
	}
}

func TestRecomputeRumor_FrozenAndMissingAreNoops(t *testing.T) {
	db, eng, rec := newEngine(t)
	ctx := context.Background()
	r := testutil.SeedRumor(t, ctx, db, nil)
	voter := testutil.SeedUser(t, ctx, db, "100")
	testutil.SeedVote(t, ctx, db, r.ID, voter, rumor.VoteVerify, time.Now())
	if err := db.Model(&types.Rumor{}).Where("id = ?", r.ID).Update("is_frozen", true).Error; err != nil {
		t.Fatalf("freeze: %v", err)
	}

	res, err := eng.RecomputeRumor(ctx, r.ID)
	if err != nil || res.Updated || !res.Frozen {
		t.Fatalf("frozen recompute: res=%+v err=%v", res, err)
	}
	if got := reload(t, db, r.ID); !got.TrustScore.Equal(dec("0.5")) {
		t.Fatalf("frozen rumor score moved to %s", got.TrustScore)
	}

	res, err = eng.RecomputeRumor(ctx, uuid.New())
	if err != nil || res.Updated || res.Frozen {
		t.Fatalf("missing recompute: res=%+v err=%v", res, err)
	}
	if n := len(rec.Entries()); n != 0 {
		t.Fatalf("no-ops must not audit, got %d entries", n)
	}
}

func TestRecomputeProof_MaturityBoundaryFeedsRumor(t *testing.T) {
	db, eng, rec := newEngine(t)
	ctx := context.Background()
	r := testutil.SeedRumor(t, ctx, db, nil)
	p := testutil.SeedProof(t, ctx, db, r.ID, nil)

	for i := 0; i < 9; i++ {
		testutil.SeedProofVote(t, ctx, db, p.ID, testutil.SeedUser(t, ctx, db, "50"), rumor.ProofVoteSupports)
	}
	res, err := eng.RecomputeProof(ctx, p.ID)
	if err != nil {
		t.Fatalf("recompute proof: %v", err)
	}
	if res.IsMature || res.VoteCount != 9 || !res.RumorRecomputeRequired || res.RumorID != r.ID {
		t.Fatalf("unexpected 9-vote result: %+v", res)
	}
	rr, err := eng.RecomputeRumor(ctx, r.ID)
	if err != nil {
		t.Fatalf("recompute rumor: %v", err)
	}
	if !rr.Scores.ProofScore.Equal(dec("0.5")) || rr.Scores.MatureProofCount != 0 {
		t.Fatalf("immature proof leaked into P: %+v", rr.Scores)
	}

	testutil.SeedProofVote(t, ctx, db, p.ID, testutil.SeedUser(t, ctx, db, "50"), rumor.ProofVoteSupports)
	res, err = eng.RecomputeProof(ctx, p.ID)
	if err != nil {
		t.Fatalf("recompute proof: %v", err)
	}
	if !res.IsMature || !res.TrustScore.Equal(dec("1")) {
		t.Fatalf("unexpected 10-vote result: %+v", res)
	}
	rr, err = eng.RecomputeRumor(ctx, r.ID)
	if err != nil {
		t.Fatalf("recompute rumor: %v", err)
	}
	if !rr.Scores.ProofScore.Equal(dec("1")) || rr.Scores.MatureProofCount != 1 {
		t.Fatalf("mature proof missing from P: %+v", rr.Scores)
	}
	// 0.25 + 0.30 + 0.10
	if !rr.Scores.TrustScore.Equal(dec("0.65")) {
		t.Fatalf("trust = %s, want 0.65", rr.Scores.TrustScore)
	}

	proofAudits := 0
	for _, e := range rec.Entries() {
		if e.EventType == domainaudit.EventProofScoreCalculated {
			proofAudits++
		}
	}
	if proofAudits != 2 {
		t.Fatalf("expected 2 proof audits, got %d", proofAudits)
	}
}

func TestRecomputeProof_MaturityIsSticky(t *testing.T) {
	db, eng, _ := newEngine(t)
	ctx := context.Background()
	r := testutil.SeedRumor(t, ctx, db, nil)
	p := testutil.SeedMatureProof(t, ctx, db, r.ID, "0.9")

	// Mature proof seeded without vote rows: recount drops to zero but stays mature.
	res, err := eng.RecomputeProof(ctx, p.ID)
	if err != nil {
		t.Fatalf("recompute proof: %v", err)
	}
	if !res.IsMature || res.VoteCount != 0 || !res.TrustScore.IsZero() {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestRecomputeProof_FrozenRumorIsNoop(t *testing.T) {
	db, eng, _ := newEngine(t)
	ctx := context.Background()
	r := testutil.SeedRumor(t, ctx, db, nil)
	p := testutil.SeedProof(t, ctx, db, r.ID, nil)
	testutil.SeedProofVote(t, ctx, db, p.ID, testutil.SeedUser(t, ctx, db, "50"), rumor.ProofVoteSupports)
	if err := db.Model(&types.Rumor{}).Where("id = ?", r.ID).Update("is_frozen", true).Error; err != nil {
		t.Fatalf("freeze: %v", err)
	}

	res, err := eng.RecomputeProof(ctx, p.ID)
	if err != nil || res.Updated || res.RumorRecomputeRequired {
		t.Fatalf("frozen proof recompute: res=%+v err=%v", res, err)
	}
	res, err = eng.RecomputeProof(ctx, uuid.New())
	if err != nil || res.Updated {
		t.Fatalf("missing proof recompute: res=%+v err=%v", res, err)
	}
}
