package rumorrecompute

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yungbote/veritas-backend/internal/data/repos"
	"github.com/yungbote/veritas-backend/internal/data/repos/testutil"
	"github.com/yungbote/veritas-backend/internal/domain/rumor"
	"github.com/yungbote/veritas-backend/internal/realtime/bus"
	"github.com/yungbote/veritas-backend/internal/trust"
	"github.com/yungbote/veritas-backend/internal/trust/scoring"
)

func TestActivities_RecomputeAndAnnounce(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	eng := scoring.NewEngine(db, log, trust.DefaultConfig(), repos.NewSet(db, log), nil, nil)
	b := bus.NewMemoryBus()
	acts := &Activities{Log: log, Proofs: eng, Rumors: eng, Notify: bus.NewNotifier(b, log, nil)}

	r := testutil.SeedRumor(t, ctx, db, nil)
	p := testutil.SeedProof(t, ctx, db, r.ID, nil)
	testutil.SeedProofVote(t, ctx, db, p.ID, testutil.SeedUser(t, ctx, db, "50"), rumor.ProofVoteSupports)
	testutil.SeedVote(t, ctx, db, r.ID, testutil.SeedUser(t, ctx, db, "50"), rumor.VoteVerify, time.Now().Add(-time.Hour))

	po, err := acts.RecomputeProof(ctx, p.ID)
	if err != nil || !po.Updated || po.IsMature || !po.TrustScore.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("proof outcome=%+v err=%v", po, err)
	}
	ro, err := acts.RecomputeRumor(ctx, r.ID)
	if err != nil || !ro.Updated || ro.Frozen {
		t.Fatalf("rumor outcome=%+v err=%v", ro, err)
	}
	// V=1, immature proof leaves P neutral, M neutral.
	if !ro.TrustScore.Equal(decimal.RequireFromString("0.75")) {
		t.Fatalf("trust=%s want 0.75", ro.TrustScore)
	}

	evs := b.Published()
	if len(evs) != 2 || evs[0].Type != bus.EventProofScored || evs[1].Type != bus.EventRumorScored {
		t.Fatalf("unexpected events: %+v", evs)
	}

	testutil.Freeze(t, ctx, db, r.ID)
	ro, err = acts.RecomputeRumor(ctx, r.ID)
	if err != nil || !ro.Frozen || ro.Updated {
		t.Fatalf("frozen outcome=%+v err=%v", ro, err)
	}
}
