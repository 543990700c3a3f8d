package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/veritas-backend/internal/data/repos"
	"github.com/yungbote/veritas-backend/internal/data/repos/testutil"
	"github.com/yungbote/veritas-backend/internal/domain/rumor"
	"github.com/yungbote/veritas-backend/internal/services"
	"github.com/yungbote/veritas-backend/internal/trust"
	"github.com/yungbote/veritas-backend/internal/trust/recompute"
)

type moderationFixture struct {
	db         *gorm.DB
	dispatcher *recordingDispatcher
	moderation services.ModerationService
	votes      services.VoteService
	rumors     services.RumorService
}

func newModerationFixture(t *testing.T) moderationFixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	set := repos.NewSet(db, log)
	d := &recordingDispatcher{}
	return moderationFixture{
		db:         db,
		dispatcher: d,
		moderation: services.NewModerationService(db, log, set, d),
		votes:      services.NewVoteService(db, log, trust.DefaultConfig(), set, nil, nil),
		rumors:     services.NewRumorService(log, set),
	}
}

func TestModeration_RemoveVote(t *testing.T) {
	f := newModerationFixture(t)
	ctx := context.Background()
	r := testutil.SeedRumor(t, ctx, f.db, nil)
	voter := testutil.SeedUser(t, ctx, f.db, "50")
	testutil.SeedVote(t, ctx, f.db, r.ID, voter, rumor.VoteVerify, time.Now().UTC())

	if err := f.moderation.RemoveVote(ctx, r.ID, voter.ID); err != nil {
		t.Fatalf("remove vote: %v", err)
	}
	got := f.dispatcher.Triggers()
	if len(got) != 1 || got[0].RumorID != r.ID || got[0].Reason != recompute.ReasonModeration || got[0].ProofID != nil {
		t.Fatalf("unexpected triggers %+v", got)
	}

	if _, err := f.votes.CastVote(ctx, voter.ID, r.ID, "dispute"); !errors.Is(err, services.ErrVoteRemoved) {
		t.Fatalf("a removed vote must not be recast, got %v", err)
	}
	if err := f.moderation.RemoveVote(ctx, r.ID, voter.ID); !errors.Is(err, services.ErrVoteNotFound) {
		t.Fatalf("second removal: expected ErrVoteNotFound, got %v", err)
	}
	if err := f.moderation.RemoveVote(ctx, r.ID, uuid.New()); !errors.Is(err, services.ErrVoteNotFound) {
		t.Fatalf("unknown voter: expected ErrVoteNotFound, got %v", err)
	}
	if err := f.moderation.RemoveVote(ctx, uuid.New(), voter.ID); !errors.Is(err, services.ErrRumorNotFound) {
		t.Fatalf("unknown rumor: expected ErrRumorNotFound, got %v", err)
	}
	if n := len(f.dispatcher.Triggers()); n != 1 {
		t.Fatalf("failed removals dispatched %d triggers in total", n)
	}
}

func TestModeration_SettledRumorIsImmutable(t *testing.T) {
	f := newModerationFixture(t)
	ctx := context.Background()
	r := testutil.SeedRumor(t, ctx, f.db, nil)
	voter := testutil.SeedUser(t, ctx, f.db, "50")
	testutil.SeedVote(t, ctx, f.db, r.ID, voter, rumor.VoteVerify, time.Now().UTC())
	p := testutil.SeedProof(t, ctx, f.db, r.ID, nil)
	testutil.SeedProofVote(t, ctx, f.db, p.ID, voter, rumor.ProofVoteSupports)
	testutil.Freeze(t, ctx, f.db, r.ID)

	checks := map[string]error{
		"rumor":      f.moderation.RemoveRumor(ctx, r.ID),
		"vote":       f.moderation.RemoveVote(ctx, r.ID, voter.ID),
		"proof":      f.moderation.RemoveProof(ctx, p.ID),
		"proof vote": f.moderation.RemoveProofVote(ctx, p.ID, voter.ID),
	}
	for name, err := range checks {
		if !errors.Is(err, services.ErrFrozen) {
			t.Fatalf("remove %s: expected ErrFrozen, got %v", name, err)
		}
	}
	if got := f.dispatcher.Triggers(); len(got) != 0 {
		t.Fatalf("frozen rumor dispatched %+v", got)
	}
	if proofs, err := f.rumors.Proofs(ctx, r.ID); err != nil || len(proofs) != 1 {
		t.Fatalf("proof should survive: %d proofs err=%v", len(proofs), err)
	}
}

func TestModeration_RemoveProofAndProofVote(t *testing.T) {
	f := newModerationFixture(t)
	ctx := context.Background()
	r := testutil.SeedRumor(t, ctx, f.db, nil)
	voter := testutil.SeedUser(t, ctx, f.db, "50")
	kept := testutil.SeedProof(t, ctx, f.db, r.ID, nil)
	removed := testutil.SeedProof(t, ctx, f.db, r.ID, nil)
	testutil.SeedProofVote(t, ctx, f.db, kept.ID, voter, rumor.ProofVoteSupports)

	if err := f.moderation.RemoveProofVote(ctx, kept.ID, voter.ID); err != nil {
		t.Fatalf("remove proof vote: %v", err)
	}
	if err := f.moderation.RemoveProofVote(ctx, kept.ID, voter.ID); !errors.Is(err, services.ErrVoteNotFound) {
		t.Fatalf("second removal: expected ErrVoteNotFound, got %v", err)
	}
	if err := f.moderation.RemoveProof(ctx, removed.ID); err != nil {
		t.Fatalf("remove proof: %v", err)
	}
	if err := f.moderation.RemoveProof(ctx, removed.ID); !errors.Is(err, services.ErrProofNotFound) {
		t.Fatalf("second removal: expected ErrProofNotFound, got %v", err)
	}

	got := f.dispatcher.Triggers()
	if len(got) != 2 {
		t.Fatalf("expected 2 triggers, got %+v", got)
	}
	if got[0].ProofID == nil || *got[0].ProofID != kept.ID || got[0].RumorID != r.ID {
		t.Fatalf("proof vote removal should rescore its proof: %+v", got[0])
	}
	if got[1].ProofID != nil || got[1].RumorID != r.ID || got[1].Reason != recompute.ReasonModeration {
		t.Fatalf("proof removal should rescore the rumor: %+v", got[1])
	}

	proofs, err := f.rumors.Proofs(ctx, r.ID)
	if err != nil {
		t.Fatalf("proofs: %v", err)
	}
	if len(proofs) != 1 || proofs[0].ID != kept.ID {
		t.Fatalf("removed proof still listed: %+v", proofs)
	}
}

func TestModeration_RemoveRumor(t *testing.T) {
	f := newModerationFixture(t)
	ctx := context.Background()
	r := testutil.SeedRumor(t, ctx, f.db, nil)
	other := testutil.SeedRumor(t, ctx, f.db, nil)

	if err := f.moderation.RemoveRumor(ctx, r.ID); err != nil {
		t.Fatalf("remove rumor: %v", err)
	}
	if _, err := f.rumors.Get(ctx, r.ID); !errors.Is(err, services.ErrRumorNotFound) {
		t.Fatalf("removed rumor still readable: %v", err)
	}
	if err := f.moderation.RemoveRumor(ctx, r.ID); !errors.Is(err, services.ErrRumorNotFound) {
		t.Fatalf("second removal: expected ErrRumorNotFound, got %v", err)
	}
	items, err := f.rumors.List(ctx, repos.FeedQuery{Filter: "all", Limit: -1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].ID != other.ID {
		t.Fatalf("feed should only hold the remaining rumor: %+v", items)
	}
	if got := f.dispatcher.Triggers(); len(got) != 0 {
		t.Fatalf("rumor removal should not rescore: %+v", got)
	}
}
