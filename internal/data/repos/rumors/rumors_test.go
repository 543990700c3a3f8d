package rumors

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/veritas-backend/internal/data/repos/testutil"
	types "github.com/yungbote/veritas-backend/internal/domain"
	"github.com/yungbote/veritas-backend/internal/domain/rumor"
	"github.com/yungbote/veritas-backend/internal/platform/dbctx"
)

func TestRumorRepo(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.New(ctx)
	repo := NewRumorRepo(db, testutil.Logger(t))

	author := testutil.SeedUser(t, ctx, db, "50")
	active := testutil.SeedRumor(t, ctx, db, &author.ID)
	frozen := testutil.SeedRumor(t, ctx, db, nil)
	if err := db.Model(&types.Rumor{}).Where("id = ?", frozen.ID).Update("is_frozen", true).Error; err != nil {
		t.Fatalf("freeze: %v", err)
	}

	got, err := repo.GetByID(dbc, active.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: got=%v err=%v", got, err)
	}
	if got.AuthorID == nil || *got.AuthorID != author.ID {
		t.Fatalf("GetByID: unexpected author %v", got.AuthorID)
	}
	if missing, err := repo.GetByID(dbc, uuid.New()); err != nil || missing != nil {
		t.Fatalf("GetByID(missing): got=%v err=%v", missing, err)
	}

	if got, err := repo.GetByID(dbc, frozen.ID); err != nil || got == nil || !got.IsFrozen {
		t.Fatalf("GetByID(frozen): got=%v err=%v", got, err)
	}

	upd := ScoreUpdate{
		VoteScore:      decimal.RequireFromString("0.9"),
		ProofScore:     decimal.RequireFromString("0.5"),
		MomentumScore:  decimal.RequireFromString("0.5"),
		TrustScore:     decimal.RequireFromString("0.7"),
		Classification: rumor.ClassificationLikelyTrue,
	}
	ok, err := repo.UpdateScoresUnlessFrozen(dbc, active.ID, upd)
	if err != nil || !ok {
		t.Fatalf("UpdateScoresUnlessFrozen(active): ok=%v err=%v", ok, err)
	}
	ok, err = repo.UpdateScoresUnlessFrozen(dbc, frozen.ID, upd)
	if err != nil || ok {
		t.Fatalf("UpdateScoresUnlessFrozen(frozen): expected no-op, ok=%v err=%v", ok, err)
	}
	got, _ = repo.GetByID(dbc, active.ID)
	if !got.TrustScore.Equal(upd.TrustScore) || got.Classification == nil || *got.Classification != rumor.ClassificationLikelyTrue {
		t.Fatalf("scores not persisted: %+v", got)
	}
	after, _ := repo.GetByID(dbc, frozen.ID)
	if !after.TrustScore.Equal(frozen.TrustScore) {
		t.Fatalf("frozen rumor score changed: %s", after.TrustScore)
	}

	ids, err := repo.ListActiveIDs(dbc, 0)
	if err != nil || len(ids) != 1 || ids[0] != active.ID {
		t.Fatalf("ListActiveIDs: ids=%v err=%v", ids, err)
	}

	if err := repo.SoftDelete(dbc, active.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if gone, err := repo.GetByID(dbc, active.ID); err != nil || gone != nil {
		t.Fatalf("soft-deleted rumor still visible: %v err=%v", gone, err)
	}
}

func TestRumorRepo_ListFeed(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.New(ctx)
	repo := NewRumorRepo(db, testutil.Logger(t))

	quiet := testutil.SeedRumor(t, ctx, db, nil)
	busy := testutil.SeedRumor(t, ctx, db, nil)
	settled := testutil.SeedRumor(t, ctx, db, nil)
	if err := db.Model(&types.Rumor{}).Where("id = ?", settled.ID).
		Updates(map[string]interface{}{"is_frozen": true, "trust_score": decimal.RequireFromString("0.9")}).Error; err != nil {
		t.Fatalf("freeze: %v", err)
	}
	for i := 0; i < 3; i++ {
		voter := testutil.SeedUser(t, ctx, db, "50")
		testutil.SeedVote(t, ctx, db, busy.ID, voter, rumor.VoteVerify, time.Now())
	}
	testutil.SeedProof(t, ctx, db, busy.ID, nil)

	items, err := repo.ListFeed(dbc, FeedQuery{Filter: FeedActive, Sort: SortTrending})
	if err != nil {
		t.Fatalf("ListFeed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 active rumors, got %d", len(items))
	}
	if items[0].ID != busy.ID || items[0].VoteCount != 3 || items[0].ProofCount != 1 {
		t.Fatalf("expected busy rumor first with counts, got %+v", items[0])
	}
	if items[1].ID != quiet.ID || items[1].VoteCount != 0 {
		t.Fatalf("expected quiet rumor second, got %+v", items[1])
	}

	items, err = repo.ListFeed(dbc, FeedQuery{Sort: SortTrusted})
	if err != nil || len(items) != 1 || items[0].ID != settled.ID {
		t.Fatalf("trusted feed: items=%v err=%v", items, err)
	}

	if _, err := repo.ListFeed(dbc, FeedQuery{Filter: "weird"}); err == nil {
		t.Fatalf("expected error for unknown filter")
	}
}

func TestVoteRepo_ReviseWithinLimit(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.New(ctx)
	repo := NewVoteRepo(db, testutil.Logger(t))

	voter := testutil.SeedUser(t, ctx, db, "64")
	r := testutil.SeedRumor(t, ctx, db, nil)
	v := testutil.SeedVote(t, ctx, db, r.ID, voter, rumor.VoteVerify, time.Now())

	rev := Revision{
		VoteType:                rumor.VoteDispute,
		VoteValue:               decimal.Zero,
		WeightSnapshot:          decimal.RequireFromString("0.8"),
		VoterReputationSnapshot: decimal.RequireFromString("64"),
	}
	for i := 0; i < 3; i++ {
		ok, err := repo.ReviseWithinLimit(dbc, v.ID, 3, rev)
		if err != nil || !ok {
			t.Fatalf("revision %d: ok=%v err=%v", i+1, ok, err)
		}
	}
	ok, err := repo.ReviseWithinLimit(dbc, v.ID, 3, rev)
	if err != nil || ok {
		t.Fatalf("fourth revision should be refused: ok=%v err=%v", ok, err)
	}

	got, err := repo.GetByRumorAndVoter(dbc, r.ID, voter.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByRumorAndVoter: got=%v err=%v", got, err)
	}
	if got.ChangeCount != 3 || got.VoteType != rumor.VoteDispute {
		t.Fatalf("unexpected vote state: %+v", got)
	}

	if err := repo.SoftDelete(dbc, v.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if live, err := repo.ListByRumor(dbc, r.ID); err != nil || len(live) != 0 {
		t.Fatalf("ListByRumor after delete: n=%d err=%v", len(live), err)
	}
	if got, err := repo.GetByRumorAndVoter(dbc, r.ID, voter.ID); err != nil || got == nil || !got.DeletedAt.Valid {
		t.Fatalf("expected soft-deleted vote to remain addressable: got=%v err=%v", got, err)
	}
}

func TestProofRepo_MaturityIsMonotonic(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.New(ctx)
	repo := NewProofRepo(db, testutil.Logger(t))

	r := testutil.SeedRumor(t, ctx, db, nil)
	p := testutil.SeedProof(t, ctx, db, r.ID, nil)
	immature := testutil.SeedProof(t, ctx, db, r.ID, nil)

	if err := repo.UpdateScore(dbc, p.ID, decimal.RequireFromString("0.75"), 10, true); err != nil {
		t.Fatalf("UpdateScore: %v", err)
	}
	if err := repo.UpdateScore(dbc, p.ID, decimal.RequireFromString("0.7"), 9, false); err != nil {
		t.Fatalf("UpdateScore: %v", err)
	}
	if err := repo.UpdateScore(dbc, immature.ID, decimal.RequireFromString("1"), 3, false); err != nil {
		t.Fatalf("UpdateScore: %v", err)
	}

	got, err := repo.GetByID(dbc, p.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: got=%v err=%v", got, err)
	}
	if !got.IsMature || got.VoteCount != 9 {
		t.Fatalf("expected proof to stay mature with 9 votes, got %+v", got)
	}

	scores, err := repo.ListMatureScores(dbc, r.ID)
	if err != nil {
		t.Fatalf("ListMatureScores: %v", err)
	}
	if len(scores) != 1 || !scores[0].Equal(decimal.RequireFromString("0.7")) {
		t.Fatalf("expected only the mature proof score, got %v", scores)
	}
}

func TestProofVoteRepo(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.New(ctx)
	repo := NewProofVoteRepo(db, testutil.Logger(t))

	r := testutil.SeedRumor(t, ctx, db, nil)
	p := testutil.SeedProof(t, ctx, db, r.ID, nil)
	voter := testutil.SeedUser(t, ctx, db, "25")
	pv := testutil.SeedProofVote(t, ctx, db, p.ID, voter, rumor.ProofVoteSupports)

	pv.VoteType = rumor.ProofVoteRefutes
	pv.VoteValue = decimal.Zero
	if err := repo.Revise(dbc, pv.ID, pv); err != nil {
		t.Fatalf("Revise: %v", err)
	}
	rows, err := repo.ListByProof(dbc, p.ID)
	if err != nil || len(rows) != 1 {
		t.Fatalf("ListByProof: rows=%v err=%v", rows, err)
	}
	if rows[0].VoteType != rumor.ProofVoteRefutes || !rows[0].VoteValue.IsZero() {
		t.Fatalf("revision not applied: %+v", rows[0])
	}
}
