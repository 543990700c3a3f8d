package aggregates_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/veritas-backend/internal/data/repos/testutil"
	types "github.com/yungbote/veritas-backend/internal/domain"
	domainagg "github.com/yungbote/veritas-backend/internal/domain/aggregates"
	"github.com/yungbote/veritas-backend/internal/domain/rumor"
)

func TestCastVote_CreateThenReviseUntilLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	voter := testutil.SeedUser(t, ctx, f.db, "50")
	r := testutil.SeedRumor(t, ctx, f.db, nil)
	agg := f.votes()

	first, err := agg.CastVote(ctx, domainagg.CastVoteInput{RumorID: r.ID, VoterID: voter.ID, VoteType: rumor.VoteVerify})
	if err != nil {
		t.Fatalf("first vote: %v", err)
	}
	if first.Revised || !first.Weight.Equal(dec("0.7071")) {
		t.Fatalf("unexpected first vote: %+v", first)
	}

	sequence := []rumor.VoteType{rumor.VoteDispute, rumor.VoteUncertain, rumor.VoteVerify}
	for i, vt := range sequence {
		res, err := agg.CastVote(ctx, domainagg.CastVoteInput{RumorID: r.ID, VoterID: voter.ID, VoteType: vt})
		if err != nil {
			t.Fatalf("revision %d: %v", i+1, err)
		}
		if !res.Revised || res.ChangeCount != i+1 || res.VoteID != first.VoteID {
			t.Fatalf("revision %d: unexpected result %+v", i+1, res)
		}
	}

	_, err = agg.CastVote(ctx, domainagg.CastVoteInput{RumorID: r.ID, VoterID: voter.ID, VoteType: rumor.VoteDispute})
	if !domainagg.IsCode(err, domainagg.CodePreconditionFailed) || !errors.Is(err, rumor.ErrVoteChangeLimit) {
		t.Fatalf("expected change limit, got %v", err)
	}

	var stored types.Vote
	if err := f.db.Where("id = ?", first.VoteID).First(&stored).Error; err != nil {
		t.Fatalf("reload vote: %v", err)
	}
	if stored.VoteType != rumor.VoteVerify || stored.ChangeCount != 3 {
		t.Fatalf("refused revision leaked: %+v", stored)
	}
}

func TestCastVote_ConcurrentRevisionsStopAtLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	voter := testutil.SeedUser(t, ctx, f.db, "50")
	r := testutil.SeedRumor(t, ctx, f.db, nil)
	agg := f.votes()

	first, err := agg.CastVote(ctx, domainagg.CastVoteInput{RumorID: r.ID, VoterID: voter.ID, VoteType: rumor.VoteVerify})
	if err != nil {
		t.Fatalf("first vote: %v", err)
	}

	const callers = 8
	var (
		mu      sync.Mutex
		revised int
		refused int
	)
	kinds := []rumor.VoteType{rumor.VoteDispute, rumor.VoteUncertain, rumor.VoteVerify}
	var g errgroup.Group
	for i := 0; i < callers; i++ {
		vt := kinds[i%len(kinds)]
		g.Go(func() error {
			_, err := agg.CastVote(ctx, domainagg.CastVoteInput{RumorID: r.ID, VoterID: voter.ID, VoteType: vt})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				revised++
			case errors.Is(err, rumor.ErrVoteChangeLimit):
				refused++
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent revision: %v", err)
	}
	if revised != 3 || refused != callers-3 {
		t.Fatalf("revised=%d refused=%d, want 3 and %d", revised, refused, callers-3)
	}

	var stored types.Vote
	if err := f.db.Where("id = ?", first.VoteID).First(&stored).Error; err != nil {
		t.Fatalf("reload vote: %v", err)
	}
	if stored.ChangeCount != 3 {
		t.Fatalf("change_count=%d, want 3", stored.ChangeCount)
	}
	var n int64
	if err := f.db.Model(&types.Vote{}).Where("rumor_id = ? AND voter_id = ?", r.ID, voter.ID).Count(&n).Error; err != nil || n != 1 {
		t.Fatalf("expected one vote row, n=%d err=%v", n, err)
	}
}

func TestCastVote_SnapshotsCurrentReputation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	voter := testutil.SeedUser(t, ctx, f.db, "80")
	r := testutil.SeedRumor(t, ctx, f.db, nil)

	res, err := f.votes().CastVote(ctx, domainagg.CastVoteInput{RumorID: r.ID, VoterID: voter.ID, VoteType: rumor.VoteVerify})
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if !res.Weight.Equal(dec("0.8944")) || !res.Reputation.Equal(dec("80")) {
		t.Fatalf("unexpected snapshot: %+v", res)
	}
}

func TestCastVote_RejectsFrozenRumor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	voter := testutil.SeedUser(t, ctx, f.db, "50")
	r := testutil.SeedRumor(t, ctx, f.db, nil)
	if err := f.db.Model(&types.Rumor{}).Where("id = ?", r.ID).Update("is_frozen", true).Error; err != nil {
		t.Fatalf("freeze: %v", err)
	}

	_, err := f.votes().CastVote(ctx, domainagg.CastVoteInput{RumorID: r.ID, VoterID: voter.ID, VoteType: rumor.VoteVerify})
	if !errors.Is(err, rumor.ErrFrozen) {
		t.Fatalf("expected ErrFrozen, got %v", err)
	}
}

func TestCastVote_RemovedVoteCannotBeRecast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	voter := testutil.SeedUser(t, ctx, f.db, "50")
	r := testutil.SeedRumor(t, ctx, f.db, nil)
	v := testutil.SeedVote(t, ctx, f.db, r.ID, voter, rumor.VoteVerify, time.Now())
	if err := f.db.Delete(&types.Vote{}, "id = ?", v.ID).Error; err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	_, err := f.votes().CastVote(ctx, domainagg.CastVoteInput{RumorID: r.ID, VoterID: voter.ID, VoteType: rumor.VoteDispute})
	if !errors.Is(err, rumor.ErrVoteRemoved) {
		t.Fatalf("expected ErrVoteRemoved, got %v", err)
	}
}

func TestCastVote_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := testutil.SeedRumor(t, ctx, f.db, nil)
	agg := f.votes()

	if _, err := agg.CastVote(ctx, domainagg.CastVoteInput{RumorID: r.ID, VoterID: uuid.New(), VoteType: rumor.VoteType("MAYBE")}); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := agg.CastVote(ctx, domainagg.CastVoteInput{RumorID: r.ID, VoterID: uuid.New(), VoteType: rumor.VoteVerify}); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected unknown voter to be not found, got %v", err)
	}
	if _, err := agg.CastVote(ctx, domainagg.CastVoteInput{RumorID: uuid.New(), VoterID: uuid.New(), VoteType: rumor.VoteVerify}); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected unknown rumor to be not found, got %v", err)
	}
}

func TestCastProofVote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	voter := testutil.SeedUser(t, ctx, f.db, "50")
	r := testutil.SeedRumor(t, ctx, f.db, nil)
	p := testutil.SeedProof(t, ctx, f.db, r.ID, nil)
	agg := f.votes()

	first, err := agg.CastProofVote(ctx, domainagg.CastProofVoteInput{ProofID: p.ID, VoterID: voter.ID, VoteType: rumor.ProofVoteSupports})
	if err != nil {
		t.Fatalf("first proof vote: %v", err)
	}
	if first.Revised || first.RumorID != r.ID {
		t.Fatalf("unexpected first proof vote: %+v", first)
	}
	second, err := agg.CastProofVote(ctx, domainagg.CastProofVoteInput{ProofID: p.ID, VoterID: voter.ID, VoteType: rumor.ProofVoteRefutes})
	if err != nil {
		t.Fatalf("revise proof vote: %v", err)
	}
	if !second.Revised || second.ProofVoteID != first.ProofVoteID {
		t.Fatalf("unexpected revision: %+v", second)
	}

	var rows []types.ProofVote
	if err := f.db.Where("proof_id = ?", p.ID).Find(&rows).Error; err != nil {
		t.Fatalf("list proof votes: %v", err)
	}
	if len(rows) != 1 || rows[0].VoteType != rumor.ProofVoteRefutes {
		t.Fatalf("unexpected proof votes: %+v", rows)
	}

	if err := f.db.Model(&types.Rumor{}).Where("id = ?", r.ID).Update("is_frozen", true).Error; err != nil {
		t.Fatalf("freeze: %v", err)
	}
	if _, err := agg.CastProofVote(ctx, domainagg.CastProofVoteInput{ProofID: p.ID, VoterID: voter.ID, VoteType: rumor.ProofVoteSupports}); !errors.Is(err, rumor.ErrFrozen) {
		t.Fatalf("expected ErrFrozen, got %v", err)
	}
	if _, err := agg.CastProofVote(ctx, domainagg.CastProofVoteInput{ProofID: uuid.New(), VoterID: voter.ID, VoteType: rumor.ProofVoteSupports}); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected unknown proof to be not found, got %v", err)
	}
}
