package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/veritas-backend/internal/data/repos"
	"github.com/yungbote/veritas-backend/internal/data/repos/testutil"
	types "github.com/yungbote/veritas-backend/internal/domain"
	domainaudit "github.com/yungbote/veritas-backend/internal/domain/audit"
	"github.com/yungbote/veritas-backend/internal/services"
)

func TestRumorService(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	svc := services.NewRumorService(log, repos.NewSet(db, log))

	active := testutil.SeedRumor(t, ctx, db, nil)
	frozen := testutil.SeedRumor(t, ctx, db, nil)
	testutil.Freeze(t, ctx, db, frozen.ID)

	if _, err := svc.Get(ctx, uuid.New()); !errors.Is(err, services.ErrRumorNotFound) {
		t.Fatalf("expected ErrRumorNotFound, got %v", err)
	}

	cases := []struct {
		filter repos.FeedFilter
		want   int
	}{
		{"all", 2},
		{"active", 1},
		{"frozen", 1},
	}
	for _, tc := range cases {
		items, err := svc.List(ctx, repos.FeedQuery{Filter: tc.filter, Limit: -1})
		if err != nil {
			t.Fatalf("list %s: %v", tc.filter, err)
		}
		if len(items) != tc.want {
			t.Fatalf("list %s: got %d items, want %d", tc.filter, len(items), tc.want)
		}
	}

	ids, err := svc.ActiveIDs(ctx, 0)
	if err != nil || len(ids) != 1 || ids[0] != active.ID {
		t.Fatalf("active ids=%v err=%v", ids, err)
	}

	weak := testutil.SeedProof(t, ctx, db, active.ID, nil)
	strong := testutil.SeedMatureProof(t, ctx, db, active.ID, "0.9")
	proofs, err := svc.Proofs(ctx, active.ID)
	if err != nil {
		t.Fatalf("proofs: %v", err)
	}
	if len(proofs) != 2 || proofs[0].ID != strong.ID || proofs[1].ID != weak.ID {
		t.Fatalf("proofs should be most trusted first: %+v", proofs)
	}
	if _, err := svc.Proofs(ctx, uuid.New()); !errors.Is(err, services.ErrRumorNotFound) {
		t.Fatalf("expected ErrRumorNotFound, got %v", err)
	}

	rid := active.ID
	entry := &types.AuditLog{
		ID:              uuid.New(),
		EventType:       domainaudit.EventTrustScoreCalculated,
		RumorID:         &rid,
		CalculationData: datatypes.JSON(`{"trust_score":"0.5"}`),
		CreatedAt:       time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(entry).Error; err != nil {
		t.Fatalf("seed audit log: %v", err)
	}
	trail, err := svc.AuditTrail(ctx, active.ID, 10)
	if err != nil {
		t.Fatalf("audit trail: %v", err)
	}
	if len(trail.Calculations) != 1 || trail.Calculations[0].ID != entry.ID || len(trail.Reputation) != 0 {
		t.Fatalf("unexpected trail %+v", trail)
	}
	// Entries are keyed by identity only, so an unknown rumor reads as empty.
	if trail, err := svc.AuditTrail(ctx, uuid.New(), 10); err != nil || len(trail.Calculations) != 0 {
		t.Fatalf("unknown rumor trail=%+v err=%v", trail, err)
	}
}
