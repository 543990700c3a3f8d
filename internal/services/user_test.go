package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/veritas-backend/internal/data/repos"
	"github.com/yungbote/veritas-backend/internal/data/repos/testutil"
	types "github.com/yungbote/veritas-backend/internal/domain"
	domainaudit "github.com/yungbote/veritas-backend/internal/domain/audit"
	"github.com/yungbote/veritas-backend/internal/services"
	"github.com/yungbote/veritas-backend/internal/trust"
)

func TestUserService_Register(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	svc := services.NewUserService(log, trust.DefaultConfig(), repos.NewSet(db, log))

	u, err := svc.Register(ctx, "  alice  ", nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Username != "alice" || !u.Reputation.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected user %+v", u)
	}
	got, err := svc.Get(ctx, u.ID)
	if err != nil || got.Username != "alice" {
		t.Fatalf("get: %+v err=%v", got, err)
	}

	rep := decimal.RequireFromString("80.456")
	bob, err := svc.Register(ctx, "bob", &rep)
	if err != nil {
		t.Fatalf("register bob: %v", err)
	}
	if !bob.Reputation.Equal(decimal.RequireFromString("80.46")) {
		t.Fatalf("reputation should round to two places, got %s", bob.Reputation)
	}

	if _, err := svc.Register(ctx, "alice", nil); !errors.Is(err, services.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	for _, name := range []string{"", "ab", "two words"} {
		if _, err := svc.Register(ctx, name, nil); !errors.Is(err, services.ErrInvalidUsername) {
			t.Fatalf("%q: expected ErrInvalidUsername, got %v", name, err)
		}
	}

	for _, raw := range []string{"-0.01", "100.01"} {
		d := decimal.RequireFromString(raw)
		if _, err := svc.Register(ctx, "carol", &d); !errors.Is(err, services.ErrInvalidReputation) {
			t.Fatalf("%s: expected ErrInvalidReputation, got %v", raw, err)
		}
	}

	if _, err := svc.Get(ctx, uuid.New()); !errors.Is(err, services.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_ReputationHistory(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	svc := services.NewUserService(log, trust.DefaultConfig(), repos.NewSet(db, log))

	if _, err := svc.ReputationHistory(ctx, uuid.New(), 10); !errors.Is(err, services.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	u := testutil.SeedUser(t, ctx, db, "50")
	base := time.Now().UTC().Add(-time.Hour)
	for i, et := range []domainaudit.ReputationEventType{domainaudit.ReputationCorrectVote, domainaudit.ReputationIncorrectVote, domainaudit.ReputationAuthorBonus} {
		ev := &types.ReputationEvent{
			ID:           uuid.New(),
			UserID:       u.ID,
			RumorID:      uuid.New(),
			EventType:    et,
			Delta:        decimal.NewFromInt(2),
			AppliedDelta: decimal.NewFromInt(2),
			BalanceAfter: decimal.NewFromInt(int64(52 + 2*i)),
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.WithContext(ctx).Create(ev).Error; err != nil {
			t.Fatalf("seed event: %v", err)
		}
	}

	events, err := svc.ReputationHistory(ctx, u.ID, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(events) != 3 || events[0].EventType != domainaudit.ReputationAuthorBonus {
		t.Fatalf("expected three events newest first, got %d", len(events))
	}

	events, err = svc.ReputationHistory(ctx, u.ID, 2)
	if err != nil || len(events) != 2 {
		t.Fatalf("limited history: %d events err=%v", len(events), err)
	}
}
