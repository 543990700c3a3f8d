package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/veritas-backend/internal/data/repos/testutil"
	domainuser "github.com/yungbote/veritas-backend/internal/domain/user"
	"github.com/yungbote/veritas-backend/internal/platform/dbctx"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewUserRepo(db, testutil.Logger(t))

	u := domainuser.New("ada")
	if _, err := repo.Create(dbctx.New(ctx), []*domainuser.User{u}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByUsername(dbctx.New(ctx), "ada")
	if err != nil || got == nil {
		t.Fatalf("GetByUsername: got=%v err=%v", got, err)
	}
	if !got.Reputation.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected starting reputation 50, got %s", got.Reputation)
	}

	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	locked, err := repo.LockByID(dbc, u.ID)
	if err != nil || locked == nil {
		t.Fatalf("LockByID: got=%v err=%v", locked, err)
	}
	if err := repo.SetReputation(dbc, u.ID, decimal.RequireFromString("61.5")); err != nil {
		t.Fatalf("SetReputation: %v", err)
	}
	after, err := repo.GetByID(dbc, u.ID)
	if err != nil || !after.Reputation.Equal(decimal.RequireFromString("61.5")) {
		t.Fatalf("expected 61.5 inside tx, got %v err=%v", after, err)
	}

	if missing, err := repo.GetByID(dbc, uuid.New()); err != nil || missing != nil {
		t.Fatalf("GetByID(missing): got=%v err=%v", missing, err)
	}
}
