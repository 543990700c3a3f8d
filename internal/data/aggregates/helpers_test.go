package aggregates_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yungbote/veritas-backend/internal/data/aggregates"
	"github.com/yungbote/veritas-backend/internal/data/repos"
	"github.com/yungbote/veritas-backend/internal/data/repos/testutil"
	types "github.com/yungbote/veritas-backend/internal/domain"
	domainagg "github.com/yungbote/veritas-backend/internal/domain/aggregates"
	"github.com/yungbote/veritas-backend/internal/trust"
)

type fixture struct {
	db    *gorm.DB
	repos repos.Set
	cfg   trust.Config
	base  aggregates.BaseDeps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	return &fixture{
		db:    db,
		repos: repos.NewSet(db, log),
		cfg:   trust.DefaultConfig(),
		base:  aggregates.BaseDeps{DB: db, Log: log},
	}
}

func (f *fixture) ledger() *aggregates.ReputationLedger {
	return aggregates.NewReputationLedger(f.repos.Users, f.repos.ReputationEvents, f.cfg)
}

func (f *fixture) settlement(base aggregates.BaseDeps) domainagg.SettlementAggregate {
	return aggregates.NewSettlementAggregate(aggregates.SettlementAggregateDeps{
		Base:   base,
		Rumors: f.repos.Rumors,
		Votes:  f.repos.Votes,
		Ledger: f.ledger(),
		Config: f.cfg,
	})
}

func (f *fixture) votes() domainagg.VoteAggregate {
	return aggregates.NewVoteAggregate(aggregates.VoteAggregateDeps{
		Base:       f.base,
		Users:      f.repos.Users,
		Rumors:     f.repos.Rumors,
		Votes:      f.repos.Votes,
		Proofs:     f.repos.Proofs,
		ProofVotes: f.repos.ProofVotes,
		Config:     f.cfg,
	})
}

func (f *fixture) reputation(t *testing.T, id uuid.UUID) decimal.Decimal {
	t.Helper()
	var u types.User
	if err := f.db.WithContext(context.Background()).Where("id = ?", id).First(&u).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	return u.Reputation
}

func (f *fixture) rumor(t *testing.T, id uuid.UUID) types.Rumor {
	t.Helper()
	var r types.Rumor
	if err := f.db.WithContext(context.Background()).Where("id = ?", id).First(&r).Error; err != nil {
		t.Fatalf("reload rumor: %v", err)
	}
	return r
}

func (f *fixture) events(t *testing.T, rumorID uuid.UUID) []*types.ReputationEvent {
	t.Helper()
	var out []*types.ReputationEvent
	if err := f.db.Where("rumor_id = ?", rumorID).Order("user_id ASC, event_type ASC").Find(&out).Error; err != nil {
		t.Fatalf("list events: %v", err)
	}
	return out
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
