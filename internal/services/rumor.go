package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/veritas-backend/internal/data/repos"
	types "github.com/yungbote/veritas-backend/internal/domain"
	"github.com/yungbote/veritas-backend/internal/platform/dbctx"
	"github.com/yungbote/veritas-backend/internal/platform/logger"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 200
)

type RumorService interface {
	Get(ctx context.Context, id uuid.UUID) (*types.Rumor, error)
	List(ctx context.Context, q repos.FeedQuery) ([]*repos.FeedItem, error)
	// ActiveIDs returns up to limit unfrozen rumor ids; limit <= 0 means all.
	ActiveIDs(ctx context.Context, limit int) ([]uuid.UUID, error)
	// Proofs lists the rumor's proofs, most trusted first.
	Proofs(ctx context.Context, rumorID uuid.UUID) ([]*types.Proof, error)
	// AuditTrail reads the score calculations and ledger entries recorded for a
	// rumor. It works for removed rumors too.
	AuditTrail(ctx context.Context, rumorID uuid.UUID, limit int) (AuditTrail, error)
}

type AuditTrail struct {
	Calculations []*types.AuditLog
	Reputation   []*types.ReputationEvent
}

type rumorService struct {
	log    *logger.Logger
	rumors repos.RumorRepo
	proofs repos.ProofRepo
	audit  repos.AuditLogRepo
	events repos.ReputationEventRepo
}

func NewRumorService(baseLog *logger.Logger, set repos.Set) RumorService {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &rumorService{
		log:    baseLog.With("service", "RumorService"),
		rumors: set.Rumors,
		proofs: set.Proofs,
		audit:  set.AuditLogs,
		events: set.ReputationEvents,
	}
}

func (s *rumorService) Get(ctx context.Context, id uuid.UUID) (*types.Rumor, error) {
	r, err := s.rumors.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, fmt.Errorf("get rumor: %w", err)
	}
	if r == nil {
		return nil, ErrRumorNotFound
	}
	return r, nil
}

func (s *rumorService) List(ctx context.Context, q repos.FeedQuery) ([]*repos.FeedItem, error) {
	if q.Limit <= 0 {
		q.Limit = defaultFeedLimit
	}
	if q.Limit > maxFeedLimit {
		q.Limit = maxFeedLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	items, err := s.rumors.ListFeed(dbctx.Context{Ctx: ctx}, q)
	if err != nil {
		return nil, fmt.Errorf("list rumors: %w", err)
	}
	return items, nil
}

func (s *rumorService) ActiveIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	ids, err := s.rumors.ListActiveIDs(dbctx.Context{Ctx: ctx}, limit)
	if err != nil {
		return nil, fmt.Errorf("list active rumors: %w", err)
	}
	return ids, nil
}

func (s *rumorService) Proofs(ctx context.Context, rumorID uuid.UUID) ([]*types.Proof, error) {
	if _, err := s.Get(ctx, rumorID); err != nil {
		return nil, err
	}
	proofs, err := s.proofs.ListByRumor(dbctx.Context{Ctx: ctx}, rumorID)
	if err != nil {
		return nil, fmt.Errorf("list proofs: %w", err)
	}
	return proofs, nil
}

func (s *rumorService) AuditTrail(ctx context.Context, rumorID uuid.UUID, limit int) (AuditTrail, error) {
	dbc := dbctx.Context{Ctx: ctx}
	logs, err := s.audit.ListByRumor(dbc, rumorID, limit)
	if err != nil {
		return AuditTrail{}, fmt.Errorf("audit trail: %w", err)
	}
	events, err := s.events.ListByRumor(dbc, rumorID)
	if err != nil {
		return AuditTrail{}, fmt.Errorf("audit trail: %w", err)
	}
	return AuditTrail{Calculations: logs, Reputation: events}, nil
}
