package audit

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/veritas-backend/internal/domain"
	"github.com/yungbote/veritas-backend/internal/platform/dbctx"
	"github.com/yungbote/veritas-backend/internal/platform/logger"
)

// ReputationEventRepo is append-only; there is deliberately no update or delete.
type ReputationEventRepo interface {
	Create(dbc dbctx.Context, events []*types.ReputationEvent) ([]*types.ReputationEvent, error)
	ListByRumor(dbc dbctx.Context, rumorID uuid.UUID) ([]*types.ReputationEvent, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.ReputationEvent, error)
}

type reputationEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReputationEventRepo(db *gorm.DB, baseLog *logger.Logger) ReputationEventRepo {
	return &reputationEventRepo{db: db, log: baseLog.With("repo", "ReputationEventRepo")}
}

func (r *reputationEventRepo) Create(dbc dbctx.Context, events []*types.ReputationEvent) ([]*types.ReputationEvent, error) {
	if len(events) == 0 {
		return []*types.ReputationEvent{}, nil
	}
	if err := dbc.DB(r.db).Create(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *reputationEventRepo) ListByRumor(dbc dbctx.Context, rumorID uuid.UUID) ([]*types.ReputationEvent, error) {
	var out []*types.ReputationEvent
	if err := dbc.DB(r.db).
		Where("rumor_id = ?", rumorID).
		Order("created_at ASC, user_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *reputationEventRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.ReputationEvent, error) {
	var out []*types.ReputationEvent
	q := dbc.DB(r.db).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
