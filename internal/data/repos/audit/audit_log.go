package audit

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/veritas-backend/internal/domain"
	"github.com/yungbote/veritas-backend/internal/platform/dbctx"
	"github.com/yungbote/veritas-backend/internal/platform/logger"
)

// AuditLogRepo is append-only.
type AuditLogRepo interface {
	Create(dbc dbctx.Context, rows []*types.AuditLog) ([]*types.AuditLog, error)
	ListByRumor(dbc dbctx.Context, rumorID uuid.UUID, limit int) ([]*types.AuditLog, error)
}

type auditLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAuditLogRepo(db *gorm.DB, baseLog *logger.Logger) AuditLogRepo {
	return &auditLogRepo{db: db, log: baseLog.With("repo", "AuditLogRepo")}
}

func (r *auditLogRepo) Create(dbc dbctx.Context, rows []*types.AuditLog) ([]*types.AuditLog, error) {
	if len(rows) == 0 {
		return []*types.AuditLog{}, nil
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *auditLogRepo) ListByRumor(dbc dbctx.Context, rumorID uuid.UUID, limit int) ([]*types.AuditLog, error) {
	var out []*types.AuditLog
	q := dbc.DB(r.db).Where("rumor_id = ?", rumorID).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
