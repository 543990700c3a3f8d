package rumors

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	types "github.com/yungbote/veritas-backend/internal/domain"
	"github.com/yungbote/veritas-backend/internal/platform/dbctx"
	"github.com/yungbote/veritas-backend/internal/platform/logger"
)

type ProofRepo interface {
	Create(dbc dbctx.Context, proofs []*types.Proof) ([]*types.Proof, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Proof, error)
	ListByRumor(dbc dbctx.Context, rumorID uuid.UUID) ([]*types.Proof, error)
	ListMatureScores(dbc dbctx.Context, rumorID uuid.UUID) ([]decimal.Decimal, error)
	UpdateScore(dbc dbctx.Context, id uuid.UUID, score decimal.Decimal, voteCount int, mature bool) error
	SoftDelete(dbc dbctx.Context, id uuid.UUID) error
}

type proofRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProofRepo(db *gorm.DB, baseLog *logger.Logger) ProofRepo {
	return &proofRepo{
		db:  db,
		log: baseLog.With("repo", "ProofRepo"),
	}
}

func (r *proofRepo) Create(dbc dbctx.Context, proofs []*types.Proof) ([]*types.Proof, error) {
	if len(proofs) == 0 {
		return []*types.Proof{}, nil
	}
	if err := dbc.DB(r.db).Create(&proofs).Error; err != nil {
		return nil, err
	}
	return proofs, nil
}

func (r *proofRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Proof, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Proof
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *proofRepo) ListByRumor(dbc dbctx.Context, rumorID uuid.UUID) ([]*types.Proof, error) {
	var out []*types.Proof
	if err := dbc.DB(r.db).
		Where("rumor_id = ?", rumorID).
		Order("trust_score DESC, created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *proofRepo) ListMatureScores(dbc dbctx.Context, rumorID uuid.UUID) ([]decimal.Decimal, error) {
	var out []decimal.Decimal
	if err := dbc.DB(r.db).Model(&types.Proof{}).
		Where("rumor_id = ? AND is_mature = ?", rumorID, true).
		Order("id ASC").
		Pluck("trust_score", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateScore writes the proof's aggregate. Maturity is only ever raised here:
// passing mature=false leaves an already-mature proof mature.
func (r *proofRepo) UpdateScore(dbc dbctx.Context, id uuid.UUID, score decimal.Decimal, voteCount int, mature bool) error {
	updates := map[string]interface{}{
		"trust_score": score,
		"vote_count":  voteCount,
		"updated_at":  time.Now().UTC(),
	}
	if mature {
		updates["is_mature"] = true
	}
	return dbc.DB(r.db).Model(&types.Proof{}).Where("id = ?", id).Updates(updates).Error
}

func (r *proofRepo) SoftDelete(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.DB(r.db).Where("id = ?", id).Delete(&types.Proof{}).Error
}
