package rumors

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/veritas-backend/internal/domain"
	"github.com/yungbote/veritas-backend/internal/platform/dbctx"
	"github.com/yungbote/veritas-backend/internal/platform/logger"
)

type FeedFilter string

const (
	FeedAll    FeedFilter = "all"
	FeedActive FeedFilter = "active"
	FeedFrozen FeedFilter = "frozen"
)

type FeedSort string

const (
	SortLatest   FeedSort = "latest"
	SortTrending FeedSort = "trending"
	SortTrusted  FeedSort = "trusted"
)

type FeedQuery struct {
	Filter FeedFilter
	Sort   FeedSort
	Limit  int
	Offset int
}

// FeedItem is a rumor with its live participation counts.
type FeedItem struct {
	types.Rumor `gorm:"embedded"`
	VoteCount   int64 `gorm:"column:vote_count" json:"vote_count"`
	ProofCount  int64 `gorm:"column:proof_count" json:"proof_count"`
}

// ScoreUpdate is everything a recompute writes back onto a rumor.
type ScoreUpdate struct {
	VoteScore      decimal.Decimal
	ProofScore     decimal.Decimal
	MomentumScore  decimal.Decimal
	TrustScore     decimal.Decimal
	Classification types.Classification
}

type RumorRepo interface {
	Create(dbc dbctx.Context, rumors []*types.Rumor) ([]*types.Rumor, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Rumor, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Rumor, error)
	UpdateScoresUnlessFrozen(dbc dbctx.Context, id uuid.UUID, upd ScoreUpdate) (bool, error)
	ListActiveIDs(dbc dbctx.Context, limit int) ([]uuid.UUID, error)
	ListFeed(dbc dbctx.Context, q FeedQuery) ([]*FeedItem, error)
	SoftDelete(dbc dbctx.Context, id uuid.UUID) error
}

type rumorRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRumorRepo(db *gorm.DB, baseLog *logger.Logger) RumorRepo {
	return &rumorRepo{
		db:  db,
		log: baseLog.With("repo", "RumorRepo"),
	}
}

func (r *rumorRepo) Create(dbc dbctx.Context, rumors []*types.Rumor) ([]*types.Rumor, error) {
	if len(rumors) == 0 {
		return []*types.Rumor{}, nil
	}
	if err := dbc.DB(r.db).Create(&rumors).Error; err != nil {
		return nil, err
	}
	return rumors, nil
}

func (r *rumorRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Rumor, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Rumor
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// LockByID reads the rumor with a row lock. Only meaningful inside a transaction.
func (r *rumorRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Rumor, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Rumor
	err := dbc.DB(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// UpdateScoresUnlessFrozen writes the score columns guarded by is_frozen = false.
// It returns false when the rumor froze (or vanished) in the meantime.
func (r *rumorRepo) UpdateScoresUnlessFrozen(dbc dbctx.Context, id uuid.UUID, upd ScoreUpdate) (bool, error) {
	res := dbc.DB(r.db).Model(&types.Rumor{}).
		Where("id = ? AND is_frozen = ?", id, false).
		Updates(map[string]interface{}{
			"vote_score":     upd.VoteScore,
			"proof_score":    upd.ProofScore,
			"momentum_score": upd.MomentumScore,
			"trust_score":    upd.TrustScore,
			"classification": upd.Classification,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *rumorRepo) ListActiveIDs(dbc dbctx.Context, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	q := dbc.DB(r.db).Model(&types.Rumor{}).
		Where("is_frozen = ?", false).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *rumorRepo) ListFeed(dbc dbctx.Context, q FeedQuery) ([]*FeedItem, error) {
	filter := q.Filter
	if filter == "" {
		filter = FeedAll
	}
	sort := q.Sort
	if sort == "" {
		sort = SortLatest
	}
	limit := q.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	tx := dbc.DB(r.db).Table("rumor").
		Select(`rumor.*,
      (SELECT COUNT(*) FROM rumor_vote v WHERE v.rumor_id = rumor.id AND v.deleted_at IS NULL) AS vote_count,
      (SELECT COUNT(*) FROM proof p WHERE p.rumor_id = rumor.id AND p.deleted_at IS NULL) AS proof_count`).
		Where("rumor.deleted_at IS NULL")

	switch filter {
	case FeedAll:
	case FeedActive:
		tx = tx.Where("rumor.is_frozen = ?", false)
	case FeedFrozen:
		tx = tx.Where("rumor.is_frozen = ?", true)
	default:
		return nil, fmt.Errorf("unknown feed filter %q", filter)
	}

	switch sort {
	case SortLatest:
		tx = tx.Order("rumor.created_at DESC")
	case SortTrending:
		tx = tx.Order("vote_count DESC").Order("rumor.created_at DESC")
	case SortTrusted:
		// Only settled rumors have a trust score worth ranking on.
		tx = tx.Where("rumor.is_frozen = ?", true).Order("rumor.trust_score DESC").Order("rumor.created_at DESC")
	default:
		return nil, fmt.Errorf("unknown feed sort %q", sort)
	}

	var out []*FeedItem
	if err := tx.Limit(limit).Offset(q.Offset).Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *rumorRepo) SoftDelete(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.DB(r.db).Where("id = ?", id).Delete(&types.Rumor{}).Error
}
