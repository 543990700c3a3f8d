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

// Revision is the new state of a revised vote.
type Revision struct {
	VoteType                types.VoteType
	VoteValue               decimal.Decimal
	WeightSnapshot          decimal.Decimal
	VoterReputationSnapshot decimal.Decimal
}

type VoteRepo interface {
	Create(dbc dbctx.Context, votes []*types.Vote) ([]*types.Vote, error)
	// GetByRumorAndVoter includes soft-deleted rows so a removed vote cannot be recast.
	GetByRumorAndVoter(dbc dbctx.Context, rumorID, voterID uuid.UUID) (*types.Vote, error)
	ListByRumor(dbc dbctx.Context, rumorID uuid.UUID) ([]*types.Vote, error)
	ReviseWithinLimit(dbc dbctx.Context, id uuid.UUID, maxChanges int, rev Revision) (bool, error)
	SoftDelete(dbc dbctx.Context, id uuid.UUID) error
}

type voteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVoteRepo(db *gorm.DB, baseLog *logger.Logger) VoteRepo {
	return &voteRepo{
		db:  db,
		log: baseLog.With("repo", "VoteRepo"),
	}
}

func (r *voteRepo) Create(dbc dbctx.Context, votes []*types.Vote) ([]*types.Vote, error) {
	if len(votes) == 0 {
		return []*types.Vote{}, nil
	}
	if err := dbc.DB(r.db).Create(&votes).Error; err != nil {
		return nil, err
	}
	return votes, nil
}

func (r *voteRepo) GetByRumorAndVoter(dbc dbctx.Context, rumorID, voterID uuid.UUID) (*types.Vote, error) {
	var row types.Vote
	err := dbc.DB(r.db).Unscoped().
		Where("rumor_id = ? AND voter_id = ?", rumorID, voterID).
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

func (r *voteRepo) ListByRumor(dbc dbctx.Context, rumorID uuid.UUID) ([]*types.Vote, error) {
	var out []*types.Vote
	if err := dbc.DB(r.db).
		Where("rumor_id = ?", rumorID).
		Order("cast_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ReviseWithinLimit rewrites the vote and increments change_count in a single
// conditional statement, so concurrent revisions can never exceed maxChanges.
func (r *voteRepo) ReviseWithinLimit(dbc dbctx.Context, id uuid.UUID, maxChanges int, rev Revision) (bool, error) {
	res := dbc.DB(r.db).Model(&types.Vote{}).
		Where("id = ? AND change_count < ?", id, maxChanges).
		Updates(map[string]interface{}{
			"vote_type":                 rev.VoteType,
			"vote_value":                rev.VoteValue,
			"weight_snapshot":           rev.WeightSnapshot,
			"voter_reputation_snapshot": rev.VoterReputationSnapshot,
			"change_count":              gorm.Expr("change_count + 1"),
			"updated_at":                time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *voteRepo) SoftDelete(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.DB(r.db).Where("id = ?", id).Delete(&types.Vote{}).Error
}
