package rumors

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/veritas-backend/internal/domain"
	"github.com/yungbote/veritas-backend/internal/platform/dbctx"
	"github.com/yungbote/veritas-backend/internal/platform/logger"
)

type ProofVoteRepo interface {
	Create(dbc dbctx.Context, votes []*types.ProofVote) ([]*types.ProofVote, error)
	GetByProofAndVoter(dbc dbctx.Context, proofID, voterID uuid.UUID) (*types.ProofVote, error)
	ListByProof(dbc dbctx.Context, proofID uuid.UUID) ([]*types.ProofVote, error)
	Revise(dbc dbctx.Context, id uuid.UUID, vote *types.ProofVote) error
	SoftDelete(dbc dbctx.Context, id uuid.UUID) error
}

type proofVoteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProofVoteRepo(db *gorm.DB, baseLog *logger.Logger) ProofVoteRepo {
	return &proofVoteRepo{
		db:  db,
		log: baseLog.With("repo", "ProofVoteRepo"),
	}
}

func (r *proofVoteRepo) Create(dbc dbctx.Context, votes []*types.ProofVote) ([]*types.ProofVote, error) {
	if len(votes) == 0 {
		return []*types.ProofVote{}, nil
	}
	if err := dbc.DB(r.db).Create(&votes).Error; err != nil {
		return nil, err
	}
	return votes, nil
}

func (r *proofVoteRepo) GetByProofAndVoter(dbc dbctx.Context, proofID, voterID uuid.UUID) (*types.ProofVote, error) {
	var row types.ProofVote
	err := dbc.DB(r.db).Unscoped().
		Where("proof_id = ? AND voter_id = ?", proofID, voterID).
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

func (r *proofVoteRepo) ListByProof(dbc dbctx.Context, proofID uuid.UUID) ([]*types.ProofVote, error) {
	var out []*types.ProofVote
	if err := dbc.DB(r.db).
		Where("proof_id = ?", proofID).
		Order("cast_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *proofVoteRepo) Revise(dbc dbctx.Context, id uuid.UUID, vote *types.ProofVote) error {
	return dbc.DB(r.db).Model(&types.ProofVote{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"vote_type":                 vote.VoteType,
			"vote_value":                vote.VoteValue,
			"weight_snapshot":           vote.WeightSnapshot,
			"voter_reputation_snapshot": vote.VoterReputationSnapshot,
			"updated_at":                time.Now().UTC(),
		}).Error
}

func (r *proofVoteRepo) SoftDelete(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.DB(r.db).Where("id = ?", id).Delete(&types.ProofVote{}).Error
}
