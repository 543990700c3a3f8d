package rumor

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Proof is a piece of evidence attached to a rumor. IsMature only ever moves false -> true.
type Proof struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RumorID  uuid.UUID  `gorm:"type:uuid;not null;index;column:rumor_id" json:"rumor_id"`
	PosterID *uuid.UUID `gorm:"type:uuid;index;column:poster_id" json:"poster_id,omitempty"`

	ProofType ProofType `gorm:"not null;column:proof_type" json:"proof_type"`
	Content   string    `gorm:"type:text;column:content" json:"content,omitempty"`
	FileURL   string    `gorm:"column:file_url" json:"file_url,omitempty"`

	TrustScore decimal.Decimal `gorm:"type:numeric(6,4);not null;column:trust_score" json:"trust_score"`
	VoteCount  int             `gorm:"not null;default:0;column:vote_count" json:"vote_count"`
	IsMature   bool            `gorm:"not null;default:false;column:is_mature;index" json:"is_mature"`

	IsClassified        bool            `gorm:"not null;default:false;column:is_classified" json:"is_classified"`
	FinalClassification *Classification `gorm:"column:final_classification" json:"final_classification,omitempty"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Proof) TableName() string { return "proof" }

// ProofVote has the same shape as Vote without a change limit.
type ProofVote struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProofID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_proof_vote_proof_voter,priority:1;column:proof_id" json:"proof_id"`
	VoterID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_proof_vote_proof_voter,priority:2;index;column:voter_id" json:"voter_id"`

	VoteType                ProofVoteType   `gorm:"not null;column:vote_type" json:"vote_type"`
	VoteValue               decimal.Decimal `gorm:"type:numeric(3,2);not null;column:vote_value" json:"vote_value"`
	WeightSnapshot          decimal.Decimal `gorm:"type:numeric(6,4);not null;column:weight_snapshot" json:"weight_snapshot"`
	VoterReputationSnapshot decimal.Decimal `gorm:"type:numeric(5,2);not null;column:voter_reputation_snapshot" json:"voter_reputation_snapshot"`

	CastAt    time.Time      `gorm:"not null;column:cast_at" json:"cast_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ProofVote) TableName() string { return "proof_vote" }
