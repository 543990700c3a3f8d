package rumor

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ContentMinLength = 10
	ContentMaxLength = 500
)

// Rumor is a claim under evaluation. Score columns are owned by the rumor score engine;
// IsFrozen/FrozenAt/Outcome are owned by settlement.
type Rumor struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID *uuid.UUID `gorm:"type:uuid;index;column:author_id" json:"author_id,omitempty"`
	Content  string     `gorm:"type:text;not null;column:content" json:"content"`

	EvidenceType *EvidenceType `gorm:"column:evidence_type" json:"evidence_type,omitempty"`
	EvidenceURL  string        `gorm:"column:evidence_url" json:"evidence_url,omitempty"`

	// TrustScore carries one more decimal place than its components so that
	// 0.5V+0.3P+0.2M is stored exactly.
	TrustScore    decimal.Decimal `gorm:"type:numeric(7,5);not null;column:trust_score;index" json:"trust_score"`
	VoteScore     decimal.Decimal `gorm:"type:numeric(6,4);not null;column:vote_score" json:"vote_score"`
	ProofScore    decimal.Decimal `gorm:"type:numeric(6,4);not null;column:proof_score" json:"proof_score"`
	MomentumScore decimal.Decimal `gorm:"type:numeric(6,4);not null;column:momentum_score" json:"momentum_score"`

	Classification *Classification `gorm:"column:classification" json:"classification,omitempty"`
	Outcome        *Outcome        `gorm:"column:outcome" json:"outcome,omitempty"`

	IsFrozen bool       `gorm:"not null;default:false;column:is_frozen;index" json:"is_frozen"`
	FrozenAt *time.Time `gorm:"column:frozen_at" json:"frozen_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Rumor) TableName() string { return "rumor" }

// Vote is one participant's position on a rumor. WeightSnapshot and
// VoterReputationSnapshot are written at cast/edit time and never recomputed.
type Vote struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RumorID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rumor_vote_rumor_voter,priority:1;column:rumor_id" json:"rumor_id"`
	VoterID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rumor_vote_rumor_voter,priority:2;index;column:voter_id" json:"voter_id"`

	VoteType                VoteType        `gorm:"not null;column:vote_type" json:"vote_type"`
	VoteValue               decimal.Decimal `gorm:"type:numeric(3,2);not null;column:vote_value" json:"vote_value"`
	WeightSnapshot          decimal.Decimal `gorm:"type:numeric(6,4);not null;column:weight_snapshot" json:"weight_snapshot"`
	VoterReputationSnapshot decimal.Decimal `gorm:"type:numeric(5,2);not null;column:voter_reputation_snapshot" json:"voter_reputation_snapshot"`
	ChangeCount             int             `gorm:"not null;default:0;column:change_count" json:"change_count"`

	CastAt    time.Time      `gorm:"not null;index;column:cast_at" json:"cast_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Vote) TableName() string { return "rumor_vote" }
