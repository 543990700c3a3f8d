package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type LogEventType string

const (
	EventTrustScoreCalculated LogEventType = "TRUST_SCORE_CALCULATED"
	EventProofScoreCalculated LogEventType = "PROOF_SCORE_CALCULATED"
	EventRumorSettled         LogEventType = "RUMOR_SETTLED"
)

// AuditLog is an append-only diagnostic record. It references rumors, proofs and users
// by identity only so entries survive the deletion of what they describe.
type AuditLog struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	EventType       LogEventType   `gorm:"not null;index;column:event_type" json:"event_type"`
	RumorID         *uuid.UUID     `gorm:"type:uuid;index;column:rumor_id" json:"rumor_id,omitempty"`
	ProofID         *uuid.UUID     `gorm:"type:uuid;index;column:proof_id" json:"proof_id,omitempty"`
	UserID          *uuid.UUID     `gorm:"type:uuid;column:user_id" json:"user_id,omitempty"`
	CalculationData datatypes.JSON `gorm:"column:calculation_data" json:"calculation_data"`
	CreatedAt       time.Time      `gorm:"not null;index" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_log" }
