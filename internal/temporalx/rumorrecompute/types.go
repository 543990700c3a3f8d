package rumorrecompute

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/veritas-backend/internal/trust/recompute"
)

const (
	WorkflowName           = "rumor_recompute"
	ActivityRecomputeProof = "rumor_recompute_proof"
	ActivityRecomputeRumor = "rumor_recompute_rumor"
	SignalTrigger          = "recompute_trigger"

	workflowIDPrefix = "recompute-rumor-"
)

// WorkflowID is one per rumor, so Temporal runs at most one recompute loop per
// rumor across every process.
func WorkflowID(rumorID uuid.UUID) string {
	return workflowIDPrefix + rumorID.String()
}

// Batch is the work accumulated for one round of the workflow.
type Batch struct {
	RumorID  uuid.UUID   `json:"rumor_id"`
	ProofIDs []uuid.UUID `json:"proof_ids,omitempty"`
}

func BatchFrom(t recompute.Trigger) Batch {
	b := Batch{RumorID: t.RumorID}
	b.Add(t)
	return b
}

// Add merges t, keeping proof ids unique and in arrival order.
func (b *Batch) Add(t recompute.Trigger) {
	if t.ProofID == nil {
		return
	}
	for _, id := range b.ProofIDs {
		if id == *t.ProofID {
			return
		}
	}
	b.ProofIDs = append(b.ProofIDs, *t.ProofID)
}

type ProofOutcome struct {
	ProofID    uuid.UUID       `json:"proof_id"`
	Updated    bool            `json:"updated"`
	TrustScore decimal.Decimal `json:"trust_score"`
	IsMature   bool            `json:"is_mature"`
}

type RumorOutcome struct {
	RumorID        uuid.UUID       `json:"rumor_id"`
	Updated        bool            `json:"updated"`
	Frozen         bool            `json:"frozen"`
	TrustScore     decimal.Decimal `json:"trust_score"`
	Classification string          `json:"classification,omitempty"`
}
