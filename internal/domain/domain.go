package domain

import (
	"github.com/yungbote/veritas-backend/internal/domain/audit"
	"github.com/yungbote/veritas-backend/internal/domain/rumor"
	"github.com/yungbote/veritas-backend/internal/domain/user"
)

type User = user.User

type Rumor = rumor.Rumor
type Vote = rumor.Vote
type Proof = rumor.Proof
type ProofVote = rumor.ProofVote

type VoteType = rumor.VoteType
type ProofVoteType = rumor.ProofVoteType
type Classification = rumor.Classification
type Outcome = rumor.Outcome

type AuditLog = audit.AuditLog
type ReputationEvent = audit.ReputationEvent
type ReputationEventType = audit.ReputationEventType

// Models lists every persisted type, in migration order.
func Models() []any {
	return []any{
		&User{},
		&Rumor{},
		&Vote{},
		&Proof{},
		&ProofVote{},
		&ReputationEvent{},
		&AuditLog{},
	}
}
