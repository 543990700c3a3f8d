package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/veritas-backend/internal/data/repos/audit"
	"github.com/yungbote/veritas-backend/internal/data/repos/rumors"
	"github.com/yungbote/veritas-backend/internal/data/repos/user"
	"github.com/yungbote/veritas-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo

type RumorRepo = rumors.RumorRepo
type VoteRepo = rumors.VoteRepo
type ProofRepo = rumors.ProofRepo
type ProofVoteRepo = rumors.ProofVoteRepo

type AuditLogRepo = audit.AuditLogRepo
type ReputationEventRepo = audit.ReputationEventRepo

type FeedQuery = rumors.FeedQuery
type FeedFilter = rumors.FeedFilter
type FeedSort = rumors.FeedSort
type FeedItem = rumors.FeedItem
type ScoreUpdate = rumors.ScoreUpdate
type VoteRevision = rumors.Revision

var (
	NewUserRepo            = user.NewUserRepo
	NewRumorRepo           = rumors.NewRumorRepo
	NewVoteRepo            = rumors.NewVoteRepo
	NewProofRepo           = rumors.NewProofRepo
	NewProofVoteRepo       = rumors.NewProofVoteRepo
	NewAuditLogRepo        = audit.NewAuditLogRepo
	NewReputationEventRepo = audit.NewReputationEventRepo
)

// Set is every table repo over one database handle.
type Set struct {
	Users            UserRepo
	Rumors           RumorRepo
	Votes            VoteRepo
	Proofs           ProofRepo
	ProofVotes       ProofVoteRepo
	AuditLogs        AuditLogRepo
	ReputationEvents ReputationEventRepo
}

func NewSet(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		Users:            NewUserRepo(db, log),
		Rumors:           NewRumorRepo(db, log),
		Votes:            NewVoteRepo(db, log),
		Proofs:           NewProofRepo(db, log),
		ProofVotes:       NewProofVoteRepo(db, log),
		AuditLogs:        NewAuditLogRepo(db, log),
		ReputationEvents: NewReputationEventRepo(db, log),
	}
}
