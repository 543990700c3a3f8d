package services

import (
	"errors"

	"github.com/yungbote/veritas-backend/internal/domain/rumor"
)

var (
	ErrFrozen          = rumor.ErrFrozen
	ErrVoteChangeLimit = rumor.ErrVoteChangeLimit
	ErrVoteRemoved     = rumor.ErrVoteRemoved
	ErrInvalidContent  = rumor.ErrInvalidContent

	ErrRumorNotFound = rumor.ErrRumorNotFound
	ErrProofNotFound = rumor.ErrProofNotFound
	ErrVoterNotFound = rumor.ErrVoterNotFound

	ErrInvalidVoteType = errors.New("invalid vote type")
	ErrInvalidProof    = errors.New("invalid proof")

	ErrUserNotFound      = errors.New("user not found")
	ErrUsernameTaken     = errors.New("username already taken")
	ErrInvalidUsername   = errors.New("username must be 3 to 150 characters without spaces")
	ErrInvalidReputation = errors.New("reputation out of range")
	ErrVoteNotFound      = errors.New("vote not found")
)
