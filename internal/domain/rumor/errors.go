package rumor

import "errors"

var (
	ErrFrozen          = errors.New("rumor is frozen")
	ErrVoteChangeLimit = errors.New("max vote changes reached")
	ErrVoteRemoved     = errors.New("vote was removed and cannot be recast")
	ErrInvalidContent  = errors.New("rumor content must be between 10 and 500 characters")

	ErrRumorNotFound = errors.New("rumor not found")
	ErrProofNotFound = errors.New("proof not found")
	ErrVoterNotFound = errors.New("voter not found")
)
