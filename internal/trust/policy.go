package trust

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yungbote/veritas-backend/internal/domain/audit"
	"github.com/yungbote/veritas-backend/internal/domain/rumor"
)

var (
	bandLikelyTrue  = decimal.RequireFromString("0.60")
	bandUncertainLo = decimal.RequireFromString("0.40")
)

// Classify maps a trust score to a settlement outcome. It never returns ALREADY_SETTLED.
func (c Config) Classify(trustScore decimal.Decimal) rumor.Outcome {
	switch {
	case trustScore.GreaterThanOrEqual(c.TrueThreshold):
		return rumor.OutcomeTrue
	case trustScore.LessThanOrEqual(c.FalseThreshold):
		return rumor.OutcomeFalse
	default:
		return rumor.OutcomeUncertain
	}
}

// Band maps a trust score to its display classification.
func (c Config) Band(trustScore decimal.Decimal) rumor.Classification {
	switch {
	case trustScore.GreaterThanOrEqual(c.TrueThreshold):
		return rumor.ClassificationVerifiedTrue
	case trustScore.GreaterThanOrEqual(bandLikelyTrue):
		return rumor.ClassificationLikelyTrue
	case trustScore.GreaterThan(bandUncertainLo):
		return rumor.ClassificationUncertain
	case trustScore.GreaterThan(c.FalseThreshold):
		return rumor.ClassificationLikelyFalse
	default:
		return rumor.ClassificationVerifiedFalse
	}
}

// Ballot is the part of a vote settlement cares about.
type Ballot struct {
	VoterID  uuid.UUID
	VoteType rumor.VoteType
}

// Delta is one reputation change a settlement wants to apply.
type Delta struct {
	UserID    uuid.UUID
	EventType audit.ReputationEventType
	Amount    decimal.Decimal
}

// PlanSettlement lists the reputation changes for an outcome. UNCERTAIN plans nothing.
// The result is ordered by user id so row locks are always taken in the same order.
func (c Config) PlanSettlement(outcome rumor.Outcome, ballots []Ballot, authorID *uuid.UUID) []Delta {
	if outcome != rumor.OutcomeTrue && outcome != rumor.OutcomeFalse {
		return nil
	}
	out := make([]Delta, 0, len(ballots)+1)
	for _, b := range ballots {
		switch {
		case outcome.Matches(b.VoteType):
			out = append(out, Delta{UserID: b.VoterID, EventType: audit.ReputationCorrectVote, Amount: c.Reward})
		case outcome.Opposes(b.VoteType):
			out = append(out, Delta{UserID: b.VoterID, EventType: audit.ReputationIncorrectVote, Amount: c.Penalty.Neg()})
		}
	}
	if authorID != nil && *authorID != uuid.Nil {
		if outcome == rumor.OutcomeTrue {
			out = append(out, Delta{UserID: *authorID, EventType: audit.ReputationAuthorBonus, Amount: c.AuthorBonus})
		} else {
			out = append(out, Delta{UserID: *authorID, EventType: audit.ReputationAuthorPenalty, Amount: c.AuthorPenalty.Neg()})
		}
	}
	filtered := out[:0]
	for _, d := range out {
		if !d.Amount.IsZero() {
			filtered = append(filtered, d)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		if cmp := bytes.Compare(filtered[i].UserID[:], filtered[j].UserID[:]); cmp != 0 {
			return cmp < 0
		}
		return filtered[i].EventType < filtered[j].EventType
	})
	return filtered
}
