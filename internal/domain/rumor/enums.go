package rumor

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// VoteType is a participant's position on a rumor.
type VoteType string

const (
	VoteVerify    VoteType = "VERIFY"
	VoteUncertain VoteType = "UNCERTAIN"
	VoteDispute   VoteType = "DISPUTE"
)

var (
	valueTrue      = decimal.NewFromInt(1)
	valueUncertain = decimal.RequireFromString("0.5")
	valueFalse     = decimal.Zero
)

// ParseVoteType accepts the canonical tag in any case. Unknown tags are an error.
func ParseVoteType(raw string) (VoteType, error) {
	switch VoteType(strings.ToUpper(strings.TrimSpace(raw))) {
	case VoteVerify:
		return VoteVerify, nil
	case VoteUncertain:
		return VoteUncertain, nil
	case VoteDispute:
		return VoteDispute, nil
	default:
		return "", fmt.Errorf("unknown vote type %q", raw)
	}
}

// Value maps the vote to its numeric position in [0,1].
func (t VoteType) Value() (decimal.Decimal, error) {
	switch t {
	case VoteVerify:
		return valueTrue, nil
	case VoteUncertain:
		return valueUncertain, nil
	case VoteDispute:
		return valueFalse, nil
	default:
		return decimal.Zero, fmt.Errorf("unknown vote type %q", string(t))
	}
}

// ProofVoteType is a participant's position on a proof.
type ProofVoteType string

const (
	ProofVoteSupports  ProofVoteType = "SUPPORTS"
	ProofVoteUncertain ProofVoteType = "UNCERTAIN"
	ProofVoteRefutes   ProofVoteType = "REFUTES"
)

func ParseProofVoteType(raw string) (ProofVoteType, error) {
	switch ProofVoteType(strings.ToUpper(strings.TrimSpace(raw))) {
	case ProofVoteSupports:
		return ProofVoteSupports, nil
	case ProofVoteUncertain:
		return ProofVoteUncertain, nil
	case ProofVoteRefutes:
		return ProofVoteRefutes, nil
	default:
		return "", fmt.Errorf("unknown proof vote type %q", raw)
	}
}

func (t ProofVoteType) Value() (decimal.Decimal, error) {
	switch t {
	case ProofVoteSupports:
		return valueTrue, nil
	case ProofVoteUncertain:
		return valueUncertain, nil
	case ProofVoteRefutes:
		return valueFalse, nil
	default:
		return decimal.Zero, fmt.Errorf("unknown proof vote type %q", string(t))
	}
}

// Classification is the display band of a rumor's trust score. It is never read by settlement.
type Classification string

const (
	ClassificationVerifiedTrue  Classification = "VERIFIED_TRUE"
	ClassificationLikelyTrue    Classification = "LIKELY_TRUE"
	ClassificationUncertain     Classification = "UNCERTAIN"
	ClassificationLikelyFalse   Classification = "LIKELY_FALSE"
	ClassificationVerifiedFalse Classification = "VERIFIED_FALSE"
)

// Outcome is the terminal verdict written at settlement.
type Outcome string

const (
	OutcomeTrue           Outcome = "TRUE"
	OutcomeFalse          Outcome = "FALSE"
	OutcomeUncertain      Outcome = "UNCERTAIN"
	OutcomeAlreadySettled Outcome = "ALREADY_SETTLED"
)

// Matches reports whether a vote sided with the outcome. UNCERTAIN votes and
// UNCERTAIN outcomes never match nor oppose anything.
func (o Outcome) Matches(v VoteType) bool {
	return (o == OutcomeTrue && v == VoteVerify) || (o == OutcomeFalse && v == VoteDispute)
}

// Opposes reports whether a vote sided against the outcome.
func (o Outcome) Opposes(v VoteType) bool {
	return (o == OutcomeTrue && v == VoteDispute) || (o == OutcomeFalse && v == VoteVerify)
}

type EvidenceType string

const (
	EvidencePhoto    EvidenceType = "photo"
	EvidenceLink     EvidenceType = "link"
	EvidenceDocument EvidenceType = "document"
)

func ParseEvidenceType(raw string) (EvidenceType, error) {
	switch EvidenceType(strings.ToLower(strings.TrimSpace(raw))) {
	case EvidencePhoto:
		return EvidencePhoto, nil
	case EvidenceLink:
		return EvidenceLink, nil
	case EvidenceDocument:
		return EvidenceDocument, nil
	default:
		return "", fmt.Errorf("unknown evidence type %q", raw)
	}
}

type ProofType string

const (
	ProofText     ProofType = "text"
	ProofPhoto    ProofType = "photo"
	ProofVideo    ProofType = "video"
	ProofLink     ProofType = "link"
	ProofDocument ProofType = "document"
)

func ParseProofType(raw string) (ProofType, error) {
	switch ProofType(strings.ToLower(strings.TrimSpace(raw))) {
	case ProofText:
		return ProofText, nil
	case ProofPhoto:
		return ProofPhoto, nil
	case ProofVideo:
		return ProofVideo, nil
	case ProofLink:
		return ProofLink, nil
	case ProofDocument:
		return ProofDocument, nil
	default:
		return "", fmt.Errorf("unknown proof type %q", raw)
	}
}
