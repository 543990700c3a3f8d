package trust

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds every tunable of scoring and settlement.
type Config struct {
	// MaturityThreshold is the proof-vote count at which a proof starts counting toward P.
	MaturityThreshold int `yaml:"maturity_threshold"`

	MomentumWindow            time.Duration   `yaml:"momentum_window"`
	MomentumActivityThreshold int             `yaml:"momentum_activity_threshold"`
	MomentumHighConsensus     decimal.Decimal `yaml:"momentum_high_consensus"`
	MomentumLowConsensus      decimal.Decimal `yaml:"momentum_low_consensus"`
	MomentumBoost             decimal.Decimal `yaml:"momentum_boost"`

	Reward        decimal.Decimal `yaml:"reward"`
	Penalty       decimal.Decimal `yaml:"penalty"`
	AuthorBonus   decimal.Decimal `yaml:"author_bonus"`
	AuthorPenalty decimal.Decimal `yaml:"author_penalty"`

	TrueThreshold  decimal.Decimal `yaml:"true_threshold"`
	FalseThreshold decimal.Decimal `yaml:"false_threshold"`

	MaxVoteChanges int `yaml:"max_vote_changes"`

	ReputationFloor   decimal.Decimal `yaml:"reputation_floor"`
	ReputationCeiling decimal.Decimal `yaml:"reputation_ceiling"`
}

func DefaultConfig() Config {
	return Config{
		MaturityThreshold:         10,
		MomentumWindow:            6 * time.Hour,
		MomentumActivityThreshold: 10,
		MomentumHighConsensus:     decimal.RequireFromString("0.70"),
		MomentumLowConsensus:      decimal.RequireFromString("0.30"),
		MomentumBoost:             decimal.RequireFromString("0.80"),
		Reward:                    decimal.RequireFromString("2.00"),
		Penalty:                   decimal.RequireFromString("5.00"),
		AuthorBonus:               decimal.RequireFromString("5.00"),
		AuthorPenalty:             decimal.RequireFromString("10.00"),
		TrueThreshold:             decimal.RequireFromString("0.80"),
		FalseThreshold:            decimal.RequireFromString("0.20"),
		MaxVoteChanges:            3,
		ReputationFloor:           decimal.Zero,
		ReputationCeiling:         decimal.NewFromInt(100),
	}
}

var one = decimal.NewFromInt(1)

func inUnit(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(one)
}

// Validate rejects configurations that would break score or ledger invariants.
func (c Config) Validate() error {
	var errs []error
	if c.MaturityThreshold < 1 {
		errs = append(errs, fmt.Errorf("maturity_threshold must be >= 1, got %d", c.MaturityThreshold))
	}
	if c.MomentumWindow <= 0 {
		errs = append(errs, fmt.Errorf("momentum_window must be positive, got %s", c.MomentumWindow))
	}
	if c.MomentumActivityThreshold < 0 {
		errs = append(errs, fmt.Errorf("momentum_activity_threshold must be >= 0, got %d", c.MomentumActivityThreshold))
	}
	if c.MaxVoteChanges < 0 {
		errs = append(errs, fmt.Errorf("max_vote_changes must be >= 0, got %d", c.MaxVoteChanges))
	}
	for name, v := range map[string]decimal.Decimal{
		"momentum_high_consensus": c.MomentumHighConsensus,
		"momentum_low_consensus":  c.MomentumLowConsensus,
		"momentum_boost":          c.MomentumBoost,
		"true_threshold":          c.TrueThreshold,
		"false_threshold":         c.FalseThreshold,
	} {
		if !inUnit(v) {
			errs = append(errs, fmt.Errorf("%s must be within [0,1], got %s", name, v))
		}
	}
	if c.MomentumBoost.LessThan(neutral) {
		errs = append(errs, fmt.Errorf("momentum_boost must be >= %s, got %s", neutral, c.MomentumBoost))
	}
	if !c.FalseThreshold.LessThan(c.TrueThreshold) {
		errs = append(errs, fmt.Errorf("false_threshold (%s) must be below true_threshold (%s)", c.FalseThreshold, c.TrueThreshold))
	}
	for name, v := range map[string]decimal.Decimal{
		"reward":         c.Reward,
		"penalty":        c.Penalty,
		"author_bonus":   c.AuthorBonus,
		"author_penalty": c.AuthorPenalty,
	} {
		if v.IsNegative() {
			errs = append(errs, fmt.Errorf("%s must be >= 0, got %s", name, v))
		}
	}
	if c.ReputationFloor.IsNegative() || !c.ReputationFloor.LessThan(c.ReputationCeiling) {
		errs = append(errs, fmt.Errorf("reputation bounds [%s,%s] are invalid", c.ReputationFloor, c.ReputationCeiling))
	}
	return errors.Join(errs...)
}
