package trust

import (
	"math"

	"github.com/shopspring/decimal"
)

const (
	// ScoreScale is the number of decimal places kept for V, P, M, proof scores and weights.
	ScoreScale int32 = 4
	// TrustScale is the scale of the composite trust score.
	TrustScale int32 = 5
	// ReputationScale is the scale of reputation balances and deltas.
	ReputationScale int32 = 2
)

var (
	neutral      = decimal.RequireFromString("0.50")
	weightV      = decimal.RequireFromString("0.50")
	weightP      = decimal.RequireFromString("0.30")
	weightM      = decimal.RequireFromString("0.20")
	reputationLo = decimal.Zero
	reputationHi = decimal.NewFromInt(100)
)

// Neutral is the prior used when a sub-score has no evidence.
func Neutral() decimal.Decimal { return neutral }

// Weight converts a reputation into a vote weight: sqrt(reputation)/10,
// with reputation clamped into [0,100] first.
func Weight(reputation decimal.Decimal) decimal.Decimal {
	rep := Clamp(reputation, reputationLo, reputationHi)
	f, _ := rep.Float64()
	return decimal.NewFromFloat(math.Sqrt(f) / 10).Round(ScoreScale)
}

// Clamp bounds d into [lo,hi].
func Clamp(d, lo, hi decimal.Decimal) decimal.Decimal {
	if d.LessThan(lo) {
		return lo
	}
	if d.GreaterThan(hi) {
		return hi
	}
	return d
}

// Weighted is one (value, weight) observation.
type Weighted struct {
	Value  decimal.Decimal
	Weight decimal.Decimal
}

// WeightedAverage returns Σ(v·w)/Σw rounded to ScoreScale. ok is false when
// there are no observations or the total weight is zero.
func WeightedAverage(obs []Weighted) (avg decimal.Decimal, ok bool) {
	num := decimal.Zero
	den := decimal.Zero
	for _, o := range obs {
		num = num.Add(o.Value.Mul(o.Weight))
		den = den.Add(o.Weight)
	}
	if !den.IsPositive() {
		return decimal.Zero, false
	}
	return num.DivRound(den, ScoreScale), true
}

// Mean returns the arithmetic mean rounded to ScoreScale; ok is false for no values.
func Mean(values []decimal.Decimal) (decimal.Decimal, bool) {
	if len(values) == 0 {
		return decimal.Zero, false
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(v)
	}
	return sum.DivRound(decimal.NewFromInt(int64(len(values))), ScoreScale), true
}

// Composite combines the sub-scores: 0.50V + 0.30P + 0.20M. With 4-place inputs
// the result is exact at TrustScale.
func Composite(v, p, m decimal.Decimal) decimal.Decimal {
	return weightV.Mul(v).Add(weightP.Mul(p)).Add(weightM.Mul(m)).Round(TrustScale)
}
