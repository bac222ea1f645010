package transcript

import (
	"fmt"
	"math"

	"github.com/unison-academica/records-lookup/internal/domain/shared"
)

// GradingPolicy defines the grading scale and the pass mark as a fraction
// of it.
type GradingPolicy struct {
	ScaleMax     float64
	PassFraction float64
}

// DefaultPolicy is a 0-10 scale passing at 6.0.
var DefaultPolicy = GradingPolicy{ScaleMax: 10, PassFraction: 0.6}

// NewGradingPolicy validates and returns a policy.
func NewGradingPolicy(scaleMax, passFraction float64) (GradingPolicy, error) {
	if !(scaleMax > 0) || math.IsInf(scaleMax, 0) {
		return GradingPolicy{}, shared.ErrInvalidGradingPolicy.Wrap(fmt.Errorf("scale max %v must be positive", scaleMax))
	}
	if !(passFraction > 0 && passFraction <= 1) {
		return GradingPolicy{}, shared.ErrInvalidGradingPolicy.Wrap(fmt.Errorf("pass fraction %v must be in (0, 1]", passFraction))
	}
	return GradingPolicy{ScaleMax: scaleMax, PassFraction: passFraction}, nil
}

// Threshold is the minimum approved grade. Rounded to six decimals so that
// e.g. 10 * 0.7 is exactly 7.
func (p GradingPolicy) Threshold() float64 {
	return math.Round(p.ScaleMax*p.PassFraction*1e6) / 1e6
}

// StatusOf returns Approved iff grade >= Threshold.
func (p GradingPolicy) StatusOf(grade float64) Status {
	if grade >= p.Threshold() {
		return Approved
	}
	return Failed
}
