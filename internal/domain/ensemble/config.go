// Package ensemble blends the model scores into a verdict and derives the
// human-readable risk factors that explain it.
package ensemble

import (
	"errors"
	"fmt"
	"math"
)

const weightTolerance = 1e-6

var (
	ErrBadWeights    = errors.New("invalid ensemble weights")
	ErrBadThresholds = errors.New("invalid decision thresholds")
)

// Config carries the blend weights and decision thresholds. A Config must
// pass Validate before it reaches the decision path; a bad one is a fatal
// startup error, never a per-transaction one.
type Config struct {
	SupervisedWeight  float64
	AnomalyWeight     float64
	FraudThreshold    float64
	HighRiskThreshold float64
}

// Validate rejects weights that do not form a convex combination and
// thresholds that are out of range or out of order.
func (c Config) Validate() error {
	if c.SupervisedWeight < 0 || c.AnomalyWeight < 0 {
		return fmt.Errorf("%w: weights must be non-negative", ErrBadWeights)
	}
	if math.Abs(c.SupervisedWeight+c.AnomalyWeight-1) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %v, want 1",
			ErrBadWeights, c.SupervisedWeight+c.AnomalyWeight)
	}
	if c.FraudThreshold <= 0 || c.FraudThreshold >= 1 {
		return fmt.Errorf("%w: fraud threshold %v outside (0, 1)",
			ErrBadThresholds, c.FraudThreshold)
	}
	if c.HighRiskThreshold <= 0 || c.HighRiskThreshold >= 1 {
		return fmt.Errorf("%w: high-risk threshold %v outside (0, 1)",
			ErrBadThresholds, c.HighRiskThreshold)
	}
	if c.HighRiskThreshold <= c.FraudThreshold {
		return fmt.Errorf("%w: high-risk threshold %v must exceed fraud threshold %v",
			ErrBadThresholds, c.HighRiskThreshold, c.FraudThreshold)
	}
	return nil
}
