package scoring

import "context"

// Scorer maps a feature vector to a probability-like score in [0, 1].
// Implementations must be safe for concurrent use and deterministic: the
// same vector always yields the same score.
type Scorer interface {
	Name() string
	Score(ctx context.Context, vec []float64) (float64, error)
}
