package scoring

import (
	"context"
	"fmt"

	"github.com/okian/vigil/internal/domain/feature"
)

// AutoencoderScorer measures how poorly the autoencoder reconstructs a
// standardized vector. Inputs the model has learned to compress come back
// nearly intact; unusual ones do not.
type AutoencoderScorer struct {
	model AnomalyModel
}

// NewAutoencoderScorer validates the model and wraps it in a scorer.
func NewAutoencoderScorer(m AnomalyModel) (*AutoencoderScorer, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &AutoencoderScorer{model: m}, nil
}

func (s *AutoencoderScorer) Name() string { return "anomaly" }

// Score standardizes the vector, runs the forward pass, and returns the
// mean squared reconstruction error normalized by the model threshold,
// capped at one.
func (s *AutoencoderScorer) Score(_ context.Context, vec []float64) (float64, error) {
	if len(vec) != feature.Count {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrVectorWidth, len(vec), feature.Count)
	}

	z := make([]float64, feature.Count)
	for i, v := range vec {
		z[i] = (v - s.model.Means[i]) / s.model.Stds[i]
	}

	out := z
	for _, layer := range s.model.Layers {
		out = layer.forward(out)
	}

	var mse float64
	for i := range z {
		d := out[i] - z[i]
		mse += d * d
	}
	mse /= float64(feature.Count)

	score := mse / s.model.Threshold
	if score > 1 {
		score = 1
	}
	return score, nil
}

func (l Layer) forward(in []float64) []float64 {
	out := make([]float64, len(l.Weights))
	for o, row := range l.Weights {
		sum := l.Biases[o]
		for i, w := range row {
			sum += w * in[i]
		}
		if l.Activation == "relu" && sum < 0 {
			sum = 0
		}
		out[o] = sum
	}
	return out
}
