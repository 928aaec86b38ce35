package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/vigil/internal/domain/feature"
)

// TreeScorer evaluates an additive tree ensemble and squashes the summed
// margin through a sigmoid.
type TreeScorer struct {
	model SupervisedModel
}

// NewTreeScorer validates the model and wraps it in a scorer.
func NewTreeScorer(m SupervisedModel) (*TreeScorer, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &TreeScorer{model: m}, nil
}

func (s *TreeScorer) Name() string { return "supervised" }

// Score sums the base margin and every tree's leaf margin for the vector.
func (s *TreeScorer) Score(_ context.Context, vec []float64) (float64, error) {
	if len(vec) != feature.Count {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrVectorWidth, len(vec), feature.Count)
	}
	margin := s.model.BaseScore
	for _, tree := range s.model.Trees {
		margin += tree.eval(vec)
	}
	return sigmoid(margin), nil
}

// eval walks from the root to a leaf. Validation guarantees children always
// follow their parent, so the walk terminates.
func (t Tree) eval(vec []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if vec[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
