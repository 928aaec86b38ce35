// Package scoring hosts the two model scorers and the bundle format they
// are loaded from.
package scoring

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/okian/vigil/internal/domain/feature"
)

// Bundle is the serialized form of both models. Bundles are produced by an
// offline training pipeline and consumed here read-only.
type Bundle struct {
	Version    string          `json:"version"`
	Supervised SupervisedModel `json:"supervised"`
	Anomaly    AnomalyModel    `json:"anomaly"`
}

// SupervisedModel is an additive ensemble of decision trees over the raw
// feature vector. Tree margins plus BaseScore form a logit.
type SupervisedModel struct {
	BaseScore float64 `json:"base_score"`
	Trees     []Tree  `json:"trees"`
}

// Tree is a binary decision tree in node-array form. Node zero is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node is either an internal split (Feature >= 0) or a leaf (Feature < 0).
// Splits route vec[Feature] < Threshold to Left, otherwise to Right.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// AnomalyModel is a dense autoencoder over the standardized feature vector.
// Reconstruction error is normalized by Threshold and capped at one.
type AnomalyModel struct {
	Means     []float64 `json:"means"`
	Stds      []float64 `json:"stds"`
	Layers    []Layer   `json:"layers"`
	Threshold float64   `json:"threshold"`
}

// Layer is one dense layer. Weights is indexed [output][input].
type Layer struct {
	Weights    [][]float64 `json:"weights"`
	Biases     []float64   `json:"biases"`
	Activation string      `json:"activation"` // "relu" or "linear"
}

// LoadBundle reads and validates a bundle from a JSON file.
func LoadBundle(path string) (*Bundle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadBundle, err)
	}
	var b Bundle
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadBundle, err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Validate checks the bundle against the feature layout. A bundle that
// fails here must never reach the scoring path.
func (b *Bundle) Validate() error {
	if err := b.Supervised.validate(); err != nil {
		return err
	}
	return b.Anomaly.validate()
}

func (m *SupervisedModel) validate() error {
	if len(m.Trees) == 0 {
		return fmt.Errorf("%w: supervised model has no trees", ErrInvalidBundle)
	}
	for ti, tree := range m.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("%w: tree %d is empty", ErrInvalidBundle, ti)
		}
		for ni, n := range tree.Nodes {
			if n.Feature < 0 {
				continue // leaf
			}
			if n.Feature >= feature.Count {
				return fmt.Errorf("%w: tree %d node %d references feature %d, max %d",
					ErrInvalidBundle, ti, ni, n.Feature, feature.Count-1)
			}
			if n.Left < 0 || n.Left >= len(tree.Nodes) || n.Right < 0 || n.Right >= len(tree.Nodes) {
				return fmt.Errorf("%w: tree %d node %d has out-of-range children",
					ErrInvalidBundle, ti, ni)
			}
			if n.Left <= ni || n.Right <= ni {
				return fmt.Errorf("%w: tree %d node %d children must follow their parent",
					ErrInvalidBundle, ti, ni)
			}
		}
	}
	return nil
}

func (m *AnomalyModel) validate() error {
	if len(m.Means) != feature.Count || len(m.Stds) != feature.Count {
		return fmt.Errorf("%w: standardization vectors must have length %d",
			ErrInvalidBundle, feature.Count)
	}
	for i, s := range m.Stds {
		if s <= 0 {
			return fmt.Errorf("%w: std for feature %d must be positive", ErrInvalidBundle, i)
		}
	}
	if m.Threshold <= 0 {
		return fmt.Errorf("%w: anomaly threshold must be positive", ErrInvalidBundle)
	}
	if len(m.Layers) == 0 {
		return fmt.Errorf("%w: anomaly model has no layers", ErrInvalidBundle)
	}
	width := feature.Count
	for li, layer := range m.Layers {
		if len(layer.Weights) == 0 {
			return fmt.Errorf("%w: layer %d is empty", ErrInvalidBundle, li)
		}
		if len(layer.Biases) != len(layer.Weights) {
			return fmt.Errorf("%w: layer %d bias width mismatch", ErrInvalidBundle, li)
		}
		for oi, row := range layer.Weights {
			if len(row) != width {
				return fmt.Errorf("%w: layer %d output %d expects %d inputs, got %d",
					ErrInvalidBundle, li, oi, width, len(row))
			}
		}
		switch layer.Activation {
		case "relu", "linear":
		default:
			return fmt.Errorf("%w: layer %d has unknown activation %q",
				ErrInvalidBundle, li, layer.Activation)
		}
		width = len(layer.Weights)
	}
	if width != feature.Count {
		return fmt.Errorf("%w: autoencoder output width %d, want %d",
			ErrInvalidBundle, width, feature.Count)
	}
	return nil
}
