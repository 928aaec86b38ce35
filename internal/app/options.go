package app

import (
	"github.com/okian/vigil/internal/adapters/repository"
	"github.com/okian/vigil/internal/domain/scoring"
)

// Option overrides a Service dependency before construction finishes.
type Option func(*Service)

// WithStore replaces the default in-memory history store.
func WithStore(store repository.Store) Option {
	return func(s *Service) { s.store = store }
}

// WithScorers replaces both model scorers. Used by tests that need fixed
// scores instead of real models.
func WithScorers(supervised, anomaly scoring.Scorer) Option {
	return func(s *Service) {
		s.supervised = supervised
		s.anomaly = anomaly
	}
}
