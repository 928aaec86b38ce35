// Package velocity derives sliding-window activity aggregates from entity
// history.
package velocity

import (
	"context"
	"time"

	"github.com/okian/vigil/internal/adapters/repository"
)

// Canonical windows, shortest first.
const (
	WindowHour = time.Hour
	WindowDay  = 24 * time.Hour
	WindowWeek = 7 * 24 * time.Hour
)

// WindowStats aggregates the transactions inside one sliding window.
type WindowStats struct {
	Count int
	Sum   float64
	Avg   float64
}

// Profile carries the aggregates for all canonical windows, evaluated at a
// single point in time.
type Profile struct {
	Hour WindowStats
	Day  WindowStats
	Week WindowStats
}

// Calculator computes velocity profiles from a history store. It holds no
// state of its own; two calls with the same history and asOf yield the
// same profile.
type Calculator struct {
	store repository.Store
}

// NewCalculator builds a calculator over the given store.
func NewCalculator(store repository.Store) *Calculator {
	return &Calculator{store: store}
}

// Compute evaluates all windows for the entity as of the given instant.
// A window covers (asOf-window, asOf), open at both ends: an entry exactly
// one window old has slid out, and an entry stamped at asOf itself does not
// count toward its own windows. Entities with no qualifying history produce
// all-zero stats.
func (c *Calculator) Compute(ctx context.Context, entityID string, asOf time.Time) Profile {
	// One store read covers all windows; the week window subsumes the rest.
	history := c.store.History(ctx, entityID, asOf.Add(-WindowWeek))

	var p Profile
	for _, s := range history {
		if !s.Timestamp.Before(asOf) || !s.Timestamp.After(asOf.Add(-WindowWeek)) {
			continue
		}
		p.Week.Count++
		p.Week.Sum += s.Amount
		if s.Timestamp.After(asOf.Add(-WindowDay)) {
			p.Day.Count++
			p.Day.Sum += s.Amount
		}
		if s.Timestamp.After(asOf.Add(-WindowHour)) {
			p.Hour.Count++
			p.Hour.Sum += s.Amount
		}
	}
	p.Hour.finish()
	p.Day.finish()
	p.Week.finish()
	return p
}

func (w *WindowStats) finish() {
	if w.Count > 0 {
		w.Avg = w.Sum / float64(w.Count)
	}
}
