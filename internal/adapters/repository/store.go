// Package repository defines the entity history store interface and errors.
package repository

import (
	"context"
	"math"
	"time"
)

// Summary is the retained record of one past transaction for an entity.
// Counterpart is the other side of the transaction: the merchant for user
// profiles, the user for merchant profiles.
type Summary struct {
	Timestamp   time.Time
	Amount      float64
	Counterpart string
}

// ProfileStats carries an entity's cumulative counters. Counters cover the
// entity's full lifetime; the summary sequence is bounded by retention.
type ProfileStats struct {
	EntityID     string
	TxnCount     int64
	TotalAmount  float64
	TotalSquares float64
	FirstSeen    time.Time
	LastSeen     time.Time
}

// AvgAmount returns the lifetime mean amount, zero for an empty profile.
func (p ProfileStats) AvgAmount() float64 {
	if p.TxnCount == 0 {
		return 0
	}
	return p.TotalAmount / float64(p.TxnCount)
}

// StdDevAmount returns the lifetime population standard deviation of
// amounts, zero for fewer than two observations.
func (p ProfileStats) StdDevAmount() float64 {
	if p.TxnCount < 2 {
		return 0
	}
	mean := p.AvgAmount()
	variance := p.TotalSquares/float64(p.TxnCount) - mean*mean
	if variance <= 0 {
		return 0
	}
	return math.Sqrt(variance)
}

// Store provides append-only access to per-entity transaction history.
// Unknown entities behave as empty profiles; a first-time entity must never
// fail a read, only produce cold values.
type Store interface {
	// Record appends a summary to the entity's history, creating the
	// profile on first sighting. It never fails.
	Record(ctx context.Context, entityID string, s Summary)

	// History returns the entity's summaries with Timestamp >= since, in
	// ascending timestamp order. Unknown entities yield an empty slice.
	History(ctx context.Context, entityID string, since time.Time) []Summary

	// Stats returns the entity's cumulative counters. Unknown entities
	// yield zero-valued stats carrying the requested id.
	Stats(ctx context.Context, entityID string) ProfileStats

	// PairCount reports how many retained summaries of entityID involve
	// the given counterpart.
	PairCount(ctx context.Context, entityID, counterpart string) int

	// Count returns the number of profiles currently tracked.
	Count(ctx context.Context) int

	// HistorySize returns the number of summaries retained across all
	// profiles.
	HistorySize(ctx context.Context) int

	// Close stops background maintenance.
	Close() error
}
