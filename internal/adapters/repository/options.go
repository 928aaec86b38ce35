package repository

import "time"

const (
	defaultShardCount    = 16
	defaultRetention     = 7 * 24 * time.Hour
	defaultIdleTTL       = 24 * time.Hour
	defaultSweepInterval = time.Minute
)

// Option configures a MemStore before it starts.
type Option func(*MemStore)

// WithShardCount sets how many lock shards the store uses. Values below one
// are ignored.
func WithShardCount(n int) Option {
	return func(m *MemStore) {
		if n > 0 {
			m.shardCount = n
		}
	}
}

// WithRetention sets how long summaries stay queryable. Velocity windows
// must fit inside this horizon.
func WithRetention(d time.Duration) Option {
	return func(m *MemStore) {
		if d > 0 {
			m.retention = d
		}
	}
}

// WithIdleTTL sets how long an inactive profile survives before eviction.
func WithIdleTTL(d time.Duration) Option {
	return func(m *MemStore) {
		if d > 0 {
			m.idleTTL = d
		}
	}
}

// WithSweepInterval sets the background maintenance cadence.
func WithSweepInterval(d time.Duration) Option {
	return func(m *MemStore) {
		if d > 0 {
			m.sweepInterval = d
		}
	}
}
