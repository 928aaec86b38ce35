package repository

import (
	"context"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/okian/vigil/pkg/logger"
	"github.com/okian/vigil/pkg/metrics"
)

type profile struct {
	stats     ProfileStats
	summaries []Summary // ascending by timestamp
}

type shard struct {
	mu       sync.RWMutex
	profiles map[string]*profile
}

// MemStore is a sharded in-memory Store. Each shard owns a disjoint set of
// entity profiles behind its own lock, so recording for one entity never
// contends with reads for another.
type MemStore struct {
	shards        []*shard
	shardCount    int
	retention     time.Duration
	idleTTL       time.Duration
	sweepInterval time.Duration
	sweepDone     chan struct{}
	closeOnce     sync.Once
	log           logger.Logger
}

// NewMemStore builds an empty store and starts its background sweeper.
func NewMemStore(opts ...Option) *MemStore {
	m := &MemStore{
		shardCount:    defaultShardCount,
		retention:     defaultRetention,
		idleTTL:       defaultIdleTTL,
		sweepInterval: defaultSweepInterval,
		sweepDone:     make(chan struct{}),
		log:           logger.Named("repository"),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.shards = make([]*shard, m.shardCount)
	for i := range m.shards {
		m.shards[i] = &shard{profiles: make(map[string]*profile)}
	}
	go m.sweepLoop(m.sweepInterval)
	return m
}

// Record appends the summary and updates the entity's lifetime counters.
// Summaries older than the retention horizon relative to the newest entry
// are pruned on the spot.
func (m *MemStore) Record(_ context.Context, entityID string, s Summary) {
	sh := m.shard(entityID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	p, ok := sh.profiles[entityID]
	if !ok {
		p = &profile{stats: ProfileStats{EntityID: entityID, FirstSeen: s.Timestamp}}
		sh.profiles[entityID] = p
	}

	p.stats.TxnCount++
	p.stats.TotalAmount += s.Amount
	p.stats.TotalSquares += s.Amount * s.Amount
	if s.Timestamp.Before(p.stats.FirstSeen) {
		p.stats.FirstSeen = s.Timestamp
	}
	if s.Timestamp.After(p.stats.LastSeen) {
		p.stats.LastSeen = s.Timestamp
	}

	// Streams are near-ordered; fall back to sorted insert when a late
	// event arrives out of order.
	n := len(p.summaries)
	if n == 0 || !s.Timestamp.Before(p.summaries[n-1].Timestamp) {
		p.summaries = append(p.summaries, s)
	} else {
		i := sort.Search(n, func(i int) bool {
			return p.summaries[i].Timestamp.After(s.Timestamp)
		})
		p.summaries = append(p.summaries, Summary{})
		copy(p.summaries[i+1:], p.summaries[i:])
		p.summaries[i] = s
	}

	p.prune(p.stats.LastSeen.Add(-m.retention))
}

// History returns a copy of the entity's summaries with Timestamp >= since.
func (m *MemStore) History(_ context.Context, entityID string, since time.Time) []Summary {
	sh := m.shard(entityID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	p, ok := sh.profiles[entityID]
	if !ok {
		return nil
	}
	i := sort.Search(len(p.summaries), func(i int) bool {
		return !p.summaries[i].Timestamp.Before(since)
	})
	if i == len(p.summaries) {
		return nil
	}
	out := make([]Summary, len(p.summaries)-i)
	copy(out, p.summaries[i:])
	return out
}

// Stats returns the entity's counters, zero-valued for unknown entities.
func (m *MemStore) Stats(_ context.Context, entityID string) ProfileStats {
	sh := m.shard(entityID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	if p, ok := sh.profiles[entityID]; ok {
		return p.stats
	}
	return ProfileStats{EntityID: entityID}
}

// PairCount counts retained summaries of entityID involving counterpart.
func (m *MemStore) PairCount(_ context.Context, entityID, counterpart string) int {
	sh := m.shard(entityID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	p, ok := sh.profiles[entityID]
	if !ok {
		return 0
	}
	count := 0
	for _, s := range p.summaries {
		if s.Counterpart == counterpart {
			count++
		}
	}
	return count
}

// Count returns the number of tracked profiles across all shards.
func (m *MemStore) Count(_ context.Context) int {
	total := 0
	for _, sh := range m.shards {
		sh.mu.RLock()
		total += len(sh.profiles)
		sh.mu.RUnlock()
	}
	return total
}

// HistorySize returns the number of retained summaries across all profiles.
func (m *MemStore) HistorySize(_ context.Context) int {
	total := 0
	for _, sh := range m.shards {
		sh.mu.RLock()
		for _, p := range sh.profiles {
			total += len(p.summaries)
		}
		sh.mu.RUnlock()
	}
	return total
}

// Close stops the background sweeper. Data remains readable after Close.
func (m *MemStore) Close() error {
	m.closeOnce.Do(func() { close(m.sweepDone) })
	return nil
}

func (m *MemStore) shard(entityID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(entityID))
	return m.shards[int(h.Sum32())%len(m.shards)]
}

func (m *MemStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.sweepDone:
			return
		case <-ticker.C:
			m.sweep(time.Now())
		}
	}
}

// sweep prunes aged summaries against wall-clock time and evicts profiles
// whose last activity predates the idle TTL, then refreshes gauges.
func (m *MemStore) sweep(now time.Time) {
	cutoff := now.Add(-m.retention)
	idleBefore := now.Add(-m.idleTTL)

	evicted := 0
	entities := 0
	entries := 0
	for _, sh := range m.shards {
		sh.mu.Lock()
		for id, p := range sh.profiles {
			if p.stats.LastSeen.Before(idleBefore) {
				delete(sh.profiles, id)
				evicted++
				continue
			}
			p.prune(cutoff)
			entries += len(p.summaries)
		}
		entities += len(sh.profiles)
		sh.mu.Unlock()
	}

	metrics.RecordStoreSweep()
	metrics.UpdateEntitiesTracked(entities)
	metrics.UpdateHistoryEntries(entries)
	if evicted > 0 {
		metrics.RecordEntitiesEvicted(evicted)
		m.log.Debug(context.Background(), "evicted idle entities",
			logger.Int("evicted", evicted),
			logger.Int("remaining", entities))
	}
}

// prune drops summaries strictly older than cutoff. Caller holds the shard
// lock. The retained tail is copied so the backing array does not pin
// pruned entries.
func (p *profile) prune(cutoff time.Time) {
	i := sort.Search(len(p.summaries), func(i int) bool {
		return !p.summaries[i].Timestamp.Before(cutoff)
	})
	if i == 0 {
		return
	}
	kept := make([]Summary, len(p.summaries)-i)
	copy(kept, p.summaries[i:])
	p.summaries = kept
}
