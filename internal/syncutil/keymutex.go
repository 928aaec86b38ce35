// Package syncutil provides small synchronization helpers.
package syncutil

import (
	"hash/fnv"
	"sort"
	"sync"
)

const shardCount = 256

// KeyMutex provides a fixed-size pool of mutexes keyed by string. Memory use
// is bounded regardless of how many keys are seen, at the cost of occasional
// false sharing between keys that hash to the same shard.
type KeyMutex struct {
	shards [shardCount]sync.Mutex
}

// Lock acquires the mutex for the given key and returns an unlock function.
func (k *KeyMutex) Lock(key string) func() {
	mu := &k.shards[k.shard(key)]
	mu.Lock()
	return mu.Unlock
}

// LockAll acquires the mutexes for every key and returns a single unlock
// function. Shard indices are deduplicated and locked in ascending order so
// that concurrent callers holding overlapping key sets cannot deadlock.
func (k *KeyMutex) LockAll(keys ...string) func() {
	idx := make([]int, 0, len(keys))
	seen := make(map[int]struct{}, len(keys))
	for _, key := range keys {
		i := k.shard(key)
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		idx = append(idx, i)
	}
	sort.Ints(idx)

	for _, i := range idx {
		k.shards[i].Lock()
	}
	return func() {
		for j := len(idx) - 1; j >= 0; j-- {
			k.shards[idx[j]].Unlock()
		}
	}
}

func (k *KeyMutex) shard(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % shardCount)
}
