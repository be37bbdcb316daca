package dedup

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

// memoryIndex is a sharded in-process Index. Each shard holds its own lock so
// concurrent writers on different keys rarely contend, while check-and-insert
// for one key stays a single critical section.
type memoryIndex struct {
	shards []*shard
	done   chan struct{}
	once   sync.Once
}

type shard struct {
	mu sync.Mutex
	m  map[string]time.Time // key -> expiry
}

// NewMemoryIndex creates an in-memory Index with the given shard count.
// Expired keys are purged lazily on access and by a background sweep.
func NewMemoryIndex(shards int) Index {
	if shards <= 0 {
		shards = 16
	}
	idx := &memoryIndex{
		shards: make([]*shard, shards),
		done:   make(chan struct{}),
	}
	for i := range idx.shards {
		idx.shards[i] = &shard{m: make(map[string]time.Time)}
	}
	go idx.sweepLoop()
	return idx
}

func (idx *memoryIndex) InsertIfAbsent(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s := idx.shardFor(key)
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if exp, ok := s.m[key]; ok {
		if now.Before(exp) {
			return false, nil
		}
		// Expired entry: fall through and re-insert.
	}
	s.m[key] = now.Add(ttl)
	return true, nil
}

func (idx *memoryIndex) Close() error {
	idx.once.Do(func() { close(idx.done) })
	return nil
}

func (idx *memoryIndex) shardFor(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return idx.shards[h.Sum32()%uint32(len(idx.shards))]
}

// sweepLoop periodically removes expired entries so long-idle keys do not
// accumulate between lazy purges.
func (idx *memoryIndex) sweepLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-idx.done:
			return
		case <-ticker.C:
			idx.sweep()
		}
	}
}

func (idx *memoryIndex) sweep() {
	now := time.Now()
	for _, s := range idx.shards {
		s.mu.Lock()
		for key, exp := range s.m {
			if now.After(exp) {
				delete(s.m, key)
			}
		}
		s.mu.Unlock()
	}
}
