package revokedtokens

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const memoryShards = 32

type memoryShard struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

// MemoryRepository is a process-local revocation list split into
// independently locked shards.
type MemoryRepository struct {
	shards [memoryShards]*memoryShard
}

func NewMemoryRepository() *MemoryRepository {
	r := &MemoryRepository{}
	for i := range r.shards {
		r.shards[i] = &memoryShard{entries: make(map[string]time.Time)}
	}
	return r
}

func (r *MemoryRepository) shard(digest string) *memoryShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(digest))
	return r.shards[h.Sum32()%memoryShards]
}

func (r *MemoryRepository) Revoke(_ context.Context, token string, expiresAt time.Time) error {
	d := Digest(token)
	s := r.shard(d)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[d]; !ok {
		s.entries[d] = expiresAt
	}
	return nil
}

func (r *MemoryRepository) IsRevoked(_ context.Context, token string) (bool, error) {
	d := Digest(token)
	s := r.shard(d)

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[d]
	return ok, nil
}

func (r *MemoryRepository) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for _, s := range r.shards {
		s.mu.Lock()
		for d, exp := range s.entries {
			if exp.Before(now) {
				delete(s.entries, d)
				n++
			}
		}
		s.mu.Unlock()
	}
	return n, nil
}

