package revokedtokens

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// positiveHitTTL bounds how long a hit read from the backing store is kept,
// since its expiry is not known at that point.
const positiveHitTTL = time.Minute

// CachedRepository remembers positive answers of the wrapped repository.
// A revocation never goes away before the token expires, so a cached
// "revoked" stays true for the cache entry's lifetime. Negative answers are
// never cached and always reach the backing store.
type CachedRepository struct {
	next  Repository
	cache *ristretto.Cache[string, struct{}]
	now   func() time.Time
}

// CacheConfig sizes the positive-hit cache.
type CacheConfig struct {
	NumCounters int64
	MaxCost     int64
}

// DefaultCacheConfig holds roughly 100k revoked tokens.
var DefaultCacheConfig = CacheConfig{NumCounters: 1_000_000, MaxCost: 100_000}

func NewCachedRepository(next Repository, cfg CacheConfig) (*CachedRepository, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, struct{}]{
		NumCounters:        cfg.NumCounters,
		MaxCost:            cfg.MaxCost,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize revocation cache: %w", err)
	}
	return &CachedRepository{next: next, cache: cache, now: time.Now}, nil
}

func (r *CachedRepository) remember(digest string, expiresAt time.Time) {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return
	}
	if r.cache.SetWithTTL(digest, struct{}{}, 1, ttl) {
		r.cache.Wait()
	}
}

func (r *CachedRepository) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	if err := r.next.Revoke(ctx, token, expiresAt); err != nil {
		return err
	}
	r.remember(Digest(token), expiresAt)
	return nil
}

func (r *CachedRepository) IsRevoked(ctx context.Context, token string) (bool, error) {
	d := Digest(token)
	if _, ok := r.cache.Get(d); ok {
		return true, nil
	}

	revoked, err := r.next.IsRevoked(ctx, token)
	if err != nil || !revoked {
		return revoked, err
	}
	r.remember(d, r.now().Add(positiveHitTTL))
	return true, nil
}

func (r *CachedRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.next.PurgeExpired(ctx, now)
}

// Close releases the cache. The backing store stays open.
func (r *CachedRepository) Close() error {
	r.cache.Close()
	return nil
}
