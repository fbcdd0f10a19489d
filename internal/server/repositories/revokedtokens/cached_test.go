package revokedtokens

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/catalogauth/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRepo struct {
	*MemoryRepository
	lookups atomic.Int32
	fail    error
}

func (c *countingRepo) IsRevoked(ctx context.Context, token string) (bool, error) {
	c.lookups.Add(1)
	if c.fail != nil {
		return false, c.fail
	}
	return c.MemoryRepository.IsRevoked(ctx, token)
}

func newCached(t *testing.T) (*CachedRepository, *countingRepo) {
	t.Helper()
	backing := &countingRepo{MemoryRepository: NewMemoryRepository()}
	repo, err := NewCachedRepository(backing, CacheConfig{NumCounters: 1000, MaxCost: 100})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo, backing
}

func TestCachedNegativeAlwaysHitsStore(t *testing.T) {
	repo, backing := newCached(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		revoked, err := repo.IsRevoked(ctx, "tok")
		require.NoError(t, err)
		assert.False(t, revoked)
	}
	assert.EqualValues(t, 3, backing.lookups.Load())
}

func TestCachedRevokeIsServedFromCache(t *testing.T) {
	repo, backing := newCached(t)
	ctx := context.Background()

	require.NoError(t, repo.Revoke(ctx, "tok", time.Now().Add(time.Hour)))

	revoked, err := repo.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Zero(t, backing.lookups.Load())
}

func TestCachedPositiveFromStoreIsRemembered(t *testing.T) {
	repo, backing := newCached(t)
	ctx := context.Background()

	// revoked by another instance, straight in the shared store
	require.NoError(t, backing.Revoke(ctx, "tok", time.Now().Add(time.Hour)))

	revoked, err := repo.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = repo.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.EqualValues(t, 1, backing.lookups.Load())
}

func TestCachedStoreFailurePropagates(t *testing.T) {
	repo, backing := newCached(t)
	backing.fail = unavailable("is revoked", errors.New("down"))

	revoked, err := repo.IsRevoked(context.Background(), "tok")
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.False(t, revoked)
}

func TestCachedPurgePassesThrough(t *testing.T) {
	repo, backing := newCached(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, backing.Revoke(ctx, "old", now.Add(-time.Minute)))
	n, err := repo.PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
