package revokedtokens

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "auth:revoked:"

// RedisRepository keeps one key per revoked token. Keys expire together with
// the token, so PurgeExpired has nothing to do.
type RedisRepository struct {
	rdb    *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisRepository connects to redisURL (redis://:pass@host:6379/0) and
// pings it once so a bad address fails at startup.
func NewRedisRepository(ctx context.Context, redisURL, prefix string) (*RedisRepository, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, unavailable("ping", err)
	}

	return NewRedisRepositoryFromClient(rdb, prefix), nil
}

func NewRedisRepositoryFromClient(rdb *redis.Client, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisRepository{rdb: rdb, prefix: prefix, now: time.Now}
}

func (r *RedisRepository) key(token string) string { return r.prefix + Digest(token) }

func (r *RedisRepository) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		// already expired, the codec rejects it on its own
		return nil
	}

	if err := r.rdb.Set(ctx, r.key(token), expiresAt.Unix(), ttl).Err(); err != nil {
		return unavailable("revoke", err)
	}
	return nil
}

func (r *RedisRepository) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := r.rdb.Exists(ctx, r.key(token)).Result()
	if err != nil {
		return false, unavailable("is revoked", err)
	}
	return n > 0, nil
}

func (r *RedisRepository) PurgeExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (r *RedisRepository) Close() error { return r.rdb.Close() }
