package presence

import (
	"context"
	"errors"
	"time"

	"github.com/beka-birhanu/vinom-maze/service/i"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "vinom-maze"

// RedisPresence keeps the member count of every seed in a redis sorted set,
// shared by all server processes pointing at the same redis.
type RedisPresence struct {
	client *redis.Client
	locker *redsync.Redsync
	key    string
	ttl    time.Duration
}

var _ i.Presence = &RedisPresence{}

// NewRedisPresence initializes a RedisPresence with the provided Redis client and TTL.
// The sorted set expires after ttlSeconds without any join or leave.
func NewRedisPresence(client *redis.Client, prefix string, ttlSeconds int) (*RedisPresence, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if prefix == "" {
		prefix = defaultPrefix
	}

	p := &RedisPresence{
		client: client,
		key:    prefix + ":presence",
		ttl:    time.Duration(ttlSeconds) * time.Second,
	}
	pool := goredis.NewPool(client)
	p.locker = redsync.New(pool)
	return p, nil
}

// Joined increments the count of seed.
func (p *RedisPresence) Joined(ctx context.Context, seed string) error {
	return p.withSeedLock(ctx, seed, func() error {
		if err := p.client.ZIncrBy(ctx, p.key, 1, seed).Err(); err != nil {
			return err
		}
		p.refreshTTL(ctx)
		return nil
	})
}

// Left decrements the count of seed and removes the seed once it reaches zero.
func (p *RedisPresence) Left(ctx context.Context, seed string) error {
	return p.withSeedLock(ctx, seed, func() error {
		count, err := p.client.ZIncrBy(ctx, p.key, -1, seed).Result()
		if err != nil {
			return err
		}
		if count <= 0 {
			if err := p.client.ZRem(ctx, p.key, seed).Err(); err != nil {
				return err
			}
		}
		p.refreshTTL(ctx)
		return nil
	})
}

// Busiest returns up to limit seeds with the most members.
func (p *RedisPresence) Busiest(ctx context.Context, limit int64) ([]i.SeedCount, error) {
	if limit <= 0 {
		return []i.SeedCount{}, nil
	}

	entries, err := p.client.ZRevRangeWithScores(ctx, p.key, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}

	counts := make([]i.SeedCount, 0, len(entries))
	for _, e := range entries {
		seed, ok := e.Member.(string)
		if !ok || e.Score <= 0 {
			continue
		}
		counts = append(counts, i.SeedCount{Seed: seed, Members: int64(e.Score)})
	}
	return counts, nil
}

// withSeedLock serializes count updates of one seed across processes, so a
// seed dropping to zero is never removed while another process re-joins it.
func (p *RedisPresence) withSeedLock(ctx context.Context, seed string, fn func() error) error {
	mutex := p.locker.NewMutex(p.key + ":" + seed + ":lock")
	if err := mutex.LockContext(ctx); err != nil {
		return err
	}
	defer func() {
		_, _ = mutex.UnlockContext(context.WithoutCancel(ctx))
	}()

	return fn()
}

func (p *RedisPresence) refreshTTL(ctx context.Context) {
	if p.ttl > 0 {
		_ = p.client.Expire(ctx, p.key, p.ttl).Err()
	}
}
