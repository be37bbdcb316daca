package dedup

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// redisIndex backs the Index with Redis SET NX, which gives the atomic
// insert-if-absent across multiple process instances.
type redisIndex struct {
	r      *redis.Client
	prefix string
}

// NewRedisIndex creates a Redis-backed Index. Keys are namespaced with the
// given prefix so the content and temporal indices can share one instance.
func NewRedisIndex(addr, prefix string) Index {
	return &redisIndex{
		r:      redis.NewClient(&redis.Options{Addr: addr}),
		prefix: prefix,
	}
}

func (idx *redisIndex) InsertIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	inserted, err := idx.r.SetNX(ctx, idx.prefix+key, 1, ttl).Result()
	if err != nil {
		return false, err
	}
	return inserted, nil
}

func (idx *redisIndex) Close() error {
	return idx.r.Close()
}
