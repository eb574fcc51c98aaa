package utils

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis only has string type, there is no boolean or int, so we use "1" to
// represent true.
const (
	RedisTrue = "1"

	cycleGuardKeyPrefix = "fetch_cycle_inflight__"
)

// RedisStatusStore tracks transient pipeline state that doesn't belong in
// the durable store: which sources currently have a fetch cycle in flight.
// The guard is best-effort only; the (source_id, url) uniqueness constraint
// on articles is the correctness backstop when two cycles overlap anyway.
type RedisStatusStore struct {
	inner *redis.Client
}

func GetRedisStatusStore() (*RedisStatusStore, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")),
		Password: os.Getenv("REDIS_PASSWD"),
		DB:       0, // use default DB
	})
	_, err := redisClient.Ping(context.Background()).Result()
	if err != nil {
		return nil, err
	}
	return &RedisStatusStore{inner: redisClient}, nil
}

// TryMarkSourceInFlight claims the per-source cycle guard. Returns false if
// another cycle already holds it. The TTL guarantees a crashed worker can
// never wedge a source forever.
func (r *RedisStatusStore) TryMarkSourceInFlight(ctx context.Context, sourceId string, ttl time.Duration) (bool, error) {
	return r.inner.SetNX(ctx, cycleGuardKeyPrefix+sourceId, RedisTrue, ttl).Result()
}

// ClearSourceInFlight releases the per-source cycle guard.
func (r *RedisStatusStore) ClearSourceInFlight(ctx context.Context, sourceId string) error {
	return r.inner.Del(ctx, cycleGuardKeyPrefix+sourceId).Err()
}
