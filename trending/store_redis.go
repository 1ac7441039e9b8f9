package trending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "creator-relay:trending:"

// RedisStore shares the trend cache between relay instances.
// Keys expire with the cache TTL.
type RedisStore struct {
	rdb *redis.Client
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// DialRedis connects to addr and verifies the connection.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("[trending DialRedis] ping %s: %w", addr, err)
	}
	return rdb, nil
}

func (s *RedisStore) Get(ctx context.Context, kind Kind) (*Entry, bool, error) {
	raw, err := s.rdb.Get(ctx, redisKeyPrefix+string(kind)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("[RedisStore Get] %w", err)
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, false, fmt.Errorf("[RedisStore Get] decode %s: %w", kind, err)
	}
	return &e, true, nil
}

func (s *RedisStore) Set(ctx context.Context, kind Kind, entry Entry, ttl time.Duration) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("[RedisStore Set] encode %s: %w", kind, err)
	}
	if err := s.rdb.Set(ctx, redisKeyPrefix+string(kind), raw, ttl).Err(); err != nil {
		return fmt.Errorf("[RedisStore Set] %w", err)
	}
	return nil
}
