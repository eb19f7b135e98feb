package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"appscheme/internal/network"
)

const validatorKeyPrefix = "appscheme:validator:"

// RedisValidatorStore 基于 Redis 的 network.ValidatorStore，多个进程可共享
type RedisValidatorStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisValidatorStore ttl 为 0 表示不过期
func NewRedisValidatorStore(rdb *redis.Client, ttl time.Duration) *RedisValidatorStore {
	return &RedisValidatorStore{rdb: rdb, ttl: ttl}
}

func (s *RedisValidatorStore) Load(ctx context.Context, url string) (network.Validator, bool, error) {
	raw, err := s.rdb.Get(ctx, validatorKeyPrefix+url).Bytes()
	if errors.Is(err, redis.Nil) {
		return network.Validator{}, false, nil
	}
	if err != nil {
		return network.Validator{}, false, fmt.Errorf("redis get validator: %w", err)
	}
	var v network.Validator
	if err := json.Unmarshal(raw, &v); err != nil {
		return network.Validator{}, false, fmt.Errorf("decode validator: %w", err)
	}
	return v, true, nil
}

func (s *RedisValidatorStore) Save(ctx context.Context, url string, v network.Validator) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode validator: %w", err)
	}
	if err := s.rdb.Set(ctx, validatorKeyPrefix+url, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set validator: %w", err)
	}
	return nil
}
