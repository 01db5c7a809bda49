package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisRateCacheStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisRateCacheStore(client redis.UniversalClient, prefix string) *RedisRateCacheStore {
	if prefix == "" {
		prefix = "rate_cache"
	}
	return &RedisRateCacheStore{client: client, prefix: prefix}
}

func (s *RedisRateCacheStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.client == nil {
		return nil, false, nil
	}
	value, err := s.client.Get(ctx, s.prefix+":"+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *RedisRateCacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.client == nil || ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, s.prefix+":"+key, value, ttl).Err()
}
