package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisKVClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisKVStore guarda la identidad de un perfil en Redis, compartida entre terminales del mismo kiosco.
type RedisKVStore struct {
	client  redisKVClient
	prefix  string
	timeout time.Duration
}

var ErrNilRedisClient = errors.New("redis kv: nil client")

func NewRedisKVStore(client *redis.Client, profile string) (*RedisKVStore, error) {
	if client == nil {
		return nil, ErrNilRedisClient
	}
	return newRedisKVStore(client, profile), nil
}

func newRedisKVStore(client redisKVClient, profile string) *RedisKVStore {
	return &RedisKVStore{
		client:  client,
		prefix:  "techticks:state:" + profile + ":",
		timeout: 500 * time.Millisecond,
	}
}

func (s *RedisKVStore) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *RedisKVStore) Set(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Set(ctx, s.prefix+key, value, 0).Err()
}

func (s *RedisKVStore) Remove(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Del(ctx, s.prefix+key).Err()
}
