package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"tillbook/backend/internal/domain"
)

type RedisDrawerBalanceCache struct {
	client *redis.Client
}

func NewRedisDrawerBalanceCache(addr string, password string, db int) *RedisDrawerBalanceCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisDrawerBalanceCache{client: client}
}

func (c *RedisDrawerBalanceCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisDrawerBalanceCache) Close() error {
	return c.client.Close()
}

func (c *RedisDrawerBalanceCache) Get(ctx context.Context, key string) (*domain.DrawerBalance, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var balance domain.DrawerBalance
	if err := json.Unmarshal([]byte(val), &balance); err != nil {
		return nil, false, err
	}
	return &balance, true, nil
}

func (c *RedisDrawerBalanceCache) Set(ctx context.Context, key string, value *domain.DrawerBalance, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}
