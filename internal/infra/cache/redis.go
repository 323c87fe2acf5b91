package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"wx-home-bot/internal/domain"
)

// RedisCache реализует domain.Cache и domain.UserLocker через Redis.
type RedisCache struct {
	client      *redis.Client
	lockTimeout time.Duration
	lockTTL     time.Duration
}

// NewRedis создаёт кэш.
func NewRedis(client *redis.Client, lockTimeout time.Duration) *RedisCache {
	if lockTimeout <= 0 {
		lockTimeout = 2 * time.Second
	}
	return &RedisCache{client: client, lockTimeout: lockTimeout, lockTTL: 10 * time.Second}
}

// Once выполняет функцию, если ключ ещё не задан.
func (c *RedisCache) Once(key string, ttl time.Duration, fn func() error) error {
	ctx := context.Background()
	ok, err := c.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := fn(); err != nil {
		_ = c.client.Del(ctx, key).Err()
		return err
	}
	return nil
}

// Set задаёт значение.
func (c *RedisCache) Set(key string, value []byte, ttl time.Duration) error {
	return c.client.Set(context.Background(), key, value, ttl).Err()
}

// Get возвращает значение или domain.ErrCacheMiss.
func (c *RedisCache) Get(key string) ([]byte, error) {
	b, err := c.client.Get(context.Background(), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	return b, err
}

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Lock берёт блокировку пользователя через SET NX PX, повторяя попытки до lockTimeout.
func (c *RedisCache) Lock(ctx context.Context, userID string) (func(), error) {
	key := "lock:user:" + userID
	token := uuid.NewString()
	ctx, cancel := context.WithTimeout(ctx, c.lockTimeout)
	defer cancel()

	ticker := time.NewTicker(25 * time.Millisecond)
	defer ticker.Stop()
	for {
		ok, err := c.client.SetNX(ctx, key, token, c.lockTTL).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("lock user: %w", err)
		}
		if ok {
			return func() {
				_ = unlockScript.Run(context.Background(), c.client, []string{key}, token).Err()
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, domain.ErrLockTimeout
		case <-ticker.C:
		}
	}
}
