package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"wx-home-bot/internal/domain"
)

// RedisHistoryStore хранит историю диалога списком с TTL от последнего сообщения.
type RedisHistoryStore struct {
	client   *redis.Client
	maxTurns int
	ttl      time.Duration
}

// NewRedisHistoryStore создаёт хранилище истории.
func NewRedisHistoryStore(client *redis.Client, maxTurns int, ttl time.Duration) *RedisHistoryStore {
	return &RedisHistoryStore{client: client, maxTurns: maxTurns, ttl: ttl}
}

func historyKey(userID string) string { return "history:" + userID }

// Recent возвращает последние turns пар сообщений.
func (h *RedisHistoryStore) Recent(ctx context.Context, userID string, turns int) ([]domain.ChatMessage, error) {
	if turns <= 0 {
		return nil, nil
	}
	raw, err := h.client.LRange(ctx, historyKey(userID), int64(-turns*2), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("history range: %w", err)
	}
	out := make([]domain.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var msg domain.ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

// Append добавляет сообщения, обрезает список и продлевает TTL.
func (h *RedisHistoryStore) Append(ctx context.Context, userID string, msgs ...domain.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	values := make([]any, 0, len(msgs))
	for _, m := range msgs {
		b, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("marshal history: %w", err)
		}
		values = append(values, b)
	}
	key := historyKey(userID)
	pipe := h.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.LTrim(ctx, key, int64(-h.maxTurns*2), -1)
	pipe.Expire(ctx, key, h.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// Clear удаляет историю пользователя.
func (h *RedisHistoryStore) Clear(ctx context.Context, userID string) error {
	return h.client.Del(ctx, historyKey(userID)).Err()
}
