package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"wx-home-bot/internal/domain"
)

// RedisSessionStore хранит сессии с TTL простоя.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore создаёт хранилище сессий.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

type sessionRecord struct {
	State     domain.SessionState        `json:"state"`
	StartedAt time.Time                  `json:"started_at"`
	Verify    *domain.VerifyPayload      `json:"verify,omitempty"`
	Draft     *domain.RecipeDraftPayload `json:"draft,omitempty"`
}

func encodeSession(s domain.Session) ([]byte, error) {
	rec := sessionRecord{State: s.State, StartedAt: s.StartedAt}
	switch p := s.Payload.(type) {
	case domain.VerifyPayload:
		rec.Verify = &p
	case domain.RecipeDraftPayload:
		rec.Draft = &p
	}
	return json.Marshal(rec)
}

func decodeSession(b []byte) (domain.Session, error) {
	var rec sessionRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return domain.Session{}, err
	}
	s := domain.Session{State: rec.State, StartedAt: rec.StartedAt, Payload: domain.NoPayload{}}
	switch {
	case rec.Verify != nil:
		s.Payload = *rec.Verify
	case rec.Draft != nil:
		s.Payload = *rec.Draft
	}
	return s, nil
}

func sessionKey(userID string) string { return "session:" + userID }

// Get возвращает активную сессию пользователя.
func (s *RedisSessionStore) Get(ctx context.Context, userID string) (domain.Session, bool, error) {
	b, err := s.client.Get(ctx, sessionKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, false, nil
	}
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("get session: %w", err)
	}
	session, err := decodeSession(b)
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("decode session: %w", err)
	}
	return session, session.Active(), nil
}

// Set сохраняет сессию, заменяя предыдущую.
func (s *RedisSessionStore) Set(ctx context.Context, userID string, session domain.Session) error {
	b, err := encodeSession(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(userID), b, session.StoreTTL(s.ttl)).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

// Clear удаляет сессию.
func (s *RedisSessionStore) Clear(ctx context.Context, userID string) error {
	return s.client.Del(ctx, sessionKey(userID)).Err()
}
