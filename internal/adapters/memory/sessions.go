package memory

import (
	"context"
	"sync"
	"time"

	"wx-home-bot/internal/domain"
)

type sessionEntry struct {
	session   domain.Session
	expiresAt time.Time
}

// SessionStore хранит сессии в памяти процесса с TTL простоя.
type SessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]sessionEntry
}

// NewSessionStore создаёт хранилище. ttl <= 0 отключает истечение.
func NewSessionStore(ttl time.Duration, now func() time.Time) *SessionStore {
	if now == nil {
		now = time.Now
	}
	return &SessionStore{ttl: ttl, now: now, sessions: make(map[string]sessionEntry)}
}

// Get возвращает сессию, если она не истекла.
func (s *SessionStore) Get(_ context.Context, userID string) (domain.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[userID]
	if !ok {
		return domain.Session{}, false, nil
	}
	if !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
		delete(s.sessions, userID)
		return domain.Session{}, false, nil
	}
	return e.session, e.session.Active(), nil
}

// Set заменяет сессию пользователя.
func (s *SessionStore) Set(_ context.Context, userID string, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := sessionEntry{session: session}
	if ttl := session.StoreTTL(s.ttl); ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.sessions[userID] = e
	return nil
}

// Clear удаляет сессию.
func (s *SessionStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}
