package memory

import (
	"context"
	"sync"
	"time"

	"wx-home-bot/internal/domain"
)

// HistoryStore история диалога с моделью под одним мьютексом.
type HistoryStore struct {
	mu       sync.Mutex
	maxTurns int
	ttl      time.Duration
	now      func() time.Time
	items    map[string][]domain.ChatMessage
}

// NewHistoryStore создаёт хранилище истории.
func NewHistoryStore(maxTurns int, ttl time.Duration, now func() time.Time) *HistoryStore {
	if now == nil {
		now = time.Now
	}
	return &HistoryStore{maxTurns: maxTurns, ttl: ttl, now: now, items: make(map[string][]domain.ChatMessage)}
}

// Recent возвращает последние turns пар; устаревшая история удаляется.
func (h *HistoryStore) Recent(_ context.Context, userID string, turns int) ([]domain.ChatMessage, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := h.items[userID]
	if len(list) == 0 {
		return nil, nil
	}
	if h.expired(list) {
		delete(h.items, userID)
		return nil, nil
	}
	if turns > 0 && len(list) > turns*2 {
		list = list[len(list)-turns*2:]
	}
	return append([]domain.ChatMessage(nil), list...), nil
}

// Append добавляет сообщения и обрезает историю до maxTurns пар.
func (h *HistoryStore) Append(_ context.Context, userID string, msgs ...domain.ChatMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := h.items[userID]
	if h.expired(list) {
		list = nil
	}
	now := h.now()
	for _, m := range msgs {
		if m.At.IsZero() {
			m.At = now
		}
		list = append(list, m)
	}
	if limit := h.maxTurns * 2; limit > 0 && len(list) > limit {
		list = append([]domain.ChatMessage(nil), list[len(list)-limit:]...)
	}
	h.items[userID] = list
	return nil
}

// Clear удаляет историю пользователя.
func (h *HistoryStore) Clear(_ context.Context, userID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.items, userID)
	return nil
}

// Cleanup удаляет все устаревшие истории.
func (h *HistoryStore) Cleanup() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	removed := 0
	for id, list := range h.items {
		if h.expired(list) {
			delete(h.items, id)
			removed++
		}
	}
	return removed
}

func (h *HistoryStore) expired(list []domain.ChatMessage) bool {
	if h.ttl <= 0 || len(list) == 0 {
		return false
	}
	return h.now().Sub(list[len(list)-1].At) > h.ttl
}
