package memory

import (
	"context"
	"sync"
	"time"

	"wx-home-bot/internal/domain"
)

// ActivityRepo правила ответов, журнал сообщений и статистика в памяти.
type ActivityRepo struct {
	mu       sync.Mutex
	rules    map[string]string
	messages map[string][]domain.MessageRecord
	stats    map[string]map[string]int
}

// NewActivityRepo создаёт репозиторий.
func NewActivityRepo() *ActivityRepo {
	return &ActivityRepo{
		rules:    make(map[string]string),
		messages: make(map[string][]domain.MessageRecord),
		stats:    make(map[string]map[string]int),
	}
}

// Rules возвращает снимок правил.
func (r *ActivityRepo) Rules(context.Context) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.rules))
	for k, v := range r.rules {
		out[k] = v
	}
	return out, nil
}

// SetRule добавляет или заменяет правило.
func (r *ActivityRepo) SetRule(_ context.Context, rule domain.ReplyRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[rule.Key] = rule.Template
	return nil
}

// DeleteRule удаляет правило.
func (r *ActivityRepo) DeleteRule(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[key]; !ok {
		return domain.ErrNotFound
	}
	delete(r.rules, key)
	return nil
}

// Append добавляет сообщение, храня не более domain.MessageLogLimit записей.
func (r *ActivityRepo) Append(_ context.Context, rec domain.MessageRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := append(r.messages[rec.UserID], rec)
	if over := len(list) - domain.MessageLogLimit; over > 0 {
		list = append([]domain.MessageRecord(nil), list[over:]...)
	}
	r.messages[rec.UserID] = list
	return nil
}

// Recent возвращает последние limit сообщений.
func (r *ActivityRepo) Recent(_ context.Context, userID string, limit int) ([]domain.MessageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.messages[userID]
	if limit > 0 && len(list) > limit {
		list = list[len(list)-limit:]
	}
	return append([]domain.MessageRecord(nil), list...), nil
}

// Incr увеличивает дневной и общий счётчик события, удаляя дни старше domain.StatRetentionDays.
func (r *ActivityRepo) Incr(_ context.Context, event string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	day := at.Format("2006-01-02")
	for _, key := range []string{day, "total"} {
		if r.stats[key] == nil {
			r.stats[key] = make(map[string]int)
		}
		r.stats[key][event]++
	}
	cutoff := at.AddDate(0, 0, -domain.StatRetentionDays).Format("2006-01-02")
	for key := range r.stats {
		if key != "total" && key < cutoff {
			delete(r.stats, key)
		}
	}
	return nil
}

// Count возвращает значение счётчика за день ("total" для общего).
func (r *ActivityRepo) Count(day, event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats[day][event]
}
