package domain

import (
	"context"
	"time"
)

// SessionStore хранит одну активную сессию на пользователя.
type SessionStore interface {
	// Get возвращает сессию; ok=false, если сессии нет или она истекла.
	Get(ctx context.Context, userID string) (Session, bool, error)
	Set(ctx context.Context, userID string, session Session) error
	Clear(ctx context.Context, userID string) error
}

// ProfileRepo управляет профилями пользователей. Все изменения атомарны в пределах пользователя.
type ProfileRepo interface {
	// Get возвращает ErrNotFound, если профиль ещё не создан.
	Get(ctx context.Context, userID string) (UserProfile, error)
	// Update читает профиль (создавая пустой при отсутствии), применяет fn и сохраняет результат.
	// Если fn возвращает ошибку, изменения не сохраняются.
	Update(ctx context.Context, userID string, fn func(*UserProfile) error) (UserProfile, error)
	// MintVIP выдаёт следующий порядковый VIP-номер или возвращает существующий статус.
	MintVIP(ctx context.Context, userID string, at time.Time) (VIP, bool, error)
	ListVIPs(ctx context.Context) ([]UserProfile, error)
	// ListRanked возвращает пользователей с хотя бы одной отметкой по убыванию баллов.
	ListRanked(ctx context.Context) ([]UserProfile, error)
}

// RecipeRepo общий список рецептов только на добавление.
type RecipeRepo interface {
	// Add присваивает следующий идентификатор и сохраняет рецепт.
	Add(ctx context.Context, recipe Recipe) (Recipe, error)
	List(ctx context.Context) ([]Recipe, error)
	// GetByIndex ищет рецепт по позиции, начиная с 1.
	GetByIndex(ctx context.Context, index int) (Recipe, error)
}

// NotificationRepo очереди непрочитанных уведомлений о рецептах.
type NotificationRepo interface {
	Push(ctx context.Context, userIDs []string, n RecipeNotification) error
	Pending(ctx context.Context, userID string) ([]RecipeNotification, error)
	Drain(ctx context.Context, userID string) error
}

// RuleRepo редактируемые оператором правила ответов.
type RuleRepo interface {
	Rules(ctx context.Context) (map[string]string, error)
	SetRule(ctx context.Context, rule ReplyRule) error
	DeleteRule(ctx context.Context, key string) error
}

// MessageLog журнал входящих сообщений пользователя.
type MessageLog interface {
	Append(ctx context.Context, rec MessageRecord) error
	Recent(ctx context.Context, userID string, limit int) ([]MessageRecord, error)
}

// StatsRepo счётчики событий по дням.
type StatsRepo interface {
	Incr(ctx context.Context, event string, at time.Time) error
}

// HistoryStore история диалога с моделью. Реализация сама удаляет историю,
// если последнее сообщение старше TTL.
type HistoryStore interface {
	Recent(ctx context.Context, userID string, turns int) ([]ChatMessage, error)
	Append(ctx context.Context, userID string, msgs ...ChatMessage) error
	Clear(ctx context.Context, userID string) error
}

// ChatProvider один бэкенд генерации ответа.
type ChatProvider interface {
	Name() string
	Send(ctx context.Context, messages []ChatMessage, timeout time.Duration) (string, error)
}

// WeatherProvider источник текущей погоды.
type WeatherProvider interface {
	Name() string
	Lookup(ctx context.Context, q WeatherQuery) (WeatherReport, error)
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Once(key string, ttl time.Duration, fn func() error) error
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
}

// UserLocker обеспечивает взаимное исключение по пользователю.
type UserLocker interface {
	Lock(ctx context.Context, userID string) (unlock func(), err error)
}

// DraftPublisher создаёт черновик статьи в официальном аккаунте.
type DraftPublisher interface {
	PublishDraft(ctx context.Context, draft Draft) (string, error)
}

// Notifier отправляет служебное уведомление оператору.
type Notifier interface {
	Notify(ctx context.Context, title, content string) error
}
