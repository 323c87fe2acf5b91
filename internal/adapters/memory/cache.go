package memory

import (
	"context"
	"sync"
	"time"

	"wx-home-bot/internal/domain"
)

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// Cache реализует domain.Cache в памяти.
type Cache struct {
	mu    sync.Mutex
	now   func() time.Time
	items map[string]cacheEntry
}

// NewCache создаёт кэш.
func NewCache(now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{now: now, items: make(map[string]cacheEntry)}
}

// Once выполняет функцию, если ключ ещё не задан. При ошибке ключ освобождается.
func (c *Cache) Once(key string, ttl time.Duration, fn func() error) error {
	c.mu.Lock()
	if c.liveLocked(key) {
		c.mu.Unlock()
		return nil
	}
	c.items[key] = cacheEntry{value: []byte("1"), expiresAt: c.deadline(ttl)}
	c.mu.Unlock()

	if err := fn(); err != nil {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return err
	}
	return nil
}

// Set задаёт значение.
func (c *Cache) Set(key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = cacheEntry{value: append([]byte(nil), value...), expiresAt: c.deadline(ttl)}
	return nil
}

// Get возвращает значение или domain.ErrCacheMiss.
func (c *Cache) Get(key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.liveLocked(key) {
		return nil, domain.ErrCacheMiss
	}
	return append([]byte(nil), c.items[key].value...), nil
}

func (c *Cache) liveLocked(key string) bool {
	e, ok := c.items[key]
	if !ok {
		return false
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		delete(c.items, key)
		return false
	}
	return true
}

func (c *Cache) deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return c.now().Add(ttl)
}

// KeyedLocker взаимное исключение по пользователю внутри процесса.
type KeyedLocker struct {
	mu      sync.Mutex
	timeout time.Duration
	locks   map[string]*keyedLock
}

type keyedLock struct {
	ch   chan struct{}
	refs int
}

// NewKeyedLocker создаёт блокировщик с таймаутом ожидания.
func NewKeyedLocker(timeout time.Duration) *KeyedLocker {
	return &KeyedLocker{timeout: timeout, locks: make(map[string]*keyedLock)}
}

// Lock ждёт освобождения блокировки пользователя не дольше timeout.
func (l *KeyedLocker) Lock(ctx context.Context, userID string) (func(), error) {
	l.mu.Lock()
	lk, ok := l.locks[userID]
	if !ok {
		lk = &keyedLock{ch: make(chan struct{}, 1)}
		l.locks[userID] = lk
	}
	lk.refs++
	l.mu.Unlock()

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	select {
	case lk.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-lk.ch
				l.release(userID, lk)
			})
		}, nil
	case <-ctx.Done():
		l.release(userID, lk)
		return nil, domain.ErrLockTimeout
	}
}

func (l *KeyedLocker) release(userID string, lk *keyedLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, userID)
	}
}
