package domain

import "errors"

var (
	// ErrNotFound запись отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrLockTimeout не удалось дождаться блокировки пользователя.
	ErrLockTimeout = errors.New("user lock timeout")
	// ErrCacheMiss ключ отсутствует в кэше.
	ErrCacheMiss = errors.New("cache miss")
)
