// Package app собирает адаптеры по конфигурации для исполняемых файлов.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"wx-home-bot/internal/adapters/llm"
	"wx-home-bot/internal/adapters/memory"
	"wx-home-bot/internal/adapters/repo"
	weatheradapter "wx-home-bot/internal/adapters/weather"
	"wx-home-bot/internal/domain"
	"wx-home-bot/internal/infra/cache"
	"wx-home-bot/internal/infra/config"
	"wx-home-bot/internal/infra/db"
	openai "wx-home-bot/internal/infra/openai"
	"wx-home-bot/internal/infra/queue"
	"wx-home-bot/internal/usecase/fallback"
	"wx-home-bot/internal/usecase/weather"
)

// Storage долговременные репозитории.
type Storage struct {
	Profiles      domain.ProfileRepo
	Recipes       domain.RecipeRepo
	Notifications domain.NotificationRepo
	Rules         domain.RuleRepo
	Messages      domain.MessageLog
	Stats         domain.StatsRepo
	Close         func()
}

// OpenStorage выбирает postgres или memory по STORAGE.
// migrate=true применяет миграции перед подключением.
func OpenStorage(cfg config.AppConfig, migrate bool) (*Storage, error) {
	switch cfg.Storage {
	case "memory":
		recipes := memory.NewRecipeRepo()
		activity := memory.NewActivityRepo()
		return &Storage{
			Profiles:      memory.NewProfileRepo(nil),
			Recipes:       recipes,
			Notifications: recipes,
			Rules:         activity,
			Messages:      activity,
			Stats:         activity,
			Close:         func() {},
		}, nil
	case "postgres", "":
		if cfg.PGDSN == "" {
			return nil, fmt.Errorf("PG_DSN не задан")
		}
		if migrate {
			if err := db.Migrate(cfg.PGDSN); err != nil {
				return nil, err
			}
		}
		pool, err := db.Connect(cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		pg := repo.NewPostgres(pool)
		return &Storage{
			Profiles:      pg,
			Recipes:       pg,
			Notifications: pg,
			Rules:         pg,
			Messages:      pg,
			Stats:         pg,
			Close:         pool.Close,
		}, nil
	default:
		return nil, fmt.Errorf("неизвестное хранилище %q", cfg.Storage)
	}
}

// OpenRedis возвращает nil без ошибки, если REDIS_ADDR пуст.
func OpenRedis(ctx context.Context, cfg config.AppConfig) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// Ephemeral краткоживущие хранилища: сессии, история, кэш и блокировки.
type Ephemeral struct {
	Sessions domain.SessionStore
	History  domain.HistoryStore
	Cache    domain.Cache
	Locker   domain.UserLocker
	// Sweep удаляет устаревшую историю; nil, когда TTL обеспечивает Redis.
	Sweep func() int
}

// NewEphemeral использует Redis, если клиент задан, иначе память процесса.
func NewEphemeral(cfg config.AppConfig, client *redis.Client) Ephemeral {
	turns := cfg.AI.HistoryTurns
	if client != nil {
		rc := cache.NewRedis(client, cfg.Session.LockTimeout)
		return Ephemeral{
			Sessions: cache.NewRedisSessionStore(client, cfg.Session.TTL),
			History:  cache.NewRedisHistoryStore(client, turns, cfg.AI.HistoryTTL),
			Cache:    rc,
			Locker:   rc,
		}
	}
	history := memory.NewHistoryStore(turns, cfg.AI.HistoryTTL, nil)
	return Ephemeral{
		Sessions: memory.NewSessionStore(cfg.Session.TTL, nil),
		History:  history,
		Cache:    memory.NewCache(nil),
		Locker:   memory.NewKeyedLocker(cfg.Session.LockTimeout),
		Sweep:    history.Cleanup,
	}
}

// NewWeather собирает источники погоды в порядке WEATHER_PRIORITY.
// qweather без ключа пропускается.
func NewWeather(log zerolog.Logger, cfg config.AppConfig) *weather.Service {
	var providers []domain.WeatherProvider
	for _, name := range cfg.Weather.Priority {
		switch strings.TrimSpace(name) {
		case "qweather":
			if cfg.Weather.QWeatherKey == "" {
				log.Warn().Msg("QWEATHER_API_KEY не задан, qweather пропущен")
				continue
			}
			providers = append(providers, weatheradapter.NewQWeather(cfg.Weather.QWeatherKey, cfg.Weather.QWeatherHost, cfg.Weather.Timeout))
		case "wttr":
			providers = append(providers, weatheradapter.NewWttr("", cfg.Weather.Timeout))
		default:
			log.Warn().Str("provider", name).Msg("неизвестный источник погоды")
		}
	}
	return weather.NewService(log, cfg.Weather.Timeout, providers...)
}

// NewFallback собирает цепочку моделей. Провайдер без ключа остаётся в цепочке отключённым.
func NewFallback(log zerolog.Logger, cfg config.AppConfig, history domain.HistoryStore) *fallback.Chain {
	ai := cfg.AI
	backends := []struct{ name, key, url, model string }{
		{"qwen", ai.QwenKey, ai.QwenURL, ai.QwenModel},
		{"zhipu", ai.ZhipuKey, ai.ZhipuURL, ai.ZhipuModel},
		{"siliconflow", ai.SiliconKey, ai.SiliconURL, ai.SiliconModel},
		{"spark", ai.SparkKey, ai.SparkURL, ai.SparkModel},
	}
	providers := make([]domain.ChatProvider, 0, len(backends))
	for _, b := range backends {
		client := openai.NewClient(b.name, b.key, b.url, ai.Timeout)
		providers = append(providers, llm.NewProvider(b.name, client, llm.Options{
			Model:       b.model,
			MaxTokens:   ai.MaxTokens,
			Temperature: ai.Temperature,
		}))
	}
	return fallback.NewChain(log, history, fallback.Config{
		ChatOrder:      ai.ChatPriority,
		TranslateOrder: ai.TranslatePriority,
		Timeout:        ai.Timeout,
		Budget:         ai.ReplyBudget,
		HistoryTurns:   ai.HistoryTurns,
	}, providers...)
}

// ReportQueue очередь задач отчёта и функция её закрытия.
func ReportQueue(cfg config.AppConfig, client *redis.Client) (domain.ReportQueue, func() error, error) {
	switch cfg.Report.Queue {
	case "rabbitmq":
		q, err := queue.NewRabbitReportQueue(cfg.Report.AMQPURL, cfg.Report.QueueKey)
		if err != nil {
			return nil, nil, err
		}
		return q, q.Close, nil
	case "redis", "":
		if client == nil {
			return nil, nil, fmt.Errorf("REPORT_QUEUE=redis требует REDIS_ADDR")
		}
		return queue.NewRedisReportQueue(client, cfg.Report.QueueKey), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("неизвестная очередь %q", cfg.Report.Queue)
	}
}
