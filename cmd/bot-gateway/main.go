package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"wx-home-bot/internal/adapters/wechat"
	"wx-home-bot/internal/app"
	"wx-home-bot/internal/infra/config"
	apphttp "wx-home-bot/internal/infra/http"
	"wx-home-bot/internal/infra/log"
	"wx-home-bot/internal/infra/metrics"
	"wx-home-bot/internal/usecase/checkin"
	"wx-home-bot/internal/usecase/conversation"
	"wx-home-bot/internal/usecase/dispatch"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv, "bot-gateway")
	metrics.MustRegister(prometheus.DefaultRegisterer)

	if cfg.WeChat.Token == "" {
		logger.Fatal().Msg("WECHAT_TOKEN не задан")
	}
	if cfg.Session.SecretCode == "" {
		logger.Warn().Msg("SECRET_CODE не задан, подтверждение VIP невозможно")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	storage, err := app.OpenStorage(cfg, true)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось открыть хранилище")
	}
	defer storage.Close()

	redisClient, err := app.OpenRedis(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось подключиться к Redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("REDIS_ADDR не задан, сессии и кэш хранятся в памяти процесса")
	}
	eph := app.NewEphemeral(cfg, redisClient)

	loc := cfg.Location()
	now := func() time.Time { return time.Now().In(loc) }

	weatherService := app.NewWeather(logger, cfg)
	chain := app.NewFallback(logger, cfg, eph.History)

	dispatcher := dispatch.New(logger, dispatch.Deps{
		Sessions:      eph.Sessions,
		Profiles:      storage.Profiles,
		Recipes:       storage.Recipes,
		Notifications: storage.Notifications,
		Rules:         storage.Rules,
		Stats:         storage.Stats,
		Checkin:       checkin.NewService(storage.Profiles, now),
		Weather:       weatherService,
		Fallback:      chain,
		Now:           now,
	}, dispatch.Config{
		SecretCode:    cfg.Session.SecretCode,
		VerifyTimeout: cfg.Session.VerifyTimeout,
	})

	orchestrator := conversation.New(logger, conversation.Deps{
		Dispatcher:    dispatcher,
		Profiles:      storage.Profiles,
		Notifications: storage.Notifications,
		Messages:      storage.Messages,
		Stats:         storage.Stats,
		Cache:         eph.Cache,
		Locker:        eph.Locker,
		Greeter:       weatherService,
		Now:           now,
		Location:      loc,
		DedupTTL:      cfg.Session.DedupTTL,
		ReplyWindow:   cfg.Session.ReplyWindow,
	})

	if eph.Sweep != nil {
		sched, err := startSweeper(logger, eph.Sweep)
		if err != nil {
			logger.Fatal().Err(err).Msg("не удалось запустить очистку истории")
		}
		defer func() { _ = sched.Shutdown() }()
	}

	server := apphttp.NewServer(logger)
	wechat.NewHandler(logger, cfg.WeChat.Token, orchestrator).Mount(server.Router, "/wechat")

	go func() {
		if err := server.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logger.Error().Err(err).Msg("HTTP сервер остановлен")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("остановка бот-гейтвея")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}
