package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"wx-home-bot/internal/adapters/notify"
	"wx-home-bot/internal/adapters/wechat"
	"wx-home-bot/internal/app"
	"wx-home-bot/internal/domain"
	"wx-home-bot/internal/infra/config"
	"wx-home-bot/internal/infra/log"
	"wx-home-bot/internal/infra/metrics"
	"wx-home-bot/internal/usecase/report"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv, "scheduler")
	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	metrics.StartServer(ctx, logger, cfg.MetricsAddr)

	redisClient, err := app.OpenRedis(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: нет подключения к Redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	eph := app.NewEphemeral(cfg, redisClient)

	jobs, closeQueue, err := app.ReportQueue(cfg, redisClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: очередь отчётов недоступна")
	}
	defer func() { _ = closeQueue() }()

	service := newReportService(logger, cfg, eph.Cache, jobs)

	s, err := startDaily(logger, cfg, service)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: не удалось запланировать отчёт")
	}
	defer func() { _ = s.Shutdown() }()

	logger.Info().Str("at", cfg.Report.Time).Str("city", cfg.Report.City).Msg("scheduler запущен")
	if err := service.Work(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("scheduler: обработчик очереди остановлен")
	}
}

func newReportService(logger zerolog.Logger, cfg config.AppConfig, cache domain.Cache, jobs domain.ReportQueue) *report.Service {
	client := wechat.NewClient(cfg.WeChat.APIBase, cfg.WeChat.AppID, cfg.WeChat.AppSecret, cache, 10*time.Second)
	var notifier domain.Notifier
	if cfg.Notify.ServerChanKey != "" {
		notifier = notify.NewServerChan(cfg.Notify.ServerChanKey, "", 10*time.Second)
	} else {
		logger.Warn().Msg("SERVERCHAN_SEND_KEY не задан, уведомления оператору отключены")
	}
	loc := cfg.Location()
	return report.NewService(logger, app.NewWeather(logger, cfg), client, notifier, jobs, cache, report.Config{
		City:         cfg.Report.City,
		Author:       cfg.Report.Author,
		ThumbMediaID: cfg.Report.ThumbMediaID,
	}, func() time.Time { return time.Now().In(loc) })
}

// startDaily ставит задачу отчёта каждый день в REPORT_TIME по часовому поясу процесса.
func startDaily(logger zerolog.Logger, cfg config.AppConfig, service *report.Service) (gocron.Scheduler, error) {
	at, err := time.Parse("15:04", cfg.Report.Time)
	if err != nil {
		return nil, fmt.Errorf("REPORT_TIME %q: %w", cfg.Report.Time, err)
	}
	s, err := gocron.NewScheduler(gocron.WithLocation(cfg.Location()))
	if err != nil {
		return nil, err
	}
	_, err = s.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(uint(at.Hour()), uint(at.Minute()), 0))),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			job, enqueued, err := service.Trigger(ctx, domain.ReportCauseScheduled)
			if err != nil {
				logger.Error().Err(err).Msg("scheduler: не удалось поставить задачу отчёта")
				return
			}
			if !enqueued {
				logger.Info().Msg("scheduler: отчёт за сегодня уже поставлен")
				return
			}
			logger.Info().Str("job", job.ID).Msg("scheduler: задача отчёта поставлена")
		}),
	)
	if err != nil {
		return nil, err
	}
	s.Start()
	return s, nil
}
