package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	InboundEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wechat_inbound_events_total",
		Help: "Входящие события по типу",
	}, []string{"kind"})
	DuplicateEvents = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wechat_duplicate_events_total",
		Help: "Повторные доставки одного и того же сообщения",
	})
	DispatchOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_outcomes_total",
		Help: "Результаты диспетчеризации по маршруту",
	}, []string{"route", "command"})
	HandlerDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "conversation_handle_seconds",
		Help:    "Время обработки одного сообщения",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2, 3, 4, 5, 10},
	})
	HandlerPanics = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "conversation_panics_total",
		Help: "Паники при обработке сообщений",
	})
	ProviderAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reply_provider_attempts_total",
		Help: "Попытки провайдеров ответа",
	}, []string{"provider", "intent", "status"})
	Events = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_events_total",
		Help: "Бизнес-события бота",
	}, []string{"event"})
	ReportRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "daily_report_runs_total",
		Help: "Запуски ежедневного отчёта",
	}, []string{"status"})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2, 3, 5, 10, 15, 30, 60},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})

	LLMGenerationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_generation_duration_seconds",
		Help:    "Длительность генерации ответа LLM",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})

	LLMTokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_tokens_total",
		Help: "Количество токенов, использованных LLM",
	}, []string{"model", "type"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		InboundEvents,
		DuplicateEvents,
		DispatchOutcomes,
		HandlerDuration,
		HandlerPanics,
		ProviderAttempts,
		Events,
		ReportRuns,
		NetworkRequestDuration,
		NetworkRequestTotal,
		LLMGenerationDuration,
		LLMTokensTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObserveLLMGeneration записывает длительность и токены генерации LLM.
func ObserveLLMGeneration(model string, duration time.Duration, promptTokens, completionTokens, totalTokens int) {
	if model == "" {
		model = "unknown"
	}
	LLMGenerationDuration.WithLabelValues(model).Observe(duration.Seconds())
	if promptTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "completion").Add(float64(completionTokens))
	}
	if totalTokens <= 0 {
		totalTokens = promptTokens + completionTokens
	}
	if totalTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "total").Add(float64(totalTokens))
	}
}

// ObserveProvider фиксирует попытку провайдера ответа.
func ObserveProvider(provider, intent string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ProviderAttempts.WithLabelValues(provider, intent, status).Inc()
}

// IncEvent увеличивает счётчик бизнес-события.
func IncEvent(event string) {
	Events.WithLabelValues(event).Inc()
}
