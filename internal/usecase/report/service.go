package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"wx-home-bot/internal/domain"
	"wx-home-bot/internal/infra/metrics"
	"wx-home-bot/internal/usecase/weather"
)

// ErrNoThumb у черновика нет обложки.
var ErrNoThumb = errors.New("report: thumb media id is not configured")

const (
	defaultDigest    = "今日天气早知道，出门穿衣有参考~"
	defaultSignature = "源源和娇娇的家"
	triggerTTL       = 26 * time.Hour
)

var weekdays = [...]string{"周日", "周一", "周二", "周三", "周四", "周五", "周六"}

// Weather источник погоды для отчёта.
type Weather interface {
	ForCity(ctx context.Context, city domain.WeatherCity) (domain.WeatherReport, error)
}

// Config параметры ежедневного черновика.
type Config struct {
	City         string
	Author       string
	Digest       string
	ThumbMediaID string
	Signature    string
}

// Service строит и публикует ежедневный погодный черновик.
type Service struct {
	log       zerolog.Logger
	weather   Weather
	publisher domain.DraftPublisher
	notifier  domain.Notifier
	queue     domain.ReportQueue
	cache     domain.Cache
	cfg       Config
	now       func() time.Time
}

// NewService создаёт сервис. notifier, queue и cache могут быть nil.
func NewService(log zerolog.Logger, w Weather, publisher domain.DraftPublisher, notifier domain.Notifier, queue domain.ReportQueue, cache domain.Cache, cfg Config, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	if cfg.Digest == "" {
		cfg.Digest = defaultDigest
	}
	if cfg.Signature == "" {
		cfg.Signature = defaultSignature
	}
	return &Service{log: log, weather: w, publisher: publisher, notifier: notifier, queue: queue, cache: cache, cfg: cfg, now: now}
}

// Built готовый черновик и краткая сводка для уведомления.
type Built struct {
	Draft   domain.Draft
	Summary string
}

// Build собирает черновик для города на указанную дату.
func (s *Service) Build(ctx context.Context, cityName string, date time.Time) (Built, error) {
	city, ok := weather.ResolveCity(cityName)
	if !ok {
		return Built{}, fmt.Errorf("report: invalid city %q", cityName)
	}
	r, err := s.weather.ForCity(ctx, city)
	if err != nil {
		return Built{}, fmt.Errorf("report: weather: %w", err)
	}

	data := article{
		Date:    date.Format("2006年01月02日"),
		Weekday: weekdays[date.Weekday()],
		City:    city.Name,
		Rows: []row{
			{"当前温度", fmt.Sprintf("%d°C", r.TempC)},
			{"体感温度", fmt.Sprintf("%d°C", r.FeelsLikeC)},
			{"天气状况", r.Condition},
			{"相对湿度", fmt.Sprintf("%d%%", r.Humidity)},
			{"风向风力", fmt.Sprintf("%s %s级", r.WindDir, r.WindScale)},
		},
		Advice:    weather.ClothingAdvice(r.TempC, r.Condition).Compact(),
		Signature: s.cfg.Signature,
	}
	var buf bytes.Buffer
	if err := articleTemplate.Execute(&buf, data); err != nil {
		return Built{}, fmt.Errorf("report: render: %w", err)
	}

	return Built{
		Draft: domain.Draft{
			Title:        fmt.Sprintf("%s %s天气播报", date.Format("01月02日"), city.Name),
			Author:       s.cfg.Author,
			Digest:       s.cfg.Digest,
			HTML:         buf.String(),
			ThumbMediaID: s.cfg.ThumbMediaID,
		},
		Summary: fmt.Sprintf("%s %s %d°C", city.Name, r.Condition, r.TempC),
	}, nil
}

// Run выполняет задачу: строит черновик, публикует его и уведомляет оператора
// об успехе или ошибке.
func (s *Service) Run(ctx context.Context, job domain.ReportJob) (string, error) {
	city := job.City
	if city == "" {
		city = s.cfg.City
	}
	date := job.Date
	if date.IsZero() {
		date = s.now()
	}
	logger := s.log.With().Str("job", job.ID).Str("city", city).Str("cause", string(job.Cause)).Logger()

	mediaID, title, summary, err := s.publish(ctx, city, date)
	if err != nil {
		metrics.ReportRuns.WithLabelValues("error").Inc()
		logger.Error().Err(err).Msg("ежедневный черновик не создан")
		s.notify(ctx, "⚠️ 天气草稿创建失败", fmt.Sprintf(failureBody, err.Error(), s.now().Format("2006-01-02 15:04:05")))
		return "", err
	}
	metrics.ReportRuns.WithLabelValues("success").Inc()
	metrics.IncEvent("draft_create_success")
	logger.Info().Str("media_id", mediaID).Msg("ежедневный черновик создан")
	s.notify(ctx, "天气草稿已就绪 - "+summary, fmt.Sprintf(successBody, title, summary, s.now().Format("2006-01-02 15:04:05"), mediaID))
	return mediaID, nil
}

func (s *Service) publish(ctx context.Context, city string, date time.Time) (mediaID, title, summary string, err error) {
	if s.cfg.ThumbMediaID == "" {
		return "", "", "", ErrNoThumb
	}
	built, err := s.Build(ctx, city, date)
	if err != nil {
		return "", "", "", err
	}
	mediaID, err = s.publisher.PublishDraft(ctx, built.Draft)
	if err != nil {
		return "", "", "", fmt.Errorf("report: publish draft: %w", err)
	}
	return mediaID, built.Draft.Title, built.Summary, nil
}

func (s *Service) notify(ctx context.Context, title, body string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, title, body); err != nil {
		s.log.Warn().Err(err).Msg("не удалось отправить уведомление оператору")
	}
}

// Trigger ставит задачу на сегодня не чаще одного раза в сутки.
// enqueued=false, если задача за эту дату уже поставлена.
func (s *Service) Trigger(ctx context.Context, cause domain.ReportJobCause) (job domain.ReportJob, enqueued bool, err error) {
	if s.queue == nil {
		return domain.ReportJob{}, false, errors.New("report: queue is not configured")
	}
	now := s.now()
	job = domain.ReportJob{
		ID:          uuid.NewString(),
		City:        s.cfg.City,
		Date:        now,
		RequestedAt: now,
		Cause:       cause,
	}
	enqueue := func() error {
		enqueued = true
		return s.queue.Enqueue(ctx, job)
	}
	if s.cache == nil {
		err = enqueue()
	} else {
		err = s.cache.Once("report:"+now.Format("2006-01-02"), triggerTTL, enqueue)
	}
	if err != nil {
		return job, false, fmt.Errorf("report: enqueue: %w", err)
	}
	return job, enqueued, nil
}

// Work читает очередь до отмены контекста. Задача подтверждается после
// попытки, в том числе неудачной: оператор уже получил уведомление.
func (s *Service) Work(ctx context.Context) error {
	for {
		job, ack, err := s.queue.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Error().Err(err).Msg("ошибка чтения очереди отчётов")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		_, runErr := s.Run(ctx, job)
		requeue := runErr != nil && ctx.Err() != nil
		if err := ack(!requeue); err != nil {
			s.log.Error().Err(err).Str("job", job.ID).Msg("не удалось подтвердить задачу")
		}
	}
}

const successBody = `## 📝 每日天气草稿已创建

**标题：** %s

**天气：** %s

**创建时间：** %s

**草稿ID：** ` + "`%s`" + `

---

### 📢 请前往公众号后台手动群发

1. 登录 [微信公众平台](https://mp.weixin.qq.com)
2. 进入「内容与互动」→「草稿箱」
3. 找到今日天气草稿，点击「群发」

---

*此消息由自动任务发送*
`

const failureBody = `## ❌ 每日天气草稿创建失败

**错误信息：** %s

**时间：** %s

---

请检查服务日志排查问题。

*此消息由自动任务发送*
`
