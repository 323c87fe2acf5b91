package conversation

import (
	"context"
	"fmt"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"wx-home-bot/internal/domain"
	"wx-home-bot/internal/infra/metrics"
	"wx-home-bot/internal/usecase/dispatch"
	"wx-home-bot/internal/usecase/router"
)

const (
	defaultDedupTTL    = 30 * time.Second
	defaultReplyWindow = 4500 * time.Millisecond
	minGreetingTime    = 200 * time.Millisecond
	dateLayout         = "2006-01-02"

	textNotificationSuffix = "\n\n---\n📢 有 %d 个新菜谱更新！发送「查看菜谱」查看~"
)

// Dispatcher выбирает основной ответ.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev domain.InboundEvent) (dispatch.Outcome, error)
}

// Greeter строит короткую сводку погоды для первого сообщения за день.
type Greeter interface {
	Greeting(ctx context.Context, city domain.WeatherCity) (string, error)
}

// Deps зависимости оркестратора.
type Deps struct {
	Dispatcher    Dispatcher
	Profiles      domain.ProfileRepo
	Notifications domain.NotificationRepo
	Messages      domain.MessageLog
	Stats         domain.StatsRepo
	Cache         domain.Cache
	Locker        domain.UserLocker
	Greeter       Greeter
	Now           func() time.Time
	Location      *time.Location
	DedupTTL      time.Duration
	// ReplyWindow время на весь ответ, включая приветствие с погодой.
	ReplyWindow   time.Duration
}

// Orchestrator обрабатывает одно входящее событие целиком: дедупликация,
// блокировка пользователя, диспетчеризация и дополнения к ответу.
type Orchestrator struct {
	log  zerolog.Logger
	deps Deps
}

// New создаёт оркестратор.
func New(log zerolog.Logger, deps Deps) *Orchestrator {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.DedupTTL <= 0 {
		deps.DedupTTL = defaultDedupTTL
	}
	if deps.ReplyWindow <= 0 {
		deps.ReplyWindow = defaultReplyWindow
	}
	return &Orchestrator{log: log, deps: deps}
}

// Handle возвращает текст ответа. Пустая строка означает тихое подтверждение.
// Паника или непредвиденная ошибка не выходит за пределы метода.
func (o *Orchestrator) Handle(ctx context.Context, ev domain.InboundEvent) (reply string) {
	start := time.Now()
	metrics.InboundEvents.WithLabelValues(string(ev.Kind)).Inc()
	defer func() {
		metrics.HandlerDuration.Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			metrics.HandlerPanics.Inc()
			o.log.Error().
				Str("user", ev.UserID).
				Str("kind", string(ev.Kind)).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("паника при обработке сообщения")
			reply = ""
		}
	}()

	key := dedupKey(ev)
	fresh := false
	if o.deps.Cache != nil {
		err := o.deps.Cache.Once("msg:"+key, o.deps.DedupTTL, func() error {
			fresh = true
			return nil
		})
		if err != nil {
			o.log.Warn().Err(err).Str("user", ev.UserID).Msg("дедупликация недоступна, обрабатываем сообщение")
			fresh = true
		}
	} else {
		fresh = true
	}
	if !fresh {
		metrics.DuplicateEvents.Inc()
		o.log.Debug().Str("user", ev.UserID).Str("msg_id", ev.MsgID).Msg("повторная доставка")
		cached, err := o.deps.Cache.Get("reply:" + key)
		if err != nil {
			return ""
		}
		return string(cached)
	}

	reply, err := o.handle(ctx, ev, start.Add(o.deps.ReplyWindow))
	if err != nil {
		o.log.Error().Err(err).Str("user", ev.UserID).Str("kind", string(ev.Kind)).Msg("ошибка обработки сообщения")
		return ""
	}
	if o.deps.Cache != nil && reply != "" {
		if err := o.deps.Cache.Set("reply:"+key, []byte(reply), o.deps.DedupTTL); err != nil {
			o.log.Warn().Err(err).Msg("не удалось сохранить ответ для повторной доставки")
		}
	}
	return reply
}

func (o *Orchestrator) handle(ctx context.Context, ev domain.InboundEvent, deadline time.Time) (string, error) {
	if o.deps.Locker != nil {
		unlock, err := o.deps.Locker.Lock(ctx, ev.UserID)
		if err != nil {
			return "", fmt.Errorf("lock user: %w", err)
		}
		defer unlock()
	}

	o.record(ctx, ev)

	out, err := o.deps.Dispatcher.Dispatch(ctx, ev)
	if err != nil {
		return "", err
	}
	if ev.Kind != domain.EventText {
		return out.Reply, nil
	}
	return out.Reply + o.suffixes(ctx, ev.UserID, out, deadline), nil
}

// record пишет сообщение в журнал и счётчики.
func (o *Orchestrator) record(ctx context.Context, ev domain.InboundEvent) {
	var event, content string
	switch ev.Kind {
	case domain.EventText:
		event, content = domain.StatTextMessage, ev.Content
	case domain.EventImage:
		event, content = domain.StatImageMessage, ev.PicURL
	case domain.EventLocation:
		event, content = domain.StatLocationMessage, ev.Label
	default:
		return
	}
	now := o.deps.Now()
	if o.deps.Messages != nil {
		rec := domain.MessageRecord{UserID: ev.UserID, Kind: ev.Kind, Content: content, At: now}
		if err := o.deps.Messages.Append(ctx, rec); err != nil {
			o.log.Warn().Err(err).Str("user", ev.UserID).Msg("не удалось записать сообщение в журнал")
		}
	}
	metrics.IncEvent(event)
	if o.deps.Stats != nil {
		if err := o.deps.Stats.Incr(ctx, event, now); err != nil {
			o.log.Warn().Err(err).Str("event", event).Msg("не удалось обновить статистику")
		}
	}
}

// suffixes дополнения к ответу на текстовое сообщение. Дата первого
// сообщения за день отмечается только на ответе, к которому можно добавить
// приветствие, и только если на него осталось время. Неудачное приветствие
// дату всё равно расходует.
func (o *Orchestrator) suffixes(ctx context.Context, userID string, out dispatch.Outcome, deadline time.Time) string {
	if !augmentable(out) {
		return ""
	}
	hasTime := time.Until(deadline) >= minGreetingTime
	today := o.deps.Now().In(o.deps.Location).Format(dateLayout)
	var previous string
	profile, err := o.deps.Profiles.Update(ctx, userID, func(p *domain.UserProfile) error {
		previous = p.LastInteractionDate
		if hasTime {
			p.LastInteractionDate = today
		}
		return nil
	})
	if err != nil {
		o.log.Warn().Err(err).Str("user", userID).Msg("не удалось отметить дату взаимодействия")
		return ""
	}
	if !profile.IsVIP() {
		return ""
	}

	var suffix string
	if out.Command != router.CmdRecipeList {
		suffix += o.notificationSuffix(ctx, userID)
	}
	if hasTime && previous != today && profile.WeatherPush && profile.HasCity() && o.deps.Greeter != nil {
		greetCtx, cancel := context.WithDeadline(ctx, deadline)
		greeting, err := o.deps.Greeter.Greeting(greetCtx, *profile.WeatherCity)
		cancel()
		if err != nil {
			o.log.Warn().Err(err).Str("user", userID).Str("city", profile.WeatherCity.Name).Msg("приветствие с погодой не получено")
		} else {
			suffix += greeting
		}
	}
	return suffix
}

func (o *Orchestrator) notificationSuffix(ctx context.Context, userID string) string {
	if o.deps.Notifications == nil {
		return ""
	}
	pending, err := o.deps.Notifications.Pending(ctx, userID)
	if err != nil {
		o.log.Warn().Err(err).Str("user", userID).Msg("не удалось получить уведомления")
		return ""
	}
	if len(pending) == 0 {
		return ""
	}
	return fmt.Sprintf(textNotificationSuffix, len(pending))
}

// augmentable дополнения добавляются к командам и свободному диалогу,
// но не к шагам сессии и не к ответам, где погода уже показана.
func augmentable(out dispatch.Outcome) bool {
	if out.ShowsWeather || out.Reply == "" {
		return false
	}
	return out.Route == dispatch.RouteCommand || out.Route == dispatch.RouteFallback
}

// dedupKey ключ повторной доставки: MsgId, а для событий без него
// пользователь, время создания и тип.
func dedupKey(ev domain.InboundEvent) string {
	if ev.MsgID != "" {
		return ev.MsgID
	}
	return ev.UserID + ":" + strconv.FormatInt(ev.CreatedAt.Unix(), 10) + ":" + string(ev.Kind)
}
