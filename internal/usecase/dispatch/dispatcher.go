package dispatch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"wx-home-bot/internal/domain"
	"wx-home-bot/internal/infra/metrics"
	"wx-home-bot/internal/usecase/checkin"
	"wx-home-bot/internal/usecase/router"
	"wx-home-bot/internal/usecase/weather"
)

// Route откуда пришёл основной ответ.
type Route string

const (
	RouteSession  Route = "session"
	RouteCommand  Route = "command"
	RouteFallback Route = "fallback"
	RouteEvent    Route = "event"
)

// Outcome основной ответ и сведения о том, как он получен.
type Outcome struct {
	Reply   string
	Route   Route
	Command router.Command
	// State состояние сессии, которое обработало сообщение.
	State domain.SessionState
	// ShowsWeather ответ уже содержит погоду.
	ShowsWeather bool
}

// Weather нужная диспетчеру часть погодного сервиса.
type Weather interface {
	Report(ctx context.Context, city domain.WeatherCity) string
	ReportByLocation(ctx context.Context, lat, lon float64, label string) string
}

// Fallback ответ свободным текстом, когда команда не распознана.
type Fallback interface {
	Reply(ctx context.Context, userID, text string) string
	Reset(ctx context.Context, userID string) error
}

// Config параметры диалогов.
type Config struct {
	SecretCode    string
	VerifyTimeout time.Duration
}

// Deps зависимости диспетчера.
type Deps struct {
	Sessions      domain.SessionStore
	Profiles      domain.ProfileRepo
	Recipes       domain.RecipeRepo
	Notifications domain.NotificationRepo
	Rules         domain.RuleRepo
	Stats         domain.StatsRepo
	Router        *router.Router
	Checkin       *checkin.Service
	Weather       Weather
	Fallback      Fallback
	Now           func() time.Time
	// Pick выбирает случайный индекс в [0, n); по умолчанию math/rand.
	Pick func(n int) int
}

// Dispatcher решает, какой диалог или команда обработает сообщение.
type Dispatcher struct {
	log  zerolog.Logger
	deps Deps
	cfg  Config
}

// New создаёт диспетчер.
func New(log zerolog.Logger, deps Deps, cfg Config) *Dispatcher {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Pick == nil {
		deps.Pick = rand.Intn
	}
	if deps.Router == nil {
		deps.Router = router.New()
	}
	if cfg.VerifyTimeout <= 0 {
		cfg.VerifyTimeout = 300 * time.Second
	}
	return &Dispatcher{log: log, deps: deps, cfg: cfg}
}

// Dispatch обрабатывает одно входящее событие и возвращает ровно один ответ.
// Ошибка возвращается, только если состояние пользователя прочитать не удалось.
func (d *Dispatcher) Dispatch(ctx context.Context, ev domain.InboundEvent) (Outcome, error) {
	switch ev.Kind {
	case domain.EventText:
		return d.handleText(ctx, ev.UserID, strings.TrimSpace(ev.Content))
	case domain.EventLocation:
		return d.handleLocation(ctx, ev)
	case domain.EventImage:
		return Outcome{Reply: textImageReceived, Route: RouteEvent}, nil
	case domain.EventSubscribe:
		return d.handleSubscribe(ctx, ev.UserID)
	case domain.EventUnsubscribe:
		return d.handleUnsubscribe(ctx, ev.UserID)
	default:
		return Outcome{Route: RouteEvent}, nil
	}
}

func (d *Dispatcher) handleText(ctx context.Context, userID, text string) (Outcome, error) {
	session, ok, err := d.deps.Sessions.Get(ctx, userID)
	if err != nil {
		return Outcome{}, fmt.Errorf("dispatch: get session: %w", err)
	}
	if ok && session.Active() {
		out, err := d.continueSession(ctx, userID, text, session)
		out.Route, out.State = RouteSession, session.State
		if err != nil {
			d.log.Error().Err(err).Str("user", userID).Str("state", string(session.State)).Msg("ошибка в диалоге")
			if out.Reply == "" {
				out.Reply = textTryLater
			}
		}
		d.observe(out)
		return out, nil
	}

	rules, err := d.deps.Rules.Rules(ctx)
	if err != nil {
		d.log.Warn().Err(err).Msg("не удалось загрузить правила ответов")
	}
	match, ok := d.deps.Router.Route(text, rules)
	if !ok {
		out := Outcome{Reply: d.deps.Fallback.Reply(ctx, userID, text), Route: RouteFallback}
		d.observe(out)
		return out, nil
	}

	out, err := d.runCommand(ctx, userID, match)
	out.Route, out.Command = RouteCommand, match.Command
	if err != nil {
		d.log.Error().Err(err).Str("user", userID).Str("command", string(match.Command)).Msg("ошибка выполнения команды")
		if out.Reply == "" {
			out.Reply = textTryLater
		}
	}
	d.observe(out)
	return out, nil
}

func (d *Dispatcher) continueSession(ctx context.Context, userID, text string, s domain.Session) (Outcome, error) {
	switch s.State {
	case domain.SessionWaitingVerify:
		return d.continueVerify(ctx, userID, text, s)
	case domain.SessionWaitingRecipe, domain.SessionWaitingRecipeCategory:
		return d.continueRecipe(ctx, userID, text, s)
	case domain.SessionWaitingWeatherCity:
		return d.continueCity(ctx, userID, text)
	case domain.SessionWaitingNickname:
		return d.continueNickname(ctx, userID, text)
	}
	d.log.Warn().Str("user", userID).Str("state", string(s.State)).Msg("неизвестное состояние сессии, сбрасываем")
	return Outcome{}, d.deps.Sessions.Clear(ctx, userID)
}

// continueVerify проверяет срок до разбора текста: истёкшая сессия отвечает
// одинаково на любой ввод, даже на верный код.
func (d *Dispatcher) continueVerify(ctx context.Context, userID, text string, s domain.Session) (Outcome, error) {
	now := d.deps.Now()
	payload, ok := s.Payload.(domain.VerifyPayload)
	if !ok || now.After(payload.ExpiresAt) {
		return Outcome{Reply: textVerifyExpired}, d.deps.Sessions.Clear(ctx, userID)
	}
	if router.IsCancel(text) {
		return Outcome{Reply: textVerifyCancelled}, d.deps.Sessions.Clear(ctx, userID)
	}
	// Без настроенного кода пустой ввод совпал бы с ним.
	if d.cfg.SecretCode == "" {
		return Outcome{Reply: textVerifyUnavailable}, d.deps.Sessions.Clear(ctx, userID)
	}
	if text != d.cfg.SecretCode {
		return Outcome{Reply: textVerifyWrong}, nil
	}
	if err := d.deps.Sessions.Clear(ctx, userID); err != nil {
		return Outcome{}, fmt.Errorf("clear session: %w", err)
	}
	vip, created, err := d.deps.Profiles.MintVIP(ctx, userID, now)
	if err != nil {
		return Outcome{}, fmt.Errorf("mint vip: %w", err)
	}
	verifiedAt := vip.VerifiedAt.Format("2006-01-02 15:04:05")
	if !created {
		return Outcome{Reply: fmt.Sprintf(textAlreadyVIP, vip.ID, verifiedAt)}, nil
	}
	d.incr(ctx, domain.StatVIPVerification)
	d.log.Info().Str("user", userID).Str("vip", vip.ID).Msg("новый VIP")
	return Outcome{Reply: fmt.Sprintf(textVIPWelcome, vip.ID, verifiedAt)}, nil
}

func (d *Dispatcher) continueRecipe(ctx context.Context, userID, text string, s domain.Session) (Outcome, error) {
	if router.IsCancel(text) {
		return Outcome{Reply: textRecipeCancelled}, d.deps.Sessions.Clear(ctx, userID)
	}
	if s.State == domain.SessionWaitingRecipe {
		return d.askCategory(ctx, userID, text)
	}
	category, ok := domain.CategoryByKeyword(text)
	if !ok {
		return Outcome{Reply: textRecipeCategoryInvalid}, nil
	}
	draft, _ := s.Payload.(domain.RecipeDraftPayload)
	if err := d.deps.Sessions.Clear(ctx, userID); err != nil {
		return Outcome{}, fmt.Errorf("clear session: %w", err)
	}
	return d.saveRecipe(ctx, userID, draft.Content, category)
}

// askCategory сохраняет черновик и переводит диалог к выбору категории.
func (d *Dispatcher) askCategory(ctx context.Context, userID, content string) (Outcome, error) {
	name := domain.DeriveRecipeName(content)
	err := d.deps.Sessions.Set(ctx, userID, domain.Session{
		State:     domain.SessionWaitingRecipeCategory,
		StartedAt: d.deps.Now(),
		Payload:   domain.RecipeDraftPayload{Name: name, Content: content},
	})
	if err != nil {
		return Outcome{Reply: textRecipeAddFailed}, fmt.Errorf("set session: %w", err)
	}
	return Outcome{Reply: fmt.Sprintf(textRecipeCategoryPrompt, name)}, nil
}

func (d *Dispatcher) continueCity(ctx context.Context, userID, text string) (Outcome, error) {
	if router.IsCancel(text) {
		return Outcome{Reply: textWeatherCityCancelled}, d.deps.Sessions.Clear(ctx, userID)
	}
	city, ok := weather.ResolveCity(text)
	if !ok {
		return Outcome{Reply: textWeatherCityInvalid}, nil
	}
	return d.saveCity(ctx, userID, city)
}

func (d *Dispatcher) saveCity(ctx context.Context, userID string, city domain.WeatherCity) (Outcome, error) {
	_, err := d.deps.Profiles.Update(ctx, userID, func(p *domain.UserProfile) error {
		p.WeatherCity = &city
		return nil
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("save city: %w", err)
	}
	if err := d.deps.Sessions.Clear(ctx, userID); err != nil {
		return Outcome{}, fmt.Errorf("clear session: %w", err)
	}
	reply := fmt.Sprintf(textWeatherCitySet, city.Name) + "\n\n" + d.deps.Weather.Report(ctx, city)
	return Outcome{Reply: reply, ShowsWeather: true}, nil
}

func (d *Dispatcher) continueNickname(ctx context.Context, userID, text string) (Outcome, error) {
	if router.IsCancel(text) {
		return Outcome{Reply: textNicknameCancelled}, d.deps.Sessions.Clear(ctx, userID)
	}
	if !domain.ValidNickname(text) {
		return Outcome{Reply: fmt.Sprintf(textNicknameInvalid, domain.NicknameMinLength, domain.NicknameMaxLength)}, nil
	}
	_, err := d.deps.Profiles.Update(ctx, userID, func(p *domain.UserProfile) error {
		p.Nickname = text
		return nil
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("save nickname: %w", err)
	}
	if err := d.deps.Sessions.Clear(ctx, userID); err != nil {
		return Outcome{}, fmt.Errorf("clear session: %w", err)
	}
	return Outcome{Reply: fmt.Sprintf(textNicknameSet, text)}, nil
}

// handleLocation геоточка: внутри выбора города пытается сохранить город из подписи,
// иначе отвечает погодой по координатам.
func (d *Dispatcher) handleLocation(ctx context.Context, ev domain.InboundEvent) (Outcome, error) {
	session, ok, err := d.deps.Sessions.Get(ctx, ev.UserID)
	if err != nil {
		return Outcome{}, fmt.Errorf("dispatch: get session: %w", err)
	}
	if ok && session.State == domain.SessionWaitingWeatherCity {
		if name, found := weather.ParseCityFromLabel(ev.Label); found {
			if city, valid := weather.ResolveCity(name); valid {
				out, err := d.saveCity(ctx, ev.UserID, city)
				out.Route, out.State = RouteSession, session.State
				if err != nil {
					d.log.Error().Err(err).Str("user", ev.UserID).Msg("не удалось сохранить город по геоточке")
					out.Reply = textTryLater
				}
				return out, nil
			}
		}
		reply := d.deps.Weather.ReportByLocation(ctx, ev.Latitude, ev.Longitude, ev.Label) + textLocationCityUnknown
		return Outcome{Reply: reply, Route: RouteSession, State: session.State, ShowsWeather: true}, nil
	}
	reply := d.deps.Weather.ReportByLocation(ctx, ev.Latitude, ev.Longitude, ev.Label)
	return Outcome{Reply: reply, Route: RouteEvent, ShowsWeather: true}, nil
}

func (d *Dispatcher) handleSubscribe(ctx context.Context, userID string) (Outcome, error) {
	now := d.deps.Now()
	_, err := d.deps.Profiles.Update(ctx, userID, func(p *domain.UserProfile) error {
		p.Subscribed = true
		p.SubscribedAt = &now
		p.UnsubscribedAt = nil
		return nil
	})
	if err != nil {
		d.log.Error().Err(err).Str("user", userID).Msg("не удалось сохранить подписку")
	}
	d.incr(ctx, domain.StatSubscribe)
	return Outcome{Reply: textWelcome, Route: RouteEvent}, nil
}

func (d *Dispatcher) handleUnsubscribe(ctx context.Context, userID string) (Outcome, error) {
	now := d.deps.Now()
	if err := d.deps.Sessions.Clear(ctx, userID); err != nil {
		d.log.Warn().Err(err).Str("user", userID).Msg("не удалось сбросить сессию при отписке")
	}
	_, err := d.deps.Profiles.Update(ctx, userID, func(p *domain.UserProfile) error {
		p.Subscribed = false
		p.UnsubscribedAt = &now
		return nil
	})
	if err != nil {
		d.log.Error().Err(err).Str("user", userID).Msg("не удалось сохранить отписку")
	}
	d.incr(ctx, domain.StatUnsubscribe)
	return Outcome{Route: RouteEvent}, nil
}

// profile возвращает профиль или пустой профиль нового пользователя.
func (d *Dispatcher) profile(ctx context.Context, userID string) (domain.UserProfile, error) {
	p, err := d.deps.Profiles.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.UserProfile{UserID: userID}, nil
	}
	return p, err
}

func (d *Dispatcher) incr(ctx context.Context, event string) {
	metrics.IncEvent(event)
	if d.deps.Stats == nil {
		return
	}
	if err := d.deps.Stats.Incr(ctx, event, d.deps.Now()); err != nil {
		d.log.Warn().Err(err).Str("event", event).Msg("не удалось обновить статистику")
	}
}

func (d *Dispatcher) observe(out Outcome) {
	metrics.DispatchOutcomes.WithLabelValues(string(out.Route), string(out.Command)).Inc()
}
