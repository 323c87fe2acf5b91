package domain

import "time"

// SessionState состояние многошагового диалога.
type SessionState string

const (
	SessionNone                  SessionState = "none"
	SessionWaitingVerify         SessionState = "waiting_verify"
	SessionWaitingRecipe         SessionState = "waiting_recipe"
	SessionWaitingRecipeCategory SessionState = "waiting_recipe_category"
	SessionWaitingWeatherCity    SessionState = "waiting_weather_city"
	SessionWaitingNickname       SessionState = "waiting_nickname"
)

// SessionPayload данные, которые нужны конкретному состоянию.
type SessionPayload interface {
	sessionPayload()
}

// VerifyPayload хранит срок действия проверки кода.
type VerifyPayload struct {
	ExpiresAt time.Time `json:"expires_at"`
}

// RecipeDraftPayload хранит черновик рецепта до выбора категории.
type RecipeDraftPayload struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// NoPayload для состояний без данных.
type NoPayload struct{}

func (VerifyPayload) sessionPayload()      {}
func (RecipeDraftPayload) sessionPayload() {}
func (NoPayload) sessionPayload()          {}

// Session единственная активная сессия пользователя.
type Session struct {
	State     SessionState
	StartedAt time.Time
	Payload   SessionPayload
}

// Active сообщает, что пользователь находится внутри диалога.
func (s Session) Active() bool {
	return s.State != "" && s.State != SessionNone
}

// StoreTTL срок хранения сессии при простое idle. Сессия проверки кода
// хранится без срока: её истечение проверяет диалог по ExpiresAt.
func (s Session) StoreTTL(idle time.Duration) time.Duration {
	if s.State == SessionWaitingVerify {
		return 0
	}
	if _, ok := s.Payload.(VerifyPayload); ok {
		return 0
	}
	return idle
}
