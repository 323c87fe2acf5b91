package domain

import "time"

// EventKind тип входящего события платформы.
type EventKind string

const (
	EventText        EventKind = "text"
	EventImage       EventKind = "image"
	EventLocation    EventKind = "location"
	EventSubscribe   EventKind = "subscribe"
	EventUnsubscribe EventKind = "unsubscribe"
	EventUnknown     EventKind = "unknown"
)

// InboundEvent уже проверенное и разобранное входящее событие.
type InboundEvent struct {
	MsgID     string
	UserID    string
	AccountID string
	Kind      EventKind
	Content   string
	MediaRef  string
	PicURL    string
	Latitude  float64
	Longitude float64
	Label     string
	CreatedAt time.Time
}

// Имена событий статистики.
const (
	StatTextMessage     = "text_message"
	StatImageMessage    = "image_message"
	StatLocationMessage = "location_message"
	StatSubscribe       = "subscribe"
	StatUnsubscribe     = "unsubscribe"
	StatVIPVerification = "vip_verification"
	StatRecipeAdded     = "recipe_added"
	StatCheckin         = "checkin"
)

// StatRetentionDays сколько дней хранится дневная статистика.
const StatRetentionDays = 30
