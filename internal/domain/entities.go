package domain

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// VIP описывает подтверждённый статус пользователя.
type VIP struct {
	ID         string    `json:"id"`
	Number     int       `json:"number"`
	VerifiedAt time.Time `json:"verified_at"`
	Active     bool      `json:"active"`
}

// WeatherCity хранит сохранённый город пользователя.
type WeatherCity struct {
	Name     string `json:"name"`
	QueryKey string `json:"query_key,omitempty"`
}

// UserProfile содержит долговременные атрибуты пользователя.
type UserProfile struct {
	UserID              string        `json:"user_id"`
	Subscribed          bool          `json:"subscribed"`
	SubscribedAt        *time.Time    `json:"subscribed_at,omitempty"`
	UnsubscribedAt      *time.Time    `json:"unsubscribed_at,omitempty"`
	VIP                 *VIP          `json:"vip,omitempty"`
	Nickname            string        `json:"nickname,omitempty"`
	WeatherCity         *WeatherCity  `json:"weather_city,omitempty"`
	WeatherPush         bool          `json:"weather_push"`
	Checkin             CheckinLedger `json:"checkin"`
	LastInteractionDate string        `json:"last_interaction_date,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// IsVIP сообщает, активен ли VIP-статус.
func (p UserProfile) IsVIP() bool {
	return p.VIP != nil && p.VIP.Active
}

// HasCity сообщает, сохранён ли город для погоды.
func (p UserProfile) HasCity() bool {
	return p.WeatherCity != nil && strings.TrimSpace(p.WeatherCity.Name) != ""
}

// DefaultNicknamePrefix используется для пользователей без ника.
const DefaultNicknamePrefix = "用户"

// DisplayName возвращает ник или имя по умолчанию.
func (p UserProfile) DisplayName() string {
	if p.Nickname != "" {
		return p.Nickname
	}
	short := p.UserID
	if utf8.RuneCountInString(short) > 6 {
		short = string([]rune(short)[:6])
	}
	return DefaultNicknamePrefix + short
}

const (
	NicknameMinLength = 2
	NicknameMaxLength = 12
)

// ValidNickname проверяет длину и набор символов ника:
// иероглифы, латиница, цифры и подчёркивание.
func ValidNickname(nickname string) bool {
	n := utf8.RuneCountInString(nickname)
	if n < NicknameMinLength || n > NicknameMaxLength {
		return false
	}
	for _, r := range nickname {
		switch {
		case unicode.Is(unicode.Han, r):
		case r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'):
		default:
			return false
		}
	}
	return true
}

// RecipeCategory классифицирует рецепт.
type RecipeCategory string

const (
	RecipeCategoryNone RecipeCategory = ""
	RecipeCategoryMeat RecipeCategory = "meat"
	RecipeCategoryVeg  RecipeCategory = "veg"
)

var (
	meatKeywords = []string{"荤", "荤菜", "1", "肉"}
	vegKeywords  = []string{"素", "素菜", "2", "蔬菜"}
)

// CategoryByKeyword распознаёт категорию по ответу пользователя.
func CategoryByKeyword(keyword string) (RecipeCategory, bool) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	for _, k := range meatKeywords {
		if keyword == k {
			return RecipeCategoryMeat, true
		}
	}
	for _, k := range vegKeywords {
		if keyword == k {
			return RecipeCategoryVeg, true
		}
	}
	return RecipeCategoryNone, false
}

// Label возвращает отображаемое имя категории.
func (c RecipeCategory) Label() string {
	switch c {
	case RecipeCategoryMeat:
		return "🥩 荤菜"
	case RecipeCategoryVeg:
		return "🥬 素菜"
	default:
		return "未分类"
	}
}

// Recipe описывает запись в общем списке рецептов.
type Recipe struct {
	ID          int            `json:"id"`
	Name        string         `json:"name"`
	Content     string         `json:"content"`
	Category    RecipeCategory `json:"category,omitempty"`
	CreatorID   string         `json:"creator_id"`
	CreatorName string         `json:"creator_name"`
	CreatedAt   time.Time      `json:"created_at"`
}

// recipeNameLabels подписи, которые DeriveRecipeName отрезает перед названием.
var recipeNameLabels = map[string]bool{
	"菜名": true, "菜谱": true, "名称": true, "名字": true, "标题": true,
	"name": true, "title": true,
}

// DeriveRecipeName берёт первую строку и отрезает подпись вида "菜名：".
// Текст до двоеточия, не являющийся подписью, остаётся частью названия:
// "红烧肉: 五花肉500g" сохраняется как есть.
func DeriveRecipeName(content string) string {
	first := strings.TrimSpace(content)
	if idx := strings.IndexByte(first, '\n'); idx >= 0 {
		first = strings.TrimSpace(first[:idx])
	}
	for _, sep := range []string{"：", ":"} {
		idx := strings.Index(first, sep)
		if idx < 0 {
			continue
		}
		label := strings.ToLower(strings.TrimSpace(first[:idx]))
		if rest := strings.TrimSpace(first[idx+len(sep):]); recipeNameLabels[label] && rest != "" {
			first = rest
		}
		break
	}
	return first
}

// RecipeNotification хранит непрочитанное уведомление о новом рецепте.
type RecipeNotification struct {
	RecipeName string    `json:"recipe_name"`
	At         time.Time `json:"at"`
}

// MessageLogLimit ограничивает историю сообщений пользователя.
const MessageLogLimit = 100

// MessageRecord элемент истории входящих сообщений.
type MessageRecord struct {
	UserID  string    `json:"user_id"`
	Kind    EventKind `json:"kind"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// ReplyRule пользовательское правило ответа.
type ReplyRule struct {
	Key      string `json:"key" yaml:"key"`
	Template string `json:"template" yaml:"template"`
}

// Роли сообщений диалога с моделью.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage сообщение диалога с моделью.
type ChatMessage struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at,omitempty"`
}

// WeatherQuery описывает запрос погоды по городу или координатам.
type WeatherQuery struct {
	City      string
	QueryKey  string
	Latitude  float64
	Longitude float64
	HasCoords bool
}

// WeatherReport результат запроса погоды.
type WeatherReport struct {
	City       string
	TempC      int
	FeelsLikeC int
	Condition  string
	Humidity   int
	WindDir    string
	WindScale  string
	Provider   string
	ObservedAt time.Time
}

// Draft описывает статью для черновика официального аккаунта.
type Draft struct {
	Title        string
	Author       string
	Digest       string
	HTML         string
	ThumbMediaID string
}
