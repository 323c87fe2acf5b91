package weather

import (
	"strings"
	"unicode/utf8"

	"wx-home-bot/internal/domain"
)

// CityID возвращает идентификатор QWeather для известного города.
func CityID(name string) (string, bool) {
	id, ok := cityIDs[normalizeCity(name)]
	return id, ok
}

// Pinyin возвращает латинское имя города для wttr.in; неизвестный город возвращается как есть.
func Pinyin(name string) string {
	name = normalizeCity(name)
	if p, ok := cityPinyin[name]; ok {
		return p
	}
	return name
}

// ResolveCity собирает город пользователя из введённого текста.
func ResolveCity(input string) (domain.WeatherCity, bool) {
	name := normalizeCity(input)
	if name == "" || utf8.RuneCountInString(name) > 20 {
		return domain.WeatherCity{}, false
	}
	city := domain.WeatherCity{Name: name}
	if id, ok := cityIDs[name]; ok {
		city.QueryKey = id
	}
	return city, true
}

// normalizeCity убирает пробелы и суффикс "市", как его пишут пользователи.
func normalizeCity(name string) string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > 2 {
		name = strings.TrimSuffix(name, "市")
	}
	return name
}

var citySuffixes = []string{"市", "区", "县"}

// ParseCityFromLabel достаёт город из подписи геоточки,
// например "广东省深圳市南山区xxx" -> "深圳".
func ParseCityFromLabel(label string) (string, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", false
	}
	start := 0
	if idx := strings.Index(label, "省"); idx >= 0 {
		start = idx + len("省")
	} else if idx := strings.Index(label, "自治区"); idx >= 0 {
		start = idx + len("自治区")
	}
	for _, suffix := range citySuffixes {
		idx := strings.Index(label[start:], suffix)
		if idx <= 0 {
			continue
		}
		return label[start : start+idx], true
	}
	return "", false
}
