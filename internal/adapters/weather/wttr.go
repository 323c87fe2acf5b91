package weather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"wx-home-bot/internal/domain"
	"wx-home-bot/internal/infra/metrics"
	weathersvc "wx-home-bot/internal/usecase/weather"
)

// Wttr бесплатный источник wttr.in, не требует ключа.
type Wttr struct {
	http    *http.Client
	baseURL string
}

// NewWttr создаёт клиента; пустой baseURL означает https://wttr.in.
func NewWttr(baseURL string, timeout time.Duration) *Wttr {
	if baseURL == "" {
		baseURL = "https://wttr.in"
	}
	return &Wttr{http: &http.Client{Timeout: timeout}, baseURL: strings.TrimRight(baseURL, "/")}
}

// Name имя источника для метрик и логов.
func (w *Wttr) Name() string { return "wttr" }

type wttrValue struct {
	Value string `json:"value"`
}

type wttrResponse struct {
	CurrentCondition []struct {
		TempC         string      `json:"temp_C"`
		FeelsLikeC    string      `json:"FeelsLikeC"`
		Humidity      string      `json:"humidity"`
		WindSpeedKmph string      `json:"windspeedKmph"`
		WindDir       string      `json:"winddir16Point"`
		LangZh        []wttrValue `json:"lang_zh"`
		WeatherDesc   []wttrValue `json:"weatherDesc"`
	} `json:"current_condition"`
	NearestArea []struct {
		AreaName []wttrValue `json:"areaName"`
	} `json:"nearest_area"`
}

// Lookup запрашивает погоду по пиньиню города или по координатам.
func (w *Wttr) Lookup(ctx context.Context, q domain.WeatherQuery) (domain.WeatherReport, error) {
	var location string
	switch {
	case q.City != "":
		location = weathersvc.Pinyin(q.City)
	case q.HasCoords:
		location = fmt.Sprintf("%.4f,%.4f", q.Latitude, q.Longitude)
	default:
		return domain.WeatherReport{}, errors.New("wttr: empty query")
	}

	endpoint := w.baseURL + "/" + url.PathEscape(location) + "?format=j1"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.WeatherReport{}, fmt.Errorf("wttr: build request: %w", err)
	}
	req.Header.Set("Accept-Language", "zh-CN")

	var resp wttrResponse
	start := time.Now()
	err = doJSON(w.http, req, &resp)
	metrics.ObserveNetworkRequest("wttr", "current", w.baseURL, start, err)
	if err != nil {
		return domain.WeatherReport{}, fmt.Errorf("wttr: %w", err)
	}
	if len(resp.CurrentCondition) == 0 {
		return domain.WeatherReport{}, errors.New("wttr: no current condition")
	}
	cur := resp.CurrentCondition[0]
	temp, err := strconv.Atoi(cur.TempC)
	if err != nil {
		return domain.WeatherReport{}, fmt.Errorf("wttr: parse temp %q: %w", cur.TempC, err)
	}

	condition := firstValue(cur.LangZh)
	if condition == "" {
		condition = firstValue(cur.WeatherDesc)
	}
	report := domain.WeatherReport{
		City:       q.City,
		TempC:      temp,
		FeelsLikeC: atoiOr(cur.FeelsLikeC, temp),
		Condition:  condition,
		Humidity:   atoiOr(cur.Humidity, 0),
		WindDir:    cur.WindDir,
		WindScale:  strconv.Itoa(beaufort(atoiOr(cur.WindSpeedKmph, 0))),
		ObservedAt: time.Now(),
	}
	if report.City == "" && len(resp.NearestArea) > 0 {
		report.City = firstValue(resp.NearestArea[0].AreaName)
	}
	return report, nil
}

func firstValue(values []wttrValue) string {
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0].Value)
}

// beaufortLimits верхние границы баллов шкалы Бофорта в км/ч.
var beaufortLimits = []int{1, 5, 11, 19, 28, 38, 49, 61, 74, 88, 102, 117}

func beaufort(kmph int) int {
	for scale, limit := range beaufortLimits {
		if kmph <= limit {
			return scale
		}
	}
	return len(beaufortLimits)
}
