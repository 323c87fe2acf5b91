package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"wx-home-bot/internal/domain"
	"wx-home-bot/internal/infra/metrics"
	weathersvc "wx-home-bot/internal/usecase/weather"
)

// ErrCityNotFound город не найден в GEO API.
var ErrCityNotFound = errors.New("qweather: city not found")

// QWeather клиент API 和风天气.
type QWeather struct {
	http   *http.Client
	apiKey string
	host   string
}

// NewQWeather создаёт клиента. host может быть без схемы, тогда используется https.
func NewQWeather(apiKey, host string, timeout time.Duration) *QWeather {
	host = strings.TrimRight(host, "/")
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	return &QWeather{http: &http.Client{Timeout: timeout}, apiKey: apiKey, host: host}
}

// Name имя источника для метрик и логов.
func (q *QWeather) Name() string { return "qweather" }

// Lookup находит код города (локальная таблица, затем GEO API) и запрашивает текущую погоду.
func (q *QWeather) Lookup(ctx context.Context, query domain.WeatherQuery) (domain.WeatherReport, error) {
	if q.apiKey == "" {
		return domain.WeatherReport{}, errors.New("qweather: api key is empty")
	}
	location, err := q.location(ctx, query)
	if err != nil {
		return domain.WeatherReport{}, err
	}

	var resp struct {
		Code       string `json:"code"`
		UpdateTime string `json:"updateTime"`
		Now        struct {
			Temp      string `json:"temp"`
			FeelsLike string `json:"feelsLike"`
			Text      string `json:"text"`
			WindDir   string `json:"windDir"`
			WindScale string `json:"windScale"`
			Humidity  string `json:"humidity"`
		} `json:"now"`
	}
	params := url.Values{"location": {location}, "key": {q.apiKey}}
	if err := q.get(ctx, "weather_now", "/v7/weather/now", params, &resp); err != nil {
		return domain.WeatherReport{}, err
	}
	if resp.Code != "200" {
		return domain.WeatherReport{}, fmt.Errorf("qweather: weather now code %s", resp.Code)
	}
	temp, err := strconv.Atoi(resp.Now.Temp)
	if err != nil {
		return domain.WeatherReport{}, fmt.Errorf("qweather: parse temp %q: %w", resp.Now.Temp, err)
	}
	report := domain.WeatherReport{
		City:       query.City,
		TempC:      temp,
		FeelsLikeC: atoiOr(resp.Now.FeelsLike, temp),
		Condition:  resp.Now.Text,
		Humidity:   atoiOr(resp.Now.Humidity, 0),
		WindDir:    resp.Now.WindDir,
		WindScale:  resp.Now.WindScale,
	}
	if ts, err := time.Parse("2006-01-02T15:04-07:00", resp.UpdateTime); err == nil {
		report.ObservedAt = ts
	}
	return report, nil
}

func (q *QWeather) location(ctx context.Context, query domain.WeatherQuery) (string, error) {
	if query.QueryKey != "" && isDigits(query.QueryKey) {
		return query.QueryKey, nil
	}
	if query.City != "" {
		if id, ok := weathersvc.CityID(query.City); ok {
			return id, nil
		}
		return q.searchCity(ctx, query.City)
	}
	if query.HasCoords {
		return fmt.Sprintf("%.2f,%.2f", query.Longitude, query.Latitude), nil
	}
	return "", errors.New("qweather: empty query")
}

func (q *QWeather) searchCity(ctx context.Context, city string) (string, error) {
	var resp struct {
		Code     string `json:"code"`
		Location []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"location"`
	}
	params := url.Values{"location": {city}, "key": {q.apiKey}}
	if err := q.get(ctx, "city_lookup", "/geo/v2/city/lookup", params, &resp); err != nil {
		return "", err
	}
	if resp.Code != "200" || len(resp.Location) == 0 {
		return "", fmt.Errorf("%w: %s (code %s)", ErrCityNotFound, city, resp.Code)
	}
	return resp.Location[0].ID, nil
}

func (q *QWeather) get(ctx context.Context, op, path string, params url.Values, out any) error {
	endpoint := q.host + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("qweather: build request: %w", err)
	}
	start := time.Now()
	err = doJSON(q.http, req, out)
	metrics.ObserveNetworkRequest("qweather", op, q.host, start, err)
	if err != nil {
		return fmt.Errorf("qweather: %s: %w", op, err)
	}
	return nil
}

func doJSON(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return errors.New("empty response")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func atoiOr(s string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return v
}
