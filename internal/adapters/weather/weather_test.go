package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wx-home-bot/internal/domain"
)

func TestQWeatherUsesLocalCityID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v7/weather/now" {
			t.Errorf("не ожидали запрос %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("location"); got != "101280101" {
			t.Errorf("неожиданный location: %s", got)
		}
		_, _ = w.Write([]byte(`{"code":"200","updateTime":"2026-10-16T07:00+08:00","now":{"temp":"26","feelsLike":"28","text":"多云","windDir":"东风","windScale":"3","humidity":"70"}}`))
	}))
	defer srv.Close()

	q := NewQWeather("key", srv.URL, time.Second)
	report, err := q.Lookup(context.Background(), domain.WeatherQuery{City: "广州"})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if report.TempC != 26 || report.FeelsLikeC != 28 || report.Condition != "多云" || report.WindScale != "3" {
		t.Fatalf("неожиданный отчёт: %+v", report)
	}
	if report.ObservedAt.IsZero() {
		t.Fatal("время наблюдения не разобрано")
	}
}

func TestQWeatherSearchesUnknownCity(t *testing.T) {
	var geoCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/geo/v2/city/lookup":
			geoCalls++
			_, _ = w.Write([]byte(`{"code":"200","location":[{"id":"101230801","name":"三明"}]}`))
		case "/v7/weather/now":
			if r.URL.Query().Get("location") != "101230801" {
				t.Errorf("ожидали id из GEO API")
			}
			_, _ = w.Write([]byte(`{"code":"200","now":{"temp":"18","text":"小雨"}}`))
		}
	}))
	defer srv.Close()

	q := NewQWeather("key", srv.URL, time.Second)
	report, err := q.Lookup(context.Background(), domain.WeatherQuery{City: "三明"})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if geoCalls != 1 || report.TempC != 18 || report.FeelsLikeC != 18 {
		t.Fatalf("неожиданный результат: %+v, geo=%d", report, geoCalls)
	}
}

func TestQWeatherCityNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"404"}`))
	}))
	defer srv.Close()

	q := NewQWeather("key", srv.URL, time.Second)
	_, err := q.Lookup(context.Background(), domain.WeatherQuery{City: "不存在"})
	if !errors.Is(err, ErrCityNotFound) {
		t.Fatalf("ожидали ErrCityNotFound, получили %v", err)
	}
}

func TestWttrLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Shenzhen" || r.URL.Query().Get("format") != "j1" {
			t.Errorf("неожиданный запрос: %s", r.URL.String())
		}
		if r.Header.Get("Accept-Language") != "zh-CN" {
			t.Errorf("нет Accept-Language")
		}
		_, _ = w.Write([]byte(`{"current_condition":[{"temp_C":"31","FeelsLikeC":"35","humidity":"80","windspeedKmph":"15","winddir16Point":"SE","lang_zh":[{"value":"晴天"}],"weatherDesc":[{"value":"Sunny"}]}]}`))
	}))
	defer srv.Close()

	w := NewWttr(srv.URL, time.Second)
	report, err := w.Lookup(context.Background(), domain.WeatherQuery{City: "深圳"})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if report.TempC != 31 || report.Condition != "晴天" || report.WindScale != "3" || report.City != "深圳" {
		t.Fatalf("неожиданный отчёт: %+v", report)
	}
}

func TestWttrByCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"current_condition":[{"temp_C":"5","weatherDesc":[{"value":"Light snow"}]}],"nearest_area":[{"areaName":[{"value":"Harbin"}]}]}`))
	}))
	defer srv.Close()

	w := NewWttr(srv.URL, time.Second)
	report, err := w.Lookup(context.Background(), domain.WeatherQuery{Latitude: 45.8, Longitude: 126.5, HasCoords: true})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if report.City != "Harbin" || report.Condition != "Light snow" || report.FeelsLikeC != 5 {
		t.Fatalf("неожиданный отчёт: %+v", report)
	}
}

func TestWttrBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := NewWttr(srv.URL, time.Second).Lookup(context.Background(), domain.WeatherQuery{City: "北京"}); err == nil {
		t.Fatal("ожидали ошибку статуса")
	}
}
