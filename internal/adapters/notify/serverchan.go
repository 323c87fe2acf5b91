package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wx-home-bot/internal/infra/metrics"
)

// ErrNoKey ключ отправки не задан.
var ErrNoKey = errors.New("serverchan: send key is empty")

// ServerChan отправляет уведомления оператору через Server酱.
type ServerChan struct {
	http *http.Client
	base string
	key  string
}

// NewServerChan создаёт клиент. base пустой для публичного API.
func NewServerChan(key, base string, timeout time.Duration) *ServerChan {
	if base == "" {
		base = "https://sctapi.ftqq.com"
	}
	return &ServerChan{http: &http.Client{Timeout: timeout}, base: strings.TrimRight(base, "/"), key: key}
}

// Notify отправляет заголовок и текст в Markdown.
func (s *ServerChan) Notify(ctx context.Context, title, content string) (err error) {
	if s.key == "" {
		return ErrNoKey
	}
	start := time.Now()
	defer func() { metrics.ObserveNetworkRequest("serverchan", "send", "sctapi", start, err) }()

	form := url.Values{}
	form.Set("title", title)
	form.Set("desp", content)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/%s.send", s.base, s.key), strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("serverchan: send: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("serverchan: decode (status %d): %w", resp.StatusCode, err)
	}
	if out.Code != 0 {
		return fmt.Errorf("serverchan: code=%d message=%s", out.Code, out.Message)
	}
	return nil
}
