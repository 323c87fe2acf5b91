package wechat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wx-home-bot/internal/domain"
	"wx-home-bot/internal/infra/metrics"
)

const (
	tokenCacheKey = "wechat:access_token"
	tokenMargin   = 5 * time.Minute
)

// APIError ошибка, которую вернул API платформы.
type APIError struct {
	Code    int    `json:"errcode"`
	Message string `json:"errmsg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wechat api: errcode=%d errmsg=%s", e.Code, e.Message)
}

// Client вызывает серверный API официального аккаунта.
type Client struct {
	http      *http.Client
	base      string
	appID     string
	appSecret string
	cache     domain.Cache
}

// NewClient создаёт клиент. Токен доступа кэшируется в cache.
func NewClient(base, appID, appSecret string, cache domain.Cache, timeout time.Duration) *Client {
	if base == "" {
		base = "https://api.weixin.qq.com"
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		base:      strings.TrimRight(base, "/"),
		appID:     appID,
		appSecret: appSecret,
		cache:     cache,
	}
}

// AccessToken возвращает действующий токен, запрашивая новый за пять минут до истечения.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	if cached, err := c.cache.Get(tokenCacheKey); err == nil && len(cached) > 0 {
		return string(cached), nil
	}
	q := url.Values{}
	q.Set("grant_type", "client_credential")
	q.Set("appid", c.appID)
	q.Set("secret", c.appSecret)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/cgi-bin/token?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	var resp struct {
		APIError
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := c.do(req, "token", &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", &resp.APIError
	}
	ttl := time.Duration(resp.ExpiresIn)*time.Second - tokenMargin
	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := c.cache.Set(tokenCacheKey, []byte(resp.AccessToken), ttl); err != nil {
		return "", fmt.Errorf("wechat: cache token: %w", err)
	}
	return resp.AccessToken, nil
}

type draftArticle struct {
	Title              string `json:"title"`
	ThumbMediaID       string `json:"thumb_media_id"`
	Author             string `json:"author"`
	Digest             string `json:"digest"`
	Content            string `json:"content"`
	ContentSourceURL   string `json:"content_source_url"`
	ShowCoverPic       int    `json:"show_cover_pic"`
	NeedOpenComment    int    `json:"need_open_comment"`
	OnlyFansCanComment int    `json:"only_fans_can_comment"`
}

// PublishDraft создаёт черновик статьи и возвращает его media_id.
// Отклонённый токен сбрасывается, и запрос повторяется один раз.
func (c *Client) PublishDraft(ctx context.Context, d domain.Draft) (string, error) {
	mediaID, err := c.addDraft(ctx, d)
	if staleToken(err) {
		_ = c.cache.Set(tokenCacheKey, nil, time.Second)
		mediaID, err = c.addDraft(ctx, d)
	}
	return mediaID, err
}

func (c *Client) addDraft(ctx context.Context, d domain.Draft) (string, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return "", fmt.Errorf("wechat: access token: %w", err)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	payload := map[string][]draftArticle{"articles": {{
		Title:        d.Title,
		ThumbMediaID: d.ThumbMediaID,
		Author:       d.Author,
		Digest:       d.Digest,
		Content:      d.HTML,
		ShowCoverPic: 1,
	}}}
	if err := enc.Encode(payload); err != nil {
		return "", fmt.Errorf("wechat: encode draft: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/cgi-bin/draft/add?access_token="+url.QueryEscape(token), &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	var resp struct {
		APIError
		MediaID string `json:"media_id"`
	}
	if err := c.do(req, "draft_add", &resp); err != nil {
		return "", err
	}
	if resp.MediaID == "" {
		return "", &resp.APIError
	}
	return resp.MediaID, nil
}

func (c *Client) do(req *http.Request, op string, out any) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveNetworkRequest("wechat", op, req.URL.Host, start, err) }()

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("wechat: %s: %w", op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wechat: %s: unexpected status %d", op, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("wechat: %s: decode: %w", op, err)
	}
	return nil
}

// staleToken коды ошибок недействительного или истёкшего токена.
func staleToken(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && (apiErr.Code == 40001 || apiErr.Code == 42001)
}
