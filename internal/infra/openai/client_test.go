package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCreateChatCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("неожиданный путь: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key:secret" {
			t.Errorf("неожиданная авторизация: %q", got)
		}
		var req ChatCompletionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.MaxTokens != 300 || len(req.Messages) != 2 {
			t.Errorf("неожиданный запрос: %+v", req)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" 你好 "}}],"usage":{"prompt_tokens":3,"completion_tokens":2}}`))
	}))
	defer srv.Close()

	c := NewClient("spark", "key:secret", srv.URL+"/v1/", time.Second)
	resp, err := c.CreateChatCompletion(context.Background(), ChatCompletionRequest{
		Model:     "spark-x",
		MaxTokens: 300,
		Messages:  []ChatMessage{{Role: "system", Content: "s"}, {Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if resp.Text() != "你好" {
		t.Fatalf("неожиданный текст: %q", resp.Text())
	}
}

func TestCreateChatCompletionBusinessError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":10013,"message":"input sensitive"}`))
	}))
	defer srv.Close()

	c := NewClient("spark", "k", srv.URL, time.Second)
	if _, err := c.CreateChatCompletion(context.Background(), ChatCompletionRequest{Model: "m"}); err == nil {
		t.Fatalf("ожидали ошибку бизнес-кода")
	}
}

func TestCreateChatCompletionHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	c := NewClient("qwen", "k", srv.URL, time.Second)
	_, err := c.CreateChatCompletion(context.Background(), ChatCompletionRequest{Model: "m"})
	if err == nil || err.Error() != "qwen: bad key" {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
}
