package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"wx-home-bot/internal/domain"
	openai "wx-home-bot/internal/infra/openai"
	"wx-home-bot/internal/usecase/fallback"
)

type stubClient struct {
	req  openai.ChatCompletionRequest
	resp openai.ChatCompletionResponse
	err  error
}

func (s *stubClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.req = req
	return s.resp, s.err
}

func TestProviderSend(t *testing.T) {
	client := &stubClient{resp: openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{{Message: openai.ChatMessage{Content: "好的"}}}}}
	p := newProvider("qwen", client, true, Options{Model: "qwen-plus"})

	reply, err := p.Send(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "s"},
		{Role: domain.RoleUser, Content: "u", At: time.Now()},
	}, time.Second)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if reply != "好的" {
		t.Fatalf("неожиданный ответ: %q", reply)
	}
	if client.req.MaxTokens != 300 || client.req.Temperature != 0.7 || client.req.Model != "qwen-plus" {
		t.Fatalf("неожиданные параметры: %+v", client.req)
	}
	if len(client.req.Messages) != 2 || client.req.Messages[1].Role != domain.RoleUser {
		t.Fatalf("сообщения не переданы: %+v", client.req.Messages)
	}
}

func TestProviderDisabled(t *testing.T) {
	p := newProvider("spark", &stubClient{}, false, Options{})
	if _, err := p.Send(context.Background(), nil, time.Second); !errors.Is(err, fallback.ErrProviderDisabled) {
		t.Fatalf("ожидали ErrProviderDisabled, получили %v", err)
	}
}

func TestProviderEmptyReply(t *testing.T) {
	p := newProvider("zhipu", &stubClient{}, true, Options{})
	if _, err := p.Send(context.Background(), nil, time.Second); err == nil {
		t.Fatalf("ожидали ошибку на пустой ответ")
	}
}
