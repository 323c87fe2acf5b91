package llm

import (
	"context"
	"fmt"
	"time"

	"wx-home-bot/internal/domain"
	openai "wx-home-bot/internal/infra/openai"
	"wx-home-bot/internal/usecase/fallback"
)

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Provider реализует domain.ChatProvider поверх OpenAI-совместимого API.
type Provider struct {
	name        string
	client      chatClient
	model       string
	maxTokens   int
	temperature float64
	enabled     bool
}

// Options параметры генерации.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// NewProvider создаёт провайдера. Без ключа провайдер отключён и пропускается цепочкой.
func NewProvider(name string, client *openai.Client, opts Options) *Provider {
	return newProvider(name, client, client.Enabled(), opts)
}

func newProvider(name string, client chatClient, enabled bool, opts Options) *Provider {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 300
	}
	if opts.Temperature <= 0 {
		opts.Temperature = 0.7
	}
	return &Provider{
		name:        name,
		client:      client,
		model:       opts.Model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		enabled:     enabled,
	}
}

// Name имя провайдера в конфигурации приоритетов.
func (p *Provider) Name() string { return p.name }

// Send отправляет диалог и возвращает текст ответа.
func (p *Provider) Send(ctx context.Context, messages []domain.ChatMessage, timeout time.Duration) (string, error) {
	if !p.enabled {
		return "", fallback.ErrProviderDisabled
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	req := openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
		Messages:    make([]openai.ChatMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatMessage{Role: m.Role, Content: m.Content})
	}
	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s completion: %w", p.name, err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%s completion: пустой ответ", p.name)
	}
	return text, nil
}
