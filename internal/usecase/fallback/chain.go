package fallback

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"wx-home-bot/internal/domain"
	"wx-home-bot/internal/infra/metrics"
)

// ErrProviderDisabled провайдер не настроен и пропускается.
var ErrProviderDisabled = errors.New("provider disabled")

const (
	defaultChatPrompt = `你是「源源和娇娇的家」微信公众号的智能助手，名叫"小源"。
你的特点：
- 性格温暖、活泼、有趣
- 回复简洁但不失温度，每次回复控制在150字以内
- 喜欢使用适当的emoji表情
- 如果遇到不知道的问题，会坦诚地说不知道
请用自然、亲切的语气回复用户。`

	defaultTranslatePrompt = `你是一个专业的翻译助手。
1. 准确翻译用户提供的内容
2. 如果是中文，翻译成英文；如果是外文，翻译成中文
3. 保持原文的语气和风格
4. 只输出翻译结果，不要额外解释
5. 如果用户指定了目标语言，按照用户要求翻译`
)

// minAttempt меньше этого остатка бюджета следующий провайдер не вызывается.
const minAttempt = 100 * time.Millisecond

// Config порядок провайдеров и параметры запроса. Budget ограничивает
// весь перебор, Timeout один вызов.
type Config struct {
	ChatOrder       []string
	TranslateOrder  []string
	Timeout         time.Duration
	Budget          time.Duration
	HistoryTurns    int
	ChatPrompt      string
	TranslatePrompt string
}

// Chain перебирает провайдеров по порядку для намерения и возвращает первый непустой ответ.
type Chain struct {
	log       zerolog.Logger
	history   domain.HistoryStore
	providers map[string]domain.ChatProvider
	cfg       Config
}

// NewChain создаёт цепочку. Провайдеры ищутся по Name().
func NewChain(log zerolog.Logger, history domain.HistoryStore, cfg Config, providers ...domain.ChatProvider) *Chain {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.Budget <= 0 {
		cfg.Budget = 4 * time.Second
	}
	if cfg.ChatPrompt == "" {
		cfg.ChatPrompt = defaultChatPrompt
	}
	if cfg.TranslatePrompt == "" {
		cfg.TranslatePrompt = defaultTranslatePrompt
	}
	byName := make(map[string]domain.ChatProvider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &Chain{log: log, history: history, providers: byName, cfg: cfg}
}

// Reply никогда не возвращает ошибку: при отказе всех провайдеров выдаётся заготовка.
func (c *Chain) Reply(ctx context.Context, userID, text string) string {
	intent := Classify(text)
	deadline := time.Now().Add(c.cfg.Budget)
	messages, order := c.prepare(ctx, userID, text, intent)

	for _, name := range order {
		p, ok := c.providers[name]
		if !ok {
			continue
		}
		remaining := time.Until(deadline)
		if remaining < minAttempt {
			c.log.Warn().Str("user", userID).Str("provider", name).Msg("бюджет ответа исчерпан")
			break
		}
		reply, err := c.call(ctx, p, messages, min(c.cfg.Timeout, remaining))
		if errors.Is(err, ErrProviderDisabled) {
			continue
		}
		metrics.ObserveProvider(name, string(intent), err)
		if err != nil {
			c.log.Warn().Err(err).Str("provider", name).Str("intent", string(intent)).Msg("провайдер не ответил")
			continue
		}
		if intent == IntentChat && c.history != nil {
			if err := c.history.Append(ctx, userID,
				domain.ChatMessage{Role: domain.RoleUser, Content: text},
				domain.ChatMessage{Role: domain.RoleAssistant, Content: reply},
			); err != nil {
				c.log.Warn().Err(err).Str("user", userID).Msg("не удалось сохранить историю")
			}
		}
		return reply
	}
	c.log.Info().Str("user", userID).Msg("все провайдеры недоступны, отвечаем заготовкой")
	return CannedReply(text)
}

// Reset начинает новый диалог.
func (c *Chain) Reset(ctx context.Context, userID string) error {
	if c.history == nil {
		return nil
	}
	return c.history.Clear(ctx, userID)
}

func (c *Chain) prepare(ctx context.Context, userID, text string, intent Intent) ([]domain.ChatMessage, []string) {
	if intent == IntentTranslate {
		return []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: c.cfg.TranslatePrompt},
			{Role: domain.RoleUser, Content: text},
		}, c.cfg.TranslateOrder
	}
	messages := []domain.ChatMessage{{Role: domain.RoleSystem, Content: c.cfg.ChatPrompt}}
	if c.history != nil && userID != "" {
		past, err := c.history.Recent(ctx, userID, c.cfg.HistoryTurns)
		if err != nil {
			c.log.Warn().Err(err).Str("user", userID).Msg("не удалось прочитать историю")
		}
		messages = append(messages, past...)
	}
	messages = append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: text})
	return messages, c.cfg.ChatOrder
}

// call отвязывает вызов от отмены входящего запроса: медленный провайдер
// ограничен только переданным таймаутом.
func (c *Chain) call(ctx context.Context, p domain.ChatProvider, messages []domain.ChatMessage, timeout time.Duration) (string, error) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	reply, err := p.Send(callCtx, messages, timeout)
	if err != nil {
		return "", err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", errors.New("empty reply")
	}
	return reply, nil
}
