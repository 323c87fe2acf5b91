package fallback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wx-home-bot/internal/adapters/memory"
	"wx-home-bot/internal/domain"
)

type stubProvider struct {
	name  string
	reply string
	err   error
	block bool
	calls int
	seen  []domain.ChatMessage
	limit time.Duration
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Send(ctx context.Context, messages []domain.ChatMessage, timeout time.Duration) (string, error) {
	s.calls++
	s.seen = messages
	s.limit = timeout
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.reply, s.err
}

func TestClassify(t *testing.T) {
	cases := map[string]Intent{
		"你好呀，今天心情不错":              IntentChat,
		"帮我翻译一下这句话":               IntentTranslate,
		"把你好翻译成英文":                IntentTranslate,
		"苹果用英语怎么说":                IntentTranslate,
		"翻译：早上好":                  IntentTranslate,
		"How are you doing today": IntentTranslate,
		"在吗":                      IntentChat,
		"今天吃了2个包子":                IntentChat,
	}
	for text, want := range cases {
		assert.Equal(t, want, Classify(text), text)
	}
}

func TestCannedReply(t *testing.T) {
	assert.Equal(t, canned["greeting"], CannedReply("你好"))
	assert.Equal(t, canned["thanks"], CannedReply("太感谢了"))
	assert.Equal(t, canned["goodbye"], CannedReply("拜拜啦"))
	assert.Equal(t, canned["joke"], CannedReply("好无聊"))
	assert.Equal(t, canned["question"], CannedReply("为什么？"))
	assert.Equal(t, canned["default"], CannedReply("嗯嗯"))
}

func TestChainFailsOverAfterTimeout(t *testing.T) {
	history := memory.NewHistoryStore(10, time.Hour, nil)
	slow := &stubProvider{name: "zhipu", block: true}
	fast := &stubProvider{name: "qwen", reply: "第二个回答"}
	chain := NewChain(zerolog.Nop(), history, Config{
		ChatOrder: []string{"zhipu", "qwen"},
		Timeout:   30 * time.Millisecond,
	}, slow, fast)

	reply := chain.Reply(context.Background(), "u1", "今天心情不错")
	require.Equal(t, "第二个回答", reply)
	require.Equal(t, 1, slow.calls)

	msgs, err := history.Recent(context.Background(), "u1", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.RoleUser, msgs[0].Role)
	assert.Equal(t, "今天心情不错", msgs[0].Content)
	assert.Equal(t, domain.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "第二个回答", msgs[1].Content)
}

func TestChainStopsWhenBudgetSpent(t *testing.T) {
	history := memory.NewHistoryStore(10, time.Hour, nil)
	first := &stubProvider{name: "zhipu", block: true}
	second := &stubProvider{name: "qwen", block: true}
	third := &stubProvider{name: "spark", reply: "太晚了"}
	chain := NewChain(zerolog.Nop(), history, Config{
		ChatOrder: []string{"zhipu", "qwen", "spark"},
		Timeout:   200 * time.Millisecond,
		Budget:    350 * time.Millisecond,
	}, first, second, third)

	start := time.Now()
	reply := chain.Reply(context.Background(), "u1", "你好")
	elapsed := time.Since(start)

	assert.Equal(t, canned["greeting"], reply)
	assert.Less(t, elapsed, 500*time.Millisecond, "перебор должен укладываться в бюджет")
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 200*time.Millisecond, first.limit)
	assert.Equal(t, 1, second.calls)
	assert.Less(t, second.limit, 200*time.Millisecond, "второй вызов ограничен остатком бюджета")
	assert.Equal(t, 0, third.calls)

	msgs, err := history.Recent(context.Background(), "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestChainAttachesHistoryForChatOnly(t *testing.T) {
	history := memory.NewHistoryStore(10, time.Hour, nil)
	ctx := context.Background()
	_ = history.Append(ctx, "u1",
		domain.ChatMessage{Role: domain.RoleUser, Content: "我叫小明"},
		domain.ChatMessage{Role: domain.RoleAssistant, Content: "你好小明"})

	chat := &stubProvider{name: "zhipu", reply: "记得"}
	translator := &stubProvider{name: "siliconflow", reply: "Good morning"}
	chain := NewChain(zerolog.Nop(), history, Config{
		ChatOrder:      []string{"zhipu"},
		TranslateOrder: []string{"siliconflow", "zhipu"},
	}, chat, translator)

	chain.Reply(ctx, "u1", "你还记得我吗")
	require.Len(t, chat.seen, 4)
	assert.Equal(t, "我叫小明", chat.seen[1].Content)

	reply := chain.Reply(ctx, "u1", "翻译：早上好")
	assert.Equal(t, "Good morning", reply)
	require.Len(t, translator.seen, 2)

	msgs, _ := history.Recent(ctx, "u1", 10)
	assert.Len(t, msgs, 4, "перевод не должен попадать в историю")
}

func TestChainCannedWhenAllFail(t *testing.T) {
	disabled := &stubProvider{name: "qwen", err: ErrProviderDisabled}
	broken := &stubProvider{name: "spark", err: errors.New("500")}
	empty := &stubProvider{name: "zhipu", reply: "   "}
	chain := NewChain(zerolog.Nop(), nil, Config{ChatOrder: []string{"qwen", "zhipu", "spark", "unknown"}}, disabled, broken, empty)

	assert.Equal(t, canned["greeting"], chain.Reply(context.Background(), "u1", "你好"))
	assert.Equal(t, 1, broken.calls)
	assert.Equal(t, 1, empty.calls)
}

func TestChainReset(t *testing.T) {
	history := memory.NewHistoryStore(10, time.Hour, nil)
	ctx := context.Background()
	_ = history.Append(ctx, "u1", domain.ChatMessage{Role: domain.RoleUser, Content: "x"})
	chain := NewChain(zerolog.Nop(), history, Config{})
	require.NoError(t, chain.Reset(ctx, "u1"))
	msgs, _ := history.Recent(ctx, "u1", 10)
	assert.Empty(t, msgs)
}
