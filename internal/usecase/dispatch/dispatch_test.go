package dispatch

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wx-home-bot/internal/adapters/memory"
	"wx-home-bot/internal/domain"
	"wx-home-bot/internal/usecase/checkin"
	"wx-home-bot/internal/usecase/router"
)

const secret = "源源爱娇娇"

type stubWeather struct {
	cities []string
	coords int
}

func (s *stubWeather) Report(_ context.Context, city domain.WeatherCity) string {
	s.cities = append(s.cities, city.Name)
	return "🌤 今日天气 | " + city.Name
}

func (s *stubWeather) ReportByLocation(_ context.Context, _, _ float64, label string) string {
	s.coords++
	return "🌤 今日天气 | " + label
}

type stubFallback struct {
	texts  []string
	resets int
}

func (s *stubFallback) Reply(_ context.Context, _, text string) string {
	s.texts = append(s.texts, text)
	return "AI:" + text
}

func (s *stubFallback) Reset(context.Context, string) error {
	s.resets++
	return nil
}

type harness struct {
	d        *Dispatcher
	now      time.Time
	sessions *memory.SessionStore
	profiles *memory.ProfileRepo
	recipes  *memory.RecipeRepo
	activity *memory.ActivityRepo
	weather  *stubWeather
	fallback *stubFallback
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{now: time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return h.now }
	h.sessions = memory.NewSessionStore(30*time.Minute, clock)
	h.profiles = memory.NewProfileRepo(clock)
	h.recipes = memory.NewRecipeRepo()
	h.activity = memory.NewActivityRepo()
	h.weather = &stubWeather{}
	h.fallback = &stubFallback{}
	h.d = New(zerolog.Nop(), Deps{
		Sessions:      h.sessions,
		Profiles:      h.profiles,
		Recipes:       h.recipes,
		Notifications: h.recipes,
		Rules:         h.activity,
		Stats:         h.activity,
		Checkin:       checkin.NewService(h.profiles, clock),
		Weather:       h.weather,
		Fallback:      h.fallback,
		Now:           clock,
		Pick:          func(int) int { return 0 },
	}, Config{SecretCode: secret, VerifyTimeout: 300 * time.Second})
	return h
}

func (h *harness) send(t *testing.T, user, text string) Outcome {
	t.Helper()
	out, err := h.d.Dispatch(context.Background(), domain.InboundEvent{UserID: user, Kind: domain.EventText, Content: text})
	require.NoError(t, err)
	return out
}

func (h *harness) session(t *testing.T, user string) (domain.Session, bool) {
	t.Helper()
	s, ok, err := h.sessions.Get(context.Background(), user)
	require.NoError(t, err)
	return s, ok
}

func (h *harness) makeVIP(t *testing.T, user string) {
	t.Helper()
	_, _, err := h.profiles.MintVIP(context.Background(), user, h.now)
	require.NoError(t, err)
}

func TestVerifyFlowMintsSequentialVIP(t *testing.T) {
	h := newHarness(t)

	out := h.send(t, "u1", "验证")
	assert.Equal(t, textVerifyPrompt, out.Reply)
	s, ok := h.session(t, "u1")
	require.True(t, ok)
	assert.Equal(t, domain.SessionWaitingVerify, s.State)

	h.now = h.now.Add(299 * time.Second)
	out = h.send(t, "u1", secret)
	assert.Equal(t, RouteSession, out.Route)
	assert.Contains(t, out.Reply, "VIP-0001")
	_, ok = h.session(t, "u1")
	assert.False(t, ok)

	p, err := h.profiles.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, p.IsVIP())
	assert.Equal(t, 1, h.activity.Count(h.now.Format("2006-01-02"), domain.StatVIPVerification))

	out = h.send(t, "u1", "VIP")
	assert.Contains(t, out.Reply, "您已经是VIP用户啦")
	_, ok = h.session(t, "u1")
	assert.False(t, ok, "VIP не должен открывать сессию проверки")
}

func TestVerifyExpiredIgnoresContent(t *testing.T) {
	for _, text := range []string{secret, "取消", "帮助", "随便"} {
		h := newHarness(t)
		h.send(t, "u1", "验证")
		h.now = h.now.Add(301 * time.Second)

		out := h.send(t, "u1", text)
		assert.Equal(t, textVerifyExpired, out.Reply, "ввод %q", text)
		_, ok := h.session(t, "u1")
		assert.False(t, ok)
		_, err := h.profiles.Get(context.Background(), "u1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
}

func TestVerifyExpiresAfterStoreIdleTTL(t *testing.T) {
	h := newHarness(t)
	h.send(t, "u1", "验证")
	h.now = h.now.Add(31 * time.Minute)

	out := h.send(t, "u1", secret)
	assert.Equal(t, textVerifyExpired, out.Reply)
	assert.Equal(t, RouteSession, out.Route)
	assert.Empty(t, h.fallback.texts, "код не должен уходить в свободный диалог")
	_, ok := h.session(t, "u1")
	assert.False(t, ok)
	_, err := h.profiles.Get(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVerifyUnavailableWithoutSecret(t *testing.T) {
	h := newHarness(t)
	h.d.cfg.SecretCode = ""

	out := h.send(t, "u1", "验证")
	assert.Equal(t, textVerifyUnavailable, out.Reply)
	_, ok := h.session(t, "u1")
	assert.False(t, ok, "без кода сессия проверки не открывается")

	err := h.sessions.Set(context.Background(), "u2", domain.Session{
		State:   domain.SessionWaitingVerify,
		Payload: domain.VerifyPayload{ExpiresAt: h.now.Add(time.Minute)},
	})
	require.NoError(t, err)
	out = h.send(t, "u2", "   ")
	assert.Equal(t, textVerifyUnavailable, out.Reply)
	_, ok = h.session(t, "u2")
	assert.False(t, ok)

	vips, err := h.profiles.ListVIPs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, vips)
}

func TestVerifyWrongCodeKeepsSession(t *testing.T) {
	h := newHarness(t)
	h.send(t, "u1", "验证")
	started, _ := h.session(t, "u1")

	h.now = h.now.Add(time.Minute)
	out := h.send(t, "u1", "帮助")
	assert.Equal(t, textVerifyWrong, out.Reply, "внутри сессии команды не работают")

	s, ok := h.session(t, "u1")
	require.True(t, ok)
	assert.Equal(t, started.Payload, s.Payload, "срок не продлевается")

	out = h.send(t, "u1", "退出")
	assert.Equal(t, textVerifyCancelled, out.Reply)
	_, ok = h.session(t, "u1")
	assert.False(t, ok)
}

func TestQuickRecipeThenCategory(t *testing.T) {
	h := newHarness(t)
	h.makeVIP(t, "u1")

	out := h.send(t, "u1", "记录菜谱 红烧肉")
	assert.Equal(t, router.CmdRecipeQuickAdd, out.Command)
	s, ok := h.session(t, "u1")
	require.True(t, ok)
	assert.Equal(t, domain.SessionWaitingRecipeCategory, s.State)
	assert.Equal(t, domain.RecipeDraftPayload{Name: "红烧肉", Content: "红烧肉"}, s.Payload)

	out = h.send(t, "u1", "随便")
	assert.Equal(t, textRecipeCategoryInvalid, out.Reply)

	out = h.send(t, "u1", "1")
	assert.Contains(t, out.Reply, "红烧肉")
	assert.Contains(t, out.Reply, "🥩 荤菜")
	_, ok = h.session(t, "u1")
	assert.False(t, ok)

	list, err := h.recipes.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.RecipeCategoryMeat, list[0].Category)
	assert.Equal(t, 1, list[0].ID)
}

func TestQuickRecipeWithInlineCategory(t *testing.T) {
	h := newHarness(t)
	h.makeVIP(t, "u1")

	out := h.send(t, "u1", "记录菜谱 清炒 西兰花 素")
	assert.Contains(t, out.Reply, "清炒 西兰花")
	assert.Contains(t, out.Reply, "🥬 素菜")
	_, ok := h.session(t, "u1")
	assert.False(t, ok)
}

func TestRecipeFlowMultiLine(t *testing.T) {
	h := newHarness(t)
	h.makeVIP(t, "u1")

	assert.Equal(t, textRecipeInputPrompt, h.send(t, "u1", "记录菜谱").Reply)
	out := h.send(t, "u1", "菜名：番茄炒蛋\n鸡蛋 番茄")
	assert.Contains(t, out.Reply, "已收到菜谱：番茄炒蛋")
	out = h.send(t, "u1", "素菜")
	assert.Contains(t, out.Reply, "番茄炒蛋")

	detail := h.send(t, "u1", "菜谱 1")
	assert.Contains(t, detail.Reply, "鸡蛋 番茄")
	assert.Contains(t, detail.Reply, "👤 记录者：")
	assert.Equal(t, textRecipeIndexInvalid, h.send(t, "u1", "菜谱 2").Reply)
}

func TestRecipeAddRequiresVIP(t *testing.T) {
	h := newHarness(t)
	for _, text := range []string{"记录菜谱", "记录菜谱 红烧肉 荤"} {
		out := h.send(t, "u1", text)
		assert.Equal(t, textRecipeVIPOnly, out.Reply)
		_, ok := h.session(t, "u1")
		assert.False(t, ok)
	}
	assert.Equal(t, textPushVIPOnly, h.send(t, "u1", "订阅天气").Reply)
}

func TestRecipeCancel(t *testing.T) {
	h := newHarness(t)
	h.makeVIP(t, "u1")
	h.send(t, "u1", "记录菜谱 红烧肉")
	assert.Equal(t, textRecipeCancelled, h.send(t, "u1", "取消").Reply)
	list, _ := h.recipes.List(context.Background())
	assert.Empty(t, list)
}

func TestNotificationsFanOutToOtherVIPs(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for _, u := range []string{"a", "b", "c"} {
		h.makeVIP(t, u)
	}

	h.send(t, "a", "记录菜谱 红烧肉 荤")

	pendingA, _ := h.recipes.Pending(ctx, "a")
	assert.Empty(t, pendingA, "автор не получает уведомление")
	pendingB, _ := h.recipes.Pending(ctx, "b")
	assert.Len(t, pendingB, 1)
	pendingPlain, _ := h.recipes.Pending(ctx, "plain")
	assert.Empty(t, pendingPlain)

	out := h.send(t, "b", "查看菜谱")
	assert.Contains(t, out.Reply, "1. 红烧肉 (10-16)")
	assert.Contains(t, out.Reply, "共 1 个菜谱")
	assert.Contains(t, out.Reply, "🥬 素菜\n（暂无）")

	pendingB, _ = h.recipes.Pending(ctx, "b")
	assert.Empty(t, pendingB)
	pendingC, _ := h.recipes.Pending(ctx, "c")
	assert.Len(t, pendingC, 1, "очередь другого пользователя не тронута")
}

func TestRandomRecipePair(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, textRandomEmpty, h.send(t, "u1", "随机菜谱").Reply)

	h.makeVIP(t, "u1")
	h.send(t, "u1", "记录菜谱 红烧肉 荤")
	out := h.send(t, "u1", "随机菜谱")
	assert.Contains(t, out.Reply, "🥩 荤菜：红烧肉")
	assert.Contains(t, out.Reply, "（暂无素菜谱）")
}

func TestWeatherCityFlow(t *testing.T) {
	h := newHarness(t)

	out := h.send(t, "u1", "天气")
	assert.Equal(t, textWeatherFirstUse, out.Reply)
	s, ok := h.session(t, "u1")
	require.True(t, ok)
	assert.Equal(t, domain.SessionWaitingWeatherCity, s.State)

	out = h.send(t, "u1", "深圳")
	assert.True(t, out.ShowsWeather)
	assert.Contains(t, out.Reply, "已记住您的城市：深圳")
	_, ok = h.session(t, "u1")
	assert.False(t, ok)

	out = h.send(t, "u1", "天气")
	assert.Equal(t, "🌤 今日天气 | 深圳", out.Reply)

	out = h.send(t, "u1", "天气 北京")
	assert.Equal(t, router.CmdWeatherCity, out.Command)
	p, _ := h.profiles.Get(context.Background(), "u1")
	assert.Equal(t, "深圳", p.WeatherCity.Name, "разовый запрос не меняет город")

	out = h.send(t, "u1", "更换城市")
	assert.Contains(t, out.Reply, "当前城市：深圳")
	assert.Equal(t, textWeatherCityCancelled, h.send(t, "u1", "取消").Reply)
}

func TestWeatherCityFromLocation(t *testing.T) {
	h := newHarness(t)
	h.send(t, "u1", "天气")

	out, err := h.d.Dispatch(context.Background(), domain.InboundEvent{
		UserID: "u1", Kind: domain.EventLocation, Latitude: 22.5, Longitude: 113.9, Label: "广东省广州市天河区",
	})
	require.NoError(t, err)
	assert.Contains(t, out.Reply, "已记住您的城市：广州")
	p, _ := h.profiles.Get(context.Background(), "u1")
	require.True(t, p.HasCity())
	assert.Equal(t, "101280101", p.WeatherCity.QueryKey)
}

func TestNicknameFlow(t *testing.T) {
	h := newHarness(t)
	h.send(t, "u1", "设置昵称")

	for _, bad := range []string{"a", strings.Repeat("长", 13), "小明🙂", "a-b"} {
		out := h.send(t, "u1", bad)
		assert.Equal(t, fmt.Sprintf(textNicknameInvalid, 2, 12), out.Reply, "ник %q", bad)
	}
	_, ok := h.session(t, "u1")
	require.True(t, ok)

	out := h.send(t, "u1", "小明_01")
	assert.Contains(t, out.Reply, "小明_01")
	assert.Contains(t, h.send(t, "u1", "我的昵称").Reply, "当前昵称：小明_01")
}

func TestCustomRuleOverridesCommand(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.activity.SetRule(context.Background(), domain.ReplyRule{Key: "帮助", Template: "现在是 {time}"}))

	out := h.send(t, "u1", "帮助")
	assert.Equal(t, router.CmdCustomRule, out.Command)
	assert.Equal(t, "现在是 2026-10-16 08:00:00", out.Reply)
}

func TestFallbackWhenNothingMatches(t *testing.T) {
	h := newHarness(t)
	out := h.send(t, "u1", "你好呀，今天心情不错")
	assert.Equal(t, RouteFallback, out.Route)
	assert.Equal(t, "AI:你好呀，今天心情不错", out.Reply)

	h.send(t, "u1", "新对话")
	assert.Equal(t, 1, h.fallback.resets)
}

func TestCheckinCommands(t *testing.T) {
	h := newHarness(t)
	assert.Contains(t, h.send(t, "u1", "签到").Reply, "签到成功")
	assert.Contains(t, h.send(t, "u1", "打卡").Reply, "今日已签到")
	assert.Contains(t, h.send(t, "u1", "积分").Reply, "当前积分：10")
	assert.Contains(t, h.send(t, "u1", "排行榜").Reply, "1. 用户u1 - 10分")
	assert.Equal(t, 1, h.activity.Count("2026-10-16", domain.StatCheckin))
}

func TestPushSubscription(t *testing.T) {
	h := newHarness(t)
	h.makeVIP(t, "u1")

	assert.Equal(t, textPushNoCity, h.send(t, "u1", "订阅天气").Reply)
	h.send(t, "u1", "天气")
	h.send(t, "u1", "广州")
	assert.Contains(t, h.send(t, "u1", "订阅天气").Reply, "订阅成功")
	assert.Contains(t, h.send(t, "u1", "订阅天气").Reply, "您已订阅")
	assert.Contains(t, h.send(t, "u1", "天气推送状态").Reply, "✅ 已订阅")
	assert.Equal(t, textPushUnsubscribed, h.send(t, "u1", "取消订阅天气").Reply)
	assert.Equal(t, textPushNotSubscribed, h.send(t, "u1", "关闭天气推送").Reply)
}

func TestVIPInfo(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, textNotVIP, h.send(t, "u1", "查看我的VIP信息").Reply)
	h.makeVIP(t, "u1")
	assert.Contains(t, h.send(t, "u1", "我的VIP").Reply, "✅ 有效")
}

func TestSubscribeEvents(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	out, err := h.d.Dispatch(ctx, domain.InboundEvent{UserID: "u1", Kind: domain.EventSubscribe})
	require.NoError(t, err)
	assert.Equal(t, textWelcome, out.Reply)

	h.send(t, "u1", "设置昵称")
	out, err = h.d.Dispatch(ctx, domain.InboundEvent{UserID: "u1", Kind: domain.EventUnsubscribe})
	require.NoError(t, err)
	assert.Empty(t, out.Reply)
	_, ok := h.session(t, "u1")
	assert.False(t, ok)
	p, _ := h.profiles.Get(ctx, "u1")
	assert.False(t, p.Subscribed)

	out, err = h.d.Dispatch(ctx, domain.InboundEvent{UserID: "u1", Kind: domain.EventImage})
	require.NoError(t, err)
	assert.Equal(t, textImageReceived, out.Reply)
}
