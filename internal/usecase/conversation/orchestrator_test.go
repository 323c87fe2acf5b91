package conversation

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wx-home-bot/internal/adapters/memory"
	"wx-home-bot/internal/domain"
	"wx-home-bot/internal/usecase/checkin"
	"wx-home-bot/internal/usecase/dispatch"
)

const greetingMark = "\n\n---\n🌤️ 今日天气 | 广州"

type stubGreeter struct {
	calls int
	err   error
}

func (g *stubGreeter) Greeting(context.Context, domain.WeatherCity) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return greetingMark, nil
}

type stubWeather struct{}

func (stubWeather) Report(_ context.Context, city domain.WeatherCity) string {
	return "天气：" + city.Name
}

func (stubWeather) ReportByLocation(context.Context, float64, float64, string) string {
	return "天气：坐标"
}

type stubFallback struct{}

func (stubFallback) Reply(_ context.Context, _, text string) string { return "AI:" + text }
func (stubFallback) Reset(context.Context, string) error            { return nil }

type countingDispatcher struct {
	next  Dispatcher
	calls atomic.Int32
}

func (c *countingDispatcher) Dispatch(ctx context.Context, ev domain.InboundEvent) (dispatch.Outcome, error) {
	c.calls.Add(1)
	return c.next.Dispatch(ctx, ev)
}

type panicDispatcher struct{}

func (panicDispatcher) Dispatch(context.Context, domain.InboundEvent) (dispatch.Outcome, error) {
	panic("boom")
}

type fixture struct {
	o        *Orchestrator
	now      time.Time
	profiles *memory.ProfileRepo
	recipes  *memory.RecipeRepo
	activity *memory.ActivityRepo
	greeter  *stubGreeter
	counter  *countingDispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{now: time.Date(2026, 10, 16, 7, 30, 0, 0, time.UTC)}
	clock := func() time.Time { return f.now }
	f.profiles = memory.NewProfileRepo(clock)
	f.recipes = memory.NewRecipeRepo()
	f.activity = memory.NewActivityRepo()
	f.greeter = &stubGreeter{}

	d := dispatch.New(zerolog.Nop(), dispatch.Deps{
		Sessions:      memory.NewSessionStore(30*time.Minute, clock),
		Profiles:      f.profiles,
		Recipes:       f.recipes,
		Notifications: f.recipes,
		Rules:         f.activity,
		Stats:         f.activity,
		Checkin:       checkin.NewService(f.profiles, clock),
		Weather:       stubWeather{},
		Fallback:      stubFallback{},
		Now:           clock,
	}, dispatch.Config{SecretCode: "暗号"})
	f.counter = &countingDispatcher{next: d}

	f.o = New(zerolog.Nop(), Deps{
		Dispatcher:    f.counter,
		Profiles:      f.profiles,
		Notifications: f.recipes,
		Messages:      f.activity,
		Stats:         f.activity,
		Cache:         memory.NewCache(clock),
		Locker:        memory.NewKeyedLocker(time.Second),
		Greeter:       f.greeter,
		Now:           clock,
		Location:      time.UTC,
	})
	return f
}

func (f *fixture) subscribedVIP(t *testing.T, user string) {
	t.Helper()
	ctx := context.Background()
	_, _, err := f.profiles.MintVIP(ctx, user, f.now)
	require.NoError(t, err)
	_, err = f.profiles.Update(ctx, user, func(p *domain.UserProfile) error {
		p.WeatherCity = &domain.WeatherCity{Name: "广州", QueryKey: "101280101"}
		p.WeatherPush = true
		return nil
	})
	require.NoError(t, err)
}

var msgSeq atomic.Int64

func (f *fixture) text(user, content string) string {
	id := msgSeq.Add(1)
	return f.o.Handle(context.Background(), domain.InboundEvent{
		MsgID:   "m" + strconv.FormatInt(id, 10),
		UserID:  user,
		Kind:    domain.EventText,
		Content: content,
	})
}

func TestDailyGreetingOncePerDay(t *testing.T) {
	f := newFixture(t)
	f.subscribedVIP(t, "u1")

	withGreeting := 0
	for i := 0; i < 5; i++ {
		if strings.HasSuffix(f.text("u1", "帮助"), greetingMark) {
			withGreeting++
		}
		f.now = f.now.Add(time.Minute)
	}
	assert.Equal(t, 1, withGreeting)
	assert.Equal(t, 1, f.greeter.calls)

	f.now = f.now.Add(24 * time.Hour)
	assert.True(t, strings.HasSuffix(f.text("u1", "帮助"), greetingMark), "новый день снова приветствует")
}

func TestGreetingWaitsForAugmentableReply(t *testing.T) {
	f := newFixture(t)
	f.subscribedVIP(t, "u1")

	assert.Equal(t, "天气：广州", f.text("u1", "天气"))
	assert.Zero(t, f.greeter.calls)
	p, err := f.profiles.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, p.LastInteractionDate, "ответ с погодой не расходует приветствие")

	assert.True(t, strings.HasSuffix(f.text("u1", "帮助"), greetingMark))
	p, err = f.profiles.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-16", p.LastInteractionDate)
}

func TestGreetingNotSpentOnSessionStep(t *testing.T) {
	f := newFixture(t)
	f.now = time.Date(2026, 10, 15, 23, 50, 0, 0, time.UTC)
	f.subscribedVIP(t, "u1")

	f.text("u1", "设置昵称")
	require.Equal(t, 1, f.greeter.calls)

	f.now = f.now.Add(15 * time.Minute)
	assert.NotContains(t, f.text("u1", "小源"), greetingMark)
	assert.Equal(t, 1, f.greeter.calls, "шаг диалога не расходует приветствие нового дня")

	assert.True(t, strings.HasSuffix(f.text("u1", "帮助"), greetingMark))
	assert.Equal(t, 2, f.greeter.calls)
}

func TestGreetingSkippedWhenReplyWindowSpent(t *testing.T) {
	f := newFixture(t)
	f.subscribedVIP(t, "u1")
	f.o.deps.ReplyWindow = time.Nanosecond

	assert.NotContains(t, f.text("u1", "帮助"), greetingMark)
	assert.Zero(t, f.greeter.calls)

	f.o.deps.ReplyWindow = defaultReplyWindow
	assert.True(t, strings.HasSuffix(f.text("u1", "帮助"), greetingMark), "приветствие переносится на следующий ответ")
}

func TestGreetingFailureStillMarksDate(t *testing.T) {
	f := newFixture(t)
	f.subscribedVIP(t, "u1")
	f.greeter.err = errors.New("timeout")

	assert.NotContains(t, f.text("u1", "帮助"), "今日天气")
	f.greeter.err = nil
	assert.NotContains(t, f.text("u1", "帮助"), greetingMark)
	assert.Equal(t, 1, f.greeter.calls)
}

func TestGreetingRequiresPush(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.profiles.MintVIP(context.Background(), "u1", f.now)
	require.NoError(t, err)
	f.text("u1", "帮助")
	assert.Zero(t, f.greeter.calls)
}

func TestNotificationSuffix(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, u := range []string{"a", "b"} {
		_, _, err := f.profiles.MintVIP(ctx, u, f.now)
		require.NoError(t, err)
	}

	f.text("a", "记录菜谱 红烧肉 荤")
	f.text("a", "记录菜谱 清炒时蔬 素")

	reply := f.text("b", "帮助")
	assert.Contains(t, reply, "📢 有 2 个新菜谱更新！")
	assert.Contains(t, f.text("b", "你好"), "有 2 个新菜谱", "показ не очищает очередь")

	list := f.text("b", "查看菜谱")
	assert.NotContains(t, list, "新菜谱更新")
	assert.NotContains(t, f.text("b", "帮助"), "新菜谱更新")

	assert.NotContains(t, f.text("a", "帮助"), "新菜谱更新", "автор уведомлений не получает")
}

func TestDuplicateDeliveryReplaysReply(t *testing.T) {
	f := newFixture(t)
	ev := domain.InboundEvent{MsgID: "42", UserID: "u1", Kind: domain.EventText, Content: "签到"}

	first := f.o.Handle(context.Background(), ev)
	second := f.o.Handle(context.Background(), ev)

	assert.Contains(t, first, "签到成功")
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, f.counter.calls.Load())

	p, err := f.profiles.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 10, p.Checkin.TotalPoints, "повтор не начисляет баллы")
}

func TestDuplicateEventWithoutMsgID(t *testing.T) {
	f := newFixture(t)
	ev := domain.InboundEvent{UserID: "u1", Kind: domain.EventSubscribe, CreatedAt: f.now}

	assert.NotEmpty(t, f.o.Handle(context.Background(), ev))
	f.o.Handle(context.Background(), ev)
	assert.EqualValues(t, 1, f.counter.calls.Load())
	assert.Equal(t, 1, f.activity.Count("2026-10-16", domain.StatSubscribe))
}

func TestPanicBecomesSilentAck(t *testing.T) {
	o := New(zerolog.Nop(), Deps{Dispatcher: panicDispatcher{}, Cache: memory.NewCache(nil)})
	reply := o.Handle(context.Background(), domain.InboundEvent{MsgID: "1", UserID: "u1", Kind: domain.EventText, Content: "hi"})
	assert.Empty(t, reply)
}

func TestMessagesRecorded(t *testing.T) {
	f := newFixture(t)
	f.text("u1", "你好")
	f.o.Handle(context.Background(), domain.InboundEvent{MsgID: "img", UserID: "u1", Kind: domain.EventImage, PicURL: "http://pic"})

	recs, err := f.activity.Recent(context.Background(), "u1", 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 1, f.activity.Count("2026-10-16", domain.StatTextMessage))
	assert.Equal(t, 1, f.activity.Count("2026-10-16", domain.StatImageMessage))
}
