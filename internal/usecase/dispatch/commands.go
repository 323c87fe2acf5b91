package dispatch

import (
	"context"
	"fmt"
	"strings"

	"wx-home-bot/internal/domain"
	"wx-home-bot/internal/usecase/checkin"
	"wx-home-bot/internal/usecase/router"
	"wx-home-bot/internal/usecase/weather"
)

func (d *Dispatcher) runCommand(ctx context.Context, userID string, m router.Match) (Outcome, error) {
	profile, err := d.profile(ctx, userID)
	if err != nil {
		return Outcome{}, fmt.Errorf("get profile: %w", err)
	}
	if decision := authorize(m.Command, profile); !decision.Allowed {
		return Outcome{Reply: decision.Denied.Reply()}, nil
	}

	switch m.Command {
	case router.CmdCustomRule:
		return Outcome{Reply: router.RenderRule(m.Arg, d.deps.Now())}, nil
	case router.CmdVerify:
		return d.startVerify(ctx, userID, profile)
	case router.CmdHelp:
		return Outcome{Reply: textHelp}, nil
	case router.CmdRecipeMenu:
		return Outcome{Reply: textRecipeMenu}, nil
	case router.CmdRecipeList:
		return d.recipeList(ctx, userID)
	case router.CmdRecipeAdd:
		return d.startSession(ctx, userID, domain.SessionWaitingRecipe, textRecipeInputPrompt)
	case router.CmdRecipeQuickAdd:
		return d.quickAddRecipe(ctx, userID, m.Arg)
	case router.CmdRecipeRandom:
		return d.randomRecipes(ctx)
	case router.CmdRecipeDetail:
		return d.recipeDetail(ctx, m.Index)
	case router.CmdWeather:
		if !profile.HasCity() {
			return d.startSession(ctx, userID, domain.SessionWaitingWeatherCity, textWeatherFirstUse)
		}
		return Outcome{Reply: d.deps.Weather.Report(ctx, *profile.WeatherCity), ShowsWeather: true}, nil
	case router.CmdWeatherCity:
		city, ok := weather.ResolveCity(m.Arg)
		if !ok {
			return Outcome{Reply: textWeatherCityInvalid}, nil
		}
		return Outcome{Reply: d.deps.Weather.Report(ctx, city), ShowsWeather: true}, nil
	case router.CmdChangeCity:
		prompt := textWeatherFirstUse
		if profile.HasCity() {
			prompt = fmt.Sprintf(textWeatherChangeCity, profile.WeatherCity.Name)
		}
		return d.startSession(ctx, userID, domain.SessionWaitingWeatherCity, prompt)
	case router.CmdPushSubscribe:
		return d.subscribePush(ctx, userID, profile)
	case router.CmdPushUnsubscribe:
		return d.unsubscribePush(ctx, userID, profile)
	case router.CmdPushStatus:
		return Outcome{Reply: pushStatus(profile)}, nil
	case router.CmdCheckin:
		res, err := d.deps.Checkin.CheckIn(ctx, userID)
		if err != nil {
			return Outcome{}, err
		}
		if !res.Already {
			d.incr(ctx, domain.StatCheckin)
		}
		return Outcome{Reply: res.Reply()}, nil
	case router.CmdPoints:
		reply, err := d.deps.Checkin.Summary(ctx, userID)
		return Outcome{Reply: reply}, err
	case router.CmdRanking:
		reply, err := d.deps.Checkin.Ranking(ctx, userID)
		return Outcome{Reply: reply}, err
	case router.CmdCheckinHelp:
		return Outcome{Reply: checkin.Help()}, nil
	case router.CmdSetNickname:
		prompt := fmt.Sprintf(textNicknamePrompt, profile.DisplayName(), domain.NicknameMinLength, domain.NicknameMaxLength)
		return d.startSession(ctx, userID, domain.SessionWaitingNickname, prompt)
	case router.CmdViewNickname:
		return Outcome{Reply: fmt.Sprintf(textNicknameInfo, profile.DisplayName())}, nil
	case router.CmdVIPInfo:
		return Outcome{Reply: vipInfo(profile)}, nil
	case router.CmdNewChat:
		if err := d.deps.Fallback.Reset(ctx, userID); err != nil {
			return Outcome{}, fmt.Errorf("reset history: %w", err)
		}
		return Outcome{Reply: textNewChat}, nil
	}
	return Outcome{}, fmt.Errorf("unknown command %q", m.Command)
}

func (d *Dispatcher) startSession(ctx context.Context, userID string, state domain.SessionState, prompt string) (Outcome, error) {
	err := d.deps.Sessions.Set(ctx, userID, domain.Session{State: state, StartedAt: d.deps.Now(), Payload: domain.NoPayload{}})
	if err != nil {
		return Outcome{}, fmt.Errorf("set session: %w", err)
	}
	return Outcome{Reply: prompt}, nil
}

func (d *Dispatcher) startVerify(ctx context.Context, userID string, profile domain.UserProfile) (Outcome, error) {
	if profile.IsVIP() {
		return Outcome{Reply: fmt.Sprintf(textAlreadyVIP, profile.VIP.ID, profile.VIP.VerifiedAt.Format("2006-01-02 15:04:05"))}, nil
	}
	if d.cfg.SecretCode == "" {
		return Outcome{Reply: textVerifyUnavailable}, nil
	}
	now := d.deps.Now()
	err := d.deps.Sessions.Set(ctx, userID, domain.Session{
		State:     domain.SessionWaitingVerify,
		StartedAt: now,
		Payload:   domain.VerifyPayload{ExpiresAt: now.Add(d.cfg.VerifyTimeout)},
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("set session: %w", err)
	}
	return Outcome{Reply: textVerifyPrompt}, nil
}

// quickAddRecipe "记录菜谱 <内容> [分类]": с категорией в последнем слове рецепт
// сохраняется сразу, без неё открывается выбор категории.
func (d *Dispatcher) quickAddRecipe(ctx context.Context, userID, arg string) (Outcome, error) {
	fields := strings.Fields(arg)
	if len(fields) > 1 {
		last := fields[len(fields)-1]
		if category, ok := domain.CategoryByKeyword(last); ok {
			content := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(arg), last))
			return d.saveRecipe(ctx, userID, content, category)
		}
	}
	return d.askCategory(ctx, userID, arg)
}

func (d *Dispatcher) subscribePush(ctx context.Context, userID string, profile domain.UserProfile) (Outcome, error) {
	if !profile.HasCity() {
		return Outcome{Reply: textPushNoCity}, nil
	}
	if profile.WeatherPush {
		return Outcome{Reply: fmt.Sprintf(textPushAlreadySubscribed, profile.WeatherCity.Name)}, nil
	}
	_, err := d.deps.Profiles.Update(ctx, userID, func(p *domain.UserProfile) error {
		p.WeatherPush = true
		return nil
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("subscribe push: %w", err)
	}
	return Outcome{Reply: fmt.Sprintf(textPushSubscribed, profile.WeatherCity.Name)}, nil
}

func (d *Dispatcher) unsubscribePush(ctx context.Context, userID string, profile domain.UserProfile) (Outcome, error) {
	if !profile.WeatherPush {
		return Outcome{Reply: textPushNotSubscribed}, nil
	}
	_, err := d.deps.Profiles.Update(ctx, userID, func(p *domain.UserProfile) error {
		p.WeatherPush = false
		return nil
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("unsubscribe push: %w", err)
	}
	return Outcome{Reply: textPushUnsubscribed}, nil
}

func pushStatus(p domain.UserProfile) string {
	status, hint := "❌ 未订阅", "发送「订阅天气」开启每日天气提醒"
	if p.WeatherPush {
		status, hint = "✅ 已订阅", "发送「取消订阅天气」可关闭推送"
	}
	city := "未设置"
	if p.HasCity() {
		city = p.WeatherCity.Name
	}
	return fmt.Sprintf(textPushStatus, status, city, hint)
}

func vipInfo(p domain.UserProfile) string {
	if p.VIP == nil {
		return textNotVIP
	}
	status := "❌ 无效"
	if p.VIP.Active {
		status = "✅ 有效"
	}
	return fmt.Sprintf(textVIPInfo, p.VIP.ID, p.VIP.VerifiedAt.Format("2006-01-02 15:04:05"), status)
}
