package checkin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wx-home-bot/internal/domain"
)

// RankingSize сколько строк показывает таблица лидеров.
const RankingSize = 10

var errAlreadyCheckedIn = errors.New("already checked in today")

// Service ежедневные отметки и баллы.
type Service struct {
	profiles domain.ProfileRepo
	now      func() time.Time
}

// NewService создаёт сервис. now должен возвращать локальное время сервиса.
func NewService(profiles domain.ProfileRepo, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{profiles: profiles, now: now}
}

// Result исход отметки.
type Result struct {
	Award   Award
	Ledger  domain.CheckinLedger
	VIP     bool
	Already bool
}

// CheckIn отмечает пользователя за сегодня.
func (s *Service) CheckIn(ctx context.Context, userID string) (Result, error) {
	now := s.now()
	var res Result
	profile, err := s.profiles.Update(ctx, userID, func(p *domain.UserProfile) error {
		award, ok := Compute(p.Checkin, now, p.IsVIP())
		if !ok {
			return errAlreadyCheckedIn
		}
		Apply(&p.Checkin, award, now)
		res.Award = award
		return nil
	})
	if errors.Is(err, errAlreadyCheckedIn) {
		current, err := s.profiles.Get(ctx, userID)
		if err != nil {
			return Result{}, fmt.Errorf("checkin: get profile: %w", err)
		}
		return Result{Ledger: current.Checkin, VIP: current.IsVIP(), Already: true}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("checkin: update profile: %w", err)
	}
	res.Ledger = profile.Checkin
	res.VIP = profile.IsVIP()
	return res, nil
}

// Reply текст ответа на отметку.
func (r Result) Reply() string {
	l := r.Ledger
	if r.Already {
		return fmt.Sprintf("⏰ 今日已签到\n\n📅 连续签到：%d 天\n💎 当前积分：%d\n🏆 累计签到：%d 次\n\n明天再来签到吧~",
			l.ConsecutiveDays, l.TotalPoints, l.TotalCheckins)
	}
	a := r.Award
	bonus := ""
	if extra := a.StreakBonus + a.Milestone; extra > 0 {
		bonus = fmt.Sprintf("（含奖励+%d）", extra*a.Multiplier)
	}
	vipText := ""
	if r.VIP {
		vipText = "✨ VIP双倍积分已生效！\n"
	}
	return fmt.Sprintf("✅ 签到成功！\n\n📅 连续签到：%d 天\n💰 获得积分：+%d%s\n💎 当前积分：%d\n🏆 累计签到：%d 次\n\n%s%s\n💡 坚持签到，积少成多~",
		a.Consecutive, a.Total, bonus, l.TotalPoints, l.TotalCheckins, vipText, streakTip(a.Consecutive))
}

func streakTip(days int) string {
	switch {
	case days < 3:
		return fmt.Sprintf("\n🎁 再签%d天可获得连续3天奖励+%d积分！", 3-days, Bonus3Days)
	case days == 3:
		return "\n🎉 连续3天奖励已到账！"
	case days < 7:
		return fmt.Sprintf("\n🎁 再签%d天可获得连续7天奖励+%d积分！", 7-days, Bonus7Days)
	case days == 7:
		return "\n🎉 连续7天奖励已到账！"
	default:
		return ""
	}
}

// Summary текст "мои баллы" с местом в рейтинге.
func (s *Service) Summary(ctx context.Context, userID string) (string, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("checkin: get profile: %w", err)
	}
	ranked, err := s.profiles.ListRanked(ctx)
	if err != nil {
		return "", fmt.Errorf("checkin: list ranked: %w", err)
	}
	rank := rankOf(ranked, userID)
	vipStatus := "💡 发送「验证」成为VIP，签到积分翻倍！"
	if profile.IsVIP() {
		vipStatus = "👑 您是尊贵的VIP，签到积分双倍！"
	}
	l := profile.Checkin
	return fmt.Sprintf("💎 我的积分\n\n💰 当前积分：%d\n📅 连续签到：%d 天\n🏆 累计签到：%d 次\n🥇 排行榜第 %s 名（共%d人）\n\n%s\n💡 发送「签到」每日领取积分\n💡 发送「积分排行」查看排行榜",
		l.TotalPoints, l.ConsecutiveDays, l.TotalCheckins, rank, len(ranked), vipStatus), nil
}

// Ranking таблица лидеров и место пользователя.
func (s *Service) Ranking(ctx context.Context, userID string) (string, error) {
	ranked, err := s.profiles.ListRanked(ctx)
	if err != nil {
		return "", fmt.Errorf("checkin: list ranked: %w", err)
	}
	if len(ranked) == 0 {
		return "🏆 积分排行榜\n\n暂无签到记录，快来成为第一个签到的人吧！", nil
	}
	lines := make([]string, 0, RankingSize)
	myPoints := 0
	for i, p := range ranked {
		if p.UserID == userID {
			myPoints = p.Checkin.TotalPoints
		}
		if i >= RankingSize {
			continue
		}
		name := p.DisplayName()
		if p.IsVIP() {
			name += "👑"
		}
		lines = append(lines, fmt.Sprintf("%d. %s - %d分 (%d次)", i+1, name, p.Checkin.TotalPoints, p.Checkin.TotalCheckins))
	}
	return fmt.Sprintf("🏆 积分排行榜\n\n%s\n\n——————————\n📊 您的排名：第 %s 名\n💎 您的积分：%d\n\n💡 每日签到可获得积分哦~",
		strings.Join(lines, "\n"), rankOf(ranked, userID), myPoints), nil
}

// Adjust ручная корректировка баланса оператором.
func (s *Service) Adjust(ctx context.Context, userID string, delta int, reason string) (int, error) {
	if reason == "" {
		reason = "manual"
	}
	profile, err := s.profiles.Update(ctx, userID, func(p *domain.UserProfile) error {
		p.Checkin.Adjust(delta, reason, s.now())
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("checkin: adjust points: %w", err)
	}
	return profile.Checkin.TotalPoints, nil
}

// Help правила начисления.
func Help() string {
	return fmt.Sprintf(`📝 签到积分说明

📌 每日签到可获得积分：
• 基础积分：%d分
• 连续签到加成：每天+%d分（最高+%d分）
• 连续3天奖励：额外+%d分
• 连续7天奖励：额外+%d分

✨ VIP专属福利：
• 所有积分翻倍！

🎯 积分用途：
• 即将开放积分兑换功能~

💡 发送「签到」开始领取积分吧！`, BasePoints, StreakStep, StreakBonusMax, Bonus3Days, Bonus7Days)
}

func rankOf(ranked []domain.UserProfile, userID string) string {
	for i, p := range ranked {
		if p.UserID == userID {
			return fmt.Sprint(i + 1)
		}
	}
	return "-"
}
