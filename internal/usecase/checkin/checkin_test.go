package checkin

import (
	"context"
	"strings"
	"testing"
	"time"

	"wx-home-bot/internal/adapters/memory"
	"wx-home-bot/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2026, 10, d, 9, 0, 0, 0, time.UTC)
}

func TestComputeStreak(t *testing.T) {
	var ledger domain.CheckinLedger
	want := []int{10, 12, 34, 16, 18, 20, 72, 24}
	for i, points := range want {
		today := day(1 + i)
		award, ok := Compute(ledger, today, false)
		if !ok {
			t.Fatalf("день %d: отметка не принята", i+1)
		}
		if award.Total != points {
			t.Fatalf("день %d: ожидали %d баллов, получили %d", i+1, points, award.Total)
		}
		Apply(&ledger, award, today)
	}
	if ledger.ConsecutiveDays != 8 || ledger.TotalCheckins != 8 {
		t.Fatalf("неожиданный журнал: %+v", ledger)
	}
}

func TestComputeStreakBonusCapped(t *testing.T) {
	ledger := domain.CheckinLedger{ConsecutiveDays: 20, LastCheckinDate: "2026-10-14"}
	award, _ := Compute(ledger, day(15), false)
	if award.StreakBonus != StreakBonusMax || award.Total != BasePoints+StreakBonusMax {
		t.Fatalf("ожидали ограничение бонуса: %+v", award)
	}
}

func TestComputeResetAfterGap(t *testing.T) {
	ledger := domain.CheckinLedger{ConsecutiveDays: 5, LastCheckinDate: "2026-10-10"}
	award, ok := Compute(ledger, day(12), true)
	if !ok || award.Consecutive != 1 || award.Total != BasePoints*VIPMultiplier {
		t.Fatalf("ожидали сброс серии и удвоение для VIP: %+v", award)
	}
}

func TestCheckInTwiceSameDay(t *testing.T) {
	now := day(16)
	repo := memory.NewProfileRepo(func() time.Time { return now })
	svc := NewService(repo, func() time.Time { return now })
	ctx := context.Background()

	first, err := svc.CheckIn(ctx, "u1")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if first.Already || first.Ledger.TotalPoints != BasePoints {
		t.Fatalf("неожиданный результат: %+v", first)
	}
	if !strings.Contains(first.Reply(), "签到成功") {
		t.Fatalf("неожиданный ответ: %s", first.Reply())
	}

	second, err := svc.CheckIn(ctx, "u1")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !second.Already || second.Ledger.TotalPoints != BasePoints {
		t.Fatalf("повторная отметка не должна начислять: %+v", second)
	}
	if !strings.Contains(second.Reply(), "今日已签到") {
		t.Fatalf("неожиданный ответ: %s", second.Reply())
	}
}

func TestRankingAndSummary(t *testing.T) {
	now := day(16)
	repo := memory.NewProfileRepo(func() time.Time { return now })
	svc := NewService(repo, func() time.Time { return now })
	ctx := context.Background()

	if _, _, err := repo.MintVIP(ctx, "vip", now); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	for _, id := range []string{"plain", "vip"} {
		if _, err := svc.CheckIn(ctx, id); err != nil {
			t.Fatalf("не ожидали ошибку: %v", err)
		}
	}
	ranking, err := svc.Ranking(ctx, "plain")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !strings.Contains(ranking, "1. 用户vip👑 - 20分") || !strings.Contains(ranking, "您的排名：第 2 名") {
		t.Fatalf("неожиданный рейтинг: %s", ranking)
	}

	summary, err := svc.Summary(ctx, "nobody")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !strings.Contains(summary, "排行榜第 - 名（共2人）") {
		t.Fatalf("неожиданная сводка: %s", summary)
	}
}

func TestAdjustFloorsAtZero(t *testing.T) {
	repo := memory.NewProfileRepo(nil)
	svc := NewService(repo, nil)
	balance, err := svc.Adjust(context.Background(), "u1", -50, "")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if balance != 0 {
		t.Fatalf("баланс не может быть отрицательным: %d", balance)
	}
}
