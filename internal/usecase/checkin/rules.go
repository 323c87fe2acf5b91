package checkin

import (
	"time"

	"wx-home-bot/internal/domain"
)

const (
	BasePoints     = 10
	StreakStep     = 2
	StreakBonusMax = 20
	Bonus3Days     = 20
	Bonus7Days     = 50
	VIPMultiplier  = 2
)

const dateLayout = "2006-01-02"

// Award итог одной отметки.
type Award struct {
	Base        int
	StreakBonus int
	Milestone   int
	Multiplier  int
	Total       int
	Consecutive int
}

// Compute считает начисление за отметку в день today.
// ok=false, если пользователь уже отмечался сегодня.
func Compute(ledger domain.CheckinLedger, today time.Time, vip bool) (Award, bool) {
	day := today.Format(dateLayout)
	if ledger.LastCheckinDate == day {
		return Award{}, false
	}
	consecutive := 1
	if ledger.LastCheckinDate == today.AddDate(0, 0, -1).Format(dateLayout) {
		consecutive = ledger.ConsecutiveDays + 1
	}

	a := Award{Base: BasePoints, Consecutive: consecutive, Multiplier: 1}
	a.StreakBonus = min((consecutive-1)*StreakStep, StreakBonusMax)
	switch consecutive {
	case 3:
		a.Milestone = Bonus3Days
	case 7:
		a.Milestone = Bonus7Days
	}
	if vip {
		a.Multiplier = VIPMultiplier
	}
	a.Total = (a.Base + a.StreakBonus + a.Milestone) * a.Multiplier
	return a, true
}

// Apply записывает отметку в журнал.
func Apply(ledger *domain.CheckinLedger, a Award, today time.Time) {
	day := today.Format(dateLayout)
	ledger.ConsecutiveDays = a.Consecutive
	ledger.LastCheckinDate = day
	ledger.TotalCheckins++
	ledger.AddHistory(domain.CheckinRecord{Date: day, Points: a.Total})
	ledger.Adjust(a.Total, "checkin", today)
}
