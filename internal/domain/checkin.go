package domain

import "time"

const (
	CheckinHistoryLimit = 30
	PointsLogLimit      = 50
)

// CheckinRecord запись об одном дне отметки.
type CheckinRecord struct {
	Date   string `json:"date"`
	Points int    `json:"points"`
}

// PointsEntry запись журнала начислений и списаний.
type PointsEntry struct {
	At      time.Time `json:"at"`
	Delta   int       `json:"delta"`
	Reason  string    `json:"reason"`
	Balance int       `json:"balance"`
}

// CheckinLedger баллы и история ежедневных отметок.
type CheckinLedger struct {
	TotalPoints     int             `json:"total_points"`
	TotalCheckins   int             `json:"total_checkins"`
	ConsecutiveDays int             `json:"consecutive_days"`
	LastCheckinDate string          `json:"last_checkin_date,omitempty"`
	History         []CheckinRecord `json:"history,omitempty"`
	PointsLog       []PointsEntry   `json:"points_log,omitempty"`
}

// AddHistory добавляет отметку, сохраняя не более CheckinHistoryLimit записей.
func (l *CheckinLedger) AddHistory(rec CheckinRecord) {
	l.History = append(l.History, rec)
	if over := len(l.History) - CheckinHistoryLimit; over > 0 {
		l.History = append([]CheckinRecord(nil), l.History[over:]...)
	}
}

// Adjust меняет баланс на delta; баланс не опускается ниже нуля.
// Возвращает фактически применённое изменение.
func (l *CheckinLedger) Adjust(delta int, reason string, at time.Time) int {
	next := l.TotalPoints + delta
	if next < 0 {
		next = 0
	}
	applied := next - l.TotalPoints
	l.TotalPoints = next
	l.PointsLog = append(l.PointsLog, PointsEntry{At: at, Delta: applied, Reason: reason, Balance: next})
	if over := len(l.PointsLog) - PointsLogLimit; over > 0 {
		l.PointsLog = append([]PointsEntry(nil), l.PointsLog[over:]...)
	}
	return applied
}
