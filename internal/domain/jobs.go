package domain

import (
	"context"
	"time"
)

// ReportJobCause описывает источник задачи на отчёт.
type ReportJobCause string

const (
	// ReportCauseScheduled задача поставлена планировщиком.
	ReportCauseScheduled ReportJobCause = "scheduled"
	// ReportCauseManual задача запущена оператором.
	ReportCauseManual ReportJobCause = "manual"
)

// ReportJob задача на ежедневный погодный черновик.
type ReportJob struct {
	ID          string         `json:"job_id,omitempty"`
	City        string         `json:"city"`
	Date        time.Time      `json:"date"`
	RequestedAt time.Time      `json:"requested_at"`
	Cause       ReportJobCause `json:"cause"`
}

// AckFunc подтверждает обработку задачи или просит повторную доставку.
type AckFunc func(success bool) error

// ReportQueue очередь задач на отчёт.
type ReportQueue interface {
	Enqueue(ctx context.Context, job ReportJob) error
	Receive(ctx context.Context) (ReportJob, AckFunc, error)
}
