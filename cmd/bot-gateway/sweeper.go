package main

import (
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

const sweepInterval = 10 * time.Minute

// startSweeper периодически удаляет устаревшую историю диалогов в памяти.
func startSweeper(logger zerolog.Logger, sweep func() int) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = s.NewJob(
		gocron.DurationJob(sweepInterval),
		gocron.NewTask(func() {
			if n := sweep(); n > 0 {
				logger.Debug().Int("removed", n).Msg("очищена устаревшая история диалогов")
			}
		}),
	)
	if err != nil {
		return nil, err
	}
	s.Start()
	return s, nil
}
