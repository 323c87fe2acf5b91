package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"wx-home-bot/internal/adapters/notify"
	"wx-home-bot/internal/adapters/wechat"
	"wx-home-bot/internal/app"
	"wx-home-bot/internal/domain"
	"wx-home-bot/internal/infra/config"
	"wx-home-bot/internal/infra/log"
	"wx-home-bot/internal/usecase/checkin"
	"wx-home-bot/internal/usecase/report"
)

func newVIPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vip",
		Short: "VIP-пользователи",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Список VIP по порядку номеров",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStorage(func(cfg config.AppConfig, s *app.Storage) error {
				vips, err := s.Profiles.ListVIPs(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tUSER\tNAME\tPOINTS\tVERIFIED")
				for _, p := range vips {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", p.VIP.ID, p.UserID, p.DisplayName(),
						p.Checkin.TotalPoints, p.VIP.VerifiedAt.In(cfg.Location()).Format("2006-01-02 15:04"))
				}
				return w.Flush()
			})
		},
	})
	return cmd
}

func newPointsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "points",
		Short: "Баллы отметок",
	}
	adjust := &cobra.Command{
		Use:   "adjust <user_id> <delta>",
		Short: "Изменить баланс пользователя на delta",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("delta: %w", err)
			}
			reason, _ := cmd.Flags().GetString("reason")
			return withStorage(func(cfg config.AppConfig, s *app.Storage) error {
				loc := cfg.Location()
				svc := checkin.NewService(s.Profiles, func() time.Time { return time.Now().In(loc) })
				balance, err := svc.Adjust(cmd.Context(), args[0], delta, reason)
				if err != nil {
					return err
				}
				cmd.Printf("баланс %s: %d\n", args[0], balance)
				return nil
			})
		},
	}
	adjust.Flags().String("reason", "manual", "Причина корректировки для журнала баллов")
	cmd.AddCommand(adjust)
	return cmd
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Ежедневный погодный черновик",
	}
	run := &cobra.Command{
		Use:   "run",
		Short: "Собрать и опубликовать черновик сейчас, минуя очередь",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			city, _ := cmd.Flags().GetString("city")
			if city == "" {
				city = cfg.Report.City
			}
			svc, closeFn, err := reportService(cmd, cfg, false)
			if err != nil {
				return err
			}
			defer closeFn()
			now := time.Now().In(cfg.Location())
			mediaID, err := svc.Run(cmd.Context(), domain.ReportJob{
				ID:          uuid.NewString(),
				City:        city,
				Date:        now,
				RequestedAt: now,
				Cause:       domain.ReportCauseManual,
			})
			if err != nil {
				return err
			}
			cmd.Printf("черновик создан: %s\n", mediaID)
			return nil
		},
	}
	run.Flags().String("city", "", "Город; по умолчанию REPORT_CITY")

	trigger := &cobra.Command{
		Use:   "trigger",
		Short: "Поставить задачу на сегодня в очередь планировщика",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			svc, closeFn, err := reportService(cmd, cfg, true)
			if err != nil {
				return err
			}
			defer closeFn()
			job, enqueued, err := svc.Trigger(cmd.Context(), domain.ReportCauseManual)
			if err != nil {
				return err
			}
			if !enqueued {
				cmd.Println("задача на сегодня уже в очереди")
				return nil
			}
			cmd.Printf("задача поставлена: %s\n", job.ID)
			return nil
		},
	}
	cmd.AddCommand(run, trigger)
	return cmd
}

// reportService собирает сервис отчёта; withQueue подключает очередь и общий кэш.
func reportService(cmd *cobra.Command, cfg config.AppConfig, withQueue bool) (*report.Service, func(), error) {
	logger := log.NewLogger(cfg.AppEnv, "botctl")
	redisClient, err := app.OpenRedis(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}
	eph := app.NewEphemeral(cfg, redisClient)

	var jobs domain.ReportQueue
	if withQueue {
		q, closeQueue, err := app.ReportQueue(cfg, redisClient)
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		jobs = q
		prev := closeFn
		closeFn = func() { _ = closeQueue(); prev() }
	}

	var notifier domain.Notifier
	if cfg.Notify.ServerChanKey != "" {
		notifier = notify.NewServerChan(cfg.Notify.ServerChanKey, "", 10*time.Second)
	}
	client := wechat.NewClient(cfg.WeChat.APIBase, cfg.WeChat.AppID, cfg.WeChat.AppSecret, eph.Cache, 10*time.Second)
	loc := cfg.Location()
	svc := report.NewService(logger, app.NewWeather(logger, cfg), client, notifier, jobs, eph.Cache, report.Config{
		City:         cfg.Report.City,
		Author:       cfg.Report.Author,
		ThumbMediaID: cfg.Report.ThumbMediaID,
	}, func() time.Time { return time.Now().In(loc) })
	return svc, closeFn, nil
}
