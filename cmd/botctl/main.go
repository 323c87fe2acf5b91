package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"wx-home-bot/internal/app"
	"wx-home-bot/internal/infra/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "botctl",
		Short:         "Операторские команды бота: миграции, правила ответов, VIP, баллы, отчёт",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newRulesCmd())
	cmd.AddCommand(newVIPCmd())
	cmd.AddCommand(newPointsCmd())
	cmd.AddCommand(newReportCmd())
	return cmd
}

// withStorage открывает хранилище по конфигурации окружения на время fn.
func withStorage(fn func(cfg config.AppConfig, s *app.Storage) error) error {
	cfg := config.Load()
	storage, err := app.OpenStorage(cfg, false)
	if err != nil {
		return fmt.Errorf("хранилище: %w", err)
	}
	defer storage.Close()
	return fn(cfg, storage)
}
