package main

import (
	"errors"

	"github.com/spf13/cobra"

	"wx-home-bot/internal/infra/config"
	"wx-home-bot/internal/infra/db"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Применить миграции Postgres",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dsn, err := pgDSN()
			if err != nil {
				return err
			}
			if err := db.Migrate(dsn); err != nil {
				return err
			}
			cmd.Println("миграции применены")
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Показать состояние миграций",
		RunE: func(*cobra.Command, []string) error {
			dsn, err := pgDSN()
			if err != nil {
				return err
			}
			return db.MigrationStatus(dsn)
		},
	})
	return cmd
}

func pgDSN() (string, error) {
	cfg := config.Load()
	if cfg.PGDSN == "" {
		return "", errors.New("PG_DSN не задан")
	}
	return cfg.PGDSN, nil
}
