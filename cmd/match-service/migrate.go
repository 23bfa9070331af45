package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flosslyDevs/ToothMatch/internal/db"
	"github.com/flosslyDevs/ToothMatch/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
		defer log.Sync()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		pool, err := db.NewPostgresPool(ctx, cfg.Database.URL, cfg.Database.MaxConnections)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()

		conn := db.OpenDB(pool)
		defer conn.Close()

		n, err := db.Migrate(ctx, conn, log)
		if err != nil {
			return err
		}
		log.Info("migrations complete", map[string]interface{}{"applied": n})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
