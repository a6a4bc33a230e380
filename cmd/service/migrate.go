// cmd/service/migrate.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github-showcase/internal/config"
	"github-showcase/migrations"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down]",
	Short:     "Apply or roll back the database schema",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down"},
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, _ := newLogger(viper.GetString("LOG_LEVEL"))

		dbURL, err := config.DatabaseURL(viper.GetViper())
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		switch args[0] {
		case "up":
			err = migrations.Up(dbURL)
		case "down":
			err = migrations.Down(dbURL)
		}
		if err != nil {
			return fmt.Errorf("failed to run migrations %s: %w", args[0], err)
		}
		logger.Info("Database migrations applied", "direction", args[0])
		return nil
	},
}
