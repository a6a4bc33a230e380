// cmd/service/main.go
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd serves the API when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "showcase",
	Short: "GitHub profile statistics and resume sharing service",
	Long: `showcase serves a user's GitHub statistics and resume as shareable
pages, refreshing the stored GitHub data in the background.

Configuration is read from a .env file and the environment; flags take
precedence over both.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("Application error", "error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("db-url", "", "PostgreSQL connection URL (or set DB_URL)")

	_ = viper.BindPFlag("LOG_LEVEL", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("DB_URL", rootCmd.PersistentFlags().Lookup("db-url"))

	rootCmd.AddCommand(serveCmd, migrateCmd)
}

// newLogger initializes the structured JSON logger as the default logger.
// The returned level can be changed once the configuration is loaded.
func newLogger(level string) (*slog.Logger, *slog.LevelVar) {
	logLevel := new(slog.LevelVar)
	setLogLevel(level, logLevel)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return logger, logLevel
}

func setLogLevel(level string, v *slog.LevelVar) {
	switch level {
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		v.Set(slog.LevelInfo)
	}
}
