// cmd/service/serve.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"

	"github-showcase/internal/analytics"
	"github-showcase/internal/api"
	"github-showcase/internal/cache"
	"github-showcase/internal/config"
	"github-showcase/internal/database"
	"github-showcase/internal/github"
	"github-showcase/internal/githubdata"
	"github-showcase/internal/i18n"
	"github-showcase/internal/notify"
	"github-showcase/internal/session"
	"github-showcase/internal/stats"
	"github-showcase/internal/syncer"
	"github-showcase/migrations"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the background syncer",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "HTTP listen address (or set HTTP_ADDR)")
	serveCmd.Flags().Duration("refresh-interval", 0, "Minimum time between user requested refreshes")

	_ = viper.BindPFlag("HTTP_ADDR", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("REFRESH_INTERVAL", serveCmd.Flags().Lookup("refresh-interval"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	// 1. Initialize structured logger
	logger, logLevel := newLogger("")

	// 2. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setLogLevel(cfg.LogLevel, logLevel)
	logger.Info("Configuration loaded successfully")

	// 3. Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 4. Initialize database connection and run migrations
	dbpool, err := pgxpool.New(ctx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbpool.Close()
	logger.Info("Database connection established")

	if err := migrations.Up(cfg.DBURL); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	logger.Info("Database migrations applied successfully")

	rdb, err := newRedis(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer rdb.Close()
	logger.Info("Redis connection established")

	// 5. Initialize application components
	store := database.NewStore(dbpool)
	responseCache := cache.New(rdb, cfg.CacheTTL, logger)
	ghClient := github.NewClient(cfg.GithubToken, logger)

	appSyncer := syncer.NewSyncer(store, func(token string) syncer.Fetcher {
		return ghClient.WithToken(token)
	}, logger, syncer.Options{
		AppToken:    cfg.GithubToken,
		Interval:    cfg.AutoRefreshEvery,
		StaleAfter:  cfg.AutoRefreshAfter,
		SyncTimeout: cfg.SyncTimeout,
		Concurrency: cfg.SyncConcurrency,
		OnSynced: func(ctx context.Context, login string) {
			if err := responseCache.Del(ctx, api.GithubCacheKeys(login)...); err != nil {
				logger.Warn("Failed to invalidate cached GitHub data", "login", login, "error", err)
			}
		},
		Now: time.Now,
	})

	data := githubdata.NewService(store, appSyncer, func(token string) githubdata.Client {
		return ghClient.WithToken(token)
	}, cfg.SyncTimeout, logger)

	notifier := newNotifier(cfg, logger)
	defer func() {
		if err := notifier.Close(); err != nil {
			logger.Error("Failed to close notifier", "error", err)
		}
	}()
	recorder := analytics.NewRecorder(store, store, notifier, logger)

	messages, err := i18n.New(cfg.DefaultLocale)
	if err != nil {
		return fmt.Errorf("failed to load translations: %w", err)
	}

	router := api.NewRouter(api.Deps{
		DB:     store,
		GitHub: data,
		Cache:  responseCache,
		Sessions: session.NewStore(rdb, session.Options{
			TTL:        cfg.SessionTTL,
			CookieName: cfg.SessionCookieName,
			Secure:     cfg.SecureCookies,
		}, logger),
		Analytics: recorder,
		Messages:  messages,
		Policy:    stats.NewPolicy(cfg.RefreshInterval),
		OAuth:     oauthConfig(cfg),
		SiteURL:   cfg.SiteURL,
		Secure:    cfg.SecureCookies,
		Logger:    logger,
	})

	// 6. Start the syncer in a separate goroutine
	go appSyncer.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		serveErr <- srv.ListenAndServe()
	}()

	// 7. Wait for shutdown signal
	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	appSyncer.Close()
	recorder.Wait()
	logger.Info("Shutdown complete")
	return nil
}

func newRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

// newNotifier publishes view events to Kafka when brokers are configured,
// and to the log otherwise.
func newNotifier(cfg *config.Config, logger *slog.Logger) notify.Notifier {
	if len(cfg.KafkaBrokers) == 0 {
		return notify.NewLogNotifier(logger)
	}
	return notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaViewTopic, logger)
}

// oauthConfig returns nil when GitHub sign-in is not configured.
func oauthConfig(cfg *config.Config) *oauth2.Config {
	if cfg.GithubClientID == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     cfg.GithubClientID,
		ClientSecret: cfg.GithubClientSecret,
		RedirectURL:  cfg.GithubRedirectURL,
		Scopes:       []string{"read:user", "user:email"},
		Endpoint:     githuboauth.Endpoint,
	}
}
