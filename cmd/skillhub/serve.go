package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/terra-clan/skillhub/internal/api"
	"github.com/terra-clan/skillhub/internal/auth"
	"github.com/terra-clan/skillhub/internal/cache"
	"github.com/terra-clan/skillhub/internal/catalog"
	"github.com/terra-clan/skillhub/internal/config"
	"github.com/terra-clan/skillhub/internal/i18n"
	"github.com/terra-clan/skillhub/internal/lock"
	"github.com/terra-clan/skillhub/internal/notify"
	"github.com/terra-clan/skillhub/internal/reconcile"
	"github.com/terra-clan/skillhub/internal/skills"
	"github.com/terra-clan/skillhub/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server (default)",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		setupLogging("info")
		slog.Error("failed to load config", "error", err)
		return err
	}
	setupLogging(cfg.LogLevel)

	slog.Info("starting skillhub",
		"version", version,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Seed catalog into the in-memory store
	loader := catalog.NewLoader()
	if err := loader.LoadFromDir(cfg.Catalog.Dir); err != nil {
		slog.Warn("failed to load seed catalog", "dir", cfg.Catalog.Dir, "error", err)
	}
	seed := storage.NewMemoryRepository()
	if err := loader.Seed(initCtx, seed); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	slog.Info("seed catalog loaded", "skills", len(loader.Entries()), "categories", len(loader.Categories()))

	repo, err := openRepository(initCtx, cfg.Database, seed)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			slog.Error("repository close error", "error", err)
		}
	}()

	// Redis backs the category cache and the distributed locks
	var (
		locker        lock.Locker = lock.NewLocalLocker()
		workerLocker  lock.Locker = locker
		categoryCache skills.CategoryCache
	)
	if cfg.Redis.Enabled() {
		client, err := cache.NewClient(initCtx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer closeRedis(client)

		locker = lock.NewRedisLocker(client, cfg.Redis.LockTTL)
		workerLocker = lock.NewRedisLocker(client, cfg.Reconcile.Interval)
		categoryCache = cache.NewCategoryCache(client, cfg.Redis.CacheTTL)
		slog.Info("redis connected", "address", cfg.Redis.Address)
	} else {
		slog.Info("redis not configured, using process-local locks")
	}

	manager := skills.NewManager(repo, locker, categoryCache)

	dispatcher := notify.NewDispatcher(newSinkRegistry(cfg))

	bundle, err := i18n.Load()
	if err != nil {
		return fmt.Errorf("failed to load translations: %w", err)
	}

	verifier := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start reconcile worker
	workerDone := reconcile.NewWorker(manager, workerLocker, cfg.Reconcile.Interval).Start(ctx)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, manager, dispatcher, bundle, verifier, api.NewMetrics())
	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down gracefully...")
	case err := <-serverErr:
		slog.Error("HTTP server error", "error", err)
		cancel()
		<-workerDone
		return err
	}

	// Cancel context to stop background workers
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}
	<-workerDone

	slog.Info("skillhub stopped")
	return nil
}

// openRepository layers Postgres over the seed when a DSN is configured
func openRepository(ctx context.Context, cfg config.DatabaseConfig, seed *storage.MemoryRepository) (storage.Repository, error) {
	if !cfg.Enabled() {
		slog.Info("database not configured, serving the seed catalog from memory")
		return seed, nil
	}

	// Run database migrations
	slog.Info("running database migrations", "dir", cfg.MigrationsDir)
	applied, err := storage.MigrateFromDSN(ctx, cfg.DSN, cfg.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("migrations applied", "count", len(applied))

	pg, err := storage.NewPostgresRepository(ctx, storage.PostgresConfig{
		DSN:          cfg.DSN,
		MaxOpenConns: int32(cfg.MaxOpenConns),
		MaxIdleConns: int32(cfg.MaxIdleConns),
		MaxLifetime:  cfg.MaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create database repository: %w", err)
	}
	slog.Info("database connected successfully")

	return storage.NewLayeredRepository(pg, seed), nil
}

// newSinkRegistry registers every configured inquiry channel
func newSinkRegistry(cfg *config.Config) *notify.Registry {
	registry := notify.NewRegistry()

	if cfg.Mail.Enabled() {
		registry.Register(notify.NewEmailSink(notify.EmailConfig{
			Host:       cfg.Mail.Host,
			Port:       cfg.Mail.Port,
			Username:   cfg.Mail.Username,
			Password:   cfg.Mail.Password,
			From:       cfg.Mail.From,
			FromName:   cfg.Mail.FromName,
			Recipients: cfg.Mail.Recipients,
			SSL:        cfg.Mail.SSL,
		}))
	}
	if cfg.Slack.Enabled() {
		registry.Register(notify.NewSlackSink(cfg.Slack.WebhookURL, cfg.Slack.Timeout))
	}

	if registry.Len() == 0 {
		slog.Warn("no inquiry channel configured, inquiries will be rejected")
	} else {
		slog.Info("inquiry channels registered", "sinks", registry.List())
	}
	return registry
}

func closeRedis(client *redis.Client) {
	if err := client.Close(); err != nil {
		slog.Error("redis close error", "error", err)
	}
}
