package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/yukikurage/project-collab-api/internal/cache"
	"github.com/yukikurage/project-collab-api/internal/config"
	"github.com/yukikurage/project-collab-api/internal/database"
	"github.com/yukikurage/project-collab-api/internal/metrics"
	"github.com/yukikurage/project-collab-api/internal/router"
)

const cacheKeyPrefix = "projectcollab:"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	setupLogger(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := database.Migrate(db); err != nil {
		return err
	}

	store, err := router.NewSessionStore(cfg)
	if err != nil {
		return err
	}

	m := metrics.New()

	projectCache, closeCache := setupCache(cfg, m)
	defer closeCache()

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: router.New(router.Deps{
			Config:   cfg,
			DB:       db,
			Sessions: store,
			Cache:    projectCache,
			Metrics:  m,
		}),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr(), "db_driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// setupCache returns the project cache. An unreachable Redis disables caching
// instead of failing startup.
func setupCache(cfg *config.Config, m *metrics.Metrics) (cache.Cache, func()) {
	if !cfg.CacheEnabled {
		return cache.Noop{}, func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c := cache.NewRedis(client, cacheKeyPrefix, cfg.CacheTTL, m)
	if err := c.Ping(ctx); err != nil {
		slog.Warn("redis unavailable, project cache disabled", "addr", cfg.RedisAddr(), "error", err)
		client.Close()
		return cache.Noop{}, func() {}
	}

	slog.Info("project cache enabled", "addr", cfg.RedisAddr(), "ttl", cfg.CacheTTL)
	return c, func() { client.Close() }
}
