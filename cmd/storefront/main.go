// Package main запускает HTTP-сервер витрины.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/storefront-core/internal/auth"
	"github.com/mmeshcher/storefront-core/internal/catalog"
	"github.com/mmeshcher/storefront-core/internal/checkout"
	"github.com/mmeshcher/storefront-core/internal/config"
	"github.com/mmeshcher/storefront-core/internal/handler"
	"github.com/mmeshcher/storefront-core/internal/metrics"
	"github.com/mmeshcher/storefront-core/internal/middleware"
	"github.com/mmeshcher/storefront-core/internal/repository"
	"github.com/mmeshcher/storefront-core/internal/workspace"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}
	defer repo.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
	defer rdb.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		cancelPing()
		sugar.Fatalw("redis initialization error", "error", err.Error())
	}
	cancelPing()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	authSvc := auth.NewService(repo, auth.NewRedisSessions(rdb, cfg.SessionTTL), logger)

	workspaces := workspace.NewRegistry(workspace.Deps{
		Provider:   authSvc,
		Roles:      repo,
		SavedItems: repo,
		Orders:     repo,
		Logger:     logger,
		Metrics:    m,
	}, cfg.WorkspaceIdleTTL)
	defer workspaces.Close()

	if cfg.ClientSecret == "" {
		sugar.Warn("CLIENT_SECRET is empty, client cookies will not survive a restart")
	}

	h := handler.NewHandler(
		workspaces,
		catalog.NewService(repo),
		repo,
		checkout.New(repo, logger, m),
		logger,
		middleware.NewClientMiddleware(cfg.ClientSecret),
	)

	r := h.SetupRouter(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Фоновая очистка простаивающих рабочих пространств
	g.Go(func() error {
		workspaces.StartEviction(ctx, time.Minute)
		return nil
	})

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting storefront server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
