// Package main запускает консольную утилиту оператора витрины.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/mmeshcher/storefront-core/internal/cli"
	"github.com/mmeshcher/storefront-core/internal/config"
	"github.com/mmeshcher/storefront-core/internal/orders"
	"github.com/mmeshcher/storefront-core/internal/repository"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	open := func(ctx context.Context, dsn string) (orders.Repository, io.Closer, error) {
		repo, err := repository.NewPostgresRepository(dsn)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo, nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(open, cfg.DatabaseURI, logger).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
