// Package cli содержит команды консольной утилиты оператора.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mmeshcher/storefront-core/internal/orders"
)

// Opener открывает хранилище заказов по строке подключения.
type Opener func(ctx context.Context, dsn string) (orders.Repository, io.Closer, error)

// RootOptions содержит глобальные флаги всех команд.
type RootOptions struct {
	DatabaseURI string
	Format      string
}

// ValidFormats перечисляет допустимые форматы вывода.
var ValidFormats = []string{"text", "json"}

// NewRootCommand создаёт корневую команду storefront-admin.
// defaultDSN подставляется, если флаг --database не задан.
func NewRootCommand(open Opener, defaultDSN string, logger *zap.Logger) *cobra.Command {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "storefront-admin",
		Short: "Operator tools for the storefront",
		Long:  "Lists, updates and exports storefront orders directly against the order database.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.DatabaseURI, "database", "d", defaultDSN, "database URI")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	env := &commandEnv{opts: opts, open: open, logger: logger}
	cmd.AddCommand(NewOrdersCommand(env))

	return cmd
}

type commandEnv struct {
	opts   *RootOptions
	open   Opener
	logger *zap.Logger
}

// manager открывает хранилище и возвращает менеджер заказов с функцией закрытия.
func (e *commandEnv) manager(ctx context.Context) (*orders.Manager, func(), error) {
	if e.opts.DatabaseURI == "" {
		return nil, nil, errors.New("database URI is required: pass --database or set DATABASE_URI")
	}

	repo, closer, err := e.open(ctx, e.opts.DatabaseURI)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	release := func() {
		if err := closer.Close(); err != nil {
			e.logger.Warn("close database", zap.Error(err))
		}
	}
	return orders.NewManager(repo, e.logger, nil), release, nil
}
