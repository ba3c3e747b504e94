package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/corefin/bankd/internal/admin"
	"github.com/corefin/bankd/internal/cli"
	"github.com/corefin/bankd/internal/config"
	ledgersvc "github.com/corefin/bankd/internal/service/ledger"
	registrysvc "github.com/corefin/bankd/internal/service/registry"
	"github.com/corefin/bankd/internal/storage/memory"
	pgstore "github.com/corefin/bankd/internal/storage/postgres"
)

// store is the combined surface both backends implement.
type store interface {
	registrysvc.Repo
	registrysvc.Writer
	ledgersvc.Repo
	ledgersvc.Writer
	Currency() string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()

	// Logger (slog to stderr so the teller prompts on stdout stay clean).
	// Level via LOG_LEVEL; format via LOG_FORMAT (json|text, default json).
	logger := buildLogger(cfg)
	slog.SetDefault(logger)

	var st store
	if cfg.DatabaseURL != "" {
		pg, err := pgstore.Open(ctx, cfg.DatabaseURL, cfg.Currency, cfg.MaxAccounts)
		if err != nil {
			logger.Error("failed to connect to postgres", "err", err)
			os.Exit(1)
		}
		defer pg.Close()
		st = pg
		logger.Info("storage backend: postgres")
	} else {
		st = memory.New(cfg.Currency, cfg.MaxAccounts)
		logger.Info("storage backend: memory")
	}

	registry := registrysvc.New(st, st)
	ledger := ledgersvc.New(st, st)
	admins := admin.New()

	logger.Info("bankd ready", "currency", cfg.Currency, "max_accounts", cfg.MaxAccounts)
	shell := cli.New(os.Stdin, os.Stdout, registry, ledger, admins, cfg.Currency, logger)
	if err := shell.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("shell error", "err", err)
		os.Exit(1)
	}
}

// parseLogLevel maps env values to slog.Leveler.
func parseLogLevel(s string) slog.Leveler {
	switch s {
	case "DEBUG", "debug":
		return slog.LevelDebug
	case "WARN", "WARNING", "warn", "warning":
		return slog.LevelWarn
	case "ERROR", "ERR", "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLogger(cfg config.Config) *slog.Logger {
	level := parseLogLevel(cfg.LogLevel)
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
	// default to JSON
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
