package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"curator/internal/bot"
	"curator/internal/config"
	"curator/internal/gen"
	"curator/internal/gh"
	"curator/internal/ledger"
	"curator/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel)

	if err := cfg.RequireWebhook(); err != nil {
		log.Error("config", "error", err)
		os.Exit(1)
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Error("create bot api", "error", err)
		os.Exit(1)
	}

	if dir := filepath.Dir(cfg.LedgerPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}
	led, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		log.Error("open ledger", "path", cfg.LedgerPath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = led.Close() }()

	client := gh.New(cfg.GitHubToken, 2)
	generator := gen.NewClaudeCLI(cfg.ClaudeBin, cfg.GenerateTimeout, log)

	srv := bot.NewServer(api, client, generator, led, cfg, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := srv.Run(ctx); err != nil {
		log.Error("webhook server", "error", err)
		os.Exit(1)
	}

	log.Info("webhook server stopped")
}
