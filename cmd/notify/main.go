package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"curator/internal/catalog"
	"curator/internal/config"
	"curator/internal/ledger"
	"curator/internal/logging"
	"curator/internal/notify"
	"curator/internal/score"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel)

	if err := cfg.RequireTelegram(); err != nil {
		log.Error("config", "error", err)
		os.Exit(1)
	}

	results, err := catalog.LoadResults(cfg.ResultsPath())
	if err != nil {
		log.Error("load results, run discover first", "path", cfg.ResultsPath(), "error", err)
		os.Exit(1)
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Error("create bot api", "error", err)
		os.Exit(1)
	}

	n := notify.New(api, nil, cfg.TelegramChatID, score.Default().TrustedOrgs, log)
	if led, err := ledger.Open(cfg.LedgerPath); err != nil {
		// Hash-addressed callbacks are unresolvable without the ledger,
		// but the notifications themselves can still go out.
		log.Warn("open ledger", "path", cfg.LedgerPath, "error", err)
	} else {
		defer func() { _ = led.Close() }()
		n = notify.New(api, led, cfg.TelegramChatID, score.Default().TrustedOrgs, log)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := n.Run(ctx, results); err != nil {
		log.Error("send notifications", "error", err)
		os.Exit(1)
	}

	log.Info("notifications sent",
		"candidates", len(results.Candidates), "issues", len(results.Issues))
}
