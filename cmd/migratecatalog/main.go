package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"curator/internal/catalog"
	"curator/internal/config"
	"curator/internal/gh"
	"curator/internal/logging"
	"curator/internal/migrate"
	"curator/internal/model"
)

func main() {
	fetchHealth := flag.Bool("fetch-health", false, "back-fill live repository metadata via the GitHub API")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel)

	ko, err := os.ReadFile(cfg.ReadmePath(model.LangKo))
	if err != nil {
		log.Error("read korean document", "error", err)
		os.Exit(1)
	}
	en, err := os.ReadFile(cfg.ReadmePath(model.LangEn))
	if err != nil {
		log.Error("read english document", "error", err)
		os.Exit(1)
	}

	koSections := migrate.ParseReadme(string(ko), migrate.SectionMapKo)
	enSections := migrate.ParseReadme(string(en), migrate.SectionMapEn)

	cat, err := migrate.Merge(koSections, enSections, time.Now().UTC())
	if err != nil {
		log.Error("merge documents", "error", err)
		os.Exit(1)
	}

	if *fetchHealth {
		if err := cfg.RequireGitHub(); err != nil {
			log.Error("config", "error", err)
			os.Exit(1)
		}
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		migrate.BackfillHealth(ctx, gh.New(cfg.GitHubToken, 2), cat, log)
	}

	if dir := filepath.Dir(cfg.CatalogPath()); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}
	if err := catalog.Save(cfg.CatalogPath(), cat); err != nil {
		log.Error("save catalog", "error", err)
		os.Exit(1)
	}

	log.Info("catalog migrated",
		"path", cfg.CatalogPath(),
		"sections", len(cat.Sections),
		"entries", cat.Metadata.TotalEntries)
}
