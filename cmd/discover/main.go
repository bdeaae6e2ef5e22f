package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"curator/internal/catalog"
	"curator/internal/config"
	"curator/internal/discovery"
	"curator/internal/gh"
	"curator/internal/health"
	"curator/internal/logging"
	"curator/internal/model"
	"curator/internal/score"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel)

	if err := cfg.RequireGitHub(); err != nil {
		log.Error("config", "error", err)
		os.Exit(1)
	}

	cat, err := catalog.Load(cfg.CatalogPath())
	if err != nil {
		log.Error("load catalog", "path", cfg.CatalogPath(), "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	now := time.Now().UTC()
	cooldown := catalog.LoadCooldown(cfg.CooldownPath(), cfg.CooldownWindow(), now)
	existing := catalog.ExistingSet(cat)
	skipped := cooldown.Set()

	client := gh.New(cfg.GitHubToken, 2)
	scorer := score.Default()

	d := discovery.New(client, scorer, log)
	d.MinStars = cfg.MinStars
	d.MaxStaleMonths = cfg.MaxStaleMonths
	d.MinRelevance = cfg.MinRelevance

	log.Info("searching for candidates", "queries", len(d.Queries), "existing", len(existing))
	candidates := d.Search(ctx, existing, skipped)
	filtered := len(candidates)

	if len(candidates) > cfg.TopN {
		candidates = candidates[:cfg.TopN]
	}
	log.Info("analyzing top candidates", "count", len(candidates), "filtered", filtered)
	d.Enrich(ctx, candidates)

	checker := health.New(client, log)
	checker.StaleMonths = cfg.HealthStaleMonths
	issues := checker.Check(ctx, cat, skipped)

	stats := model.Stats{
		TotalExisting:           catalog.CountEntries(cat),
		TotalCandidatesFiltered: filtered,
		TotalShown:              len(candidates),
		TotalIssues:             len(issues),
	}
	for _, issue := range issues {
		switch issue.Type {
		case model.IssueArchived:
			stats.Archived++
		case model.IssueStale:
			stats.Stale++
		case model.IssueNotFound:
			stats.NotFound++
		}
	}

	results := &model.Results{
		Timestamp:  now,
		Candidates: candidates,
		Issues:     issues,
		Stats:      stats,
	}
	if err := catalog.SaveResults(cfg.ResultsPath(), results); err != nil {
		log.Error("save results", "error", err)
		os.Exit(1)
	}

	// The health pass mutated entry statuses; persist them.
	cat.Metadata.LastUpdated = now
	if err := catalog.Save(cfg.CatalogPath(), cat); err != nil {
		log.Error("save catalog", "error", err)
		os.Exit(1)
	}
	// Expired cool-down records were pruned on load.
	if err := catalog.SaveCooldown(cfg.CooldownPath(), cooldown); err != nil {
		log.Error("save cooldown", "error", err)
		os.Exit(1)
	}

	log.Info("discovery done",
		"candidates", len(candidates), "filtered", filtered, "issues", len(issues))
}
