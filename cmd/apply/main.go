package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"curator/internal/apply"
	"curator/internal/config"
	"curator/internal/gh"
	"curator/internal/logging"
)

func main() {
	action := flag.String("action", os.Getenv("INPUT_ACTION"), "decision to apply: add, remove, keep, skip")
	owner := flag.String("owner", os.Getenv("INPUT_OWNER"), "repository owner")
	repo := flag.String("repo", os.Getenv("INPUT_REPO"), "repository name")
	section := flag.String("section", os.Getenv("INPUT_SECTIONID"), "target section id for add")
	description := flag.String("description", os.Getenv("INPUT_DESCRIPTIONKO"), "korean description for add")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel)

	var client gh.Client
	if cfg.GitHubToken != "" {
		client = gh.New(cfg.GitHubToken, 2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a := apply.New(cfg, client, log)
	req := apply.Request{
		Action:        *action,
		Owner:         *owner,
		Repo:          *repo,
		SectionID:     *section,
		DescriptionKo: *description,
	}
	if err := a.Run(ctx, req); err != nil {
		log.Error("apply decision", "action", req.Action, "repo", req.Owner+"/"+req.Repo, "error", err)
		os.Exit(1)
	}
}
