// Package apply executes one admin decision against the catalog: it
// mutates the JSON source of truth and re-renders both README documents.
// It is the workflow-side counterpart of the webhook server.
package apply

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"curator/internal/catalog"
	"curator/internal/config"
	"curator/internal/gh"
	"curator/internal/model"
	"curator/internal/render"
	"curator/internal/score"
)

// Placeholder descriptions used when no generated text is available.
const (
	placeholderKo = "설명 추가 필요"
	placeholderEn = "Description needed"
)

// Request is one decision to apply.
type Request struct {
	Action        string
	Owner         string
	Repo          string
	SectionID     string
	DescriptionKo string
}

// Applier mutates the catalog and re-renders the documents.
type Applier struct {
	cfg    *config.Config
	client gh.Client
	log    *slog.Logger

	now func() time.Time
}

// New creates an Applier. client may be nil; add decisions then use
// placeholder descriptions and skip the health back-fill.
func New(cfg *config.Config, client gh.Client, log *slog.Logger) *Applier {
	return &Applier{cfg: cfg, client: client, log: log, now: time.Now}
}

// Run applies one decision end to end.
func (a *Applier) Run(ctx context.Context, req Request) error {
	fullName := req.Owner + "/" + req.Repo
	if req.Owner == "" || req.Repo == "" {
		return fmt.Errorf("invalid repository identity %q", fullName)
	}

	switch req.Action {
	case "keep", "skip":
		return a.markCooldown(fullName)
	case "add", "remove":
	default:
		return fmt.Errorf("unknown action %q", req.Action)
	}

	cat, err := catalog.Load(a.cfg.CatalogPath())
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	changed := false
	if req.Action == "add" {
		changed, err = a.add(ctx, cat, req)
	} else {
		changed, err = a.remove(cat, fullName)
	}
	if err != nil {
		return err
	}
	if !changed {
		a.log.Info("no catalog change", "action", req.Action, "repo", fullName)
		return nil
	}

	cat.Metadata.LastUpdated = a.now().UTC()
	cat.Metadata.TotalEntries = catalog.CountEntries(cat)

	if err := catalog.Save(a.cfg.CatalogPath(), cat); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	if err := a.renderAll(cat); err != nil {
		return err
	}
	a.log.Info("decision applied", "action", req.Action, "repo", fullName, "entries", cat.Metadata.TotalEntries)
	return nil
}

func (a *Applier) add(ctx context.Context, cat *model.Catalog, req Request) (bool, error) {
	fullName := req.Owner + "/" + req.Repo
	if section, _ := catalog.FindEntry(cat, fullName); section != nil {
		a.log.Warn("already listed", "repo", fullName, "section", section.ID)
		return false, nil
	}

	sectionID := req.SectionID
	if sectionID == "" {
		sectionID = score.DefaultSection
	}
	section := catalog.FindSection(cat, sectionID)
	if section == nil {
		return false, fmt.Errorf("unknown section %q", sectionID)
	}

	entry := &model.Entry{
		Owner:     req.Owner,
		Repo:      req.Repo,
		Type:      "Community",
		AddedDate: a.now().UTC().Format("2006-01-02"),
		Description: model.Text{
			Ko: req.DescriptionKo,
			En: placeholderEn,
		},
		Status: model.StatusActive,
		Health: model.Health{Exists: true},
	}
	if entry.Description.Ko == "" {
		entry.Description.Ko = placeholderKo
	}

	if a.client != nil {
		if repo, err := a.client.Get(ctx, req.Owner, req.Repo); err != nil {
			a.log.Warn("metadata fetch failed", "repo", fullName, "error", err)
		} else {
			if repo.Description != "" {
				entry.Description.En = repo.Description
			}
			entry.Health.Stars = repo.Stars
			entry.Health.StarsPrev = repo.Stars
			entry.Health.Archived = repo.Archived
			push := repo.PushedAt
			entry.Health.LastPush = &push
		}
	}

	section.Repos = append(section.Repos, entry)
	return true, nil
}

func (a *Applier) remove(cat *model.Catalog, fullName string) (bool, error) {
	section, entry := catalog.FindEntry(cat, fullName)
	if section == nil {
		return false, fmt.Errorf("%s is not listed", fullName)
	}

	repos := section.Repos[:0]
	for _, e := range section.Repos {
		if e != entry {
			repos = append(repos, e)
		}
	}
	section.Repos = repos
	return true, nil
}

// markCooldown records a keep/skip decision so discovery and health checks
// leave the repository alone for the configured window.
func (a *Applier) markCooldown(fullName string) error {
	now := a.now().UTC()
	cd := catalog.LoadCooldown(a.cfg.CooldownPath(), a.cfg.CooldownWindow(), now)
	cd.Mark(fullName, now)
	if err := catalog.SaveCooldown(a.cfg.CooldownPath(), cd); err != nil {
		return fmt.Errorf("save cooldown: %w", err)
	}
	a.log.Info("cooldown recorded", "repo", fullName, "days", a.cfg.CooldownDays)
	return nil
}

func (a *Applier) renderAll(cat *model.Catalog) error {
	for _, lang := range []string{model.LangKo, model.LangEn} {
		path := a.cfg.ReadmePath(lang)
		if err := os.WriteFile(path, []byte(render.Render(cat, lang)), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}
