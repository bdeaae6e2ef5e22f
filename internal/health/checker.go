// Package health re-fetches existing catalog entries and classifies their
// lifecycle status.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"curator/internal/gh"
	"curator/internal/model"
)

// Checker walks the catalog sequentially and updates each entry's health
// record. A non-404 fetch error leaves the entry untouched for the run.
type Checker struct {
	client gh.Client
	log    *slog.Logger

	// StaleMonths is the months-since-push threshold for the stale status.
	StaleMonths int

	now func() time.Time
}

// New creates a Checker with the default six-month stale threshold.
func New(client gh.Client, log *slog.Logger) *Checker {
	return &Checker{
		client:      client,
		log:         log,
		StaleMonths: 6,
		now:         time.Now,
	}
}

// Check re-fetches every entry not under an active cool-down, mutates the
// catalog's health records in place, and returns the detected issues.
// Cooled-down entries are counted as checked but not re-fetched.
func (c *Checker) Check(ctx context.Context, cat *model.Catalog, skipped map[string]bool) []model.Issue {
	var issues []model.Issue
	checked := 0

	for _, section := range cat.Sections {
		for _, entry := range section.Repos {
			if ctx.Err() != nil {
				return issues
			}
			if skipped[entry.Key()] {
				checked++
				continue
			}

			repo, err := c.client.Get(ctx, entry.Owner, entry.Repo)
			if err != nil {
				checked++
				if gh.IsNotFound(err) {
					entry.Health.Exists = false
					entry.Status = model.StatusFlagged
					issues = append(issues, issueFor(entry, section, model.IssueNotFound, "Repository not found (404)", nil))
					continue
				}
				c.log.Warn("health fetch failed", "repo", entry.FullName(), "error", err)
				continue
			}

			entry.Health.StarsPrev = entry.Health.Stars
			entry.Health.Stars = repo.Stars
			entry.Health.Archived = repo.Archived
			push := repo.PushedAt
			entry.Health.LastPush = &push
			entry.Health.Exists = true

			switch {
			case repo.Archived:
				entry.Status = model.StatusFlagged
				issues = append(issues, issueFor(entry, section, model.IssueArchived, "Repository is archived", nil))
			case monthsBetween(repo.PushedAt, c.now()) > c.StaleMonths:
				entry.Status = model.StatusStale
				reason := fmt.Sprintf("No push for %d months", monthsBetween(repo.PushedAt, c.now()))
				issues = append(issues, issueFor(entry, section, model.IssueStale, reason, &push))
			default:
				entry.Status = model.StatusActive
			}

			checked++
			if checked%10 == 0 {
				c.log.Debug("health progress", "checked", checked)
			}
		}
	}

	c.log.Info("health check done", "checked", checked, "issues", len(issues))
	return issues
}

func issueFor(entry *model.Entry, section *model.Section, kind model.IssueType, reason string, lastPush *time.Time) model.Issue {
	return model.Issue{
		Type:      kind,
		Owner:     entry.Owner,
		Repo:      entry.Repo,
		FullName:  entry.FullName(),
		SectionID: section.ID,
		Reason:    reason,
		LastPush:  lastPush,
	}
}

func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}
