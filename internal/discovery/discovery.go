// Package discovery searches GitHub for candidate repositories, filters and
// ranks them, and enriches the best ones with a deep-analysis pass.
package discovery

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"curator/internal/gh"
	"curator/internal/model"
	"curator/internal/score"
)

// DefaultQueries is the fixed search query list, focused on the
// Web3 × Claude Code / MCP intersection.
var DefaultQueries = []string{
	// Claude Code skills, Web3 flavored
	"SKILL.md solidity",
	"SKILL.md ethereum",
	"SKILL.md web3",
	"claude skills smart contract",
	"claude-code blockchain topic:claude-code",
	// MCP servers, Web3 flavored
	"mcp server ethereum solidity",
	"mcp server blockchain onchain",
	"mcp server defi swap",
	"mcp server solana token",
	"mcp server web3 wallet",
	"mcp-server topic:ethereum",
	"mcp-server topic:solana",
	"mcp-server topic:defi",
	"mcp-server topic:web3",
	// onchain AI agents
	"AI agent onchain transaction",
}

// Discoverer runs the candidate discovery pipeline. Batch execution is
// strictly sequential; a failed query or enrichment call is logged and the
// loop moves on.
type Discoverer struct {
	client gh.Client
	scorer score.Config
	log    *slog.Logger

	// Queries are the search strings to run, one page each.
	Queries []string
	// MinStars rejects candidates below this star count.
	MinStars int
	// MaxStaleMonths rejects candidates whose last push is older.
	MaxStaleMonths int
	// MinRelevance is the minimum passing relevance score; 0 disables
	// the relevance filter (exclusion matches are always dropped).
	MinRelevance int

	now func() time.Time
}

// New creates a Discoverer with the default query list.
func New(client gh.Client, scorer score.Config, log *slog.Logger) *Discoverer {
	return &Discoverer{
		client:         client,
		scorer:         scorer,
		log:            log,
		Queries:        DefaultQueries,
		MinStars:       5,
		MaxStaleMonths: 3,
		MinRelevance:   20,
		now:            time.Now,
	}
}

// Search runs every query, filters and deduplicates the results, applies the
// relevance filter, ranks, and assigns a suggested section per candidate.
// existing and skipped are lowercased identity sets.
func (d *Discoverer) Search(ctx context.Context, existing, skipped map[string]bool) []*model.Candidate {
	byKey := make(map[string]*model.Candidate)
	var order []string

	for _, query := range d.Queries {
		if ctx.Err() != nil {
			break
		}
		repos, err := d.client.Search(ctx, query, 30)
		if err != nil {
			d.log.Warn("search query failed", "query", query, "error", err)
			continue
		}

		for _, r := range repos {
			key := strings.ToLower(r.FullName)
			if r.Fork || r.Archived {
				continue
			}
			if r.Stars < d.MinStars {
				continue
			}
			if existing[key] || skipped[key] {
				continue
			}
			if monthsBetween(r.PushedAt, d.now()) > d.MaxStaleMonths {
				continue
			}

			if c, ok := byKey[key]; ok {
				c.MatchedQueries = append(c.MatchedQueries, query)
				continue
			}
			byKey[key] = &model.Candidate{
				Owner:          r.Owner,
				Repo:           r.Name,
				FullName:       r.FullName,
				Description:    r.Description,
				Stars:          r.Stars,
				LastPush:       r.PushedAt,
				Language:       r.Language,
				Topics:         r.Topics,
				URL:            r.HTMLURL,
				MatchedQueries: []string{query},
			}
			order = append(order, key)
		}
	}

	var passed []*model.Candidate
	for _, key := range order {
		c := byKey[key]
		c.RelevanceScore = d.scorer.Relevance(c)
		if c.RelevanceScore < 0 {
			continue
		}
		if d.MinRelevance > 0 && c.RelevanceScore < d.MinRelevance {
			continue
		}
		passed = append(passed, c)
	}
	d.log.Info("relevance filter applied", "raw", len(order), "passed", len(passed))

	sort.SliceStable(passed, func(i, j int) bool {
		a, b := passed[i], passed[j]
		if a.RelevanceScore != b.RelevanceScore {
			return a.RelevanceScore > b.RelevanceScore
		}
		if len(a.MatchedQueries) != len(b.MatchedQueries) {
			return len(a.MatchedQueries) > len(b.MatchedQueries)
		}
		return a.Stars > b.Stars
	})

	for _, c := range passed {
		c.SuggestedSection = score.SuggestSection(c)
	}
	return passed
}

// Enrich runs the deep-analysis pass over the given candidates in order:
// extended metadata, contributor count, README excerpt and signals, then
// trust score, compatibility tags, and the recommendation tier.
func (d *Discoverer) Enrich(ctx context.Context, cands []*model.Candidate) {
	for i, c := range cands {
		if ctx.Err() != nil {
			return
		}
		d.analyze(ctx, c)
		d.log.Info("analyzed candidate",
			"n", i+1,
			"of", len(cands),
			"repo", c.FullName,
			"trust", c.Analysis.TrustScore,
			"recommendation", c.Analysis.Recommendation,
		)
	}
}

func (d *Discoverer) analyze(ctx context.Context, c *model.Candidate) {
	a := &model.Analysis{}
	c.Analysis = a

	if r, err := d.client.Get(ctx, c.Owner, c.Repo); err != nil {
		d.log.Warn("repo metadata fetch failed", "repo", c.FullName, "error", err)
	} else {
		a.Meta = model.RepoMeta{
			Forks:         r.Forks,
			OpenIssues:    r.OpenIssues,
			Watchers:      r.Watchers,
			License:       r.License,
			OwnerType:     r.OwnerType,
			DefaultBranch: r.DefaultBranch,
		}
		if !r.CreatedAt.IsZero() {
			created := r.CreatedAt
			a.Meta.CreatedAt = &created
		}
	}

	if count, top, err := d.client.Contributors(ctx, c.Owner, c.Repo); err != nil {
		d.log.Warn("contributor fetch failed", "repo", c.FullName, "error", err)
	} else {
		a.Meta.Contributors = count
		a.Meta.TopContributor = top
	}

	if readme, err := d.client.Readme(ctx, c.Owner, c.Repo); err != nil {
		d.log.Warn("readme fetch failed", "repo", c.FullName, "error", err)
	} else {
		a.ReadmeExcerpt = Excerpt(readme)
		a.Signals = DetectSignals(readme)
	}

	a.TrustScore = d.scorer.Trust(c)
	a.CompatTags = score.CompatTags(c)
	a.Recommendation = score.Recommend(a.TrustScore, a.CompatTags, c.Stars)
}

// monthsBetween returns whole calendar months from a to b.
func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}
