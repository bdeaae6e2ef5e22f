// Package model defines the domain types used across the application.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Supported document languages.
const (
	LangKo = "ko"
	LangEn = "en"
)

// Text holds a value in both supported languages.
type Text struct {
	Ko string `json:"ko"`
	En string `json:"en"`
}

// Get returns the value for the given language code.
func (t Text) Get(lang string) string {
	if lang == LangEn {
		return t.En
	}
	return t.Ko
}

// NullableText is like Text but each language may be absent.
type NullableText struct {
	Ko *string `json:"ko"`
	En *string `json:"en"`
}

// Get returns the value for the given language, or "" if absent.
func (t NullableText) Get(lang string) string {
	v := t.Ko
	if lang == LangEn {
		v = t.En
	}
	if v == nil {
		return ""
	}
	return *v
}

// Status is the lifecycle state of a catalog entry.
type Status string

// Entry lifecycle states.
const (
	StatusActive  Status = "active"
	StatusStale   Status = "stale"
	StatusFlagged Status = "flagged"
)

// Catalog is the structured source of truth for all listed repositories.
type Catalog struct {
	Metadata Metadata   `json:"metadata"`
	Sections []*Section `json:"sections"`
}

// Metadata describes the catalog as a whole.
type Metadata struct {
	LastUpdated  time.Time `json:"lastUpdated"`
	TotalEntries int       `json:"totalEntries"`
}

// Section is one ordered group of entries in the catalog.
type Section struct {
	ID          string       `json:"id"`
	Group       string       `json:"group"`
	Title       Text         `json:"title"`
	Description NullableText `json:"description"`
	Repos       []*Entry     `json:"repos"`
}

// Entry is one listed repository within a section.
type Entry struct {
	Owner       string `json:"owner"`
	Repo        string `json:"repo"`
	Type        string `json:"type"`
	AddedDate   string `json:"addedDate"`
	Description Text   `json:"description"`
	Status      Status `json:"status"`
	Health      Health `json:"health"`
}

// FullName returns "owner/repo".
func (e *Entry) FullName() string {
	return e.Owner + "/" + e.Repo
}

// Key returns the lowercased identity used for uniqueness checks.
func (e *Entry) Key() string {
	return strings.ToLower(e.FullName())
}

// Health is the point-in-time liveness metadata for an entry.
// Mutated only by the health checker, never by the renderer.
type Health struct {
	Stars     int        `json:"stars"`
	StarsPrev int        `json:"starsPrev"`
	Archived  bool       `json:"archived"`
	LastPush  *time.Time `json:"lastPush"`
	Exists    bool       `json:"exists"`
}

// Tier is the discrete recommendation bucket assigned to a candidate.
type Tier string

// Recommendation tiers, strongest first.
const (
	TierStrongAdd Tier = "strong_add"
	TierAdd       Tier = "add"
	TierNeutral   Tier = "neutral"
	TierSkip      Tier = "skip"
)

// Candidate is a prospective entry discovered from search, not yet committed
// to the catalog. The core fields are always populated; Analysis is present
// only for candidates that went through the deep-analysis pass.
type Candidate struct {
	Owner            string    `json:"owner"`
	Repo             string    `json:"repo"`
	FullName         string    `json:"fullName"`
	Description      string    `json:"description"`
	Stars            int       `json:"stars"`
	LastPush         time.Time `json:"lastPush"`
	Language         string    `json:"language,omitempty"`
	Topics           []string  `json:"topics"`
	URL              string    `json:"url"`
	MatchedQueries   []string  `json:"matchedQueries"`
	RelevanceScore   int       `json:"relevanceScore"`
	SuggestedSection string    `json:"suggestedSection,omitempty"`

	Analysis *Analysis `json:"analysis,omitempty"`
}

// Key returns the lowercased identity used for deduplication.
func (c *Candidate) Key() string {
	return strings.ToLower(c.FullName)
}

// Analysis holds the optional deep-analysis fields of a candidate.
type Analysis struct {
	Meta           RepoMeta `json:"meta"`
	ReadmeExcerpt  string   `json:"readmeExcerpt,omitempty"`
	Signals        Signals  `json:"readmeSignals"`
	TrustScore     float64  `json:"trustScore"`
	CompatTags     []string `json:"compatTags"`
	Recommendation Tier     `json:"recommendation"`
}

// RepoMeta is extended repository metadata fetched during deep analysis.
type RepoMeta struct {
	Forks          int        `json:"forks"`
	OpenIssues     int        `json:"openIssues"`
	Watchers       int        `json:"watchers"`
	License        string     `json:"license,omitempty"`
	OwnerType      string     `json:"ownerType,omitempty"`
	Contributors   int        `json:"contributors"`
	TopContributor string     `json:"topContributor,omitempty"`
	DefaultBranch  string     `json:"defaultBranch,omitempty"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
}

// Signals are feature flags detected in a candidate's README.
type Signals struct {
	MCPConfig    bool `json:"hasMcpConfig"`
	SkillMd      bool `json:"hasSkillMd"`
	InstallGuide bool `json:"hasInstallGuide"`
	Tests        bool `json:"hasTests"`
	CI           bool `json:"hasCI"`
	Security     bool `json:"hasSecurity"`
	License      bool `json:"hasLicense"`
	LineCount    int  `json:"lineCount"`
}

// IssueType classifies a health issue found on an existing entry.
type IssueType string

// Health issue types.
const (
	IssueArchived IssueType = "archived"
	IssueStale    IssueType = "stale"
	IssueNotFound IssueType = "not_found"
)

// Issue is a problem detected on an existing catalog entry.
type Issue struct {
	Type      IssueType  `json:"type"`
	Owner     string     `json:"owner"`
	Repo      string     `json:"repo"`
	FullName  string     `json:"fullName"`
	SectionID string     `json:"sectionId"`
	Reason    string     `json:"reason"`
	LastPush  *time.Time `json:"lastPush,omitempty"`
}

// Results is one discovery run's output, consumed by the notifier.
type Results struct {
	Timestamp  time.Time    `json:"timestamp"`
	Candidates []*Candidate `json:"candidates"`
	Issues     []Issue      `json:"issues"`
	Stats      Stats        `json:"stats"`
}

// Stats summarizes a discovery run.
type Stats struct {
	TotalExisting           int `json:"totalExisting"`
	TotalCandidatesFiltered int `json:"totalCandidatesFiltered"`
	TotalShown              int `json:"totalShown"`
	TotalIssues             int `json:"totalIssues"`
	Archived                int `json:"archived"`
	Stale                   int `json:"stale"`
	NotFound                int `json:"notFound"`
}

// SplitFullName splits "owner/repo" into its parts.
func SplitFullName(fullName string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || repo == "" {
		return "", "", fmt.Errorf("invalid repository identity %q", fullName)
	}
	return owner, repo, nil
}
