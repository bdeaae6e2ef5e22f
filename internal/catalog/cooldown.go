package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// CooldownRecord marks when an identity was last skipped or kept.
type CooldownRecord struct {
	SkippedAt time.Time `json:"skippedAt"`
}

// Cooldown suppresses re-notification about recently decided identities.
// Keys are lowercased "owner/repo". Records older than the window are pruned
// on load; a record aged exactly the window length is expired.
type Cooldown struct {
	SkippedRepos map[string]CooldownRecord `json:"skippedRepos"`
}

// NewCooldown returns an empty cool-down store.
func NewCooldown() *Cooldown {
	return &Cooldown{SkippedRepos: make(map[string]CooldownRecord)}
}

// LoadCooldown reads the cool-down file and prunes expired records.
// A missing or unreadable file yields an empty store.
func LoadCooldown(path string, window time.Duration, now time.Time) *Cooldown {
	cd := NewCooldown()

	data, err := os.ReadFile(path)
	if err != nil {
		return cd
	}
	var raw Cooldown
	if err := json.Unmarshal(data, &raw); err != nil {
		return cd
	}

	for key, rec := range raw.SkippedRepos {
		if now.Sub(rec.SkippedAt) < window {
			cd.SkippedRepos[strings.ToLower(key)] = rec
		}
	}
	return cd
}

// SaveCooldown writes the cool-down store to path.
func SaveCooldown(path string, cd *Cooldown) error {
	if err := writeJSON(path, cd); err != nil {
		return fmt.Errorf("save cooldown: %w", err)
	}
	return nil
}

// Mark records an identity as decided at the given time.
func (c *Cooldown) Mark(fullName string, now time.Time) {
	c.SkippedRepos[strings.ToLower(fullName)] = CooldownRecord{SkippedAt: now}
}

// Has reports whether the identity is under an active cool-down.
func (c *Cooldown) Has(fullName string) bool {
	_, ok := c.SkippedRepos[strings.ToLower(fullName)]
	return ok
}

// Set returns the lowercased identity set of active records.
func (c *Cooldown) Set() map[string]bool {
	set := make(map[string]bool, len(c.SkippedRepos))
	for key := range c.SkippedRepos {
		set[key] = true
	}
	return set
}
