// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds the application configuration. Load populates every field;
// each command validates the subset it needs via the Require* methods so a
// missing value aborts the process before any work is done.
type Config struct {
	TelegramBotToken string
	TelegramChatID   int64
	GitHubToken      string
	// GitHubRepo is the "owner/name" slug of the repository whose
	// update workflow the webhook dispatches.
	GitHubRepo   string
	WorkflowFile string

	DataDir    string
	LedgerPath string
	LogLevel   string
	Port       int

	CooldownDays      int
	MinRelevance      int
	MinStars          int
	MaxStaleMonths    int
	HealthStaleMonths int
	TopN              int

	GenerateAuthToken string
	ClaudeBin         string
	GenerateTimeout   time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		TelegramBotToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		GitHubToken:       os.Getenv("GITHUB_TOKEN"),
		GitHubRepo:        os.Getenv("GITHUB_REPO"),
		WorkflowFile:      envOr("WORKFLOW_FILE", "update-readme.yml"),
		DataDir:           envOr("DATA_DIR", "./data"),
		LogLevel:          envOr("LOG_LEVEL", "info"),
		GenerateAuthToken: os.Getenv("GENERATE_AUTH_TOKEN"),
		ClaudeBin:         envOr("CLAUDE_BIN", "claude"),
	}
	cfg.LedgerPath = envOr("LEDGER_PATH", filepath.Join(cfg.DataDir, "ledger.db"))

	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", raw, err)
		}
		cfg.TelegramChatID = id
	}

	var err error
	if cfg.Port, err = envInt("PORT", 3847); err != nil {
		return nil, err
	}
	if cfg.CooldownDays, err = envInt("COOLDOWN_DAYS", 7); err != nil {
		return nil, err
	}
	if cfg.MinRelevance, err = envInt("MIN_RELEVANCE", 20); err != nil {
		return nil, err
	}
	if cfg.MinStars, err = envInt("MIN_STARS", 5); err != nil {
		return nil, err
	}
	if cfg.MaxStaleMonths, err = envInt("MAX_STALE_MONTHS", 3); err != nil {
		return nil, err
	}
	if cfg.HealthStaleMonths, err = envInt("HEALTH_STALE_MONTHS", 6); err != nil {
		return nil, err
	}
	if cfg.TopN, err = envInt("TOP_CANDIDATES", 10); err != nil {
		return nil, err
	}

	genSecs, err := envInt("GENERATE_TIMEOUT_SECONDS", 120)
	if err != nil {
		return nil, err
	}
	cfg.GenerateTimeout = time.Duration(genSecs) * time.Second

	return cfg, nil
}

// RequireGitHub validates the values needed to talk to the GitHub API.
func (c *Config) RequireGitHub() error {
	if c.GitHubToken == "" {
		return fmt.Errorf("GITHUB_TOKEN is required")
	}
	return nil
}

// RequireTelegram validates the values needed to send notifications.
func (c *Config) RequireTelegram() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if c.TelegramChatID == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required")
	}
	return nil
}

// RequireWebhook validates the values needed to run the webhook server.
func (c *Config) RequireWebhook() error {
	if err := c.RequireTelegram(); err != nil {
		return err
	}
	if err := c.RequireGitHub(); err != nil {
		return err
	}
	if c.GitHubRepo == "" {
		return fmt.Errorf("GITHUB_REPO is required")
	}
	return nil
}

// CooldownWindow returns the cool-down duration for skip/keep records.
func (c *Config) CooldownWindow() time.Duration {
	return time.Duration(c.CooldownDays) * 24 * time.Hour
}

// CatalogPath is the location of the catalog JSON file.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.DataDir, "repos.json")
}

// CooldownPath is the location of the skip/keep cool-down file.
func (c *Config) CooldownPath() string {
	return filepath.Join(c.DataDir, "skipped.json")
}

// ResultsPath is the location of the discovery results file.
func (c *Config) ResultsPath() string {
	return filepath.Join(c.DataDir, "discover-results.json")
}

// ReadmePath returns the rendered document path for a language.
func (c *Config) ReadmePath(lang string) string {
	if lang == "en" {
		return "README_EN.md"
	}
	return "README.md"
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}
