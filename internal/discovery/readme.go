package discovery

import (
	"regexp"
	"strings"

	"curator/internal/model"
)

const excerptMaxRunes = 400

var (
	htmlTagRe  = regexp.MustCompile(`^<[a-z]`)
	asciiArtRe = regexp.MustCompile(`^[═╔║╚█▓░┌│└─┐┘]`)
	markupRe   = regexp.MustCompile("[*_`>]")

	mcpRe      = regexp.MustCompile(`mcp|model.context.protocol`)
	skillRe    = regexp.MustCompile(`skill\.md`)
	installRe  = regexp.MustCompile(`install|npm install|pip install|cargo install|getting started`)
	testsRe    = regexp.MustCompile(`test|jest|mocha|vitest|pytest`)
	ciRe       = regexp.MustCompile(`github.actions|\.github/workflows|ci/cd`)
	securityRe = regexp.MustCompile(`security|audit|vulnerability|slither|mythril`)
	licenseRe  = regexp.MustCompile(`license|mit|apache|gpl|isc|bsd`)
)

// Excerpt extracts the first meaningful text paragraph from README content:
// headings, badges, images, raw HTML, horizontal rules, ASCII art, and code
// fences are skipped, markdown markup characters are stripped, and the
// result is capped at 400 characters.
func Excerpt(content string) string {
	var collected []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if len(collected) > 0 {
				break
			}
			continue
		}
		switch {
		case strings.HasPrefix(trimmed, "#"),
			strings.HasPrefix(trimmed, "[!["),
			strings.HasPrefix(trimmed, "!["),
			strings.HasPrefix(trimmed, "---"),
			strings.HasPrefix(trimmed, "```"),
			htmlTagRe.MatchString(trimmed),
			asciiArtRe.MatchString(trimmed):
			continue
		}
		collected = append(collected, trimmed)
		if len(collected) >= 4 {
			break
		}
	}

	excerpt := markupRe.ReplaceAllString(strings.Join(collected, " "), "")
	if runes := []rune(excerpt); len(runes) > excerptMaxRunes {
		excerpt = string(runes[:excerptMaxRunes])
	}
	return excerpt
}

// DetectSignals scans the full README text for feature signals.
func DetectSignals(content string) model.Signals {
	lower := strings.ToLower(content)
	return model.Signals{
		MCPConfig:    mcpRe.MatchString(lower),
		SkillMd:      skillRe.MatchString(lower),
		InstallGuide: installRe.MatchString(lower),
		Tests:        testsRe.MatchString(lower),
		CI:           ciRe.MatchString(lower),
		Security:     securityRe.MatchString(lower),
		License:      licenseRe.MatchString(lower),
		LineCount:    strings.Count(content, "\n") + 1,
	}
}
