package discovery

import (
	"strings"
	"testing"

	"curator/internal/model"

	"github.com/google/go-cmp/cmp"
)

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "plain paragraph",
			content: "# Title\n\nAn MCP server for Ethereum.\nWorks with Claude Code.\n\nSecond paragraph ignored.\n",
			want:    "An MCP server for Ethereum. Works with Claude Code.",
		},
		{
			name:    "badges and images skipped",
			content: "[![CI](badge.svg)](ci)\n![logo](logo.png)\n\nActual description here.\n",
			want:    "Actual description here.",
		},
		{
			name:    "html and ascii art skipped",
			content: "<div align=\"center\">\n═══════\n\nReal text.\n",
			want:    "Real text.",
		},
		{
			name:    "markup characters stripped",
			content: "A *bold* `code` _thing_.\n",
			want:    "A bold code thing.",
		},
		{
			name:    "empty readme",
			content: "# Only a heading\n",
			want:    "",
		},
		{
			name:    "paragraph collection stops at blank line",
			content: "line one\nline two\n\nline three\n",
			want:    "line one line two",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Excerpt(tt.content); got != tt.want {
				t.Errorf("Excerpt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExcerptCap(t *testing.T) {
	long := strings.Repeat("word ", 200)
	got := Excerpt(long + "\n")
	if n := len([]rune(got)); n > excerptMaxRunes {
		t.Errorf("excerpt length %d exceeds cap", n)
	}
}

func TestDetectSignals(t *testing.T) {
	content := strings.Join([]string{
		"# Repo",
		"An MCP server with a SKILL.md manifest.",
		"## Install",
		"npm install",
		"Run tests via .github/workflows CI.",
		"Security audit by slither.",
		"MIT License.",
	}, "\n")

	got := DetectSignals(content)
	want := model.Signals{
		MCPConfig:    true,
		SkillMd:      true,
		InstallGuide: true,
		Tests:        true,
		CI:           true,
		Security:     true,
		License:      true,
		LineCount:    7,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("signals mismatch (-want +got):\n%s", diff)
	}

	none := DetectSignals("just a plain readme about cooking")
	if none.MCPConfig || none.SkillMd || none.CI {
		t.Errorf("unexpected signals: %+v", none)
	}
}
