package render

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"curator/internal/model"
)

func testCatalog() *model.Catalog {
	koDesc := "Claude Code에서 온체인 데이터를 직접 조회할 수 있게 해주는 MCP 서버."
	enDesc := "MCP servers that let Claude Code query onchain data directly."
	return &model.Catalog{
		Metadata: model.Metadata{
			LastUpdated:  time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			TotalEntries: 2,
		},
		Sections: []*model.Section{
			{
				ID:          "mcp-onchain-data",
				Group:       "claude-code-native",
				Title:       model.Text{Ko: "MCP 서버 — 온체인 데이터 & 분석", En: "MCP Servers — Onchain Data & Analytics"},
				Description: model.NullableText{Ko: &koDesc, En: &enDesc},
				Repos: []*model.Entry{
					{
						Owner:       "acme",
						Repo:        "eth-mcp",
						Type:        "Community",
						AddedDate:   "2026-02-01",
						Description: model.Text{Ko: "이더리움 온체인 조회", En: "Ethereum onchain queries"},
						Status:      model.StatusActive,
					},
				},
			},
			{
				ID:    "dev-tools",
				Group: "compatible-tools",
				Title: model.Text{Ko: "스마트 컨트랙트 개발 도구", En: "Smart Contract Development Tools"},
				Repos: []*model.Entry{
					{
						Owner:       "foundry-rs",
						Repo:        "foundry",
						Type:        "Official",
						AddedDate:   "2026-01-15",
						Description: model.Text{Ko: "포지 기반 테스트", En: "Forge-based testing"},
						Status:      model.StatusActive,
					},
				},
			},
		},
	}
}

func TestRenderIdempotent(t *testing.T) {
	cat := testCatalog()
	for _, lang := range []string{model.LangKo, model.LangEn} {
		first := Render(cat, lang)
		second := Render(cat, lang)
		if first != second {
			t.Errorf("lang %s: rendering twice produced different output", lang)
		}
	}
}

func TestRenderStructure(t *testing.T) {
	out := Render(testCatalog(), model.LangEn)

	for _, want := range []string{
		"# Awesome Web3 Claude Code",
		"## Contents",
		"# Claude Code Native",
		"# Compatible Tools",
		"## MCP Servers — Onchain Data & Analytics",
		"> MCP servers that let Claude Code query onchain data directly.",
		"| Repository | Stars | Type | Last Updated | Description |",
		"| [acme/eth-mcp](https://github.com/acme/eth-mcp) | ![](https://img.shields.io/github/stars/acme/eth-mcp?style=flat-square&logo=github) | `Community` | '26.02 | Ethereum onchain queries |",
		"## License",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in rendered output", want)
		}
	}

	if !strings.HasSuffix(out, "\n") {
		t.Error("document must end with a newline")
	}

	// Native group must precede compatible group.
	if strings.Index(out, "# Claude Code Native") > strings.Index(out, "# Compatible Tools") {
		t.Error("group order wrong")
	}
}

func TestRenderKoreanDescriptions(t *testing.T) {
	out := Render(testCatalog(), model.LangKo)

	if !strings.Contains(out, "이더리움 온체인 조회") {
		t.Error("Korean entry description missing")
	}
	if !strings.Contains(out, "| 레포지토리 | 스타 | 유형 | 마지막 업데이트 | 설명 |") {
		t.Error("Korean table header missing")
	}
	if strings.Contains(out, "Ethereum onchain queries") {
		t.Error("English description leaked into Korean document")
	}
}

func TestAnchor(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"MCP Servers — Onchain Data & Analytics", "mcp-servers--onchain-data--analytics"},
		{"Smart Contract Development Tools", "smart-contract-development-tools"},
		{"MCP 서버 — 온체인 데이터 & 분석", "mcp-서버--온체인-데이터--분석"},
		{"Learning & Reference", "learning--reference"},
	}
	for _, tt := range tests {
		if got := Anchor(tt.title); got != tt.want {
			t.Errorf("Anchor(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2026-02-01", "'26.02"},
		{"2025-11-30", "'25.11"},
		{"", "'26.01"},
		{"garbage", "'26.01"},
	}
	for _, tt := range tests {
		if got := FormatDate(tt.in); got != tt.want {
			t.Errorf("FormatDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestVerify(t *testing.T) {
	gen := "a\nb\nc\n"
	same, reported := Verify(gen, "a\nb\nc\n")
	if same != 0 || len(reported) != 0 {
		t.Fatalf("identical documents: diffs=%d reported=%d", same, len(reported))
	}

	count, reported := Verify(gen, "a\nX\nc\nextra\n")
	if count != 2 {
		t.Errorf("diff count = %d, want 2", count)
	}
	want := []LineDiff{
		{Line: 2, Orig: "X", Gen: "b"},
		{Line: 4, Orig: "extra", Gen: ""},
	}
	if diff := cmp.Diff(want, reported); diff != "" {
		t.Errorf("reported diffs mismatch (-want +got):\n%s", diff)
	}

	// CRLF originals are normalized before comparison.
	if count, _ := Verify(gen, "a\r\nb\r\nc\r\n"); count != 0 {
		t.Errorf("CRLF normalization failed, count = %d", count)
	}
}
