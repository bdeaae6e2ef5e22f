package catalog

// Presentation groups.
const (
	GroupNative     = "claude-code-native"
	GroupCompatible = "compatible-tools"
)

// SectionOrder is the fixed presentation order of catalog sections.
var SectionOrder = []string{
	"skills-security", "skills-protocol", "skills-general",
	"mcp-onchain-data", "mcp-smart-contract",
	"dev-tools", "ai-agents", "learning",
}

// NativeSections are the sections in the "Claude Code Native" group; the
// rest belong to "Compatible Tools".
var NativeSections = map[string]bool{
	"skills-security":    true,
	"skills-protocol":    true,
	"skills-general":     true,
	"mcp-onchain-data":   true,
	"mcp-smart-contract": true,
}

// GroupFor returns the presentation group of a section id.
func GroupFor(id string) string {
	if NativeSections[id] {
		return GroupNative
	}
	return GroupCompatible
}

// SectionLabels maps section ids to their short Korean labels used in
// notification messages.
var SectionLabels = map[string]string{
	"skills-security":    "스킬 — 보안/감사",
	"skills-protocol":    "스킬 — 프로토콜별",
	"skills-general":     "스킬 — 범용 Web3",
	"mcp-onchain-data":   "MCP — 온체인 데이터",
	"mcp-smart-contract": "MCP — 스마트 컨트랙트",
	"dev-tools":          "개발 도구",
	"ai-agents":          "AI 에이전트",
	"learning":           "학습/레퍼런스",
}
