// Package score implements the candidate scoring engine: relevance, trust,
// compatibility tags, and the recommendation tier. All functions are pure
// over already-fetched fields; absent fields count as zero.
package score

import (
	"math"
	"regexp"
	"strings"

	"curator/internal/model"
)

// Config holds the keyword sets and the trusted-organization set used by the
// scoring functions. It is loaded once at process start and passed explicitly;
// there is no package-level mutable state.
type Config struct {
	// DomainKeywords are the Web3 keywords; a candidate matching none of
	// them is irrelevant regardless of everything else.
	DomainKeywords []string
	// ToolingKeywords are the Claude Code / MCP / agent keywords that add
	// extra weight on top of domain hits.
	ToolingKeywords []string
	// ExcludePatterns reject a candidate outright when matched.
	ExcludePatterns []*regexp.Regexp
	// TrustedOrgs maps lowercased organization logins known to the list.
	TrustedOrgs map[string]bool
}

// Default returns the shipped keyword and organization sets.
func Default() Config {
	return Config{
		DomainKeywords: []string{
			"web3", "blockchain", "ethereum", "solana", "solidity",
			"smart contract", "smartcontract", "defi", "nft", "evm",
			"onchain", "on-chain", "dapp", "dex", "token", "wallet",
			"crypto", "cryptocurrency", "layer2", "l2", "rollup",
			"zk-proof", "zkp", "foundry", "hardhat", "vyper", "openzeppelin",
			"erc-20", "erc20", "erc-721", "erc721", "erc-4337",
			"uniswap", "aave", "chainlink", "ipfs", "abi",
			"metamask", "wagmi", "viem", "ethers", "web3.js",
			"bitcoin", "lightning", "staking", "bridge", "cross-chain",
			"cosmos", "polkadot", "avalanche", "arbitrum", "optimism", "base",
			"polygon", "bnb", "binance",
		},
		ToolingKeywords: []string{
			"claude", "claude-code", "mcp", "model context protocol",
			"skill.md", "skills", "ai agent", "ai-agent", "llm",
			"copilot", "codex", "coding agent",
		},
		ExcludePatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)badge`),
			regexp.MustCompile(`(?i)readme.*profile`),
			regexp.MustCompile(`(?i)free-for-dev`),
			regexp.MustCompile(`(?i)awesome-rust$`),
			regexp.MustCompile(`(?i)awesome-python$`),
			regexp.MustCompile(`(?i)awesome-go$`),
			regexp.MustCompile(`(?i)chatgpt.*repositor`),
			regexp.MustCompile(`(?i)scraping`),
			regexp.MustCompile(`(?i)markdown-badge`),
		},
		TrustedOrgs: toSet([]string{
			"trailofbits", "openzeppelin", "foundry-rs", "crytic", "consensys",
			"uniswap", "aave", "chainlink", "solana-foundation", "coinbase",
			"alchemyplatform", "thirdweb-dev", "cyfrin", "a16z",
			"moralisweb3", "bankless", "getalby", "debridge-finance",
			"noditlabs", "heurist-network", "trustwallet", "goat-sdk",
			"scaffold-eth", "elizaos", "sendaifun",
		}),
	}
}

// Relevance scores a candidate's domain relevance over its description,
// topics, and full name. Returns -1 when an exclusion pattern matches,
// 0 when no domain keyword matches, otherwise a value in [10, 100].
func (c Config) Relevance(cand *model.Candidate) int {
	text := strings.ToLower(cand.Description + " " + strings.Join(cand.Topics, " ") + " " + cand.FullName)

	for _, pat := range c.ExcludePatterns {
		if pat.MatchString(text) || pat.MatchString(cand.FullName) {
			return -1
		}
	}

	domainHits := 0
	toolingHits := 0
	for _, kw := range c.DomainKeywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			domainHits++
		}
	}
	for _, kw := range c.ToolingKeywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			toolingHits++
		}
	}

	if domainHits == 0 {
		return 0
	}
	return min(100, domainHits*10+toolingHits*15)
}

// Trust computes a candidate's trust score in [0, 5] at half-point
// granularity, summing fixed-weight signals from the deep-analysis pass.
// A candidate without analysis data scores 0.
func (c Config) Trust(cand *model.Candidate) float64 {
	if cand.Analysis == nil {
		return 0
	}
	m := cand.Analysis.Meta
	s := cand.Analysis.Signals

	var score float64
	if m.OwnerType == "Organization" {
		score++
	}
	if c.TrustedOrgs[strings.ToLower(cand.Owner)] {
		score++
	}
	if m.License != "" && m.License != "NOASSERTION" {
		score++
	}
	if m.Contributors >= 2 {
		score += 0.5
	}
	if cand.Stars >= 50 {
		score += 0.5
	}
	if s.Tests || s.CI {
		score += 0.5
	}
	if s.InstallGuide {
		score += 0.5
	}

	return math.Min(5, math.Round(score*2)/2)
}

// Compatibility tag labels.
const (
	TagMCPServer  = "MCP 서버"
	TagSkillMd    = "SKILL.md"
	TagClaudeCode = "Claude Code 전용"
	TagCLI        = "CLI 실행"
	TagSDK        = "SDK/라이브러리"
	TagMCPCapable = "MCP 호환 가능"
	TagIndirect   = "간접 활용"
)

// CompatTags derives the compatibility tag set from README signals and the
// candidate's description and topics. At least one tag is always returned.
func CompatTags(cand *model.Candidate) []string {
	var sig model.Signals
	if cand.Analysis != nil {
		sig = cand.Analysis.Signals
	}
	text := strings.ToLower(cand.Description + " " + strings.Join(cand.Topics, " "))

	var tags []string
	if sig.MCPConfig {
		tags = append(tags, TagMCPServer)
	}
	if sig.SkillMd {
		tags = append(tags, TagSkillMd)
	}
	if strings.Contains(text, "claude-code") || strings.Contains(text, "claude code") {
		tags = append(tags, TagClaudeCode)
	}
	if strings.Contains(text, "cli") || strings.Contains(text, "command") {
		tags = append(tags, TagCLI)
	}
	if strings.Contains(text, "sdk") || strings.Contains(text, "library") {
		tags = append(tags, TagSDK)
	}

	if len(tags) == 0 {
		if strings.Contains(text, "mcp") {
			tags = append(tags, TagMCPCapable)
		} else {
			tags = append(tags, TagIndirect)
		}
	}
	return tags
}

// Recommend maps (trust, compatibility tags, stars) to a recommendation
// tier. Rules are checked top to bottom; the first match wins.
func Recommend(trust float64, compatTags []string, stars int) model.Tier {
	direct := false
	any := false
	for _, tag := range compatTags {
		if strings.Contains(tag, TagMCPServer) || strings.Contains(tag, "SKILL") || strings.Contains(tag, "Claude Code") {
			direct = true
		}
		if strings.Contains(tag, "MCP") || strings.Contains(tag, "SKILL") || strings.Contains(tag, "Claude Code") {
			any = true
		}
	}

	switch {
	case trust >= 4 && direct && stars >= 30:
		return model.TierStrongAdd
	case trust >= 3 && direct && stars >= 15:
		return model.TierAdd
	case trust >= 2 && any:
		return model.TierNeutral
	default:
		return model.TierSkip
	}
}

// DefaultSection is suggested when no section rule matches.
const DefaultSection = "mcp-onchain-data"

// SuggestSection picks a target catalog section for a candidate via ordered
// keyword rules over its description and topics. First match wins.
func SuggestSection(cand *model.Candidate) string {
	text := strings.ToLower(cand.Description + " " + strings.Join(cand.Topics, " "))

	has := func(kws ...string) bool {
		for _, kw := range kws {
			if strings.Contains(text, kw) {
				return true
			}
		}
		return false
	}

	switch {
	case has("skill", "plugin"):
		if has("security", "audit") {
			return "skills-security"
		}
		if has("uniswap", "aave", "protocol") {
			return "skills-protocol"
		}
		return "skills-general"
	case has("mcp", "model context protocol"):
		if has("defi", "contract", "swap") {
			return "mcp-smart-contract"
		}
		return "mcp-onchain-data"
	case has("agent") && has("onchain", "wallet", "transaction"):
		return "ai-agents"
	case has("foundry", "hardhat", "solidity", "slither"):
		return "dev-tools"
	case has("learn", "tutorial", "course", "awesome"):
		return "learning"
	default:
		return DefaultSection
	}
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[strings.ToLower(it)] = true
	}
	return set
}
