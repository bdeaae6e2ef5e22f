// Package migrate parses the two rendered README documents back into a
// catalog. It is the best-effort inverse of package render, used once to
// bootstrap the JSON source of truth.
package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"curator/internal/catalog"
	"curator/internal/gh"
	"curator/internal/model"
)

// SectionMapKo maps Korean heading text to section ids.
var SectionMapKo = map[string]string{
	"스킬 & 플러그인 — 보안 & 감사":      "skills-security",
	"스킬 & 플러그인 — 프로토콜별":       "skills-protocol",
	"스킬 & 플러그인 — 범용 Web3 규칙":  "skills-general",
	"MCP 서버 — 온체인 데이터 & 분석":    "mcp-onchain-data",
	"MCP 서버 — 스마트 컨트랙트 & DeFi": "mcp-smart-contract",
	"스마트 컨트랙트 개발 도구":          "dev-tools",
	"AI 에이전트 프레임워크 — 온체인":     "ai-agents",
	"학습 & 레퍼런스":               "learning",
}

// SectionMapEn maps English heading text to section ids.
var SectionMapEn = map[string]string{
	"Skills & Plugins — Security & Auditing":  "skills-security",
	"Skills & Plugins — Protocol-Specific":    "skills-protocol",
	"Skills & Plugins — General Web3 Rules":   "skills-general",
	"MCP Servers — Onchain Data & Analytics":  "mcp-onchain-data",
	"MCP Servers — Smart Contract & DeFi":     "mcp-smart-contract",
	"Smart Contract Development Tools":        "dev-tools",
	"AI Agent Frameworks — Onchain":           "ai-agents",
	"Learning & Reference":                    "learning",
}

// SectionTitles holds the canonical bilingual titles per section id.
var SectionTitles = map[string]model.Text{
	"skills-security":    {Ko: "스킬 & 플러그인 — 보안 & 감사", En: "Skills & Plugins — Security & Auditing"},
	"skills-protocol":    {Ko: "스킬 & 플러그인 — 프로토콜별", En: "Skills & Plugins — Protocol-Specific"},
	"skills-general":     {Ko: "스킬 & 플러그인 — 범용 Web3 규칙", En: "Skills & Plugins — General Web3 Rules"},
	"mcp-onchain-data":   {Ko: "MCP 서버 — 온체인 데이터 & 분석", En: "MCP Servers — Onchain Data & Analytics"},
	"mcp-smart-contract": {Ko: "MCP 서버 — 스마트 컨트랙트 & DeFi", En: "MCP Servers — Smart Contract & DeFi"},
	"dev-tools":          {Ko: "스마트 컨트랙트 개발 도구", En: "Smart Contract Development Tools"},
	"ai-agents":          {Ko: "AI 에이전트 프레임워크 — 온체인", En: "AI Agent Frameworks — Onchain"},
	"learning":           {Ko: "학습 & 레퍼런스", En: "Learning & Reference"},
}

// sectionDescriptions are the fixed blockquote descriptions some sections carry.
var sectionDescriptions = map[string]model.Text{
	"mcp-onchain-data": {
		Ko: "Claude Code에서 온체인 데이터를 직접 조회할 수 있게 해주는 MCP 서버.",
		En: "MCP servers that let Claude Code query onchain data directly.",
	},
	"mcp-smart-contract": {
		Ko: "스마트 컨트랙트 분석, 디컴파일, DeFi 프로토콜 접근.",
		En: "Smart contract analysis, decompilation, and DeFi protocol access.",
	},
	"dev-tools": {
		Ko: "Claude Code가 Bash를 통해 직접 실행 가능한 핵심 CLI 도구.",
		En: "Core CLI tools directly executable by Claude Code via Bash.",
	},
	"ai-agents": {
		Ko: "온체인 트랜잭션을 자율적으로 실행하는 AI 에이전트 프레임워크.",
		En: "Frameworks for AI agents that autonomously execute onchain transactions.",
	},
	"learning": {
		Ko: "AI 코딩 에이전트를 활용한 Web3 개발 학습 자료.",
		En: "Resources for learning Web3 development with AI coding agents.",
	},
}

const fallbackDate = "2026-01-01"

var (
	headingRe  = regexp.MustCompile(`^## (.+)$`)
	tableSepRe = regexp.MustCompile(`^\|[\s:]*-+`)
	headerRe   = regexp.MustCompile(`^\|\s*(레포지토리|Repository)\s*\|`)
	linkRe     = regexp.MustCompile(`\[([^\]]+)\]\(https://github\.com/([^/]+)/([^)]+)\)`)
	typeRe     = regexp.MustCompile("`(Official|Community)`")
	dateRe     = regexp.MustCompile(`'(\d{2})\.(\d{2})`)
)

// Row is one parsed table row.
type Row struct {
	Owner       string
	Repo        string
	Type        string
	AddedDate   string
	Description string
}

// Key returns the lowercased identity used to join the two documents.
func (r Row) Key() string {
	return strings.ToLower(r.Owner + "/" + r.Repo)
}

// Section is one parsed document section.
type Section struct {
	ID   string
	Rows []Row
}

// ParseReadme scans a document for the known section headings and extracts
// the table rows beneath each. Rows that do not parse are dropped.
func ParseReadme(content string, headings map[string]string) []Section {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	var sections []Section
	current := -1
	inTable := false

	for _, line := range lines {
		if m := headingRe.FindStringSubmatch(line); m != nil {
			heading := strings.TrimSpace(m[1])
			if id, ok := headings[heading]; ok {
				sections = append(sections, Section{ID: id})
				current = len(sections) - 1
			} else {
				current = -1
			}
			inTable = false
			continue
		}

		if current < 0 {
			continue
		}
		if tableSepRe.MatchString(line) {
			inTable = true
			continue
		}
		if headerRe.MatchString(line) {
			inTable = false
			continue
		}
		if inTable && strings.HasPrefix(line, "|") {
			if row, ok := parseRow(line); ok {
				sections[current].Rows = append(sections[current].Rows, row)
			}
		}
	}
	return sections
}

// parseRow extracts one entry from a Markdown table row.
func parseRow(line string) (Row, bool) {
	cells := strings.Split(line, "|")
	if len(cells) < 7 {
		return Row{}, false
	}
	cells = cells[1 : len(cells)-1]
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	if len(cells) < 5 {
		return Row{}, false
	}

	link := linkRe.FindStringSubmatch(cells[0])
	if link == nil {
		return Row{}, false
	}

	kind := "Community"
	if m := typeRe.FindStringSubmatch(cells[2]); m != nil {
		kind = m[1]
	}

	added := fallbackDate
	if m := dateRe.FindStringSubmatch(cells[3]); m != nil {
		added = fmt.Sprintf("20%s-%s-01", m[1], m[2])
	}

	return Row{
		Owner:       link[2],
		Repo:        link[3],
		Type:        kind,
		AddedDate:   added,
		Description: cells[4],
	}, true
}

// Merge joins the two per-language parses into a catalog. Rows are joined
// by owner/repo key within each section; a per-section row-count mismatch
// or a key present in only one document aborts with an explicit error
// rather than misaligning descriptions.
func Merge(ko, en []Section, now time.Time) (*model.Catalog, error) {
	koTotal, enTotal := countRows(ko), countRows(en)
	if koTotal != enTotal {
		return nil, fmt.Errorf("row count mismatch: ko=%d, en=%d", koTotal, enTotal)
	}

	enByID := make(map[string]Section, len(en))
	for _, s := range en {
		enByID[s.ID] = s
	}

	cat := &model.Catalog{}
	for _, koSection := range ko {
		enSection, ok := enByID[koSection.ID]
		if !ok {
			return nil, fmt.Errorf("section %q present only in the Korean document", koSection.ID)
		}
		if len(koSection.Rows) != len(enSection.Rows) {
			return nil, fmt.Errorf("section %q row count mismatch: ko=%d, en=%d",
				koSection.ID, len(koSection.Rows), len(enSection.Rows))
		}

		enByKey := make(map[string]Row, len(enSection.Rows))
		for _, row := range enSection.Rows {
			enByKey[row.Key()] = row
		}

		section := &model.Section{
			ID:    koSection.ID,
			Group: catalog.GroupFor(koSection.ID),
			Title: SectionTitles[koSection.ID],
		}
		if desc, ok := sectionDescriptions[koSection.ID]; ok {
			koDesc, enDesc := desc.Ko, desc.En
			section.Description = model.NullableText{Ko: &koDesc, En: &enDesc}
		}

		for _, koRow := range koSection.Rows {
			enRow, ok := enByKey[koRow.Key()]
			if !ok {
				return nil, fmt.Errorf("section %q: %s present only in the Korean document",
					koSection.ID, koRow.Key())
			}
			section.Repos = append(section.Repos, &model.Entry{
				Owner:     koRow.Owner,
				Repo:      koRow.Repo,
				Type:      koRow.Type,
				AddedDate: koRow.AddedDate,
				Description: model.Text{
					Ko: koRow.Description,
					En: enRow.Description,
				},
				Status: model.StatusActive,
				Health: model.Health{Exists: true},
			})
		}
		cat.Sections = append(cat.Sections, section)
	}

	cat.Metadata = model.Metadata{
		LastUpdated:  now,
		TotalEntries: koTotal,
	}
	return cat, nil
}

// BackfillHealth fetches live metadata for every entry. Failures are logged
// and the entry keeps its zero health record; a 404 clears the exists flag.
func BackfillHealth(ctx context.Context, client gh.Client, cat *model.Catalog, log *slog.Logger) {
	count := 0
	for _, section := range cat.Sections {
		for _, entry := range section.Repos {
			if ctx.Err() != nil {
				return
			}
			repo, err := client.Get(ctx, entry.Owner, entry.Repo)
			count++
			if err != nil {
				if gh.IsNotFound(err) {
					entry.Health.Exists = false
				}
				log.Warn("health backfill failed", "repo", entry.FullName(), "error", err)
				continue
			}
			entry.Health.Stars = repo.Stars
			entry.Health.StarsPrev = repo.Stars
			entry.Health.Archived = repo.Archived
			push := repo.PushedAt
			entry.Health.LastPush = &push
			entry.Health.Exists = true
		}
	}
	log.Info("health backfill done", "fetched", count)
}

func countRows(sections []Section) int {
	n := 0
	for _, s := range sections {
		n += len(s.Rows)
	}
	return n
}
