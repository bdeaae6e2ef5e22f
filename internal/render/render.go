// Package render turns the catalog into the two README documents. Rendering
// is a pure function of the catalog and the language; rendering twice from
// the same input yields byte-identical output.
package render

import (
	"fmt"
	"regexp"
	"strings"

	"curator/internal/catalog"
	"curator/internal/model"
)

var groupHeader = map[string]model.Text{
	"native": {
		Ko: "> Claude Code 전용 — Skills (SKILL.md), MCP 서버, Claude Code 설정 등 직접 통합되는 도구.",
		En: "> Built for Claude Code — Skills (SKILL.md), MCP servers, and Claude Code configurations that integrate directly.",
	},
	"compatible": {
		Ko: "> Claude Code와 함께 쓸 때 시너지가 높은 범용 Web3 도구 — CLI 실행 가능, 에이전트 친화적, 또는 개발 컨텍스트로 유용.",
		En: "> General-purpose Web3 tools that work well with Claude Code — CLI-executable, agent-friendly, or useful as development context.",
	},
}

var tableHeader = model.Text{
	Ko: "| 레포지토리 | 스타 | 유형 | 마지막 업데이트 | 설명 |",
	En: "| Repository | Stars | Type | Last Updated | Description |",
}

const tableSep = "|:-----------|------:|:----:|:---:|:------------|"

// anchorStripRe removes everything GitHub drops when building a heading
// anchor: anything outside word characters, whitespace, hyphens, and the
// Korean syllable block.
var anchorStripRe = regexp.MustCompile(`[^\w\s가-힣-]`)

// Anchor computes the GitHub heading anchor for a section title.
func Anchor(title string) string {
	a := strings.ToLower(title)
	a = anchorStripRe.ReplaceAllString(a, "")
	return strings.ReplaceAll(a, " ", "-")
}

// FormatDate compacts an ISO "2006-01-02" date into the 'YY.MM form.
// Unparseable input falls back to '26.01.
func FormatDate(dateStr string) string {
	parts := strings.Split(dateStr, "-")
	if len(parts) < 2 || len(parts[0]) != 4 {
		return "'26.01"
	}
	return "'" + parts[0][2:] + "." + parts[1]
}

// Row renders one entry as a Markdown table row.
func Row(e *model.Entry, lang string) string {
	fullName := e.FullName()
	link := fmt.Sprintf("[%s](https://github.com/%s)", fullName, fullName)
	stars := fmt.Sprintf("![](https://img.shields.io/github/stars/%s?style=flat-square&logo=github)", fullName)
	return fmt.Sprintf("| %s | %s | `%s` | %s | %s |", link, stars, e.Type, FormatDate(e.AddedDate), e.Description.Get(lang))
}

// Render produces the complete Markdown document for a language.
func Render(cat *model.Catalog, lang string) string {
	var lines []string
	push := func(ss ...string) { lines = append(lines, ss...) }

	push("<div align=\"center\">", "")
	push("# Awesome Web3 Claude Code", "")
	push("[![Awesome](https://awesome.re/badge.svg)](https://awesome.re)", "")
	if lang == model.LangKo {
		push("**Claude Code** 및 기타 AI 코딩 에이전트를 활용한 **Web3 개발**을 위한 MCP 서버, AI 에이전트 프레임워크, 스킬, 개발 도구 큐레이션 목록.")
		push("")
		push("이 분야는 초기 단계입니다 — 스타 수보다 기능성과 공식 지원 여부를 기준으로 선정합니다.")
	} else {
		push("Curated list of MCP servers, AI agent frameworks, skills, and dev tools for **Web3 development with Claude Code** and other AI coding agents.")
		push("")
		push("This space is early-stage — entries are selected for functionality and official backing over star count.")
	}
	push("", "</div>", "")

	native, compat := splitGroups(cat)

	if lang == model.LangKo {
		push("## 목차", "")
		push("**Claude Code Native** — Claude Code 전용으로 제작된 것 (Skills, MCP, 설정)")
	} else {
		push("## Contents", "")
		push("**Claude Code Native** — built specifically for Claude Code (Skills, MCP, config)")
	}
	push("")
	for _, section := range native {
		title := section.Title.Get(lang)
		push(fmt.Sprintf("- [%s](#%s)", title, Anchor(title)))
	}
	push("")

	if lang == model.LangKo {
		push("**Compatible Tools** — Claude Code와 시너지가 높은 범용 도구")
	} else {
		push("**Compatible Tools** — general-purpose tools with strong Claude Code synergy")
	}
	push("")
	for _, section := range compat {
		title := section.Title.Get(lang)
		push(fmt.Sprintf("- [%s](#%s)", title, Anchor(title)))
	}
	push("", "---", "")

	push("# Claude Code Native", "")
	push(groupHeader["native"].Get(lang), "")
	renderSections(&lines, native, lang)

	push("---", "")

	push("# Compatible Tools", "")
	push(groupHeader["compatible"].Get(lang), "")
	renderSections(&lines, compat, lang)

	push("---", "")

	if lang == model.LangKo {
		push("## 기여", "")
		push("빠진 레포를 찾으셨나요? 이슈를 열거나 PR을 제출해 주세요!", "")
		push("## 라이선스", "")
		push("[CC0 1.0 Universal](https://creativecommons.org/publicdomain/zero/1.0/)")
	} else {
		push("## Contributing", "")
		push("Found a missing repo? Open an issue or submit a PR!", "")
		push("## License", "")
		push("[CC0 1.0 Universal](https://creativecommons.org/publicdomain/zero/1.0/)")
	}
	push("")

	return strings.Join(lines, "\n")
}

func renderSections(lines *[]string, sections []*model.Section, lang string) {
	push := func(ss ...string) { *lines = append(*lines, ss...) }

	for _, section := range sections {
		push("## "+section.Title.Get(lang), "")
		if desc := section.Description.Get(lang); desc != "" {
			push("> "+desc, "")
		}
		push(tableHeader.Get(lang))
		push(tableSep)
		for _, repo := range section.Repos {
			push(Row(repo, lang))
		}
		push("")
	}
}

// splitGroups returns the catalog's sections in fixed presentation order,
// split into the native and compatible groups. Sections absent from the
// catalog are skipped.
func splitGroups(cat *model.Catalog) (native, compat []*model.Section) {
	for _, id := range catalog.SectionOrder {
		section := catalog.FindSection(cat, id)
		if section == nil {
			continue
		}
		if catalog.NativeSections[id] {
			native = append(native, section)
		} else {
			compat = append(compat, section)
		}
	}
	return native, compat
}
