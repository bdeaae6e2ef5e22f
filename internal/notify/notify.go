// Package notify sends discovery results to the admin chat as structured
// Korean review cards with inline decision buttons.
package notify

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"curator/internal/catalog"
	"curator/internal/ledger"
	"curator/internal/model"
)

// maxCallbackBytes is Telegram's limit on callback_data payloads.
const maxCallbackBytes = 64

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type recorder interface {
	RecordNotification(ctx context.Context, n *ledger.Notification) error
}

// recLabel maps recommendation tiers to their Korean card headers.
var recLabel = map[model.Tier]string{
	model.TierStrongAdd: "🟢 강력 추천",
	model.TierAdd:       "🔵 추천",
	model.TierNeutral:   "🟡 검토 필요",
	model.TierSkip:      "🔴 스킵 권장",
}

// Notifier sends review messages to a single admin chat.
type Notifier struct {
	api     telegramAPI
	rec     recorder
	chatID  int64
	trusted map[string]bool
	log     *slog.Logger

	// Delay between consecutive messages, to stay under Telegram's
	// per-chat rate limit. Zero in tests.
	Delay time.Duration

	now func() time.Time
}

// New creates a Notifier. rec may be nil when no ledger is configured;
// hash-addressed callbacks are then unresolvable until handled manually.
func New(api telegramAPI, rec recorder, chatID int64, trusted map[string]bool, log *slog.Logger) *Notifier {
	return &Notifier{
		api:     api,
		rec:     rec,
		chatID:  chatID,
		trusted: trusted,
		log:     log,
		Delay:   300 * time.Millisecond,
		now:     time.Now,
	}
}

// Run sends the full notification sequence for one discovery run: the
// summary, the candidate cards, and the health issue cards.
func (n *Notifier) Run(ctx context.Context, results *model.Results) error {
	if err := n.sendSummary(ctx, results); err != nil {
		return fmt.Errorf("send summary: %w", err)
	}
	if err := n.notifyCandidates(ctx, results.Candidates); err != nil {
		return fmt.Errorf("notify candidates: %w", err)
	}
	if err := n.notifyIssues(ctx, results.Issues); err != nil {
		return fmt.Errorf("notify issues: %w", err)
	}
	return nil
}

func (n *Notifier) sendSummary(ctx context.Context, results *model.Results) error {
	s := results.Stats
	text := strings.Join([]string{
		fmt.Sprintf("📊 <b>AWC 일일 리포트</b> (%s)", n.now().UTC().Format("2006-01-02")),
		"",
		fmt.Sprintf("📁 현재 엔트리: %d개", s.TotalExisting),
		fmt.Sprintf("🔍 Web3 필터 통과: %d개 (상위 %d개 분석)", s.TotalCandidatesFiltered, len(results.Candidates)),
		fmt.Sprintf("⚠️ 건강 이슈: %d개 (archived: %d, stale: %d, 404: %d)", s.TotalIssues, s.Archived, s.Stale, s.NotFound),
	}, "\n")

	_, err := n.send(ctx, text, nil)
	return err
}

func (n *Notifier) notifyCandidates(ctx context.Context, candidates []*model.Candidate) error {
	if len(candidates) == 0 {
		_, err := n.send(ctx, "✅ 신규 Web3 후보 없음 — 모두 최신 상태입니다.", nil)
		return err
	}

	byTier := map[model.Tier][]*model.Candidate{}
	for _, c := range candidates {
		byTier[tierOf(c)] = append(byTier[tierOf(c)], c)
	}

	header := strings.Join([]string{
		fmt.Sprintf("🔍 <b>신규 후보 %d개 분석 완료</b>", len(candidates)),
		"",
		fmt.Sprintf("🟢 강력 추천: %d개", len(byTier[model.TierStrongAdd])),
		fmt.Sprintf("🔵 추천: %d개", len(byTier[model.TierAdd])),
		fmt.Sprintf("🟡 검토 필요: %d개", len(byTier[model.TierNeutral])),
		fmt.Sprintf("🔴 스킵 권장: %d개", len(byTier[model.TierSkip])),
		"",
		"각 후보의 상세 분석을 확인하고 버튼으로 결정하세요.",
	}, "\n")
	if _, err := n.send(ctx, header, nil); err != nil {
		return err
	}

	// Only the two actionable tiers get decision buttons.
	actionable := append(append([]*model.Candidate{}, byTier[model.TierStrongAdd]...), byTier[model.TierAdd]...)
	for _, c := range actionable {
		addData, addHashed := CallbackData("add", c.FullName, c.SuggestedSection)
		skipData, skipHashed := CallbackData("skip", c.FullName, "")
		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ 추가", addData),
				tgbotapi.NewInlineKeyboardButtonData("❌ 스킵", skipData),
			),
		)

		msg, err := n.send(ctx, n.buildCandidateMessage(c), &keyboard)
		if err != nil {
			return err
		}
		n.record(ctx, c.FullName, "candidate", msg, addHashed || skipHashed)

		if err := n.pause(ctx); err != nil {
			return err
		}
	}

	if neutral := byTier[model.TierNeutral]; len(neutral) > 0 {
		var list []string
		for _, c := range neutral {
			list = append(list, fmt.Sprintf("• <a href=\"%s\">%s</a> (⭐%d) — %s",
				c.URL, c.FullName, c.Stars, escapeHTML(truncRunes(c.Description, 60))))
		}
		text := fmt.Sprintf("🟡 <b>검토 필요 %d개</b> (자동 스킵, 관심 시 수동 추가)\n\n%s",
			len(neutral), strings.Join(list, "\n"))
		if _, err := n.send(ctx, text, nil); err != nil {
			return err
		}
	}

	if skip := byTier[model.TierSkip]; len(skip) > 0 {
		names := make([]string, len(skip))
		for i, c := range skip {
			names[i] = c.FullName
		}
		n.log.Info("auto-skipped candidates", "count", len(skip), "repos", strings.Join(names, ", "))
	}
	return nil
}

func (n *Notifier) notifyIssues(ctx context.Context, issues []model.Issue) error {
	if len(issues) == 0 {
		n.log.Info("no health issues to notify")
		return nil
	}

	header := fmt.Sprintf("⚠️ <b>건강 이슈 %d개 발견</b>\n기존 엔트리 중 문제가 있는 레포를 확인하세요.", len(issues))
	if _, err := n.send(ctx, header, nil); err != nil {
		return err
	}

	for _, issue := range issues {
		emoji := "⏳"
		switch issue.Type {
		case model.IssueNotFound:
			emoji = "🔴"
		case model.IssueArchived:
			emoji = "📦"
		}
		label := catalog.SectionLabels[issue.SectionID]
		if label == "" {
			label = issue.SectionID
		}
		text := strings.Join([]string{
			fmt.Sprintf("%s <b>%s</b>", emoji, issue.FullName),
			fmt.Sprintf("유형: %s | 섹션: %s", issue.Type, label),
			"사유: " + issue.Reason,
		}, "\n")

		keepData, keepHashed := CallbackData("keep", issue.FullName, "")
		removeData, removeHashed := CallbackData("remove", issue.FullName, "")
		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("👍 유지", keepData),
				tgbotapi.NewInlineKeyboardButtonData("🗑 삭제", removeData),
			),
		)

		msg, err := n.send(ctx, text, &keyboard)
		if err != nil {
			return err
		}
		n.record(ctx, issue.FullName, "issue", msg, keepHashed || removeHashed)

		if err := n.pause(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (n *Notifier) send(ctx context.Context, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	if err := ctx.Err(); err != nil {
		return tgbotapi.Message{}, err
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	return n.api.Send(msg)
}

// record stores the sent message in the ledger so hash-addressed callbacks
// can be resolved later. Ledger failures are logged, never fatal.
func (n *Notifier) record(ctx context.Context, fullName, kind string, msg tgbotapi.Message, hashed bool) {
	if n.rec == nil {
		return
	}
	rec := ledger.Notification{
		FullName:  fullName,
		Kind:      kind,
		ChatID:    n.chatID,
		MessageID: msg.MessageID,
	}
	if hashed {
		rec.Hash = HashFor(fullName)
	}
	if err := n.rec.RecordNotification(ctx, &rec); err != nil {
		n.log.Warn("record notification failed", "repo", fullName, "error", err)
	}
}

func (n *Notifier) pause(ctx context.Context) error {
	if n.Delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(n.Delay):
		return nil
	}
}

func (n *Notifier) buildCandidateMessage(c *model.Candidate) string {
	a := c.Analysis
	if a == nil {
		a = &model.Analysis{Recommendation: model.TierNeutral}
	}

	var lines []string
	push := func(ss ...string) { lines = append(lines, ss...) }

	label := recLabel[a.Recommendation]
	if label == "" {
		label = recLabel[model.TierNeutral]
	}
	push(label)
	push(fmt.Sprintf("<b><a href=\"%s\">%s</a></b>", c.URL, c.FullName), "")

	push("<b>📊 기본 정보</b>")
	lang := c.Language
	if lang == "" {
		lang = "N/A"
	}
	push(fmt.Sprintf("⭐ %d | 🍴 %d | 🔤 %s", c.Stars, a.Meta.Forks, lang))
	lastPush := "?"
	if !c.LastPush.IsZero() {
		lastPush = c.LastPush.UTC().Format("2006-01-02")
	}
	push("📅 최근 push: " + lastPush)
	ownerKind := "개인 계정"
	if a.Meta.OwnerType == "Organization" {
		ownerKind = "조직 계정"
	}
	push(fmt.Sprintf("👤 %s | 기여자 %d명", ownerKind, a.Meta.Contributors))
	if a.Meta.License != "" {
		push("📜 라이선스: " + a.Meta.License)
	}
	push("")

	push("<b>📝 설명</b>")
	desc := c.Description
	if desc == "" {
		desc = "No description"
	}
	push(escapeHTML(desc))
	if a.ReadmeExcerpt != "" {
		push("<i>" + escapeHTML(truncRunes(a.ReadmeExcerpt, 250)) + "</i>")
	}
	push("")

	push("<b>🔧 Claude Code 호환</b>")
	compat := strings.Join(a.CompatTags, ", ")
	if compat == "" {
		compat = "미확인"
	}
	push(compat)
	var compatDetails []string
	if a.Signals.MCPConfig {
		compatDetails = append(compatDetails, "✅ MCP 설정 감지")
	}
	if a.Signals.SkillMd {
		compatDetails = append(compatDetails, "✅ SKILL.md 감지")
	}
	if a.Signals.InstallGuide {
		compatDetails = append(compatDetails, "✅ 설치 가이드 있음")
	}
	if !a.Signals.MCPConfig && !a.Signals.SkillMd {
		compatDetails = append(compatDetails, "⚠️ MCP/SKILL.md 미감지")
	}
	if len(compatDetails) > 0 {
		push(strings.Join(compatDetails, " | "))
	}
	push("")

	push(fmt.Sprintf("<b>🛡 신뢰도: %s (%s/5)</b>",
		TrustStars(a.TrustScore), strconv.FormatFloat(a.TrustScore, 'f', -1, 64)))
	var trustDetails []string
	switch {
	case n.trusted[strings.ToLower(c.Owner)]:
		trustDetails = append(trustDetails, "✅ 알려진 조직")
	case a.Meta.OwnerType == "Organization":
		trustDetails = append(trustDetails, "✅ 조직 계정")
	default:
		trustDetails = append(trustDetails, "⚠️ 개인 계정")
	}
	if a.Meta.Contributors <= 1 {
		trustDetails = append(trustDetails, "⚠️ 단독 개발")
	} else {
		trustDetails = append(trustDetails, fmt.Sprintf("✅ %d명 기여", a.Meta.Contributors))
	}
	if a.Signals.Tests {
		trustDetails = append(trustDetails, "✅ 테스트")
	} else {
		trustDetails = append(trustDetails, "⚠️ 테스트 미확인")
	}
	if a.Meta.License != "" {
		trustDetails = append(trustDetails, "✅ "+a.Meta.License)
	} else {
		trustDetails = append(trustDetails, "⚠️ 라이선스 없음")
	}
	push(strings.Join(trustDetails, " | "), "")

	sectionLabel := catalog.SectionLabels[c.SuggestedSection]
	if sectionLabel == "" {
		sectionLabel = c.SuggestedSection
	}
	push(fmt.Sprintf("📂 추천 섹션: <b>%s</b>", sectionLabel))

	return strings.Join(lines, "\n")
}

func tierOf(c *model.Candidate) model.Tier {
	if c.Analysis == nil {
		return model.TierNeutral
	}
	return c.Analysis.Recommendation
}

// CallbackData builds the callback payload "action:owner/repo[:sectionId]".
// When the payload exceeds Telegram's 64-byte limit the repository identity
// is replaced with its hash and the second return is true.
func CallbackData(action, fullName, sectionID string) (string, bool) {
	base := action + ":" + fullName
	if sectionID != "" {
		base += ":" + sectionID
	}
	if len(base) <= maxCallbackBytes {
		return base, false
	}

	hashed := action + ":" + HashFor(fullName)
	if sectionID != "" {
		hashed += ":" + sectionID
	}
	return hashed, true
}

// HashFor returns the short hash that stands in for a repository identity
// in oversized callback payloads.
func HashFor(fullName string) string {
	sum := md5.Sum([]byte(fullName))
	return hex.EncodeToString(sum[:])[:8]
}

// TrustStars renders a 0..5 trust score as ★★★½☆.
func TrustStars(score float64) string {
	full := int(score)
	half := score-float64(full) >= 0.5
	s := strings.Repeat("★", full)
	empty := 5 - full
	if half {
		s += "½"
		empty--
	}
	return s + strings.Repeat("☆", empty)
}

func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	return strings.ReplaceAll(s, ">", "&gt;")
}

func truncRunes(s string, n int) string {
	if runes := []rune(s); len(runes) > n {
		return string(runes[:n])
	}
	return s
}
