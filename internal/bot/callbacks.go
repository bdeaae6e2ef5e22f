package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"curator/internal/ledger"
	"curator/internal/model"
)

func (s *Server) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if q.From == nil || q.From.ID != s.cfg.TelegramChatID {
		from := int64(0)
		if q.From != nil {
			from = q.From.ID
		}
		s.log.Warn("callback from non-admin", "from", from)
		s.answer(q.ID, "⛔ 권한 없음")
		return
	}

	payload, ok := parseCallback(q.Data)
	if !ok {
		s.answer(q.ID, "❌ 파싱 오류")
		return
	}

	fullName := payload.Identity
	if payload.IsHash {
		resolved, err := s.resolveHash(ctx, payload.Identity)
		if err != nil {
			s.log.Warn("hash unresolved", "hash", payload.Identity, "error", err)
			s.answer(q.ID, "❌ 해시 참조, 수동 처리 필요")
			return
		}
		fullName = resolved
	}

	owner, repo, err := model.SplitFullName(fullName)
	if err != nil {
		s.answer(q.ID, "❌ 파싱 오류")
		return
	}

	var chatID int64
	messageID := 0
	cardText := ""
	if q.Message != nil {
		if q.Message.Chat != nil {
			chatID = q.Message.Chat.ID
		}
		messageID = q.Message.MessageID
		cardText = q.Message.Text
	}

	var (
		ack    string
		suffix string
	)
	switch payload.Action {
	case "add":
		ack = "✅ 추가 요청 전송"
		suffix = "\n\n✅ <b>추가 승인됨</b> — workflow 실행 중"
	case "remove":
		ack = "🗑 삭제 요청 전송"
		suffix = "\n\n🗑 <b>삭제 승인됨</b> — workflow 실행 중"
	case "skip":
		ack = "❌ 스킵됨"
		suffix = "\n\n❌ <b>스킵됨</b>"
	case "keep":
		ack = "👍 유지"
		suffix = "\n\n👍 <b>유지됨</b>"
	default:
		s.answer(q.ID, "❓ 알 수 없는 액션")
		return
	}

	// Answer before generation and dispatch: the callback query has a short
	// answer window, and description generation can take most of a minute.
	// Later failures are reported through a message edit instead.
	s.answer(q.ID, ack)

	switch payload.Action {
	case "add":
		desc := s.describe(ctx, owner, repo)
		err = s.dispatch(ctx, "add", owner, repo, payload.SectionID, desc)
	case "remove":
		err = s.dispatch(ctx, "remove", owner, repo, payload.SectionID, "")
	default:
		err = s.dispatch(ctx, payload.Action, owner, repo, "", "")
	}
	if err != nil {
		s.log.Error("callback handling failed", "action", payload.Action, "repo", fullName, "error", err)
		if messageID != 0 {
			s.editMessage(chatID, messageID, cardText+"\n\n"+truncateError(err))
		}
		return
	}

	if messageID != 0 {
		s.editMessage(chatID, messageID, cardText+suffix)
	}
	s.recordDecision(ctx, payload.Action, fullName, payload.SectionID)
	s.log.Info("decision dispatched", "action", payload.Action, "repo", fullName, "section", payload.SectionID)
}

// dispatch triggers the repository update workflow with the decision inputs.
func (s *Server) dispatch(ctx context.Context, action, owner, repo, sectionID, descriptionKo string) error {
	return s.gh.DispatchWorkflow(ctx, s.cfg.GitHubRepo, s.cfg.WorkflowFile, map[string]any{
		"action":        action,
		"owner":         owner,
		"repo":          repo,
		"sectionId":     sectionID,
		"descriptionKo": descriptionKo,
	})
}

// describe asks the generator for a Korean description. Best-effort: any
// problem yields "" and the workflow side falls back to a placeholder.
func (s *Server) describe(ctx context.Context, owner, repo string) string {
	if s.gen == nil {
		return ""
	}
	desc, err := s.gen.Describe(ctx, owner, repo, "")
	if err != nil {
		s.log.Warn("description generation failed", "repo", owner+"/"+repo, "error", err)
		return ""
	}
	return desc
}

func (s *Server) resolveHash(ctx context.Context, hash string) (string, error) {
	if s.audit == nil {
		return "", ledger.ErrUnknownHash
	}
	return s.audit.ResolveHash(ctx, hash)
}

func (s *Server) recordDecision(ctx context.Context, action, fullName, sectionID string) {
	if s.audit == nil {
		return
	}
	d := ledger.Decision{Action: action, FullName: fullName, SectionID: sectionID}
	if err := s.audit.RecordDecision(ctx, &d); err != nil {
		s.log.Warn("record decision failed", "action", action, "repo", fullName, "error", err)
	}
}
