// Package bot runs the webhook server that receives Telegram callback
// queries and turns admin decisions into repository workflow dispatches.
package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"curator/internal/config"
	"curator/internal/gen"
	"curator/internal/ledger"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type dispatcher interface {
	DispatchWorkflow(ctx context.Context, slug, workflowFile string, inputs map[string]any) error
}

type audit interface {
	ResolveHash(ctx context.Context, hash string) (string, error)
	RecordDecision(ctx context.Context, d *ledger.Decision) error
}

// Server handles Telegram callback updates and the auxiliary HTTP endpoints.
type Server struct {
	api   telegramAPI
	gh    dispatcher
	gen   gen.Generator
	audit audit
	cfg   *config.Config
	log   *slog.Logger
	start time.Time
}

// NewServer creates a webhook server. gen and audit may be nil: without a
// generator add decisions dispatch with an empty description, and without
// an audit ledger hash-addressed callbacks cannot be resolved.
func NewServer(api telegramAPI, gh dispatcher, g gen.Generator, audit audit, cfg *config.Config, log *slog.Logger) *Server {
	return &Server{
		api:   api,
		gh:    gh,
		gen:   g,
		audit: audit,
		cfg:   cfg,
		log:   log,
		start: time.Now(),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook/"+s.cfg.TelegramBotToken, requireMethod(http.MethodPost, s.handleWebhook))
	mux.HandleFunc("/health", requireMethod(http.MethodGet, s.handleHealth))
	mux.HandleFunc("/generate", requireMethod(http.MethodPost, s.handleGenerate))
	return mux
}

// requireMethod emulates Go 1.22+ ServeMux method patterns on older toolchains.
func requireMethod(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("webhook server listening", "port", s.cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	err := json.NewDecoder(r.Body).Decode(&update)

	// Telegram retries on non-200 and on slow responses; acknowledge before
	// handling so a long-running decision is not redelivered mid-flight.
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	if err != nil {
		s.log.Warn("bad webhook payload", "error", err)
		return
	}
	if update.CallbackQuery == nil {
		return
	}
	s.handleCallback(r.Context(), update.CallbackQuery)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).Seconds(),
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if s.cfg.GenerateAuthToken == "" ||
		r.Header.Get("Authorization") != "Bearer "+s.cfg.GenerateAuthToken {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if s.gen == nil {
		http.Error(w, "generation not configured", http.StatusServiceUnavailable)
		return
	}

	var req struct {
		Owner   string `json:"owner"`
		Repo    string `json:"repo"`
		Context string `json:"context"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Owner == "" || req.Repo == "" {
		http.Error(w, "owner and repo are required", http.StatusBadRequest)
		return
	}

	desc, err := s.gen.Describe(r.Context(), req.Owner, req.Repo, req.Context)
	if err != nil {
		http.Error(w, "generation failed", http.StatusInternalServerError)
		return
	}
	if desc == "" {
		http.Error(w, "no description produced", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"descriptionKo": desc})
}

// answer acknowledges a callback query, clearing the client's loading state.
func (s *Server) answer(queryID, text string) {
	if _, err := s.api.Request(tgbotapi.NewCallback(queryID, text)); err != nil {
		s.log.Warn("answer callback failed", "error", err)
	}
}

// editMessage rewrites the card the button belonged to, which also strips
// its inline keyboard.
func (s *Server) editMessage(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = true
	if _, err := s.api.Send(edit); err != nil {
		s.log.Warn("edit message failed", "error", err)
	}
}

func truncateError(err error) string {
	msg := err.Error()
	if runes := []rune(msg); len(runes) > 100 {
		msg = string(runes[:100])
	}
	return "❌ 오류: " + msg
}
