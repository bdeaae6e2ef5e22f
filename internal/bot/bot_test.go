package bot

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"curator/internal/config"
	"curator/internal/gen"
	"curator/internal/ledger"
)

// --- mocks ---

type mockAPI struct {
	mu      sync.Mutex
	answers []string
	edits   []string
}

func (m *mockAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if edit, ok := c.(tgbotapi.EditMessageTextConfig); ok {
		m.mu.Lock()
		m.edits = append(m.edits, edit.Text)
		m.mu.Unlock()
	}
	return tgbotapi.Message{}, nil
}

func (m *mockAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if cb, ok := c.(tgbotapi.CallbackConfig); ok {
		m.mu.Lock()
		m.answers = append(m.answers, cb.Text)
		m.mu.Unlock()
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (m *mockAPI) lastAnswer() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.answers) == 0 {
		return ""
	}
	return m.answers[len(m.answers)-1]
}

type dispatched struct {
	Slug     string
	Workflow string
	Inputs   map[string]any
}

type mockDispatcher struct {
	calls []dispatched
	err   error
}

func (m *mockDispatcher) DispatchWorkflow(_ context.Context, slug, workflowFile string, inputs map[string]any) error {
	m.calls = append(m.calls, dispatched{Slug: slug, Workflow: workflowFile, Inputs: inputs})
	return m.err
}

type mockAudit struct {
	hashes    map[string]string
	decisions []ledger.Decision
}

func (m *mockAudit) ResolveHash(_ context.Context, hash string) (string, error) {
	if name, ok := m.hashes[hash]; ok {
		return name, nil
	}
	return "", ledger.ErrUnknownHash
}

func (m *mockAudit) RecordDecision(_ context.Context, d *ledger.Decision) error {
	m.decisions = append(m.decisions, *d)
	return nil
}

type mockGen struct {
	desc string
	err  error
}

func (m *mockGen) Describe(context.Context, string, string, string) (string, error) {
	return m.desc, m.err
}

func testConfig() *config.Config {
	return &config.Config{
		TelegramBotToken:  "123:token",
		TelegramChatID:    777,
		GitHubRepo:        "curator-org/awesome-web3-claude",
		WorkflowFile:      "update-readme.yml",
		Port:              3847,
		GenerateAuthToken: "sekrit",
	}
}

func newTestServer(api *mockAPI, gh *mockDispatcher, audit *mockAudit) *Server {
	var g *mockGen
	return newTestServerWithGen(api, gh, audit, g)
}

func newTestServerWithGen(api *mockAPI, gh *mockDispatcher, a *mockAudit, g *mockGen) *Server {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	var genIface gen.Generator
	if g != nil {
		genIface = g
	}
	var auditIface audit
	if a != nil {
		auditIface = a
	}
	return NewServer(api, gh, genIface, auditIface, testConfig(), log)
}

func callbackUpdate(fromID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "q1",
			From: &tgbotapi.User{ID: fromID},
			Data: data,
			Message: &tgbotapi.Message{
				MessageID: 55,
				Chat:      &tgbotapi.Chat{ID: 777},
				Text:      "card text",
			},
		},
	}
}

func postUpdate(t *testing.T, s *Server, update tgbotapi.Update) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(update)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/webhook/123:token", strings.NewReader(string(body)))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestAddCallbackDispatchesWorkflow(t *testing.T) {
	api := &mockAPI{}
	gh := &mockDispatcher{}
	audit := &mockAudit{}
	s := newTestServerWithGen(api, gh, audit, &mockGen{desc: "이더리움 잔액 조회 MCP 서버."})

	rec := postUpdate(t, s, callbackUpdate(777, "add:acme/eth-mcp:mcp-onchain-data"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	if len(gh.calls) != 1 {
		t.Fatalf("dispatched %d workflows, want 1", len(gh.calls))
	}
	call := gh.calls[0]
	if call.Slug != "curator-org/awesome-web3-claude" || call.Workflow != "update-readme.yml" {
		t.Errorf("dispatch target wrong: %+v", call)
	}
	wantInputs := map[string]any{
		"action": "add", "owner": "acme", "repo": "eth-mcp",
		"sectionId": "mcp-onchain-data", "descriptionKo": "이더리움 잔액 조회 MCP 서버.",
	}
	for k, v := range wantInputs {
		if call.Inputs[k] != v {
			t.Errorf("input %s = %v, want %v", k, call.Inputs[k], v)
		}
	}

	if api.lastAnswer() != "✅ 추가 요청 전송" {
		t.Errorf("ack = %q", api.lastAnswer())
	}
	if len(api.edits) != 1 || !strings.Contains(api.edits[0], "추가 승인됨") {
		t.Errorf("edits = %v", api.edits)
	}
	if !strings.HasPrefix(api.edits[0], "card text") {
		t.Errorf("edit must preserve the card text: %q", api.edits[0])
	}

	if len(audit.decisions) != 1 || audit.decisions[0].Action != "add" {
		t.Errorf("decisions = %+v", audit.decisions)
	}
}

func TestNonAdminRejected(t *testing.T) {
	api := &mockAPI{}
	gh := &mockDispatcher{}
	s := newTestServer(api, gh, nil)

	postUpdate(t, s, callbackUpdate(999, "add:acme/eth-mcp:mcp-onchain-data"))

	if len(gh.calls) != 0 {
		t.Error("non-admin callback must not dispatch")
	}
	if api.lastAnswer() != "⛔ 권한 없음" {
		t.Errorf("ack = %q", api.lastAnswer())
	}
}

func TestHashResolution(t *testing.T) {
	api := &mockAPI{}
	gh := &mockDispatcher{}
	audit := &mockAudit{hashes: map[string]string{"ab12cd34": "acme/very-long-name"}}
	s := newTestServer(api, gh, audit)

	postUpdate(t, s, callbackUpdate(777, "skip:ab12cd34"))

	if len(gh.calls) != 1 || gh.calls[0].Inputs["repo"] != "very-long-name" {
		t.Fatalf("calls = %+v", gh.calls)
	}
	if api.lastAnswer() != "❌ 스킵됨" {
		t.Errorf("ack = %q", api.lastAnswer())
	}
}

func TestUnresolvedHashFallsBackToManual(t *testing.T) {
	api := &mockAPI{}
	gh := &mockDispatcher{}
	s := newTestServer(api, gh, &mockAudit{})

	postUpdate(t, s, callbackUpdate(777, "add:deadbeef:dev-tools"))

	if len(gh.calls) != 0 {
		t.Error("unresolved hash must not dispatch")
	}
	if api.lastAnswer() != "❌ 해시 참조, 수동 처리 필요" {
		t.Errorf("ack = %q", api.lastAnswer())
	}
}

func TestUnknownAction(t *testing.T) {
	api := &mockAPI{}
	s := newTestServer(api, &mockDispatcher{}, nil)

	postUpdate(t, s, callbackUpdate(777, "frobnicate:acme/repo"))

	if api.lastAnswer() != "❓ 알 수 없는 액션" {
		t.Errorf("ack = %q", api.lastAnswer())
	}
}

func TestMalformedCallbackData(t *testing.T) {
	api := &mockAPI{}
	s := newTestServer(api, &mockDispatcher{}, nil)

	postUpdate(t, s, callbackUpdate(777, "justoneword"))

	if api.lastAnswer() != "❌ 파싱 오류" {
		t.Errorf("ack = %q", api.lastAnswer())
	}
}

func TestDispatchErrorIsEditedAndTruncated(t *testing.T) {
	api := &mockAPI{}
	gh := &mockDispatcher{err: errors.New(strings.Repeat("x", 300))}
	audit := &mockAudit{}
	s := newTestServer(api, gh, audit)

	postUpdate(t, s, callbackUpdate(777, "remove:acme/repo"))

	// The callback is acknowledged before the dispatch runs, so the error
	// surfaces on the card instead.
	if api.lastAnswer() != "🗑 삭제 요청 전송" {
		t.Errorf("ack = %q", api.lastAnswer())
	}
	if len(api.edits) != 1 {
		t.Fatalf("edits = %v", api.edits)
	}
	edit := api.edits[0]
	if !strings.Contains(edit, "❌ 오류: ") || strings.Contains(edit, "삭제 승인됨") {
		t.Errorf("edit = %q", edit)
	}
	detail := edit[strings.Index(edit, "❌ 오류: ")+len("❌ 오류: "):]
	if got := len([]rune(detail)); got > 100 {
		t.Errorf("error detail %d runes, want <= 100", got)
	}
	if len(audit.decisions) != 0 {
		t.Error("failed dispatch must not record a decision")
	}
}

// sequencedGen and sequencedDispatcher snapshot how many callback answers
// had been sent by the time they ran.

type sequencedGen struct {
	api      *mockAPI
	acksSeen int
}

func (g *sequencedGen) Describe(context.Context, string, string, string) (string, error) {
	g.api.mu.Lock()
	g.acksSeen = len(g.api.answers)
	g.api.mu.Unlock()
	return "생성된 설명", nil
}

type sequencedDispatcher struct {
	api      *mockAPI
	acksSeen int
}

func (d *sequencedDispatcher) DispatchWorkflow(context.Context, string, string, map[string]any) error {
	d.api.mu.Lock()
	d.acksSeen = len(d.api.answers)
	d.api.mu.Unlock()
	return nil
}

func TestAddAcknowledgesBeforeGeneration(t *testing.T) {
	api := &mockAPI{}
	g := &sequencedGen{api: api}
	gh := &sequencedDispatcher{api: api}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewServer(api, gh, g, nil, testConfig(), log)

	postUpdate(t, s, callbackUpdate(777, "add:acme/eth-mcp:mcp-onchain-data"))

	if g.acksSeen != 1 {
		t.Errorf("generator ran with %d answers sent, want 1 (ack first)", g.acksSeen)
	}
	if gh.acksSeen != 1 {
		t.Errorf("dispatch ran with %d answers sent, want 1 (ack first)", gh.acksSeen)
	}
	if api.lastAnswer() != "✅ 추가 요청 전송" {
		t.Errorf("ack = %q", api.lastAnswer())
	}
	if len(api.edits) != 1 || !strings.Contains(api.edits[0], "추가 승인됨") {
		t.Errorf("edits = %v", api.edits)
	}
}

func TestNonCallbackUpdateIgnored(t *testing.T) {
	api := &mockAPI{}
	gh := &mockDispatcher{}
	s := newTestServer(api, gh, nil)

	rec := postUpdate(t, s, tgbotapi.Update{Message: &tgbotapi.Message{Text: "hello"}})

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if len(api.answers) != 0 || len(gh.calls) != 0 {
		t.Error("plain messages must be ignored")
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(&mockAPI{}, &mockDispatcher{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Status string  `json:"status"`
		Uptime float64 `json:"uptime"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q", body.Status)
	}
}

func TestGenerateEndpoint(t *testing.T) {
	s := newTestServerWithGen(&mockAPI{}, &mockDispatcher{}, nil, &mockGen{desc: "한 문장 설명."})

	do := func(auth, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(body))
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		return rec
	}

	if rec := do("", `{"owner":"acme","repo":"x"}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("no auth: status = %d", rec.Code)
	}
	if rec := do("Bearer wrong", `{"owner":"acme","repo":"x"}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d", rec.Code)
	}
	if rec := do("Bearer sekrit", `{"owner":"acme"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("missing repo: status = %d", rec.Code)
	}

	rec := do("Bearer sekrit", `{"owner":"acme","repo":"eth-mcp"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["descriptionKo"] != "한 문장 설명." {
		t.Errorf("descriptionKo = %q", resp["descriptionKo"])
	}
}

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data string
		want callbackPayload
		ok   bool
	}{
		{"add:acme/repo:dev-tools", callbackPayload{Action: "add", Identity: "acme/repo", SectionID: "dev-tools"}, true},
		{"skip:acme/repo", callbackPayload{Action: "skip", Identity: "acme/repo"}, true},
		{"add:ab12cd34:dev-tools", callbackPayload{Action: "add", Identity: "ab12cd34", SectionID: "dev-tools", IsHash: true}, true},
		{"keep:DEADBEEF", callbackPayload{Action: "keep", Identity: "DEADBEEF"}, true},
		{"nodata", callbackPayload{}, false},
		{":empty", callbackPayload{}, false},
	}
	for _, tt := range tests {
		got, ok := parseCallback(tt.data)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseCallback(%q) = %+v, %v; want %+v, %v", tt.data, got, ok, tt.want, tt.ok)
		}
	}
}
