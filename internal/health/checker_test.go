package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"curator/internal/gh"
	"curator/internal/model"
)

type fakeClient struct {
	repos map[string]*gh.Repo
	errs  map[string]error
	calls []string
}

func (f *fakeClient) Get(_ context.Context, owner, repo string) (*gh.Repo, error) {
	key := owner + "/" + repo
	f.calls = append(f.calls, key)
	if err := f.errs[key]; err != nil {
		return nil, err
	}
	if r, ok := f.repos[key]; ok {
		return r, nil
	}
	return nil, gh.ErrNotFound
}

func (f *fakeClient) Search(context.Context, string, int) ([]gh.Repo, error) {
	return nil, nil
}

func (f *fakeClient) Contributors(context.Context, string, string) (int, string, error) {
	return 0, "", nil
}

func (f *fakeClient) Readme(context.Context, string, string) (string, error) {
	return "", nil
}

func (f *fakeClient) DispatchWorkflow(context.Context, string, string, map[string]any) error {
	return nil
}

func testCatalog(entries ...*model.Entry) *model.Catalog {
	return &model.Catalog{
		Sections: []*model.Section{
			{ID: "dev-tools", Repos: entries},
		},
	}
}

func entry(owner, repo string, stars int) *model.Entry {
	return &model.Entry{
		Owner:  owner,
		Repo:   repo,
		Status: model.StatusActive,
		Health: model.Health{Stars: stars, StarsPrev: stars - 1, Exists: true},
	}
}

func newChecker(client gh.Client) *Checker {
	c := New(client, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.now = func() time.Time { return time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC) }
	return c
}

func TestCheckHealthy(t *testing.T) {
	e := entry("acme", "tool", 40)
	client := &fakeClient{
		repos: map[string]*gh.Repo{
			"acme/tool": {Stars: 45, PushedAt: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)},
		},
	}

	issues := newChecker(client).Check(context.Background(), testCatalog(e), nil)

	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
	if e.Status != model.StatusActive {
		t.Errorf("status = %q, want active", e.Status)
	}
	// Current stars shift to starsPrev before the update.
	if e.Health.StarsPrev != 40 || e.Health.Stars != 45 {
		t.Errorf("stars %d/prev %d, want 45/40", e.Health.Stars, e.Health.StarsPrev)
	}
	if e.Health.LastPush == nil || !e.Health.LastPush.Equal(time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("lastPush = %v", e.Health.LastPush)
	}
}

func TestCheckNotFound(t *testing.T) {
	e := entry("ghost", "gone", 10)
	client := &fakeClient{}

	issues := newChecker(client).Check(context.Background(), testCatalog(e), nil)

	if e.Status != model.StatusFlagged {
		t.Errorf("status = %q, want flagged", e.Status)
	}
	if e.Health.Exists {
		t.Error("exists should be false after a 404")
	}
	want := []model.Issue{{
		Type: model.IssueNotFound, Owner: "ghost", Repo: "gone",
		FullName: "ghost/gone", SectionID: "dev-tools",
		Reason: "Repository not found (404)",
	}}
	if diff := cmp.Diff(want, issues); diff != "" {
		t.Errorf("issues mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckArchived(t *testing.T) {
	e := entry("acme", "dusty", 10)
	client := &fakeClient{
		repos: map[string]*gh.Repo{
			"acme/dusty": {Stars: 10, Archived: true, PushedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
	}

	issues := newChecker(client).Check(context.Background(), testCatalog(e), nil)

	if e.Status != model.StatusFlagged {
		t.Errorf("status = %q, want flagged", e.Status)
	}
	if len(issues) != 1 || issues[0].Type != model.IssueArchived {
		t.Fatalf("issues = %v", issues)
	}
}

func TestCheckStale(t *testing.T) {
	e := entry("acme", "sleepy", 10)
	client := &fakeClient{
		repos: map[string]*gh.Repo{
			"acme/sleepy": {Stars: 10, PushedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
		},
	}

	issues := newChecker(client).Check(context.Background(), testCatalog(e), nil)

	if e.Status != model.StatusStale {
		t.Errorf("status = %q, want stale", e.Status)
	}
	if len(issues) != 1 || issues[0].Type != model.IssueStale {
		t.Fatalf("issues = %v", issues)
	}
	if issues[0].Reason != "No push for 8 months" {
		t.Errorf("reason = %q", issues[0].Reason)
	}
}

func TestCheckFetchErrorLeavesEntryUntouched(t *testing.T) {
	e := entry("acme", "flaky", 40)
	before := *e
	client := &fakeClient{
		errs: map[string]error{"acme/flaky": errors.New("502 bad gateway")},
	}

	issues := newChecker(client).Check(context.Background(), testCatalog(e), nil)

	if len(issues) != 0 {
		t.Fatalf("a transient error must not create issues, got %v", issues)
	}
	if diff := cmp.Diff(before, *e); diff != "" {
		t.Errorf("entry mutated on fetch error (-want +got):\n%s", diff)
	}
}

func TestCheckSkipsCooledDownEntries(t *testing.T) {
	kept := entry("acme", "kept", 10)
	other := entry("acme", "other", 10)
	client := &fakeClient{
		repos: map[string]*gh.Repo{
			"acme/other": {Stars: 11, PushedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
		},
	}

	newChecker(client).Check(context.Background(), testCatalog(kept, other), map[string]bool{"acme/kept": true})

	if diff := cmp.Diff([]string{"acme/other"}, client.calls); diff != "" {
		t.Errorf("fetch calls mismatch (-want +got):\n%s", diff)
	}
}
