package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var ignoreTimestamps = cmpopts.IgnoreFields(Decision{}, "DecidedAt")

func newTestDB(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestRecordNotificationAndResolveHash(t *testing.T) {
	ctx := context.Background()
	l := newTestDB(t)

	n := Notification{
		FullName:  "acme/very-long-repository-name",
		Hash:      "ab12cd34",
		Kind:      "candidate",
		ChatID:    12345,
		MessageID: 7,
	}
	if err := l.RecordNotification(ctx, &n); err != nil {
		t.Fatalf("record notification: %v", err)
	}
	if n.ID == 0 {
		t.Error("notification ID not populated")
	}
	if n.SentAt.IsZero() {
		t.Error("SentAt not populated")
	}

	got, err := l.ResolveHash(ctx, "ab12cd34")
	if err != nil {
		t.Fatalf("resolve hash: %v", err)
	}
	if got != n.FullName {
		t.Errorf("resolved %q, want %q", got, n.FullName)
	}
}

func TestResolveHashUnknown(t *testing.T) {
	l := newTestDB(t)

	_, err := l.ResolveHash(context.Background(), "deadbeef")
	if !errors.Is(err, ErrUnknownHash) {
		t.Errorf("err = %v, want ErrUnknownHash", err)
	}
}

func TestResolveHashLatestWins(t *testing.T) {
	ctx := context.Background()
	l := newTestDB(t)

	for _, name := range []string{"acme/old", "acme/new"} {
		n := Notification{FullName: name, Hash: "11223344", Kind: "candidate", ChatID: 1, MessageID: 1}
		if err := l.RecordNotification(ctx, &n); err != nil {
			t.Fatalf("record notification: %v", err)
		}
	}

	got, err := l.ResolveHash(ctx, "11223344")
	if err != nil {
		t.Fatalf("resolve hash: %v", err)
	}
	if got != "acme/new" {
		t.Errorf("resolved %q, want the most recent mapping", got)
	}
}

func TestDecisions(t *testing.T) {
	ctx := context.Background()
	l := newTestDB(t)

	first := Decision{Action: "add", FullName: "acme/eth-mcp", SectionID: "mcp-onchain-data"}
	second := Decision{Action: "skip", FullName: "acme/other"}
	for _, d := range []*Decision{&first, &second} {
		if err := l.RecordDecision(ctx, d); err != nil {
			t.Fatalf("record decision: %v", err)
		}
	}

	got, err := l.RecentDecisions(ctx, 10)
	if err != nil {
		t.Fatalf("recent decisions: %v", err)
	}
	want := []*Decision{&second, &first}
	if diff := cmp.Diff(want, got, ignoreTimestamps); diff != "" {
		t.Errorf("decisions mismatch (-want +got):\n%s", diff)
	}

	got, err = l.RecentDecisions(ctx, 1)
	if err != nil {
		t.Fatalf("recent decisions: %v", err)
	}
	if len(got) != 1 || got[0].Action != "skip" {
		t.Errorf("limit not honored: %+v", got)
	}
}
