package gen

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDescribeFirstLine(t *testing.T) {
	// echo -n is portable enough for a smoke test of the exec path.
	c := NewClaudeCLI("echo", 5*time.Second, discardLogger())

	got, err := c.Describe(context.Background(), "acme", "eth-mcp", "")
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if got == "" {
		t.Error("expected echoed prompt back, got empty string")
	}
}

func TestDescribeMissingBinaryIsSoft(t *testing.T) {
	c := NewClaudeCLI("definitely-not-a-real-binary-xyz", time.Second, discardLogger())

	got, err := c.Describe(context.Background(), "acme", "eth-mcp", "")
	if err != nil {
		t.Fatalf("missing binary must not be a hard error, got %v", err)
	}
	if got != "" {
		t.Errorf("got %q, want empty fallback", got)
	}
}

func TestDescribeCancelledContext(t *testing.T) {
	c := NewClaudeCLI("echo", time.Second, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Describe(ctx, "acme", "eth-mcp", ""); err == nil {
		t.Error("cancelled parent context must surface as an error")
	}
}
