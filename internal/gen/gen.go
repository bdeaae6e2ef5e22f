// Package gen produces short Korean entry descriptions with an external
// AI CLI. Generation is best-effort: any failure yields an empty string
// and the caller falls back to a placeholder.
package gen

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Generator produces a one-sentence Korean description for a repository.
type Generator interface {
	Describe(ctx context.Context, owner, repo, extra string) (string, error)
}

// ClaudeCLI shells out to the claude binary in print mode.
type ClaudeCLI struct {
	Bin     string
	Timeout time.Duration
	log     *slog.Logger
}

// NewClaudeCLI creates a generator invoking bin with the given per-call timeout.
func NewClaudeCLI(bin string, timeout time.Duration, log *slog.Logger) *ClaudeCLI {
	return &ClaudeCLI{Bin: bin, Timeout: timeout, log: log}
}

// Describe runs the CLI with a bounded context and returns the first line of
// its output. Timeouts and non-zero exits are logged and return ("", nil);
// only a cancelled parent context is a hard error.
func (c *ClaudeCLI) Describe(ctx context.Context, owner, repo, extra string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	runCtx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	prompt := fmt.Sprintf(
		"GitHub 레포지토리 %s/%s에 대한 한 문장짜리 한국어 설명을 작성해줘. "+
			"Web3 개발 도구 큐레이션 목록의 표에 들어갈 설명이다. "+
			"설명 문장만 출력하고 다른 말은 하지 마.", owner, repo)
	if extra != "" {
		prompt += "\n참고 정보: " + extra
	}

	cmd := exec.CommandContext(runCtx, c.Bin, "-p", prompt)
	out, err := cmd.Output()
	if err != nil {
		if parent := ctx.Err(); parent != nil {
			return "", parent
		}
		c.log.Warn("description generation failed", "repo", owner+"/"+repo, "error", err)
		return "", nil
	}

	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(line), nil
}
