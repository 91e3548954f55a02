// Package claudecli runs the Claude Code CLI as a subprocess. The binary
// does its own tool work (broker MCP, news MCP, web search); this package
// only hands it the prompt and captures what it prints.
package claudecli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/lacymorrow/alpaca-mcp-server/internal/logger"
	"github.com/lacymorrow/alpaca-mcp-server/internal/store"
	"github.com/lacymorrow/alpaca-mcp-server/internal/trace"
)

var (
	// ErrBinaryNotFound means the claude CLI is not installed or not on PATH.
	ErrBinaryNotFound = errors.New("claude CLI not found")
	// ErrTimeout means the CLI did not finish within the configured window.
	ErrTimeout = errors.New("claude CLI timed out")
)

// Runner invokes the claude binary once per tick.
type Runner struct {
	binary    string
	mcpConfig string
	workDir   string
	timeout   time.Duration
}

func New(cfg *store.Config) *Runner {
	return &Runner{
		binary:    cfg.LLM.Binary,
		mcpConfig: cfg.LLM.MCPConfig,
		workDir:   cfg.LLM.WorkDir,
		timeout:   time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	}
}

// Run executes the CLI with the prompt and returns stdout. A non-zero exit
// is logged but still returns stdout: the model frequently produces a usable
// report even when a tool call failed late in the run.
func (r *Runner) Run(ctx context.Context, prompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "claudecli.Run")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := []string{
		"--print",
		"--output-format", "text",
		// Required for unattended operation; the container runs non-root.
		"--dangerously-skip-permissions",
	}
	if r.mcpConfig != "" {
		if _, err := os.Stat(r.mcpConfig); err == nil {
			args = append(args, "--mcp-config", r.mcpConfig)
		}
	}
	args = append(args, "-p", prompt)

	cmd := exec.CommandContext(ctx, r.binary, args...)
	if r.workDir != "" {
		cmd.Dir = r.workDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Info(ctx, "Executing claude CLI", "binary", r.binary, "timeout", r.timeout.String())
	start := time.Now()
	err := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("%w after %s", ErrTimeout, r.timeout)
	}
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
			return "", fmt.Errorf("%w: %q", ErrBinaryNotFound, r.binary)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			logger.Warn(ctx, "claude CLI exited non-zero",
				"code", exitErr.ExitCode(),
				"stderr", truncate(stderr.String(), 1000),
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return stdout.String(), nil
		}
		return "", fmt.Errorf("run claude CLI: %w", err)
	}

	logger.Debug(ctx, "claude CLI finished",
		"stdout_bytes", stdout.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return stdout.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
