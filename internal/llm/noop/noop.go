package noop

import (
	"context"

	"github.com/lacymorrow/alpaca-mcp-server/internal/logger"
)

// NoopRunner is a fallback runner selected by setting llm.binary to "none". It
// returns an empty report so the tick cycle still exercises parsing, state
// updates and logging.
type NoopRunner struct{}

func NewNoopRunner() *NoopRunner {
	return &NoopRunner{}
}

// Run implements the Runner interface with a canned no-decision report.
func (r *NoopRunner) Run(ctx context.Context, prompt string) (string, error) {
	logger.Debug(ctx, "Noop runner called - returning empty report", "prompt_bytes", len(prompt))
	return `{"decisions": [], "notes": "noop_runner_fallback"}`, nil
}
