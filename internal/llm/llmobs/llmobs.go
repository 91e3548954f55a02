package llmobs

import (
	"context"
	"time"

	"github.com/lacymorrow/alpaca-mcp-server/internal/interfaces"
	"github.com/lacymorrow/alpaca-mcp-server/internal/logger"
	"github.com/lacymorrow/alpaca-mcp-server/internal/trace"
)

// observableRunner wraps a Runner with observability (logging & tracing)
type observableRunner struct {
	runner interfaces.Runner
}

// Compile-time interface check
var _ interfaces.Runner = (*observableRunner)(nil)

// Wrap wraps a runner with observability middleware
func Wrap(runner interfaces.Runner) interfaces.Runner {
	return &observableRunner{runner: runner}
}

func (or *observableRunner) Run(ctx context.Context, prompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Run")
	defer span.End()

	start := time.Now()

	// Skip(1) so logs report the actual caller, not this wrapper
	logger.DebugSkip(ctx, 1, "Invoking LLM runner", "prompt_bytes", len(prompt))

	output, err := or.runner.Run(ctx, prompt)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "LLM run failed", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	logger.InfoSkip(ctx, 1, "LLM run completed",
		"output_bytes", len(output),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return output, nil
}
