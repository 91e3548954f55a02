package engineobs

import (
	"context"
	"time"

	"github.com/lacymorrow/alpaca-mcp-server/internal/interfaces"
	"github.com/lacymorrow/alpaca-mcp-server/internal/logger"
	"github.com/lacymorrow/alpaca-mcp-server/internal/trace"
	"github.com/lacymorrow/alpaca-mcp-server/internal/types"
)

type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

func Wrap(eng interfaces.Engine) interfaces.Engine {
	return &observableEngine{
		engine: eng,
	}
}

func (oe *observableEngine) Tick(ctx context.Context, opts interfaces.TickOptions) (*types.TickResult, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Tick")
	defer span.End()

	start := time.Now()

	logger.InfoSkip(ctx, 1, "Starting tick",
		"analysis_only", opts.AnalysisOnly,
	)

	result, err := oe.engine.Tick(ctx, opts)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Tick failed", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Tick completed",
		"tick_id", result.TickID,
		"decisions", len(result.Report.Decisions),
		"orders", len(result.Orders),
		"parse_error", result.Report.ParseError,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}
