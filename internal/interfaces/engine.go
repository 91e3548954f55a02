package interfaces

import (
	"context"

	"github.com/lacymorrow/alpaca-mcp-server/internal/types"
)

// TickOptions adjusts a single tick cycle.
type TickOptions struct {
	// AnalysisOnly forbids order placement for this tick regardless of
	// what the model decides.
	AnalysisOnly bool
}

type Engine interface {
	Tick(ctx context.Context, opts TickOptions) (*types.TickResult, error)
}
