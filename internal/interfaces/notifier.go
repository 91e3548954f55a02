package interfaces

import (
	"context"

	"github.com/lacymorrow/alpaca-mcp-server/internal/types"
)

// Notifier delivers tick summaries and error alerts to an external channel.
// Implementations must be non-fatal: delivery failures are returned for
// logging but never abort a tick.
type Notifier interface {
	SendSummary(ctx context.Context, result *types.TickResult) error
	SendAlert(ctx context.Context, errMsg string, tickTime string, lastAction *types.ActionEntry) error
}
