package interfaces

import (
	"context"

	"github.com/lacymorrow/alpaca-mcp-server/internal/types"
)

type Broker interface {
	GetAccount(ctx context.Context) (types.AccountSnapshot, error)
	GetPositions(ctx context.Context) ([]types.Position, error)
	GetClock(ctx context.Context) (types.MarketClock, error)
	PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error)
	ClosePosition(ctx context.Context, symbol string) (types.OrderResp, error)
}
