package brokerobs

import (
	"context"

	"github.com/lacymorrow/alpaca-mcp-server/internal/interfaces"
	"github.com/lacymorrow/alpaca-mcp-server/internal/logger"
	"github.com/lacymorrow/alpaca-mcp-server/internal/trace"
	"github.com/lacymorrow/alpaca-mcp-server/internal/types"
)

// observableBroker wraps a Broker with observability (logging & tracing)
type observableBroker struct {
	broker interfaces.Broker
}

// Compile-time interface check
var _ interfaces.Broker = (*observableBroker)(nil)

// Wrap wraps a broker with observability middleware
func Wrap(broker interfaces.Broker) interfaces.Broker {
	return &observableBroker{broker: broker}
}

func (ob *observableBroker) GetAccount(ctx context.Context) (types.AccountSnapshot, error) {
	ctx, span := trace.StartSpan(ctx, "broker.GetAccount")
	defer span.End()

	acct, err := ob.broker.GetAccount(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch account", err)
		return types.AccountSnapshot{}, err
	}

	logger.DebugSkip(ctx, 1, "Account fetched",
		"buying_power", acct.BuyingPower.String(),
		"equity", acct.Equity.String(),
	)
	return acct, nil
}

func (ob *observableBroker) GetPositions(ctx context.Context) ([]types.Position, error) {
	ctx, span := trace.StartSpan(ctx, "broker.GetPositions")
	defer span.End()

	positions, err := ob.broker.GetPositions(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch positions", err)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Positions fetched", "count", len(positions))
	return positions, nil
}

func (ob *observableBroker) GetClock(ctx context.Context) (types.MarketClock, error) {
	ctx, span := trace.StartSpan(ctx, "broker.GetClock")
	defer span.End()

	clock, err := ob.broker.GetClock(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch market clock", err)
		return types.MarketClock{}, err
	}

	logger.DebugSkip(ctx, 1, "Market clock fetched", "is_open", clock.IsOpen)
	return clock, nil
}

func (ob *observableBroker) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	ctx, span := trace.StartSpan(ctx, "broker.PlaceOrder")
	defer span.End()

	resp, err := ob.broker.PlaceOrder(ctx, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to place order", err,
			"symbol", req.Symbol,
			"side", req.Side,
			"qty", req.Qty.String(),
		)
		return types.OrderResp{}, err
	}

	logger.InfoSkip(ctx, 1, "Order placed",
		"symbol", resp.Symbol,
		"side", resp.Side,
		"order_id", resp.OrderID,
		"status", resp.Status,
	)
	return resp, nil
}

func (ob *observableBroker) ClosePosition(ctx context.Context, symbol string) (types.OrderResp, error) {
	ctx, span := trace.StartSpan(ctx, "broker.ClosePosition")
	defer span.End()

	resp, err := ob.broker.ClosePosition(ctx, symbol)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to close position", err, "symbol", symbol)
		return types.OrderResp{}, err
	}

	logger.InfoSkip(ctx, 1, "Position closed",
		"symbol", symbol,
		"order_id", resp.OrderID,
		"status", resp.Status,
	)
	return resp, nil
}
