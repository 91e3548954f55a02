package engine

import (
	"context"
	"errors"

	"github.com/lacymorrow/alpaca-mcp-server/internal/interfaces"
	"github.com/lacymorrow/alpaca-mcp-server/internal/logger"
	"github.com/lacymorrow/alpaca-mcp-server/internal/types"
)

var errSkipped = errors.New("decision skipped")

// orderExecutor turns parsed decisions into broker orders.
type orderExecutor struct {
	broker interfaces.Broker
}

func newOrderExecutor(broker interfaces.Broker) *orderExecutor {
	return &orderExecutor{broker: broker}
}

// Apply places an order per executable decision. A failed order is logged
// and skipped; the rest of the batch still runs.
func (oe *orderExecutor) Apply(ctx context.Context, decisions []types.Decision) []types.OrderResp {
	orders := []types.OrderResp{}

	for _, d := range decisions {
		switch d.Action {
		case "buy", "sell":
			resp, err := oe.placeOrder(ctx, d)
			if err != nil {
				continue
			}
			orders = append(orders, resp)
		case "close":
			if d.Symbol == "" {
				logger.Warn(ctx, "Close decision without symbol, skipping")
				continue
			}
			resp, err := oe.broker.ClosePosition(ctx, d.Symbol)
			if err != nil {
				logger.ErrorWithErr(ctx, "Failed to close position", err, "symbol", d.Symbol)
				continue
			}
			logger.Trade(ctx, d.Symbol, "close", resp.FilledQty.String(), resp.OrderID, "reason", d.Reasoning)
			orders = append(orders, resp)
		case "none":
			logger.Debug(ctx, "No-action decision", "symbol", d.Symbol, "reason", d.Reasoning)
		}
	}

	return orders
}

func (oe *orderExecutor) placeOrder(ctx context.Context, d types.Decision) (types.OrderResp, error) {
	if d.Symbol == "" || !d.Qty.IsPositive() {
		logger.Warn(ctx, "Unexecutable decision, skipping",
			"action", d.Action,
			"symbol", d.Symbol,
			"qty", d.Qty.String(),
		)
		return types.OrderResp{}, errSkipped
	}

	req := types.OrderReq{
		Symbol:     d.Symbol,
		Side:       d.Action,
		Qty:        d.Qty,
		Type:       d.OrderType,
		LimitPrice: d.LimitPrice,
	}
	resp, err := oe.broker.PlaceOrder(ctx, req)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to place order", err,
			"symbol", d.Symbol,
			"side", d.Action,
			"qty", d.Qty.String(),
		)
		return types.OrderResp{}, err
	}

	logger.Trade(ctx, d.Symbol, d.Action, d.Qty.String(), resp.OrderID, "reason", d.Reasoning)
	return resp, nil
}
