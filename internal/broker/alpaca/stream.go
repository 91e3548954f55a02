package alpaca

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/lacymorrow/alpaca-mcp-server/internal/logger"
	"github.com/lacymorrow/alpaca-mcp-server/internal/types"
)

// Stream listens to the account's trade_updates websocket so loop mode can
// record fills that happen between ticks.
type Stream struct {
	p       Params
	url     string
	handler func(types.TradeUpdate)
}

func NewStream(p Params, url string, handler func(types.TradeUpdate)) *Stream {
	return &Stream{p: p, url: url, handler: handler}
}

type streamFrame struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

type tradeUpdateData struct {
	Event string `json:"event"`
	Price string `json:"price"`
	Qty   string `json:"qty"`
	At    string `json:"timestamp"`
	Order struct {
		ID     string `json:"id"`
		Symbol string `json:"symbol"`
		Side   string `json:"side"`
	} `json:"order"`
}

// Run connects, authenticates and listens until the context is cancelled,
// reconnecting with exponential backoff on any failure.
func (s *Stream) Run(ctx context.Context) error {
	strategy := backoff.NewExponentialBackOff()
	strategy.MaxElapsedTime = 0 // keep reconnecting for the life of the loop

	operation := func() error {
		if err := s.listenOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			logger.Warn(ctx, "Trade stream disconnected, will retry", "error", err.Error())
			return err
		}
		return nil
	}
	err := backoff.Retry(operation, backoff.WithContext(strategy, ctx))
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (s *Stream) listenOnce(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial trade stream: %w", err)
	}
	defer conn.Close()

	// Close the socket when the context ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	auth := map[string]any{
		"action": "authenticate",
		"data":   map[string]string{"key_id": s.p.KeyID, "secret_key": s.p.SecretKey},
	}
	if err := conn.WriteJSON(auth); err != nil {
		return fmt.Errorf("authenticate trade stream: %w", err)
	}
	listen := map[string]any{
		"action": "listen",
		"data":   map[string][]string{"streams": {"trade_updates"}},
	}
	if err := conn.WriteJSON(listen); err != nil {
		return fmt.Errorf("subscribe trade stream: %w", err)
	}

	logger.Info(ctx, "Trade update stream connected", "url", s.url)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read trade stream: %w", err)
		}
		s.dispatch(ctx, msg)
	}
}

func (s *Stream) dispatch(ctx context.Context, msg []byte) {
	var frame streamFrame
	if err := json.Unmarshal(msg, &frame); err != nil || frame.Stream != "trade_updates" {
		return
	}
	var data tradeUpdateData
	if err := json.Unmarshal(frame.Data, &data); err != nil {
		logger.Warn(ctx, "Malformed trade update", "error", err.Error())
		return
	}

	update := types.TradeUpdate{
		Event:   data.Event,
		Symbol:  data.Order.Symbol,
		Side:    data.Order.Side,
		OrderID: data.Order.ID,
	}
	if q, err := decimal.NewFromString(data.Qty); err == nil {
		update.Qty = q
	}
	if p, err := decimal.NewFromString(data.Price); err == nil {
		update.Price = p
	}
	if ts, err := time.Parse(time.RFC3339Nano, data.At); err == nil {
		update.At = ts
	}

	if s.handler != nil {
		s.handler(update)
	}
}
