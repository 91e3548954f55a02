// Package alpaca is a thin pass-through client for the Alpaca trading REST
// API. It carries no trading judgement: it fetches account truth and submits
// exactly the orders it is given.
package alpaca

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/lacymorrow/alpaca-mcp-server/internal/interfaces"
	"github.com/lacymorrow/alpaca-mcp-server/internal/logger"
	"github.com/lacymorrow/alpaca-mcp-server/internal/types"
)

type Params struct {
	Mode              string // DRY_RUN or LIVE
	BaseURL           string
	KeyID             string
	SecretKey         string
	Timeout           time.Duration
	RetryMaxElapsed   time.Duration
	RequestsPerSecond float64
}

type Client struct {
	p          Params
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ interfaces.Broker = (*Client)(nil)

func New(p Params) *Client {
	if p.Timeout == 0 {
		p.Timeout = 10 * time.Second
	}
	if p.RetryMaxElapsed == 0 {
		p.RetryMaxElapsed = 30 * time.Second
	}
	if p.RequestsPerSecond == 0 {
		p.RequestsPerSecond = 3
	}
	return &Client{
		p:          p,
		httpClient: &http.Client{Timeout: p.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(p.RequestsPerSecond), 1),
	}
}

func (c *Client) GetAccount(ctx context.Context) (types.AccountSnapshot, error) {
	var acct accountPayload
	if err := c.doJSON(ctx, http.MethodGet, "/v2/account", nil, &acct); err != nil {
		return types.AccountSnapshot{}, fmt.Errorf("get account: %w", err)
	}
	return types.AccountSnapshot{
		BuyingPower: acct.BuyingPower,
		Cash:        acct.Cash,
		Equity:      acct.Equity,
	}, nil
}

func (c *Client) GetPositions(ctx context.Context) ([]types.Position, error) {
	var raw []positionPayload
	if err := c.doJSON(ctx, http.MethodGet, "/v2/positions", nil, &raw); err != nil {
		return nil, fmt.Errorf("get positions: %w", err)
	}
	positions := make([]types.Position, 0, len(raw))
	for _, p := range raw {
		positions = append(positions, types.Position{
			Symbol:       p.Symbol,
			Qty:          p.Qty,
			MarketValue:  p.MarketValue,
			UnrealizedPL: p.UnrealizedPL,
		})
	}
	return positions, nil
}

func (c *Client) GetClock(ctx context.Context) (types.MarketClock, error) {
	var clock clockPayload
	if err := c.doJSON(ctx, http.MethodGet, "/v2/clock", nil, &clock); err != nil {
		return types.MarketClock{}, fmt.Errorf("get clock: %w", err)
	}
	return types.MarketClock{
		IsOpen:    clock.IsOpen,
		NextOpen:  clock.NextOpen,
		NextClose: clock.NextClose,
	}, nil
}

// PlaceOrder submits an order. DRY_RUN acknowledges without touching the
// API so the rest of the tick cycle behaves identically.
func (c *Client) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	if req.ClientOrderID == "" {
		// Stable id so a retried submission cannot double-fill.
		req.ClientOrderID = uuid.NewString()
	}
	if req.Type == "" {
		req.Type = "market"
	}
	if req.TimeInForce == "" {
		req.TimeInForce = "day"
	}

	if c.p.Mode == "DRY_RUN" {
		logger.Info(ctx, "DRY_RUN order simulated",
			"symbol", req.Symbol, "side", req.Side, "qty", req.Qty.String())
		return types.OrderResp{
			OrderID: "dry-" + req.ClientOrderID,
			Status:  "accepted",
			Symbol:  req.Symbol,
			Side:    req.Side,
		}, nil
	}

	body := orderRequest{
		Symbol:        req.Symbol,
		Qty:           req.Qty.String(),
		Side:          req.Side,
		Type:          req.Type,
		TimeInForce:   req.TimeInForce,
		ClientOrderID: req.ClientOrderID,
	}
	if req.LimitPrice != nil {
		body.LimitPrice = req.LimitPrice.String()
	}

	var order orderPayload
	if err := c.doJSON(ctx, http.MethodPost, "/v2/orders", body, &order); err != nil {
		return types.OrderResp{}, fmt.Errorf("place order %s %s: %w", req.Side, req.Symbol, err)
	}
	return types.OrderResp{
		OrderID:   order.ID,
		Status:    order.Status,
		Symbol:    order.Symbol,
		Side:      order.Side,
		FilledQty: order.FilledQty,
	}, nil
}

// ClosePosition liquidates the whole position for a symbol.
func (c *Client) ClosePosition(ctx context.Context, symbol string) (types.OrderResp, error) {
	if c.p.Mode == "DRY_RUN" {
		logger.Info(ctx, "DRY_RUN close simulated", "symbol", symbol)
		return types.OrderResp{
			OrderID: "dry-close-" + uuid.NewString(),
			Status:  "accepted",
			Symbol:  symbol,
			Side:    "sell",
		}, nil
	}

	var order orderPayload
	path := "/v2/positions/" + symbol
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, &order); err != nil {
		return types.OrderResp{}, fmt.Errorf("close position %s: %w", symbol, err)
	}
	return types.OrderResp{
		OrderID:   order.ID,
		Status:    order.Status,
		Symbol:    order.Symbol,
		Side:      order.Side,
		FilledQty: order.FilledQty,
	}, nil
}

// doJSON performs one rate-limited request with exponential backoff on
// transport errors and 5xx responses. 4xx responses are terminal.
func (c *Client) doJSON(ctx context.Context, method, path string, reqBody, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var payload []byte
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = b
	}

	operation := func() error {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.p.BaseURL+path, bodyReader)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("APCA-API-KEY-ID", c.p.KeyID)
		req.Header.Set("APCA-API-SECRET-KEY", c.p.SecretKey)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		switch {
		case resp.StatusCode >= 500:
			return fmt.Errorf("alpaca http %d: %s", resp.StatusCode, truncate(string(respBody), 200))
		case resp.StatusCode >= 300:
			return backoff.Permanent(fmt.Errorf("alpaca http %d: %s", resp.StatusCode, truncate(string(respBody), 200)))
		}

		if out == nil {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.MaxElapsedTime = c.p.RetryMaxElapsed
	return backoff.Retry(operation, backoff.WithContext(strategy, ctx))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
