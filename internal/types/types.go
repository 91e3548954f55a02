package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Decision is a single trading action proposed by the model.
type Decision struct {
	Action     string           `json:"action"` // buy, sell, close, none
	Symbol     string           `json:"symbol,omitempty"`
	Qty        decimal.Decimal  `json:"qty,omitempty"`
	OrderType  string           `json:"type,omitempty"` // market or limit
	LimitPrice *decimal.Decimal `json:"limit_price,omitempty"`
	Reasoning  string           `json:"reasoning,omitempty"`
}

// Position is one entry of the account's positions snapshot.
type Position struct {
	Symbol       string          `json:"symbol"`
	Qty          decimal.Decimal `json:"qty"`
	MarketValue  decimal.Decimal `json:"market_value"`
	UnrealizedPL decimal.Decimal `json:"unrealized_pl"`
}

// TickReport is the structured block extracted from the model's free-text
// response. When extraction fails, ParseError is set and RawOutput keeps a
// truncated copy of whatever the model printed.
type TickReport struct {
	Decisions         []Decision       `json:"decisions"`
	PositionsSnapshot []Position       `json:"positions_snapshot,omitempty"`
	BuyingPower       *decimal.Decimal `json:"buying_power,omitempty"`
	MarketOpen        *bool            `json:"market_open,omitempty"`
	Notes             string           `json:"notes,omitempty"`
	PlanUpdated       bool             `json:"plan_updated,omitempty"`
	StrategyUpdated   bool             `json:"strategy_updated,omitempty"`
	ParseError        bool             `json:"parse_error,omitempty"`
	RawOutput         string           `json:"raw_output,omitempty"`
}

// ActionEntry is one element of the state file's actions history.
type ActionEntry struct {
	TS         string     `json:"ts"`
	Decisions  []Decision `json:"decisions"`
	MarketOpen *bool      `json:"market_open,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

// TickResult summarizes one completed tick cycle.
type TickResult struct {
	TickID       string      `json:"tick_id"`
	TickTime     time.Time   `json:"tick_time"`
	AnalysisOnly bool        `json:"analysis_only"`
	Report       *TickReport `json:"report"`
	Orders       []OrderResp `json:"orders,omitempty"`
}

type OrderReq struct {
	Symbol        string
	Side          string // buy or sell
	Qty           decimal.Decimal
	Type          string // market or limit
	LimitPrice    *decimal.Decimal
	TimeInForce   string
	ClientOrderID string
}

type OrderResp struct {
	OrderID   string          `json:"order_id"`
	Status    string          `json:"status"`
	Symbol    string          `json:"symbol"`
	Side      string          `json:"side"`
	FilledQty decimal.Decimal `json:"filled_qty"`
}

// AccountSnapshot is what the tick needs from the broker account.
type AccountSnapshot struct {
	BuyingPower decimal.Decimal `json:"buying_power"`
	Cash        decimal.Decimal `json:"cash"`
	Equity      decimal.Decimal `json:"equity"`
}

type MarketClock struct {
	IsOpen    bool      `json:"is_open"`
	NextOpen  time.Time `json:"next_open"`
	NextClose time.Time `json:"next_close"`
}

// TradeUpdate is a fill event delivered by the broker's streaming API.
type TradeUpdate struct {
	Event   string          `json:"event"`
	Symbol  string          `json:"symbol"`
	Side    string          `json:"side"`
	Qty     decimal.Decimal `json:"qty"`
	Price   decimal.Decimal `json:"price"`
	OrderID string          `json:"order_id"`
	At      time.Time       `json:"at"`
}

// NewsArticle is a scraped headline used as prompt context.
type NewsArticle struct {
	Symbol      string `json:"symbol"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	PublishedAt string `json:"published_at,omitempty"`
}
