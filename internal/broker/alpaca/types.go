package alpaca

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wire representations of the Alpaca REST resources the bot touches.
// Alpaca encodes money and quantities as JSON strings.

type accountPayload struct {
	BuyingPower decimal.Decimal `json:"buying_power"`
	Cash        decimal.Decimal `json:"cash"`
	Equity      decimal.Decimal `json:"equity"`
	Status      string          `json:"status"`
}

type positionPayload struct {
	Symbol       string          `json:"symbol"`
	Qty          decimal.Decimal `json:"qty"`
	MarketValue  decimal.Decimal `json:"market_value"`
	UnrealizedPL decimal.Decimal `json:"unrealized_pl"`
}

type clockPayload struct {
	IsOpen    bool      `json:"is_open"`
	NextOpen  time.Time `json:"next_open"`
	NextClose time.Time `json:"next_close"`
}

type orderRequest struct {
	Symbol        string `json:"symbol"`
	Qty           string `json:"qty"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	TimeInForce   string `json:"time_in_force"`
	LimitPrice    string `json:"limit_price,omitempty"`
	ClientOrderID string `json:"client_order_id,omitempty"`
}

type orderPayload struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	Symbol    string          `json:"symbol"`
	Side      string          `json:"side"`
	FilledQty decimal.Decimal `json:"filled_qty"`
}
