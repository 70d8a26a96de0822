package exchange

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderSide represents order direction
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// PositionSide represents position direction
type PositionSide string

const (
	PositionLong  PositionSide = "LONG"
	PositionShort PositionSide = "SHORT"
)

// OrderType represents supported order types
type OrderType string

const (
	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeMarket OrderType = "MARKET"
)

// TimeInForce values accepted by the exchange
const (
	TimeInForceGTT = "GTT"
	TimeInForceFOK = "FOK"
)

// Candle is one OHLCV bar, immutable once received
type Candle struct {
	StartedAt       time.Time       `json:"startedAt"`
	Market          string          `json:"market"`
	Open            decimal.Decimal `json:"open"`
	High            decimal.Decimal `json:"high"`
	Low             decimal.Decimal `json:"low"`
	Close           decimal.Decimal `json:"close"`
	BaseTokenVolume decimal.Decimal `json:"baseTokenVolume"`
}

// OrderbookLevel is one price level of the order book
type OrderbookLevel struct {
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

// Orderbook holds both sides of the book, sorted best-first
type Orderbook struct {
	Bids []OrderbookLevel `json:"bids"`
	Asks []OrderbookLevel `json:"asks"`
}

// Position is an open position as reported by the exchange. The engine only
// reads positions; it never mutates them directly.
type Position struct {
	Market     string          `json:"market"`
	Side       PositionSide    `json:"side"`
	Status     string          `json:"status"`
	EntryPrice decimal.Decimal `json:"entryPrice"`
	SumOpen    decimal.Decimal `json:"sumOpen"`
}

// Account is the account summary including all open positions
type Account struct {
	PositionID    string          `json:"positionId"`
	Equity        decimal.Decimal `json:"equity"`
	QuoteBalance  decimal.Decimal `json:"quoteBalance"`
	OpenPositions []Position      `json:"openPositions"`
}

// Order is an open order as reported by the exchange
type Order struct {
	ID        string          `json:"id"`
	Market    string          `json:"market"`
	Side      OrderSide       `json:"side"`
	Type      OrderType       `json:"type"`
	Price     decimal.Decimal `json:"price"`
	Size      decimal.Decimal `json:"size"`
	PostOnly  bool            `json:"postOnly"`
	Status    string          `json:"status"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// MarketInfo is per-market metadata: order increments and the index price
type MarketInfo struct {
	Market       string          `json:"market"`
	StepSize     decimal.Decimal `json:"stepSize"`
	TickSize     decimal.Decimal `json:"tickSize"`
	MinOrderSize decimal.Decimal `json:"minOrderSize"`
	IndexPrice   decimal.Decimal `json:"indexPrice"`
}

// OrderParams carries everything needed to submit one order. CancelID, when
// set, atomically replaces the referenced order.
type OrderParams struct {
	PositionID  string          `json:"positionId"`
	Market      string          `json:"market"`
	Side        OrderSide       `json:"side"`
	Type        OrderType       `json:"type"`
	PostOnly    bool            `json:"postOnly"`
	Size        decimal.Decimal `json:"size"`
	Price       decimal.Decimal `json:"price"`
	LimitFee    string          `json:"limitFee"`
	TimeInForce string          `json:"timeInForce,omitempty"`
	Expiration  time.Time       `json:"expiration"`
	CancelID    string          `json:"cancelId,omitempty"`
}
