package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meanrev-trading-bot/exchange"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrDataUnavailable marks a failed candle/orderbook/account fetch. The
// affected market's cycle is aborted; other markets proceed.
var ErrDataUnavailable = errors.New("marketdata: data unavailable")

// Snapshot is the immutable per-market view assembled once per evaluation
// cycle. Everything downstream (signals, sizing, reconciliation) is a pure
// function of a Snapshot; nothing in it is cached across cycles.
type Snapshot struct {
	Market string
	Taken  time.Time

	// Market data
	Candles   []exchange.Candle
	Closes    []float64
	Orderbook *exchange.Orderbook
	MidPrice  decimal.Decimal

	// Market metadata
	StepSize     decimal.Decimal
	TickSize     decimal.Decimal
	MinOrderSize decimal.Decimal
	IndexPrice   decimal.Decimal

	// Account state
	Equity        decimal.Decimal
	PositionID    string
	OpenPositions []exchange.Position
	Long          *exchange.Position
	Short         *exchange.Position
	BuyOrders     []exchange.Order
	SellOrders    []exchange.Order
}

// LastClose returns the most recent candle close
func (s *Snapshot) LastClose() float64 {
	if len(s.Closes) == 0 {
		return 0
	}
	return s.Closes[len(s.Closes)-1]
}

// BestBid returns the top bid price, or zero when the book side is empty
func (s *Snapshot) BestBid() decimal.Decimal {
	if s.Orderbook == nil || len(s.Orderbook.Bids) == 0 {
		return decimal.Zero
	}
	return s.Orderbook.Bids[0].Price
}

// BestAsk returns the top ask price, or zero when the book side is empty
func (s *Snapshot) BestAsk() decimal.Decimal {
	if s.Orderbook == nil || len(s.Orderbook.Asks) == 0 {
		return decimal.Zero
	}
	return s.Orderbook.Asks[0].Price
}

// Assembler builds Snapshots from fresh exchange queries
type Assembler struct {
	client exchange.Client
	logger *zap.Logger
}

// NewAssembler creates a snapshot assembler over the given client
func NewAssembler(client exchange.Client, logger *zap.Logger) *Assembler {
	return &Assembler{client: client, logger: logger}
}

// Take assembles a Snapshot for one market. Every query is fresh; any fetch
// failure returns a wrapped ErrDataUnavailable.
func (a *Assembler) Take(ctx context.Context, market, resolution string, limit int) (*Snapshot, error) {
	account, err := a.client.GetAccount(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: account: %v", ErrDataUnavailable, err)
	}
	info, err := a.client.GetMarketInfo(ctx, market)
	if err != nil {
		return nil, fmt.Errorf("%w: market info for %s: %v", ErrDataUnavailable, market, err)
	}
	candles, err := a.client.GetCandles(ctx, market, resolution, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: candles for %s: %v", ErrDataUnavailable, market, err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%w: no candles for %s", ErrDataUnavailable, market)
	}
	book, err := a.client.GetOrderbook(ctx, market)
	if err != nil {
		return nil, fmt.Errorf("%w: orderbook for %s: %v", ErrDataUnavailable, market, err)
	}
	if len(book.Bids) == 0 || len(book.Asks) == 0 {
		return nil, fmt.Errorf("%w: empty orderbook for %s", ErrDataUnavailable, market)
	}
	buyOrders, err := a.client.GetOpenOrders(ctx, market, exchange.OrderSideBuy)
	if err != nil {
		return nil, fmt.Errorf("%w: buy orders for %s: %v", ErrDataUnavailable, market, err)
	}
	sellOrders, err := a.client.GetOpenOrders(ctx, market, exchange.OrderSideSell)
	if err != nil {
		return nil, fmt.Errorf("%w: sell orders for %s: %v", ErrDataUnavailable, market, err)
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close.InexactFloat64()
	}

	snap := &Snapshot{
		Market:        market,
		Taken:         time.Now(),
		Candles:       candles,
		Closes:        closes,
		Orderbook:     book,
		MidPrice:      midPrice(book),
		StepSize:      info.StepSize,
		TickSize:      info.TickSize,
		MinOrderSize:  info.MinOrderSize,
		IndexPrice:    info.IndexPrice,
		Equity:        account.Equity,
		PositionID:    account.PositionID,
		OpenPositions: account.OpenPositions,
		BuyOrders:     buyOrders,
		SellOrders:    sellOrders,
	}

	// At most one open position per side per market
	for i := range account.OpenPositions {
		p := &account.OpenPositions[i]
		if p.Market != market {
			continue
		}
		switch p.Side {
		case exchange.PositionLong:
			if snap.Long == nil {
				snap.Long = p
			}
		case exchange.PositionShort:
			if snap.Short == nil {
				snap.Short = p
			}
		}
	}

	a.logger.Debug("snapshot assembled",
		zap.String("market", market),
		zap.Int("candles", len(candles)),
		zap.String("mid_price", snap.MidPrice.String()),
		zap.Int("buy_orders", len(buyOrders)),
		zap.Int("sell_orders", len(sellOrders)))

	return snap, nil
}

// midPrice is bid + (ask-bid)/2 from the best levels
func midPrice(book *exchange.Orderbook) decimal.Decimal {
	bid := book.Bids[0].Price
	ask := book.Asks[0].Price
	return bid.Add(ask.Sub(bid).Div(decimal.NewFromInt(2)))
}
