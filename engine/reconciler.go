package engine

import (
	"meanrev-trading-bot/exchange"
	"meanrev-trading-bot/marketdata"
	"meanrev-trading-bot/risk"
	"meanrev-trading-bot/strategy"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ActionKind classifies one order action
type ActionKind string

const (
	ActionCreate  ActionKind = "CREATE"
	ActionCancel  ActionKind = "CANCEL"
	ActionReplace ActionKind = "REPLACE"
)

// OrderAction is the sole output unit of the reconciler: pure data, no side
// effect until the executor applies it. OrderID is the cancel or replace
// target; for creates it is empty.
type OrderAction struct {
	Kind        ActionKind         `json:"kind"`
	Side        exchange.OrderSide `json:"side"`
	Type        exchange.OrderType `json:"type"`
	Price       decimal.Decimal    `json:"price"`
	Size        decimal.Decimal    `json:"size"`
	PostOnly    bool               `json:"postOnly"`
	TimeInForce string             `json:"timeInForce,omitempty"`
	OrderID     string             `json:"orderId,omitempty"`
}

// Reconciler turns signals and sizing into the minimal ordered action list
/// that moves the live order set toward the target. Planning is pure: two
// identical snapshots yield identical plans, and a snapshot whose orders
// already satisfy every condition yields an empty plan.
type Reconciler struct {
	cfg    strategy.Config
	logger *zap.Logger
}

// NewReconciler creates a reconciler for the given strategy config
func NewReconciler(cfg strategy.Config, logger *zap.Logger) *Reconciler {
	return &Reconciler{cfg: cfg, logger: logger}
}

// Plan emits actions in fixed priority order: stop > exit > entry > price
// maintenance. A stop cancels both sides and closes the position at market;
// nothing else is planned for that market in the same cycle.
func (r *Reconciler) Plan(snap *marketdata.Snapshot, sig strategy.Signals) []OrderAction {
	if sig.Long.Stop || sig.Short.Stop {
		return r.planStop(snap, sig)
	}

	var actions []OrderAction
	cancelled := make(map[string]bool)

	actions = append(actions, r.planExit(snap, sig, strategy.SideLong, cancelled)...)
	actions = append(actions, r.planExit(snap, sig, strategy.SideShort, cancelled)...)
	actions = append(actions, r.planEntry(snap, sig, strategy.SideLong, cancelled)...)
	actions = append(actions, r.planEntry(snap, sig, strategy.SideShort, cancelled)...)
	actions = append(actions, r.planMaintenance(snap, cancelled)...)

	return actions
}

// planStop cancels every resting order on both sides, then closes each
// stopped position with a fill-or-kill market order priced deep enough into
// the closing side of the book to guarantee execution.
func (r *Reconciler) planStop(snap *marketdata.Snapshot, sig strategy.Signals) []OrderAction {
	var actions []OrderAction
	for _, o := range snap.BuyOrders {
		actions = append(actions, OrderAction{Kind: ActionCancel, Side: o.Side, OrderID: o.ID})
	}
	for _, o := range snap.SellOrders {
		actions = append(actions, OrderAction{Kind: ActionCancel, Side: o.Side, OrderID: o.ID})
	}

	if sig.Long.Stop && snap.Long != nil {
		actions = append(actions, OrderAction{
			Kind:        ActionCreate,
			Side:        exchange.OrderSideSell,
			Type:        exchange.OrderTypeMarket,
			Price:       bookLevel(snap.Orderbook.Bids, r.cfg.StopBookDepth),
			Size:        snap.Long.SumOpen,
			TimeInForce: exchange.TimeInForceFOK,
		})
	}
	if sig.Short.Stop && snap.Short != nil {
		actions = append(actions, OrderAction{
			Kind:        ActionCreate,
			Side:        exchange.OrderSideBuy,
			Type:        exchange.OrderTypeMarket,
			Price:       bookLevel(snap.Orderbook.Asks, r.cfg.StopBookDepth),
			Size:        snap.Short.SumOpen,
			TimeInForce: exchange.TimeInForceFOK,
		})
	}

	r.logger.Warn("stop loss triggered",
		zap.String("market", snap.Market),
		zap.Bool("long", sig.Long.Stop),
		zap.Bool("short", sig.Short.Stop),
		zap.Int("actions", len(actions)))

	return actions
}

// planExit places one post-only limit at the best opposing price for the
// full open size. A residual below the exchange minimum cannot be closed
// directly; it is flattened with a same-direction order of the minimum size.
func (r *Reconciler) planExit(snap *marketdata.Snapshot, sig strategy.Signals, side strategy.Side, cancelled map[string]bool) []OrderAction {
	var pos *exchange.Position
	var exit bool
	var closeSide exchange.OrderSide
	var closePrice decimal.Decimal
	var resting, stale []exchange.Order

	if side == strategy.SideLong {
		pos, exit = snap.Long, sig.Long.Exit
		closeSide, closePrice = exchange.OrderSideSell, snap.BestAsk()
		resting, stale = snap.SellOrders, snap.BuyOrders
	} else {
		pos, exit = snap.Short, sig.Short.Exit
		closeSide, closePrice = exchange.OrderSideBuy, snap.BestBid()
		resting, stale = snap.BuyOrders, snap.SellOrders
	}

	if !exit || pos == nil || len(resting) > 0 {
		return nil
	}

	var actions []OrderAction
	for _, o := range stale {
		actions = append(actions, OrderAction{Kind: ActionCancel, Side: o.Side, OrderID: o.ID})
		cancelled[o.ID] = true
	}

	size := pos.SumOpen
	if size.LessThan(snap.MinOrderSize) {
		// Dust guard: grow the position to the minimum so the next cycle
		// can close it, instead of leaving an unfillable residual
		flipSide := exchange.OrderSideBuy
		flipPrice := snap.BestBid()
		if side == strategy.SideShort {
			flipSide = exchange.OrderSideSell
			flipPrice = snap.BestAsk()
		}
		actions = append(actions, OrderAction{
			Kind:     ActionCreate,
			Side:     flipSide,
			Type:     exchange.OrderTypeLimit,
			Price:    flipPrice,
			Size:     snap.MinOrderSize,
			PostOnly: true,
		})
		return actions
	}

	actions = append(actions, OrderAction{
		Kind:     ActionCreate,
		Side:     closeSide,
		Type:     exchange.OrderTypeLimit,
		Price:    closePrice,
		Size:     size,
		PostOnly: true,
	})
	return actions
}

// planEntry cancels stale same-side orders and places one post-only limit at
// the best same-side price. An order already resting at that price satisfies
// the entry and produces no actions.
func (r *Reconciler) planEntry(snap *marketdata.Snapshot, sig strategy.Signals, side strategy.Side, cancelled map[string]bool) []OrderAction {
	var entry bool
	var pos *exchange.Position
	var posSide exchange.PositionSide
	var orderSide exchange.OrderSide
	var price decimal.Decimal
	var resting []exchange.Order

	if side == strategy.SideLong {
		entry, pos = sig.Long.Entry, snap.Long
		posSide, orderSide = exchange.PositionLong, exchange.OrderSideBuy
		price, resting = snap.BestBid(), snap.BuyOrders
	} else {
		entry, pos = sig.Short.Entry, snap.Short
		posSide, orderSide = exchange.PositionShort, exchange.OrderSideSell
		price, resting = snap.BestAsk(), snap.SellOrders
	}

	if !entry || pos != nil {
		return nil
	}
	if !risk.AllowEntry(snap.OpenPositions, posSide, r.cfg.MaxPositions, r.cfg.MaxPositionsPerSide) {
		r.logger.Info("entry rejected by position caps",
			zap.String("market", snap.Market),
			zap.String("side", string(side)),
			zap.Int("open_positions", len(snap.OpenPositions)))
		return nil
	}

	size := risk.TargetSize(snap.Equity, snap.IndexPrice, snap.StepSize, snap.MinOrderSize, r.cfg.MaxEquityRatio(), r.cfg.MaxPositionNotional)
	if !size.IsPositive() {
		return nil
	}

	for _, o := range resting {
		if !cancelled[o.ID] && o.Price.Equal(price) && o.Size.Equal(size) {
			// Already satisfied by a resting order; it sits at the best
			// price, so maintenance leaves it alone too
			return nil
		}
	}

	var actions []OrderAction
	for _, o := range resting {
		if cancelled[o.ID] {
			continue
		}
		actions = append(actions, OrderAction{Kind: ActionCancel, Side: o.Side, OrderID: o.ID})
		cancelled[o.ID] = true
	}

	actions = append(actions, OrderAction{
		Kind:     ActionCreate,
		Side:     orderSide,
		Type:     exchange.OrderTypeLimit,
		Price:    price,
		Size:     size,
		PostOnly: true,
	})
	return actions
}

// planMaintenance repegs surviving resting limit orders to the current best
// price on their side. An order already at that price produces no action.
func (r *Reconciler) planMaintenance(snap *marketdata.Snapshot, cancelled map[string]bool) []OrderAction {
	var actions []OrderAction
	repeg := func(orders []exchange.Order, best decimal.Decimal) {
		for _, o := range orders {
			if cancelled[o.ID] || o.Type != exchange.OrderTypeLimit {
				continue
			}
			if o.Price.Equal(best) {
				continue
			}
			actions = append(actions, OrderAction{
				Kind:     ActionReplace,
				Side:     o.Side,
				Type:     exchange.OrderTypeLimit,
				Price:    best,
				Size:     o.Size,
				PostOnly: true,
				OrderID:  o.ID,
			})
		}
	}
	repeg(snap.BuyOrders, snap.BestBid())
	repeg(snap.SellOrders, snap.BestAsk())
	return actions
}

// bookLevel returns the price depth levels into the book, clamped to the
// last available level
func bookLevel(levels []exchange.OrderbookLevel, depth int) decimal.Decimal {
	if len(levels) == 0 {
		return decimal.Zero
	}
	if depth >= len(levels) {
		depth = len(levels) - 1
	}
	return levels[depth].Price
}
