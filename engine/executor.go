package engine

import (
	"context"
	"errors"
	"time"

	"meanrev-trading-bot/exchange"
	"meanrev-trading-bot/strategy"

	"go.uber.org/zap"
)

// Executor applies a planned action list against the exchange. Failures are
// isolated per action: a rejected post-only order or a failed cancel is
// logged and the remaining actions still run, so one bad order never stalls
// the market's reconciliation. The next scheduled cycle corrects whatever
// this one could not.
type Executor struct {
	client exchange.Client
	cfg    strategy.Config
	logger *zap.Logger
}

// NewExecutor creates an executor over the given client
func NewExecutor(client exchange.Client, cfg strategy.Config, logger *zap.Logger) *Executor {
	return &Executor{client: client, cfg: cfg, logger: logger}
}

// Apply runs the actions in order. The returned error aggregates individual
// failures for the caller's log; it never indicates a partial abort.
func (x *Executor) Apply(ctx context.Context, market, positionID string, actions []OrderAction) error {
	var errs []error
	for _, a := range actions {
		var err error
		switch a.Kind {
		case ActionCancel:
			err = x.cancel(ctx, market, a)
		case ActionCreate:
			err = x.create(ctx, market, positionID, a, "")
		case ActionReplace:
			err = x.create(ctx, market, positionID, a, a.OrderID)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (x *Executor) cancel(ctx context.Context, market string, a OrderAction) error {
	err := x.client.CancelOrder(ctx, a.OrderID)
	if errors.Is(err, exchange.ErrOrderNotFound) {
		// Already filled or cancelled; the goal state holds
		x.logger.Debug("cancel target already gone",
			zap.String("market", market),
			zap.String("order_id", a.OrderID))
		return nil
	}
	if err != nil {
		x.logger.Error("cancel failed",
			zap.String("market", market),
			zap.String("order_id", a.OrderID),
			zap.String("reason", "CancelFailed"),
			zap.Error(err))
		return err
	}
	x.logger.Info("order cancelled",
		zap.String("market", market),
		zap.String("order_id", a.OrderID))
	return nil
}

func (x *Executor) create(ctx context.Context, market, positionID string, a OrderAction, cancelID string) error {
	params := exchange.OrderParams{
		PositionID:  positionID,
		Market:      market,
		Side:        a.Side,
		Type:        a.Type,
		PostOnly:    a.PostOnly,
		Size:        a.Size,
		Price:       a.Price,
		LimitFee:    x.cfg.LimitFee,
		TimeInForce: a.TimeInForce,
		Expiration:  time.Now().Add(x.cfg.OrderExpiration),
		CancelID:    cancelID,
	}
	if a.Type == exchange.OrderTypeMarket {
		params.LimitFee = x.cfg.StopLimitFee
	}

	orderID, err := x.client.CreateOrder(ctx, params)
	if errors.Is(err, exchange.ErrWouldPostCross) {
		// Not retried inline; the next cycle re-evaluates the book
		x.logger.Info("post-only order would cross, skipped",
			zap.String("market", market),
			zap.String("side", string(a.Side)),
			zap.String("price", a.Price.String()),
			zap.String("reason", "OrderRejected"))
		return nil
	}
	if err != nil {
		x.logger.Error("order submission failed",
			zap.String("market", market),
			zap.String("side", string(a.Side)),
			zap.String("type", string(a.Type)),
			zap.String("size", a.Size.String()),
			zap.String("price", a.Price.String()),
			zap.String("reason", "OrderRejected"),
			zap.Error(err))
		return err
	}

	x.logger.Info("order submitted",
		zap.String("market", market),
		zap.String("kind", string(a.Kind)),
		zap.String("side", string(a.Side)),
		zap.String("type", string(a.Type)),
		zap.String("size", a.Size.String()),
		zap.String("price", a.Price.String()),
		zap.String("order_id", orderID),
		zap.String("replaces", cancelID))
	return nil
}
