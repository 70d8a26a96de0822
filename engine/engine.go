package engine

import (
	"context"
	"sync"
	"time"

	"meanrev-trading-bot/marketdata"
	"meanrev-trading-bot/records"
	"meanrev-trading-bot/strategy"

	"go.uber.org/zap"
)

// Engine drives the evaluation loop: on each tick it processes every
// configured market sequentially, snapshot through submission, before the
// next tick may start. An account-wide mutex guarantees consecutive ticks
// never overlap, since both read and mutate the same exchange-side order set.
type Engine struct {
	cfg       strategy.Config
	interval  time.Duration
	assembler *marketdata.Assembler
	strat     strategy.Strategy
	reconcile *Reconciler
	executor  *Executor
	records   *records.Store
	logger    *zap.Logger

	mu sync.Mutex
}

// New wires up an engine from its collaborators
func New(cfg strategy.Config, interval time.Duration, assembler *marketdata.Assembler, strat strategy.Strategy, reconcile *Reconciler, executor *Executor, store *records.Store, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		interval:  interval,
		assembler: assembler,
		strat:     strat,
		reconcile: reconcile,
		executor:  executor,
		records:   store,
		logger:    logger,
	}
}

// Run evaluates all markets once immediately, then on every tick until the
// context is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine started",
		zap.Strings("markets", e.cfg.Markets),
		zap.String("strategy", string(e.strat.Name())),
		zap.Duration("interval", e.interval))

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopped")
			return ctx.Err()
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

// Tick processes every market once. The lock makes the whole pass atomic
// with respect to other ticks; cancellation is honored between markets, a
// single market's reconciliation is a short bounded sequence of calls.
func (e *Engine) Tick(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, market := range e.cfg.Markets {
		if ctx.Err() != nil {
			return
		}
		if err := e.processMarket(ctx, market); err != nil {
			// Errors local to one market never abort the others
			e.logger.Error("market cycle failed",
				zap.String("market", market),
				zap.String("reason", "DataUnavailable"),
				zap.Error(err))
		}
	}
}

func (e *Engine) processMarket(ctx context.Context, market string) error {
	snap, err := e.assembler.Take(ctx, market, e.cfg.Resolution, e.cfg.CandleLimit)
	if err != nil {
		return err
	}

	if prev, ok, err := e.records.Load(market); err != nil {
		e.logger.Warn("volatility record unavailable",
			zap.String("market", market),
			zap.Error(err))
	} else if ok {
		e.logger.Debug("carried volatility target",
			zap.String("market", market),
			zap.Float64("target_sigma", prev))
	}

	sig, err := e.strat.Evaluate(snap)
	if err != nil {
		return err
	}

	e.logger.Debug("side states",
		zap.String("market", market),
		zap.String("long", string(strategy.StateFor(snap, strategy.SideLong))),
		zap.String("short", string(strategy.StateFor(snap, strategy.SideShort))))

	actions := e.reconcile.Plan(snap, sig)
	if len(actions) == 0 {
		return nil
	}

	if err := e.executor.Apply(ctx, market, snap.PositionID, actions); err != nil {
		// Individual action failures were already logged and skipped;
		// surfacing them here is informational only
		e.logger.Warn("cycle completed with failed actions",
			zap.String("market", market),
			zap.Error(err))
	}

	if sig.Long.Entry || sig.Short.Entry {
		if err := e.records.Save(market, sig.Volatility); err != nil {
			e.logger.Warn("volatility record not saved",
				zap.String("market", market),
				zap.Error(err))
		}
	}
	return nil
}
