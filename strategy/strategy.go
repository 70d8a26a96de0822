package strategy

import (
	"errors"
	"fmt"
	"time"

	"meanrev-trading-bot/exchange"
	"meanrev-trading-bot/marketdata"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrConfigInvalid marks a configuration rejected at startup. It is the only
// error class fatal to the whole process.
var ErrConfigInvalid = errors.New("strategy: invalid config")

// Type identifies a strategy variant. The set is closed; variants are
// selected by configuration at startup, never by dynamic lookup.
type Type string

const (
	TypeBollingerReversion Type = "BOLLINGER_REVERSION"
)

// Side represents the position direction a signal set applies to
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// State is the per-(market, side) position lifecycle, derived fresh each
// cycle from the snapshot rather than carried across cycles.
type State string

const (
	StateFlat         State = "FLAT"
	StateEntryPending State = "ENTRY_PENDING"
	StateOpen         State = "OPEN"
	StateExitPending  State = "EXIT_PENDING"
	StateStopped      State = "STOPPED"
)

// SignalSet holds the per-side decisions for one evaluation cycle. At most
// one of the three is actionable; when Stop and Exit both fire, Stop wins
// and Exit is suppressed before the set leaves the evaluator.
type SignalSet struct {
	Entry bool `json:"entry"`
	Exit  bool `json:"exit"`
	Stop  bool `json:"stop"`
}

// Signals is the full evaluator output for one market. Volatility is the
// trailing close stdev observed at evaluation time; the engine records it as
// the carried volatility target when an entry is placed.
type Signals struct {
	Long       SignalSet `json:"long"`
	Short      SignalSet `json:"short"`
	Volatility float64   `json:"volatility"`
}

// Config is the immutable per-instance strategy configuration
type Config struct {
	Type       Type     `json:"type"`
	Markets    []string `json:"markets"`
	Resolution string   `json:"resolution"`

	// Indicator parameters
	CandleLimit      int     `json:"candle_limit"`
	BollingerLength  int     `json:"bollinger_length"`
	BollingerNumStd  float64 `json:"bollinger_num_std"`
	RSILength        int     `json:"rsi_length"`
	RSIThreshold     float64 `json:"rsi_threshold"` // fraction of 100, e.g. 0.3

	// Exit and stop parameters
	TakeProfitBandFraction float64         `json:"take_profit_band_fraction"`
	StopLossDelta          decimal.Decimal `json:"stop_loss_delta"`

	// Position and risk caps
	MaxPositions        int             `json:"max_positions"`
	MaxPositionsPerSide int             `json:"max_positions_per_side"`
	MaxRiskFraction     decimal.Decimal `json:"max_risk_fraction"`
	MaxPositionNotional decimal.Decimal `json:"max_position_notional"`

	// Order parameters
	OrderExpiration time.Duration `json:"order_expiration"`
	StopBookDepth   int           `json:"stop_book_depth"`
	LimitFee        string        `json:"limit_fee"`
	StopLimitFee    string        `json:"stop_limit_fee"`
}

// DefaultConfig returns the configuration the original deployment ran with
func DefaultConfig() Config {
	return Config{
		Type:                   TypeBollingerReversion,
		Resolution:             "1HOUR",
		CandleLimit:            100,
		BollingerLength:        20,
		BollingerNumStd:        2,
		RSILength:              14,
		RSIThreshold:           0.3,
		TakeProfitBandFraction: 0.1,
		StopLossDelta:          decimal.NewFromFloat(0.2),
		MaxPositions:           5,
		MaxPositionsPerSide:    3,
		MaxRiskFraction:        decimal.NewFromFloat(0.02),
		MaxPositionNotional:    decimal.NewFromInt(10000),
		OrderExpiration:        time.Hour,
		StopBookDepth:          10,
		LimitFee:               "0.0005",
		StopLimitFee:           "0.002",
	}
}

// Validate fails fast on non-positive lengths and thresholds so that a bad
// config never reaches cycle time.
func (c Config) Validate() error {
	if len(c.Markets) == 0 {
		return fmt.Errorf("%w: no markets configured", ErrConfigInvalid)
	}
	if c.Resolution == "" {
		return fmt.Errorf("%w: empty candle resolution", ErrConfigInvalid)
	}
	if c.CandleLimit <= 0 {
		return fmt.Errorf("%w: candle limit %d", ErrConfigInvalid, c.CandleLimit)
	}
	if c.BollingerLength <= 0 {
		return fmt.Errorf("%w: bollinger length %d", ErrConfigInvalid, c.BollingerLength)
	}
	if c.BollingerNumStd <= 0 {
		return fmt.Errorf("%w: bollinger num std %f", ErrConfigInvalid, c.BollingerNumStd)
	}
	if c.RSILength <= 0 {
		return fmt.Errorf("%w: rsi length %d", ErrConfigInvalid, c.RSILength)
	}
	if c.RSIThreshold <= 0 || c.RSIThreshold >= 1 {
		return fmt.Errorf("%w: rsi threshold %f outside (0, 1)", ErrConfigInvalid, c.RSIThreshold)
	}
	if c.TakeProfitBandFraction <= 0 || c.TakeProfitBandFraction >= 1 {
		return fmt.Errorf("%w: take profit band fraction %f outside (0, 1)", ErrConfigInvalid, c.TakeProfitBandFraction)
	}
	if !c.StopLossDelta.IsPositive() {
		return fmt.Errorf("%w: stop loss delta %s must be positive", ErrConfigInvalid, c.StopLossDelta)
	}
	if c.MaxRiskFraction.IsNegative() {
		return fmt.Errorf("%w: max risk fraction %s is negative", ErrConfigInvalid, c.MaxRiskFraction)
	}
	if !c.MaxPositionNotional.IsPositive() {
		return fmt.Errorf("%w: max position notional %s must be positive", ErrConfigInvalid, c.MaxPositionNotional)
	}
	if c.MaxPositions <= 0 || c.MaxPositionsPerSide <= 0 {
		return fmt.Errorf("%w: position caps must be positive", ErrConfigInvalid)
	}
	if c.OrderExpiration <= 0 {
		return fmt.Errorf("%w: order expiration %s", ErrConfigInvalid, c.OrderExpiration)
	}
	if c.StopBookDepth <= 0 {
		return fmt.Errorf("%w: stop book depth %d", ErrConfigInvalid, c.StopBookDepth)
	}
	return nil
}

// MaxEquityRatio is the fraction of equity a single position may commit,
// derived from the risk fraction and the stop distance.
func (c Config) MaxEquityRatio() decimal.Decimal {
	return c.MaxRiskFraction.Div(c.StopLossDelta)
}

// Strategy converts a market snapshot into per-side signals
type Strategy interface {
	Name() Type
	Evaluate(snap *marketdata.Snapshot) (Signals, error)
}

// New selects a strategy variant from the closed set
func New(cfg Config, logger *zap.Logger) (Strategy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Type {
	case TypeBollingerReversion:
		return &bollingerReversion{cfg: cfg, logger: logger}, nil
	default:
		return nil, fmt.Errorf("%w: unknown strategy type %q", ErrConfigInvalid, cfg.Type)
	}
}

// StateFor derives the lifecycle state for one side from the snapshot
func StateFor(snap *marketdata.Snapshot, side Side) State {
	var pos *exchange.Position
	var entryOrders, closeOrders []exchange.Order
	if side == SideLong {
		pos = snap.Long
		entryOrders = snap.BuyOrders
		closeOrders = snap.SellOrders
	} else {
		pos = snap.Short
		entryOrders = snap.SellOrders
		closeOrders = snap.BuyOrders
	}
	switch {
	case pos == nil && len(entryOrders) == 0:
		return StateFlat
	case pos == nil:
		return StateEntryPending
	case len(closeOrders) == 0:
		return StateOpen
	default:
		return StateExitPending
	}
}
