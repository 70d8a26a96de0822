package strategy

import (
	"fmt"

	"meanrev-trading-bot/indicators"
	"meanrev-trading-bot/marketdata"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var one = decimal.NewFromInt(1)

// bollingerReversion is the mean-reversion variant: enter when momentum is
// oversold (overbought for shorts) and price sits outside the volatility
// band, take profit once price reclaims 10% of the band width, stop out on a
// fixed fractional loss from entry.
type bollingerReversion struct {
	cfg    Config
	logger *zap.Logger
}

func (b *bollingerReversion) Name() Type {
	return TypeBollingerReversion
}

func (b *bollingerReversion) Evaluate(snap *marketdata.Snapshot) (Signals, error) {
	if len(snap.Closes) == 0 {
		return Signals{}, fmt.Errorf("strategy: snapshot for %s has no candles", snap.Market)
	}

	boll := indicators.Bollinger(snap.Closes, b.cfg.BollingerLength, b.cfg.BollingerNumStd)
	rsi := indicators.RSI(snap.Closes, b.cfg.RSILength)

	last := len(snap.Closes) - 1
	band := boll[last]
	lastClose := snap.Closes[last]
	mid := snap.MidPrice.InexactFloat64()
	rsiLast := rsi[last]

	var sig Signals
	sig.Volatility = (band.Upper - band.SMA) / b.cfg.BollingerNumStd

	// Entry needs a valid RSI, which the first candle never has
	if indicators.Valid(rsiLast) {
		oversold := rsiLast < b.cfg.RSIThreshold*100
		overbought := rsiLast > 100-b.cfg.RSIThreshold*100
		sig.Long.Entry = snap.Long == nil &&
			oversold &&
			lastClose < band.Lower &&
			mid <= lastClose
		sig.Short.Entry = snap.Short == nil &&
			overbought &&
			lastClose > band.Upper &&
			mid >= lastClose
	}

	// Take profit once price reclaims a fraction of the band width; the
	// offset is hysteresis against band-boundary noise
	if snap.Long != nil {
		sig.Long.Exit = mid > band.Lower+(band.SMA-band.Lower)*b.cfg.TakeProfitBandFraction
		stopPrice := snap.Long.EntryPrice.Mul(one.Sub(b.cfg.StopLossDelta))
		sig.Long.Stop = snap.MidPrice.LessThan(stopPrice)
	}
	if snap.Short != nil {
		sig.Short.Exit = mid < band.Upper-(band.Upper-band.SMA)*b.cfg.TakeProfitBandFraction
		stopPrice := snap.Short.EntryPrice.Mul(one.Add(b.cfg.StopLossDelta))
		sig.Short.Stop = snap.MidPrice.GreaterThan(stopPrice)
	}

	// Stop is the capital-preservation action; it always suppresses exit
	if sig.Long.Stop {
		sig.Long.Exit = false
	}
	if sig.Short.Stop {
		sig.Short.Exit = false
	}

	b.logger.Debug("signals evaluated",
		zap.String("market", snap.Market),
		zap.Float64("rsi", rsiLast),
		zap.Float64("band_lower", band.Lower),
		zap.Float64("band_upper", band.Upper),
		zap.Float64("last_close", lastClose),
		zap.Float64("mid", mid),
		zap.Bool("long_entry", sig.Long.Entry),
		zap.Bool("long_exit", sig.Long.Exit),
		zap.Bool("long_stop", sig.Long.Stop),
		zap.Bool("short_entry", sig.Short.Entry),
		zap.Bool("short_exit", sig.Short.Exit),
		zap.Bool("short_stop", sig.Short.Stop))

	return sig, nil
}
