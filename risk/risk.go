package risk

import (
	"meanrev-trading-bot/exchange"

	"github.com/shopspring/decimal"
)

// TargetSize computes the order size for a new entry: the risk-capped
// notional converted to base units, truncated down to the step grid, then
// floored at the exchange minimum. Truncation (never rounding up) keeps the
// committed capital at or below the risk budget.
func TargetSize(equity, indexPrice, stepSize, minOrderSize, maxEquityRatio, maxNotional decimal.Decimal) decimal.Decimal {
	if !indexPrice.IsPositive() || !stepSize.IsPositive() {
		return decimal.Zero
	}
	notional := equity.Mul(maxEquityRatio)
	if notional.GreaterThan(maxNotional) {
		notional = maxNotional
	}
	raw := notional.Div(indexPrice)
	size := raw.Sub(raw.Mod(stepSize))
	if size.LessThan(minOrderSize) {
		size = minOrderSize
	}
	return size
}

// AllowEntry enforces the position-count caps. They are hard caps, violated
// only by a race with an external fill between snapshot and action.
func AllowEntry(openPositions []exchange.Position, side exchange.PositionSide, maxPositions, maxPerSide int) bool {
	if len(openPositions) >= maxPositions {
		return false
	}
	onSide := 0
	for _, p := range openPositions {
		if p.Side == side {
			onSide++
		}
	}
	return onSide < maxPerSide
}
