package risk

import (
	"testing"

	"meanrev-trading-bot/exchange"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestTargetSizeScenario(t *testing.T) {
	// equity 10000, ratio 0.1, index 2000 -> raw 0.5, already step-aligned
	size := TargetSize(d("10000"), d("2000"), d("0.001"), d("0.01"), d("0.1"), d("10000"))
	assert.True(t, size.Equal(d("0.5")), "got %s", size)
}

func TestTargetSizeStepTruncation(t *testing.T) {
	// raw = 1000/3000 = 0.3333...; truncated down to the 0.001 grid
	size := TargetSize(d("10000"), d("3000"), d("0.001"), d("0.01"), d("0.1"), d("10000"))
	assert.True(t, size.Equal(d("0.333")), "got %s", size)
	assert.True(t, size.Mod(d("0.001")).IsZero())
}

func TestTargetSizeNotionalCap(t *testing.T) {
	// equity*ratio = 50000 capped at 10000 -> 10000/2000 = 5
	size := TargetSize(d("500000"), d("2000"), d("0.001"), d("0.01"), d("0.1"), d("10000"))
	assert.True(t, size.Equal(d("5")), "got %s", size)
}

func TestTargetSizeMinimumFloor(t *testing.T) {
	size := TargetSize(d("10"), d("2000"), d("0.001"), d("0.01"), d("0.1"), d("10000"))
	assert.True(t, size.Equal(d("0.01")), "got %s", size)
}

func TestTargetSizeMonotoneInEquity(t *testing.T) {
	prev := decimal.Zero
	for _, equity := range []string{"100", "1000", "5000", "10000", "50000"} {
		size := TargetSize(d(equity), d("2000"), d("0.001"), d("0.01"), d("0.1"), d("10000"))
		assert.True(t, size.GreaterThanOrEqual(prev), "equity %s: %s < %s", equity, size, prev)
		prev = size
	}
}

func TestTargetSizeDegenerateInputs(t *testing.T) {
	assert.True(t, TargetSize(d("10000"), decimal.Zero, d("0.001"), d("0.01"), d("0.1"), d("10000")).IsZero())
	assert.True(t, TargetSize(d("10000"), d("2000"), decimal.Zero, d("0.01"), d("0.1"), d("10000")).IsZero())
}

func TestAllowEntryCaps(t *testing.T) {
	long := exchange.Position{Side: exchange.PositionLong}
	short := exchange.Position{Side: exchange.PositionShort}

	tests := []struct {
		name      string
		positions []exchange.Position
		side      exchange.PositionSide
		max       int
		maxSide   int
		want      bool
	}{
		{"empty", nil, exchange.PositionLong, 5, 3, true},
		{"total cap hit", []exchange.Position{long, short, long, short, long}, exchange.PositionLong, 5, 3, false},
		{"side cap hit", []exchange.Position{long, long, long}, exchange.PositionLong, 5, 3, false},
		{"other side full", []exchange.Position{short, short, short}, exchange.PositionLong, 5, 3, true},
		{"under caps", []exchange.Position{long, short}, exchange.PositionShort, 5, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AllowEntry(tt.positions, tt.side, tt.max, tt.maxSide))
		})
	}
}
