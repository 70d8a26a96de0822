package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBollingerNarrowedWindow(t *testing.T) {
	closes := []float64{100, 102, 104, 106}
	out := Bollinger(closes, 20, 2)
	require.Len(t, out, len(closes))

	// Window of size 1: stdev is 0 by convention, never NaN
	assert.Equal(t, 100.0, out[0].SMA)
	assert.Equal(t, 100.0, out[0].Lower)
	assert.Equal(t, 100.0, out[0].Upper)

	for i, p := range out {
		assert.False(t, math.IsNaN(p.SMA), "sma NaN at %d", i)
		assert.False(t, math.IsNaN(p.Lower), "lower NaN at %d", i)
		assert.False(t, math.IsNaN(p.Upper), "upper NaN at %d", i)
		assert.LessOrEqual(t, p.Lower, p.SMA)
		assert.GreaterOrEqual(t, p.Upper, p.SMA)
	}
}

func TestBollingerSampleStdev(t *testing.T) {
	// mean 102, sample stdev 2 over {100, 102, 104}
	out := Bollinger([]float64{100, 102, 104}, 3, 2)
	last := out[2]
	assert.InDelta(t, 102.0, last.SMA, 1e-9)
	assert.InDelta(t, 102.0-2*2.0, last.Lower, 1e-9)
	assert.InDelta(t, 102.0+2*2.0, last.Upper, 1e-9)
}

func TestBollingerTrailingWindow(t *testing.T) {
	closes := []float64{1, 1, 1, 1, 50, 50, 50}
	out := Bollinger(closes, 3, 2)
	// Last window is {50, 50, 50}: flat, stdev 0
	assert.Equal(t, 50.0, out[6].SMA)
	assert.Equal(t, 50.0, out[6].Lower)
	assert.Equal(t, 50.0, out[6].Upper)
}

func TestBollingerEmptyInput(t *testing.T) {
	assert.Nil(t, Bollinger(nil, 20, 2))
}

func TestRSIFirstValueInvalid(t *testing.T) {
	out := RSI([]float64{100, 101, 99}, 14)
	require.Len(t, out, 3)
	assert.False(t, Valid(out[0]))
	assert.True(t, Valid(out[1]))
	assert.True(t, Valid(out[2]))
}

func TestRSIBounds(t *testing.T) {
	closes := []float64{100, 103, 99, 104, 97, 105, 101, 98, 106, 102}
	out := RSI(closes, 14)
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i], 0.0, "index %d", i)
		assert.LessOrEqual(t, out[i], 100.0, "index %d", i)
	}
}

func TestRSIAllGains(t *testing.T) {
	// 15 strictly increasing closes, length 14: no losses ever, RSI pegs at 100
	closes := make([]float64, 15)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	out := RSI(closes, 14)
	assert.Equal(t, 100.0, out[len(out)-1])
}

func TestRSIAllLosses(t *testing.T) {
	closes := []float64{100, 99, 98, 97, 96}
	out := RSI(closes, 14)
	for i := 1; i < len(out); i++ {
		assert.Equal(t, 0.0, out[i])
	}
}

func TestRSISingleClose(t *testing.T) {
	out := RSI([]float64{100}, 14)
	require.Len(t, out, 1)
	assert.False(t, Valid(out[0]))
}
