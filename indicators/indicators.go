package indicators

import "math"

// BollingerPoint is one element of a Bollinger Band series: the trailing
// simple moving average and the volatility envelope around it.
type BollingerPoint struct {
	Lower float64 `json:"lower"`
	SMA   float64 `json:"sma"`
	Upper float64 `json:"upper"`
}

// Bollinger computes a Bollinger Band series over closes, aligned 1:1 with
// the input. Element i uses the trailing window of up to length closes ending
// at i; the window narrows at the start of the series (minimum size 1). The
// standard deviation is sample stdev (N-1 divisor); a window of size 1 yields
// stdev 0, never NaN.
func Bollinger(closes []float64, length int, numStdev float64) []BollingerPoint {
	if len(closes) == 0 {
		return nil
	}
	out := make([]BollingerPoint, len(closes))
	for i := range closes {
		start := i - length + 1
		if start < 0 {
			start = 0
		}
		window := closes[start : i+1]
		sma := mean(window)
		sd := sampleStdev(window, sma)
		out[i] = BollingerPoint{
			Lower: sma - numStdev*sd,
			SMA:   sma,
			Upper: sma + numStdev*sd,
		}
	}
	return out
}

// RSI computes an exponentially-weighted Relative Strength Index series over
// closes, aligned 1:1 with the input. Smoothing uses the center-of-mass
// convention: alpha = 1/(1+length), applied from the second delta onward.
// When the average loss is zero the value is 100. Index 0 has no prior delta
// and is emitted as NaN; callers must gate reads with Valid.
func RSI(closes []float64, length int) []float64 {
	if len(closes) == 0 {
		return nil
	}
	out := make([]float64, len(closes))
	out[0] = math.NaN()
	if len(closes) == 1 {
		return out
	}
	alpha := 1.0 / (1.0 + float64(length))
	var avgGain, avgLoss float64
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		var gain, loss float64
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		if i == 1 {
			avgGain = gain
			avgLoss = loss
		} else {
			avgGain += alpha * (gain - avgGain)
			avgLoss += alpha * (loss - avgLoss)
		}
		if avgLoss == 0 {
			out[i] = 100
		} else {
			rs := avgGain / avgLoss
			out[i] = 100 - 100/(1+rs)
		}
	}
	return out
}

// Valid reports whether an RSI value is meaningful (index 0 is NaN).
func Valid(v float64) bool {
	return !math.IsNaN(v)
}

func mean(window []float64) float64 {
	sum := 0.0
	for _, v := range window {
		sum += v
	}
	return sum / float64(len(window))
}

func sampleStdev(window []float64, mean float64) float64 {
	if len(window) < 2 {
		return 0
	}
	variance := 0.0
	for _, v := range window {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(window) - 1)
	return math.Sqrt(variance)
}
