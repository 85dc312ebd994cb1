package indicator

import talib "github.com/markcheno/go-talib"

// EMA calculates the Exponential Moving Average of values over length periods.
// Multiplier = 2 / (period + 1); the first value is seeded with the SMA of the
// first length observations.
func EMA(values []float64, length int) []float64 {
	if length < 1 {
		return undefined(len(values))
	}
	return onDefined(values, length-1, func(tail []float64) []float64 {
		return talib.Ema(tail, length)
	})
}
