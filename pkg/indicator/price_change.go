package indicator

import talib "github.com/markcheno/go-talib"

// ROC calculates the percentage rate of change over period:
// ((value / value period ago) - 1) * 100
func ROC(values []float64, period int) []float64 {
	if period < 1 {
		return undefined(len(values))
	}
	return onDefined(values, period, func(tail []float64) []float64 {
		return talib.Roc(tail, period)
	})
}

// WMA calculates the linearly Weighted Moving Average over length periods
func WMA(values []float64, length int) []float64 {
	if length < 1 {
		return undefined(len(values))
	}
	return onDefined(values, length-1, func(tail []float64) []float64 {
		return talib.Wma(tail, length)
	})
}
