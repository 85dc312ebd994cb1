package indicator

import talib "github.com/markcheno/go-talib"

// RSI calculates the Relative Strength Index with Wilder's smoothing.
// RSI = 100 - (100 / (1 + RS)), RS = Average Gain / Average Loss
//
// The first period outputs are undefined.
func RSI(values []float64, period int) []float64 {
	if period < 2 {
		return undefined(len(values))
	}
	return onDefined(values, period, func(tail []float64) []float64 {
		return talib.Rsi(tail, period)
	})
}

// StochRSIParams holds the windows of the stochastic RSI
type StochRSIParams struct {
	RSI   int // RSI period
	Stoch int // rolling min/max window over the RSI
	K     int // %K smoothing
	D     int // %D smoothing of %K
}

// DefaultStochRSIParams returns the reference 14/14/3/3 windows
func DefaultStochRSIParams() StochRSIParams {
	return StochRSIParams{RSI: 14, Stoch: 14, K: 3, D: 3}
}

// StochRSI calculates the stochastic RSI with the default windows.
// Both %K and %D are bounded in [0,1].
func StochRSI(values []float64) (k, d []float64) {
	return StochRSIWith(values, DefaultStochRSIParams())
}

// StochRSIWith calculates the stochastic RSI:
// raw = (RSI - min(RSI)) / (max(RSI) - min(RSI)) over p.Stoch periods,
// %K = SMA(raw, p.K), %D = SMA(%K, p.D).
// A window where the RSI did not move is undefined.
func StochRSIWith(values []float64, p StochRSIParams) (k, d []float64) {
	rsi := RSI(values, p.RSI)
	lo, hi := rollingRange(rsi, p.Stoch)

	raw := undefined(len(values))
	for i := range rsi {
		if !IsDefined(lo[i]) || !IsDefined(rsi[i]) {
			continue
		}
		span := hi[i] - lo[i]
		if span == 0 {
			continue
		}
		raw[i] = (rsi[i] - lo[i]) / span
	}

	k = rollingMean(raw, p.K)
	d = rollingMean(k, p.D)
	return k, d
}
