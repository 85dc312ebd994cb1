package indicator

import (
	"math"
)

// IsDefined reports whether v holds a usable value
func IsDefined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Last returns the value offset periods before the most recent one
// (offset 0 is the last element). ok is false when the index is out of range
// or the value is undefined.
func Last(values []float64, offset int) (float64, bool) {
	idx := len(values) - 1 - offset
	if offset < 0 || idx < 0 {
		return math.NaN(), false
	}
	v := values[idx]
	if !IsDefined(v) {
		return v, false
	}
	return v, true
}

// undefined returns a series of n NaN values
func undefined(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// leadingUndefined counts the run of undefined values at the start of values
func leadingUndefined(values []float64) int {
	for i, v := range values {
		if IsDefined(v) {
			return i
		}
	}
	return len(values)
}

// clean reports whether every value of the slice is defined
func clean(values []float64) bool {
	for _, v := range values {
		if !IsDefined(v) {
			return false
		}
	}
	return true
}

// onDefined runs fn over the defined tail of values and maps the result back
// onto the original positions. The first lookback outputs of the tail stay
// undefined, as does everything when the tail is not longer than lookback.
func onDefined(values []float64, lookback int, fn func([]float64) []float64) []float64 {
	out := undefined(len(values))
	start := leadingUndefined(values)
	tail := values[start:]
	if len(tail) <= lookback || !clean(tail) {
		return out
	}
	res := fn(tail)
	for i := lookback; i < len(tail) && i < len(res); i++ {
		out[start+i] = res[i]
	}
	return out
}

// rollingMean is a trailing arithmetic mean that is undefined whenever any
// value in the window is undefined.
func rollingMean(values []float64, window int) []float64 {
	out := undefined(len(values))
	if window < 1 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		ok := true
		for j := i - window + 1; j <= i; j++ {
			if !IsDefined(values[j]) {
				ok = false
				break
			}
			sum += values[j]
		}
		if ok {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// rollingRange returns the trailing min and max over window. A window holding
// an undefined value yields undefined bounds.
func rollingRange(values []float64, window int) (lo, hi []float64) {
	lo = undefined(len(values))
	hi = undefined(len(values))
	if window < 1 {
		return lo, hi
	}
	for i := window - 1; i < len(values); i++ {
		minV, maxV := math.Inf(1), math.Inf(-1)
		ok := true
		for j := i - window + 1; j <= i; j++ {
			v := values[j]
			if !IsDefined(v) {
				ok = false
				break
			}
			minV = math.Min(minV, v)
			maxV = math.Max(maxV, v)
		}
		if ok {
			lo[i] = minV
			hi[i] = maxV
		}
	}
	return lo, hi
}
