package indicator

// SMA calculates the Simple Moving Average of values over length periods.
// SMA = Sum of values over period / period
//
// Output is aligned with values and undefined (NaN) until length defined
// observations exist.
func SMA(values []float64, length int) []float64 {
	if length < 1 {
		return undefined(len(values))
	}
	return onDefined(values, length-1, func(tail []float64) []float64 {
		return techanSMA(tail, length)
	})
}
