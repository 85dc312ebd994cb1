package indicator

import "fmt"

// MAType selects the smoothing variant of a moving average
type MAType int

const (
	// Simple is the arithmetic mean of the trailing window
	Simple MAType = iota
	// Exponential weights recent observations by 2/(length+1)
	Exponential
)

// String returns the short name used in cache keys and logs
func (t MAType) String() string {
	switch t {
	case Simple:
		return "sma"
	case Exponential:
		return "ema"
	default:
		return fmt.Sprintf("matype(%d)", int(t))
	}
}

// MovingAverage computes a moving average of the given type. values can be
// any scalar column (close prices, volume).
func MovingAverage(values []float64, length int, maType MAType) []float64 {
	switch maType {
	case Exponential:
		return EMA(values, length)
	default:
		return SMA(values, length)
	}
}

// Label returns the conventional key of a moving average, e.g. "ma10"
func Label(length int) string {
	return fmt.Sprintf("ma%d", length)
}
