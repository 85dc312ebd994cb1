package indicator

import (
	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"
)

// sliceIndicator exposes a float series as a techan.Indicator so techan's
// moving averages can run over any column (close prices or volume).
type sliceIndicator []float64

func (s sliceIndicator) Calculate(index int) big.Decimal {
	return big.NewDecimal(s[index])
}

// techanSMA computes a simple moving average with techan. values must not
// contain undefined entries; positions before length-1 are left as techan
// reports them and are masked by the caller.
func techanSMA(values []float64, length int) []float64 {
	out := make([]float64, len(values))
	sma := techan.NewSimpleMovingAverage(sliceIndicator(values), length)
	for i := length - 1; i < len(values); i++ {
		out[i] = sma.Calculate(i).Float()
	}
	return out
}
