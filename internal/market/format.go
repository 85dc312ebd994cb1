package market

import (
	"fmt"
	"math"
)

var magnitudeSuffixes = []string{"", "K", "M", "G", "T", "P"}

// FormatNumber renders num with two decimals and a thousands suffix,
// e.g. 1234567 -> "1.23M"
func FormatNumber(num float64) string {
	magnitude := 0
	for math.Abs(num) >= 1000 && magnitude < len(magnitudeSuffixes)-1 {
		magnitude++
		num /= 1000
	}
	return fmt.Sprintf("%.2f%s", num, magnitudeSuffixes[magnitude])
}
