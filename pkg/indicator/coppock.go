package indicator

// Coppock calculates the Coppock curve with the reference 14/11/10 periods
func Coppock(values []float64) []float64 {
	return CoppockWith(values, 14, 11, 10)
}

// CoppockWith calculates WMA(wma) of ROC(long) + ROC(short), both rates of
// change in percent.
func CoppockWith(values []float64, long, short, wma int) []float64 {
	rocLong := ROC(values, long)
	rocShort := ROC(values, short)

	sum := undefined(len(values))
	for i := range values {
		if IsDefined(rocLong[i]) && IsDefined(rocShort[i]) {
			sum[i] = rocLong[i] + rocShort[i]
		}
	}
	return WMA(sum, wma)
}
