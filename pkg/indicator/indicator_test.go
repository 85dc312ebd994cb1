package indicator

import (
	"math"
	"testing"
)

const tolerance = 1e-9

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func series(from, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + step*float64(i)
	}
	return out
}

func countUndefined(values []float64) int {
	n := 0
	for _, v := range values {
		if !IsDefined(v) {
			n++
		}
	}
	return n
}

func TestSMA(t *testing.T) {
	got := SMA([]float64{1, 2, 3, 4, 5}, 3)
	want := []float64{math.NaN(), math.NaN(), 2, 3, 4}

	if len(got) != len(want) {
		t.Fatalf("Expected %d values, got %d", len(want), len(got))
	}
	for i := 0; i < 2; i++ {
		if IsDefined(got[i]) {
			t.Errorf("Expected undefined at %d, got %f", i, got[i])
		}
	}
	for i := 2; i < len(want); i++ {
		if !almostEqual(got[i], want[i], 1e-6) {
			t.Errorf("SMA[%d]: expected %f, got %f", i, want[i], got[i])
		}
	}
}

func TestSMA_InsufficientHistory(t *testing.T) {
	got := SMA([]float64{1, 2, 3}, 30)
	if len(got) != 3 {
		t.Fatalf("Expected 3 values, got %d", len(got))
	}
	if countUndefined(got) != 3 {
		t.Errorf("Expected all values undefined, got %v", got)
	}

	if got := SMA(nil, 10); len(got) != 0 {
		t.Errorf("Expected empty output, got %v", got)
	}
	if got := SMA([]float64{1, 2}, 0); countUndefined(got) != 2 {
		t.Errorf("Expected undefined output for length 0, got %v", got)
	}
}

func TestSMA_LeadingUndefinedInput(t *testing.T) {
	in := []float64{math.NaN(), math.NaN(), 2, 4, 6, 8}
	got := SMA(in, 2)

	if countUndefined(got[:3]) != 3 {
		t.Errorf("Expected first three undefined, got %v", got[:3])
	}
	for i, want := range map[int]float64{3: 3, 4: 5, 5: 7} {
		if !almostEqual(got[i], want, 1e-6) {
			t.Errorf("SMA[%d]: expected %f, got %f", i, want, got[i])
		}
	}
}

func TestEMA(t *testing.T) {
	got := EMA([]float64{1, 2, 3, 4, 5}, 3)

	if countUndefined(got[:2]) != 2 {
		t.Errorf("Expected two undefined values, got %v", got[:2])
	}
	// seeded with SMA(1,2,3) = 2, then multiplier 0.5
	want := []float64{2, 3, 4}
	for i, w := range want {
		if !almostEqual(got[i+2], w, tolerance) {
			t.Errorf("EMA[%d]: expected %f, got %f", i+2, w, got[i+2])
		}
	}

	if got := EMA([]float64{1, 2}, 3); countUndefined(got) != 2 {
		t.Errorf("Expected undefined output for short input, got %v", got)
	}
}

func TestMovingAverage_Dispatch(t *testing.T) {
	values := []float64{10, 11, 12, 20, 30, 10, 5}

	simple := MovingAverage(values, 3, Simple)
	exp := MovingAverage(values, 3, Exponential)

	if !almostEqual(simple[6], 15, 1e-6) {
		t.Errorf("Expected simple MA 15, got %f", simple[6])
	}
	if almostEqual(simple[6], exp[6], 1e-6) {
		t.Errorf("Expected exponential MA to differ from simple MA, both %f", exp[6])
	}
	if Label(10) != "ma10" {
		t.Errorf("Expected label 'ma10', got '%s'", Label(10))
	}
	if Simple.String() != "sma" || Exponential.String() != "ema" {
		t.Errorf("Unexpected MAType names %s/%s", Simple, Exponential)
	}
}

func TestRSI_Wilder(t *testing.T) {
	closes := []float64{
		44.34, 44.09, 44.15, 43.61, 44.33, 44.83, 45.10, 45.42, 45.84, 46.08,
		45.89, 46.03, 45.61, 46.28, 46.28, 46.00, 46.03, 46.41, 46.22, 45.64,
	}
	got := RSI(closes, 14)

	if countUndefined(got[:14]) != 14 {
		t.Errorf("Expected first 14 RSI values undefined, got %v", got[:14])
	}
	want := []float64{70.4641, 66.2496, 66.4809, 69.3469, 66.2947, 57.9150}
	for i, w := range want {
		if !almostEqual(got[14+i], w, 1e-3) {
			t.Errorf("RSI[%d]: expected %.4f, got %.4f", 14+i, w, got[14+i])
		}
	}
}

func TestRSI_ShortInput(t *testing.T) {
	got := RSI([]float64{1, 2, 3}, 14)
	if countUndefined(got) != 3 {
		t.Errorf("Expected all undefined, got %v", got)
	}
}

func TestStochRSI_Bounds(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + 10*math.Sin(float64(i)/4) + float64(i%3)
	}

	k, d := StochRSI(closes)
	if len(k) != len(closes) || len(d) != len(closes) {
		t.Fatalf("Expected aligned output, got %d/%d", len(k), len(d))
	}

	// RSI(14) from 14, raw from 27, %K from 29, %D from 31
	if IsDefined(k[28]) || IsDefined(d[30]) {
		t.Errorf("Expected undefined warm-up, got k=%f d=%f", k[28], d[30])
	}
	defined := 0
	for i := range k {
		for _, v := range []float64{k[i], d[i]} {
			if !IsDefined(v) {
				continue
			}
			defined++
			if v < 0 || v > 1 {
				t.Errorf("Stochastic RSI out of [0,1] at %d: %f", i, v)
			}
		}
	}
	if defined == 0 {
		t.Error("Expected defined stochastic RSI values")
	}
}

func TestStochRSI_FlatRSIIsUndefined(t *testing.T) {
	// strictly rising closes pin RSI at 100
	k, d := StochRSI(series(1, 1, 60))
	if v, ok := Last(k, 0); ok {
		t.Errorf("Expected undefined %%K, got %f", v)
	}
	if v, ok := Last(d, 0); ok {
		t.Errorf("Expected undefined %%D, got %f", v)
	}
}

func TestROCAndWMA(t *testing.T) {
	roc := ROC([]float64{10, 11, 12, 15}, 2)
	if IsDefined(roc[1]) {
		t.Errorf("Expected undefined ROC[1], got %f", roc[1])
	}
	if !almostEqual(roc[2], 20, tolerance) || !almostEqual(roc[3], 100*(15.0/11-1), tolerance) {
		t.Errorf("Unexpected ROC values %v", roc)
	}

	wma := WMA([]float64{1, 2, 3}, 3)
	// (1*1 + 2*2 + 3*3) / 6
	if !almostEqual(wma[2], 14.0/6, tolerance) {
		t.Errorf("Expected WMA %f, got %f", 14.0/6, wma[2])
	}
}

func TestCoppock(t *testing.T) {
	closes := series(10, 0.5, 40)
	got := Coppock(closes)

	for i := 0; i < 23; i++ {
		if IsDefined(got[i]) {
			t.Errorf("Expected Coppock undefined at %d, got %f", i, got[i])
		}
	}
	for i := 23; i < len(got); i++ {
		if !IsDefined(got[i]) || got[i] <= 0 {
			t.Errorf("Expected positive Coppock at %d, got %f", i, got[i])
		}
	}

	falling := Coppock(series(100, -1, 40))
	if v, ok := Last(falling, 0); !ok || v >= 0 {
		t.Errorf("Expected negative Coppock for falling prices, got %f", v)
	}
}

func TestLast(t *testing.T) {
	values := []float64{1, math.NaN(), 3}

	if v, ok := Last(values, 0); !ok || v != 3 {
		t.Errorf("Expected (3, true), got (%f, %v)", v, ok)
	}
	if _, ok := Last(values, 1); ok {
		t.Error("Expected undefined value to report false")
	}
	if v, ok := Last(values, 2); !ok || v != 1 {
		t.Errorf("Expected (1, true), got (%f, %v)", v, ok)
	}
	if _, ok := Last(values, 3); ok {
		t.Error("Expected out of range offset to report false")
	}
	if _, ok := Last(values, -1); ok {
		t.Error("Expected negative offset to report false")
	}
	if _, ok := Last(nil, 0); ok {
		t.Error("Expected empty series to report false")
	}
}

func TestCache(t *testing.T) {
	c := NewCache()
	values := series(1, 1, 40)

	calls := 0
	compute := func() []float64 {
		calls++
		return SMA(values, 10)
	}

	first := c.Get(Key("daily.close", "sma", 10), compute)
	second := c.Get(Key("daily.close", "sma", 10), compute)
	if calls != 1 {
		t.Errorf("Expected one computation, got %d", calls)
	}
	if &first[0] != &second[0] {
		t.Error("Expected the cached slice to be returned")
	}

	c.MovingAverage("daily.close", values, 20, Simple)
	c.MovingAverage("daily.volume", values, 20, Simple)
	c.MovingAverage("daily.close", values, 20, Exponential)
	c.StochRSI("daily.close", values)
	c.StochRSI("daily.close", values)
	c.Coppock("weekly.close", values)

	// sma10, close sma20, volume sma20, ema20, stochrsi, coppock
	if c.Len() != 6 {
		t.Errorf("Expected 6 cached series, got %d", c.Len())
	}
}

func TestCache_Nil(t *testing.T) {
	var c *Cache
	values := series(1, 1, 40)

	ma := c.MovingAverage("daily.close", values, 10, Simple)
	if v, ok := Last(ma, 0); !ok || !almostEqual(v, 35.5, 1e-6) {
		t.Errorf("Expected 35.5, got %f", v)
	}
	k, _ := c.StochRSI("daily.close", values)
	if len(k) != len(values) {
		t.Errorf("Expected aligned output, got %d", len(k))
	}
	if c.Len() != 0 {
		t.Errorf("Expected nil cache to be empty, got %d", c.Len())
	}
}

func TestKey(t *testing.T) {
	if got := Key("daily.close", "sma", 10); got != "daily.close|sma|10" {
		t.Errorf("Unexpected key %q", got)
	}
	if got := Key("weekly.close", "coppock", 14, 11, 10); got != "weekly.close|coppock|14|11|10" {
		t.Errorf("Unexpected key %q", got)
	}
}
