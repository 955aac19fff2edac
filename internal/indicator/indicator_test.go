package indicator

import (
	"errors"
	"math"
	"testing"

	"github.com/Eddieaero/Quickfix/internal/domain"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSMA(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5}
	got, err := SMA(prices, 3)
	if err != nil {
		t.Fatalf("SMA: %v", err)
	}
	if len(got) != len(prices) {
		t.Fatalf("SMA returned %d points, want %d", len(got), len(prices))
	}

	// Warm-up entries are undefined.
	for i := 0; i < 2; i++ {
		if _, ok := got.At(i); ok {
			t.Errorf("SMA[%d] should be undefined during warm-up", i)
		}
	}

	want := []float64{2, 3, 4}
	for i, w := range want {
		v, ok := got.At(i + 2)
		if !ok {
			t.Fatalf("SMA[%d] undefined, want %v", i+2, w)
		}
		if !almostEqual(v, w) {
			t.Errorf("SMA[%d] = %v, want %v", i+2, v, w)
		}
	}
}

func TestSMAInsufficientData(t *testing.T) {
	_, err := SMA([]float64{1, 2}, 3)
	if !errors.Is(err, domain.ErrInsufficientData) {
		t.Errorf("SMA error = %v, want ErrInsufficientData", err)
	}
}

func TestEMASeedsWithSMA(t *testing.T) {
	prices := []float64{2, 4, 6, 8, 10}
	got, err := EMA(prices, 3)
	if err != nil {
		t.Fatalf("EMA: %v", err)
	}

	// First defined value is the SMA of the first 3 prices.
	v, ok := got.At(2)
	if !ok || !almostEqual(v, 4) {
		t.Errorf("EMA[2] = %v (defined=%v), want 4", v, ok)
	}

	// Multiplier 2/(3+1) = 0.5: (8-4)*0.5+4 = 6, (10-6)*0.5+6 = 8.
	if v, _ := got.At(3); !almostEqual(v, 6) {
		t.Errorf("EMA[3] = %v, want 6", v)
	}
	if v, _ := got.At(4); !almostEqual(v, 8) {
		t.Errorf("EMA[4] = %v, want 8", v)
	}
}

func TestRSIBounds(t *testing.T) {
	prices := []float64{44, 44.34, 44.09, 44.15, 43.61, 44.33, 44.83, 45.10,
		45.42, 45.84, 46.08, 45.89, 46.03, 45.61, 46.28, 46.00, 46.50}
	got, err := RSI(prices, 14)
	if err != nil {
		t.Fatalf("RSI: %v", err)
	}

	for i := 0; i < 14; i++ {
		if _, ok := got.At(i); ok {
			t.Errorf("RSI[%d] should be undefined during warm-up", i)
		}
	}
	for i := 14; i < len(prices); i++ {
		v, ok := got.At(i)
		if !ok {
			t.Fatalf("RSI[%d] undefined", i)
		}
		if v < 0 || v > 100 {
			t.Errorf("RSI[%d] = %v, outside [0, 100]", i, v)
		}
	}
}

func TestRSIAllGains(t *testing.T) {
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}
	got, err := RSI(prices, 14)
	if err != nil {
		t.Fatalf("RSI: %v", err)
	}

	// With zero average loss RS is capped at 100: 100 - 100/101.
	v, ok := got.Last()
	if !ok {
		t.Fatal("RSI last value undefined")
	}
	if !almostEqual(v, 100-100.0/101) {
		t.Errorf("all-gain RSI = %v, want %v", v, 100-100.0/101)
	}
}

func TestRSIInsufficientData(t *testing.T) {
	_, err := RSI(make([]float64, 14), 14)
	if !errors.Is(err, domain.ErrInsufficientData) {
		t.Errorf("RSI error = %v, want ErrInsufficientData", err)
	}
}

func TestMACDAlignment(t *testing.T) {
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 100 + math.Sin(float64(i)/5)*10
	}
	got, err := MACD(prices, 12, 26, 9)
	if err != nil {
		t.Fatalf("MACD: %v", err)
	}

	// Line defined once the slow EMA is: index 25.
	if _, ok := got.Line.At(24); ok {
		t.Error("MACD line defined before slow EMA warm-up")
	}
	if _, ok := got.Line.At(25); !ok {
		t.Error("MACD line undefined at index 25")
	}

	// Signal defined 9 values later: index 25+9-1 = 33.
	if _, ok := got.Signal.At(32); ok {
		t.Error("signal line defined too early")
	}
	if _, ok := got.Signal.At(33); !ok {
		t.Error("signal line undefined at index 33")
	}

	// Histogram = line - signal where both defined.
	l, _ := got.Line.At(40)
	s, _ := got.Signal.At(40)
	h, ok := got.Histogram.At(40)
	if !ok || !almostEqual(h, l-s) {
		t.Errorf("histogram[40] = %v, want %v", h, l-s)
	}
}

func TestMACDShortSeriesLeavesSignalUndefined(t *testing.T) {
	prices := make([]float64, 28)
	for i := range prices {
		prices[i] = float64(100 + i)
	}
	got, err := MACD(prices, 12, 26, 9)
	if err != nil {
		t.Fatalf("MACD: %v", err)
	}
	if _, ok := got.Line.Last(); !ok {
		t.Error("MACD line should be defined at the end")
	}
	if got.Signal.DefinedCount() != 0 {
		t.Error("signal line should be fully undefined with only 3 MACD values")
	}
}

func TestBollingerBands(t *testing.T) {
	prices := make([]float64, 25)
	for i := range prices {
		prices[i] = 50 + float64(i%5)
	}
	got, err := Bollinger(prices, 20, 2)
	if err != nil {
		t.Fatalf("Bollinger: %v", err)
	}

	u, okU := got.Upper.Last()
	m, okM := got.Middle.Last()
	l, okL := got.Lower.Last()
	if !okU || !okM || !okL {
		t.Fatal("bands undefined at the end")
	}
	// Bands are symmetric around the middle.
	if !almostEqual(u-m, m-l) {
		t.Errorf("bands not symmetric: upper-mid = %v, mid-lower = %v", u-m, m-l)
	}
	if u <= m || l >= m {
		t.Errorf("band ordering wrong: upper %v, middle %v, lower %v", u, m, l)
	}
}

func TestBollingerConstantPrices(t *testing.T) {
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 42
	}
	got, err := Bollinger(prices, 20, 2)
	if err != nil {
		t.Fatalf("Bollinger: %v", err)
	}
	u, _ := got.Upper.Last()
	l, _ := got.Lower.Last()
	if !almostEqual(u, 42) || !almostEqual(l, 42) {
		t.Errorf("constant prices should collapse bands: upper %v, lower %v", u, l)
	}
}

func TestATRConstantRange(t *testing.T) {
	n := 20
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		highs[i], lows[i], closes[i] = 12, 10, 11
	}

	got, err := ATR(highs, lows, closes, 14)
	if err != nil {
		t.Fatalf("ATR: %v", err)
	}
	if _, ok := got.At(12); ok {
		t.Error("ATR defined before warm-up complete")
	}
	v, ok := got.Last()
	if !ok || !almostEqual(v, 2) {
		t.Errorf("ATR = %v, want 2", v)
	}
}

func TestATRUnequalLengths(t *testing.T) {
	_, err := ATR(make([]float64, 5), make([]float64, 4), make([]float64, 5), 3)
	if !errors.Is(err, domain.ErrInsufficientData) {
		t.Errorf("ATR error = %v, want ErrInsufficientData", err)
	}
}

func TestROC(t *testing.T) {
	got, err := ROC([]float64{100, 110, 121}, 1)
	if err != nil {
		t.Fatalf("ROC: %v", err)
	}
	if _, ok := got.At(0); ok {
		t.Error("ROC[0] should be undefined")
	}
	if v, _ := got.At(1); !almostEqual(v, 10) {
		t.Errorf("ROC[1] = %v, want 10", v)
	}
	if v, _ := got.At(2); !almostEqual(v, 10) {
		t.Errorf("ROC[2] = %v, want 10", v)
	}
}

func TestReturns(t *testing.T) {
	got, err := Returns([]float64{100, 110, 99})
	if err != nil {
		t.Fatalf("Returns: %v", err)
	}
	if v, _ := got.At(1); !almostEqual(v, 10) {
		t.Errorf("Returns[1] = %v, want 10", v)
	}
	if v, _ := got.At(2); !almostEqual(v, -10) {
		t.Errorf("Returns[2] = %v, want -10", v)
	}
}

func TestCumulativeReturns(t *testing.T) {
	got, err := CumulativeReturns([]float64{100, 110, 120})
	if err != nil {
		t.Fatalf("CumulativeReturns: %v", err)
	}
	want := []float64{0, 10, 20}
	for i, w := range want {
		v, ok := got.At(i)
		if !ok || !almostEqual(v, w) {
			t.Errorf("CumulativeReturns[%d] = %v, want %v", i, v, w)
		}
	}
}

func TestSeriesPrev(t *testing.T) {
	s := Series{defined(1), defined(2), defined(3)}

	if v, ok := s.Prev(1); !ok || v != 3 {
		t.Errorf("Prev(1) = %v, %v; want 3, true", v, ok)
	}
	if v, ok := s.Prev(2); !ok || v != 2 {
		t.Errorf("Prev(2) = %v, %v; want 2, true", v, ok)
	}
	if _, ok := s.Prev(4); ok {
		t.Error("Prev(4) should be out of range")
	}
}
