// Package indicator provides stateless technical-analysis functions over
// price series. Every function returns a Series aligned index-for-index
// with its input; entries inside an indicator's warm-up window are
// explicitly undefined rather than zero, so warm-up gaps are always
// distinguishable from real readings.
//
// Inputs shorter than the required window fail with
// domain.ErrInsufficientData. Callers are expected to pre-check lengths.
package indicator

import (
	"fmt"
	"math"

	"github.com/Eddieaero/Quickfix/internal/domain"
)

// Point is one entry of an indicator series. Valid is false during the
// indicator's warm-up window.
type Point struct {
	Value float64
	Valid bool
}

// Series is an indicator output aligned index-for-index with the price
// series it was computed from.
type Series []Point

// At returns the value at index i and whether it is defined.
func (s Series) At(i int) (float64, bool) {
	if i < 0 || i >= len(s) {
		return 0, false
	}
	return s[i].Value, s[i].Valid
}

// Last returns the final value and whether it is defined.
func (s Series) Last() (float64, bool) {
	return s.At(len(s) - 1)
}

// Prev returns the value n entries before the end and whether it is
// defined. Prev(1) is the same as Last.
func (s Series) Prev(n int) (float64, bool) {
	return s.At(len(s) - n)
}

// DefinedCount returns the number of defined entries.
func (s Series) DefinedCount() int {
	n := 0
	for _, p := range s {
		if p.Valid {
			n++
		}
	}
	return n
}

func defined(v float64) Point { return Point{Value: v, Valid: true} }

func insufficient(name string, need, got int) error {
	return fmt.Errorf("%w: %s requires %d prices, got %d", domain.ErrInsufficientData, name, need, got)
}

// SMA computes the trailing simple moving average. Defined for indices
// ≥ period−1.
func SMA(prices []float64, period int) (Series, error) {
	if len(prices) < period {
		return nil, insufficient("SMA", period, len(prices))
	}

	out := make(Series, len(prices))
	sum := 0.0
	for i, p := range prices {
		sum += p
		if i >= period {
			sum -= prices[i-period]
		}
		if i >= period-1 {
			out[i] = defined(sum / float64(period))
		}
	}
	return out, nil
}

// EMA computes the exponential moving average seeded with the SMA of the
// first period values. Defined for indices ≥ period−1.
func EMA(prices []float64, period int) (Series, error) {
	if len(prices) < period {
		return nil, insufficient("EMA", period, len(prices))
	}

	out := make(Series, len(prices))
	multiplier := 2.0 / float64(period+1)

	seed := 0.0
	for i := 0; i < period; i++ {
		seed += prices[i]
	}
	ema := seed / float64(period)
	out[period-1] = defined(ema)

	for i := period; i < len(prices); i++ {
		ema = (prices[i]-ema)*multiplier + ema
		out[i] = defined(ema)
	}
	return out, nil
}

// RSI computes the Wilder-smoothed relative strength index. The first
// average gain/loss is a simple mean over the first period price changes;
// later averages use Wilder smoothing. Defined for indices ≥ period and
// always within [0, 100]. When the average loss is zero RS is taken as
// 100, so an all-gain series reads ≈99.01 rather than saturating at 100.
func RSI(prices []float64, period int) (Series, error) {
	if len(prices) < period+1 {
		return nil, insufficient("RSI", period+1, len(prices))
	}

	out := make(Series, len(prices))

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := prices[i] - prices[i-1]
		avgGain += math.Max(0, change)
		avgLoss += math.Max(0, -change)
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = defined(rsiValue(avgGain, avgLoss))

	for i := period + 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		avgGain = (avgGain*float64(period-1) + math.Max(0, change)) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + math.Max(0, -change)) / float64(period)
		out[i] = defined(rsiValue(avgGain, avgLoss))
	}
	return out, nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	rs := 100.0
	if avgLoss != 0 {
		rs = avgGain / avgLoss
	}
	return 100 - 100/(1+rs)
}

// MACDResult holds the three MACD output series, all aligned with the
// input prices.
type MACDResult struct {
	Line      Series // EMA(fast) − EMA(slow)
	Signal    Series // EMA(signal) of the MACD line
	Histogram Series // Line − Signal where both are defined
}

// MACD computes moving average convergence/divergence. The MACD line is
// defined where both EMAs are (indices ≥ slow−1). The signal line is the
// EMA of the defined portion of the MACD line, placed back at the indices
// those values came from, so it becomes defined at index slow+signal−2.
func MACD(prices []float64, fast, slow, signal int) (MACDResult, error) {
	emaFast, err := EMA(prices, fast)
	if err != nil {
		return MACDResult{}, err
	}
	emaSlow, err := EMA(prices, slow)
	if err != nil {
		return MACDResult{}, err
	}

	n := len(prices)
	res := MACDResult{
		Line:      make(Series, n),
		Signal:    make(Series, n),
		Histogram: make(Series, n),
	}

	// MACD line plus the source index of each defined value.
	var lineValues []float64
	var lineIndex []int
	for i := 0; i < n; i++ {
		f, fok := emaFast.At(i)
		s, sok := emaSlow.At(i)
		if fok && sok {
			res.Line[i] = defined(f - s)
			lineValues = append(lineValues, f-s)
			lineIndex = append(lineIndex, i)
		}
	}

	// Signal line: EMA over the defined MACD values, mapped back onto the
	// price indices they correspond to. Too few defined values simply
	// leaves the signal line undefined; the MACD line itself still stands.
	if len(lineValues) >= signal {
		sub, err := EMA(lineValues, signal)
		if err != nil {
			return MACDResult{}, err
		}
		for j, p := range sub {
			if p.Valid {
				res.Signal[lineIndex[j]] = defined(p.Value)
			}
		}
	}

	for i := 0; i < n; i++ {
		l, lok := res.Line.At(i)
		s, sok := res.Signal.At(i)
		if lok && sok {
			res.Histogram[i] = defined(l - s)
		}
	}
	return res, nil
}

// BollingerResult holds the three Bollinger band series.
type BollingerResult struct {
	Upper  Series
	Middle Series // SMA(period)
	Lower  Series
}

// Bollinger computes Bollinger bands: middle = SMA(period), band width =
// k × population standard deviation of the trailing window.
func Bollinger(prices []float64, period int, k float64) (BollingerResult, error) {
	middle, err := SMA(prices, period)
	if err != nil {
		return BollingerResult{}, err
	}

	n := len(prices)
	res := BollingerResult{
		Upper:  make(Series, n),
		Middle: middle,
		Lower:  make(Series, n),
	}

	for i := period - 1; i < n; i++ {
		mean := middle[i].Value
		variance := 0.0
		for j := i - period + 1; j <= i; j++ {
			d := prices[j] - mean
			variance += d * d
		}
		band := k * math.Sqrt(variance/float64(period))
		res.Upper[i] = defined(mean + band)
		res.Lower[i] = defined(mean - band)
	}
	return res, nil
}

// ATR computes the Wilder-smoothed average true range over parallel
// high/low/close series. The first bar's true range is high−low; the
// first ATR is a simple mean of the first period true ranges. Defined for
// indices ≥ period−1.
func ATR(highs, lows, closes []float64, period int) (Series, error) {
	n := len(closes)
	if len(highs) != n || len(lows) != n {
		return nil, fmt.Errorf("%w: ATR requires equal-length high/low/close series", domain.ErrInsufficientData)
	}
	if n < period {
		return nil, insufficient("ATR", period, n)
	}

	tr := make([]float64, n)
	for i := 0; i < n; i++ {
		if i == 0 {
			tr[i] = highs[i] - lows[i]
			continue
		}
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	out := make(Series, n)
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += tr[i]
	}
	atr := sum / float64(period)
	out[period-1] = defined(atr)

	for i := period; i < n; i++ {
		atr = (atr*float64(period-1) + tr[i]) / float64(period)
		out[i] = defined(atr)
	}
	return out, nil
}

// ROC computes the rate of change: percent change from the price period
// bars back. Defined for indices ≥ period.
func ROC(prices []float64, period int) (Series, error) {
	if len(prices) < period+1 {
		return nil, insufficient("ROC", period+1, len(prices))
	}

	out := make(Series, len(prices))
	for i := period; i < len(prices); i++ {
		out[i] = defined((prices[i] - prices[i-period]) / prices[i-period] * 100)
	}
	return out, nil
}

// Returns computes the bar-to-bar percent change. Undefined at index 0.
func Returns(prices []float64) (Series, error) {
	if len(prices) < 2 {
		return nil, insufficient("Returns", 2, len(prices))
	}

	out := make(Series, len(prices))
	for i := 1; i < len(prices); i++ {
		out[i] = defined((prices[i] - prices[i-1]) / prices[i-1] * 100)
	}
	return out, nil
}

// CumulativeReturns computes the percent change from the series start.
func CumulativeReturns(prices []float64) (Series, error) {
	if len(prices) == 0 {
		return nil, insufficient("CumulativeReturns", 1, 0)
	}

	out := make(Series, len(prices))
	initial := prices[0]
	for i, p := range prices {
		out[i] = defined((p - initial) / initial * 100)
	}
	return out, nil
}
