package backtest

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/Eddieaero/Quickfix/internal/domain"
)

const (
	// riskFreeRate is the annual risk-free rate used in the Sharpe ratio.
	riskFreeRate = 0.02

	// tradingDaysPerYear annualizes daily return statistics.
	tradingDaysPerYear = 252

	// profitFactorCap is the sentinel returned when a run has gross
	// profits but zero gross losses.
	profitFactorCap = 999.99
)

// DailyReturns converts an equity curve into simple period returns.
// Entries with a non-positive predecessor are skipped; a curve shorter
// than two points yields nil.
func DailyReturns(equityCurve []decimal.Decimal) []float64 {
	if len(equityCurve) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(equityCurve)-1)
	for i := 1; i < len(equityCurve); i++ {
		prev := equityCurve[i-1]
		if prev.Sign() <= 0 {
			continue
		}
		r := equityCurve[i].Sub(prev).DivRound(prev, 6)
		returns = append(returns, r.InexactFloat64())
	}
	return returns
}

// SharpeRatio computes the annualized Sharpe ratio of daily returns
// against the risk-free rate. Fewer than two returns or zero volatility
// yields 0.
func SharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := meanOf(returns)
	stddev := sampleStdDev(returns, mean)
	if stddev == 0 {
		return 0
	}
	annualizedReturn := mean * tradingDaysPerYear
	annualizedStdDev := stddev * math.Sqrt(tradingDaysPerYear)
	return (annualizedReturn - riskFreeRate) / annualizedStdDev
}

// SortinoRatio computes the annualized Sortino ratio: excess return over
// target divided by annualized downside deviation. Only returns below the
// target contribute to the deviation. Fewer than two returns or zero
// downside deviation yields 0.
func SortinoRatio(returns []float64, target float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := meanOf(returns)

	var downsideSum float64
	for _, r := range returns {
		if d := r - target; d < 0 {
			downsideSum += d * d
		}
	}
	downsideDev := math.Sqrt(downsideSum / float64(len(returns)))
	if downsideDev == 0 {
		return 0
	}
	annualizedReturn := mean * tradingDaysPerYear
	annualizedDownside := downsideDev * math.Sqrt(tradingDaysPerYear)
	return (annualizedReturn - target) / annualizedDownside
}

// MaxDrawdown returns the largest peak-to-trough decline of the equity
// curve as a percentage. The result is 0 or negative.
func MaxDrawdown(equityCurve []decimal.Decimal) float64 {
	if len(equityCurve) < 2 {
		return 0
	}
	peak := equityCurve[0]
	maxDD := decimal.Zero
	for _, value := range equityCurve[1:] {
		if value.GreaterThan(peak) {
			peak = value
			continue
		}
		if peak.Sign() <= 0 {
			continue
		}
		dd := value.Sub(peak).DivRound(peak, 4)
		if dd.LessThan(maxDD) {
			maxDD = dd
		}
	}
	return maxDD.Mul(hundred).InexactFloat64()
}

// CAGR returns the compound annual growth rate as a percentage over the
// given whole number of years. Non-positive inputs yield 0.
func CAGR(initial, final decimal.Decimal, years int) float64 {
	if initial.Sign() <= 0 || final.Sign() <= 0 || years <= 0 {
		return 0
	}
	ratio := final.InexactFloat64() / initial.InexactFloat64()
	return (math.Pow(ratio, 1/float64(years)) - 1) * 100
}

// TotalReturn returns the overall gain as a percentage of initial
// capital. Non-positive initial capital yields 0.
func TotalReturn(initial, final decimal.Decimal) float64 {
	if initial.Sign() <= 0 {
		return 0
	}
	return final.Sub(initial).DivRound(initial, 4).Mul(hundred).InexactFloat64()
}

// WinRate returns the fraction of trades with positive profit, as a
// percentage. No trades yields 0.
func WinRate(trades []domain.TradeRecord) float64 {
	if len(trades) == 0 {
		return 0
	}
	wins := 0
	for _, t := range trades {
		if t.ProfitLoss.Sign() > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(trades)) * 100
}

// ProfitFactor returns gross profit divided by gross loss. A run with
// profits but no losses returns the 999.99 sentinel; a run with neither
// returns 0.
func ProfitFactor(trades []domain.TradeRecord) float64 {
	grossProfit := decimal.Zero
	grossLoss := decimal.Zero
	for _, t := range trades {
		switch {
		case t.ProfitLoss.Sign() > 0:
			grossProfit = grossProfit.Add(t.ProfitLoss)
		case t.ProfitLoss.Sign() < 0:
			grossLoss = grossLoss.Add(t.ProfitLoss.Abs())
		}
	}
	if grossLoss.Sign() == 0 {
		if grossProfit.Sign() > 0 {
			return profitFactorCap
		}
		return 0
	}
	return grossProfit.DivRound(grossLoss, 4).InexactFloat64()
}

// AverageWin returns the mean profit of winning trades, rounded half-up
// to cents. No winners yields zero.
func AverageWin(trades []domain.TradeRecord) decimal.Decimal {
	sum := decimal.Zero
	count := 0
	for _, t := range trades {
		if t.ProfitLoss.Sign() > 0 {
			sum = sum.Add(t.ProfitLoss)
			count++
		}
	}
	if count == 0 {
		return decimal.Zero
	}
	return sum.DivRound(decimal.NewFromInt(int64(count)), 2)
}

// AverageLoss returns the mean magnitude of losing trades, rounded
// half-up to cents. No losers yields zero.
func AverageLoss(trades []domain.TradeRecord) decimal.Decimal {
	sum := decimal.Zero
	count := 0
	for _, t := range trades {
		if t.ProfitLoss.Sign() < 0 {
			sum = sum.Add(t.ProfitLoss.Abs())
			count++
		}
	}
	if count == 0 {
		return decimal.Zero
	}
	return sum.DivRound(decimal.NewFromInt(int64(count)), 2)
}

func meanOf(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev is the n-1 standard deviation.
func sampleStdDev(values []float64, mean float64) float64 {
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}
