// Package builtins provides the strategy implementations that ship with
// the platform.
package builtins

import (
	"fmt"
	"math"

	"github.com/Eddieaero/Quickfix/internal/domain"
	"github.com/Eddieaero/Quickfix/internal/indicator"
	"github.com/Eddieaero/Quickfix/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*SMACrossover)(nil)

const (
	indicatorSMA50  = "SMA_50"
	indicatorSMA200 = "SMA_200"
)

// SMACrossover is the classic golden/death cross strategy: buy when the
// 50-bar SMA crosses above the 200-bar SMA, sell when it crosses below.
// Confidence grows with the price's distance from the 200-bar SMA,
// floored at 0.5 and capped at 0.9.
type SMACrossover struct {
	fastPeriod int
	slowPeriod int
}

// NewSMACrossover creates the SMA crossover strategy with the standard
// 50/200 periods.
func NewSMACrossover() *SMACrossover {
	return &SMACrossover{
		fastPeriod: 50,
		slowPeriod: 200,
	}
}

// Name returns "SMA Crossover".
func (s *SMACrossover) Name() string { return "SMA Crossover" }

// Description summarises the crossover rules.
func (s *SMACrossover) Description() string {
	return "Simple Moving Average Crossover Strategy - BUY on SMA50 > SMA200 crossover, SELL on crossover below"
}

// MinimumBars returns 201: one full SMA200 window plus the prior bar
// needed to detect a crossover.
func (s *SMACrossover) MinimumBars() int { return s.slowPeriod + 1 }

// RequiredIndicators returns the SMA keys the engine must supply.
func (s *SMACrossover) RequiredIndicators() []string {
	return []string{indicatorSMA50, indicatorSMA200}
}

// Validate checks the descriptive fields and the period ordering.
func (s *SMACrossover) Validate() error {
	if err := strategy.ValidateDescriptors(s); err != nil {
		return err
	}
	if s.fastPeriod <= 0 || s.slowPeriod <= s.fastPeriod {
		return fmt.Errorf("%w: SMA periods must satisfy 0 < fast < slow", domain.ErrConfiguration)
	}
	return nil
}

// GenerateSignal checks the last two bars for an SMA50/SMA200 crossover.
func (s *SMACrossover) GenerateSignal(window []domain.Bar, indicators map[string]indicator.Series) domain.Signal {
	if len(window) < s.MinimumBars() {
		return domain.HoldSignal(fmt.Sprintf("Insufficient price history: %d bars, need %d", len(window), s.MinimumBars()))
	}

	sma50, ok := indicators[indicatorSMA50]
	if !ok || sma50.DefinedCount() < 2 {
		return domain.HoldSignal("Missing required indicator: " + indicatorSMA50)
	}
	sma200, ok := indicators[indicatorSMA200]
	if !ok || sma200.DefinedCount() < 2 {
		return domain.HoldSignal("Missing required indicator: " + indicatorSMA200)
	}

	curr50, ok1 := sma50.Last()
	curr200, ok2 := sma200.Last()
	if !ok1 || !ok2 {
		return domain.HoldSignal("Indicators not fully populated")
	}
	price := window[len(window)-1].Close.InexactFloat64()

	if strategy.CrossedAbove(sma50, sma200) {
		distance := (price - curr200) / curr200
		confidence := math.Min(0.9, 0.5+distance*2)
		reason := fmt.Sprintf("SMA50 (%.2f) crossed above SMA200 (%.2f). Price at %.2f", curr50, curr200, price)
		return domain.NewSignal(domain.ActionBuy, math.Max(0.5, confidence), reason)
	}

	if strategy.CrossedBelow(sma50, sma200) {
		distance := (curr200 - price) / curr200
		confidence := math.Min(0.9, 0.5+distance*2)
		reason := fmt.Sprintf("SMA50 (%.2f) crossed below SMA200 (%.2f). Price at %.2f", curr50, curr200, price)
		return domain.NewSignal(domain.ActionSell, math.Max(0.5, confidence), reason)
	}

	trend, cmp := "UPTREND", ">"
	if curr50 < curr200 {
		trend, cmp = "DOWNTREND", "<"
	}
	return domain.HoldSignal(fmt.Sprintf("In %s - SMA50 (%.2f) %s SMA200 (%.2f). No crossover", trend, curr50, cmp, curr200))
}
