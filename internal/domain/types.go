// Package domain defines the core value types shared across the backtesting
// platform: OHLCV bars, trading signals, trade records, and backtest results.
//
// Monetary quantities (prices, capital, P&L) are decimal.Decimal with
// explicit half-up rounding; derived ratios and indicator values are float64.
// The two domains are kept type-distinct on purpose.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Market identifies the market a symbol trades in.
type Market string

const (
	MarketUS Market = "us"
)

// Bar is a single OHLCV observation for one symbol and one trading day.
// Bars are immutable and ordered ascending by timestamp, unique per
// (symbol, timestamp).
type Bar struct {
	Symbol    string
	Timestamp time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    int64
}

// Validate reports whether the bar is internally consistent: positive close,
// low ≤ close ≤ high, and non-negative volume.
func (b Bar) Validate() bool {
	if b.Close.Sign() <= 0 {
		return false
	}
	if b.Low.GreaterThan(b.Close) || b.Close.GreaterThan(b.High) {
		return false
	}
	return b.Volume >= 0
}

// Action is a strategy recommendation for the current bar.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Signal is a strategy's recommendation for "now". Immutable once created.
type Signal struct {
	Action     Action
	Confidence float64 // clamped to [0, 1]
	Reason     string
	Timestamp  time.Time
}

// NewSignal builds a Signal with confidence clamped to [0, 1] and the
// generation timestamp set to now.
func NewSignal(action Action, confidence float64, reason string) Signal {
	return Signal{
		Action:     action,
		Confidence: clamp01(confidence),
		Reason:     reason,
		Timestamp:  time.Now(),
	}
}

// HoldSignal builds a zero-confidence Hold signal with the given reason.
func HoldSignal(reason string) Signal {
	return NewSignal(ActionHold, 0, reason)
}

// IsBuy reports whether this is an actionable buy: a BUY action with
// confidence strictly above 0.5. A signal computed at exactly the 0.5
// confidence floor is never actionable; the boundary is intentional.
func (s Signal) IsBuy() bool {
	return s.Action == ActionBuy && s.Confidence > 0.5
}

// IsSell reports whether this is an actionable sell (confidence strictly
// above 0.5).
func (s Signal) IsSell() bool {
	return s.Action == ActionSell && s.Confidence > 0.5
}

// IsHold reports whether the action is HOLD.
func (s Signal) IsHold() bool {
	return s.Action == ActionHold
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// TradeSide is the direction of a trade. Only long trades are supported.
type TradeSide string

const (
	SideLong TradeSide = "LONG"
)

// TradeStatus marks whether a trade has been closed out.
type TradeStatus string

const (
	TradeOpen   TradeStatus = "OPEN"
	TradeClosed TradeStatus = "CLOSED"
)

// TradeRecord is one completed round trip, created when a position exits
// (or is force-closed at period end) and immutable thereafter.
type TradeRecord struct {
	ID            string
	BacktestID    string
	Symbol        string
	Side          TradeSide
	Status        TradeStatus
	EntryDate     time.Time
	ExitDate      time.Time
	EntryPrice    decimal.Decimal
	ExitPrice     decimal.Decimal
	Quantity      decimal.Decimal // shares, 4 decimal places
	ProfitLoss    decimal.Decimal // (exit − entry) × quantity
	ProfitLossPct decimal.Decimal
	EntryReason   string
	ExitReason    string
}

// BacktestResult aggregates the outcome of one backtest run. Created once
// per run and immutable; ID is assigned at persistence time.
type BacktestResult struct {
	ID           string
	StrategyName string
	Symbol       string
	StartDate    time.Time
	EndDate      time.Time

	InitialCapital decimal.Decimal
	FinalValue     decimal.Decimal
	AvgWin         decimal.Decimal
	AvgLoss        decimal.Decimal

	TotalReturn  float64 // percent
	AnnualReturn float64 // percent (CAGR)
	SharpeRatio  float64
	SortinoRatio float64
	MaxDrawdown  float64 // percent, always ≤ 0
	WinRate      float64 // percent
	ProfitFactor float64

	TotalTrades   int
	WinningTrades int
	LosingTrades  int

	CreatedAt time.Time
}
