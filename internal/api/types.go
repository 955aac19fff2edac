// Package api provides the HTTP REST API for running backtests and
// retrieving persisted results.
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Eddieaero/Quickfix/internal/domain"
)

// BacktestRequest is the JSON body of the backtest endpoint. Dates use
// the YYYY-MM-DD format; initial capital accepts a JSON number or string.
type BacktestRequest struct {
	StrategyName   string          `json:"strategyName"`
	Symbol         string          `json:"symbol"`
	StartDate      string          `json:"startDate"`
	EndDate        string          `json:"endDate"`
	InitialCapital decimal.Decimal `json:"initialCapital"`
}

// BacktestResultJSON is the JSON representation of a finished backtest.
type BacktestResultJSON struct {
	ID             string          `json:"id"`
	StrategyName   string          `json:"strategyName"`
	Symbol         string          `json:"symbol"`
	StartDate      string          `json:"startDate"`
	EndDate        string          `json:"endDate"`
	InitialCapital decimal.Decimal `json:"initialCapital"`
	FinalValue     decimal.Decimal `json:"finalValue"`
	TotalReturn    float64         `json:"totalReturn"`
	AnnualReturn   float64         `json:"annualReturn"`
	SharpeRatio    float64         `json:"sharpeRatio"`
	SortinoRatio   float64         `json:"sortinoRatio"`
	MaxDrawdown    float64         `json:"maxDrawdown"`
	WinRate        float64         `json:"winRate"`
	ProfitFactor   float64         `json:"profitFactor"`
	AvgWin         decimal.Decimal `json:"avgWin"`
	AvgLoss        decimal.Decimal `json:"avgLoss"`
	TotalTrades    int             `json:"totalTrades"`
	WinningTrades  int             `json:"winningTrades"`
	LosingTrades   int             `json:"losingTrades"`
	CreatedAt      string          `json:"createdAt,omitempty"`
}

// TradeJSON is the JSON representation of one closed trade.
type TradeJSON struct {
	ID            string          `json:"id"`
	Symbol        string          `json:"symbol"`
	Side          string          `json:"side"`
	Status        string          `json:"status"`
	EntryDate     string          `json:"entryDate"`
	ExitDate      string          `json:"exitDate"`
	EntryPrice    decimal.Decimal `json:"entryPrice"`
	ExitPrice     decimal.Decimal `json:"exitPrice"`
	Quantity      decimal.Decimal `json:"quantity"`
	ProfitLoss    decimal.Decimal `json:"profitLoss"`
	ProfitLossPct decimal.Decimal `json:"profitLossPct"`
	EntryReason   string          `json:"entryReason"`
	ExitReason    string          `json:"exitReason"`
}

// StrategiesResponse lists the registered strategy names.
type StrategiesResponse struct {
	Strategies []string `json:"strategies"`
}

// TradesResponse holds the trade log of one backtest.
type TradesResponse struct {
	BacktestID string      `json:"backtestId"`
	Trades     []TradeJSON `json:"trades"`
}

// ResultsResponse lists results for one strategy.
type ResultsResponse struct {
	StrategyName string               `json:"strategyName"`
	Results      []BacktestResultJSON `json:"results"`
}

// HealthResponse is the health endpoint payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

const dateLayout = "2006-01-02"

func convertResult(r *domain.BacktestResult) BacktestResultJSON {
	out := BacktestResultJSON{
		ID:             r.ID,
		StrategyName:   r.StrategyName,
		Symbol:         r.Symbol,
		StartDate:      r.StartDate.Format(dateLayout),
		EndDate:        r.EndDate.Format(dateLayout),
		InitialCapital: r.InitialCapital,
		FinalValue:     r.FinalValue,
		TotalReturn:    r.TotalReturn,
		AnnualReturn:   r.AnnualReturn,
		SharpeRatio:    r.SharpeRatio,
		SortinoRatio:   r.SortinoRatio,
		MaxDrawdown:    r.MaxDrawdown,
		WinRate:        r.WinRate,
		ProfitFactor:   r.ProfitFactor,
		AvgWin:         r.AvgWin,
		AvgLoss:        r.AvgLoss,
		TotalTrades:    r.TotalTrades,
		WinningTrades:  r.WinningTrades,
		LosingTrades:   r.LosingTrades,
	}
	if !r.CreatedAt.IsZero() {
		out.CreatedAt = r.CreatedAt.Format(time.RFC3339)
	}
	return out
}

func convertTrade(t *domain.TradeRecord) TradeJSON {
	return TradeJSON{
		ID:            t.ID,
		Symbol:        t.Symbol,
		Side:          string(t.Side),
		Status:        string(t.Status),
		EntryDate:     t.EntryDate.Format(dateLayout),
		ExitDate:      t.ExitDate.Format(dateLayout),
		EntryPrice:    t.EntryPrice,
		ExitPrice:     t.ExitPrice,
		Quantity:      t.Quantity,
		ProfitLoss:    t.ProfitLoss,
		ProfitLossPct: t.ProfitLossPct,
		EntryReason:   t.EntryReason,
		ExitReason:    t.ExitReason,
	}
}
