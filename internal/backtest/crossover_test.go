package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Eddieaero/Quickfix/internal/domain"
	"github.com/Eddieaero/Quickfix/internal/strategy/builtins"
)

// syntheticCrossoverBars builds a 210-bar series with exactly one upward
// SMA50/SMA200 crossover followed by exactly one downward crossover.
// Flat at 100 through index 200, a spike to 110 for five bars pulls the
// SMA50 above the SMA200, then a drop to 60 pulls it back below.
func syntheticCrossoverBars() []domain.Bar {
	closes := make([]float64, 210)
	for i := range closes {
		switch {
		case i <= 200:
			closes[i] = 100
		case i <= 205:
			closes[i] = 110
		default:
			closes[i] = 60
		}
	}
	return fillBars(closes...)
}

func TestSMACrossoverEndToEnd(t *testing.T) {
	bars := &memBarStore{bars: syntheticCrossoverBars()}
	results := newMemResultStore()
	engine := NewEngine(bars, results, testLogger())

	start, end := testRange()
	res, err := engine.Run(context.Background(), builtins.NewSMACrossover(), "TEST", start, end, decimal.NewFromInt(100000))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// One round trip: entered at the upward crossover, exited at the
	// downward one.
	if res.TotalTrades != 1 {
		t.Fatalf("TotalTrades = %d, want 1 round trip", res.TotalTrades)
	}

	trades, err := engine.Trades(context.Background(), res.ID)
	if err != nil {
		t.Fatalf("Trades: %v", err)
	}
	tr := trades[0]

	base := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	if wantEntry := base.AddDate(0, 0, 201); !tr.EntryDate.Equal(wantEntry) {
		t.Errorf("EntryDate = %v, want crossover-up bar %v", tr.EntryDate, wantEntry)
	}
	if wantExit := base.AddDate(0, 0, 207); !tr.ExitDate.Equal(wantExit) {
		t.Errorf("ExitDate = %v, want crossover-down bar %v", tr.ExitDate, wantExit)
	}
	if !tr.EntryPrice.Equal(decimal.NewFromInt(110)) {
		t.Errorf("EntryPrice = %v, want 110", tr.EntryPrice)
	}
	if !tr.ExitPrice.Equal(decimal.NewFromInt(60)) {
		t.Errorf("ExitPrice = %v, want 60", tr.ExitPrice)
	}
	if tr.ProfitLoss.Sign() >= 0 {
		t.Errorf("ProfitLoss = %v, want a loss on the round trip", tr.ProfitLoss)
	}
	if res.MaxDrawdown >= 0 || res.MaxDrawdown < -100 {
		t.Errorf("MaxDrawdown = %v, want within [-100, 0)", res.MaxDrawdown)
	}
	if res.WinRate != 0 {
		t.Errorf("WinRate = %v, want 0", res.WinRate)
	}
}
