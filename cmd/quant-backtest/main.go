package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Eddieaero/Quickfix/internal/backtest"
	"github.com/Eddieaero/Quickfix/internal/config"
	"github.com/Eddieaero/Quickfix/internal/store"
	"github.com/Eddieaero/Quickfix/internal/strategy"
	"github.com/Eddieaero/Quickfix/internal/strategy/builtins"
	"github.com/Eddieaero/Quickfix/internal/util"
)

func main() {
	stratName := flag.String("strategy", "SMA Crossover", "strategy name")
	symbol := flag.String("symbol", "", "symbol to backtest (required)")
	startStr := flag.String("start", "", "start date YYYY-MM-DD (required)")
	endStr := flag.String("end", "", "end date YYYY-MM-DD (required)")
	capitalStr := flag.String("capital", "", "initial capital (defaults from config)")
	flag.Parse()

	if *symbol == "" || *startStr == "" || *endStr == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfgPath := "config/quant.yaml"
	if p := os.Getenv("QUICKFIX_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level)
	util.SetDefault(logger)

	start, err := time.Parse("2006-01-02", *startStr)
	if err != nil {
		log.Fatalf("invalid -start: %v", err)
	}
	end, err := time.Parse("2006-01-02", *endStr)
	if err != nil {
		log.Fatalf("invalid -end: %v", err)
	}

	capitalInput := *capitalStr
	if capitalInput == "" {
		capitalInput = cfg.Backtest.DefaultCapital
	}
	if capitalInput == "" {
		capitalInput = "100000"
	}
	capital, err := decimal.NewFromString(capitalInput)
	if err != nil {
		log.Fatalf("invalid capital %q: %v", capitalInput, err)
	}

	registry := strategy.NewRegistry()
	if err := registry.Register(builtins.NewSMACrossover()); err != nil {
		log.Fatalf("failed to register strategies: %v", err)
	}
	strat, ok := registry.Lookup(*stratName)
	if !ok {
		log.Fatalf("unknown strategy %q (available: %v)", *stratName, registry.List())
	}

	barStore := store.NewParquetStore(cfg.Storage.DataDir)
	resultStore, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open result store: %v", err)
	}
	defer resultStore.Close()

	engine := backtest.NewEngine(barStore, resultStore, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	res, err := engine.Run(ctx, strat, *symbol, start, end, capital)
	if err != nil {
		log.Fatalf("backtest failed: %v", err)
	}

	fmt.Printf("Backtest %s\n", res.ID)
	fmt.Printf("  Strategy:       %s\n", res.StrategyName)
	fmt.Printf("  Symbol:         %s\n", res.Symbol)
	fmt.Printf("  Period:         %s .. %s\n", res.StartDate.Format("2006-01-02"), res.EndDate.Format("2006-01-02"))
	fmt.Printf("  Initial:        %s\n", res.InitialCapital.StringFixed(2))
	fmt.Printf("  Final:          %s\n", res.FinalValue.StringFixed(2))
	fmt.Printf("  Total return:   %.2f%%\n", res.TotalReturn)
	fmt.Printf("  Annual return:  %.2f%%\n", res.AnnualReturn)
	fmt.Printf("  Sharpe:         %.4f\n", res.SharpeRatio)
	fmt.Printf("  Sortino:        %.4f\n", res.SortinoRatio)
	fmt.Printf("  Max drawdown:   %.2f%%\n", res.MaxDrawdown)
	fmt.Printf("  Trades:         %d (%d won / %d lost, win rate %.1f%%)\n",
		res.TotalTrades, res.WinningTrades, res.LosingTrades, res.WinRate)
	fmt.Printf("  Profit factor:  %.2f\n", res.ProfitFactor)
	fmt.Printf("  Avg win/loss:   %s / %s\n", res.AvgWin.StringFixed(2), res.AvgLoss.StringFixed(2))
}
