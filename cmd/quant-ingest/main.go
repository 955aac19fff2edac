package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Eddieaero/Quickfix/internal/config"
	"github.com/Eddieaero/Quickfix/internal/ingest"
	"github.com/Eddieaero/Quickfix/internal/store"
	"github.com/Eddieaero/Quickfix/internal/util"
)

func main() {
	symbolsFlag := flag.String("symbols", "", "comma-separated symbols to ingest (overrides config)")
	flag.Parse()

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

	symbols := cfg.Ingest.Symbols
	if *symbolsFlag != "" {
		symbols = nil
		for _, s := range strings.Split(*symbolsFlag, ",") {
			if s = strings.TrimSpace(s); s != "" {
				symbols = append(symbols, strings.ToUpper(s))
			}
		}
	}
	if len(symbols) == 0 {
		log.Fatal("no symbols configured: set ingest.symbols or pass -symbols")
	}

	barStore := store.NewParquetStore(cfg.Storage.DataDir)

	ingestor := ingest.NewDailyBarIngestor(
		cfg.Alpaca.APIKey,
		cfg.Alpaca.APISecret,
		cfg.Alpaca.DataURL,
		barStore,
		cfg.Ingest.RateLimitPerMin,
		cfg.Ingest.MaxRetries,
		cfg.Ingest.StartDate,
		logger,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting quant-ingest", "symbols", len(symbols))
	if err := ingestor.Run(ctx, symbols); err != nil {
		log.Fatalf("ingest error: %v", err)
	}
}
