package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Eddieaero/Quickfix/internal/api"
	"github.com/Eddieaero/Quickfix/internal/backtest"
	"github.com/Eddieaero/Quickfix/internal/config"
	"github.com/Eddieaero/Quickfix/internal/store"
	"github.com/Eddieaero/Quickfix/internal/strategy"
	"github.com/Eddieaero/Quickfix/internal/strategy/builtins"
	"github.com/Eddieaero/Quickfix/internal/util"
)

func main() {
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

	barStore := store.NewParquetStore(cfg.Storage.DataDir)
	resultStore, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open result store: %v", err)
	}
	defer resultStore.Close()

	registry := strategy.NewRegistry()
	if err := registry.Register(builtins.NewSMACrossover()); err != nil {
		log.Fatalf("failed to register strategies: %v", err)
	}

	engine := backtest.NewEngine(barStore, resultStore, logger)
	apiServer := api.NewServer(engine, registry, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: apiServer.Handler(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Info("quant-server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}
