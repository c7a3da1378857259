package main

import (
	"context"
	"time"

	"coinledger/config"
	"coinledger/internal/alert"
	"coinledger/internal/ledger"
	"coinledger/internal/market"
	"coinledger/internal/pricefeed"
	"coinledger/internal/service"
	"coinledger/logger"
	"coinledger/pkg/coingecko"
	"coinledger/pkg/storage/postgres"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load("./config")
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	store, err := postgres.InitializeAndMigrate(cfg.Postgres, cfg.Log.Environment, true)
	if err != nil {
		log.Fatal("failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()

	// Rebuild cache, ledger and alert state from the durable tables.
	prices, err := store.LoadPrices(ctx)
	if err != nil {
		log.Fatal("failed to load prices", zap.Error(err))
	}
	portfolios, err := store.LoadPortfolios(ctx)
	if err != nil {
		log.Fatal("failed to load portfolios", zap.Error(err))
	}
	alerts, err := store.LoadAlerts(ctx)
	if err != nil {
		log.Fatal("failed to load alerts", zap.Error(err))
	}

	cache := market.NewPriceCache(store)
	cache.Restore(prices)

	ledgerOpts := ledger.Options{IdempotentInit: cfg.Ledger.IdempotentInit}
	if cfg.Ledger.InitialBalance != "" {
		balance, err := decimal.NewFromString(cfg.Ledger.InitialBalance)
		if err != nil {
			log.Fatal("invalid ledger.initial_balance", zap.Error(err))
		}
		ledgerOpts.InitialBalance = balance
	}
	book := ledger.New(store, cache, ledgerOpts)
	book.Restore(portfolios)

	engine := alert.NewEngine(cache, store, &alert.LogNotifier{Log: log}, log)
	engine.Restore(alerts)

	feed := coingecko.NewClient(cfg.Feed.BaseURL, cfg.Feed.Timeout)
	ingestor := pricefeed.NewIngestor(feed, cache, log)

	svc := service.New(book, cache, engine, ingestor, log)

	if interval := cfg.Alerts.SweepInterval; interval > 0 {
		svc.StartAlertSweeper(ctx, interval)
		log.Info("alert sweeper started", zap.Duration("interval", interval))
	}

	log.Info("coinledger ready",
		zap.Int("portfolios", len(portfolios)),
		zap.Int("alerts", len(alerts)),
		zap.Int("cached_prices", len(prices)),
		zap.Duration("feed_timeout", cfg.Feed.Timeout),
		zap.Time("started_at", time.Now()),
	)

	select {}
}
