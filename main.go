package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"meanrev-trading-bot/engine"
	"meanrev-trading-bot/exchange"
	"meanrev-trading-bot/marketdata"
	"meanrev-trading-bot/records"
	"meanrev-trading-bot/strategy"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// .env is optional; existing env vars win when it is absent
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file loaded, using environment", zap.Error(err))
	}

	cfg := loadConfigFromEnv()
	if err := cfg.Strategy.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	client, err := exchange.NewClient(cfg.Exchange, logger)
	if err != nil {
		logger.Fatal("exchange client setup failed", zap.Error(err))
	}

	strat, err := strategy.New(cfg.Strategy, logger)
	if err != nil {
		logger.Fatal("strategy setup failed", zap.Error(err))
	}

	eng := engine.New(
		cfg.Strategy,
		cfg.Interval,
		marketdata.NewAssembler(client, logger),
		strat,
		engine.NewReconciler(cfg.Strategy, logger),
		engine.NewExecutor(client, cfg.Strategy, logger),
		records.New(cfg.RecordsPath),
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logger.Info("shutdown signal received")
		cancel()
	}()

	if err := eng.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("engine exited", zap.Error(err))
	}
}
