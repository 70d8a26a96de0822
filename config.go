package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"meanrev-trading-bot/exchange"
	"meanrev-trading-bot/strategy"

	"github.com/shopspring/decimal"
)

// AppConfig bundles everything the process needs at startup
type AppConfig struct {
	Exchange    *exchange.Config
	Strategy    strategy.Config
	Interval    time.Duration
	RecordsPath string
}

// loadConfigFromEnv builds the configuration from defaults overridden by
// environment variables. Invalid values are rejected later by Validate;
// unparseable ones fall back to the default.
func loadConfigFromEnv() *AppConfig {
	cfg := &AppConfig{
		Exchange:    exchange.DefaultConfig(),
		Strategy:    strategy.DefaultConfig(),
		Interval:    30 * time.Second,
		RecordsPath: "records.json",
	}

	if baseURL := os.Getenv("EXCHANGE_BASE_URL"); baseURL != "" {
		cfg.Exchange.BaseURL = baseURL
	}
	if apiKey := os.Getenv("EXCHANGE_API_KEY"); apiKey != "" {
		cfg.Exchange.APIKey = apiKey
	}
	if passphrase := os.Getenv("EXCHANGE_API_PASSPHRASE"); passphrase != "" {
		cfg.Exchange.APIPassphrase = passphrase
	}
	if privateKey := os.Getenv("EXCHANGE_PRIVATE_KEY"); privateKey != "" {
		// Trim quotes some shells leave around exported values
		trimmedKey := strings.TrimSpace(privateKey)
		trimmedKey = strings.Trim(trimmedKey, "\"")
		trimmedKey = strings.Trim(trimmedKey, "'")
		cfg.Exchange.PrivateKeyHex = trimmedKey
	}

	if markets := os.Getenv("MARKETS"); markets != "" {
		cfg.Strategy.Markets = nil
		for _, m := range strings.Split(markets, ",") {
			if m = strings.TrimSpace(m); m != "" {
				cfg.Strategy.Markets = append(cfg.Strategy.Markets, m)
			}
		}
	}
	if resolution := os.Getenv("CANDLE_RESOLUTION"); resolution != "" {
		cfg.Strategy.Resolution = resolution
	}
	if limit := os.Getenv("CANDLE_LIMIT"); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil {
			cfg.Strategy.CandleLimit = val
		}
	}
	if length := os.Getenv("BOLLINGER_LENGTH"); length != "" {
		if val, err := strconv.Atoi(length); err == nil {
			cfg.Strategy.BollingerLength = val
		}
	}
	if numStd := os.Getenv("BOLLINGER_NUM_STD"); numStd != "" {
		if val, err := strconv.ParseFloat(numStd, 64); err == nil {
			cfg.Strategy.BollingerNumStd = val
		}
	}
	if length := os.Getenv("RSI_LENGTH"); length != "" {
		if val, err := strconv.Atoi(length); err == nil {
			cfg.Strategy.RSILength = val
		}
	}
	if threshold := os.Getenv("RSI_THRESHOLD"); threshold != "" {
		if val, err := strconv.ParseFloat(threshold, 64); err == nil {
			cfg.Strategy.RSIThreshold = val
		}
	}
	if delta := os.Getenv("STOP_LOSS_DELTA"); delta != "" {
		if val, err := decimal.NewFromString(delta); err == nil {
			cfg.Strategy.StopLossDelta = val
		}
	}
	if maxRisk := os.Getenv("MAX_RISK_FRACTION"); maxRisk != "" {
		if val, err := decimal.NewFromString(maxRisk); err == nil {
			cfg.Strategy.MaxRiskFraction = val
		}
	}
	if maxNotional := os.Getenv("MAX_POSITION_NOTIONAL"); maxNotional != "" {
		if val, err := decimal.NewFromString(maxNotional); err == nil {
			cfg.Strategy.MaxPositionNotional = val
		}
	}
	if maxPos := os.Getenv("MAX_POSITIONS"); maxPos != "" {
		if val, err := strconv.Atoi(maxPos); err == nil {
			cfg.Strategy.MaxPositions = val
		}
	}
	if maxPerSide := os.Getenv("MAX_POSITIONS_PER_SIDE"); maxPerSide != "" {
		if val, err := strconv.Atoi(maxPerSide); err == nil {
			cfg.Strategy.MaxPositionsPerSide = val
		}
	}
	if interval := os.Getenv("CYCLE_INTERVAL"); interval != "" {
		if val, err := time.ParseDuration(interval); err == nil {
			cfg.Interval = val
		}
	}
	if path := os.Getenv("RECORDS_PATH"); path != "" {
		cfg.RecordsPath = path
	}

	return cfg
}
