package exchange

import (
	"context"
	"sync"
	"time"
)

// Client is the exchange API surface consumed by the engine. Every method is
// a single bounded attempt: a timeout or transient failure is returned to the
// caller, which relies on the next scheduled cycle for correction.
type Client interface {
	// Read operations (polling)
	GetCandles(ctx context.Context, market, resolution string, limit int) ([]Candle, error)
	GetOrderbook(ctx context.Context, market string) (*Orderbook, error)
	GetAccount(ctx context.Context) (*Account, error)
	GetOpenOrders(ctx context.Context, market string, side OrderSide) ([]Order, error)
	GetMarketInfo(ctx context.Context, market string) (*MarketInfo, error)

	// Write operations
	CreateOrder(ctx context.Context, params OrderParams) (string, error)
	CancelOrder(ctx context.Context, orderID string) error
}

// Rate limiter implementation (token bucket refilled at the configured RPS)
type RateLimiter struct {
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
	mu         sync.Mutex
}

func NewRateLimiter(rps int) *RateLimiter {
	return &RateLimiter{
		tokens:     rps,
		maxTokens:  rps,
		refillRate: time.Second / time.Duration(rps),
		lastRefill: time.Now(),
	}
}

func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(rl.lastRefill)
	tokensToAdd := int(elapsed / rl.refillRate)

	if tokensToAdd > 0 {
		rl.tokens = min(rl.maxTokens, rl.tokens+tokensToAdd)
		rl.lastRefill = now
	}

	if rl.tokens > 0 {
		rl.tokens--
		return true
	}

	return false
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
