package exchange

import (
	"errors"
	"fmt"
)

// Sentinel errors distinguished by callers. A would-post-cross rejection is a
// signal to re-evaluate next cycle; a not-found cancel means the order was
// already filled or cancelled and is treated as success.
var (
	ErrWouldPostCross = errors.New("exchange: post-only order would cross the book")
	ErrOrderNotFound  = errors.New("exchange: order not found")
)

// APIError is a non-2xx response from the exchange
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("exchange: API error %d: %s", e.Status, e.Body)
}
