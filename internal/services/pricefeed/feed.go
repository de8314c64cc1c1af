// Package pricefeed exposes the market quote source consumed by the trade
// executor and the price reconciler. The feed itself is produced elsewhere;
// this package only reads it.
package pricefeed

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUnknownSymbol = errors.New("no quote for symbol")
	ErrStaleQuote    = errors.New("quote is stale")
)

// Quote is one market price observation for a symbol: the price in the
// source currency, the converted display-currency price, and when the
// observation was taken.
type Quote struct {
	Symbol       string    `json:"symbol"`
	Price        float64   `json:"price"`
	DisplayPrice float64   `json:"display_price"`
	Timestamp    time.Time `json:"timestamp"`
}

// Feed supplies the current quote for a symbol. Implementations must return
// ErrUnknownSymbol when the symbol has never been quoted and ErrStaleQuote
// when the latest observation is older than the feed's freshness window.
type Feed interface {
	GetQuote(ctx context.Context, symbol string) (Quote, error)
}
