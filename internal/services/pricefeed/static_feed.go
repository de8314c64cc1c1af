package pricefeed

import (
	"context"
	"sync"
	"time"
)

// StaticFeed is an in-memory feed for tests and local runs.
type StaticFeed struct {
	mu     sync.RWMutex
	quotes map[string]Quote
	maxAge time.Duration
	now    func() time.Time
}

func NewStaticFeed() *StaticFeed {
	return &StaticFeed{
		quotes: make(map[string]Quote),
		now:    time.Now,
	}
}

// WithMaxAge enables staleness checks against the given window.
func (f *StaticFeed) WithMaxAge(maxAge time.Duration) *StaticFeed {
	f.maxAge = maxAge
	return f
}

// WithClock injects the time source used for staleness checks.
func (f *StaticFeed) WithClock(now func() time.Time) *StaticFeed {
	f.now = now
	return f
}

func (f *StaticFeed) SetQuote(quote Quote) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quotes[quote.Symbol] = quote
}

// SetPrice stores a quote at the current clock time with the display price
// equal to the source price.
func (f *StaticFeed) SetPrice(symbol string, price float64) {
	f.SetQuote(Quote{
		Symbol:       symbol,
		Price:        price,
		DisplayPrice: price,
		Timestamp:    f.now(),
	})
}

func (f *StaticFeed) Remove(symbol string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.quotes, symbol)
}

func (f *StaticFeed) GetQuote(_ context.Context, symbol string) (Quote, error) {
	f.mu.RLock()
	quote, ok := f.quotes[symbol]
	f.mu.RUnlock()
	if !ok {
		return Quote{}, ErrUnknownSymbol
	}
	if f.maxAge > 0 && f.now().Sub(quote.Timestamp) > f.maxAge {
		return Quote{}, ErrStaleQuote
	}
	return quote, nil
}
