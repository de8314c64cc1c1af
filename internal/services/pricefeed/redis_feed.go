package pricefeed

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const quoteKeyPrefix = "quote:"

// RedisFeed reads quotes published to redis by the market-data pipeline.
// Each symbol is a hash with price, display_price and ts (unix millis).
type RedisFeed struct {
	client *redis.Client
	maxAge time.Duration
	now    func() time.Time
}

func NewRedisFeed(client *redis.Client, maxAge time.Duration) *RedisFeed {
	return &RedisFeed{
		client: client,
		maxAge: maxAge,
		now:    time.Now,
	}
}

func (f *RedisFeed) GetQuote(ctx context.Context, symbol string) (Quote, error) {
	fields, err := f.client.HGetAll(ctx, quoteKeyPrefix+symbol).Result()
	if err != nil {
		return Quote{}, fmt.Errorf("failed to read quote for %s: %w", symbol, err)
	}
	if len(fields) == 0 {
		return Quote{}, ErrUnknownSymbol
	}

	price, err := strconv.ParseFloat(fields["price"], 64)
	if err != nil {
		return Quote{}, fmt.Errorf("malformed quote price for %s: %w", symbol, err)
	}
	displayPrice, err := strconv.ParseFloat(fields["display_price"], 64)
	if err != nil {
		displayPrice = price
	}
	tsMillis, err := strconv.ParseInt(fields["ts"], 10, 64)
	if err != nil {
		return Quote{}, fmt.Errorf("malformed quote timestamp for %s: %w", symbol, err)
	}

	quote := Quote{
		Symbol:       symbol,
		Price:        price,
		DisplayPrice: displayPrice,
		Timestamp:    time.UnixMilli(tsMillis),
	}
	if f.maxAge > 0 && f.now().Sub(quote.Timestamp) > f.maxAge {
		return Quote{}, ErrStaleQuote
	}
	return quote, nil
}

// PublishQuote writes a quote back into redis. Used by local tooling and
// tests; the production pipeline writes the same hash layout.
func (f *RedisFeed) PublishQuote(ctx context.Context, quote Quote) error {
	return f.client.HSet(ctx, quoteKeyPrefix+quote.Symbol, map[string]interface{}{
		"price":         strconv.FormatFloat(quote.Price, 'f', -1, 64),
		"display_price": strconv.FormatFloat(quote.DisplayPrice, 'f', -1, 64),
		"ts":            strconv.FormatInt(quote.Timestamp.UnixMilli(), 10),
	}).Err()
}
