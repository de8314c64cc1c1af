package pricefeed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticFeedGetQuote(t *testing.T) {
	feed := NewStaticFeed()
	feed.SetPrice("BTC", 9000000)

	quote, err := feed.GetQuote(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, 9000000.0, quote.Price)
	assert.Equal(t, quote.Price, quote.DisplayPrice)

	_, err = feed.GetQuote(context.Background(), "DOGE")
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}

func TestStaticFeedStaleness(t *testing.T) {
	now := time.Now()
	feed := NewStaticFeed().
		WithMaxAge(30 * time.Second).
		WithClock(func() time.Time { return now })

	feed.SetQuote(Quote{Symbol: "BTC", Price: 100, Timestamp: now.Add(-time.Minute)})
	_, err := feed.GetQuote(context.Background(), "BTC")
	assert.ErrorIs(t, err, ErrStaleQuote)

	feed.SetQuote(Quote{Symbol: "BTC", Price: 100, Timestamp: now.Add(-time.Second)})
	quote, err := feed.GetQuote(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, 100.0, quote.Price)
}
