// Package reconciler keeps non-overridden positions' displayed prices in
// step with the live feed. It is a fire-and-forget refresher: it never
// touches cost basis, wallets or the trade journal, and price staleness is
// tolerated where ledger inconsistency is not.
package reconciler

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"tradex/internal/models"
	"tradex/internal/repositories"
	"tradex/internal/services/pricefeed"
)

const (
	// DefaultInterval is the refresh cadence.
	DefaultInterval = 2 * time.Second
	// DefaultNoiseThreshold skips writes when the price moved by no more
	// than this fraction of the stored price, avoiding write
	// amplification from feed jitter.
	DefaultNoiseThreshold = 0.001

	feedRetryBudget = 2 * time.Second
)

// Reconciler periodically pushes live prices into open, non-overridden
// positions.
type Reconciler struct {
	repo           repositories.LedgerRepository
	feed           pricefeed.Feed
	interval       time.Duration
	noiseThreshold float64
	logger         *zap.Logger
}

func New(repo repositories.LedgerRepository, feed pricefeed.Feed, interval time.Duration, noiseThreshold float64, logger *zap.Logger) *Reconciler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if noiseThreshold <= 0 {
		noiseThreshold = DefaultNoiseThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		repo:           repo,
		feed:           feed,
		interval:       interval,
		noiseThreshold: noiseThreshold,
		logger:         logger,
	}
}

// Run drives the reconciliation loop until the context is cancelled.
func (r *Reconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("price reconciler started",
		zap.Duration("interval", r.interval),
		zap.Float64("noise_threshold", r.noiseThreshold))
	for {
		select {
		case <-ticker.C:
			r.reconcileOnce(ctx)
		case <-ctx.Done():
			r.logger.Info("price reconciler stopped")
			return ctx.Err()
		}
	}
}

func (r *Reconciler) reconcileOnce(ctx context.Context) {
	positions, err := r.repo.ListLivePositions(ctx)
	if err != nil {
		r.logger.Warn("failed to list live positions", zap.Error(err))
		return
	}

	bySymbol := make(map[string][]*models.Position)
	for _, position := range positions {
		bySymbol[position.Symbol] = append(bySymbol[position.Symbol], position)
	}

	for symbol, group := range bySymbol {
		quote, err := r.fetchQuote(ctx, symbol)
		if err != nil {
			// A missing or stale quote is non-fatal; the symbol is
			// skipped until the feed recovers.
			r.logger.Debug("skipping symbol", zap.String("symbol", symbol), zap.Error(err))
			continue
		}

		for _, position := range group {
			r.apply(ctx, position, quote.Price)
		}
	}
}

// Reconcile applies one live price to every open, non-overridden position
// of a symbol. Exposed for callers that push prices instead of polling.
func (r *Reconciler) Reconcile(ctx context.Context, symbol string, livePrice float64) error {
	if livePrice <= 0 {
		return nil
	}
	positions, err := r.repo.ListLivePositions(ctx)
	if err != nil {
		return err
	}
	for _, position := range positions {
		if position.Symbol != symbol {
			continue
		}
		r.apply(ctx, position, livePrice)
	}
	return nil
}

func (r *Reconciler) apply(ctx context.Context, position *models.Position, price float64) {
	if math.Abs(price-position.CurrentPrice) <= r.noiseThreshold*position.CurrentPrice {
		return
	}

	// ApplyLivePrice re-checks the override flag in its WHERE clause, so
	// an operator flipping the flag between our read and this write wins.
	applied, err := r.repo.ApplyLivePrice(ctx, position.ID, price)
	if err != nil {
		r.logger.Warn("failed to apply live price",
			zap.Uint("position_id", position.ID),
			zap.Error(err))
		return
	}
	if !applied {
		r.logger.Debug("position overridden since read, write skipped",
			zap.Uint("position_id", position.ID))
	}
}

func (r *Reconciler) fetchQuote(ctx context.Context, symbol string) (pricefeed.Quote, error) {
	op := func() (pricefeed.Quote, error) {
		quote, err := r.feed.GetQuote(ctx, symbol)
		if err != nil {
			// Stale or unknown quotes will not improve within one
			// sweep; only transient feed errors are worth retrying.
			if errors.Is(err, pricefeed.ErrStaleQuote) || errors.Is(err, pricefeed.ErrUnknownSymbol) {
				return pricefeed.Quote{}, backoff.Permanent(err)
			}
			return pricefeed.Quote{}, err
		}
		return quote, nil
	}

	return backoff.Retry(
		ctx,
		op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(feedRetryBudget),
	)
}
