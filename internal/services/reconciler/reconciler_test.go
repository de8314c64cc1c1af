package reconciler

import (
	"context"
	"testing"
	"time"

	"tradex/internal/models"
	"tradex/internal/repositories"
	"tradex/internal/services/pricefeed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPosition(t *testing.T, repo *repositories.MemoryLedgerRepository, symbol string, overridden bool) *models.Position {
	t.Helper()
	position := &models.Position{
		UserID:             1,
		Symbol:             symbol,
		PositionType:       models.PositionTypeLong,
		Amount:             10,
		BuyPrice:           100,
		CurrentPrice:       100,
		TotalInvestment:    1000,
		CurrentValue:       1000,
		AdminPriceOverride: overridden,
	}
	require.NoError(t, repo.SavePosition(position))
	return position
}

func TestReconcileAppliesPrice(t *testing.T) {
	repo := repositories.NewMemoryLedgerRepository()
	seeded := seedPosition(t, repo, "ETH", false)
	r := New(repo, pricefeed.NewStaticFeed(), time.Second, 0.001, nil)

	require.NoError(t, r.Reconcile(context.Background(), "ETH", 110))

	position, err := repo.GetPositionByID(seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, 110.0, position.CurrentPrice)
	assert.InDelta(t, 1100.0, position.CurrentValue, 1e-9)
	assert.InDelta(t, 100.0, position.Pnl, 1e-9)
	assert.InDelta(t, 10.0, position.PnlPercentage, 1e-9)
	// Cost basis never moves on a reconcile.
	assert.Equal(t, 100.0, position.BuyPrice)
	assert.Equal(t, 1000.0, position.TotalInvestment)
}

func TestReconcileSkipsJitter(t *testing.T) {
	repo := repositories.NewMemoryLedgerRepository()
	seeded := seedPosition(t, repo, "ETH", false)
	r := New(repo, pricefeed.NewStaticFeed(), time.Second, 0.001, nil)

	// 0.05% move is inside the noise threshold.
	require.NoError(t, r.Reconcile(context.Background(), "ETH", 100.05))

	position, err := repo.GetPositionByID(seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, position.CurrentPrice)
}

func TestReconcileSkipsOverridden(t *testing.T) {
	repo := repositories.NewMemoryLedgerRepository()
	seeded := seedPosition(t, repo, "ETH", true)
	r := New(repo, pricefeed.NewStaticFeed(), time.Second, 0.001, nil)

	require.NoError(t, r.Reconcile(context.Background(), "ETH", 150))

	position, err := repo.GetPositionByID(seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, position.CurrentPrice)
}

func TestApplyLivePriceLosesRaceToOverride(t *testing.T) {
	repo := repositories.NewMemoryLedgerRepository()
	seeded := seedPosition(t, repo, "ETH", true)

	// The conditional write re-checks the flag and reports a skip, it
	// does not fail.
	applied, err := repo.ApplyLivePrice(context.Background(), seeded.ID, 150)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestRunAppliesFeedPrices(t *testing.T) {
	repo := repositories.NewMemoryLedgerRepository()
	live := seedPosition(t, repo, "ETH", false)
	frozen := seedPosition(t, repo, "BTC", true)

	feed := pricefeed.NewStaticFeed()
	feed.SetPrice("ETH", 120)
	feed.SetPrice("BTC", 120)

	r := New(repo, feed, 5*time.Millisecond, 0.001, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := r.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	position, err := repo.GetPositionByID(live.ID)
	require.NoError(t, err)
	assert.Equal(t, 120.0, position.CurrentPrice)

	position, err = repo.GetPositionByID(frozen.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, position.CurrentPrice)
}

func TestRunSkipsMissingQuotes(t *testing.T) {
	repo := repositories.NewMemoryLedgerRepository()
	seeded := seedPosition(t, repo, "ETH", false)

	r := New(repo, pricefeed.NewStaticFeed(), 5*time.Millisecond, 0.001, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	err := r.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// No quote, no write; the loop keeps going without failing.
	position, err := repo.GetPositionByID(seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, position.CurrentPrice)
}
