package trade

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

func newTestService(t *testing.T) (Service, *repositories.MemoryLedgerRepository, *pricefeed.StaticFeed) {
	t.Helper()
	repo := repositories.NewMemoryLedgerRepository()
	feed := pricefeed.NewStaticFeed()
	svc := NewService(repo, feed, nil, Config{MinTradeTotal: 10}, nil)
	return svc, repo, feed
}

func fundWallet(t *testing.T, repo *repositories.MemoryLedgerRepository, userID uint, balance float64) {
	t.Helper()
	require.NoError(t, repo.CreateWallet(&models.Wallet{UserID: userID, Balance: balance}))
}

func TestExecuteBuy_OpensPosition(t *testing.T) {
	svc, repo, feed := newTestService(t)
	fundWallet(t, repo, 1, 10000)
	feed.SetPrice("BTC", 9000000)

	executed, err := svc.ExecuteBuy(context.Background(), 1, "BTC", models.PositionTypeLong, BySpend(1000))
	require.NoError(t, err)

	assert.Equal(t, models.TradeTypeBuy, executed.TradeType)
	assert.InDelta(t, 1000.0/9000000, executed.Quantity, 1e-12)
	assert.Equal(t, 1000.0, executed.TotalAmount)
	assert.NotEmpty(t, executed.Reference)

	wallet, err := repo.GetWalletByUserID(1)
	require.NoError(t, err)
	assert.Equal(t, 9000.0, wallet.Balance)

	position, err := repo.GetPosition(1, "BTC", models.PositionTypeLong)
	require.NoError(t, err)
	assert.Equal(t, 9000000.0, position.BuyPrice)
	assert.Equal(t, 9000000.0, position.CurrentPrice)
	assert.Equal(t, 1000.0, position.TotalInvestment)
	assert.Equal(t, 1000.0, position.CurrentValue)
	assert.Zero(t, position.Pnl)
	assert.Zero(t, position.PnlPercentage)
}

func TestExecuteBuy_RejectsInsufficientFunds(t *testing.T) {
	svc, repo, feed := newTestService(t)
	fundWallet(t, repo, 1, 10000)
	feed.SetPrice("BTC", 9000000)

	_, err := svc.ExecuteBuy(context.Background(), 1, "BTC", models.PositionTypeLong, ByQuantity(0.01))
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// A rejected trade changes nothing.
	wallet, err := repo.GetWalletByUserID(1)
	require.NoError(t, err)
	assert.Equal(t, 10000.0, wallet.Balance)

	_, err = repo.GetPosition(1, "BTC", models.PositionTypeLong)
	assert.ErrorIs(t, err, repositories.ErrPositionNotFound)

	trades, err := repo.ListTradesByUser(context.Background(), 1, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestExecuteBuy_RejectsBelowMinimum(t *testing.T) {
	svc, repo, feed := newTestService(t)
	fundWallet(t, repo, 1, 10000)
	feed.SetPrice("BTC", 9000000)

	_, err := svc.ExecuteBuy(context.Background(), 1, "BTC", models.PositionTypeLong, BySpend(5))
	assert.ErrorIs(t, err, ErrBelowMinimum)

	wallet, err := repo.GetWalletByUserID(1)
	require.NoError(t, err)
	assert.Equal(t, 10000.0, wallet.Balance)
}

func TestExecuteBuy_RejectsInvalidOrders(t *testing.T) {
	svc, repo, feed := newTestService(t)
	fundWallet(t, repo, 1, 10000)
	feed.SetPrice("BTC", 9000000)

	tests := []struct {
		name         string
		symbol       string
		positionType string
		size         OrderSize
	}{
		{"empty symbol", "", models.PositionTypeLong, BySpend(100)},
		{"unknown position type", "BTC", "sideways", BySpend(100)},
		{"zero quantity", "BTC", models.PositionTypeLong, ByQuantity(0)},
		{"negative amount", "BTC", models.PositionTypeLong, BySpend(-5)},
		{"zero-value size", "BTC", models.PositionTypeLong, OrderSize{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ExecuteBuy(context.Background(), 1, tt.symbol, tt.positionType, tt.size)
			assert.ErrorIs(t, err, ErrInvalidOrder)
		})
	}
}

func TestExecuteBuy_BlendsWeightedAverage(t *testing.T) {
	svc, repo, feed := newTestService(t)
	fundWallet(t, repo, 1, 100000)

	buys := []struct {
		price    float64
		quantity float64
	}{
		{100, 50},
		{150, 20},
		{80, 100},
	}

	var sumCost, sumQty float64
	for _, b := range buys {
		feed.SetPrice("ETH", b.price)
		_, err := svc.ExecuteBuy(context.Background(), 1, "ETH", models.PositionTypeLong, ByQuantity(b.quantity))
		require.NoError(t, err)
		sumCost += b.price * b.quantity
		sumQty += b.quantity
	}

	position, err := repo.GetPosition(1, "ETH", models.PositionTypeLong)
	require.NoError(t, err)
	assert.InDelta(t, sumQty, position.Amount, 1e-9)
	assert.InDelta(t, sumCost, position.TotalInvestment, 1e-9)
	assert.InDelta(t, sumCost/sumQty, position.BuyPrice, 1e-9)

	wallet, err := repo.GetWalletByUserID(1)
	require.NoError(t, err)
	assert.InDelta(t, 100000-sumCost, wallet.Balance, 1e-9)
}

func TestExecuteBuy_ClearsOverride(t *testing.T) {
	svc, repo, feed := newTestService(t)
	fundWallet(t, repo, 1, 10000)
	feed.SetPrice("BTC", 100)

	_, err := svc.ExecuteBuy(context.Background(), 1, "BTC", models.PositionTypeLong, BySpend(1000))
	require.NoError(t, err)

	position, err := repo.GetPosition(1, "BTC", models.PositionTypeLong)
	require.NoError(t, err)
	position.AdminPriceOverride = true
	position.AdminAdjustmentPct = 12.5
	require.NoError(t, repo.SavePosition(position))

	// A fresh purchase re-anchors the position to the market.
	_, err = svc.ExecuteBuy(context.Background(), 1, "BTC", models.PositionTypeLong, BySpend(500))
	require.NoError(t, err)

	position, err = repo.GetPosition(1, "BTC", models.PositionTypeLong)
	require.NoError(t, err)
	assert.False(t, position.AdminPriceOverride)
	assert.Zero(t, position.AdminAdjustmentPct)
	assert.Equal(t, 100.0, position.CurrentPrice)
}

func TestExecuteBuy_RefusesStaleQuote(t *testing.T) {
	repo := repositories.NewMemoryLedgerRepository()
	now := time.Now()
	feed := pricefeed.NewStaticFeed().
		WithMaxAge(30 * time.Second).
		WithClock(func() time.Time { return now })
	svc := NewService(repo, feed, nil, Config{MinTradeTotal: 10}, nil)
	fundWallet(t, repo, 1, 10000)

	feed.SetQuote(pricefeed.Quote{
		Symbol:    "BTC",
		Price:     9000000,
		Timestamp: now.Add(-time.Minute),
	})

	_, err := svc.ExecuteBuy(context.Background(), 1, "BTC", models.PositionTypeLong, BySpend(1000))
	assert.ErrorIs(t, err, ErrPriceUnavailable)

	_, err = svc.ExecuteBuy(context.Background(), 1, "XRP", models.PositionTypeLong, BySpend(1000))
	assert.ErrorIs(t, err, ErrPriceUnavailable)
}

func TestExecuteSell_PartialKeepsEntryPrice(t *testing.T) {
	svc, repo, feed := newTestService(t)
	fundWallet(t, repo, 1, 100000)

	feed.SetPrice("ETH", 100)
	_, err := svc.ExecuteBuy(context.Background(), 1, "ETH", models.PositionTypeLong, ByQuantity(100))
	require.NoError(t, err)

	feed.SetPrice("ETH", 120)
	executed, err := svc.ExecuteSell(context.Background(), 1, "ETH", models.PositionTypeLong, ByQuantity(40))
	require.NoError(t, err)
	assert.Equal(t, 40*120.0, executed.TotalAmount)

	position, err := repo.GetPosition(1, "ETH", models.PositionTypeLong)
	require.NoError(t, err)
	// Average cost of the remaining quantity is unaffected by a sell;
	// only the sold quantity's cost-basis contribution leaves.
	assert.Equal(t, 100.0, position.BuyPrice)
	assert.InDelta(t, 60.0, position.Amount, 1e-9)
	assert.InDelta(t, 6000.0, position.TotalInvestment, 1e-9)
	assert.InDelta(t, 60*120.0, position.CurrentValue, 1e-9)
	assert.InDelta(t, 1200.0, position.Pnl, 1e-9)
	assert.InDelta(t, 20.0, position.PnlPercentage, 1e-9)

	wallet, err := repo.GetWalletByUserID(1)
	require.NoError(t, err)
	assert.InDelta(t, 100000-10000+4800, wallet.Balance, 1e-9)
}

func TestExecuteSell_RejectsInsufficientHoldings(t *testing.T) {
	svc, repo, feed := newTestService(t)
	fundWallet(t, repo, 1, 100000)

	feed.SetPrice("ETH", 100)
	_, err := svc.ExecuteBuy(context.Background(), 1, "ETH", models.PositionTypeLong, ByQuantity(10))
	require.NoError(t, err)

	// Rejected, not clamped.
	_, err = svc.ExecuteSell(context.Background(), 1, "ETH", models.PositionTypeLong, ByQuantity(11))
	assert.ErrorIs(t, err, ErrInsufficientHoldings)

	position, err := repo.GetPosition(1, "ETH", models.PositionTypeLong)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, position.Amount, 1e-9)
}

func TestExecuteSell_RejectsWithoutPosition(t *testing.T) {
	svc, repo, feed := newTestService(t)
	fundWallet(t, repo, 1, 10000)
	feed.SetPrice("ETH", 100)

	_, err := svc.ExecuteSell(context.Background(), 1, "ETH", models.PositionTypeLong, ByQuantity(1))
	assert.ErrorIs(t, err, ErrPositionNotFound)
}

// TestLedgerScenario walks the full buy/buy/sell sequence: rejection leaves
// the wallet whole, two buys blend the entry price by investment weight,
// and a full close returns quantity times the live price and removes the
// position row.
func TestLedgerScenario(t *testing.T) {
	svc, repo, feed := newTestService(t)
	fundWallet(t, repo, 7, 10000)
	ctx := context.Background()

	feed.SetPrice("BTC", 9000000)
	_, err := svc.ExecuteBuy(ctx, 7, "BTC", models.PositionTypeLong, ByQuantity(0.01))
	require.ErrorIs(t, err, ErrInsufficientFunds)

	wallet, err := repo.GetWalletByUserID(7)
	require.NoError(t, err)
	assert.Equal(t, 10000.0, wallet.Balance)

	_, err = svc.ExecuteBuy(ctx, 7, "BTC", models.PositionTypeLong, BySpend(1000))
	require.NoError(t, err)

	position, err := repo.GetPosition(7, "BTC", models.PositionTypeLong)
	require.NoError(t, err)
	assert.InDelta(t, 0.0001111, position.Amount, 1e-7)
	assert.Equal(t, 9000000.0, position.BuyPrice)
	assert.Equal(t, 1000.0, position.TotalInvestment)

	feed.SetPrice("BTC", 10000000)
	_, err = svc.ExecuteBuy(ctx, 7, "BTC", models.PositionTypeLong, BySpend(1000))
	require.NoError(t, err)

	position, err = repo.GetPosition(7, "BTC", models.PositionTypeLong)
	require.NoError(t, err)
	assert.InDelta(t, 0.0002111, position.Amount, 1e-7)
	assert.Equal(t, 2000.0, position.TotalInvestment)
	assert.InDelta(t, 9473684.21, position.BuyPrice, 1.0)

	wallet, err = repo.GetWalletByUserID(7)
	require.NoError(t, err)
	assert.Equal(t, 8000.0, wallet.Balance)

	feed.SetPrice("BTC", 11000000)
	executed, err := svc.ExecuteSell(ctx, 7, "BTC", models.PositionTypeLong, ByQuantity(position.Amount))
	require.NoError(t, err)
	assert.InDelta(t, position.Amount*11000000, executed.TotalAmount, 1e-6)
	assert.InDelta(t, 2322.22, executed.TotalAmount, 0.5)

	_, err = repo.GetPosition(7, "BTC", models.PositionTypeLong)
	assert.ErrorIs(t, err, repositories.ErrPositionNotFound)

	wallet, err = repo.GetWalletByUserID(7)
	require.NoError(t, err)
	assert.InDelta(t, 10322.22, wallet.Balance, 0.5)

	trades, err := repo.ListTradesByUser(ctx, 7, 10, 0)
	require.NoError(t, err)
	assert.Len(t, trades, 3)
	assert.Equal(t, models.TradeTypeSell, trades[0].TradeType)
}

func TestOrderSize_Resolve(t *testing.T) {
	quantity, total, err := ByQuantity(2).resolve(50)
	require.NoError(t, err)
	assert.Equal(t, 2.0, quantity)
	assert.Equal(t, 100.0, total)

	quantity, total, err = BySpend(100).resolve(50)
	require.NoError(t, err)
	assert.Equal(t, 2.0, quantity)
	assert.Equal(t, 100.0, total)

	_, _, err = ByQuantity(1).resolve(0)
	assert.ErrorIs(t, err, ErrInvalidOrder)
}
