package trade

import (
	"context"

	"tradex/internal/models"
)

type sizeMode int

const (
	byQuantity sizeMode = iota + 1
	bySpend
)

// OrderSize is the user's sizing input: either an asset quantity or a
// spend amount in the wallet currency, never both. It is resolved exactly
// once against the live price; nothing downstream branches on the mode.
type OrderSize struct {
	mode  sizeMode
	value float64
}

// ByQuantity sizes an order by asset quantity.
func ByQuantity(quantity float64) OrderSize {
	return OrderSize{mode: byQuantity, value: quantity}
}

// BySpend sizes an order by total wallet-currency amount.
func BySpend(amount float64) OrderSize {
	return OrderSize{mode: bySpend, value: amount}
}

// resolve converts the size into a canonical (quantity, total) pair at the
// given price.
func (s OrderSize) resolve(price float64) (quantity, total float64, err error) {
	if s.value <= 0 || price <= 0 {
		return 0, 0, ErrInvalidOrder
	}
	switch s.mode {
	case byQuantity:
		return s.value, s.value * price, nil
	case bySpend:
		return s.value / price, s.value, nil
	default:
		return 0, 0, ErrInvalidOrder
	}
}

// WalletCache is the cache invalidation surface the executor needs after a
// committed wallet mutation.
type WalletCache interface {
	Get(ctx context.Context, userID uint) (*models.Wallet, error)
	Set(ctx context.Context, wallet *models.Wallet) error
	Invalidate(ctx context.Context, userID uint) error
}

// Config holds the executor's tunables.
type Config struct {
	// MinTradeTotal is the smallest accepted order total in wallet
	// currency.
	MinTradeTotal float64
}
