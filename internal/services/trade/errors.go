package trade

import "errors"

// Service errors. Every one of these is returned before any ledger write;
// a rejected trade changes no balances.
var (
	ErrInvalidOrder         = errors.New("invalid order")
	ErrBelowMinimum         = errors.New("trade total below minimum")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientHoldings = errors.New("insufficient quantity")
	ErrPositionNotFound     = errors.New("no open position")
	ErrWalletNotFound       = errors.New("wallet not found")
	ErrPriceUnavailable     = errors.New("live price unavailable")
)
