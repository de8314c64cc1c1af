package repositories

import (
	"context"
	"errors"

	"tradex/internal/models"
)

var (
	ErrWalletNotFound   = errors.New("wallet not found")
	ErrPositionNotFound = errors.New("position not found")
	ErrTradeNotFound    = errors.New("trade not found")
	ErrDuplicateWallet  = errors.New("wallet already exists")
)

// LedgerRepository defines the database operations for the three ledger
// tables: wallets, positions and trades. Any write that spans more than one
// table must run inside ExecuteInTransaction so the whole unit commits or
// nothing does.
type LedgerRepository interface {
	// Wallet operations
	CreateWallet(wallet *models.Wallet) error
	GetWalletByUserID(userID uint) (*models.Wallet, error)
	// GetWalletForUpdate reads the wallet under a row-level lock. Only
	// meaningful inside ExecuteInTransaction.
	GetWalletForUpdate(userID uint) (*models.Wallet, error)
	UpdateWallet(wallet *models.Wallet) error

	// Position operations
	GetPosition(userID uint, symbol, positionType string) (*models.Position, error)
	GetPositionForUpdate(userID uint, symbol, positionType string) (*models.Position, error)
	GetPositionByID(id uint) (*models.Position, error)
	GetPositionByIDForUpdate(id uint) (*models.Position, error)
	SavePosition(position *models.Position) error
	DeletePosition(id uint) error
	ListPositionsByUser(ctx context.Context, userID uint) ([]*models.Position, error)
	ListLivePositions(ctx context.Context) ([]*models.Position, error)
	ListOverriddenPositions(ctx context.Context) ([]*models.Position, error)

	// ApplyLivePrice writes a fresh feed price and the derived valuation
	// fields into a position in a single statement whose WHERE clause
	// re-checks the override flag. Returns false when the write was
	// skipped because the flag was set in the meantime.
	ApplyLivePrice(ctx context.Context, positionID uint, price float64) (bool, error)

	// ApplyDisplayPrice is the override-side counterpart: it writes a
	// simulator price and the derived valuation fields, guarded by
	// admin_price_override = true so a concurrent fresh buy that drops
	// the override wins the race.
	ApplyDisplayPrice(ctx context.Context, positionID uint, price float64) (bool, error)

	// Trade journal operations. Trades are append-only.
	CreateTrade(trade *models.Trade) error
	ListTradesByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Trade, error)

	// ExecuteInTransaction runs fn against a repository bound to one
	// database transaction.
	ExecuteInTransaction(fn func(LedgerRepository) error) error
}
