package repositories

import (
	"context"
	"errors"
	"fmt"

	"tradex/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) CreateWallet(wallet *models.Wallet) error {
	if err := r.db.Create(wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateWallet
		}
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

func (r *ledgerRepository) GetWalletByUserID(userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (r *ledgerRepository) GetWalletForUpdate(userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}
	return &wallet, nil
}

func (r *ledgerRepository) UpdateWallet(wallet *models.Wallet) error {
	if err := r.db.Save(wallet).Error; err != nil {
		return fmt.Errorf("failed to update wallet: %w", err)
	}
	return nil
}

func (r *ledgerRepository) GetPosition(userID uint, symbol, positionType string) (*models.Position, error) {
	var position models.Position
	err := r.db.Where("user_id = ? AND symbol = ? AND position_type = ?", userID, symbol, positionType).
		First(&position).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPositionNotFound
		}
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	return &position, nil
}

func (r *ledgerRepository) GetPositionForUpdate(userID uint, symbol, positionType string) (*models.Position, error) {
	var position models.Position
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND symbol = ? AND position_type = ?", userID, symbol, positionType).
		First(&position).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPositionNotFound
		}
		return nil, fmt.Errorf("failed to lock position: %w", err)
	}
	return &position, nil
}

func (r *ledgerRepository) GetPositionByID(id uint) (*models.Position, error) {
	var position models.Position
	if err := r.db.First(&position, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPositionNotFound
		}
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	return &position, nil
}

func (r *ledgerRepository) GetPositionByIDForUpdate(id uint) (*models.Position, error) {
	var position models.Position
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&position, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPositionNotFound
		}
		return nil, fmt.Errorf("failed to lock position: %w", err)
	}
	return &position, nil
}

func (r *ledgerRepository) SavePosition(position *models.Position) error {
	if err := r.db.Save(position).Error; err != nil {
		return fmt.Errorf("failed to save position: %w", err)
	}
	return nil
}

func (r *ledgerRepository) DeletePosition(id uint) error {
	result := r.db.Delete(&models.Position{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete position: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPositionNotFound
	}
	return nil
}

func (r *ledgerRepository) ListPositionsByUser(ctx context.Context, userID uint) ([]*models.Position, error) {
	var positions []*models.Position
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("symbol ASC").
		Find(&positions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	return positions, nil
}

func (r *ledgerRepository) ListLivePositions(ctx context.Context) ([]*models.Position, error) {
	var positions []*models.Position
	err := r.db.WithContext(ctx).
		Where("admin_price_override = ?", false).
		Find(&positions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list live positions: %w", err)
	}
	return positions, nil
}

func (r *ledgerRepository) ListOverriddenPositions(ctx context.Context) ([]*models.Position, error) {
	var positions []*models.Position
	err := r.db.WithContext(ctx).
		Where("admin_price_override = ?", true).
		Find(&positions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list overridden positions: %w", err)
	}
	return positions, nil
}

func (r *ledgerRepository) ApplyLivePrice(ctx context.Context, positionID uint, price float64) (bool, error) {
	// Single statement so the override re-check and the write cannot be
	// separated by a concurrent flag flip. Valuation fields are derived
	// in SQL from the stored amount and cost basis.
	result := r.db.WithContext(ctx).
		Model(&models.Position{}).
		Where("id = ? AND admin_price_override = ?", positionID, false).
		Updates(map[string]interface{}{
			"current_price": price,
			"current_value": gorm.Expr("amount * ?", price),
			"pnl":           gorm.Expr("amount * ? - total_investment", price),
			"pnl_percentage": gorm.Expr(
				"CASE WHEN total_investment > 0 THEN (amount * ? - total_investment) / total_investment * 100 ELSE 0 END",
				price,
			),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to apply live price: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *ledgerRepository) ApplyDisplayPrice(ctx context.Context, positionID uint, price float64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Position{}).
		Where("id = ? AND admin_price_override = ?", positionID, true).
		Updates(map[string]interface{}{
			"current_price": price,
			"current_value": gorm.Expr("amount * ?", price),
			"pnl":           gorm.Expr("amount * ? - total_investment", price),
			"pnl_percentage": gorm.Expr(
				"CASE WHEN total_investment > 0 THEN (amount * ? - total_investment) / total_investment * 100 ELSE 0 END",
				price,
			),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to apply display price: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *ledgerRepository) CreateTrade(trade *models.Trade) error {
	if err := r.db.Create(trade).Error; err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}
	return nil
}

func (r *ledgerRepository) ListTradesByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Trade, error) {
	var trades []*models.Trade
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&trades).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	return trades, nil
}

func (r *ledgerRepository) ExecuteInTransaction(fn func(LedgerRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&ledgerRepository{db: tx})
	})
}
