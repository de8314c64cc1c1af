// Package trade implements the buy/sell execution path of the ledger: it
// resolves the user's sizing input against the live price, validates funds
// and minimums, and commits the wallet, position and trade-journal writes
// as one transaction.
package trade

import (
	"context"
	"errors"
	"fmt"

	"tradex/internal/models"
	"tradex/internal/repositories"
	"tradex/internal/services/pricefeed"
	"tradex/internal/services/valuation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service executes buys and sells and serves the ledger read paths.
type Service interface {
	ExecuteBuy(ctx context.Context, userID uint, symbol, positionType string, size OrderSize) (*models.Trade, error)
	ExecuteSell(ctx context.Context, userID uint, symbol, positionType string, size OrderSize) (*models.Trade, error)

	GetWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	CreateWallet(ctx context.Context, userID uint) (*models.Wallet, error)
	ListPositions(ctx context.Context, userID uint) ([]*models.Position, error)
	ListTrades(ctx context.Context, userID uint, limit, offset int) ([]*models.Trade, error)
}

type service struct {
	repo   repositories.LedgerRepository
	feed   pricefeed.Feed
	cache  WalletCache
	config Config
	logger *zap.Logger
}

func NewService(repo repositories.LedgerRepository, feed pricefeed.Feed, cache WalletCache, config Config, logger *zap.Logger) Service {
	if repo == nil {
		panic("repo is required")
	}
	if feed == nil {
		panic("feed is required")
	}
	if config.MinTradeTotal <= 0 {
		config.MinTradeTotal = DefaultMinTradeTotal
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		repo:   repo,
		feed:   feed,
		cache:  cache,
		config: config,
		logger: logger,
	}
}

func (s *service) ExecuteBuy(ctx context.Context, userID uint, symbol, positionType string, size OrderSize) (*models.Trade, error) {
	if err := validateOrder(symbol, positionType); err != nil {
		return nil, err
	}

	quote, err := s.liveQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	quantity, total, err := size.resolve(quote.Price)
	if err != nil {
		return nil, err
	}
	if total < s.config.MinTradeTotal {
		return nil, fmt.Errorf("%w: minimum is %v", ErrBelowMinimum, s.config.MinTradeTotal)
	}

	trade := s.newTrade(userID, symbol, positionType, models.TradeTypeBuy, quantity, quote.Price, total)

	err = s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		wallet, err := tx.GetWalletForUpdate(userID)
		if err != nil {
			if errors.Is(err, repositories.ErrWalletNotFound) {
				return ErrWalletNotFound
			}
			return err
		}
		if wallet.Balance < total {
			return ErrInsufficientFunds
		}

		position, err := tx.GetPositionForUpdate(userID, symbol, positionType)
		switch {
		case err == nil:
			applyBuy(position, quantity, total, quote.Price)
		case errors.Is(err, repositories.ErrPositionNotFound):
			position = openPosition(userID, symbol, positionType, quantity, total, quote.Price)
		default:
			return err
		}
		if err := tx.SavePosition(position); err != nil {
			return err
		}

		wallet.Balance -= total
		if err := tx.UpdateWallet(wallet); err != nil {
			return err
		}

		return tx.CreateTrade(trade)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateWallet(ctx, userID)
	s.logger.Info("buy executed",
		zap.Uint("user_id", userID),
		zap.String("symbol", symbol),
		zap.Float64("quantity", quantity),
		zap.Float64("price", quote.Price),
		zap.Float64("total", total))

	return trade, nil
}

func (s *service) ExecuteSell(ctx context.Context, userID uint, symbol, positionType string, size OrderSize) (*models.Trade, error) {
	if err := validateOrder(symbol, positionType); err != nil {
		return nil, err
	}

	// Proceeds are always computed from the live price at execution,
	// never from the stored (possibly overridden) position price.
	quote, err := s.liveQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	quantity, proceeds, err := size.resolve(quote.Price)
	if err != nil {
		return nil, err
	}

	trade := s.newTrade(userID, symbol, positionType, models.TradeTypeSell, quantity, quote.Price, proceeds)

	err = s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		wallet, err := tx.GetWalletForUpdate(userID)
		if err != nil {
			if errors.Is(err, repositories.ErrWalletNotFound) {
				return ErrWalletNotFound
			}
			return err
		}

		position, err := tx.GetPositionForUpdate(userID, symbol, positionType)
		if err != nil {
			if errors.Is(err, repositories.ErrPositionNotFound) {
				return ErrPositionNotFound
			}
			return err
		}
		if position.Amount < quantity-dustQuantity {
			return ErrInsufficientHoldings
		}

		remaining := position.Amount - quantity
		if remaining <= dustQuantity {
			if err := tx.DeletePosition(position.ID); err != nil {
				return err
			}
		} else {
			applySell(position, quantity, quote.Price)
			if err := tx.SavePosition(position); err != nil {
				return err
			}
		}

		wallet.Balance += proceeds
		if err := tx.UpdateWallet(wallet); err != nil {
			return err
		}

		return tx.CreateTrade(trade)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateWallet(ctx, userID)
	s.logger.Info("sell executed",
		zap.Uint("user_id", userID),
		zap.String("symbol", symbol),
		zap.Float64("quantity", quantity),
		zap.Float64("price", quote.Price),
		zap.Float64("proceeds", proceeds))

	return trade, nil
}

func (s *service) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	if s.cache != nil {
		if wallet, err := s.cache.Get(ctx, userID); err == nil {
			return wallet, nil
		}
	}

	wallet, err := s.repo.GetWalletByUserID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, wallet); err != nil {
			s.logger.Debug("wallet cache set failed", zap.Error(err))
		}
	}
	return wallet, nil
}

func (s *service) CreateWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	wallet := &models.Wallet{UserID: userID}
	if err := s.repo.CreateWallet(wallet); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, wallet); err != nil {
			s.logger.Debug("wallet cache set failed", zap.Error(err))
		}
	}
	return wallet, nil
}

func (s *service) ListPositions(ctx context.Context, userID uint) ([]*models.Position, error) {
	return s.repo.ListPositionsByUser(ctx, userID)
}

func (s *service) ListTrades(ctx context.Context, userID uint, limit, offset int) ([]*models.Trade, error) {
	return s.repo.ListTradesByUser(ctx, userID, limit, offset)
}

func (s *service) liveQuote(ctx context.Context, symbol string) (pricefeed.Quote, error) {
	quote, err := s.feed.GetQuote(ctx, symbol)
	if err != nil {
		if errors.Is(err, pricefeed.ErrUnknownSymbol) || errors.Is(err, pricefeed.ErrStaleQuote) {
			return pricefeed.Quote{}, fmt.Errorf("%w: %s", ErrPriceUnavailable, symbol)
		}
		return pricefeed.Quote{}, fmt.Errorf("failed to get quote for %s: %w", symbol, err)
	}
	return quote, nil
}

func (s *service) newTrade(userID uint, symbol, positionType, tradeType string, quantity, price, total float64) *models.Trade {
	return &models.Trade{
		UserID:       userID,
		Symbol:       symbol,
		PositionType: positionType,
		TradeType:    tradeType,
		Quantity:     quantity,
		Price:        price,
		TotalAmount:  total,
		Status:       models.TradeStatusCompleted,
		Reference:    uuid.NewString(),
	}
}

func (s *service) invalidateWallet(ctx context.Context, userID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Debug("wallet cache invalidation failed", zap.Error(err))
	}
}

func validateOrder(symbol, positionType string) error {
	if symbol == "" {
		return fmt.Errorf("%w: empty symbol", ErrInvalidOrder)
	}
	if positionType != models.PositionTypeLong && positionType != models.PositionTypeShort {
		return fmt.Errorf("%w: unknown position type %q", ErrInvalidOrder, positionType)
	}
	return nil
}

func openPosition(userID uint, symbol, positionType string, quantity, cost, price float64) *models.Position {
	return &models.Position{
		UserID:          userID,
		Symbol:          symbol,
		PositionType:    positionType,
		Amount:          quantity,
		BuyPrice:        price,
		CurrentPrice:    price,
		TotalInvestment: cost,
		CurrentValue:    cost,
		Pnl:             0,
		PnlPercentage:   0,
	}
}

// applyBuy folds a new purchase into an existing position. The entry price
// blends by investment-weighted average, and a fresh buy re-anchors the
// position to the market by dropping any admin override.
func applyBuy(position *models.Position, quantity, cost, livePrice float64) {
	newQuantity, newInvestment, buyPrice := valuation.WeightedAverageEntry(
		position.Amount, position.TotalInvestment, quantity, cost)

	position.Amount = newQuantity
	position.TotalInvestment = newInvestment
	position.BuyPrice = buyPrice
	position.CurrentPrice = livePrice
	position.AdminPriceOverride = false
	position.AdminAdjustmentPct = 0

	v := valuation.Compute(newQuantity, newInvestment, livePrice)
	position.CurrentValue = v.CurrentValue
	position.Pnl = v.Pnl
	position.PnlPercentage = v.PnlPercentage
}

// applySell removes the sold quantity's cost-basis contribution at the
// average entry price. The entry price of the remaining quantity is
// unchanged by a sell.
func applySell(position *models.Position, quantity, livePrice float64) {
	position.Amount -= quantity
	position.TotalInvestment -= quantity * position.BuyPrice
	if position.TotalInvestment < 0 {
		position.TotalInvestment = 0
	}
	position.CurrentPrice = livePrice

	v := valuation.Compute(position.Amount, position.TotalInvestment, livePrice)
	position.CurrentValue = v.CurrentValue
	position.Pnl = v.Pnl
	position.PnlPercentage = v.PnlPercentage
}
