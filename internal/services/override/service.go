// Package override implements the operator-facing side of the ledger: a
// position can be decoupled from the live feed and shown a chosen
// performance instead, kept visually alive by a bounded random walk. The
// real trade economics (cost basis, journal) are never touched; only the
// displayed price moves.
package override

import (
	"context"
	"errors"
	"time"

	"tradex/internal/models"
	"tradex/internal/repositories"
	"tradex/internal/services/valuation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service is the admin override state machine. A position is either Live
// (valued from the feed) or Overridden (valued from the simulator); the
// transitions are SetOverride/NudgePnl in, and a fresh buy or a close out.
type Service interface {
	SetOverride(ctx context.Context, positionID uint, targetPct float64) (*models.Position, error)
	NudgePnl(ctx context.Context, positionID uint, deltaPct float64) (*models.Position, error)
	ClosePosition(ctx context.Context, positionID uint) (*models.Trade, error)

	// Run drives the bounded walk for all overridden positions until the
	// context is cancelled.
	Run(ctx context.Context) error
}

type service struct {
	repo     repositories.LedgerRepository
	sim      *Simulator
	cache    walletInvalidator
	interval time.Duration
	logger   *zap.Logger
}

type walletInvalidator interface {
	Invalidate(ctx context.Context, userID uint) error
}

func NewService(repo repositories.LedgerRepository, sim *Simulator, cache walletInvalidator, interval time.Duration, logger *zap.Logger) Service {
	if repo == nil {
		panic("repo is required")
	}
	if sim == nil {
		sim = NewSimulator(interval, nil, nil)
	}
	if interval <= 0 {
		interval = DefaultWalkInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		repo:     repo,
		sim:      sim,
		cache:    cache,
		interval: interval,
		logger:   logger,
	}
}

func (s *service) SetOverride(ctx context.Context, positionID uint, targetPct float64) (*models.Position, error) {
	position, err := s.retarget(positionID, func(p *models.Position) float64 {
		return targetPct
	})
	if err != nil {
		return nil, err
	}

	s.sim.Recenter(positionID)
	s.logger.Info("override set",
		zap.Uint("position_id", positionID),
		zap.Float64("target_pct", targetPct))
	return position, nil
}

func (s *service) NudgePnl(ctx context.Context, positionID uint, deltaPct float64) (*models.Position, error) {
	// Relative step: the new target is the currently stored P&L% plus the
	// delta, so repeated nudges walk the displayed number in visible
	// increments.
	position, err := s.retarget(positionID, func(p *models.Position) float64 {
		return p.PnlPercentage + deltaPct
	})
	if err != nil {
		return nil, err
	}

	s.sim.Recenter(positionID)
	s.logger.Info("pnl nudged",
		zap.Uint("position_id", positionID),
		zap.Float64("delta_pct", deltaPct),
		zap.Float64("target_pct", position.AdminAdjustmentPct))
	return position, nil
}

// retarget converts a target P&L% into an equivalent current_price write
// with the override flag set, under a row lock.
func (s *service) retarget(positionID uint, target func(*models.Position) float64) (*models.Position, error) {
	var position *models.Position
	err := s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		var err error
		position, err = tx.GetPositionByIDForUpdate(positionID)
		if err != nil {
			if errors.Is(err, repositories.ErrPositionNotFound) {
				return ErrPositionNotFound
			}
			return err
		}

		targetPct := target(position)
		price, v := valuation.FromPnlPercentage(position.Amount, position.TotalInvestment, targetPct)

		position.AdminPriceOverride = true
		position.AdminAdjustmentPct = targetPct
		position.CurrentPrice = price
		position.CurrentValue = v.CurrentValue
		position.Pnl = v.Pnl
		position.PnlPercentage = v.PnlPercentage

		return tx.SavePosition(position)
	})
	if err != nil {
		return nil, err
	}
	return position, nil
}

func (s *service) ClosePosition(ctx context.Context, positionID uint) (*models.Trade, error) {
	// Resolve the owner outside the transaction so the wallet can be
	// locked before the position, matching the executor's lock order.
	position, err := s.repo.GetPositionByID(positionID)
	if err != nil {
		if errors.Is(err, repositories.ErrPositionNotFound) {
			return nil, ErrPositionNotFound
		}
		return nil, err
	}
	if !position.Overridden() {
		return nil, ErrNotOverridden
	}

	var trade *models.Trade
	err = s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		wallet, err := tx.GetWalletForUpdate(position.UserID)
		if err != nil {
			if errors.Is(err, repositories.ErrWalletNotFound) {
				return ErrWalletNotFound
			}
			return err
		}

		position, err = tx.GetPositionByIDForUpdate(positionID)
		if err != nil {
			if errors.Is(err, repositories.ErrPositionNotFound) {
				return ErrPositionNotFound
			}
			return err
		}
		if !position.Overridden() {
			return ErrNotOverridden
		}

		// Full close at the overridden price, shaped exactly like a
		// normal full sell: credit, delete, journal.
		proceeds := position.Amount * position.CurrentPrice

		if err := tx.DeletePosition(position.ID); err != nil {
			return err
		}

		wallet.Balance += proceeds
		if err := tx.UpdateWallet(wallet); err != nil {
			return err
		}

		trade = &models.Trade{
			UserID:       position.UserID,
			Symbol:       position.Symbol,
			PositionType: position.PositionType,
			TradeType:    models.TradeTypeSell,
			Quantity:     position.Amount,
			Price:        position.CurrentPrice,
			TotalAmount:  proceeds,
			Status:       models.TradeStatusCompleted,
			Reference:    uuid.NewString(),
		}
		return tx.CreateTrade(trade)
	})
	if err != nil {
		return nil, err
	}

	s.sim.Recenter(positionID)
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, position.UserID); err != nil {
			s.logger.Debug("wallet cache invalidation failed", zap.Error(err))
		}
	}
	s.logger.Info("overridden position closed",
		zap.Uint("position_id", positionID),
		zap.Uint("user_id", position.UserID),
		zap.Float64("proceeds", trade.TotalAmount))
	return trade, nil
}

func (s *service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("override walk started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ticker.C:
			s.walkOnce(ctx)
		case <-ctx.Done():
			s.logger.Info("override walk stopped")
			return ctx.Err()
		}
	}
}

// walkOnce re-rolls every overridden position's displayed P&L%. This is the
// one cosmetic, non-financial path in the ledger, so failures are logged
// and swallowed.
func (s *service) walkOnce(ctx context.Context) {
	positions, err := s.repo.ListOverriddenPositions(ctx)
	if err != nil {
		s.logger.Warn("failed to list overridden positions", zap.Error(err))
		return
	}

	keep := make(map[uint]bool, len(positions))
	for _, position := range positions {
		keep[position.ID] = true

		pct := s.sim.Tick(position.ID, position.AdminAdjustmentPct)
		price, _ := valuation.FromPnlPercentage(position.Amount, position.TotalInvestment, pct)

		applied, err := s.repo.ApplyDisplayPrice(ctx, position.ID, price)
		if err != nil {
			s.logger.Debug("display price write failed",
				zap.Uint("position_id", position.ID),
				zap.Error(err))
			continue
		}
		if !applied {
			// Override dropped between list and write; state is pruned
			// below.
			continue
		}
	}

	s.sim.Retain(keep)
}
