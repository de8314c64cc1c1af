package repositories

import (
	"context"
	"sort"
	"sync"

	"tradex/internal/models"
)

// MemoryLedgerRepository is an in-memory LedgerRepository used by tests and
// local runs without postgres. ExecuteInTransaction takes a snapshot and
// restores it when fn fails, so multi-table units are atomic here too, and
// a single mutex stands in for the row-level locks: transactions are
// serialized the way FOR UPDATE serializes writers on the same rows.
type MemoryLedgerRepository struct {
	mu             sync.Mutex
	wallets        map[uint]models.Wallet
	positions      map[uint]models.Position
	trades         []models.Trade
	nextWalletID   uint
	nextPositionID uint
	nextTradeID    uint
}

func NewMemoryLedgerRepository() *MemoryLedgerRepository {
	return &MemoryLedgerRepository{
		wallets:   make(map[uint]models.Wallet),
		positions: make(map[uint]models.Position),
	}
}

type memorySnapshot struct {
	wallets   map[uint]models.Wallet
	positions map[uint]models.Position
	trades    []models.Trade
}

func (m *MemoryLedgerRepository) snapshot() memorySnapshot {
	wallets := make(map[uint]models.Wallet, len(m.wallets))
	for k, v := range m.wallets {
		wallets[k] = v
	}
	positions := make(map[uint]models.Position, len(m.positions))
	for k, v := range m.positions {
		positions[k] = v
	}
	trades := make([]models.Trade, len(m.trades))
	copy(trades, m.trades)
	return memorySnapshot{wallets: wallets, positions: positions, trades: trades}
}

func (m *MemoryLedgerRepository) restore(snap memorySnapshot) {
	m.wallets = snap.wallets
	m.positions = snap.positions
	m.trades = snap.trades
}

func (m *MemoryLedgerRepository) ExecuteInTransaction(fn func(LedgerRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	if err := fn(&memoryTx{repo: m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *MemoryLedgerRepository) CreateWallet(wallet *models.Wallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createWalletLocked(wallet)
}

func (m *MemoryLedgerRepository) GetWalletByUserID(userID uint) (*models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getWalletLocked(userID)
}

func (m *MemoryLedgerRepository) GetWalletForUpdate(userID uint) (*models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getWalletLocked(userID)
}

func (m *MemoryLedgerRepository) UpdateWallet(wallet *models.Wallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateWalletLocked(wallet)
}

func (m *MemoryLedgerRepository) GetPosition(userID uint, symbol, positionType string) (*models.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getPositionLocked(userID, symbol, positionType)
}

func (m *MemoryLedgerRepository) GetPositionForUpdate(userID uint, symbol, positionType string) (*models.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getPositionLocked(userID, symbol, positionType)
}

func (m *MemoryLedgerRepository) GetPositionByID(id uint) (*models.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getPositionByIDLocked(id)
}

func (m *MemoryLedgerRepository) GetPositionByIDForUpdate(id uint) (*models.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getPositionByIDLocked(id)
}

func (m *MemoryLedgerRepository) SavePosition(position *models.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.savePositionLocked(position)
}

func (m *MemoryLedgerRepository) DeletePosition(id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deletePositionLocked(id)
}

func (m *MemoryLedgerRepository) ListPositionsByUser(_ context.Context, userID uint) ([]*models.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listPositionsLocked(func(p models.Position) bool { return p.UserID == userID }), nil
}

func (m *MemoryLedgerRepository) ListLivePositions(_ context.Context) ([]*models.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listPositionsLocked(func(p models.Position) bool { return !p.AdminPriceOverride }), nil
}

func (m *MemoryLedgerRepository) ListOverriddenPositions(_ context.Context) ([]*models.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listPositionsLocked(func(p models.Position) bool { return p.AdminPriceOverride }), nil
}

func (m *MemoryLedgerRepository) ApplyLivePrice(_ context.Context, positionID uint, price float64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applyPriceLocked(positionID, price, false), nil
}

func (m *MemoryLedgerRepository) ApplyDisplayPrice(_ context.Context, positionID uint, price float64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applyPriceLocked(positionID, price, true), nil
}

func (m *MemoryLedgerRepository) CreateTrade(trade *models.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createTradeLocked(trade)
}

func (m *MemoryLedgerRepository) ListTradesByUser(_ context.Context, userID uint, limit, offset int) ([]*models.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listTradesLocked(userID, limit, offset), nil
}

// Unlocked internals shared with the transaction view.

func (m *MemoryLedgerRepository) createWalletLocked(wallet *models.Wallet) error {
	if _, ok := m.wallets[wallet.UserID]; ok {
		return ErrDuplicateWallet
	}
	m.nextWalletID++
	wallet.ID = m.nextWalletID
	m.wallets[wallet.UserID] = *wallet
	return nil
}

func (m *MemoryLedgerRepository) getWalletLocked(userID uint) (*models.Wallet, error) {
	wallet, ok := m.wallets[userID]
	if !ok {
		return nil, ErrWalletNotFound
	}
	return &wallet, nil
}

func (m *MemoryLedgerRepository) updateWalletLocked(wallet *models.Wallet) error {
	if _, ok := m.wallets[wallet.UserID]; !ok {
		return ErrWalletNotFound
	}
	m.wallets[wallet.UserID] = *wallet
	return nil
}

func (m *MemoryLedgerRepository) getPositionLocked(userID uint, symbol, positionType string) (*models.Position, error) {
	for _, position := range m.positions {
		if position.UserID == userID && position.Symbol == symbol && position.PositionType == positionType {
			p := position
			return &p, nil
		}
	}
	return nil, ErrPositionNotFound
}

func (m *MemoryLedgerRepository) getPositionByIDLocked(id uint) (*models.Position, error) {
	position, ok := m.positions[id]
	if !ok {
		return nil, ErrPositionNotFound
	}
	return &position, nil
}

func (m *MemoryLedgerRepository) savePositionLocked(position *models.Position) error {
	if position.ID == 0 {
		m.nextPositionID++
		position.ID = m.nextPositionID
	}
	m.positions[position.ID] = *position
	return nil
}

func (m *MemoryLedgerRepository) deletePositionLocked(id uint) error {
	if _, ok := m.positions[id]; !ok {
		return ErrPositionNotFound
	}
	delete(m.positions, id)
	return nil
}

func (m *MemoryLedgerRepository) listPositionsLocked(match func(models.Position) bool) []*models.Position {
	var positions []*models.Position
	for _, position := range m.positions {
		if match(position) {
			p := position
			positions = append(positions, &p)
		}
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].ID < positions[j].ID })
	return positions
}

func (m *MemoryLedgerRepository) applyPriceLocked(positionID uint, price float64, wantOverride bool) bool {
	position, ok := m.positions[positionID]
	if !ok || position.AdminPriceOverride != wantOverride {
		return false
	}
	position.CurrentPrice = price
	position.CurrentValue = position.Amount * price
	position.Pnl = position.CurrentValue - position.TotalInvestment
	if position.TotalInvestment > 0 {
		position.PnlPercentage = position.Pnl / position.TotalInvestment * 100
	} else {
		position.PnlPercentage = 0
	}
	m.positions[positionID] = position
	return true
}

func (m *MemoryLedgerRepository) createTradeLocked(trade *models.Trade) error {
	m.nextTradeID++
	trade.ID = m.nextTradeID
	m.trades = append(m.trades, *trade)
	return nil
}

func (m *MemoryLedgerRepository) listTradesLocked(userID uint, limit, offset int) []*models.Trade {
	var trades []*models.Trade
	for i := len(m.trades) - 1; i >= 0; i-- {
		if m.trades[i].UserID == userID {
			t := m.trades[i]
			trades = append(trades, &t)
		}
	}
	if offset > len(trades) {
		offset = len(trades)
	}
	trades = trades[offset:]
	if limit > 0 && limit < len(trades) {
		trades = trades[:limit]
	}
	return trades
}

// memoryTx is the view handed to ExecuteInTransaction callbacks. The parent
// already holds the lock.
type memoryTx struct {
	repo *MemoryLedgerRepository
}

func (t *memoryTx) CreateWallet(wallet *models.Wallet) error { return t.repo.createWalletLocked(wallet) }
func (t *memoryTx) GetWalletByUserID(userID uint) (*models.Wallet, error) {
	return t.repo.getWalletLocked(userID)
}
func (t *memoryTx) GetWalletForUpdate(userID uint) (*models.Wallet, error) {
	return t.repo.getWalletLocked(userID)
}
func (t *memoryTx) UpdateWallet(wallet *models.Wallet) error { return t.repo.updateWalletLocked(wallet) }

func (t *memoryTx) GetPosition(userID uint, symbol, positionType string) (*models.Position, error) {
	return t.repo.getPositionLocked(userID, symbol, positionType)
}
func (t *memoryTx) GetPositionForUpdate(userID uint, symbol, positionType string) (*models.Position, error) {
	return t.repo.getPositionLocked(userID, symbol, positionType)
}
func (t *memoryTx) GetPositionByID(id uint) (*models.Position, error) {
	return t.repo.getPositionByIDLocked(id)
}
func (t *memoryTx) GetPositionByIDForUpdate(id uint) (*models.Position, error) {
	return t.repo.getPositionByIDLocked(id)
}
func (t *memoryTx) SavePosition(position *models.Position) error {
	return t.repo.savePositionLocked(position)
}
func (t *memoryTx) DeletePosition(id uint) error { return t.repo.deletePositionLocked(id) }

func (t *memoryTx) ListPositionsByUser(_ context.Context, userID uint) ([]*models.Position, error) {
	return t.repo.listPositionsLocked(func(p models.Position) bool { return p.UserID == userID }), nil
}
func (t *memoryTx) ListLivePositions(_ context.Context) ([]*models.Position, error) {
	return t.repo.listPositionsLocked(func(p models.Position) bool { return !p.AdminPriceOverride }), nil
}
func (t *memoryTx) ListOverriddenPositions(_ context.Context) ([]*models.Position, error) {
	return t.repo.listPositionsLocked(func(p models.Position) bool { return p.AdminPriceOverride }), nil
}
func (t *memoryTx) ApplyLivePrice(_ context.Context, positionID uint, price float64) (bool, error) {
	return t.repo.applyPriceLocked(positionID, price, false), nil
}
func (t *memoryTx) ApplyDisplayPrice(_ context.Context, positionID uint, price float64) (bool, error) {
	return t.repo.applyPriceLocked(positionID, price, true), nil
}

func (t *memoryTx) CreateTrade(trade *models.Trade) error { return t.repo.createTradeLocked(trade) }
func (t *memoryTx) ListTradesByUser(_ context.Context, userID uint, limit, offset int) ([]*models.Trade, error) {
	return t.repo.listTradesLocked(userID, limit, offset), nil
}

// Nested transactions join the outer one.
func (t *memoryTx) ExecuteInTransaction(fn func(LedgerRepository) error) error {
	return fn(t)
}
