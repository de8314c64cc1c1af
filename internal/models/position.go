package models

import (
	"time"
)

// Position types
const (
	PositionTypeLong  = "long"
	PositionTypeShort = "short"
)

// Position is a user's open holding in one symbol and direction. At most
// one row exists per (user, symbol, position_type); the row is deleted when
// the held amount reaches zero.
type Position struct {
	ID           uint   `gorm:"primarykey" json:"id"`
	UserID       uint   `gorm:"not null;uniqueIndex:idx_user_symbol_type" json:"user_id"`
	Symbol       string `gorm:"not null;uniqueIndex:idx_user_symbol_type" json:"symbol"`
	PositionType string `gorm:"not null;uniqueIndex:idx_user_symbol_type" json:"position_type"`

	// Amount is the quantity held, always > 0 while the row exists.
	Amount float64 `gorm:"not null" json:"amount"`
	// BuyPrice is the quantity-weighted average entry price, updated on
	// every buy and unchanged by sells.
	BuyPrice float64 `gorm:"not null" json:"buy_price"`
	// CurrentPrice is the displayed price: live feed for normal positions,
	// simulator output when the admin override flag is set.
	CurrentPrice float64 `gorm:"not null" json:"current_price"`
	// TotalInvestment is the cost basis of the currently held quantity.
	TotalInvestment float64 `gorm:"not null" json:"total_investment"`

	CurrentValue  float64 `gorm:"not null" json:"current_value"`
	Pnl           float64 `gorm:"not null" json:"pnl"`
	PnlPercentage float64 `gorm:"not null" json:"pnl_percentage"`

	AdminPriceOverride bool    `gorm:"not null;default:false" json:"admin_price_override"`
	AdminAdjustmentPct float64 `gorm:"not null;default:0" json:"admin_adjustment_pct"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Overridden reports whether the position's displayed performance is
// decoupled from the live feed.
func (p *Position) Overridden() bool {
	return p.AdminPriceOverride
}
