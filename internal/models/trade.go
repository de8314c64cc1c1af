package models

import (
	"time"
)

// Trade types
const (
	TradeTypeBuy  = "buy"
	TradeTypeSell = "sell"
)

// Trade statuses
const (
	TradeStatusCompleted = "completed"
)

// Trade is one append-only journal row per executed buy or sell. Rows are
// never updated or deleted; they are the audit trail independent of the
// mutable Position state. A trade is associated with a position only by
// (user, symbol) since positions can be closed and reopened.
type Trade struct {
	ID           uint    `gorm:"primarykey" json:"id"`
	UserID       uint    `gorm:"not null;index" json:"user_id"`
	Symbol       string  `gorm:"not null;index" json:"symbol"`
	PositionType string  `gorm:"not null" json:"position_type"`
	TradeType    string  `gorm:"not null" json:"trade_type"`
	Quantity     float64 `gorm:"not null" json:"quantity"`
	Price        float64 `gorm:"not null" json:"price"`
	TotalAmount  float64 `gorm:"not null" json:"total_amount"`
	Status       string  `gorm:"not null;default:'completed'" json:"status"`
	// Reference is an external correlation id handed back to callers.
	Reference string    `gorm:"not null;uniqueIndex" json:"reference"`
	CreatedAt time.Time `json:"created_at"`
}
