package models

import (
	"time"
)

// Wallet holds a user's spendable funds. Balance is the only spendable
// amount; LockedBalance is provisionally credited money pending approval
// and is never debited by the trade path.
type Wallet struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	UserID        uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance       float64   `gorm:"not null;default:0" json:"balance"`
	LockedBalance float64   `gorm:"not null;default:0" json:"locked_balance"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
