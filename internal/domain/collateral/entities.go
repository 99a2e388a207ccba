package collateral

import (
	"errors"
	"time"
)

var (
	ErrNotFound               = errors.New("collateral position not found")
	ErrInvalidAmount          = errors.New("collateral amount must be positive")
	ErrInsufficientCollateral = errors.New("insufficient collateral")
	ErrBelowMinimumRatio      = errors.New("withdrawal would breach minimum collateral ratio")
	ErrStalePrice             = errors.New("price reference is stale")
)

// Position holds the collateral a borrower has posted in one asset.
// A borrower may hold positions in several assets; each (borrower, asset)
// pair is a single row. Amount never goes negative.
type Position struct {
	ID         uint64    `gorm:"primaryKey;column:id" json:"-"`
	BorrowerID string    `gorm:"size:32;uniqueIndex:ux_positions_borrower_asset" json:"borrower_id"`
	Asset      string    `gorm:"size:16;uniqueIndex:ux_positions_borrower_asset" json:"asset"`
	Amount     uint64    `gorm:"column:amount" json:"amount"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Position) TableName() string { return "collateral_positions" }
