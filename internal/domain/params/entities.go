package params

import (
	"errors"
	"time"
)

var (
	ErrNotFound    = errors.New("protocol params not found")
	ErrOutOfBounds = errors.New("parameter value out of bounds")
)

// Params is one immutable version of the protocol configuration. Changes
// append a new row; readers always use the latest version. The version
// history plus the change log make every configuration the protocol ever
// ran under reconstructable.
type Params struct {
	ID                       uint64    `gorm:"primaryKey;column:id" json:"-"`
	Version                  uint64    `gorm:"uniqueIndex:ux_params_version" json:"version"`
	BaseRateBps              uint64    `gorm:"column:base_rate_bps" json:"base_rate_bps"`
	RiskPremiumMultiplierBps uint64    `gorm:"column:risk_premium_multiplier_bps" json:"risk_premium_multiplier_bps"`
	MinOriginationRatioBps   uint64    `gorm:"column:min_origination_ratio_bps" json:"min_origination_ratio_bps"`
	LiquidationThresholdBps  uint64    `gorm:"column:liquidation_threshold_bps" json:"liquidation_threshold_bps"`
	LiquidationBonusBps      uint64    `gorm:"column:liquidation_bonus_bps" json:"liquidation_bonus_bps"`
	MinPrincipal             uint64    `gorm:"column:min_principal" json:"min_principal"`
	UpdatedBy                string    `gorm:"size:32" json:"updated_by"`
	CreatedAt                time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Params) TableName() string { return "protocol_params" }

// Change is one audit row per changed field, written alongside the new
// Params version in the same transaction.
type Change struct {
	ID        uint64    `gorm:"primaryKey;column:id" json:"-"`
	Version   uint64    `gorm:"index:idx_param_changes_version" json:"version"`
	Field     string    `gorm:"size:48" json:"field"`
	OldValue  uint64    `gorm:"column:old_value" json:"old_value"`
	NewValue  uint64    `gorm:"column:new_value" json:"new_value"`
	Actor     string    `gorm:"size:32" json:"actor"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Change) TableName() string { return "protocol_param_changes" }

// Defaults are the genesis configuration: 5% base rate, identity risk
// multiplier, 150% origination minimum, 120% liquidation threshold, 5%
// liquidation bonus.
func Defaults() Params {
	return Params{
		Version:                  1,
		BaseRateBps:              500,
		RiskPremiumMultiplierBps: 10000,
		MinOriginationRatioBps:   15000,
		LiquidationThresholdBps:  12000,
		LiquidationBonusBps:      500,
		MinPrincipal:             10000,
		UpdatedBy:                "genesis",
	}
}
