package liquidation

import "time"

// Event is the append-only record of a seizure. Rows are written in the same
// transaction as the loan's terminal status flip and are never updated.
type Event struct {
	ID              uint64    `gorm:"primaryKey;column:id" json:"-"`
	EventID         string    `gorm:"size:32;uniqueIndex:ux_liq_events_event_id" json:"event_id"`
	LoanID          string    `gorm:"size:32;index:idx_liq_events_loan" json:"loan_id"`
	LiquidatorID    string    `gorm:"size:32" json:"liquidator_id"`
	TriggerRatioBps uint64    `gorm:"column:trigger_ratio_bps" json:"trigger_ratio_bps"`
	SeizedAmount    uint64    `gorm:"column:seized_amount" json:"seized_amount"`
	BonusPaid       uint64    `gorm:"column:bonus_paid" json:"bonus_paid"`
	Remainder       uint64    `gorm:"column:remainder" json:"remainder"`
	Kind            string    `gorm:"size:16" json:"kind"` // "liquidation" or "default"
	OccurredAt      time.Time `gorm:"column:occurred_at" json:"occurred_at"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"-"`
}

func (Event) TableName() string { return "liquidation_events" }

const (
	KindLiquidation = "liquidation"
	KindDefault     = "default"
)
