package loan

import (
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusActive     Status = "active"
	StatusRepaid     Status = "repaid"
	StatusDefaulted  Status = "defaulted"
	StatusLiquidated Status = "liquidated"
)

// Terminal reports whether the status absorbs: once a loan is repaid,
// defaulted or liquidated it never leaves that state.
func (s Status) Terminal() bool {
	switch s {
	case StatusRepaid, StatusDefaulted, StatusLiquidated:
		return true
	}
	return false
}

func (s Status) canTransition(to Status) bool {
	switch s {
	case StatusPending:
		return to == StatusActive
	case StatusActive:
		return to == StatusRepaid || to == StatusDefaulted || to == StatusLiquidated
	}
	return false
}

// Loan is the protocol's core record. All money fields are unsigned integers
// in the smallest currency unit; rates are basis points on a 10000 scale.
// Outstanding is fixed at activation (principal plus simple interest for the
// full term) and only ever decreases while the loan is active.
type Loan struct {
	ID               uint64    `gorm:"primaryKey;column:id" json:"-"`
	LoanID           string    `gorm:"size:32;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	BorrowerID       string    `gorm:"size:32;index:idx_loans_borrower" json:"borrower_id"`
	LenderID         string    `gorm:"size:32" json:"lender_id"`
	Principal        uint64    `gorm:"column:principal" json:"principal"`
	RateBps          uint64    `gorm:"column:rate_bps" json:"rate_bps"`
	TermMonths       uint32    `gorm:"column:term_months" json:"term_months"`
	CollateralAsset  string    `gorm:"size:16;column:collateral_asset" json:"collateral_asset"`
	CollateralPosted uint64    `gorm:"column:collateral_posted" json:"collateral_posted"`
	Outstanding      uint64    `gorm:"column:outstanding" json:"outstanding"`
	Status           Status    `gorm:"type:enum('pending','active','repaid','defaulted','liquidated');default:'pending'" json:"status"`
	OriginatedAt     time.Time `gorm:"column:originated_at" json:"originated_at"`
	MaturityAt       time.Time `gorm:"column:maturity_at" json:"maturity_at"`
	StatusUpdatedAt  time.Time `gorm:"column:status_updated_at" json:"status_updated_at"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (Loan) TableName() string { return "loans" }

// Transition moves the loan to the given status, enforcing the lifecycle
// graph pending → active → {repaid | defaulted | liquidated}. Terminal
// states reject every further transition with ErrInvalidTransition.
func (l *Loan) Transition(to Status, at time.Time) error {
	if !l.Status.canTransition(to) {
		return ErrInvalidTransition
	}
	l.Status = to
	l.StatusUpdatedAt = at.UTC()
	return nil
}

// Matured reports whether the loan's term has elapsed at the given instant.
func (l *Loan) Matured(now time.Time) bool {
	return !now.Before(l.MaturityAt)
}
