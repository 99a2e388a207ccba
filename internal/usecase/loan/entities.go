package loan

import (
	"time"

	domainLiq "lendora-core/internal/domain/liquidation"
	domainLoan "lendora-core/internal/domain/loan"
)

type OriginateInput struct {
	BorrowerID       string `json:"borrower_id"`
	LenderID         string `json:"lender_id"`
	Principal        uint64 `json:"principal"`
	TermMonths       uint32 `json:"term_months"`
	CollateralAsset  string `json:"collateral_asset"`
	CollateralAmount uint64 `json:"collateral_amount"`
	Attestation      string `json:"attestation"`
}

type LoanDTO struct {
	LoanID           string    `json:"loan_id"`
	BorrowerID       string    `json:"borrower_id"`
	LenderID         string    `json:"lender_id"`
	Principal        uint64    `json:"principal"`
	RateBps          uint64    `json:"rate_bps"`
	TermMonths       uint32    `json:"term_months"`
	CollateralAsset  string    `json:"collateral_asset"`
	CollateralPosted uint64    `json:"collateral_posted"`
	Outstanding      uint64    `json:"outstanding"`
	Status           string    `json:"status"`
	OriginatedAt     time.Time `json:"originated_at"`
	MaturityAt       time.Time `json:"maturity_at"`
}

func toDTO(l *domainLoan.Loan) *LoanDTO {
	return &LoanDTO{
		LoanID:           l.LoanID,
		BorrowerID:       l.BorrowerID,
		LenderID:         l.LenderID,
		Principal:        l.Principal,
		RateBps:          l.RateBps,
		TermMonths:       l.TermMonths,
		CollateralAsset:  l.CollateralAsset,
		CollateralPosted: l.CollateralPosted,
		Outstanding:      l.Outstanding,
		Status:           string(l.Status),
		OriginatedAt:     l.OriginatedAt,
		MaturityAt:       l.MaturityAt,
	}
}

type RepayResult struct {
	Loan               *LoanDTO `json:"loan"`
	CollateralReleased uint64   `json:"collateral_released"`
}

// HealthResult reports a health check or expiry outcome. When Seized is
// false the loan was left untouched (healthy, or already terminal — callers
// racing a repayment observe the terminal status here).
type HealthResult struct {
	LoanID   string           `json:"loan_id"`
	Status   string           `json:"status"`
	RatioBps uint64           `json:"ratio_bps"`
	Seized   bool             `json:"seized"`
	Event    *domainLiq.Event `json:"event,omitempty"`
}
