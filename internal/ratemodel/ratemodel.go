// Package ratemodel holds the pure interest-rate math. Both functions are
// deterministic and side-effect-free: identical inputs always produce
// identical outputs, with integer arithmetic truncating toward zero.
package ratemodel

import (
	"fmt"
	"math/big"
)

const (
	MinRateBps = 100
	MaxRateBps = 5000

	MinBaseRateBps   = 100
	MaxBaseRateBps   = 5000
	MaxMultiplierBps = 10000

	bpsScale      = 10000
	monthsPerYear = 12
)

// Params are the process-wide rate-model constants, mutable only through the
// audited admin path. The multiplier is carried and bounds-checked but does
// not enter the rate computation: the tier deltas are fixed.
type Params struct {
	BaseRateBps              uint64
	RiskPremiumMultiplierBps uint64
}

func (p Params) Validate() error {
	if p.BaseRateBps < MinBaseRateBps || p.BaseRateBps > MaxBaseRateBps {
		return fmt.Errorf("base rate %d bps outside [%d, %d]", p.BaseRateBps, MinBaseRateBps, MaxBaseRateBps)
	}
	if p.RiskPremiumMultiplierBps > MaxMultiplierBps {
		return fmt.Errorf("risk premium multiplier %d bps above %d", p.RiskPremiumMultiplierBps, MaxMultiplierBps)
	}
	return nil
}

// ComputeRate maps a collateral ratio and credit eligibility to an interest
// rate in basis points. Tiering is exact, no interpolation:
//
//	ratio >= 20000         base - 50
//	[15000, 20000)         base
//	[12000, 15000)         base + 100
//	< 12000                base + 200
//
// Ineligible borrowers pay a further 150 bps. The result is clamped to
// [MinRateBps, MaxRateBps].
func ComputeRate(p Params, collateralRatioBps uint64, creditEligible bool) uint64 {
	var adj int64
	switch {
	case collateralRatioBps >= 20000:
		adj = -50
	case collateralRatioBps >= 15000:
		adj = 0
	case collateralRatioBps >= 12000:
		adj = 100
	default:
		adj = 200
	}
	if !creditEligible {
		adj += 150
	}

	rate := int64(p.BaseRateBps) + adj
	if rate < MinRateBps {
		rate = MinRateBps
	}
	if rate > MaxRateBps {
		rate = MaxRateBps
	}
	return uint64(rate)
}

// TotalInterest computes simple interest for the whole term:
//
//	principal x rateBps x termMonths / (10000 x 12)
//
// using big.Int intermediates so large principals cannot overflow, truncated
// toward zero.
func TotalInterest(principal, rateBps uint64, termMonths uint32) uint64 {
	n := new(big.Int).SetUint64(principal)
	n.Mul(n, new(big.Int).SetUint64(rateBps))
	n.Mul(n, new(big.Int).SetUint64(uint64(termMonths)))
	n.Quo(n, big.NewInt(bpsScale*monthsPerYear))
	return n.Uint64()
}
