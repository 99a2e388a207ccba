package loan

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"

	"lendora-core/internal/creditgate"
	"lendora-core/internal/domain/collateral"
	domainLiq "lendora-core/internal/domain/liquidation"
	domainLoan "lendora-core/internal/domain/loan"
	"lendora-core/internal/domain/uow"
	"lendora-core/internal/metrics"
	"lendora-core/internal/ratemodel"
	"lendora-core/internal/usecase/ledger"
	"lendora-core/internal/usecase/liquidation"
	"lendora-core/pkg/id"
)

var (
	reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)
	reHex64 = regexp.MustCompile(`^[a-f0-9]{64}$`)
)

// Usecase is the loan manager: the sole writer of loan state. It composes
// the rate model, credit gate, collateral ledger and liquidation engine, and
// every status change runs under the per-loan transaction lock.
type Usecase struct {
	uow    uow.UnitOfWork
	gate   creditgate.Gate
	ledger *ledger.Service
	engine *liquidation.Engine
	met    *metrics.Metrics
	now    func() time.Time
}

func NewUsecase(u uow.UnitOfWork, gate creditgate.Gate, svc *ledger.Service, engine *liquidation.Engine, met *metrics.Metrics) *Usecase {
	return &Usecase{uow: u, gate: gate, ledger: svc, engine: engine, met: met, now: time.Now}
}

// WithClock overrides the time source, for tests.
func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	u.now = now
	return u
}

func (u *Usecase) Originate(ctx context.Context, in OriginateInput) (*LoanDTO, error) {
	started := time.Now()
	defer func() { u.met.ObserveOp("originate", time.Since(started)) }()

	if err := validateOriginate(in); err != nil {
		u.met.IncOrigination("rejected")
		return nil, err
	}

	// The verifier call happens outside the transaction: it is idempotent
	// and must not hold a DB lock across a network round trip.
	eligible, err := u.gate.Verify(ctx, in.BorrowerID, in.Attestation)
	if errors.Is(err, creditgate.ErrVerificationUnavailable) {
		// Conservative default: price the loan as if ineligible rather
		// than blocking origination on a dependency outage.
		log.Printf("credit gate unavailable for borrower %s, pricing as ineligible: %v", in.BorrowerID, err)
		eligible = false
	} else if err != nil {
		u.met.IncOrigination("error")
		return nil, err
	}

	var dto *LoanDTO
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		p, err := r.Params.Latest(ctx)
		if err != nil {
			return err
		}
		if in.Principal < p.MinPrincipal {
			return fmt.Errorf("%w: principal %d below minimum %d", domainLoan.ErrInvalidInput, in.Principal, p.MinPrincipal)
		}

		pos, err := u.ledger.Post(ctx, r.Positions, in.BorrowerID, in.CollateralAsset, in.CollateralAmount)
		if err != nil {
			return err
		}
		q, err := u.ledger.FreshQuote(ctx, in.CollateralAsset)
		if err != nil {
			return err
		}
		ratio := ledger.RatioBps(pos.Amount, q.Price, in.Principal)
		if ratio < p.MinOriginationRatioBps {
			// Rolling back the transaction refunds the posted collateral.
			return collateral.ErrInsufficientCollateral
		}

		rate := ratemodel.ComputeRate(ratemodel.Params{
			BaseRateBps:              p.BaseRateBps,
			RiskPremiumMultiplierBps: p.RiskPremiumMultiplierBps,
		}, ratio, eligible)
		interest := ratemodel.TotalInterest(in.Principal, rate, in.TermMonths)

		now := u.now().UTC()
		l := &domainLoan.Loan{
			LoanID:           id.NewID32(),
			BorrowerID:       in.BorrowerID,
			LenderID:         in.LenderID,
			Principal:        in.Principal,
			RateBps:          rate,
			TermMonths:       in.TermMonths,
			CollateralAsset:  in.CollateralAsset,
			CollateralPosted: in.CollateralAmount,
			Outstanding:      in.Principal + interest,
			Status:           domainLoan.StatusPending,
			OriginatedAt:     now,
			MaturityAt:       now.AddDate(0, int(in.TermMonths), 0),
			StatusUpdatedAt:  now,
		}
		if err := l.Transition(domainLoan.StatusActive, now); err != nil {
			return err
		}
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		dto = toDTO(l)
		return nil
	})
	if err != nil {
		u.observeOriginateFailure(err)
		return nil, err
	}
	u.met.IncOrigination("active")
	return dto, nil
}

func (u *Usecase) observeOriginateFailure(err error) {
	switch {
	case errors.Is(err, collateral.ErrStalePrice):
		u.met.IncStalePrice()
		u.met.IncOrigination("error")
	case errors.Is(err, collateral.ErrInsufficientCollateral),
		errors.Is(err, collateral.ErrInvalidAmount),
		errors.Is(err, domainLoan.ErrInvalidInput):
		u.met.IncOrigination("rejected")
	default:
		u.met.IncOrigination("error")
	}
}

func validateOriginate(in OriginateInput) error {
	switch {
	case !reHex32.MatchString(in.BorrowerID):
		return fmt.Errorf("%w: borrower_id must be 32-char lowercase hex", domainLoan.ErrInvalidInput)
	case !reHex32.MatchString(in.LenderID):
		return fmt.Errorf("%w: lender_id must be 32-char lowercase hex", domainLoan.ErrInvalidInput)
	case in.Principal == 0:
		return fmt.Errorf("%w: principal must be positive", domainLoan.ErrInvalidInput)
	case in.TermMonths == 0:
		return fmt.Errorf("%w: term_months must be positive", domainLoan.ErrInvalidInput)
	case in.CollateralAsset == "":
		return fmt.Errorf("%w: collateral_asset is required", domainLoan.ErrInvalidInput)
	case in.CollateralAmount == 0:
		return fmt.Errorf("%w: collateral_amount must be positive", domainLoan.ErrInvalidInput)
	case !reHex64.MatchString(in.Attestation):
		return fmt.Errorf("%w: attestation must be 64-char lowercase hex", domainLoan.ErrInvalidInput)
	}
	return nil
}

// Repay reduces the outstanding balance under the loan's transition lock.
// Hitting zero flips the loan to repaid and, when no other active loan of
// the borrower is secured by the same asset, returns the collateral.
func (u *Usecase) Repay(ctx context.Context, loanID string, amount uint64) (*RepayResult, error) {
	started := time.Now()
	defer func() { u.met.ObserveOp("repay", time.Since(started)) }()

	var res *RepayResult
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domainLoan.Loan) error {
		if l.Status != domainLoan.StatusActive {
			return domainLoan.ErrLoanNotActive
		}
		if amount == 0 {
			return fmt.Errorf("%w: repayment amount must be positive", domainLoan.ErrInvalidInput)
		}
		if amount > l.Outstanding {
			return fmt.Errorf("%w: amount %d exceeds outstanding %d", domainLoan.ErrOverRepayment, amount, l.Outstanding)
		}

		l.Outstanding -= amount
		var released uint64
		if l.Outstanding == 0 {
			if err := l.Transition(domainLoan.StatusRepaid, u.now()); err != nil {
				return err
			}
			others, err := r.Loans.ListActiveByBorrowerAsset(ctx, l.BorrowerID, l.CollateralAsset)
			if err != nil {
				return err
			}
			last := true
			for i := range others {
				if others[i].LoanID != l.LoanID {
					last = false
					break
				}
			}
			if last {
				released, err = u.ledger.Release(ctx, r.Positions, l.BorrowerID, l.CollateralAsset)
				if err != nil {
					return err
				}
			}
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		res = &RepayResult{Loan: toDTO(l), CollateralReleased: released}
		return nil
	})
	if err != nil {
		u.met.IncRepayment(repayOutcome(err))
		return nil, err
	}
	if res.Loan.Status == string(domainLoan.StatusRepaid) {
		u.met.IncRepayment("repaid")
	} else {
		u.met.IncRepayment("partial")
	}
	return res, nil
}

func repayOutcome(err error) string {
	if errors.Is(err, domainLoan.ErrLoanNotActive) ||
		errors.Is(err, domainLoan.ErrOverRepayment) ||
		errors.Is(err, domainLoan.ErrInvalidInput) {
		return "rejected"
	}
	return "error"
}

// CheckHealth evaluates the loan against the liquidation threshold and, when
// eligible, atomically flips it to liquidated, seizes collateral, and records
// the event. The transition lock is the tie-break for racing liquidators:
// the first to commit wins, later callers observe a terminal status and get
// a no-op result.
func (u *Usecase) CheckHealth(ctx context.Context, loanID, liquidatorID string) (*HealthResult, error) {
	started := time.Now()
	defer func() { u.met.ObserveOp("check_health", time.Since(started)) }()

	if liquidatorID != "" && !reHex32.MatchString(liquidatorID) {
		return nil, fmt.Errorf("%w: liquidator_id must be 32-char lowercase hex", domainLoan.ErrInvalidInput)
	}

	var res *HealthResult
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domainLoan.Loan) error {
		p, err := r.Params.Latest(ctx)
		if err != nil {
			return err
		}
		// Evaluate re-reads the price inside the lock, so a liquidation
		// never commits on a ratio observed before a price update.
		dec, err := u.engine.Evaluate(ctx, r.Positions, l, p.LiquidationThresholdBps, p.LiquidationBonusBps)
		if err != nil {
			return err
		}
		if !dec.Eligible {
			res = &HealthResult{LoanID: l.LoanID, Status: string(l.Status), RatioBps: dec.TriggerRatioBps}
			return nil
		}

		now := u.now().UTC()
		if err := l.Transition(domainLoan.StatusLiquidated, now); err != nil {
			return err
		}
		if err := u.ledger.Seize(ctx, r.Positions, l.BorrowerID, l.CollateralAsset, dec.SeizeAmount); err != nil {
			return err
		}
		ev := &domainLiq.Event{
			EventID:         id.NewID32(),
			LoanID:          l.LoanID,
			LiquidatorID:    liquidatorID,
			TriggerRatioBps: dec.TriggerRatioBps,
			SeizedAmount:    dec.SeizeAmount,
			BonusPaid:       dec.BonusAmount,
			Remainder:       dec.BorrowerRemainder,
			Kind:            domainLiq.KindLiquidation,
			OccurredAt:      now,
		}
		if err := r.Events.Create(ctx, ev); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		res = &HealthResult{LoanID: l.LoanID, Status: string(l.Status), RatioBps: dec.TriggerRatioBps, Seized: true, Event: ev}
		return nil
	})
	if err != nil {
		if errors.Is(err, collateral.ErrStalePrice) {
			u.met.IncStalePrice()
		}
		return nil, err
	}
	if res.Seized {
		u.met.IncSeizure(domainLiq.KindLiquidation)
	}
	return res, nil
}

// Expire defaults a matured loan with an outstanding balance. The seizure
// path is the liquidation path with no bonus: collateral covers the debt,
// any excess stays with the borrower.
func (u *Usecase) Expire(ctx context.Context, loanID string) (*HealthResult, error) {
	started := time.Now()
	defer func() { u.met.ObserveOp("expire", time.Since(started)) }()

	var res *HealthResult
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domainLoan.Loan) error {
		if l.Status != domainLoan.StatusActive {
			return domainLoan.ErrLoanNotActive
		}
		now := u.now().UTC()
		if !l.Matured(now) {
			return domainLoan.ErrNotMatured
		}

		pos, err := r.Positions.Get(ctx, l.BorrowerID, l.CollateralAsset)
		if errors.Is(err, collateral.ErrNotFound) {
			pos = &collateral.Position{BorrowerID: l.BorrowerID, Asset: l.CollateralAsset}
		} else if err != nil {
			return err
		}
		q, err := u.ledger.FreshQuote(ctx, l.CollateralAsset)
		if err != nil {
			return err
		}
		ratio := ledger.RatioBps(pos.Amount, q.Price, l.Outstanding)
		seize, _, remainder := liquidation.Split(pos.Amount, q.Price, l.Outstanding, 0)

		if err := l.Transition(domainLoan.StatusDefaulted, now); err != nil {
			return err
		}
		if seize > 0 {
			if err := u.ledger.Seize(ctx, r.Positions, l.BorrowerID, l.CollateralAsset, seize); err != nil {
				return err
			}
		}
		ev := &domainLiq.Event{
			EventID:         id.NewID32(),
			LoanID:          l.LoanID,
			TriggerRatioBps: ratio,
			SeizedAmount:    seize,
			Remainder:       remainder,
			Kind:            domainLiq.KindDefault,
			OccurredAt:      now,
		}
		if err := r.Events.Create(ctx, ev); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		res = &HealthResult{LoanID: l.LoanID, Status: string(l.Status), RatioBps: ratio, Seized: seize > 0, Event: ev}
		return nil
	})
	if err != nil {
		if errors.Is(err, collateral.ErrStalePrice) {
			u.met.IncStalePrice()
		}
		return nil, err
	}
	if res.Seized {
		u.met.IncSeizure(domainLiq.KindDefault)
	}
	return res, nil
}

// SweepExpired defaults every matured active loan. Per-loan failures are
// logged and skipped so one stale feed cannot stall the whole sweep.
func (u *Usecase) SweepExpired(ctx context.Context) (int, error) {
	var candidates []domainLoan.Loan
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		list, err := r.Loans.ListMaturedActive(ctx, u.now().UTC())
		if err != nil {
			return err
		}
		candidates = list
		return nil
	})
	if err != nil {
		return 0, err
	}

	defaulted := 0
	for i := range candidates {
		if _, err := u.Expire(ctx, candidates[i].LoanID); err != nil {
			// ErrLoanNotActive here just means someone repaid or
			// liquidated between the list and the lock.
			if !errors.Is(err, domainLoan.ErrLoanNotActive) {
				log.Printf("expire sweep: loan %s: %v", candidates[i].LoanID, err)
			}
			continue
		}
		defaulted++
	}
	return defaulted, nil
}

func (u *Usecase) Get(ctx context.Context, loanID string) (*LoanDTO, error) {
	var dto *LoanDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetByLoanID(ctx, loanID)
		if err != nil {
			return err
		}
		dto = toDTO(l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// Ratio returns the loan's current collateralization ratio from a fresh
// price, for the query surface.
func (u *Usecase) Ratio(ctx context.Context, loanID string) (uint64, error) {
	var ratio uint64
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetByLoanID(ctx, loanID)
		if err != nil {
			return err
		}
		pos, err := r.Positions.Get(ctx, l.BorrowerID, l.CollateralAsset)
		if errors.Is(err, collateral.ErrNotFound) {
			pos = &collateral.Position{}
		} else if err != nil {
			return err
		}
		q, err := u.ledger.FreshQuote(ctx, l.CollateralAsset)
		if err != nil {
			return err
		}
		ratio = ledger.RatioBps(pos.Amount, q.Price, l.Outstanding)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return ratio, nil
}

// Events returns the loan's liquidation history, oldest first.
func (u *Usecase) Events(ctx context.Context, loanID string) ([]domainLiq.Event, error) {
	var out []domainLiq.Event
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if _, err := r.Loans.GetByLoanID(ctx, loanID); err != nil {
			return err
		}
		list, err := r.Events.ListByLoanID(ctx, loanID)
		if err != nil {
			return err
		}
		out = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
