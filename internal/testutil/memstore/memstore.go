// Package memstore is an in-memory UnitOfWork for usecase tests. A global
// mutex serializes transactions (standing in for row locks) and a snapshot
// taken at transaction start restores the store when fn returns an error, so
// rollback semantics match the real gorm unit of work.
package memstore

import (
	"context"
	"sort"
	"time"

	"sync"

	"lendora-core/internal/domain/collateral"
	"lendora-core/internal/domain/liquidation"
	"lendora-core/internal/domain/loan"
	"lendora-core/internal/domain/params"
	"lendora-core/internal/domain/uow"
)

var _ uow.UnitOfWork = (*Store)(nil)

type Store struct {
	mu        sync.Mutex
	loans     map[string]loan.Loan           // by LoanID
	positions map[string]collateral.Position // by borrower|asset
	events    []liquidation.Event
	params    []params.Params
	changes   []params.Change
	nextID    uint64
}

func New() *Store {
	return &Store{
		loans:     make(map[string]loan.Loan),
		positions: make(map[string]collateral.Position),
		nextID:    1,
	}
}

func posKey(borrowerID, asset string) string { return borrowerID + "|" + asset }

type snapshot struct {
	loans     map[string]loan.Loan
	positions map[string]collateral.Position
	events    []liquidation.Event
	params    []params.Params
	changes   []params.Change
	nextID    uint64
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		loans:     make(map[string]loan.Loan, len(s.loans)),
		positions: make(map[string]collateral.Position, len(s.positions)),
		events:    append([]liquidation.Event(nil), s.events...),
		params:    append([]params.Params(nil), s.params...),
		changes:   append([]params.Change(nil), s.changes...),
		nextID:    s.nextID,
	}
	for k, v := range s.loans {
		snap.loans[k] = v
	}
	for k, v := range s.positions {
		snap.positions[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.loans = snap.loans
	s.positions = snap.positions
	s.events = snap.events
	s.params = snap.params
	s.changes = snap.changes
	s.nextID = snap.nextID
}

func (s *Store) repos() uow.Repos {
	return uow.Repos{
		Loans:     &loanRepo{s: s},
		Positions: &positionRepo{s: s},
		Events:    &eventRepo{s: s},
		Params:    &paramsRepo{s: s},
	}
}

func (s *Store) WithinTx(_ context.Context, fn func(r uow.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot()
	if err := fn(s.repos()); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) WithinLoanTx(_ context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.loans[loanID]
	if !ok {
		return loan.ErrNotFound
	}
	snap := s.snapshot()
	l := cur
	if err := fn(s.repos(), &l); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// Seed inserts records directly, outside any transaction.
func (s *Store) SeedLoan(l loan.Loan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == 0 {
		l.ID = s.nextID
		s.nextID++
	}
	s.loans[l.LoanID] = l
}

func (s *Store) SeedPosition(p collateral.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[posKey(p.BorrowerID, p.Asset)] = p
}

func (s *Store) SeedParams(p params.Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = append(s.params, p)
}

func (s *Store) Loan(loanID string) (loan.Loan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.loans[loanID]
	return l, ok
}

func (s *Store) Position(borrowerID, asset string) (collateral.Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.positions[posKey(borrowerID, asset)]
	return p, ok
}

func (s *Store) Events() []liquidation.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]liquidation.Event(nil), s.events...)
}

func (s *Store) Changes() []params.Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]params.Change(nil), s.changes...)
}

// ----- repositories (called with s.mu already held by the transaction) -----

type loanRepo struct{ s *Store }

func (r *loanRepo) Create(_ context.Context, l *loan.Loan) error {
	l.ID = r.s.nextID
	r.s.nextID++
	r.s.loans[l.LoanID] = *l
	return nil
}

func (r *loanRepo) GetByLoanID(_ context.Context, loanID string) (*loan.Loan, error) {
	l, ok := r.s.loans[loanID]
	if !ok {
		return nil, loan.ErrNotFound
	}
	out := l
	return &out, nil
}

func (r *loanRepo) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*loan.Loan, error) {
	return r.GetByLoanID(ctx, loanID)
}

func (r *loanRepo) Save(_ context.Context, l *loan.Loan) error {
	r.s.loans[l.LoanID] = *l
	return nil
}

func (r *loanRepo) ListActiveByBorrowerAsset(_ context.Context, borrowerID, asset string) ([]loan.Loan, error) {
	var out []loan.Loan
	for _, l := range r.s.loans {
		if l.BorrowerID == borrowerID && l.CollateralAsset == asset && l.Status == loan.StatusActive {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *loanRepo) ListMaturedActive(_ context.Context, asOf time.Time) ([]loan.Loan, error) {
	var out []loan.Loan
	for _, l := range r.s.loans {
		if l.Status == loan.StatusActive && !asOf.Before(l.MaturityAt) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type positionRepo struct{ s *Store }

func (r *positionRepo) Get(_ context.Context, borrowerID, asset string) (*collateral.Position, error) {
	p, ok := r.s.positions[posKey(borrowerID, asset)]
	if !ok {
		return nil, collateral.ErrNotFound
	}
	out := p
	return &out, nil
}

func (r *positionRepo) GetForUpdate(ctx context.Context, borrowerID, asset string) (*collateral.Position, error) {
	return r.Get(ctx, borrowerID, asset)
}

func (r *positionRepo) Create(_ context.Context, p *collateral.Position) error {
	p.ID = r.s.nextID
	r.s.nextID++
	r.s.positions[posKey(p.BorrowerID, p.Asset)] = *p
	return nil
}

func (r *positionRepo) Save(_ context.Context, p *collateral.Position) error {
	r.s.positions[posKey(p.BorrowerID, p.Asset)] = *p
	return nil
}

func (r *positionRepo) ListByBorrower(_ context.Context, borrowerID string) ([]collateral.Position, error) {
	var out []collateral.Position
	for _, p := range r.s.positions {
		if p.BorrowerID == borrowerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Asset < out[j].Asset })
	return out, nil
}

type eventRepo struct{ s *Store }

func (r *eventRepo) Create(_ context.Context, e *liquidation.Event) error {
	e.ID = r.s.nextID
	r.s.nextID++
	r.s.events = append(r.s.events, *e)
	return nil
}

func (r *eventRepo) ListByLoanID(_ context.Context, loanID string) ([]liquidation.Event, error) {
	var out []liquidation.Event
	for _, e := range r.s.events {
		if e.LoanID == loanID {
			out = append(out, e)
		}
	}
	return out, nil
}

type paramsRepo struct{ s *Store }

func (r *paramsRepo) Latest(_ context.Context) (*params.Params, error) {
	if len(r.s.params) == 0 {
		return nil, params.ErrNotFound
	}
	out := r.s.params[len(r.s.params)-1]
	return &out, nil
}

func (r *paramsRepo) Create(_ context.Context, p *params.Params) error {
	p.ID = r.s.nextID
	r.s.nextID++
	r.s.params = append(r.s.params, *p)
	return nil
}

func (r *paramsRepo) RecordChange(_ context.Context, c *params.Change) error {
	c.ID = r.s.nextID
	r.s.nextID++
	r.s.changes = append(r.s.changes, *c)
	return nil
}

func (r *paramsRepo) ListChanges(_ context.Context) ([]params.Change, error) {
	return append([]params.Change(nil), r.s.changes...), nil
}
