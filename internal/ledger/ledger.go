package ledger

import (
	"math/big"
	"sync"

	"main/internal/model"
	"main/pkg/exception"

	"github.com/yanun0323/errors"
)

// Ledger owns every collateral and debt balance. It is mutated only through
// the solvency engine entry points; decrements below zero indicate a caller
// bypassed a sufficiency check and fail loudly instead of clamping.
type Ledger struct {
	mu        sync.RWMutex
	accounts  map[model.AccountID]*account
	totals    map[model.AssetID]*big.Int
	totalDebt *big.Int
}

type account struct {
	collateral map[model.AssetID]*big.Int
	debt       *big.Int
}

func New() *Ledger {
	return &Ledger{
		accounts:  make(map[model.AccountID]*account),
		totals:    make(map[model.AssetID]*big.Int),
		totalDebt: new(big.Int),
	}
}

func (l *Ledger) acct(id model.AccountID) *account {
	a, ok := l.accounts[id]
	if !ok {
		a = &account{
			collateral: make(map[model.AssetID]*big.Int),
			debt:       new(big.Int),
		}
		l.accounts[id] = a
	}
	return a
}

// AddCollateral credits the account's collateral balance for the asset.
func (l *Ledger) AddCollateral(id model.AccountID, asset model.AssetID, quantity *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.acct(id)
	cur, ok := a.collateral[asset]
	if !ok {
		cur = new(big.Int)
		a.collateral[asset] = cur
	}
	cur.Add(cur, quantity)

	total, ok := l.totals[asset]
	if !ok {
		total = new(big.Int)
		l.totals[asset] = total
	}
	total.Add(total, quantity)
}

// SubCollateral debits the account's collateral balance for the asset.
func (l *Ledger) SubCollateral(id model.AccountID, asset model.AssetID, quantity *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.acct(id)
	cur := a.collateral[asset]
	if cur == nil || cur.Cmp(quantity) < 0 {
		return errors.Wrap(exception.ErrLedgerUnderflow,
			"collateral "+asset.String()+" of "+id.String())
	}
	cur.Sub(cur, quantity)
	l.totals[asset].Sub(l.totals[asset], quantity)
	return nil
}

// AddDebt credits the account's outstanding debt.
func (l *Ledger) AddDebt(id model.AccountID, quantity *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.acct(id)
	a.debt.Add(a.debt, quantity)
	l.totalDebt.Add(l.totalDebt, quantity)
}

// SubDebt debits the account's outstanding debt.
func (l *Ledger) SubDebt(id model.AccountID, quantity *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.acct(id)
	if a.debt.Cmp(quantity) < 0 {
		return errors.Wrap(exception.ErrLedgerUnderflow, "debt of "+id.String())
	}
	a.debt.Sub(a.debt, quantity)
	l.totalDebt.Sub(l.totalDebt, quantity)
	return nil
}

// Collateral returns a copy of the account's balance for the asset.
func (l *Ledger) Collateral(id model.AccountID, asset model.AssetID) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	a, ok := l.accounts[id]
	if !ok {
		return new(big.Int)
	}
	return model.Clone(a.collateral[asset])
}

// Debt returns a copy of the account's outstanding debt.
func (l *Ledger) Debt(id model.AccountID) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	a, ok := l.accounts[id]
	if !ok {
		return new(big.Int)
	}
	return model.Clone(a.debt)
}

// TotalCollateral returns the aggregate balance held for the asset.
func (l *Ledger) TotalCollateral(asset model.AssetID) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return model.Clone(l.totals[asset])
}

// TotalDebt returns the aggregate debt issued across accounts.
func (l *Ledger) TotalDebt() *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return model.Clone(l.totalDebt)
}
