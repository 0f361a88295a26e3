package token

import (
	"math/big"
	"sync"

	"main/internal/model"
	"main/pkg/exception"

	"github.com/yanun0323/errors"
)

// Bank is an in-memory Vault and Minter used by the sim binary and tests.
// Custody balances model the protocol's externally-observable holdings.
type Bank struct {
	mu            sync.Mutex
	collateral    map[model.AssetID]map[model.AccountID]*big.Int
	custody       map[model.AssetID]*big.Int
	pegged        map[model.AccountID]*big.Int
	peggedCustody *big.Int
	supply        *big.Int
}

var (
	_ Vault  = (*Bank)(nil)
	_ Minter = (*Bank)(nil)
)

func NewBank() *Bank {
	return &Bank{
		collateral:    make(map[model.AssetID]map[model.AccountID]*big.Int),
		custody:       make(map[model.AssetID]*big.Int),
		pegged:        make(map[model.AccountID]*big.Int),
		peggedCustody: new(big.Int),
		supply:        new(big.Int),
	}
}

// Fund credits a holder's collateral balance. Test and scenario setup only.
func (b *Bank) Fund(holder model.AccountID, asset model.AssetID, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cur := b.balance(asset, holder)
	cur.Add(cur, amount)
}

func (b *Bank) PullCollateral(from model.AccountID, asset model.AssetID, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	cur := b.balance(asset, from)
	if cur.Cmp(amount) < 0 {
		return errors.Wrap(exception.ErrTokenInsufficientFunds,
			"pull "+asset.String()+" from "+from.String())
	}
	cur.Sub(cur, amount)
	b.custodyOf(asset).Add(b.custodyOf(asset), amount)
	return nil
}

func (b *Bank) PushCollateral(to model.AccountID, asset model.AssetID, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	custody := b.custodyOf(asset)
	if custody.Cmp(amount) < 0 {
		return errors.Wrap(exception.ErrTokenInsufficientFunds, "custody "+asset.String())
	}
	custody.Sub(custody, amount)
	cur := b.balance(asset, to)
	cur.Add(cur, amount)
	return nil
}

func (b *Bank) Mint(to model.AccountID, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	cur, ok := b.pegged[to]
	if !ok {
		cur = new(big.Int)
		b.pegged[to] = cur
	}
	cur.Add(cur, amount)
	b.supply.Add(b.supply, amount)
	return nil
}

func (b *Bank) PullPegged(from model.AccountID, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	cur := b.pegged[from]
	if cur == nil || cur.Cmp(amount) < 0 {
		return errors.Wrap(exception.ErrTokenInsufficientFunds, "pull pegged from "+from.String())
	}
	cur.Sub(cur, amount)
	b.peggedCustody.Add(b.peggedCustody, amount)
	return nil
}

func (b *Bank) PushPegged(to model.AccountID, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.peggedCustody.Cmp(amount) < 0 {
		return errors.Wrap(exception.ErrTokenInsufficientFunds, "push pegged to "+to.String())
	}
	b.peggedCustody.Sub(b.peggedCustody, amount)
	cur, ok := b.pegged[to]
	if !ok {
		cur = new(big.Int)
		b.pegged[to] = cur
	}
	cur.Add(cur, amount)
	return nil
}

func (b *Bank) Burn(amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.peggedCustody.Cmp(amount) < 0 {
		return errors.Wrap(exception.ErrTokenInsufficientFunds, "burn pegged custody")
	}
	b.peggedCustody.Sub(b.peggedCustody, amount)
	b.supply.Sub(b.supply, amount)
	return nil
}

// CollateralBalance returns a holder's free collateral balance.
func (b *Bank) CollateralBalance(holder model.AccountID, asset model.AssetID) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return model.Clone(b.balance(asset, holder))
}

// CustodyBalance returns the protocol's custody holding for an asset.
func (b *Bank) CustodyBalance(asset model.AssetID) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return model.Clone(b.custody[asset])
}

// PeggedBalance returns a holder's pegged-unit balance.
func (b *Bank) PeggedBalance(holder model.AccountID) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return model.Clone(b.pegged[holder])
}

// Supply returns the outstanding pegged-unit supply.
func (b *Bank) Supply() *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return model.Clone(b.supply)
}

func (b *Bank) balance(asset model.AssetID, holder model.AccountID) *big.Int {
	holders, ok := b.collateral[asset]
	if !ok {
		holders = make(map[model.AccountID]*big.Int)
		b.collateral[asset] = holders
	}
	cur, ok := holders[holder]
	if !ok {
		cur = new(big.Int)
		holders[holder] = cur
	}
	return cur
}

func (b *Bank) custodyOf(asset model.AssetID) *big.Int {
	cur, ok := b.custody[asset]
	if !ok {
		cur = new(big.Int)
		b.custody[asset] = cur
	}
	return cur
}
