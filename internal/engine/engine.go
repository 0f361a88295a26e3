package engine

import (
	"math/big"
	"sync"
	"time"

	"main/internal/bus"
	"main/internal/health"
	"main/internal/ledger"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/internal/oracle"
	"main/internal/token"
	"main/pkg/exception"

	"github.com/yanun0323/errors"
)

// defaultLiquidationBonusPct is the premium paid to liquidators, in percent
// of the seized base quantity.
const defaultLiquidationBonusPct = 10

// liquidationPrecision is the divisor for percent-denominated parameters.
const liquidationPrecision = 100

// Config assembles a solvency engine. Assets and Feeds are parallel lists
// fixed for the engine's lifetime.
type Config struct {
	Assets []model.AssetID
	Feeds  []oracle.PriceFeed

	Health              health.Config
	LiquidationBonusPct int64

	Minter token.Minter
	Vault  token.Vault

	Events  *bus.Queue   // optional
	Metrics *obs.Metrics // optional
}

// Engine is the accounting and solvency-enforcement core. Every mutating
// entry point runs Checks, then ledger Effects, then postconditions on the
// mutated ledger, and only then external Interactions; a failed interaction
// rolls the effects back so partial application is never observable.
type Engine struct {
	mu sync.Mutex // reentrancy guard, call-scoped

	assets   []model.AssetID
	led      *ledger.Ledger
	conv     *oracle.Converter
	health   *health.Engine
	minter   token.Minter
	vault    token.Vault
	bonusPct int64

	events  *bus.Queue
	metrics *obs.Metrics
}

// New validates the configuration and builds the engine. A mismatch between
// the asset and feed lists is rejected before any ledger state exists.
func New(cfg Config) (*Engine, error) {
	if len(cfg.Assets) != len(cfg.Feeds) {
		return nil, exception.ErrFeedLengthMismatch
	}
	if len(cfg.Assets) == 0 {
		return nil, exception.ErrConfigEmptyAssets
	}
	if cfg.Minter == nil || cfg.Vault == nil {
		return nil, exception.ErrNilCollaborator
	}

	feeds := make(map[model.AssetID]oracle.PriceFeed, len(cfg.Assets))
	assets := make([]model.AssetID, 0, len(cfg.Assets))
	for i, asset := range cfg.Assets {
		if cfg.Feeds[i] == nil {
			return nil, exception.ErrNilCollaborator
		}
		if _, ok := feeds[asset]; ok {
			return nil, errors.Wrap(exception.ErrConfigDuplicate, asset.String())
		}
		feeds[asset] = cfg.Feeds[i]
		assets = append(assets, asset)
	}

	healthCfg := cfg.Health
	if healthCfg.LiquidationThresholdPct == 0 {
		healthCfg.LiquidationThresholdPct = health.DefaultConfig().LiquidationThresholdPct
	}
	if healthCfg.MinHealthFactor == nil {
		healthCfg.MinHealthFactor = health.DefaultConfig().MinHealthFactor
	}
	bonusPct := cfg.LiquidationBonusPct
	if bonusPct == 0 {
		bonusPct = defaultLiquidationBonusPct
	}

	led := ledger.New()
	conv := oracle.NewConverter(feeds)

	return &Engine{
		assets:   assets,
		led:      led,
		conv:     conv,
		health:   health.New(healthCfg, led, conv, assets),
		minter:   cfg.Minter,
		vault:    cfg.Vault,
		bonusPct: bonusPct,
		events:   cfg.Events,
		metrics:  cfg.Metrics,
	}, nil
}

// Deposit pulls collateral from the account into protocol custody and
// credits its ledger balance. Deposits can only improve solvency, so no
// health check applies.
func (e *Engine) Deposit(account model.AccountID, asset model.AssetID, quantity *big.Int) error {
	if err := e.lock(); err != nil {
		e.metrics.ObserveFailure(err)
		return err
	}
	defer e.mu.Unlock()
	return e.fail(e.deposit(account, asset, quantity))
}

// Mint issues pegged units against the account's collateral. The health
// factor is validated on the mutated ledger before the external mint call.
func (e *Engine) Mint(account model.AccountID, quantity *big.Int) error {
	if err := e.lock(); err != nil {
		e.metrics.ObserveFailure(err)
		return err
	}
	defer e.mu.Unlock()
	return e.fail(e.mint(account, quantity))
}

// DepositAndMint performs a deposit and a mint in one all-or-nothing
// operation.
func (e *Engine) DepositAndMint(account model.AccountID, asset model.AssetID, collateralQty, debtQty *big.Int) error {
	if err := e.lock(); err != nil {
		e.metrics.ObserveFailure(err)
		return err
	}
	defer e.mu.Unlock()
	return e.fail(e.depositAndMint(account, asset, collateralQty, debtQty))
}

// RedeemAndBurn repays debt and withdraws collateral in one all-or-nothing
// operation, re-validating the account's health over the combined effect.
func (e *Engine) RedeemAndBurn(account model.AccountID, asset model.AssetID, collateralQty, debtQty *big.Int) error {
	if err := e.lock(); err != nil {
		e.metrics.ObserveFailure(err)
		return err
	}
	defer e.mu.Unlock()
	return e.fail(e.redeemAndBurn(account, asset, collateralQty, debtQty))
}

// lock acquires the call-scoped exclusive guard. A reentrant call attempted
// while an operation is mid-flight fails immediately, never queues.
func (e *Engine) lock() error {
	if !e.mu.TryLock() {
		return exception.ErrReentrantCall
	}
	return nil
}

func (e *Engine) fail(err error) error {
	if err != nil {
		e.metrics.ObserveFailure(err)
	}
	return err
}

func (e *Engine) deposit(account model.AccountID, asset model.AssetID, quantity *big.Int) error {
	// Checks
	if err := e.checkAmount(quantity); err != nil {
		return err
	}
	if !e.conv.Supported(asset) {
		return errors.Wrap(exception.ErrCollateralNotSupported, asset.String())
	}

	// Effects
	e.led.AddCollateral(account, asset, quantity)

	// Interactions
	if err := e.vault.PullCollateral(account, asset, quantity); err != nil {
		e.undoCollateral(account, asset, quantity)
		e.metrics.ObserveRollback()
		return errors.Wrap(exception.ErrTransferFailed, "pull "+asset.String()+": "+err.Error())
	}

	e.emit(model.Event{
		Kind:         enum.EventCollateralDeposited,
		Account:      account,
		Asset:        asset,
		Amount:       model.Clone(quantity),
		HealthFactor: e.factorOrNil(account),
	})
	return nil
}

func (e *Engine) mint(account model.AccountID, quantity *big.Int) error {
	// Checks
	if err := e.checkAmount(quantity); err != nil {
		return err
	}

	// Effects
	e.led.AddDebt(account, quantity)

	// Postcondition on the mutated ledger, before the external mint call.
	if err := e.health.Assert(account); err != nil {
		e.undoDebt(account, quantity)
		return err
	}

	// Interactions
	if err := e.minter.Mint(account, quantity); err != nil {
		e.undoDebt(account, quantity)
		e.metrics.ObserveRollback()
		return errors.Wrap(exception.ErrMintFailed, err.Error())
	}

	e.emit(model.Event{
		Kind:         enum.EventDebtMinted,
		Account:      account,
		DebtAmount:   model.Clone(quantity),
		HealthFactor: e.factorOrNil(account),
	})
	return nil
}

func (e *Engine) depositAndMint(account model.AccountID, asset model.AssetID, collateralQty, debtQty *big.Int) error {
	// Checks
	if err := e.checkAmount(collateralQty); err != nil {
		return err
	}
	if err := e.checkAmount(debtQty); err != nil {
		return err
	}
	if !e.conv.Supported(asset) {
		return errors.Wrap(exception.ErrCollateralNotSupported, asset.String())
	}

	// Effects
	e.led.AddCollateral(account, asset, collateralQty)
	e.led.AddDebt(account, debtQty)

	undo := func() {
		e.undoDebt(account, debtQty)
		e.undoCollateral(account, asset, collateralQty)
	}

	// Postcondition over the combined effect.
	if err := e.health.Assert(account); err != nil {
		undo()
		return err
	}

	// Interactions
	if err := e.vault.PullCollateral(account, asset, collateralQty); err != nil {
		undo()
		e.metrics.ObserveRollback()
		return errors.Wrap(exception.ErrTransferFailed, "pull "+asset.String()+": "+err.Error())
	}
	if err := e.minter.Mint(account, debtQty); err != nil {
		undo()
		e.metrics.ObserveRollback()
		// Return the already-pulled collateral so custody matches the ledger.
		if pushErr := e.vault.PushCollateral(account, asset, collateralQty); pushErr != nil {
			return errors.Wrap(exception.ErrMintFailed, err.Error()+"; compensation failed: "+pushErr.Error())
		}
		return errors.Wrap(exception.ErrMintFailed, err.Error())
	}

	factor := e.factorOrNil(account)
	e.emit(model.Event{
		Kind:         enum.EventCollateralDeposited,
		Account:      account,
		Asset:        asset,
		Amount:       model.Clone(collateralQty),
		HealthFactor: factor,
	})
	e.emit(model.Event{
		Kind:         enum.EventDebtMinted,
		Account:      account,
		DebtAmount:   model.Clone(debtQty),
		HealthFactor: factor,
	})
	return nil
}

func (e *Engine) redeemAndBurn(account model.AccountID, asset model.AssetID, collateralQty, debtQty *big.Int) error {
	// Checks
	if err := e.checkAmount(collateralQty); err != nil {
		return err
	}
	if err := e.checkAmount(debtQty); err != nil {
		return err
	}
	if !e.conv.Supported(asset) {
		return errors.Wrap(exception.ErrCollateralNotSupported, asset.String())
	}

	// Effects. Underflow means the caller asked for more than it has and
	// aborts before anything external happens.
	if err := e.led.SubDebt(account, debtQty); err != nil {
		return err
	}
	if err := e.led.SubCollateral(account, asset, collateralQty); err != nil {
		e.led.AddDebt(account, debtQty)
		return err
	}

	undo := func() {
		e.led.AddCollateral(account, asset, collateralQty)
		e.led.AddDebt(account, debtQty)
		e.metrics.ObserveRollback()
	}

	// Postcondition over the combined effect.
	if err := e.health.Assert(account); err != nil {
		e.led.AddCollateral(account, asset, collateralQty)
		e.led.AddDebt(account, debtQty)
		return err
	}

	// Interactions: collect the repayment, destroy it, release collateral.
	if err := e.minter.PullPegged(account, debtQty); err != nil {
		undo()
		return errors.Wrap(exception.ErrTransferFailed, "pull pegged: "+err.Error())
	}
	if err := e.minter.Burn(debtQty); err != nil {
		undo()
		// The repayment sits in pegged custody; refund it to the payer.
		if pushErr := e.minter.PushPegged(account, debtQty); pushErr != nil {
			return errors.Wrap(exception.ErrTransferFailed,
				"burn pegged: "+err.Error()+"; compensation failed: "+pushErr.Error())
		}
		return errors.Wrap(exception.ErrTransferFailed, "burn pegged: "+err.Error())
	}
	if err := e.vault.PushCollateral(account, asset, collateralQty); err != nil {
		undo()
		// The repayment is already burned; mint it back to the payer.
		if mintErr := e.minter.Mint(account, debtQty); mintErr != nil {
			return errors.Wrap(exception.ErrTransferFailed,
				"push "+asset.String()+": "+err.Error()+"; compensation failed: "+mintErr.Error())
		}
		return errors.Wrap(exception.ErrTransferFailed, "push "+asset.String()+": "+err.Error())
	}

	factor := e.factorOrNil(account)
	e.emit(model.Event{
		Kind:         enum.EventDebtBurned,
		Account:      account,
		DebtAmount:   model.Clone(debtQty),
		HealthFactor: factor,
	})
	e.emit(model.Event{
		Kind:         enum.EventCollateralRedeemed,
		Account:      account,
		Asset:        asset,
		Amount:       model.Clone(collateralQty),
		HealthFactor: factor,
	})
	return nil
}

func (e *Engine) checkAmount(quantity *big.Int) error {
	if quantity == nil || quantity.Sign() <= 0 {
		return exception.ErrInvalidAmount
	}
	return nil
}

func (e *Engine) undoCollateral(account model.AccountID, asset model.AssetID, quantity *big.Int) {
	// The credit was applied by this operation, so the debit cannot underflow.
	if err := e.led.SubCollateral(account, asset, quantity); err != nil {
		panic("ledger rollback underflow: " + err.Error())
	}
}

func (e *Engine) undoDebt(account model.AccountID, quantity *big.Int) {
	if err := e.led.SubDebt(account, quantity); err != nil {
		panic("ledger rollback underflow: " + err.Error())
	}
}

func (e *Engine) factorOrNil(account model.AccountID) *big.Int {
	factor, err := e.health.Factor(account)
	if err != nil {
		return nil
	}
	return factor
}

func (e *Engine) emit(ev model.Event) {
	ev.TsNano = time.Now().UTC().UnixNano()
	e.metrics.ObserveEvent(ev.Kind)
	if e.events == nil {
		return
	}
	if err := e.events.TryPublish(ev); err != nil {
		e.metrics.ObserveQueueDrop()
	}
}
