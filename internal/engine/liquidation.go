package engine

import (
	"math/big"

	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"

	"github.com/yanun0323/errors"
)

// Liquidator restores solvency by letting a third party repay another
// account's debt in exchange for a bonus-adjusted seizure of its collateral.
type Liquidator struct {
	eng *Engine
}

func NewLiquidator(eng *Engine) *Liquidator {
	return &Liquidator{eng: eng}
}

// Liquidate repays debtToCover of the target's debt from the caller and
// seizes collateral of equal value plus the liquidation bonus. The call is
// rejected unless the target starts unhealthy and ends strictly healthier;
// failures leave no partial state.
func (l *Liquidator) Liquidate(caller model.AccountID, asset model.AssetID, target model.AccountID, debtToCover *big.Int) error {
	e := l.eng
	if err := e.lock(); err != nil {
		e.metrics.ObserveFailure(err)
		return err
	}
	defer e.mu.Unlock()
	return e.fail(l.liquidate(caller, asset, target, debtToCover))
}

func (l *Liquidator) liquidate(caller model.AccountID, asset model.AssetID, target model.AccountID, debtToCover *big.Int) error {
	e := l.eng

	// Checks
	if err := e.checkAmount(debtToCover); err != nil {
		return err
	}
	if !e.conv.Supported(asset) {
		return errors.Wrap(exception.ErrCollateralNotSupported, asset.String())
	}

	startingFactor, err := e.health.Factor(target)
	if err != nil {
		return err
	}
	if startingFactor.Cmp(e.health.Config().MinHealthFactor) >= 0 {
		return errors.Wrap(exception.ErrHealthFactorOk, target.String())
	}

	// Seizure sizing: the asset quantity worth debtToCover, plus the bonus.
	baseQty, err := e.conv.QuantityOf(asset, debtToCover)
	if err != nil {
		return err
	}
	bonus := new(big.Int).Mul(baseQty, big.NewInt(e.bonusPct))
	bonus.Quo(bonus, big.NewInt(liquidationPrecision))
	totalSeized := new(big.Int).Add(baseQty, bonus)

	// Effects. An oversized debtToCover underflows the target's collateral
	// and is rejected as a ledger-invariant violation.
	if err := e.led.SubCollateral(target, asset, totalSeized); err != nil {
		return err
	}
	if err := e.led.SubDebt(target, debtToCover); err != nil {
		e.led.AddCollateral(target, asset, totalSeized)
		return err
	}

	undo := func() {
		e.led.AddDebt(target, debtToCover)
		e.led.AddCollateral(target, asset, totalSeized)
	}

	// Postcondition: liquidation must strictly improve the target.
	endFactor, err := e.health.Factor(target)
	if err != nil {
		undo()
		return err
	}
	if endFactor.Cmp(startingFactor) <= 0 {
		undo()
		return errors.Wrap(exception.ErrHealthFactorNotImproved,
			model.FormatWad(startingFactor)+" -> "+model.FormatWad(endFactor))
	}

	// Interactions: hand the seized collateral to the caller, then collect
	// and destroy the repayment.
	if err := e.vault.PushCollateral(caller, asset, totalSeized); err != nil {
		undo()
		e.metrics.ObserveRollback()
		return errors.Wrap(exception.ErrTransferFailed, "push "+asset.String()+": "+err.Error())
	}
	if err := e.minter.PullPegged(caller, debtToCover); err != nil {
		undo()
		e.metrics.ObserveRollback()
		// Reclaim the collateral already handed out.
		if pullErr := e.vault.PullCollateral(caller, asset, totalSeized); pullErr != nil {
			return errors.Wrap(exception.ErrTransferFailed,
				"pull pegged: "+err.Error()+"; compensation failed: "+pullErr.Error())
		}
		return errors.Wrap(exception.ErrTransferFailed, "pull pegged: "+err.Error())
	}
	if err := e.minter.Burn(debtToCover); err != nil {
		undo()
		e.metrics.ObserveRollback()
		// Refund the pulled repayment and reclaim the handed-out collateral.
		if pushErr := e.minter.PushPegged(caller, debtToCover); pushErr != nil {
			return errors.Wrap(exception.ErrTransferFailed,
				"burn pegged: "+err.Error()+"; compensation failed: "+pushErr.Error())
		}
		if pullErr := e.vault.PullCollateral(caller, asset, totalSeized); pullErr != nil {
			return errors.Wrap(exception.ErrTransferFailed,
				"burn pegged: "+err.Error()+"; compensation failed: "+pullErr.Error())
		}
		return errors.Wrap(exception.ErrTransferFailed, "burn pegged: "+err.Error())
	}

	e.emit(model.Event{
		Kind:         enum.EventLiquidation,
		Account:      target,
		Counterparty: caller,
		Asset:        asset,
		Amount:       model.Clone(totalSeized),
		DebtAmount:   model.Clone(debtToCover),
		HealthFactor: model.Clone(endFactor),
	})
	return nil
}
