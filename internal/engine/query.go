package engine

import (
	"math/big"

	"main/internal/model"
)

// Constants is the protocol parameter surface exposed to callers. All fields
// are copies; mutating them has no effect on the engine.
type Constants struct {
	Precision               *big.Int
	LiquidationThresholdPct int64
	LiquidationPrecision    int64
	LiquidationBonusPct     int64
	MinHealthFactor         *big.Int
}

// AccountInfo aggregates an account's ledger state and its valuation.
type AccountInfo struct {
	Debt            *big.Int
	CollateralValue *big.Int
	Collateral      map[model.AssetID]*big.Int
}

// Constants returns the protocol parameters in effect.
func (e *Engine) Constants() Constants {
	cfg := e.health.Config()
	return Constants{
		Precision:               model.Clone(model.Precision),
		LiquidationThresholdPct: cfg.LiquidationThresholdPct,
		LiquidationPrecision:    liquidationPrecision,
		LiquidationBonusPct:     e.bonusPct,
		MinHealthFactor:         cfg.MinHealthFactor,
	}
}

// SupportedAssets returns the immutable asset set in registration order.
func (e *Engine) SupportedAssets() []model.AssetID {
	out := make([]model.AssetID, len(e.assets))
	copy(out, e.assets)
	return out
}

// HealthFactor returns the account's current solvency ratio.
func (e *Engine) HealthFactor(account model.AccountID) (*big.Int, error) {
	return e.health.Factor(account)
}

// CollateralValue returns the USD value of the account's collateral at the
// latest prices.
func (e *Engine) CollateralValue(account model.AccountID) (*big.Int, error) {
	return e.health.CollateralValue(account)
}

// Debt returns the account's outstanding debt.
func (e *Engine) Debt(account model.AccountID) *big.Int {
	return e.led.Debt(account)
}

// CollateralOf returns the account's ledger balance for one asset.
func (e *Engine) CollateralOf(account model.AccountID, asset model.AssetID) *big.Int {
	return e.led.Collateral(account, asset)
}

// AccountInfo returns the account's debt, per-asset collateral breakdown and
// aggregate collateral value.
func (e *Engine) AccountInfo(account model.AccountID) (AccountInfo, error) {
	value, err := e.health.CollateralValue(account)
	if err != nil {
		return AccountInfo{}, err
	}
	breakdown := make(map[model.AssetID]*big.Int, len(e.assets))
	for _, asset := range e.assets {
		if quantity := e.led.Collateral(account, asset); quantity.Sign() > 0 {
			breakdown[asset] = quantity
		}
	}
	return AccountInfo{
		Debt:            e.led.Debt(account),
		CollateralValue: value,
		Collateral:      breakdown,
	}, nil
}

// ValueOf converts an asset quantity to USD at the latest price.
func (e *Engine) ValueOf(asset model.AssetID, quantity *big.Int) (*big.Int, error) {
	return e.conv.ValueOf(asset, quantity)
}

// QuantityOf converts a USD value to the asset quantity of equal value.
func (e *Engine) QuantityOf(asset model.AssetID, usdValue *big.Int) (*big.Int, error) {
	return e.conv.QuantityOf(asset, usdValue)
}

// TotalDebt returns the aggregate debt issued, which must equal the
// externally-observable pegged-unit supply.
func (e *Engine) TotalDebt() *big.Int {
	return e.led.TotalDebt()
}

// TotalCollateralValue returns the USD value of all custody collateral.
func (e *Engine) TotalCollateralValue() (*big.Int, error) {
	total := new(big.Int)
	for _, asset := range e.assets {
		quantity := e.led.TotalCollateral(asset)
		if quantity.Sign() == 0 {
			continue
		}
		value, err := e.conv.ValueOf(asset, quantity)
		if err != nil {
			return nil, err
		}
		total.Add(total, value)
	}
	return total, nil
}

// Solvent reports the global invariant: custody collateral value covers the
// issued debt.
func (e *Engine) Solvent() (bool, error) {
	value, err := e.TotalCollateralValue()
	if err != nil {
		return false, err
	}
	return value.Cmp(e.led.TotalDebt()) >= 0, nil
}
