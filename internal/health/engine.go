package health

import (
	"math/big"

	"main/internal/ledger"
	"main/internal/model"
	"main/internal/oracle"
	"main/pkg/exception"
)

// liquidationPrecision is the divisor for the percent-denominated threshold.
const liquidationPrecision = 100

// Config defines the solvency policy.
type Config struct {
	// LiquidationThresholdPct discounts raw collateral value before it is
	// compared to debt. 50 means 200% collateralization is required for a
	// factor of one.
	LiquidationThresholdPct int64

	// MinHealthFactor is the enforcement boundary, one unit of precision.
	MinHealthFactor *big.Int
}

func DefaultConfig() Config {
	return Config{
		LiquidationThresholdPct: 50,
		MinHealthFactor:         model.Clone(model.Precision),
	}
}

// Engine computes the dimensionless solvency ratio for an account.
type Engine struct {
	cfg    Config
	led    *ledger.Ledger
	conv   *oracle.Converter
	assets []model.AssetID
}

func New(cfg Config, led *ledger.Ledger, conv *oracle.Converter, assets []model.AssetID) *Engine {
	return &Engine{cfg: cfg, led: led, conv: conv, assets: assets}
}

// CollateralValue sums the USD value of every collateral balance the account
// holds, at the latest prices.
func (e *Engine) CollateralValue(id model.AccountID) (*big.Int, error) {
	total := new(big.Int)
	for _, asset := range e.assets {
		quantity := e.led.Collateral(id, asset)
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

// Factor returns the account's health factor. An account with no debt is
// reported as MaxHealthFactor and is never eligible for liquidation.
func (e *Engine) Factor(id model.AccountID) (*big.Int, error) {
	debt := e.led.Debt(id)
	if debt.Sign() == 0 {
		return model.Clone(model.MaxHealthFactor), nil
	}

	collateralValue, err := e.CollateralValue(id)
	if err != nil {
		return nil, err
	}

	adjusted := new(big.Int).Mul(collateralValue, big.NewInt(e.cfg.LiquidationThresholdPct))
	adjusted.Quo(adjusted, big.NewInt(liquidationPrecision))

	factor := adjusted.Mul(adjusted, model.Precision)
	return factor.Quo(factor, debt), nil
}

// Assert fails with a BrokenError when the account's health factor is below
// the minimum.
func (e *Engine) Assert(id model.AccountID) error {
	factor, err := e.Factor(id)
	if err != nil {
		return err
	}
	if factor.Cmp(e.cfg.MinHealthFactor) < 0 {
		return &BrokenError{Ratio: factor}
	}
	return nil
}

// Config returns the solvency policy in effect.
func (e *Engine) Config() Config {
	return Config{
		LiquidationThresholdPct: e.cfg.LiquidationThresholdPct,
		MinHealthFactor:         model.Clone(e.cfg.MinHealthFactor),
	}
}

// BrokenError reports the offending ratio of an under-collateralized action.
type BrokenError struct {
	Ratio *big.Int
}

func (e *BrokenError) Error() string {
	return exception.ErrHealthFactorBroken.Error() + ": " + model.FormatWad(e.Ratio)
}

func (e *BrokenError) Unwrap() error {
	return exception.ErrHealthFactorBroken
}
