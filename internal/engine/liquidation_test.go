package engine

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/model"
	"main/internal/oracle"
	"main/internal/token"
	"main/pkg/exception"
)

// setupUnderwater builds alice at a 0.9375 health factor: 10 WETH deposited
// at 2000 USD against 8000 debt, then a crash to 1500 USD. Bob holds pegged
// units to repay with.
func setupUnderwater(t *testing.T) (*Engine, *Liquidator, *token.Bank) {
	t.Helper()

	eng, bank, feed := newTestEngine(t)
	bank.Fund(alice, weth, model.Wad(10))
	bank.Fund(bob, weth, model.Wad(5))
	require.NoError(t, eng.DepositAndMint(alice, weth, model.Wad(10), model.Wad(8000)))
	require.NoError(t, eng.DepositAndMint(bob, weth, model.Wad(5), model.Wad(2000)))

	feed.SetPrice(1500_00000000)
	return eng, NewLiquidator(eng), bank
}

func TestLiquidateHealthyTargetRejected(t *testing.T) {
	eng, bank, _ := newTestEngine(t)
	liq := NewLiquidator(eng)
	bank.Fund(alice, weth, model.Wad(10))
	require.NoError(t, eng.DepositAndMint(alice, weth, model.Wad(10), model.Wad(8000)))

	err := liq.Liquidate(bob, weth, alice, model.Wad(1000))
	require.ErrorIs(t, err, exception.ErrHealthFactorOk)
	assert.Zero(t, eng.Debt(alice).Cmp(model.Wad(8000)))
}

func TestLiquidatePartial(t *testing.T) {
	eng, liq, bank := setupUnderwater(t)

	require.NoError(t, liq.Liquidate(bob, weth, alice, model.Wad(2000)))

	// 2000 of debt at 1500 USD is 1.3(3) WETH; the 10% bonus brings the
	// seizure to 1.46(6) WETH, truncated toward zero.
	baseQty, _ := new(big.Int).SetString("1333333333333333333", 10)
	seized, _ := new(big.Int).SetString("1466666666666666666", 10)

	assert.Zero(t, eng.Debt(alice).Cmp(model.Wad(6000)))
	assert.Zero(t, eng.CollateralOf(alice, weth).Cmp(new(big.Int).Sub(model.Wad(10), seized)))
	assert.Zero(t, bank.CollateralBalance(bob, weth).Cmp(seized))
	assert.Zero(t, bank.PeggedBalance(bob).Sign(), "bob's 2000 pegged should be spent")
	assert.Zero(t, bank.Supply().Cmp(model.Wad(8000)), "repaid units should be burned")
	assert.Zero(t, eng.TotalDebt().Cmp(bank.Supply()))

	// The bonus is exactly a tenth of the base quantity.
	bonus := new(big.Int).Sub(seized, baseQty)
	assert.Zero(t, bonus.Cmp(new(big.Int).Quo(baseQty, big.NewInt(10))))

	// The target ends strictly healthier but can still be under water.
	factor, err := eng.HealthFactor(alice)
	require.NoError(t, err)
	assert.Positive(t, factor.Cmp(big.NewInt(0).SetInt64(937500000000000000)))
}

func TestLiquidateOversizedCoverRejected(t *testing.T) {
	eng, liq, _ := setupUnderwater(t)

	// Covering 20000 would seize over 14 WETH against a 10 WETH balance;
	// the ledger rejects the debit instead of clamping.
	err := liq.Liquidate(bob, weth, alice, model.Wad(20000))
	require.ErrorIs(t, err, exception.ErrLedgerUnderflow)
	assert.Zero(t, eng.Debt(alice).Cmp(model.Wad(8000)))
	assert.Zero(t, eng.CollateralOf(alice, weth).Cmp(model.Wad(10)))
}

func TestLiquidateMustImprove(t *testing.T) {
	eng, bank, feed := newTestEngine(t)
	liq := NewLiquidator(eng)
	bank.Fund(alice, weth, model.Wad(10))
	bank.Fund(bob, weth, model.Wad(5))
	require.NoError(t, eng.DepositAndMint(alice, weth, model.Wad(10), model.Wad(8000)))
	require.NoError(t, eng.DepositAndMint(bob, weth, model.Wad(5), model.Wad(1000)))

	// At 800 USD the collateral is worth exactly the debt. Seizing value plus
	// a bonus then worsens the ratio, so the attempt must be rejected whole.
	feed.SetPrice(800_00000000)

	err := liq.Liquidate(bob, weth, alice, model.Wad(1000))
	require.ErrorIs(t, err, exception.ErrHealthFactorNotImproved)
	assert.Zero(t, eng.Debt(alice).Cmp(model.Wad(8000)))
	assert.Zero(t, eng.CollateralOf(alice, weth).Cmp(model.Wad(10)))
	assert.Zero(t, bank.PeggedBalance(bob).Cmp(model.Wad(1000)))
}

func TestLiquidateRollbackWhenRepaymentMissing(t *testing.T) {
	eng, bank, feed := newTestEngine(t)
	liq := NewLiquidator(eng)
	bank.Fund(alice, weth, model.Wad(10))
	require.NoError(t, eng.DepositAndMint(alice, weth, model.Wad(10), model.Wad(8000)))
	feed.SetPrice(1500_00000000)

	// Bob holds no pegged units; the pull fails after the collateral was
	// already pushed, and the compensation reclaims it.
	err := liq.Liquidate(bob, weth, alice, model.Wad(2000))
	require.ErrorIs(t, err, exception.ErrTransferFailed)

	assert.Zero(t, eng.Debt(alice).Cmp(model.Wad(8000)))
	assert.Zero(t, eng.CollateralOf(alice, weth).Cmp(model.Wad(10)))
	assert.Zero(t, bank.CollateralBalance(bob, weth).Sign())
	assert.Zero(t, bank.CustodyBalance(weth).Cmp(model.Wad(10)))
	assert.Zero(t, bank.Supply().Cmp(model.Wad(8000)))
}

func TestLiquidateCompensatesOnBurnFailure(t *testing.T) {
	bank := &flakyBank{Bank: token.NewBank()}
	feed := oracle.NewStaticFeed(ethPrice, 8)
	eng, err := New(Config{
		Assets: []model.AssetID{weth},
		Feeds:  []oracle.PriceFeed{feed},
		Minter: bank,
		Vault:  bank,
	})
	require.NoError(t, err)
	liq := NewLiquidator(eng)

	bank.Fund(alice, weth, model.Wad(10))
	bank.Fund(bob, weth, model.Wad(5))
	require.NoError(t, eng.DepositAndMint(alice, weth, model.Wad(10), model.Wad(8000)))
	require.NoError(t, eng.DepositAndMint(bob, weth, model.Wad(5), model.Wad(2000)))
	feed.SetPrice(1500_00000000)

	bank.failBurn = true
	err = liq.Liquidate(bob, weth, alice, model.Wad(2000))
	require.ErrorIs(t, err, exception.ErrTransferFailed)

	// The ledger is unwound, bob's repayment is refunded and the collateral
	// handed to him is reclaimed into custody.
	assert.Zero(t, eng.Debt(alice).Cmp(model.Wad(8000)))
	assert.Zero(t, eng.CollateralOf(alice, weth).Cmp(model.Wad(10)))
	assert.Zero(t, bank.CollateralBalance(bob, weth).Sign())
	assert.Zero(t, bank.PeggedBalance(bob).Cmp(model.Wad(2000)))
	assert.Zero(t, bank.CustodyBalance(weth).Cmp(model.Wad(15)))
	assert.Zero(t, bank.Supply().Cmp(model.Wad(10000)))
}

func TestLiquidateUnknownAsset(t *testing.T) {
	_, liq, _ := setupUnderwater(t)

	err := liq.Liquidate(bob, wbtc, alice, model.Wad(1000))
	require.ErrorIs(t, err, exception.ErrCollateralNotSupported)
}
