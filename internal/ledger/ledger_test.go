package ledger

import (
	"errors"
	"testing"

	"main/internal/model"
	"main/pkg/exception"
)

const (
	alice = model.AccountID("alice")
	bob   = model.AccountID("bob")
	weth  = model.AssetID("WETH")
	wbtc  = model.AssetID("WBTC")
)

func TestCollateralAccounting(t *testing.T) {
	led := New()

	led.AddCollateral(alice, weth, model.Wad(10))
	led.AddCollateral(alice, weth, model.Wad(5))
	led.AddCollateral(bob, weth, model.Wad(2))
	led.AddCollateral(alice, wbtc, model.Wad(1))

	if got := led.Collateral(alice, weth); got.Cmp(model.Wad(15)) != 0 {
		t.Fatalf("alice WETH mismatch! should be %s but got %s", model.Wad(15), got)
	}
	if got := led.TotalCollateral(weth); got.Cmp(model.Wad(17)) != 0 {
		t.Fatalf("total WETH mismatch! should be %s but got %s", model.Wad(17), got)
	}

	if err := led.SubCollateral(alice, weth, model.Wad(6)); err != nil {
		t.Fatalf("sub collateral: %v", err)
	}
	if got := led.Collateral(alice, weth); got.Cmp(model.Wad(9)) != 0 {
		t.Fatalf("alice WETH after sub mismatch! should be %s but got %s", model.Wad(9), got)
	}
	if got := led.TotalCollateral(weth); got.Cmp(model.Wad(11)) != 0 {
		t.Fatalf("total WETH after sub mismatch! should be %s but got %s", model.Wad(11), got)
	}
}

func TestSubCollateralUnderflow(t *testing.T) {
	led := New()
	led.AddCollateral(alice, weth, model.Wad(3))

	err := led.SubCollateral(alice, weth, model.Wad(4))
	if !errors.Is(err, exception.ErrLedgerUnderflow) {
		t.Fatalf("oversized debit should underflow, got %v", err)
	}
	// A failed debit must not clamp or partially apply.
	if got := led.Collateral(alice, weth); got.Cmp(model.Wad(3)) != 0 {
		t.Fatalf("balance should be untouched! should be %s but got %s", model.Wad(3), got)
	}
	if got := led.TotalCollateral(weth); got.Cmp(model.Wad(3)) != 0 {
		t.Fatalf("total should be untouched! should be %s but got %s", model.Wad(3), got)
	}

	if err := led.SubCollateral(bob, weth, model.Wad(1)); !errors.Is(err, exception.ErrLedgerUnderflow) {
		t.Fatalf("debit of empty account should underflow, got %v", err)
	}
	if err := led.SubCollateral(alice, wbtc, model.Wad(1)); !errors.Is(err, exception.ErrLedgerUnderflow) {
		t.Fatalf("debit of unheld asset should underflow, got %v", err)
	}
}

func TestDebtAccounting(t *testing.T) {
	led := New()

	led.AddDebt(alice, model.Wad(100))
	led.AddDebt(bob, model.Wad(40))

	if got := led.Debt(alice); got.Cmp(model.Wad(100)) != 0 {
		t.Fatalf("alice debt mismatch! should be %s but got %s", model.Wad(100), got)
	}
	if got := led.TotalDebt(); got.Cmp(model.Wad(140)) != 0 {
		t.Fatalf("total debt mismatch! should be %s but got %s", model.Wad(140), got)
	}

	if err := led.SubDebt(alice, model.Wad(100)); err != nil {
		t.Fatalf("sub debt: %v", err)
	}
	if err := led.SubDebt(alice, model.Wad(1)); !errors.Is(err, exception.ErrLedgerUnderflow) {
		t.Fatalf("repaying beyond the debt should underflow, got %v", err)
	}
	if got := led.TotalDebt(); got.Cmp(model.Wad(40)) != 0 {
		t.Fatalf("total debt after repay mismatch! should be %s but got %s", model.Wad(40), got)
	}
}

func TestQueriesReturnCopies(t *testing.T) {
	led := New()
	led.AddCollateral(alice, weth, model.Wad(10))
	led.AddDebt(alice, model.Wad(5))

	led.Collateral(alice, weth).SetInt64(0)
	led.Debt(alice).SetInt64(0)
	led.TotalCollateral(weth).SetInt64(0)
	led.TotalDebt().SetInt64(0)

	if got := led.Collateral(alice, weth); got.Cmp(model.Wad(10)) != 0 {
		t.Fatalf("collateral query should return a copy, got %s", got)
	}
	if got := led.Debt(alice); got.Cmp(model.Wad(5)) != 0 {
		t.Fatalf("debt query should return a copy, got %s", got)
	}
}
