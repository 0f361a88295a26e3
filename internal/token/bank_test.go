package token

import (
	"errors"
	"testing"

	"main/internal/model"
	"main/pkg/exception"
)

const (
	alice = model.AccountID("alice")
	weth  = model.AssetID("WETH")
)

func TestCollateralCustody(t *testing.T) {
	bank := NewBank()
	bank.Fund(alice, weth, model.Wad(10))

	if err := bank.PullCollateral(alice, weth, model.Wad(4)); err != nil {
		t.Fatalf("pull: %v", err)
	}
	if got := bank.CollateralBalance(alice, weth); got.Cmp(model.Wad(6)) != 0 {
		t.Fatalf("balance mismatch! should be %s but got %s", model.Wad(6), got)
	}
	if got := bank.CustodyBalance(weth); got.Cmp(model.Wad(4)) != 0 {
		t.Fatalf("custody mismatch! should be %s but got %s", model.Wad(4), got)
	}

	if err := bank.PullCollateral(alice, weth, model.Wad(7)); !errors.Is(err, exception.ErrTokenInsufficientFunds) {
		t.Fatalf("oversized pull should fail, got %v", err)
	}
	if err := bank.PushCollateral(alice, weth, model.Wad(5)); !errors.Is(err, exception.ErrTokenInsufficientFunds) {
		t.Fatalf("oversized push should fail, got %v", err)
	}

	if err := bank.PushCollateral(alice, weth, model.Wad(4)); err != nil {
		t.Fatalf("push: %v", err)
	}
	if got := bank.CollateralBalance(alice, weth); got.Cmp(model.Wad(10)) != 0 {
		t.Fatalf("returned balance mismatch! should be %s but got %s", model.Wad(10), got)
	}
}

func TestPeggedLifecycle(t *testing.T) {
	bank := NewBank()

	if err := bank.Mint(alice, model.Wad(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if got := bank.Supply(); got.Cmp(model.Wad(100)) != 0 {
		t.Fatalf("supply mismatch! should be %s but got %s", model.Wad(100), got)
	}

	if err := bank.PullPegged(alice, model.Wad(101)); !errors.Is(err, exception.ErrTokenInsufficientFunds) {
		t.Fatalf("oversized pegged pull should fail, got %v", err)
	}
	if err := bank.Burn(model.Wad(1)); !errors.Is(err, exception.ErrTokenInsufficientFunds) {
		t.Fatalf("burning more than custody should fail, got %v", err)
	}

	if err := bank.PullPegged(alice, model.Wad(40)); err != nil {
		t.Fatalf("pull pegged: %v", err)
	}

	// Refunds come out of custody and never exceed it.
	if err := bank.PushPegged(alice, model.Wad(41)); !errors.Is(err, exception.ErrTokenInsufficientFunds) {
		t.Fatalf("oversized pegged push should fail, got %v", err)
	}
	if err := bank.PushPegged(alice, model.Wad(10)); err != nil {
		t.Fatalf("push pegged: %v", err)
	}
	if got := bank.PeggedBalance(alice); got.Cmp(model.Wad(70)) != 0 {
		t.Fatalf("refunded balance mismatch! should be %s but got %s", model.Wad(70), got)
	}

	if err := bank.Burn(model.Wad(30)); err != nil {
		t.Fatalf("burn: %v", err)
	}

	if got := bank.Supply(); got.Cmp(model.Wad(70)) != 0 {
		t.Fatalf("supply after burn mismatch! should be %s but got %s", model.Wad(70), got)
	}
	if got := bank.PeggedBalance(alice); got.Cmp(model.Wad(70)) != 0 {
		t.Fatalf("holder balance mismatch! should be %s but got %s", model.Wad(70), got)
	}
}
