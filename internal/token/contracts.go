package token

import (
	"math/big"

	"main/internal/model"
)

// Vault is the collateral asset collaborator, viewed from the engine. Pull
// moves approved funds from a holder into protocol custody, Push moves custody
// funds out. Both wrap transfer/transferFrom-with-success semantics; a failed
// call returns a non-nil error.
type Vault interface {
	PullCollateral(from model.AccountID, asset model.AssetID, amount *big.Int) error
	PushCollateral(to model.AccountID, asset model.AssetID, amount *big.Int) error
}

// Minter is the pegged-unit ledger collaborator. Mint/burn authority is
// delegated exclusively to the solvency engine. PushPegged is the refund
// primitive: it returns previously pulled, not-yet-burned units to a holder.
type Minter interface {
	Mint(to model.AccountID, amount *big.Int) error
	PullPegged(from model.AccountID, amount *big.Int) error
	PushPegged(to model.AccountID, amount *big.Int) error
	Burn(amount *big.Int) error
}
