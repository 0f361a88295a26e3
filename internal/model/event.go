package model

import (
	"math/big"

	"main/internal/model/enum"
)

// Event is emitted after every committed ledger mutation. Amounts are
// protocol-scale integers; Counterparty is the liquidator on liquidation
// events and empty otherwise.
type Event struct {
	Kind         enum.EventKind `json:"kind"`
	Account      AccountID      `json:"account"`
	Counterparty AccountID      `json:"counterparty,omitempty"`
	Asset        AssetID        `json:"asset,omitempty"`
	Amount       *big.Int       `json:"amount,omitempty"`
	DebtAmount   *big.Int       `json:"debtAmount,omitempty"`
	HealthFactor *big.Int       `json:"healthFactor,omitempty"`
	TsNano       int64          `json:"tsNano"`
}
