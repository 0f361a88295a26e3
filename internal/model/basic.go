package model

// AccountID identifies a ledger account. Accounts are created implicitly on
// first interaction and never destroyed.
type AccountID string

// AssetID identifies a supported collateral asset.
type AssetID string

func (a AccountID) String() string { return string(a) }

func (a AssetID) String() string { return string(a) }
