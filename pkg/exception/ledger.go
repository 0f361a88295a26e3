package exception

import "errors"

var (
	ErrLedgerUnderflow = errors.New("ledger: balance decrement below zero")
)
