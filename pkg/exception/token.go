package exception

import "errors"

var (
	ErrTokenInsufficientFunds = errors.New("token: insufficient funds")
)
