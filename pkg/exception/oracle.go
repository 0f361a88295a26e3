package exception

import "errors"

var (
	ErrOraclePrice         = errors.New("oracle: price must be positive")
	ErrOracleFeedNotFound  = errors.New("oracle: no feed registered for asset")
	ErrOracleScaleTooLarge = errors.New("oracle: feed decimals exceed protocol precision")
)
