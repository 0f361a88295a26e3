package exception

import "errors"

var (
	ErrInvalidAmount          = errors.New("engine: amount must be positive")
	ErrCollateralNotSupported = errors.New("engine: collateral asset not supported")
	ErrTransferFailed         = errors.New("engine: collateral transfer failed")
	ErrMintFailed             = errors.New("engine: pegged unit mint failed")
	ErrReentrantCall          = errors.New("engine: reentrant call rejected")
	ErrNilCollaborator        = errors.New("engine: nil collaborator")
	ErrFeedLengthMismatch     = errors.New("engine: asset and price feed list length mismatch")
	ErrHealthFactorBroken     = errors.New("engine: health factor below minimum")
)

var (
	ErrHealthFactorOk          = errors.New("liquidation: target health factor is not below minimum")
	ErrHealthFactorNotImproved = errors.New("liquidation: target health factor did not improve")
)
