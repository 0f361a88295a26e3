package exception

import "errors"

var (
	ErrConfigEmptyAssets   = errors.New("config: at least one asset must be configured")
	ErrConfigUnknownFeed   = errors.New("config: asset references unknown feed")
	ErrConfigDuplicate     = errors.New("config: duplicate entry")
	ErrConfigInvalidEntry  = errors.New("config: invalid entry")
	ErrConfigInvalidAmount = errors.New("config: invalid decimal amount")
)
