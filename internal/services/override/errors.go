package override

import "errors"

// Service errors
var (
	ErrPositionNotFound = errors.New("position not found")
	ErrNotOverridden    = errors.New("position is not overridden")
	ErrWalletNotFound   = errors.New("wallet not found")
)
