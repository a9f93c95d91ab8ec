package model

import "errors"

// Failure taxonomy shared by the store, the custody adapters and the engine.
// Callers match with errors.Is; wrapping adds the operation context.
var (
	ErrValidation            = errors.New("validation failed")
	ErrNotFound              = errors.New("swap request not found")
	ErrTransferFailed        = errors.New("custody transfer failed")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrArithmeticOverflow    = errors.New("arithmetic overflow")
	ErrAlreadyInitialized    = errors.New("ledger already initialized")
	ErrNotInitialized        = errors.New("ledger not initialized")
)
