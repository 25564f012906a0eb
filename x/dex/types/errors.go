package types

import (
	"cosmossdk.io/errors"
)

// DEX module sentinel errors
var (
	// Validation errors: caller supplied malformed input, detected before any mutation.
	ErrInvalidFee             = errors.Register(ModuleName, 1, "invalid fee parameters")
	ErrInvalidAmount          = errors.Register(ModuleName, 2, "invalid amount")
	ErrInvalidExpiry          = errors.Register(ModuleName, 3, "expiry must be in the future")
	ErrExpiryTooLong          = errors.Register(ModuleName, 4, "expiry exceeds settlement window")
	ErrBatchMismatch          = errors.Register(ModuleName, 5, "batch array lengths do not match")
	ErrFeeTooHigh             = errors.Register(ModuleName, 6, "fee exceeds maximum")
	ErrFeeDistributionInvalid = errors.Register(ModuleName, 7, "fee distribution percentages must sum to 100")
	ErrInvalidTokenPair       = errors.Register(ModuleName, 8, "invalid token pair")

	// State errors: operation inapplicable in the current lifecycle state.
	ErrInvalidOrderStatus = errors.Register(ModuleName, 9, "invalid order status for operation")
	ErrOrderExpired       = errors.Register(ModuleName, 10, "order has expired")
	ErrSettlementPaused   = errors.Register(ModuleName, 11, "settlement is paused")

	// Economic errors: computed outcome violates the caller's tolerance.
	ErrSlippageExceeded = errors.Register(ModuleName, 12, "slippage exceeded maximum")

	// Arithmetic errors: fatal, never saturate or wrap.
	ErrOverflow = errors.Register(ModuleName, 13, "arithmetic overflow")

	// Lookup and bookkeeping errors.
	ErrPoolNotFound          = errors.Register(ModuleName, 14, "pool not found")
	ErrPoolAlreadyExists     = errors.Register(ModuleName, 15, "pool already exists")
	ErrOrderNotFound         = errors.Register(ModuleName, 16, "order not found")
	ErrOrderAlreadyExists    = errors.Register(ModuleName, 17, "order already exists")
	ErrInsufficientLiquidity = errors.Register(ModuleName, 18, "insufficient liquidity in pool")
	ErrInsufficientShares    = errors.Register(ModuleName, 19, "insufficient liquidity shares")
	ErrUnauthorized          = errors.Register(ModuleName, 20, "unauthorized")
	ErrAlreadyInitialized    = errors.Register(ModuleName, 21, "already initialized")
	ErrNotInitialized        = errors.Register(ModuleName, 22, "not initialized")
	ErrInvariantViolation    = errors.Register(ModuleName, 23, "invariant violation")
	ErrInvalidState          = errors.Register(ModuleName, 24, "invalid internal state")
	ErrInvalidInput          = errors.Register(ModuleName, 25, "invalid input")
)
