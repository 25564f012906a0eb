package token

import (
	"cosmossdk.io/errors"
)

// ModuleName defines the ledger codespace.
const ModuleName = "token"

// Token ledger sentinel errors
var (
	ErrUnauthorized      = errors.Register(ModuleName, 1, "authorizer lacks rights over account")
	ErrInsufficientFunds = errors.Register(ModuleName, 2, "insufficient funds")
	ErrUnknownDenom      = errors.Register(ModuleName, 3, "unknown denomination")
	ErrDenomExists       = errors.Register(ModuleName, 4, "denomination already exists")
	ErrAccountExists     = errors.Register(ModuleName, 5, "account already registered")
	ErrInvalidAmount     = errors.Register(ModuleName, 6, "invalid amount")
	ErrSelfTransfer      = errors.Register(ModuleName, 7, "transfer to self")
)
