package types

import (
	"cosmossdk.io/math"
)

// Ledger is the token ledger contract required by the DEX engines. The
// ledger is the sole mutator of token balances; every operation is atomic
// and fails if the authorizer lacks rights over the source account or mint.
//
// The `by` argument is the capability: the ledger compares it against the
// registered owner of the source account (an account with no registered
// owner is owned by itself) or against the denom's mint authority. The
// engines pass their derived sub-authorities here, which is what scopes
// transfer rights to a specific pool or order.
type Ledger interface {
	// CreateAccount registers an account with an explicit owner. Accounts
	// never registered are owned by themselves.
	CreateAccount(addr, owner Address) error

	// CreateDenom registers a denomination and its exclusive mint authority.
	CreateDenom(denom string, mintAuthority Address) error

	// Transfer moves amount of denom from one account to another.
	Transfer(from, to Address, denom string, amount math.Int, by Address) error

	// Mint creates amount of denom in the target account.
	Mint(to Address, denom string, amount math.Int, by Address) error

	// Burn destroys amount of denom held by the source account.
	Burn(from Address, denom string, amount math.Int, by Address) error

	// Balance returns the amount of denom held by an account.
	Balance(addr Address, denom string) math.Int

	// Supply returns the total minted amount of denom.
	Supply(denom string) math.Int

	// Branch returns a ledger whose mutations are buffered until Write is
	// called on it. Discarding the branch discards the mutations. This is
	// the all-or-nothing unit for multi-transfer operations.
	Branch() Ledger

	// Write applies a branch's buffered mutations to its parent atomically.
	// Write on the root ledger is a no-op.
	Write()
}
