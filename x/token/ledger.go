// Package token provides an in-memory implementation of the token ledger the
// DEX engines settle against. The ledger is the sole mutator of balances:
// every transfer, mint and burn checks the authorizer against the registered
// owner of the source account or the denom's mint authority.
package token

import (
	"sync"

	"cosmossdk.io/math"

	"github.com/opendotfund/OpenFund/x/dex/types"
)

type balanceKey struct {
	addr  types.Address
	denom string
}

// ledgerState holds one layer of ledger data. A branch layers its own state
// over its parent's; reads fall through, writes stay local until Write.
type ledgerState struct {
	balances map[balanceKey]math.Int
	supplies map[string]math.Int
	owners   map[types.Address]types.Address
	mints    map[string]types.Address
}

func newLedgerState() ledgerState {
	return ledgerState{
		balances: make(map[balanceKey]math.Int),
		supplies: make(map[string]math.Int),
		owners:   make(map[types.Address]types.Address),
		mints:    make(map[string]types.Address),
	}
}

// InMemoryLedger implements types.Ledger with map-backed state and
// copy-on-write branches for all-or-nothing multi-transfer operations.
type InMemoryLedger struct {
	mu     *sync.Mutex
	parent *InMemoryLedger
	state  ledgerState
}

var _ types.Ledger = (*InMemoryLedger)(nil)

// NewLedger returns an empty root ledger.
func NewLedger() *InMemoryLedger {
	return &InMemoryLedger{
		mu:    &sync.Mutex{},
		state: newLedgerState(),
	}
}

// CreateAccount registers an account with an explicit owner. Registration is
// one-shot: a second registration of the same address fails.
func (l *InMemoryLedger) CreateAccount(addr, owner types.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.lookupOwner(addr); ok {
		return ErrAccountExists.Wrapf("account %s", addr)
	}
	l.state.owners[addr] = owner
	return nil
}

// CreateDenom registers a denomination and its exclusive mint authority.
func (l *InMemoryLedger) CreateDenom(denom string, mintAuthority types.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if denom == "" {
		return ErrUnknownDenom.Wrap("denom cannot be empty")
	}
	if _, ok := l.lookupMint(denom); ok {
		return ErrDenomExists.Wrapf("denom %s", denom)
	}
	l.state.mints[denom] = mintAuthority
	l.state.supplies[denom] = math.ZeroInt()
	return nil
}

// Transfer moves amount of denom between accounts. The authorizer must be
// the registered owner of the source account.
func (l *InMemoryLedger) Transfer(from, to types.Address, denom string, amount math.Int, by types.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := validAmount(amount); err != nil {
		return err
	}
	if from == to {
		return ErrSelfTransfer.Wrapf("account %s", from)
	}
	if _, ok := l.lookupMint(denom); !ok {
		return ErrUnknownDenom.Wrapf("denom %s", denom)
	}
	if owner := l.ownerOf(from); owner != by {
		return ErrUnauthorized.Wrapf("%s is not the owner of %s", by, from)
	}

	fromBal := l.balanceOf(from, denom)
	if fromBal.LT(amount) {
		return ErrInsufficientFunds.Wrapf("account %s has %s %s, need %s", from, fromBal, denom, amount)
	}

	l.state.balances[balanceKey{from, denom}] = fromBal.Sub(amount)
	l.state.balances[balanceKey{to, denom}] = l.balanceOf(to, denom).Add(amount)
	return nil
}

// Mint creates amount of denom in the target account. The authorizer must be
// the denom's registered mint authority.
func (l *InMemoryLedger) Mint(to types.Address, denom string, amount math.Int, by types.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := validAmount(amount); err != nil {
		return err
	}
	authority, ok := l.lookupMint(denom)
	if !ok {
		return ErrUnknownDenom.Wrapf("denom %s", denom)
	}
	if authority != by {
		return ErrUnauthorized.Wrapf("%s is not the mint authority of %s", by, denom)
	}

	l.state.balances[balanceKey{to, denom}] = l.balanceOf(to, denom).Add(amount)
	l.state.supplies[denom] = l.supplyOf(denom).Add(amount)
	return nil
}

// Burn destroys amount of denom held by the source account. The authorizer
// must be the registered owner of the source account.
func (l *InMemoryLedger) Burn(from types.Address, denom string, amount math.Int, by types.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := validAmount(amount); err != nil {
		return err
	}
	if _, ok := l.lookupMint(denom); !ok {
		return ErrUnknownDenom.Wrapf("denom %s", denom)
	}
	if owner := l.ownerOf(from); owner != by {
		return ErrUnauthorized.Wrapf("%s is not the owner of %s", by, from)
	}

	fromBal := l.balanceOf(from, denom)
	if fromBal.LT(amount) {
		return ErrInsufficientFunds.Wrapf("account %s has %s %s, need %s", from, fromBal, denom, amount)
	}

	l.state.balances[balanceKey{from, denom}] = fromBal.Sub(amount)
	l.state.supplies[denom] = l.supplyOf(denom).Sub(amount)
	return nil
}

// Balance returns the amount of denom held by an account.
func (l *InMemoryLedger) Balance(addr types.Address, denom string) math.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceOf(addr, denom)
}

// Supply returns the total minted amount of denom.
func (l *InMemoryLedger) Supply(denom string) math.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.supplyOf(denom)
}

// Branch returns a child ledger layered over this one. Mutations stay in the
// child until Write; dropping the child discards them.
func (l *InMemoryLedger) Branch() types.Ledger {
	return &InMemoryLedger{
		mu:     l.mu,
		parent: l,
		state:  newLedgerState(),
	}
}

// Write applies the branch's buffered mutations to its parent in one step.
// On the root ledger this is a no-op.
func (l *InMemoryLedger) Write() {
	if l.parent == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for k, v := range l.state.balances {
		l.parent.state.balances[k] = v
	}
	for k, v := range l.state.supplies {
		l.parent.state.supplies[k] = v
	}
	for k, v := range l.state.owners {
		l.parent.state.owners[k] = v
	}
	for k, v := range l.state.mints {
		l.parent.state.mints[k] = v
	}
}

// balanceOf walks the branch chain for the account's balance.
func (l *InMemoryLedger) balanceOf(addr types.Address, denom string) math.Int {
	for cur := l; cur != nil; cur = cur.parent {
		if bal, ok := cur.state.balances[balanceKey{addr, denom}]; ok {
			return bal
		}
	}
	return math.ZeroInt()
}

func (l *InMemoryLedger) supplyOf(denom string) math.Int {
	for cur := l; cur != nil; cur = cur.parent {
		if s, ok := cur.state.supplies[denom]; ok {
			return s
		}
	}
	return math.ZeroInt()
}

// ownerOf returns the registered owner of an account. An account never
// registered is owned by itself.
func (l *InMemoryLedger) ownerOf(addr types.Address) types.Address {
	if owner, ok := l.lookupOwner(addr); ok {
		return owner
	}
	return addr
}

func (l *InMemoryLedger) lookupOwner(addr types.Address) (types.Address, bool) {
	for cur := l; cur != nil; cur = cur.parent {
		if owner, ok := cur.state.owners[addr]; ok {
			return owner, true
		}
	}
	return types.Address{}, false
}

func (l *InMemoryLedger) lookupMint(denom string) (types.Address, bool) {
	for cur := l; cur != nil; cur = cur.parent {
		if authority, ok := cur.state.mints[denom]; ok {
			return authority, true
		}
	}
	return types.Address{}, false
}

func validAmount(amount math.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return ErrInvalidAmount.Wrap("amount must be positive")
	}
	return nil
}
