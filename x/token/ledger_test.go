package token_test

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/opendotfund/OpenFund/x/dex/types"
	"github.com/opendotfund/OpenFund/x/token"
)

const denom = "utest"

var (
	minter = actor("minter")
	ann    = actor("ann")
	ben    = actor("ben")
)

func actor(name string) types.Address {
	return types.Derive("ledger_test_actor", []byte(name))
}

func newFundedLedger(t *testing.T) *token.InMemoryLedger {
	t.Helper()
	l := token.NewLedger()
	require.NoError(t, l.CreateDenom(denom, minter))
	require.NoError(t, l.Mint(ann, denom, math.NewInt(1000), minter))
	return l
}

func TestTransfer(t *testing.T) {
	l := newFundedLedger(t)

	require.NoError(t, l.Transfer(ann, ben, denom, math.NewInt(300), ann))
	require.Equal(t, math.NewInt(700), l.Balance(ann, denom))
	require.Equal(t, math.NewInt(300), l.Balance(ben, denom))
	require.Equal(t, math.NewInt(1000), l.Supply(denom))
}

func TestTransfer_Unauthorized(t *testing.T) {
	l := newFundedLedger(t)

	// ben is not the owner of ann's account
	err := l.Transfer(ann, ben, denom, math.NewInt(1), ben)
	require.True(t, token.ErrUnauthorized.Is(err))
	require.Equal(t, math.NewInt(1000), l.Balance(ann, denom))
}

func TestTransfer_RegisteredOwner(t *testing.T) {
	l := newFundedLedger(t)

	// An escrow-style account registered with an explicit owner: only that
	// owner can move its funds, not the account itself.
	escrow := actor("escrow")
	authority := actor("authority")
	require.NoError(t, l.CreateAccount(escrow, authority))
	require.NoError(t, l.Mint(escrow, denom, math.NewInt(50), minter))

	err := l.Transfer(escrow, ben, denom, math.NewInt(50), escrow)
	require.True(t, token.ErrUnauthorized.Is(err))

	require.NoError(t, l.Transfer(escrow, ben, denom, math.NewInt(50), authority))
	require.Equal(t, math.NewInt(50), l.Balance(ben, denom))
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	l := newFundedLedger(t)

	err := l.Transfer(ann, ben, denom, math.NewInt(1001), ann)
	require.True(t, token.ErrInsufficientFunds.Is(err))
}

func TestTransfer_UnknownDenom(t *testing.T) {
	l := newFundedLedger(t)

	err := l.Transfer(ann, ben, "unregistered", math.NewInt(1), ann)
	require.True(t, token.ErrUnknownDenom.Is(err))
}

func TestTransfer_Self(t *testing.T) {
	l := newFundedLedger(t)

	err := l.Transfer(ann, ann, denom, math.NewInt(1), ann)
	require.True(t, token.ErrSelfTransfer.Is(err))
}

func TestTransfer_InvalidAmount(t *testing.T) {
	l := newFundedLedger(t)

	require.True(t, token.ErrInvalidAmount.Is(l.Transfer(ann, ben, denom, math.ZeroInt(), ann)))
	require.True(t, token.ErrInvalidAmount.Is(l.Transfer(ann, ben, denom, math.NewInt(-1), ann)))
	require.True(t, token.ErrInvalidAmount.Is(l.Transfer(ann, ben, denom, math.Int{}, ann)))
}

func TestMint_AuthorityOnly(t *testing.T) {
	l := newFundedLedger(t)

	err := l.Mint(ann, denom, math.NewInt(1), ann)
	require.True(t, token.ErrUnauthorized.Is(err))

	require.NoError(t, l.Mint(ben, denom, math.NewInt(25), minter))
	require.Equal(t, math.NewInt(1025), l.Supply(denom))
}

func TestBurn(t *testing.T) {
	l := newFundedLedger(t)

	require.NoError(t, l.Burn(ann, denom, math.NewInt(400), ann))
	require.Equal(t, math.NewInt(600), l.Balance(ann, denom))
	require.Equal(t, math.NewInt(600), l.Supply(denom))

	require.True(t, token.ErrInsufficientFunds.Is(l.Burn(ann, denom, math.NewInt(601), ann)))
	require.True(t, token.ErrUnauthorized.Is(l.Burn(ann, denom, math.NewInt(1), ben)))
}

func TestCreateDenom_Duplicate(t *testing.T) {
	l := newFundedLedger(t)

	err := l.CreateDenom(denom, ben)
	require.True(t, token.ErrDenomExists.Is(err))

	err = l.CreateDenom("", minter)
	require.True(t, token.ErrUnknownDenom.Is(err))
}

func TestCreateAccount_Duplicate(t *testing.T) {
	l := token.NewLedger()

	escrow := actor("dup")
	require.NoError(t, l.CreateAccount(escrow, ann))
	err := l.CreateAccount(escrow, ben)
	require.True(t, token.ErrAccountExists.Is(err))
}

func TestBranch_IsolatedUntilWrite(t *testing.T) {
	l := newFundedLedger(t)

	branch := l.Branch()
	require.NoError(t, branch.Transfer(ann, ben, denom, math.NewInt(250), ann))

	// The branch sees its own mutation, the root does not.
	require.Equal(t, math.NewInt(750), branch.Balance(ann, denom))
	require.Equal(t, math.NewInt(1000), l.Balance(ann, denom))
	require.True(t, l.Balance(ben, denom).IsZero())

	branch.Write()
	require.Equal(t, math.NewInt(750), l.Balance(ann, denom))
	require.Equal(t, math.NewInt(250), l.Balance(ben, denom))
}

func TestBranch_DiscardedWithoutWrite(t *testing.T) {
	l := newFundedLedger(t)

	branch := l.Branch()
	require.NoError(t, branch.Transfer(ann, ben, denom, math.NewInt(999), ann))
	require.NoError(t, branch.Burn(ann, denom, math.NewInt(1), ann))

	// Dropped without Write: nothing reaches the root.
	require.Equal(t, math.NewInt(1000), l.Balance(ann, denom))
	require.Equal(t, math.NewInt(1000), l.Supply(denom))
}

func TestBranch_SeesParentState(t *testing.T) {
	l := newFundedLedger(t)

	escrow := actor("seen")
	require.NoError(t, l.CreateAccount(escrow, ann))

	branch := l.Branch()
	require.Equal(t, math.NewInt(1000), branch.Balance(ann, denom))

	// Ownership registered on the root gates transfers on the branch.
	require.NoError(t, branch.Mint(escrow, denom, math.NewInt(10), minter))
	err := branch.Transfer(escrow, ben, denom, math.NewInt(10), escrow)
	require.True(t, token.ErrUnauthorized.Is(err))
	require.NoError(t, branch.Transfer(escrow, ben, denom, math.NewInt(10), ann))
}

func TestBranch_NestedWrite(t *testing.T) {
	l := newFundedLedger(t)

	outer := l.Branch()
	inner := outer.Branch()
	require.NoError(t, inner.Transfer(ann, ben, denom, math.NewInt(100), ann))

	// Inner writes land on the outer branch, not the root.
	inner.Write()
	require.Equal(t, math.NewInt(900), outer.Balance(ann, denom))
	require.Equal(t, math.NewInt(1000), l.Balance(ann, denom))

	outer.Write()
	require.Equal(t, math.NewInt(900), l.Balance(ann, denom))
}

// Supply equals the sum of all holdings after any mix of operations.
func TestSupplyConservation(t *testing.T) {
	l := newFundedLedger(t)

	require.NoError(t, l.Mint(ben, denom, math.NewInt(500), minter))
	require.NoError(t, l.Transfer(ann, ben, denom, math.NewInt(123), ann))
	require.NoError(t, l.Burn(ben, denom, math.NewInt(23), ben))

	held := l.Balance(ann, denom).Add(l.Balance(ben, denom))
	require.Equal(t, l.Supply(denom), held)
	require.Equal(t, math.NewInt(1477), held)
}
