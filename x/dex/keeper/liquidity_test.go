package keeper_test

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/opendotfund/OpenFund/x/dex/types"
)

// TestAddLiquidity_FirstDepositGeometricMean pins the first-deposit rule:
// lp_minted = floor(sqrt(10000 * 40000)) = floor(sqrt(4e8)) = 20000.
func TestAddLiquidity_FirstDepositGeometricMean(t *testing.T) {
	k, ledger, _ := newTestKeeper(t)

	pool, err := k.InitializePool(alice, tokenA, tokenB, math.NewInt(3), math.NewInt(1000))
	require.NoError(t, err)

	lp, err := k.AddLiquidity(alice, pool.Address, math.NewInt(10_000), math.NewInt(40_000), math.ZeroInt())
	require.NoError(t, err)
	require.Equal(t, math.NewInt(20_000), lp)

	require.Equal(t, math.NewInt(20_000), k.LPSupply(pool))
	require.Equal(t, math.NewInt(20_000), ledger.Balance(alice, pool.LPDenom))

	reserveA, reserveB := k.Reserves(pool)
	require.Equal(t, math.NewInt(10_000), reserveA)
	require.Equal(t, math.NewInt(40_000), reserveB)
}

// TestAddLiquidity_ProportionalMinRule: a follow-up deposit off the pool
// ratio is credited at the smaller of the two proportional shares.
func TestAddLiquidity_ProportionalMinRule(t *testing.T) {
	k, _, _ := newTestKeeper(t)
	pool := setupFundedPool(t, k) // 1M/1M, supply 1M

	// 10000 of A but only 5000 of B: B side limits the mint.
	lp, err := k.AddLiquidity(bob, pool.Address, math.NewInt(10_000), math.NewInt(5_000), math.ZeroInt())
	require.NoError(t, err)
	require.Equal(t, math.NewInt(5_000), lp)
}

func TestAddLiquidity_InvalidAmounts(t *testing.T) {
	k, _, _ := newTestKeeper(t)
	pool := setupFundedPool(t, k)

	_, err := k.AddLiquidity(bob, pool.Address, math.ZeroInt(), math.NewInt(1000), math.ZeroInt())
	require.Error(t, err)
	require.True(t, types.ErrInvalidAmount.Is(err))

	_, err = k.AddLiquidity(bob, pool.Address, math.NewInt(1000), math.NewInt(-5), math.ZeroInt())
	require.Error(t, err)
	require.True(t, types.ErrInvalidAmount.Is(err))
}

func TestAddLiquidity_SlippageExceeded(t *testing.T) {
	k, ledger, _ := newTestKeeper(t)
	pool := setupFundedPool(t, k)

	bobABefore := ledger.Balance(bob, tokenA)

	_, err := k.AddLiquidity(bob, pool.Address, math.NewInt(10_000), math.NewInt(10_000), math.NewInt(10_001))
	require.Error(t, err)
	require.True(t, types.ErrSlippageExceeded.Is(err))

	// Nothing moved.
	require.Equal(t, bobABefore, ledger.Balance(bob, tokenA))
	require.True(t, ledger.Balance(bob, pool.LPDenom).IsZero())
}

// TestLiquidity_RoundTrip: add then immediately remove the same LP amount;
// returned amounts equal deposits up to 1 unit of floor loss per side.
func TestLiquidity_RoundTrip(t *testing.T) {
	k, _, _ := newTestKeeper(t)
	pool := setupFundedPool(t, k)

	depositA := math.NewInt(333_333)
	depositB := math.NewInt(333_333)

	lp, err := k.AddLiquidity(bob, pool.Address, depositA, depositB, math.ZeroInt())
	require.NoError(t, err)

	outA, outB, err := k.RemoveLiquidity(bob, pool.Address, lp, math.ZeroInt(), math.ZeroInt())
	require.NoError(t, err)

	one := math.OneInt()
	require.True(t, depositA.Sub(outA).LTE(one), "A side lost more than 1 unit: in %s out %s", depositA, outA)
	require.True(t, depositB.Sub(outB).LTE(one), "B side lost more than 1 unit: in %s out %s", depositB, outB)
	require.True(t, outA.LTE(depositA))
	require.True(t, outB.LTE(depositB))
}

func TestRemoveLiquidity_ProportionalPayout(t *testing.T) {
	k, _, _ := newTestKeeper(t)

	pool, err := k.InitializePool(alice, tokenA, tokenB, math.NewInt(3), math.NewInt(1000))
	require.NoError(t, err)

	lp, err := k.AddLiquidity(alice, pool.Address, math.NewInt(1_000_000), math.NewInt(4_000_000), math.ZeroInt())
	require.NoError(t, err)
	require.Equal(t, math.NewInt(2_000_000), lp) // sqrt(4e12)

	// Withdraw a quarter of the supply, receive a quarter of each reserve.
	outA, outB, err := k.RemoveLiquidity(alice, pool.Address, math.NewInt(500_000), math.ZeroInt(), math.ZeroInt())
	require.NoError(t, err)
	require.Equal(t, math.NewInt(250_000), outA)
	require.Equal(t, math.NewInt(1_000_000), outB)

	require.Equal(t, math.NewInt(1_500_000), k.LPSupply(pool))
}

func TestRemoveLiquidity_ZeroAmount(t *testing.T) {
	k, _, _ := newTestKeeper(t)
	pool := setupFundedPool(t, k)

	_, _, err := k.RemoveLiquidity(alice, pool.Address, math.ZeroInt(), math.ZeroInt(), math.ZeroInt())
	require.Error(t, err)
	require.True(t, types.ErrInvalidAmount.Is(err))
}

func TestRemoveLiquidity_InsufficientShares(t *testing.T) {
	k, _, _ := newTestKeeper(t)
	pool := setupFundedPool(t, k)

	// bob holds no shares
	_, _, err := k.RemoveLiquidity(bob, pool.Address, math.NewInt(1), math.ZeroInt(), math.ZeroInt())
	require.Error(t, err)
	require.True(t, types.ErrInsufficientShares.Is(err))

	// alice holds 1M, asks for more
	_, _, err = k.RemoveLiquidity(alice, pool.Address, math.NewInt(1_000_001), math.ZeroInt(), math.ZeroInt())
	require.Error(t, err)
	require.True(t, types.ErrInsufficientShares.Is(err))
}

func TestRemoveLiquidity_SlippageExceeded(t *testing.T) {
	k, ledger, _ := newTestKeeper(t)
	pool := setupFundedPool(t, k)

	lpBefore := ledger.Balance(alice, pool.LPDenom)

	_, _, err := k.RemoveLiquidity(alice, pool.Address, math.NewInt(100_000), math.NewInt(100_001), math.ZeroInt())
	require.Error(t, err)
	require.True(t, types.ErrSlippageExceeded.Is(err))

	// Burn did not happen.
	require.Equal(t, lpBefore, ledger.Balance(alice, pool.LPDenom))
}

// Swap fees accrue to the reserves, so LPs withdraw more than they deposited
// after trading activity.
func TestLiquidity_FeesAccrueToProviders(t *testing.T) {
	k, _, _ := newTestKeeper(t)
	pool := setupFundedPool(t, k)

	for i := 0; i < 10; i++ {
		_, err := k.Swap(bob, pool.Address, tokenA, math.NewInt(100_000), math.ZeroInt())
		require.NoError(t, err)
		out, err := k.Swap(bob, pool.Address, tokenB, math.NewInt(100_000), math.ZeroInt())
		require.NoError(t, err)
		require.True(t, out.IsPositive())
	}

	outA, outB, err := k.RemoveLiquidity(alice, pool.Address, math.NewInt(1_000_000), math.ZeroInt(), math.ZeroInt())
	require.NoError(t, err)

	total := outA.Add(outB)
	require.True(t, total.GT(math.NewInt(2_000_000)),
		"expected fee growth, withdrew %s+%s against 1M+1M deposited", outA, outB)
}
