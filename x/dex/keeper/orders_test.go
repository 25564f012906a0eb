package keeper_test

import (
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/opendotfund/OpenFund/x/dex/types"
)

func TestCreateOrder_EscrowsExactAmount(t *testing.T) {
	k, ledger, clock := newTestKeeper(t)
	pool := setupFundedPool(t, k)

	amountIn := math.NewInt(5000)
	order, err := k.CreateOrder(bob, pool.Address, types.DirectionAtoB, amountIn, math.NewInt(4900), clock.Now().Add(time.Minute).Unix())
	require.NoError(t, err)

	require.Equal(t, types.OrderStatusOpen, order.Status)
	require.Equal(t, tokenA, order.TokenIn())
	require.Equal(t, tokenB, order.TokenOut())
	require.Equal(t, types.OrderAddress(bob, pool.Address, clock.Now().Unix()), order.Address)

	// While Open, the escrow holds exactly amount_in.
	require.Equal(t, amountIn, ledger.Balance(order.Escrow, tokenA))

	// The owner cannot touch the escrow directly; it is engine-owned.
	err = ledger.Transfer(order.Escrow, bob, tokenA, amountIn, bob)
	require.Error(t, err)
}

func TestCreateOrder_Validation(t *testing.T) {
	k, _, clock := newTestKeeper(t)
	pool := setupFundedPool(t, k)
	future := clock.Now().Add(time.Minute).Unix()

	_, err := k.CreateOrder(bob, pool.Address, types.DirectionAtoB, math.ZeroInt(), math.ZeroInt(), future)
	require.True(t, types.ErrInvalidAmount.Is(err))

	_, err = k.CreateOrder(bob, pool.Address, types.OrderDirection(9), math.NewInt(100), math.ZeroInt(), future)
	require.True(t, types.ErrInvalidInput.Is(err))

	_, err = k.CreateOrder(bob, types.PoolAddress(tokenA, "unknown"), types.DirectionAtoB, math.NewInt(100), math.ZeroInt(), future)
	require.True(t, types.ErrPoolNotFound.Is(err))
}

func TestCreateOrder_ExpiryBounds(t *testing.T) {
	k, _, clock := newTestKeeper(t)
	pool := setupFundedPool(t, k)

	// Shrink the window to 60s for the scenario.
	require.NoError(t, k.UpdateSettlementParams(admin, 25, 60))

	// Expiry in the past.
	_, err := k.CreateOrder(bob, pool.Address, types.DirectionAtoB, math.NewInt(100), math.ZeroInt(), clock.Now().Add(-time.Second).Unix())
	require.True(t, types.ErrInvalidExpiry.Is(err))

	// Expiry exactly now is not strictly in the future.
	_, err = k.CreateOrder(bob, pool.Address, types.DirectionAtoB, math.NewInt(100), math.ZeroInt(), clock.Now().Unix())
	require.True(t, types.ErrInvalidExpiry.Is(err))

	// 100s ahead against a 60s window.
	_, err = k.CreateOrder(bob, pool.Address, types.DirectionAtoB, math.NewInt(100), math.ZeroInt(), clock.Now().Add(100*time.Second).Unix())
	require.True(t, types.ErrExpiryTooLong.Is(err))

	// At the window boundary it is accepted.
	_, err = k.CreateOrder(bob, pool.Address, types.DirectionAtoB, math.NewInt(100), math.ZeroInt(), clock.Now().Add(60*time.Second).Unix())
	require.NoError(t, err)
}

func TestCreateOrder_Paused(t *testing.T) {
	k, _, clock := newTestKeeper(t)
	pool := setupFundedPool(t, k)

	require.NoError(t, k.SetSettlementActive(admin, false))

	_, err := k.CreateOrder(bob, pool.Address, types.DirectionAtoB, math.NewInt(100), math.ZeroInt(), clock.Now().Add(time.Minute).Unix())
	require.True(t, types.ErrSettlementPaused.Is(err))

	require.NoError(t, k.SetSettlementActive(admin, true))
	_, err = k.CreateOrder(bob, pool.Address, types.DirectionAtoB, math.NewInt(100), math.ZeroInt(), clock.Now().Add(time.Minute).Unix())
	require.NoError(t, err)
}

func TestCreateOrder_IdentityCollision(t *testing.T) {
	k, _, clock := newTestKeeper(t)
	pool := setupFundedPool(t, k)
	future := clock.Now().Add(time.Minute).Unix()

	_, err := k.CreateOrder(bob, pool.Address, types.DirectionAtoB, math.NewInt(100), math.ZeroInt(), future)
	require.NoError(t, err)

	// Same owner, pool and creation second derives the same identity.
	_, err = k.CreateOrder(bob, pool.Address, types.DirectionBtoA, math.NewInt(200), math.ZeroInt(), future)
	require.True(t, types.ErrOrderAlreadyExists.Is(err))

	// A second later the identity is fresh.
	clock.Advance(time.Second)
	_, err = k.CreateOrder(bob, pool.Address, types.DirectionBtoA, math.NewInt(200), math.ZeroInt(), clock.Now().Add(time.Minute).Unix())
	require.NoError(t, err)
}

func TestCancelOrder(t *testing.T) {
	k, ledger, clock := newTestKeeper(t)
	pool := setupFundedPool(t, k)

	amountIn := math.NewInt(5000)
	bobBefore := ledger.Balance(bob, tokenA)

	order, err := k.CreateOrder(bob, pool.Address, types.DirectionAtoB, amountIn, math.ZeroInt(), clock.Now().Add(time.Minute).Unix())
	require.NoError(t, err)
	require.Equal(t, bobBefore.Sub(amountIn), ledger.Balance(bob, tokenA))

	require.NoError(t, k.CancelOrder(bob, order.Address))

	// Escrow fully drained, amount back with the owner.
	stored, err := k.GetOrder(order.Address)
	require.NoError(t, err)
	require.Equal(t, types.OrderStatusCancelled, stored.Status)
	require.True(t, ledger.Balance(order.Escrow, tokenA).IsZero())
	require.Equal(t, bobBefore, ledger.Balance(bob, tokenA))
}

func TestCancelOrder_NotOwner(t *testing.T) {
	k, _, clock := newTestKeeper(t)
	pool := setupFundedPool(t, k)

	order, err := k.CreateOrder(bob, pool.Address, types.DirectionAtoB, math.NewInt(100), math.ZeroInt(), clock.Now().Add(time.Minute).Unix())
	require.NoError(t, err)

	err = k.CancelOrder(alice, order.Address)
	require.True(t, types.ErrUnauthorized.Is(err))
}

func TestCancelOrder_Terminal(t *testing.T) {
	k, _, clock := newTestKeeper(t)
	pool := setupFundedPool(t, k)

	order, err := k.CreateOrder(bob, pool.Address, types.DirectionAtoB, math.NewInt(100), math.ZeroInt(), clock.Now().Add(time.Minute).Unix())
	require.NoError(t, err)
	require.NoError(t, k.CancelOrder(bob, order.Address))

	err = k.CancelOrder(bob, order.Address)
	require.True(t, types.ErrInvalidOrderStatus.Is(err))
}

func TestExecuteOrder_SettlesAtomically(t *testing.T) {
	k, ledger, clock := newTestKeeper(t)
	pool := setupFundedPool(t, k)

	amountIn := math.NewInt(10_000)
	order, err := k.CreateOrder(bob, pool.Address, types.DirectionAtoB, amountIn, math.NewInt(9000), clock.Now().Add(time.Minute).Unix())
	require.NoError(t, err)

	amountOut := math.NewInt(9900)
	bobBBefore := ledger.Balance(bob, tokenB)
	treasuryBefore := ledger.Balance(treasury, tokenB)
	reserveABefore, reserveBBefore := k.Reserves(pool)

	net, err := k.ExecuteOrder(admin, order.Address, amountOut)
	require.NoError(t, err)

	// fee = floor(9900 * 25 / 10000) = 24
	fee := math.NewInt(24)
	require.Equal(t, amountOut.Sub(fee), net)

	stored, err := k.GetOrder(order.Address)
	require.NoError(t, err)
	require.Equal(t, types.OrderStatusExecuted, stored.Status)
	require.Equal(t, amountOut, stored.ExecutionAmount)
	require.Equal(t, fee, stored.ExecutionFee)
	require.Equal(t, clock.Now(), stored.ExecutedAt)

	// Escrow drained into the input reserve; owner and treasury paid from
	// the output reserve.
	require.True(t, ledger.Balance(order.Escrow, tokenA).IsZero())
	reserveA, reserveB := k.Reserves(pool)
	require.Equal(t, reserveABefore.Add(amountIn), reserveA)
	require.Equal(t, reserveBBefore.Sub(amountOut), reserveB)
	require.Equal(t, bobBBefore.Add(net), ledger.Balance(bob, tokenB))
	require.Equal(t, treasuryBefore.Add(fee), ledger.Balance(treasury, tokenB))
}

func TestExecuteOrder_Twice(t *testing.T) {
	k, _, clock := newTestKeeper(t)
	pool := setupFundedPool(t, k)

	order, err := k.CreateOrder(bob, pool.Address, types.DirectionAtoB, math.NewInt(1000), math.ZeroInt(), clock.Now().Add(time.Minute).Unix())
	require.NoError(t, err)

	_, err = k.ExecuteOrder(admin, order.Address, math.NewInt(990))
	require.NoError(t, err)

	_, err = k.ExecuteOrder(admin, order.Address, math.NewInt(990))
	require.Error(t, err)
	require.True(t, types.ErrInvalidOrderStatus.Is(err))
}

func TestExecuteOrder_Expired(t *testing.T) {
	k, _, clock := newTestKeeper(t)
	pool := setupFundedPool(t, k)

	order, err := k.CreateOrder(bob, pool.Address, types.DirectionAtoB, math.NewInt(1000), math.ZeroInt(), clock.Now().Add(time.Minute).Unix())
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)

	_, err = k.ExecuteOrder(admin, order.Address, math.NewInt(990))
	require.True(t, types.ErrOrderExpired.Is(err))
}

func TestExecuteOrder_SlippageExceeded(t *testing.T) {
	k, ledger, clock := newTestKeeper(t)
	pool := setupFundedPool(t, k)

	order, err := k.CreateOrder(bob, pool.Address, types.DirectionAtoB, math.NewInt(1000), math.NewInt(995), clock.Now().Add(time.Minute).Unix())
	require.NoError(t, err)

	_, err = k.ExecuteOrder(admin, order.Address, math.NewInt(994))
	require.True(t, types.ErrSlippageExceeded.Is(err))

	// Order stays Open with its escrow intact.
	stored, err := k.GetOrder(order.Address)
	require.NoError(t, err)
	require.Equal(t, types.OrderStatusOpen, stored.Status)
	require.Equal(t, math.NewInt(1000), ledger.Balance(order.Escrow, tokenA))
}

func TestExecuteOrder_Paused(t *testing.T) {
	k, _, clock := newTestKeeper(t)
	pool := setupFundedPool(t, k)

	order, err := k.CreateOrder(bob, pool.Address, types.DirectionAtoB, math.NewInt(1000), math.ZeroInt(), clock.Now().Add(time.Minute).Unix())
	require.NoError(t, err)

	require.NoError(t, k.SetSettlementActive(admin, false))

	_, err = k.ExecuteOrder(admin, order.Address, math.NewInt(990))
	require.True(t, types.ErrSettlementPaused.Is(err))
}

func TestOrderStatus_Monotonic(t *testing.T) {
	k, _, clock := newTestKeeper(t)
	pool := setupFundedPool(t, k)

	order, err := k.CreateOrder(bob, pool.Address, types.DirectionAtoB, math.NewInt(1000), math.ZeroInt(), clock.Now().Add(time.Minute).Unix())
	require.NoError(t, err)

	require.NoError(t, k.CancelOrder(bob, order.Address))

	// No operation moves a terminal order anywhere.
	_, err = k.ExecuteOrder(admin, order.Address, math.NewInt(990))
	require.True(t, types.ErrInvalidOrderStatus.Is(err))
	require.True(t, types.ErrInvalidOrderStatus.Is(k.CancelOrder(bob, order.Address)))

	clock.Advance(2 * time.Minute)
	outcomes := k.ClaimExpiredOrders([]types.Address{order.Address})
	require.False(t, outcomes[0].Applied)

	stored, err := k.GetOrder(order.Address)
	require.NoError(t, err)
	require.Equal(t, types.OrderStatusCancelled, stored.Status)
}

func TestClaimExpiredOrders(t *testing.T) {
	k, ledger, clock := newTestKeeper(t)
	pool := setupFundedPool(t, k)

	// One order that will expire, one that stays fresh.
	expiring, err := k.CreateOrder(bob, pool.Address, types.DirectionAtoB, math.NewInt(1000), math.ZeroInt(), clock.Now().Add(30*time.Second).Unix())
	require.NoError(t, err)
	clock.Advance(time.Second)
	fresh, err := k.CreateOrder(alice, pool.Address, types.DirectionAtoB, math.NewInt(2000), math.ZeroInt(), clock.Now().Add(30*time.Minute).Unix())
	require.NoError(t, err)

	bobBefore := ledger.Balance(bob, tokenA)
	clock.Advance(time.Minute)

	missing := types.OrderAddress(bob, pool.Address, 12345)
	outcomes := k.ClaimExpiredOrders([]types.Address{expiring.Address, fresh.Address, missing})
	require.Len(t, outcomes, 3)

	// Expired order refunded in full.
	require.True(t, outcomes[0].Applied)
	require.Equal(t, math.NewInt(1000), outcomes[0].Amount)
	require.Equal(t, bobBefore.Add(math.NewInt(1000)), ledger.Balance(bob, tokenA))
	stored, err := k.GetOrder(expiring.Address)
	require.NoError(t, err)
	require.Equal(t, types.OrderStatusExpired, stored.Status)

	// Fresh order skipped with no effect.
	require.False(t, outcomes[1].Applied)
	require.NoError(t, outcomes[1].Err)
	stored, err = k.GetOrder(fresh.Address)
	require.NoError(t, err)
	require.Equal(t, types.OrderStatusOpen, stored.Status)
	require.Equal(t, math.NewInt(2000), ledger.Balance(fresh.Escrow, tokenA))

	// Unknown order reports its failure without disturbing siblings.
	require.False(t, outcomes[2].Applied)
	require.Error(t, outcomes[2].Err)
	require.True(t, types.ErrOrderNotFound.Is(outcomes[2].Err))
}

func TestBatchExecuteOrders_Mismatch(t *testing.T) {
	k, _, clock := newTestKeeper(t)
	pool := setupFundedPool(t, k)

	order, err := k.CreateOrder(bob, pool.Address, types.DirectionAtoB, math.NewInt(1000), math.ZeroInt(), clock.Now().Add(time.Minute).Unix())
	require.NoError(t, err)

	// Length mismatch fails before any work: the order stays Open.
	_, err = k.BatchExecuteOrders(admin, []types.Address{order.Address}, nil)
	require.True(t, types.ErrBatchMismatch.Is(err))

	stored, err := k.GetOrder(order.Address)
	require.NoError(t, err)
	require.Equal(t, types.OrderStatusOpen, stored.Status)
}

func TestBatchExecuteOrders_SiblingIsolation(t *testing.T) {
	k, ledger, clock := newTestKeeper(t)
	pool := setupFundedPool(t, k)

	good, err := k.CreateOrder(bob, pool.Address, types.DirectionAtoB, math.NewInt(1000), math.ZeroInt(), clock.Now().Add(time.Minute).Unix())
	require.NoError(t, err)
	clock.Advance(time.Second)
	strict, err := k.CreateOrder(alice, pool.Address, types.DirectionAtoB, math.NewInt(1000), math.NewInt(999_999), clock.Now().Add(time.Minute).Unix())
	require.NoError(t, err)

	outcomes, err := k.BatchExecuteOrders(admin,
		[]types.Address{good.Address, strict.Address},
		[]math.Int{math.NewInt(990), math.NewInt(990)},
	)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	// First order settled in full.
	require.True(t, outcomes[0].Applied)
	stored, err := k.GetOrder(good.Address)
	require.NoError(t, err)
	require.Equal(t, types.OrderStatusExecuted, stored.Status)

	// Second failed its slippage check without rolling back the first.
	require.False(t, outcomes[1].Applied)
	require.True(t, types.ErrSlippageExceeded.Is(outcomes[1].Err))
	stored, err = k.GetOrder(strict.Address)
	require.NoError(t, err)
	require.Equal(t, types.OrderStatusOpen, stored.Status)
	require.Equal(t, math.NewInt(1000), ledger.Balance(strict.Escrow, tokenA))
}

func TestGetOrdersByOwner(t *testing.T) {
	k, _, clock := newTestKeeper(t)
	pool := setupFundedPool(t, k)

	for i := 0; i < 3; i++ {
		_, err := k.CreateOrder(bob, pool.Address, types.DirectionAtoB, math.NewInt(100), math.ZeroInt(), clock.Now().Add(time.Minute).Unix())
		require.NoError(t, err)
		clock.Advance(time.Second)
	}
	_, err := k.CreateOrder(alice, pool.Address, types.DirectionAtoB, math.NewInt(100), math.ZeroInt(), clock.Now().Add(time.Minute).Unix())
	require.NoError(t, err)

	require.Len(t, k.GetOrdersByOwner(bob), 3)
	require.Len(t, k.GetOrdersByOwner(alice), 1)
	require.Len(t, k.GetOpenOrders(), 4)
}
