package keeper

import (
	"encoding/json"

	"github.com/opendotfund/OpenFund/x/dex/types"
)

// CheckInvariants verifies the accounting laws the engines must maintain.
// Intended for tests and operational audits; a failure means a bug, not a
// recoverable condition.
//
//   - A pool with outstanding LP supply holds positive reserves on both sides.
//   - An Open order's escrow holds exactly its amount_in.
//   - A closed order's escrow is fully drained.
func (k *Keeper) CheckInvariants() error {
	var violation error

	k.store.Iterate(types.PoolKey, func(_, value []byte) bool {
		var pool types.Pool
		if err := json.Unmarshal(value, &pool); err != nil {
			violation = types.ErrInvalidState.Wrapf("unmarshal pool record: %v", err)
			return true
		}
		reserveA, reserveB := k.Reserves(&pool)
		supply := k.LPSupply(&pool)
		if supply.IsPositive() && (!reserveA.IsPositive() || !reserveB.IsPositive()) {
			violation = types.ErrInvariantViolation.Wrapf(
				"pool %s: lp supply %s with reserves %s/%s", pool.Address, supply, reserveA, reserveB)
			return true
		}
		return false
	})
	if violation != nil {
		return violation
	}

	k.store.Iterate(types.OrderKey, func(_, value []byte) bool {
		var order types.Order
		if err := json.Unmarshal(value, &order); err != nil {
			violation = types.ErrInvalidState.Wrapf("unmarshal order record: %v", err)
			return true
		}
		escrowBal := k.ledger.Balance(order.Escrow, order.TokenIn())
		if order.Status == types.OrderStatusOpen {
			if !escrowBal.Equal(order.AmountIn) {
				violation = types.ErrInvariantViolation.Wrapf(
					"open order %s: escrow holds %s, expected %s", order.Address, escrowBal, order.AmountIn)
				return true
			}
		} else if !escrowBal.IsZero() {
			violation = types.ErrInvariantViolation.Wrapf(
				"%s order %s: escrow holds %s, expected 0", order.Status, order.Address, escrowBal)
			return true
		}
		return false
	})

	return violation
}
