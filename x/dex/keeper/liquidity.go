package keeper

import (
	"cosmossdk.io/math"

	"github.com/opendotfund/OpenFund/x/dex/types"
)

// AddLiquidity deposits amountA/amountB into the pool and mints LP shares to
// the provider.
//
// On the first deposit shares follow the geometric-mean rule,
// floor(sqrt(amountA * amountB)), so the first depositor's share is
// independent of the provided ratio. Afterwards the provider receives
// min(floor(amountA * supply / reserveA), floor(amountB * supply / reserveB)),
// which penalizes deposits at a ratio off the current price and protects
// existing holders from dilution.
func (k *Keeper) AddLiquidity(provider, poolAddr types.Address, amountA, amountB, minLPOut math.Int) (math.Int, error) {
	if amountA.IsNil() || !amountA.IsPositive() {
		return math.Int{}, types.ErrInvalidAmount.Wrap("amount A must be positive")
	}
	if amountB.IsNil() || !amountB.IsPositive() {
		return math.Int{}, types.ErrInvalidAmount.Wrap("amount B must be positive")
	}
	if minLPOut.IsNil() {
		minLPOut = math.ZeroInt()
	}

	release := k.locks.Acquire(poolAddr, provider)
	defer release()

	pool, err := k.GetPool(poolAddr)
	if err != nil {
		return math.Int{}, err
	}

	reserveA, reserveB := k.Reserves(pool)
	supply := k.LPSupply(pool)

	var lpMinted math.Int
	if supply.IsZero() {
		product, err := SafeMul(amountA, amountB)
		if err != nil {
			return math.Int{}, err
		}
		lpMinted, err = IntegerSqrt(product)
		if err != nil {
			return math.Int{}, err
		}
	} else {
		if reserveA.IsZero() || reserveB.IsZero() {
			return math.Int{}, types.ErrInvariantViolation.Wrapf(
				"pool %s has lp supply %s but empty reserves", poolAddr, supply)
		}
		sharesA, err := SafeMulDiv(amountA, supply, reserveA)
		if err != nil {
			return math.Int{}, err
		}
		sharesB, err := SafeMulDiv(amountB, supply, reserveB)
		if err != nil {
			return math.Int{}, err
		}
		lpMinted = math.MinInt(sharesA, sharesB)
	}

	if !lpMinted.IsPositive() {
		return math.Int{}, types.ErrInsufficientLiquidity.Wrap("deposit too small to mint shares")
	}
	if lpMinted.LT(minLPOut) {
		return math.Int{}, types.ErrSlippageExceeded.Wrapf("lp minted %s below minimum %s", lpMinted, minLPOut)
	}

	tx := k.begin()
	if err := tx.ledger.Transfer(provider, pool.ReserveA, pool.TokenA, amountA, provider); err != nil {
		return math.Int{}, types.ErrInsufficientLiquidity.Wrapf("deposit %s: %v", pool.TokenA, err)
	}
	if err := tx.ledger.Transfer(provider, pool.ReserveB, pool.TokenB, amountB, provider); err != nil {
		return math.Int{}, types.ErrInsufficientLiquidity.Wrapf("deposit %s: %v", pool.TokenB, err)
	}
	if err := tx.ledger.Mint(provider, pool.LPDenom, lpMinted, pool.Authority); err != nil {
		return math.Int{}, types.ErrInvalidState.Wrapf("mint lp shares: %v", err)
	}
	tx.commit()

	k.metrics.LiquidityOps.WithLabelValues("add").Inc()
	k.logger.Info(types.EventLiquidityAdded,
		types.AttributeKeyPool, poolAddr.String(),
		types.AttributeKeyOwner, provider.String(),
		"amount_a", amountA.String(),
		"amount_b", amountB.String(),
		types.AttributeKeyLPMinted, lpMinted.String(),
	)

	return lpMinted, nil
}

// RemoveLiquidity burns lpAmount of the provider's shares and pays out the
// proportional slice of both reserves, floor(lpAmount * reserve / supply)
// per side. The burn happens before the reserves are debited.
func (k *Keeper) RemoveLiquidity(provider, poolAddr types.Address, lpAmount, minAmountA, minAmountB math.Int) (math.Int, math.Int, error) {
	if lpAmount.IsNil() || !lpAmount.IsPositive() {
		return math.Int{}, math.Int{}, types.ErrInvalidAmount.Wrap("lp amount must be positive")
	}
	if minAmountA.IsNil() {
		minAmountA = math.ZeroInt()
	}
	if minAmountB.IsNil() {
		minAmountB = math.ZeroInt()
	}

	release := k.locks.Acquire(poolAddr, provider)
	defer release()

	pool, err := k.GetPool(poolAddr)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}

	supply := k.LPSupply(pool)
	if supply.IsZero() {
		return math.Int{}, math.Int{}, types.ErrInsufficientShares.Wrapf("pool %s has no lp supply", poolAddr)
	}
	held := k.ledger.Balance(provider, pool.LPDenom)
	if held.LT(lpAmount) {
		return math.Int{}, math.Int{}, types.ErrInsufficientShares.Wrapf("holding %s, need %s", held, lpAmount)
	}

	reserveA, reserveB := k.Reserves(pool)
	amountA, err := SafeMulDiv(lpAmount, reserveA, supply)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}
	amountB, err := SafeMulDiv(lpAmount, reserveB, supply)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}

	if amountA.LT(minAmountA) {
		return math.Int{}, math.Int{}, types.ErrSlippageExceeded.Wrapf("amount A %s below minimum %s", amountA, minAmountA)
	}
	if amountB.LT(minAmountB) {
		return math.Int{}, math.Int{}, types.ErrSlippageExceeded.Wrapf("amount B %s below minimum %s", amountB, minAmountB)
	}

	// Burn before debiting reserves.
	tx := k.begin()
	if err := tx.ledger.Burn(provider, pool.LPDenom, lpAmount, provider); err != nil {
		return math.Int{}, math.Int{}, types.ErrInsufficientShares.Wrapf("burn lp shares: %v", err)
	}
	if amountA.IsPositive() {
		if err := tx.ledger.Transfer(pool.ReserveA, provider, pool.TokenA, amountA, pool.Authority); err != nil {
			return math.Int{}, math.Int{}, types.ErrInsufficientLiquidity.Wrapf("withdraw %s: %v", pool.TokenA, err)
		}
	}
	if amountB.IsPositive() {
		if err := tx.ledger.Transfer(pool.ReserveB, provider, pool.TokenB, amountB, pool.Authority); err != nil {
			return math.Int{}, math.Int{}, types.ErrInsufficientLiquidity.Wrapf("withdraw %s: %v", pool.TokenB, err)
		}
	}
	tx.commit()

	k.metrics.LiquidityOps.WithLabelValues("remove").Inc()
	k.logger.Info(types.EventLiquidityRemoved,
		types.AttributeKeyPool, poolAddr.String(),
		types.AttributeKeyOwner, provider.String(),
		types.AttributeKeyLPBurned, lpAmount.String(),
		"amount_a", amountA.String(),
		"amount_b", amountB.String(),
	)

	return amountA, amountB, nil
}
