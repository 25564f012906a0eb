package keeper

import (
	"time"

	"cosmossdk.io/math"

	"github.com/opendotfund/OpenFund/x/dex/types"
)

// Swap trades amountIn of tokenIn against the pool using the integer
// constant-product formula:
//
//	fee        = floor(amountIn * feeNumerator / feeDenominator)
//	afterFee   = amountIn - fee
//	newRin     = reserveIn + afterFee
//	newRout    = floor(reserveIn * reserveOut / newRin)
//	amountOut  = reserveOut - newRout
//
// The fee stays out of the price formula but the full amountIn lands in the
// input-side reserve, so the fee accrues to LPs as residual reserve growth.
// The in and out transfers commit as one atomic unit.
func (k *Keeper) Swap(trader, poolAddr types.Address, tokenIn string, amountIn, minAmountOut math.Int) (math.Int, error) {
	start := time.Now()
	defer func() {
		k.metrics.SwapLatency.Observe(time.Since(start).Seconds())
	}()

	if amountIn.IsNil() || !amountIn.IsPositive() {
		return math.Int{}, types.ErrInvalidAmount.Wrap("swap amount must be positive")
	}
	if minAmountOut.IsNil() {
		minAmountOut = math.ZeroInt()
	}

	release := k.locks.Acquire(poolAddr, trader)
	defer release()

	pool, err := k.GetPool(poolAddr)
	if err != nil {
		return math.Int{}, err
	}
	if !pool.HasToken(tokenIn) {
		return math.Int{}, types.ErrInvalidTokenPair.Wrapf("token %s not in pool %s/%s", tokenIn, pool.TokenA, pool.TokenB)
	}
	tokenOut := pool.OtherToken(tokenIn)

	reserveIn := k.ledger.Balance(pool.ReserveFor(tokenIn), tokenIn)
	reserveOut := k.ledger.Balance(pool.ReserveFor(tokenOut), tokenOut)

	amountOut, fee, err := CalculateSwapOutput(amountIn, reserveIn, reserveOut, pool.FeeNumerator, pool.FeeDenominator)
	if err != nil {
		k.metrics.SwapsTotal.WithLabelValues(tokenIn, tokenOut, "failed").Inc()
		return math.Int{}, err
	}
	if amountOut.LT(minAmountOut) {
		k.metrics.SwapsTotal.WithLabelValues(tokenIn, tokenOut, "failed").Inc()
		return math.Int{}, types.ErrSlippageExceeded.Wrapf("expected at least %s, got %s", minAmountOut, amountOut)
	}

	tx := k.begin()
	if err := tx.ledger.Transfer(trader, pool.ReserveFor(tokenIn), tokenIn, amountIn, trader); err != nil {
		k.metrics.SwapsTotal.WithLabelValues(tokenIn, tokenOut, "failed").Inc()
		return math.Int{}, types.ErrInsufficientLiquidity.Wrapf("transfer input tokens: %v", err)
	}
	if err := tx.ledger.Transfer(pool.ReserveFor(tokenOut), trader, tokenOut, amountOut, pool.Authority); err != nil {
		k.metrics.SwapsTotal.WithLabelValues(tokenIn, tokenOut, "failed").Inc()
		return math.Int{}, types.ErrInsufficientLiquidity.Wrapf("transfer output tokens: %v", err)
	}
	if !tx.ledger.Balance(pool.ReserveFor(tokenOut), tokenOut).IsPositive() {
		return math.Int{}, types.ErrInvariantViolation.Wrap("swap drained the output reserve")
	}
	tx.commit()

	k.metrics.SwapsTotal.WithLabelValues(tokenIn, tokenOut, "success").Inc()
	k.logger.Info(types.EventSwapExecuted,
		types.AttributeKeyPool, poolAddr.String(),
		"trader", trader.String(),
		types.AttributeKeyTokenIn, tokenIn,
		types.AttributeKeyTokenOut, tokenOut,
		types.AttributeKeyAmountIn, amountIn.String(),
		types.AttributeKeyAmountOut, amountOut.String(),
		types.AttributeKeyFee, fee.String(),
	)

	return amountOut, nil
}

// CalculateSwapOutput computes the constant-product output and fee for a swap
// without touching any state. All arithmetic is exact integer math with a
// full-width intermediate on the multiply-before-divide step.
//
// Flooring newReserveOut rounds the output up, so a zero-fee swap can shed up
// to the division remainder from the product. The loss is always below one
// unit of the post-swap input reserve; any fee large enough to cover the
// remainder turns it into growth.
func CalculateSwapOutput(amountIn, reserveIn, reserveOut, feeNumerator, feeDenominator math.Int) (amountOut, fee math.Int, err error) {
	if amountIn.IsNil() || !amountIn.IsPositive() {
		return math.Int{}, math.Int{}, types.ErrInvalidAmount.Wrap("input amount must be positive")
	}
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return math.Int{}, math.Int{}, types.ErrInsufficientLiquidity.Wrap("pool reserves must be positive")
	}

	fee, err = SafeMulDiv(amountIn, feeNumerator, feeDenominator)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}
	amountInAfterFee, err := SafeSub(amountIn, fee)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}
	if !amountInAfterFee.IsPositive() {
		return math.Int{}, math.Int{}, types.ErrInvalidAmount.Wrap("swap amount too small after fee")
	}

	newReserveIn, err := SafeAdd(reserveIn, amountInAfterFee)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}
	newReserveOut, err := SafeMulDiv(reserveIn, reserveOut, newReserveIn)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}
	if newReserveOut.IsZero() {
		return math.Int{}, math.Int{}, types.ErrInsufficientLiquidity.Wrap("swap would drain the output reserve")
	}
	amountOut, err = SafeSub(reserveOut, newReserveOut)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}
	if amountOut.IsZero() {
		return math.Int{}, math.Int{}, types.ErrInsufficientLiquidity.Wrap("output amount too small")
	}

	return amountOut, fee, nil
}

// SimulateSwap quotes a swap against current reserves without executing it.
func (k *Keeper) SimulateSwap(poolAddr types.Address, tokenIn string, amountIn math.Int) (math.Int, error) {
	pool, err := k.GetPool(poolAddr)
	if err != nil {
		return math.Int{}, err
	}
	if !pool.HasToken(tokenIn) {
		return math.Int{}, types.ErrInvalidTokenPair.Wrapf("token %s not in pool %s/%s", tokenIn, pool.TokenA, pool.TokenB)
	}
	tokenOut := pool.OtherToken(tokenIn)

	reserveIn := k.ledger.Balance(pool.ReserveFor(tokenIn), tokenIn)
	reserveOut := k.ledger.Balance(pool.ReserveFor(tokenOut), tokenOut)

	amountOut, _, err := CalculateSwapOutput(amountIn, reserveIn, reserveOut, pool.FeeNumerator, pool.FeeDenominator)
	return amountOut, err
}

// SpotPrice returns the instantaneous price of the output token in terms of
// tokenIn, reserveOut / reserveIn.
func (k *Keeper) SpotPrice(poolAddr types.Address, tokenIn string) (math.LegacyDec, error) {
	pool, err := k.GetPool(poolAddr)
	if err != nil {
		return math.LegacyZeroDec(), err
	}
	if !pool.HasToken(tokenIn) {
		return math.LegacyZeroDec(), types.ErrInvalidTokenPair.Wrapf("token %s not in pool %s/%s", tokenIn, pool.TokenA, pool.TokenB)
	}
	tokenOut := pool.OtherToken(tokenIn)

	reserveIn := k.ledger.Balance(pool.ReserveFor(tokenIn), tokenIn)
	reserveOut := k.ledger.Balance(pool.ReserveFor(tokenOut), tokenOut)
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return math.LegacyZeroDec(), types.ErrInsufficientLiquidity.Wrap("pool reserves must be positive")
	}

	return math.LegacyNewDecFromInt(reserveOut).Quo(math.LegacyNewDecFromInt(reserveIn)), nil
}
