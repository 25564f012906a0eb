package keeper

import (
	"math/big"

	"cosmossdk.io/math"

	"github.com/opendotfund/OpenFund/x/dex/types"
)

// Overflow-safe arithmetic for reserve and fee math. Every failure is fatal
// for the operation that hit it; nothing saturates or wraps.

// maxInt bounds results at 2^256.
var maxInt = new(big.Int).Exp(big.NewInt(2), big.NewInt(256), nil)

// SafeAdd adds two math.Int values with overflow checking
func SafeAdd(a, b math.Int) (math.Int, error) {
	result := new(big.Int).Add(a.BigInt(), b.BigInt())
	if result.Cmp(maxInt) >= 0 {
		return math.Int{}, types.ErrOverflow.Wrap("addition result exceeds maximum value")
	}
	return math.NewIntFromBigInt(result), nil
}

// SafeSub subtracts two math.Int values with underflow checking
func SafeSub(a, b math.Int) (math.Int, error) {
	if a.LT(b) {
		return math.Int{}, types.ErrOverflow.Wrapf("underflow: cannot subtract %s from %s", b, a)
	}
	result := new(big.Int).Sub(a.BigInt(), b.BigInt())
	return math.NewIntFromBigInt(result), nil
}

// SafeMul multiplies two math.Int values with overflow checking
func SafeMul(a, b math.Int) (math.Int, error) {
	if a.IsZero() || b.IsZero() {
		return math.ZeroInt(), nil
	}
	result := new(big.Int).Mul(a.BigInt(), b.BigInt())
	if result.Cmp(maxInt) >= 0 {
		return math.Int{}, types.ErrOverflow.Wrap("multiplication result exceeds maximum value")
	}
	return math.NewIntFromBigInt(result), nil
}

// SafeQuo divides two math.Int values with division by zero checking
func SafeQuo(a, b math.Int) (math.Int, error) {
	if b.IsZero() {
		return math.Int{}, types.ErrOverflow.Wrap("division by zero")
	}
	result := new(big.Int).Quo(a.BigInt(), b.BigInt())
	return math.NewIntFromBigInt(result), nil
}

// SafeMulDiv performs floor((a * b) / c) with a full-width intermediate, so
// the multiply never wraps even when a*b exceeds the result range.
func SafeMulDiv(a, b, c math.Int) (math.Int, error) {
	if c.IsZero() {
		return math.Int{}, types.ErrOverflow.Wrap("division by zero")
	}
	intermediate := new(big.Int).Mul(a.BigInt(), b.BigInt())
	if intermediate.Cmp(maxInt) >= 0 {
		return math.Int{}, types.ErrOverflow.Wrap("overflow in multiplication step")
	}
	result := new(big.Int).Quo(intermediate, c.BigInt())
	return math.NewIntFromBigInt(result), nil
}

// IntegerSqrt returns floor(sqrt(n)) computed exactly on integers. Used for
// the geometric-mean rule on a pool's first deposit.
func IntegerSqrt(n math.Int) (math.Int, error) {
	if n.IsNegative() {
		return math.Int{}, types.ErrOverflow.Wrap("square root of negative value")
	}
	result := new(big.Int).Sqrt(n.BigInt())
	return math.NewIntFromBigInt(result), nil
}
