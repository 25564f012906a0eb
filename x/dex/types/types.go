package types

import (
	"fmt"
	"time"

	"cosmossdk.io/math"
)

// Pool holds a trading pair's identities and fee parameters. Reserves and LP
// supply are not stored here: they live in the token ledger, in the reserve
// accounts and LP denom owned by the pool's derived authority. The record is
// created once per distinct token pair and never destroyed.
type Pool struct {
	// Address is the derived pool identity
	Address Address `json:"address"`
	// TokenA is the lexicographically smaller token denom
	TokenA string `json:"token_a"`
	// TokenB is the lexicographically larger token denom
	TokenB string `json:"token_b"`
	// ReserveA is the reserve account for TokenA
	ReserveA Address `json:"reserve_a"`
	// ReserveB is the reserve account for TokenB
	ReserveB Address `json:"reserve_b"`
	// LPDenom is the LP share denomination minted by the pool authority
	LPDenom string `json:"lp_denom"`
	// Authority is the derived sub-authority owning the reserves and LP mint
	Authority Address `json:"authority"`
	// Creator is the address that initialized the pool
	Creator Address `json:"creator"`
	// FeeNumerator and FeeDenominator define the trading fee as a ratio
	FeeNumerator   math.Int `json:"fee_numerator"`
	FeeDenominator math.Int `json:"fee_denominator"`
	// CreatedAt is when the pool was initialized
	CreatedAt time.Time `json:"created_at"`
}

// HasToken reports whether denom is one of the pool's pair.
func (p *Pool) HasToken(denom string) bool {
	return denom == p.TokenA || denom == p.TokenB
}

// OtherToken returns the pair counterpart of denom.
func (p *Pool) OtherToken(denom string) string {
	if denom == p.TokenA {
		return p.TokenB
	}
	return p.TokenA
}

// ReserveFor returns the reserve account holding denom.
func (p *Pool) ReserveFor(denom string) Address {
	if denom == p.TokenA {
		return p.ReserveA
	}
	return p.ReserveB
}

// OrderDirection indicates which side of the pair an order sells.
type OrderDirection uint8

const (
	// DirectionAtoB sells TokenA for TokenB
	DirectionAtoB OrderDirection = 1
	// DirectionBtoA sells TokenB for TokenA
	DirectionBtoA OrderDirection = 2
)

// Valid reports whether the direction is a known value.
func (d OrderDirection) Valid() bool {
	return d == DirectionAtoB || d == DirectionBtoA
}

// OrderStatus represents the lifecycle state of an order.
//
// Transitions are monotonic and one-way:
//
//	Open → Executed  (settled before expiry, met min_amount_out)
//	Open → Cancelled (owner cancellation)
//	Open → Expired   (claimed past expiry)
//
// There is no transition out of a terminal state.
type OrderStatus uint8

const (
	// OrderStatusOpen indicates the order is active and its escrow is funded.
	OrderStatusOpen OrderStatus = 1
	// OrderStatusExecuted indicates the order settled against the pool.
	OrderStatusExecuted OrderStatus = 2
	// OrderStatusCancelled indicates the owner cancelled the order.
	OrderStatusCancelled OrderStatus = 3
	// OrderStatusExpired indicates the order was claimed past its expiry.
	OrderStatusExpired OrderStatus = 4
)

// String returns a human-readable status name.
func (s OrderStatus) String() string {
	switch s {
	case OrderStatusOpen:
		return "open"
	case OrderStatusExecuted:
		return "executed"
	case OrderStatusCancelled:
		return "cancelled"
	case OrderStatusExpired:
		return "expired"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// Order is a resting settlement order. While status is Open its escrow
// account holds exactly AmountIn of the input token; the escrow is fully
// drained the moment the order leaves Open.
type Order struct {
	// Address is the derived order identity, unique per (owner, pool, created_at)
	Address Address `json:"address"`
	// Owner is the address that placed the order
	Owner Address `json:"owner"`
	// Pool is the pool this order settles against
	Pool Address `json:"pool"`
	// TokenA and TokenB mirror the pool's pair
	TokenA string `json:"token_a"`
	TokenB string `json:"token_b"`
	// Direction indicates which side is sold
	Direction OrderDirection `json:"direction"`
	// AmountIn is the escrowed input amount
	AmountIn math.Int `json:"amount_in"`
	// MinAmountOut is the minimum acceptable gross output
	MinAmountOut math.Int `json:"min_amount_out"`
	// Status is the current lifecycle state
	Status OrderStatus `json:"status"`
	// Authority is the derived sub-authority owning the escrow account
	Authority Address `json:"authority"`
	// Escrow is the account holding AmountIn while Open
	Escrow Address `json:"escrow"`
	// CreatedAt is when the order was placed
	CreatedAt time.Time `json:"created_at"`
	// ExpiresAt is when the order stops being executable
	ExpiresAt time.Time `json:"expires_at"`
	// ExecutionAmount is the gross output recorded at execution
	ExecutionAmount math.Int `json:"execution_amount"`
	// ExecutionFee is the settlement fee recorded at execution
	ExecutionFee math.Int `json:"execution_fee"`
	// ExecutedAt is when the order was executed
	ExecutedAt time.Time `json:"executed_at"`
}

// TokenIn returns the denom the order sells.
func (o *Order) TokenIn() string {
	if o.Direction == DirectionAtoB {
		return o.TokenA
	}
	return o.TokenB
}

// TokenOut returns the denom the order buys.
func (o *Order) TokenOut() string {
	if o.Direction == DirectionAtoB {
		return o.TokenB
	}
	return o.TokenA
}

// IsExpired reports whether now is strictly past the order's expiry.
func (o *Order) IsExpired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// CalculatedFees is the decomposition of a fee charge on a notional amount.
type CalculatedFees struct {
	// TotalFee is the full fee charged
	TotalFee math.Int `json:"total_fee"`
	// ProtocolFee is the treasury share of TotalFee
	ProtocolFee math.Int `json:"protocol_fee"`
	// LpFee is the liquidity-provider share of TotalFee
	LpFee math.Int `json:"lp_fee"`
	// AmountAfterFees is the notional minus TotalFee
	AmountAfterFees math.Int `json:"amount_after_fees"`
}

// OrderOutcome reports the per-order result of a batch operation. Batch
// operations are independently atomic per order, so one entry failing does
// not disturb its siblings.
type OrderOutcome struct {
	// Order is the order this outcome belongs to
	Order Address `json:"order"`
	// Applied reports whether the operation took effect on this order
	Applied bool `json:"applied"`
	// Amount is the amount moved for this order, zero if not applied
	Amount math.Int `json:"amount"`
	// Err is the per-order failure, nil if applied or skipped without error
	Err error `json:"-"`
}
