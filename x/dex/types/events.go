package types

// Event names used as structured log messages by the keeper.
const (
	EventPoolCreated      = "pool_created"
	EventLiquidityAdded   = "liquidity_added"
	EventLiquidityRemoved = "liquidity_removed"
	EventSwapExecuted     = "swap_executed"
	EventOrderCreated     = "order_created"
	EventOrderCancelled   = "order_cancelled"
	EventOrderExecuted    = "order_executed"
	EventOrderExpired     = "order_expired"
	EventConfigUpdated    = "config_updated"
	EventFeesCollected    = "fees_collected"
)

// Structured log attribute keys.
const (
	AttributeKeyPool      = "pool"
	AttributeKeyOrder     = "order"
	AttributeKeyOwner     = "owner"
	AttributeKeyTokenIn   = "token_in"
	AttributeKeyTokenOut  = "token_out"
	AttributeKeyAmountIn  = "amount_in"
	AttributeKeyAmountOut = "amount_out"
	AttributeKeyFee       = "fee"
	AttributeKeyLPMinted  = "lp_minted"
	AttributeKeyLPBurned  = "lp_burned"
	AttributeKeyStatus    = "status"
)
