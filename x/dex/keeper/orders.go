package keeper

import (
	"encoding/json"
	"time"

	"cosmossdk.io/math"

	"github.com/opendotfund/OpenFund/x/dex/types"
)

func timeFromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// CreateOrder escrows amountIn of the input token and opens a settlement
// order against the pool. The order's identity is derived from (owner, pool,
// creation time); the escrow account is owned by the order's derived
// authority, so only the engine can drain it.
func (k *Keeper) CreateOrder(owner, poolAddr types.Address, direction types.OrderDirection, amountIn, minAmountOut math.Int, expiresAt int64) (*types.Order, error) {
	cfg, err := k.GetSettlementConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Active {
		return nil, types.ErrSettlementPaused
	}
	if !direction.Valid() {
		return nil, types.ErrInvalidInput.Wrapf("unknown order direction %d", direction)
	}
	if amountIn.IsNil() || !amountIn.IsPositive() {
		return nil, types.ErrInvalidAmount.Wrap("amount in must be positive")
	}
	if minAmountOut.IsNil() || minAmountOut.IsNegative() {
		return nil, types.ErrInvalidAmount.Wrap("min amount out cannot be negative")
	}

	now := k.clock()
	if expiresAt <= now.Unix() {
		return nil, types.ErrInvalidExpiry.Wrapf("expiry %d not after now %d", expiresAt, now.Unix())
	}
	if expiresAt-now.Unix() > int64(cfg.SettlementWindowSeconds) {
		return nil, types.ErrExpiryTooLong.Wrapf("expiry %ds ahead exceeds window %ds",
			expiresAt-now.Unix(), cfg.SettlementWindowSeconds)
	}

	pool, err := k.GetPool(poolAddr)
	if err != nil {
		return nil, err
	}

	orderAddr := types.OrderAddress(owner, poolAddr, now.Unix())

	release := k.locks.Acquire(orderAddr, owner)
	defer release()

	if k.store.Has(types.GetOrderKey(orderAddr)) {
		return nil, types.ErrOrderAlreadyExists.Wrapf("order %s", orderAddr)
	}

	authority := types.OrderAuthority(orderAddr)
	order := &types.Order{
		Address:         orderAddr,
		Owner:           owner,
		Pool:            poolAddr,
		TokenA:          pool.TokenA,
		TokenB:          pool.TokenB,
		Direction:       direction,
		AmountIn:        amountIn,
		MinAmountOut:    minAmountOut,
		Status:          types.OrderStatusOpen,
		Authority:       authority,
		CreatedAt:       now,
		ExpiresAt:       timeFromUnix(expiresAt),
		ExecutionAmount: math.ZeroInt(),
		ExecutionFee:    math.ZeroInt(),
	}
	order.Escrow = types.OrderEscrowAddress(orderAddr, order.TokenIn())

	tx := k.begin()
	if err := tx.ledger.CreateAccount(order.Escrow, authority); err != nil {
		return nil, types.ErrOrderAlreadyExists.Wrapf("escrow account: %v", err)
	}
	if err := tx.ledger.Transfer(owner, order.Escrow, order.TokenIn(), amountIn, owner); err != nil {
		return nil, types.ErrInsufficientLiquidity.Wrapf("fund escrow: %v", err)
	}
	if err := setOrder(tx.store, order); err != nil {
		return nil, err
	}
	tx.commit()

	k.metrics.OrdersTotal.WithLabelValues("created").Inc()
	k.logger.Info(types.EventOrderCreated,
		types.AttributeKeyOrder, orderAddr.String(),
		types.AttributeKeyOwner, owner.String(),
		types.AttributeKeyPool, poolAddr.String(),
		types.AttributeKeyAmountIn, amountIn.String(),
		"expires_at", order.ExpiresAt,
	)

	return order, nil
}

// CancelOrder refunds the full escrowed amount to the owner and closes the
// order. Only the owner may cancel, and only while the order is Open. The
// refund is authorized by the order's derived authority, never by the owner
// directly, since the escrow is engine-owned.
func (k *Keeper) CancelOrder(caller, orderAddr types.Address) error {
	release := k.locks.Acquire(orderAddr, caller)
	defer release()

	order, err := k.GetOrder(orderAddr)
	if err != nil {
		return err
	}
	if order.Owner != caller {
		return types.ErrUnauthorized.Wrapf("%s is not the owner of order %s", caller, orderAddr)
	}
	if order.Status != types.OrderStatusOpen {
		return types.ErrInvalidOrderStatus.Wrapf("order %s is %s", orderAddr, order.Status)
	}

	tx := k.begin()
	if err := tx.ledger.Transfer(order.Escrow, order.Owner, order.TokenIn(), order.AmountIn, order.Authority); err != nil {
		return types.ErrInvalidState.Wrapf("refund escrow: %v", err)
	}
	order.Status = types.OrderStatusCancelled
	if err := setOrder(tx.store, order); err != nil {
		return err
	}
	tx.commit()

	k.metrics.OrdersTotal.WithLabelValues("cancelled").Inc()
	k.logger.Info(types.EventOrderCancelled,
		types.AttributeKeyOrder, orderAddr.String(),
		types.AttributeKeyOwner, caller.String(),
		"refunded", order.AmountIn.String(),
	)

	return nil
}

// ExecuteOrder settles an Open order against its pool at the executor's
// quoted amountOut. The engine does not recompute the AMM price here: it
// validates amountOut against the order's min_amount_out and settles, which
// decouples matching from settlement.
//
// Three transfers commit as one unit: escrow to the input reserve, output
// reserve to the owner net of fee, and the fee to the treasury when nonzero.
// Returns the net amount paid to the owner.
func (k *Keeper) ExecuteOrder(executor, orderAddr types.Address, amountOut math.Int) (math.Int, error) {
	cfg, err := k.GetSettlementConfig()
	if err != nil {
		return math.Int{}, err
	}
	if !cfg.Active {
		return math.Int{}, types.ErrSettlementPaused
	}
	if amountOut.IsNil() || !amountOut.IsPositive() {
		return math.Int{}, types.ErrInvalidAmount.Wrap("amount out must be positive")
	}

	// Peek at the record to learn the full entity set, then lock it all at
	// once and re-read.
	peek, err := k.GetOrder(orderAddr)
	if err != nil {
		return math.Int{}, err
	}

	release := k.locks.Acquire(orderAddr, peek.Pool, peek.Owner, cfg.FeeTreasury)
	defer release()

	order, err := k.GetOrder(orderAddr)
	if err != nil {
		return math.Int{}, err
	}
	if order.Status != types.OrderStatusOpen {
		return math.Int{}, types.ErrInvalidOrderStatus.Wrapf("order %s is %s", orderAddr, order.Status)
	}

	now := k.clock()
	if order.IsExpired(now) {
		return math.Int{}, types.ErrOrderExpired.Wrapf("order %s expired at %s", orderAddr, order.ExpiresAt)
	}
	if amountOut.LT(order.MinAmountOut) {
		return math.Int{}, types.ErrSlippageExceeded.Wrapf("amount out %s below minimum %s", amountOut, order.MinAmountOut)
	}

	pool, err := k.GetPool(order.Pool)
	if err != nil {
		return math.Int{}, err
	}

	fee, err := SafeMulDiv(amountOut, math.NewIntFromUint64(cfg.SettlementFeeBps), math.NewInt(types.BpsDenominator))
	if err != nil {
		return math.Int{}, err
	}
	amountOutAfterFee, err := SafeSub(amountOut, fee)
	if err != nil {
		return math.Int{}, err
	}
	if !amountOutAfterFee.IsPositive() {
		return math.Int{}, types.ErrInvalidAmount.Wrap("amount out too small after fee")
	}

	tokenIn := order.TokenIn()
	tokenOut := order.TokenOut()

	tx := k.begin()
	if err := tx.ledger.Transfer(order.Escrow, pool.ReserveFor(tokenIn), tokenIn, order.AmountIn, order.Authority); err != nil {
		return math.Int{}, types.ErrInvalidState.Wrapf("drain escrow: %v", err)
	}
	if err := tx.ledger.Transfer(pool.ReserveFor(tokenOut), order.Owner, tokenOut, amountOutAfterFee, pool.Authority); err != nil {
		return math.Int{}, types.ErrInsufficientLiquidity.Wrapf("pay owner: %v", err)
	}
	if fee.IsPositive() {
		if err := tx.ledger.Transfer(pool.ReserveFor(tokenOut), cfg.FeeTreasury, tokenOut, fee, pool.Authority); err != nil {
			return math.Int{}, types.ErrInsufficientLiquidity.Wrapf("pay treasury: %v", err)
		}
	}

	order.Status = types.OrderStatusExecuted
	order.ExecutionAmount = amountOut
	order.ExecutionFee = fee
	order.ExecutedAt = now
	if err := setOrder(tx.store, order); err != nil {
		return math.Int{}, err
	}
	tx.commit()

	k.metrics.OrdersTotal.WithLabelValues("executed").Inc()
	k.logger.Info(types.EventOrderExecuted,
		types.AttributeKeyOrder, orderAddr.String(),
		"executor", executor.String(),
		types.AttributeKeyAmountIn, order.AmountIn.String(),
		types.AttributeKeyAmountOut, amountOut.String(),
		types.AttributeKeyFee, fee.String(),
	)

	return amountOutAfterFee, nil
}

// ClaimExpiredOrders refunds each referenced order iff it is Open and past
// its expiry; anything else is skipped with no effect on that order. Every
// order is settled in its own branch, so one failure cannot disturb a
// sibling, and a failure inside one order cannot partially apply.
func (k *Keeper) ClaimExpiredOrders(orders []types.Address) []types.OrderOutcome {
	now := k.clock()
	outcomes := make([]types.OrderOutcome, 0, len(orders))

	for _, orderAddr := range orders {
		outcomes = append(outcomes, k.claimExpired(orderAddr, now))
	}
	return outcomes
}

func (k *Keeper) claimExpired(orderAddr types.Address, now time.Time) types.OrderOutcome {
	peek, err := k.GetOrder(orderAddr)
	if err != nil {
		return types.OrderOutcome{Order: orderAddr, Amount: math.ZeroInt(), Err: err}
	}

	release := k.locks.Acquire(orderAddr, peek.Owner)
	defer release()

	order, err := k.GetOrder(orderAddr)
	if err != nil {
		return types.OrderOutcome{Order: orderAddr, Amount: math.ZeroInt(), Err: err}
	}
	if order.Status != types.OrderStatusOpen || !order.IsExpired(now) {
		return types.OrderOutcome{Order: orderAddr, Amount: math.ZeroInt()}
	}

	tx := k.begin()
	if err := tx.ledger.Transfer(order.Escrow, order.Owner, order.TokenIn(), order.AmountIn, order.Authority); err != nil {
		return types.OrderOutcome{Order: orderAddr, Amount: math.ZeroInt(), Err: types.ErrInvalidState.Wrapf("refund escrow: %v", err)}
	}
	order.Status = types.OrderStatusExpired
	if err := setOrder(tx.store, order); err != nil {
		return types.OrderOutcome{Order: orderAddr, Amount: math.ZeroInt(), Err: err}
	}
	tx.commit()

	k.metrics.OrdersTotal.WithLabelValues("expired").Inc()
	k.logger.Info(types.EventOrderExpired,
		types.AttributeKeyOrder, orderAddr.String(),
		"refunded", order.AmountIn.String(),
	)

	return types.OrderOutcome{Order: orderAddr, Applied: true, Amount: order.AmountIn}
}

// BatchExecuteOrders executes a set of orders at their quoted amounts. The
// arrays must be the same length; a mismatch fails before any work begins.
// Each order is independently atomic: a failure on one records an outcome and
// leaves siblings settled.
func (k *Keeper) BatchExecuteOrders(executor types.Address, orders []types.Address, amountsOut []math.Int) ([]types.OrderOutcome, error) {
	if len(orders) != len(amountsOut) {
		return nil, types.ErrBatchMismatch.Wrapf("%d orders, %d amounts", len(orders), len(amountsOut))
	}

	outcomes := make([]types.OrderOutcome, 0, len(orders))
	for i, orderAddr := range orders {
		net, err := k.ExecuteOrder(executor, orderAddr, amountsOut[i])
		if err != nil {
			outcomes = append(outcomes, types.OrderOutcome{Order: orderAddr, Amount: math.ZeroInt(), Err: err})
			continue
		}
		outcomes = append(outcomes, types.OrderOutcome{Order: orderAddr, Applied: true, Amount: net})
	}
	return outcomes, nil
}

// GetOrder retrieves an order by its derived address.
// Returns ErrOrderNotFound if the order does not exist.
func (k *Keeper) GetOrder(addr types.Address) (*types.Order, error) {
	return getOrder(k.store, addr)
}

// GetOrdersByOwner returns all orders placed by an owner.
func (k *Keeper) GetOrdersByOwner(owner types.Address) []*types.Order {
	var orders []*types.Order
	prefix := append(append([]byte(nil), types.OrderByOwnerKey...), owner[:]...)
	k.store.Iterate(prefix, func(key, _ []byte) bool {
		var addr types.Address
		copy(addr[:], key[len(prefix):])
		if order, err := k.GetOrder(addr); err == nil {
			orders = append(orders, order)
		}
		return false
	})
	return orders
}

// GetOpenOrders returns all orders currently in the Open state.
func (k *Keeper) GetOpenOrders() []*types.Order {
	var orders []*types.Order
	k.store.Iterate(types.OrderOpenKey, func(key, _ []byte) bool {
		var addr types.Address
		copy(addr[:], key[len(types.OrderOpenKey):])
		if order, err := k.GetOrder(addr); err == nil {
			orders = append(orders, order)
		}
		return false
	})
	return orders
}

func getOrder(store *Store, addr types.Address) (*types.Order, error) {
	bz := store.Get(types.GetOrderKey(addr))
	if bz == nil {
		return nil, types.ErrOrderNotFound.Wrapf("order %s not found", addr)
	}
	var order types.Order
	if err := json.Unmarshal(bz, &order); err != nil {
		return nil, types.ErrInvalidState.Wrapf("unmarshal order %s: %v", addr, err)
	}
	return &order, nil
}

func setOrder(store *Store, order *types.Order) error {
	bz, err := json.Marshal(order)
	if err != nil {
		return types.ErrInvalidState.Wrapf("marshal order %s: %v", order.Address, err)
	}
	store.Set(types.GetOrderKey(order.Address), bz)
	store.Set(types.GetOrderByOwnerKey(order.Owner, order.Address), []byte{1})

	if order.Status == types.OrderStatusOpen {
		store.Set(types.GetOrderOpenKey(order.Address), []byte{1})
	} else {
		store.Delete(types.GetOrderOpenKey(order.Address))
	}
	return nil
}
