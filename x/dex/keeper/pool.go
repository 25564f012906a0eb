package keeper

import (
	"encoding/json"

	"cosmossdk.io/math"

	"github.com/opendotfund/OpenFund/x/dex/types"
)

// InitializePool creates a pool for a token pair with empty reserves and a
// zero-supply LP mint. The reserve accounts and the LP mint are exclusively
// owned by the pool's derived authority, so nothing can move reserves without
// going through this engine. Tokens are ordered lexicographically; one pool
// exists per distinct pair.
func (k *Keeper) InitializePool(creator types.Address, tokenA, tokenB string, feeNumerator, feeDenominator math.Int) (*types.Pool, error) {
	if tokenA == tokenB {
		return nil, types.ErrInvalidTokenPair.Wrap("cannot create pool with identical tokens")
	}
	if tokenA == "" || tokenB == "" {
		return nil, types.ErrInvalidTokenPair.Wrap("token denoms cannot be empty")
	}
	if feeNumerator.IsNil() || feeDenominator.IsNil() {
		return nil, types.ErrInvalidFee.Wrap("fee parameters cannot be nil")
	}
	if !feeDenominator.IsPositive() {
		return nil, types.ErrInvalidFee.Wrap("fee denominator must be positive")
	}
	if feeNumerator.IsNegative() || feeNumerator.GTE(feeDenominator) {
		return nil, types.ErrInvalidFee.Wrapf("fee numerator %s must be in [0, %s)", feeNumerator, feeDenominator)
	}

	tokenA, tokenB = types.OrderTokenPair(tokenA, tokenB)
	poolAddr := types.PoolAddress(tokenA, tokenB)

	release := k.locks.Acquire(poolAddr)
	defer release()

	if k.store.Has(types.GetPoolKey(poolAddr)) {
		return nil, types.ErrPoolAlreadyExists.Wrapf("pool already exists for token pair %s/%s", tokenA, tokenB)
	}

	authority := types.PoolAuthority(poolAddr)
	pool := &types.Pool{
		Address:        poolAddr,
		TokenA:         tokenA,
		TokenB:         tokenB,
		ReserveA:       types.PoolReserveAddress(poolAddr, tokenA),
		ReserveB:       types.PoolReserveAddress(poolAddr, tokenB),
		LPDenom:        types.LPDenom(poolAddr),
		Authority:      authority,
		Creator:        creator,
		FeeNumerator:   feeNumerator,
		FeeDenominator: feeDenominator,
		CreatedAt:      k.clock(),
	}

	tx := k.begin()
	if err := tx.ledger.CreateAccount(pool.ReserveA, authority); err != nil {
		return nil, types.ErrInvalidState.Wrapf("create reserve account: %v", err)
	}
	if err := tx.ledger.CreateAccount(pool.ReserveB, authority); err != nil {
		return nil, types.ErrInvalidState.Wrapf("create reserve account: %v", err)
	}
	if err := tx.ledger.CreateDenom(pool.LPDenom, authority); err != nil {
		return nil, types.ErrInvalidState.Wrapf("create lp denom: %v", err)
	}
	if err := setPool(tx.store, pool); err != nil {
		return nil, err
	}
	tx.store.Set(types.GetPoolByTokensKey(tokenA, tokenB), poolAddr[:])
	tx.commit()

	k.metrics.PoolsCreated.Inc()
	k.logger.Info(types.EventPoolCreated,
		types.AttributeKeyPool, poolAddr.String(),
		"token_a", tokenA,
		"token_b", tokenB,
		"fee", feeNumerator.String()+"/"+feeDenominator.String(),
	)

	return pool, nil
}

// GetPool retrieves a pool by its derived address.
// Returns ErrPoolNotFound if the pool does not exist.
func (k *Keeper) GetPool(addr types.Address) (*types.Pool, error) {
	return getPool(k.store, addr)
}

// GetPoolByTokens retrieves a pool by its token pair (order-independent).
func (k *Keeper) GetPoolByTokens(tokenA, tokenB string) (*types.Pool, error) {
	bz := k.store.Get(types.GetPoolByTokensKey(tokenA, tokenB))
	if bz == nil {
		return nil, types.ErrPoolNotFound.Wrapf("pool not found for token pair %s/%s", tokenA, tokenB)
	}
	var addr types.Address
	copy(addr[:], bz)
	return k.GetPool(addr)
}

// Reserves returns the pool's current reserve balances (tokenA side, tokenB side).
func (k *Keeper) Reserves(pool *types.Pool) (math.Int, math.Int) {
	return k.ledger.Balance(pool.ReserveA, pool.TokenA), k.ledger.Balance(pool.ReserveB, pool.TokenB)
}

// LPSupply returns the pool's total minted LP shares.
func (k *Keeper) LPSupply(pool *types.Pool) math.Int {
	return k.ledger.Supply(pool.LPDenom)
}

// GetAllPools returns every pool record.
func (k *Keeper) GetAllPools() []types.Pool {
	var pools []types.Pool
	k.store.Iterate(types.PoolKey, func(_, value []byte) bool {
		var pool types.Pool
		if err := json.Unmarshal(value, &pool); err != nil {
			return false
		}
		pools = append(pools, pool)
		return false
	})
	return pools
}

func getPool(store *Store, addr types.Address) (*types.Pool, error) {
	bz := store.Get(types.GetPoolKey(addr))
	if bz == nil {
		return nil, types.ErrPoolNotFound.Wrapf("pool %s not found", addr)
	}
	var pool types.Pool
	if err := json.Unmarshal(bz, &pool); err != nil {
		return nil, types.ErrInvalidState.Wrapf("unmarshal pool %s: %v", addr, err)
	}
	return &pool, nil
}

func setPool(store *Store, pool *types.Pool) error {
	bz, err := json.Marshal(pool)
	if err != nil {
		return types.ErrInvalidState.Wrapf("marshal pool %s: %v", pool.Address, err)
	}
	store.Set(types.GetPoolKey(pool.Address), bz)
	return nil
}
