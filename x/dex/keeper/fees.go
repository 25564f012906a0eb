package keeper

import (
	"encoding/json"

	"cosmossdk.io/math"

	"github.com/opendotfund/OpenFund/x/dex/types"
)

// Lock keys for the config singletons.
var (
	settlementConfigLock = types.Derive("settlement_config")
	feeConfigLock        = types.Derive("fee_config")
)

var hundred = math.NewInt(100)

// SplitFee decomposes a total fee into its protocol and LP shares.
// protocol = floor(totalFee * protocolPct / 100); the LP share takes the
// remainder so no unit is lost to rounding.
func SplitFee(totalFee math.Int, protocolPct, lpPct uint64) (protocolFee, lpFee math.Int, err error) {
	if protocolPct+lpPct != 100 {
		return math.Int{}, math.Int{}, types.ErrFeeDistributionInvalid.Wrapf(
			"protocol %d%% + lp %d%% != 100%%", protocolPct, lpPct)
	}
	if totalFee.IsNil() || totalFee.IsNegative() {
		return math.Int{}, math.Int{}, types.ErrInvalidAmount.Wrap("total fee cannot be negative")
	}

	protocolFee, err = SafeMulDiv(totalFee, math.NewIntFromUint64(protocolPct), hundred)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}
	lpFee = totalFee.Sub(protocolFee)
	return protocolFee, lpFee, nil
}

// CalculateFees charges the configured trading fee on a notional amount and
// returns the full decomposition.
func CalculateFees(amount math.Int, cfg types.FeeConfig) (types.CalculatedFees, error) {
	if amount.IsNil() || amount.IsNegative() {
		return types.CalculatedFees{}, types.ErrInvalidAmount.Wrap("amount cannot be negative")
	}
	if err := cfg.Validate(); err != nil {
		return types.CalculatedFees{}, err
	}

	totalFee, err := SafeMulDiv(amount, math.NewIntFromUint64(cfg.TradingFeeBps), math.NewInt(types.BpsDenominator))
	if err != nil {
		return types.CalculatedFees{}, err
	}
	protocolFee, lpFee, err := SplitFee(totalFee, cfg.ProtocolFeePct, cfg.LpFeePct)
	if err != nil {
		return types.CalculatedFees{}, err
	}

	return types.CalculatedFees{
		TotalFee:        totalFee,
		ProtocolFee:     protocolFee,
		LpFee:           lpFee,
		AmountAfterFees: amount.Sub(totalFee),
	}, nil
}

// InitializeSettlementConfig stores the settlement config singleton. One-shot.
func (k *Keeper) InitializeSettlementConfig(cfg types.SettlementConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	release := k.locks.Acquire(settlementConfigLock)
	defer release()

	if k.store.Has(types.SettlementConfigKey) {
		return types.ErrAlreadyInitialized.Wrap("settlement config")
	}
	return k.setSettlementConfig(k.store, cfg)
}

// GetSettlementConfig returns a snapshot of the settlement config.
func (k *Keeper) GetSettlementConfig() (types.SettlementConfig, error) {
	bz := k.store.Get(types.SettlementConfigKey)
	if bz == nil {
		return types.SettlementConfig{}, types.ErrNotInitialized.Wrap("settlement config")
	}
	var cfg types.SettlementConfig
	if err := json.Unmarshal(bz, &cfg); err != nil {
		return types.SettlementConfig{}, types.ErrInvalidState.Wrapf("unmarshal settlement config: %v", err)
	}
	return cfg, nil
}

// UpdateSettlementParams changes the settlement fee and window. Authority only.
func (k *Keeper) UpdateSettlementParams(authority types.Address, feeBps, windowSeconds uint64) error {
	release := k.locks.Acquire(settlementConfigLock)
	defer release()

	cfg, err := k.GetSettlementConfig()
	if err != nil {
		return err
	}
	if cfg.Authority != authority {
		return types.ErrUnauthorized.Wrapf("%s is not the settlement authority", authority)
	}

	cfg.SettlementFeeBps = feeBps
	cfg.SettlementWindowSeconds = windowSeconds
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := k.setSettlementConfig(k.store, cfg); err != nil {
		return err
	}
	k.logger.Info(types.EventConfigUpdated, "config", "settlement", "fee_bps", feeBps, "window_seconds", windowSeconds)
	return nil
}

// SetFeeTreasury changes the settlement fee treasury. Authority only.
func (k *Keeper) SetFeeTreasury(authority, treasury types.Address) error {
	release := k.locks.Acquire(settlementConfigLock)
	defer release()

	cfg, err := k.GetSettlementConfig()
	if err != nil {
		return err
	}
	if cfg.Authority != authority {
		return types.ErrUnauthorized.Wrapf("%s is not the settlement authority", authority)
	}

	cfg.FeeTreasury = treasury
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := k.setSettlementConfig(k.store, cfg); err != nil {
		return err
	}
	k.logger.Info(types.EventConfigUpdated, "config", "settlement", "fee_treasury", treasury.String())
	return nil
}

// SetSettlementActive pauses or resumes order settlement. Authority only.
func (k *Keeper) SetSettlementActive(authority types.Address, active bool) error {
	release := k.locks.Acquire(settlementConfigLock)
	defer release()

	cfg, err := k.GetSettlementConfig()
	if err != nil {
		return err
	}
	if cfg.Authority != authority {
		return types.ErrUnauthorized.Wrapf("%s is not the settlement authority", authority)
	}

	cfg.Active = active
	if err := k.setSettlementConfig(k.store, cfg); err != nil {
		return err
	}
	k.logger.Info(types.EventConfigUpdated, "config", "settlement", "active", active)
	return nil
}

func (k *Keeper) setSettlementConfig(store *Store, cfg types.SettlementConfig) error {
	bz, err := json.Marshal(cfg)
	if err != nil {
		return types.ErrInvalidState.Wrapf("marshal settlement config: %v", err)
	}
	store.Set(types.SettlementConfigKey, bz)
	return nil
}

// InitializeFeeConfig stores the trading fee config singleton. One-shot.
func (k *Keeper) InitializeFeeConfig(cfg types.FeeConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	release := k.locks.Acquire(feeConfigLock)
	defer release()

	if k.store.Has(types.FeeConfigKey) {
		return types.ErrAlreadyInitialized.Wrap("fee config")
	}
	return k.setFeeConfig(cfg)
}

// GetFeeConfig returns a snapshot of the trading fee config.
func (k *Keeper) GetFeeConfig() (types.FeeConfig, error) {
	bz := k.store.Get(types.FeeConfigKey)
	if bz == nil {
		return types.FeeConfig{}, types.ErrNotInitialized.Wrap("fee config")
	}
	var cfg types.FeeConfig
	if err := json.Unmarshal(bz, &cfg); err != nil {
		return types.FeeConfig{}, types.ErrInvalidState.Wrapf("unmarshal fee config: %v", err)
	}
	return cfg, nil
}

// UpdateFeeConfig changes the trading fee rate and split. Authority only.
func (k *Keeper) UpdateFeeConfig(authority types.Address, tradingFeeBps, protocolPct, lpPct uint64) error {
	release := k.locks.Acquire(feeConfigLock)
	defer release()

	cfg, err := k.GetFeeConfig()
	if err != nil {
		return err
	}
	if cfg.Authority != authority {
		return types.ErrUnauthorized.Wrapf("%s is not the fee authority", authority)
	}

	cfg.TradingFeeBps = tradingFeeBps
	cfg.ProtocolFeePct = protocolPct
	cfg.LpFeePct = lpPct
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := k.setFeeConfig(cfg); err != nil {
		return err
	}
	k.logger.Info(types.EventConfigUpdated, "config", "fee", "trading_fee_bps", tradingFeeBps,
		"protocol_pct", protocolPct, "lp_pct", lpPct)
	return nil
}

// SetProtocolTreasury changes the protocol fee treasury. Authority only.
func (k *Keeper) SetProtocolTreasury(authority, treasury types.Address) error {
	release := k.locks.Acquire(feeConfigLock)
	defer release()

	cfg, err := k.GetFeeConfig()
	if err != nil {
		return err
	}
	if cfg.Authority != authority {
		return types.ErrUnauthorized.Wrapf("%s is not the fee authority", authority)
	}

	cfg.ProtocolTreasury = treasury
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := k.setFeeConfig(cfg); err != nil {
		return err
	}
	k.logger.Info(types.EventConfigUpdated, "config", "fee", "protocol_treasury", treasury.String())
	return nil
}

func (k *Keeper) setFeeConfig(cfg types.FeeConfig) error {
	bz, err := json.Marshal(cfg)
	if err != nil {
		return types.ErrInvalidState.Wrapf("marshal fee config: %v", err)
	}
	k.store.Set(types.FeeConfigKey, bz)
	return nil
}
