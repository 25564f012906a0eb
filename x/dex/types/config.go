package types

import (
	"time"
)

const (
	// MaxSettlementFeeBps caps the settlement fee at 1%.
	MaxSettlementFeeBps = 100

	// MaxTradingFeeBps caps the trading fee at 10%.
	MaxTradingFeeBps = 1000

	// BpsDenominator converts basis points to a fraction.
	BpsDenominator = 10000
)

// SettlementConfig is the process-wide order settlement configuration. It is
// a singleton mutated only by its authority; order operations read it as an
// immutable snapshot taken at the start of the operation.
type SettlementConfig struct {
	// Authority is the only address allowed to mutate the config
	Authority Address `json:"authority"`
	// SettlementFeeBps is the fee charged on order execution, in basis points
	SettlementFeeBps uint64 `json:"settlement_fee_bps"`
	// SettlementWindowSeconds is the maximum order time-to-live
	SettlementWindowSeconds uint64 `json:"settlement_window_seconds"`
	// FeeTreasury receives settlement fees
	FeeTreasury Address `json:"fee_treasury"`
	// Active gates all order operations
	Active bool `json:"active"`
}

// Validate checks the settlement parameters.
func (c SettlementConfig) Validate() error {
	if c.SettlementFeeBps > MaxSettlementFeeBps {
		return ErrFeeTooHigh.Wrapf("settlement fee %d bps exceeds maximum %d", c.SettlementFeeBps, MaxSettlementFeeBps)
	}
	if c.SettlementWindowSeconds == 0 {
		return ErrInvalidFee.Wrap("settlement window cannot be zero")
	}
	if c.Authority.IsZero() {
		return ErrInvalidFee.Wrap("authority cannot be empty")
	}
	if c.FeeTreasury.IsZero() {
		return ErrInvalidFee.Wrap("fee treasury cannot be empty")
	}
	return nil
}

// Window returns the settlement window as a duration.
func (c SettlementConfig) Window() time.Duration {
	return time.Duration(c.SettlementWindowSeconds) * time.Second
}

// FeeConfig is the process-wide trading fee configuration: the fee rate and
// its protocol/LP split. Singleton, authority-mutated, snapshot-read.
type FeeConfig struct {
	// Authority is the only address allowed to mutate the config
	Authority Address `json:"authority"`
	// TradingFeeBps is the trading fee rate in basis points
	TradingFeeBps uint64 `json:"trading_fee_bps"`
	// ProtocolFeePct is the treasury percentage of collected fees
	ProtocolFeePct uint64 `json:"protocol_fee_pct"`
	// LpFeePct is the liquidity-provider percentage of collected fees
	LpFeePct uint64 `json:"lp_fee_pct"`
	// ProtocolTreasury receives the protocol share
	ProtocolTreasury Address `json:"protocol_treasury"`
}

// Validate checks the fee parameters.
func (c FeeConfig) Validate() error {
	if c.TradingFeeBps > MaxTradingFeeBps {
		return ErrFeeTooHigh.Wrapf("trading fee %d bps exceeds maximum %d", c.TradingFeeBps, MaxTradingFeeBps)
	}
	if c.ProtocolFeePct+c.LpFeePct != 100 {
		return ErrFeeDistributionInvalid.Wrapf("protocol %d%% + lp %d%% != 100%%", c.ProtocolFeePct, c.LpFeePct)
	}
	if c.Authority.IsZero() {
		return ErrInvalidFee.Wrap("authority cannot be empty")
	}
	if c.ProtocolTreasury.IsZero() {
		return ErrInvalidFee.Wrap("protocol treasury cannot be empty")
	}
	return nil
}
