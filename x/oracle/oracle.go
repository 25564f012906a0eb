// Package oracle defines the price-feed collaborator surface: the freshness
// and confidence contract a feed must satisfy before its prices are usable.
// Validation heuristics beyond that contract are out of scope.
package oracle

import (
	"time"

	"cosmossdk.io/errors"
	"cosmossdk.io/math"
)

// ModuleName defines the oracle codespace.
const ModuleName = "oracle"

// Oracle sentinel errors
var (
	ErrPriceUnavailable = errors.Register(ModuleName, 1, "price unavailable")
	ErrStalePrice       = errors.Register(ModuleName, 2, "price is stale")
	ErrLowConfidence    = errors.Register(ModuleName, 3, "price confidence too low")
	ErrInvalidConfig    = errors.Register(ModuleName, 4, "invalid oracle config")
)

// Config bounds how old and how uncertain an accepted price may be.
type Config struct {
	// HeartbeatThresholdSeconds is the maximum accepted price age
	HeartbeatThresholdSeconds uint64 `json:"heartbeat_threshold_seconds"`
	// ConfidenceThresholdPercent is the maximum confidence interval as a
	// percentage of the price
	ConfidenceThresholdPercent math.LegacyDec `json:"confidence_threshold_percent"`
}

// Validate checks the config bounds.
func (c Config) Validate() error {
	if c.HeartbeatThresholdSeconds == 0 {
		return ErrInvalidConfig.Wrap("heartbeat threshold cannot be zero")
	}
	if c.ConfidenceThresholdPercent.IsNil() || !c.ConfidenceThresholdPercent.IsPositive() {
		return ErrInvalidConfig.Wrap("confidence threshold must be positive")
	}
	return nil
}

// PriceData is one published price observation.
type PriceData struct {
	// Price is the published price
	Price math.LegacyDec `json:"price"`
	// Confidence is the published confidence interval, same unit as Price
	Confidence math.LegacyDec `json:"confidence"`
	// PublishTime is when the observation was published
	PublishTime time.Time `json:"publish_time"`
}

// Feed supplies the latest observation for a trading pair.
type Feed interface {
	Latest(pair string) (PriceData, error)
}

// Check verifies an observation against the config at the given time.
func Check(cfg Config, now time.Time, data PriceData) error {
	if data.Price.IsNil() || !data.Price.IsPositive() {
		return ErrPriceUnavailable.Wrap("price must be positive")
	}
	age := now.Sub(data.PublishTime)
	if age > time.Duration(cfg.HeartbeatThresholdSeconds)*time.Second {
		return ErrStalePrice.Wrapf("price age %s exceeds heartbeat %ds", age, cfg.HeartbeatThresholdSeconds)
	}
	if data.Confidence.IsNil() || data.Confidence.IsNegative() {
		return ErrPriceUnavailable.Wrap("confidence must be non-negative")
	}

	// Confidence interval as a percentage of the price.
	intervalPct := data.Confidence.Quo(data.Price).Mul(math.LegacyNewDec(100))
	if intervalPct.GT(cfg.ConfidenceThresholdPercent) {
		return ErrLowConfidence.Wrapf("confidence interval %s%% exceeds threshold %s%%",
			intervalPct, cfg.ConfidenceThresholdPercent)
	}
	return nil
}
