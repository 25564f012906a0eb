package main

import (
	"fmt"
	"os"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/opendotfund/OpenFund/x/dex/keeper"
	"github.com/opendotfund/OpenFund/x/dex/types"
	"github.com/opendotfund/OpenFund/x/oracle"
	"github.com/opendotfund/OpenFund/x/token"
)

const (
	denomA = "uatom"
	denomB = "uusdc"
)

func runScenario(cmd *cobra.Command) error {
	logger := log.NewLogger(os.Stderr)

	tradingFeeBps := cast.ToUint64(viper.Get("trading-fee-bps"))
	settlementFeeBps := cast.ToUint64(viper.Get("settlement-fee-bps"))
	settlementWindow := cast.ToUint64(viper.Get("settlement-window"))
	protocolPct := cast.ToUint64(viper.Get("protocol-pct"))
	lpPct := cast.ToUint64(viper.Get("lp-pct"))
	depositA := math.NewInt(cast.ToInt64(viper.Get("deposit-a")))
	depositB := math.NewInt(cast.ToInt64(viper.Get("deposit-b")))
	swapAmount := math.NewInt(cast.ToInt64(viper.Get("swap-amount")))
	orderAmount := math.NewInt(cast.ToInt64(viper.Get("order-amount")))

	// Simulated clock so the expiry flow can be demonstrated without waiting.
	now := time.Now().UTC()
	clock := func() time.Time { return now }

	ledger := token.NewLedger()
	k := keeper.NewKeeper(ledger, logger,
		keeper.WithClock(clock),
		keeper.WithMetricsRegisterer(prometheus.NewRegistry()),
	)

	admin := types.Derive("actor", []byte("admin"))
	alice := types.Derive("actor", []byte("alice"))
	bob := types.Derive("actor", []byte("bob"))
	treasury := types.Derive("actor", []byte("treasury"))
	faucet := types.Derive("actor", []byte("faucet"))

	// Seed the ledger.
	for _, denom := range []string{denomA, denomB} {
		if err := ledger.CreateDenom(denom, faucet); err != nil {
			return err
		}
		for _, who := range []types.Address{alice, bob} {
			if err := ledger.Mint(who, denom, math.NewInt(10_000_000), faucet); err != nil {
				return err
			}
		}
	}

	if err := k.InitializeSettlementConfig(types.SettlementConfig{
		Authority:               admin,
		SettlementFeeBps:        settlementFeeBps,
		SettlementWindowSeconds: settlementWindow,
		FeeTreasury:             treasury,
		Active:                  true,
	}); err != nil {
		return err
	}
	if err := k.InitializeFeeConfig(types.FeeConfig{
		Authority:        admin,
		TradingFeeBps:    tradingFeeBps,
		ProtocolFeePct:   protocolPct,
		LpFeePct:         lpPct,
		ProtocolTreasury: treasury,
	}); err != nil {
		return err
	}

	pool, err := k.InitializePool(alice, denomA, denomB,
		math.NewIntFromUint64(tradingFeeBps), math.NewInt(types.BpsDenominator))
	if err != nil {
		return err
	}

	lpMinted, err := k.AddLiquidity(alice, pool.Address, depositA, depositB, math.ZeroInt())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "liquidity added: %s LP shares\n", lpMinted)

	quote, err := k.SimulateSwap(pool.Address, denomA, swapAmount)
	if err != nil {
		return err
	}
	out, err := k.Swap(bob, pool.Address, denomA, swapAmount, quote)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "swap: %s %s -> %s %s\n", swapAmount, denomA, out, denomB)

	price, err := k.SpotPrice(pool.Address, denomA)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "spot price: %s %s per %s\n", price, denomB, denomA)

	// Order settlement: create, execute at the quoted output.
	order, err := k.CreateOrder(bob, pool.Address, types.DirectionBtoA,
		orderAmount, math.ZeroInt(), now.Add(30*time.Second).Unix())
	if err != nil {
		return err
	}
	execQuote, err := k.SimulateSwap(pool.Address, denomB, orderAmount)
	if err != nil {
		return err
	}
	net, err := k.ExecuteOrder(admin, order.Address, execQuote)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "order executed: escrow %s %s, net payout %s %s\n",
		orderAmount, denomB, net, denomA)

	// Cancel flow.
	now = now.Add(time.Second)
	cancelMe, err := k.CreateOrder(bob, pool.Address, types.DirectionAtoB,
		orderAmount, math.ZeroInt(), now.Add(30*time.Second).Unix())
	if err != nil {
		return err
	}
	if err := k.CancelOrder(bob, cancelMe.Address); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "order cancelled: %s refunded\n", orderAmount)

	// Expiry flow: place an order, advance the clock past its expiry, claim.
	now = now.Add(time.Second)
	expireMe, err := k.CreateOrder(alice, pool.Address, types.DirectionAtoB,
		orderAmount, math.ZeroInt(), now.Add(10*time.Second).Unix())
	if err != nil {
		return err
	}
	now = now.Add(time.Minute)
	outcomes := k.ClaimExpiredOrders([]types.Address{expireMe.Address})
	for _, oc := range outcomes {
		fmt.Fprintf(cmd.OutOrStdout(), "expired claim: order %s applied=%v refunded=%s\n",
			oc.Order, oc.Applied, oc.Amount)
	}

	// Fee decomposition for the swap notional, using the configured split.
	feeCfg, err := k.GetFeeConfig()
	if err != nil {
		return err
	}
	fees, err := keeper.CalculateFees(swapAmount, feeCfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "fee split on %s: total=%s protocol=%s lp=%s\n",
		swapAmount, fees.TotalFee, fees.ProtocolFee, fees.LpFee)

	// Oracle freshness check against a synthetic observation.
	obs := oracle.PriceData{
		Price:       price,
		Confidence:  price.QuoInt64(1000),
		PublishTime: now.Add(-5 * time.Second),
	}
	oracleCfg := oracle.Config{
		HeartbeatThresholdSeconds:  60,
		ConfidenceThresholdPercent: math.LegacyNewDec(1),
	}
	if err := oracle.Check(oracleCfg, now, obs); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "oracle observation accepted")

	if err := k.CheckInvariants(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "all invariants hold")
	return nil
}
