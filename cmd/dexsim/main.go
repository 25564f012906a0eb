// dexsim drives the exchange engines end to end: it builds an in-memory
// ledger, initializes the configs and a pool, then runs liquidity, swap and
// order settlement flows while checking the accounting invariants.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dexsim",
		Short: "OpenFund DEX engine simulator",
		Long:  "Runs the pool accounting and order escrow engines through a full scenario against an in-memory token ledger.",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the demo scenario",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScenario(cmd)
		},
	}

	flags := runCmd.Flags()
	flags.Uint64("trading-fee-bps", 30, "pool trading fee in basis points")
	flags.Uint64("settlement-fee-bps", 25, "order settlement fee in basis points")
	flags.Uint64("settlement-window", 3600, "maximum order time-to-live in seconds")
	flags.Uint64("protocol-pct", 40, "protocol share of collected fees in percent")
	flags.Uint64("lp-pct", 60, "liquidity-provider share of collected fees in percent")
	flags.Int64("deposit-a", 1_000_000, "initial deposit of token A")
	flags.Int64("deposit-b", 1_000_000, "initial deposit of token B")
	flags.Int64("swap-amount", 1000, "swap input amount")
	flags.Int64("order-amount", 5000, "order escrow amount")

	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(runCmd)
	return rootCmd
}
