package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/crossfi-labs/stablearb/utils"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "stablearb",
	Short: "A cross-chain USDC/USDT arbitrage engine",
	Long: `An engine that polls one stablecoin pool on each of two chains,
simulates both round-trip directions and executes the first one whose
profit clears the configured threshold.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func initConfig() {
	utils.InitLogger(debug)
}
