package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crossfi-labs/stablearb/cmd/bot"
	"github.com/crossfi-labs/stablearb/config"
	"github.com/crossfi-labs/stablearb/types"
	"github.com/crossfi-labs/stablearb/utils"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the arbitrage engine",
	Run: func(cmd *cobra.Command, args []string) {
		log := utils.GetLogger()

		if err := config.LoadEnv(); err != nil {
			log.Warn("No .env file loaded", zap.Error(err))
		}

		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatal("Failed to load config", zap.Error(err))
		}

		var secure *config.SecureConfig
		if cfg.Mode == types.ModeLive {
			secure, err = config.LoadSecureConfig()
			if err != nil {
				log.Fatal("Failed to load signer credential", zap.Error(err))
			}
		}

		engine, err := bot.New(cfg, secure, log)
		if err != nil {
			log.Fatal("Failed to create engine", zap.Error(err))
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		if err := engine.Start(ctx); err != nil {
			log.Fatal("Failed to start engine", zap.Error(err))
		}

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("Shutting down gracefully...")
		cancel()
		engine.Stop()
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
