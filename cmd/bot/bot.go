// Package bot assembles the engine from configuration: chain clients,
// quote readers, the evaluator, the pipeline and the scheduler.
package bot

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/crossfi-labs/stablearb/chain"
	"github.com/crossfi-labs/stablearb/config"
	"github.com/crossfi-labs/stablearb/executor"
	"github.com/crossfi-labs/stablearb/logstore"
	"github.com/crossfi-labs/stablearb/pricing"
	"github.com/crossfi-labs/stablearb/scheduler"
	"github.com/crossfi-labs/stablearb/simulator"
	"github.com/crossfi-labs/stablearb/strategies/arbitrage"
	"github.com/crossfi-labs/stablearb/types"
	"github.com/crossfi-labs/stablearb/utils/metrics"
)

// Bot owns the engine's long-lived components.
type Bot struct {
	cfg       *config.Config
	scheduler *scheduler.Scheduler
	journal   *logstore.Store
	metricsrv *http.Server
	logger    *zap.Logger
	wg        sync.WaitGroup
}

// New wires a bot from the validated configuration. In live mode the
// signer key must be present in the environment.
func New(cfg *config.Config, secure *config.SecureConfig, logger *zap.Logger) (*Bot, error) {
	backendA, err := dialBackend(cfg, &cfg.ChainA)
	if err != nil {
		return nil, err
	}
	backendB, err := dialBackend(cfg, &cfg.ChainB)
	if err != nil {
		return nil, err
	}

	readerA, err := chain.NewPoolReader(backendA, cfg.ChainA.PoolAddress(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s pool reader: %w", cfg.ChainA.Name, err)
	}
	readerB, err := chain.NewPoolReader(backendB, cfg.ChainB.PoolAddress(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s pool reader: %w", cfg.ChainB.Name, err)
	}

	fees := pricing.NewFeeModel(decimal.NewFromFloat(cfg.SlippageFraction))
	sim := simulator.NewSimulator(fees)
	evaluator := arbitrage.NewEvaluator(cfg, sim, logger)

	runner, err := buildRunner(cfg, secure, backendA, backendB, fees, logger)
	if err != nil {
		return nil, err
	}

	journal, err := logstore.Open(cfg.TradeLogPath)
	if err != nil {
		return nil, err
	}

	var (
		em        *metrics.EngineMetrics
		pm        *metrics.PipelineMetrics
		metricsrv *http.Server
	)
	if cfg.PrometheusEnabled {
		em = metrics.NewEngineMetrics(prometheus.DefaultRegisterer)
		pm = metrics.NewPipelineMetrics(prometheus.DefaultRegisterer)
		metricsrv = &http.Server{
			Addr:              cfg.PrometheusEndpoint,
			Handler:           promhttp.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	pipeline := executor.NewPipeline(cfg, runner, journal, pm, logger)
	sched := scheduler.New(cfg, readerA, readerB, evaluator, pipeline, em, logger)

	return &Bot{
		cfg:       cfg,
		scheduler: sched,
		journal:   journal,
		metricsrv: metricsrv,
		logger:    logger,
	}, nil
}

func dialBackend(cfg *config.Config, cc *config.ChainConfig) (chain.Backend, error) {
	client, err := ethclient.Dial(cc.RPCEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s node: %w", cc.Name, err)
	}
	return chain.NewRateLimitedBackend(client, cfg.RPCRateLimit.RequestsPerSecond, cfg.RPCRateLimit.BurstSize), nil
}

func buildRunner(cfg *config.Config, secure *config.SecureConfig, backendA, backendB chain.Backend, fees *pricing.FeeModel, logger *zap.Logger) (executor.LegRunner, error) {
	if cfg.Mode == types.ModeSimulated {
		return executor.NewSimulatedRunner(fees, logger), nil
	}

	if secure == nil || secure.PrivateKey == "" {
		return nil, fmt.Errorf("live mode requires %s to be set", config.EnvPrivateKey)
	}

	swapA, err := chain.NewRouterSwapExecutor(backendA, cfg.ChainA.ChainID, cfg.ChainA.Name, secure.PrivateKey, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s swap executor: %w", cfg.ChainA.Name, err)
	}
	swapB, err := chain.NewRouterSwapExecutor(backendB, cfg.ChainB.ChainID, cfg.ChainB.Name, secure.PrivateKey, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s swap executor: %w", cfg.ChainB.Name, err)
	}

	swaps := map[string]executor.SwapExecutor{
		cfg.ChainA.Name: swapA,
		cfg.ChainB.Name: swapB,
	}
	bridges := map[types.BridgeProvider]executor.BridgeExecutor{
		types.BridgeCCIP:     chain.NewCCIPBridge(logger),
		types.BridgeStargate: chain.NewStargateBridge(logger),
	}

	return executor.NewLiveRunner(swaps, bridges, executor.DefaultRetryPolicy(), logger), nil
}

// Start launches the polling loop and, when enabled, the metrics
// endpoint. It returns immediately; Stop waits for shutdown.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting arbitrage engine...")

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := b.scheduler.Run(ctx); err != nil && ctx.Err() == nil {
			b.logger.Error("Scheduler error", zap.Error(err))
		}
	}()

	if b.metricsrv != nil {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.logger.Info("Metrics endpoint listening", zap.String("addr", b.metricsrv.Addr))
			if err := b.metricsrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				b.logger.Error("Metrics server error", zap.Error(err))
			}
		}()
	}

	return nil
}

// Stop shuts the metrics endpoint, waits for the scheduler to drain
// and closes the trade journal.
func (b *Bot) Stop() {
	b.logger.Info("Stopping arbitrage engine...")

	if b.metricsrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.metricsrv.Shutdown(shutdownCtx); err != nil {
			b.logger.Warn("Metrics server shutdown failed", zap.Error(err))
		}
	}

	b.wg.Wait()

	if err := b.journal.Close(); err != nil {
		b.logger.Warn("Trade journal close failed", zap.Error(err))
	}
}
