// Package executor drives the four-leg round trip: swap on the source
// chain, bridge out, swap on the destination chain, bridge back.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/crossfi-labs/stablearb/config"
	"github.com/crossfi-labs/stablearb/strategies/arbitrage"
	"github.com/crossfi-labs/stablearb/types"
	"github.com/crossfi-labs/stablearb/utils/metrics"
)

// Pipeline stages, in traversal order. Failed absorbs; there is no
// recovery or compensation once a leg fails.
const (
	StageIdle         = "idle"
	StageSwapSource   = "swap_source"
	StageBridgeOut    = "bridge_out"
	StageSwapDest     = "swap_dest"
	StageBridgeReturn = "bridge_return"
	StageComplete     = "complete"
	StageFailed       = "failed"
)

// TradeJournal receives one record per completed or failed execution.
// Appends are best effort; a journal error never fails the pipeline.
type TradeJournal interface {
	Append(msg string) error
}

// Pipeline executes a selected direction leg by leg. The whole amount
// moves through every leg; there is no partial sizing.
type Pipeline struct {
	cfg     *config.Config
	runner  LegRunner
	journal TradeJournal
	metrics *metrics.PipelineMetrics
	logger  *zap.Logger

	minOutFactor decimal.Decimal
}

// NewPipeline wires a pipeline for the configured mode's runner.
// journal and pm may be nil.
func NewPipeline(cfg *config.Config, runner LegRunner, journal TradeJournal, pm *metrics.PipelineMetrics, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		cfg:          cfg,
		runner:       runner,
		journal:      journal,
		metrics:      pm,
		logger:       logger,
		minOutFactor: decimal.NewFromFloat(cfg.MinAmountOutFactor),
	}
}

type legPlan struct {
	stage  string
	kind   types.LegKind
	swap   types.SwapRequest
	bridge types.BridgeRequest
}

// Execute runs the four legs of dir and returns the realized report.
// On a leg failure the returned error is a StageError carrying the
// stage name and the amount stranded there.
func (p *Pipeline) Execute(ctx context.Context, dir types.DirectionResult, quoteA, quoteB types.PoolQuote) (*types.ExecutionReport, error) {
	runID := uuid.NewString()
	started := time.Now()

	if p.metrics != nil {
		p.metrics.ExecutionsStarted.Inc()
	}
	p.logger.Info("Execution started",
		zap.String("run_id", runID),
		zap.String("direction", dir.Label),
		zap.String("mode", string(p.cfg.Mode)),
		zap.String("start_amount", dir.StartAmount.String()))

	plan, err := p.buildPlan(dir, quoteA, quoteB)
	if err != nil {
		return nil, err
	}

	amount := dir.StartAmount
	for _, leg := range plan {
		amount, err = p.runLeg(ctx, leg, amount)
		if err != nil {
			stageErr := &types.StageError{Stage: leg.stage, Stranded: amount, Err: err}
			if p.metrics != nil {
				p.metrics.ExecutionsFailed.WithLabelValues(leg.stage).Inc()
			}
			p.logger.Error("Execution failed",
				zap.String("run_id", runID),
				zap.String("stage", leg.stage),
				zap.String("stranded", amount.String()),
				zap.Error(err))
			p.record(fmt.Sprintf("run=%s direction=%s stage=%s FAILED stranded=%s err=%v",
				runID, dir.Label, leg.stage, amount, err))
			return nil, stageErr
		}
	}

	profit := amount.Sub(dir.StartAmount)
	if p.metrics != nil {
		pf, _ := profit.Float64()
		p.metrics.CumulativeProfit.Add(pf)
	}

	report := &types.ExecutionReport{
		RunID:       runID,
		Direction:   dir.Label,
		StartAmount: dir.StartAmount,
		FinalAmount: amount,
		NetProfit:   profit,
		Mode:        p.cfg.Mode,
		StartedAt:   started,
		FinishedAt:  time.Now(),
	}

	p.logger.Info("Execution complete",
		zap.String("run_id", runID),
		zap.String("direction", dir.Label),
		zap.String("final_amount", amount.String()),
		zap.String("net_profit", profit.String()),
		zap.Duration("elapsed", report.FinishedAt.Sub(started)))
	p.record(fmt.Sprintf("run=%s direction=%s mode=%s start=%s final=%s profit=%s",
		runID, dir.Label, p.cfg.Mode, dir.StartAmount, amount, profit))

	return report, nil
}

func (p *Pipeline) runLeg(ctx context.Context, leg legPlan, amount decimal.Decimal) (decimal.Decimal, error) {
	switch leg.kind {
	case types.LegSwap:
		req := leg.swap
		req.AmountIn = amount
		req.MinAmountOut = amount.Mul(req.Rate).Mul(p.minOutFactor)
		res, err := p.runner.Swap(ctx, req)
		if err != nil {
			return amount, err
		}
		return res.AmountOut, nil
	default:
		req := leg.bridge
		req.Amount = amount
		res, err := p.runner.Bridge(ctx, req)
		if err != nil {
			return amount, err
		}
		return res.AmountReceived, nil
	}
}

// buildPlan lays out the four legs for the direction. The USDC-first
// direction swaps into USDT on chain A, bridges USDT out over the
// Stargate-style bridge, swaps back into USDC on chain B and returns
// the USDC over the CCIP-style bridge; the USDT-first direction mirrors
// the tokens and therefore the bridge providers.
func (p *Pipeline) buildPlan(dir types.DirectionResult, quoteA, quoteB types.PoolQuote) ([]legPlan, error) {
	chainA, chainB := &p.cfg.ChainA, &p.cfg.ChainB
	costUSDC := decimal.NewFromFloat(p.cfg.BridgeCostUSDC)
	costUSDT := decimal.NewFromFloat(p.cfg.BridgeCostUSDT)

	switch dir.Label {
	case arbitrage.DirectionUSDCFirst:
		rateA, err := rateFor(quoteA, chainA.USDCAddress())
		if err != nil {
			return nil, err
		}
		rateB, err := rateFor(quoteB, chainB.USDTAddress())
		if err != nil {
			return nil, err
		}
		return []legPlan{
			swapLeg(StageSwapSource, chainA, chainA.USDCAddress(), chainA.USDTAddress(), decimalsFor(quoteA, chainA.USDCAddress()), rateA),
			bridgeLeg(StageBridgeOut, types.BridgeStargate, chainA.Name, chainB.Name, chainA.USDTAddress(), "USDT", costUSDT),
			swapLeg(StageSwapDest, chainB, chainB.USDTAddress(), chainB.USDCAddress(), decimalsFor(quoteB, chainB.USDTAddress()), rateB),
			bridgeLeg(StageBridgeReturn, types.BridgeCCIP, chainB.Name, chainA.Name, chainB.USDCAddress(), "USDC", costUSDC),
		}, nil

	case arbitrage.DirectionUSDTFirst:
		rateA, err := rateFor(quoteA, chainA.USDTAddress())
		if err != nil {
			return nil, err
		}
		rateB, err := rateFor(quoteB, chainB.USDCAddress())
		if err != nil {
			return nil, err
		}
		return []legPlan{
			swapLeg(StageSwapSource, chainA, chainA.USDTAddress(), chainA.USDCAddress(), decimalsFor(quoteA, chainA.USDTAddress()), rateA),
			bridgeLeg(StageBridgeOut, types.BridgeCCIP, chainA.Name, chainB.Name, chainA.USDCAddress(), "USDC", costUSDC),
			swapLeg(StageSwapDest, chainB, chainB.USDCAddress(), chainB.USDTAddress(), decimalsFor(quoteB, chainB.USDCAddress()), rateB),
			bridgeLeg(StageBridgeReturn, types.BridgeStargate, chainB.Name, chainA.Name, chainB.USDTAddress(), "USDT", costUSDT),
		}, nil

	default:
		return nil, fmt.Errorf("unknown direction %q", dir.Label)
	}
}

// rateFor resolves the output-per-input conversion factor for swapping
// tokenIn through the quoted pool.
func rateFor(q types.PoolQuote, tokenIn common.Address) (decimal.Decimal, error) {
	if q.Price.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: zero price for pool %s", types.ErrArithmeticDomain, q.Pool.Hex())
	}
	if q.Token0 == tokenIn {
		return q.Price, nil
	}
	return decimal.NewFromInt(1).Div(q.Price), nil
}

func decimalsFor(q types.PoolQuote, tokenIn common.Address) int {
	if q.Token0 == tokenIn {
		return q.Decimals0
	}
	return q.Decimals1
}

func swapLeg(stage string, chain *config.ChainConfig, tokenIn, tokenOut common.Address, decimals int, rate decimal.Decimal) legPlan {
	return legPlan{
		stage: stage,
		kind:  types.LegSwap,
		swap: types.SwapRequest{
			ChainName:       chain.Name,
			Router:          chain.RouterAddress(),
			TokenIn:         tokenIn,
			TokenOut:        tokenOut,
			TokenInDecimals: decimals,
			FeeFraction:     decimal.NewFromFloat(chain.SwapFee),
			Rate:            rate,
		},
	}
}

func bridgeLeg(stage string, provider types.BridgeProvider, from, to string, token common.Address, symbol string, cost decimal.Decimal) legPlan {
	return legPlan{
		stage: stage,
		kind:  types.LegBridge,
		bridge: types.BridgeRequest{
			Provider:  provider,
			FromChain: from,
			ToChain:   to,
			Token:     token,
			Symbol:    symbol,
			Cost:      cost,
		},
	}
}

func (p *Pipeline) record(msg string) {
	if p.journal == nil {
		return
	}
	if err := p.journal.Append(msg); err != nil {
		p.logger.Warn("Trade journal append failed", zap.Error(err))
	}
}
