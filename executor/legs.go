package executor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/crossfi-labs/stablearb/pricing"
	"github.com/crossfi-labs/stablearb/types"
)

// SimulatedBridgeLatency is the artificial settlement delay applied to
// simulated bridge legs so the pipeline timing resembles a real run.
const SimulatedBridgeLatency = 500 * time.Millisecond

// LegRunner executes the individual legs of a round trip. The pipeline
// is agnostic to whether fills are simulated or sent on-chain.
type LegRunner interface {
	Swap(ctx context.Context, req types.SwapRequest) (types.SwapResult, error)
	Bridge(ctx context.Context, req types.BridgeRequest) (types.BridgeResult, error)
}

// SwapExecutor submits a swap on a single chain.
type SwapExecutor interface {
	ExecuteSwap(ctx context.Context, req types.SwapRequest) (types.SwapResult, error)
}

// BridgeExecutor moves funds between chains through one bridge provider.
type BridgeExecutor interface {
	ExecuteBridge(ctx context.Context, req types.BridgeRequest) (types.BridgeResult, error)
}

// SimulatedRunner fills legs arithmetically without touching a chain.
// Swaps convert at the quoted rate less fee and slippage, bridges deduct
// the flat cost and sleep a fixed latency. It never fails.
type SimulatedRunner struct {
	fees    *pricing.FeeModel
	latency time.Duration
	logger  *zap.Logger
	seq     atomic.Int64
}

// NewSimulatedRunner returns a runner producing sim-prefixed tx refs.
func NewSimulatedRunner(fees *pricing.FeeModel, logger *zap.Logger) *SimulatedRunner {
	return &SimulatedRunner{
		fees:    fees,
		latency: SimulatedBridgeLatency,
		logger:  logger,
	}
}

func (r *SimulatedRunner) nextRef(kind string) string {
	return fmt.Sprintf("sim:%s:%d", kind, r.seq.Add(1))
}

func (r *SimulatedRunner) Swap(_ context.Context, req types.SwapRequest) (types.SwapResult, error) {
	out := req.AmountIn.Mul(req.Rate)
	out = r.fees.ApplyFee(out, req.FeeFraction)
	out = r.fees.ApplySlippage(out)

	res := types.SwapResult{AmountOut: out, TxRef: r.nextRef("swap")}
	r.logger.Debug("Simulated swap fill",
		zap.String("chain", req.ChainName),
		zap.String("amountIn", req.AmountIn.String()),
		zap.String("amountOut", out.String()),
		zap.String("txRef", res.TxRef))
	return res, nil
}

func (r *SimulatedRunner) Bridge(ctx context.Context, req types.BridgeRequest) (types.BridgeResult, error) {
	select {
	case <-ctx.Done():
		return types.BridgeResult{}, ctx.Err()
	case <-time.After(r.latency):
	}

	out := req.Amount.Sub(req.Cost)
	res := types.BridgeResult{AmountReceived: out, TxRef: r.nextRef("bridge")}
	r.logger.Debug("Simulated bridge settlement",
		zap.String("provider", string(req.Provider)),
		zap.String("from", req.FromChain),
		zap.String("to", req.ToChain),
		zap.String("amountReceived", out.String()),
		zap.String("txRef", res.TxRef))
	return res, nil
}

// LiveRunner delegates legs to on-chain executors keyed by chain name
// and bridge provider, retrying each call under the configured policy.
type LiveRunner struct {
	swaps   map[string]SwapExecutor
	bridges map[types.BridgeProvider]BridgeExecutor
	retry   RetryPolicy
	logger  *zap.Logger
}

// NewLiveRunner wires per-chain swap executors and per-provider bridges.
func NewLiveRunner(swaps map[string]SwapExecutor, bridges map[types.BridgeProvider]BridgeExecutor, retry RetryPolicy, logger *zap.Logger) *LiveRunner {
	return &LiveRunner{swaps: swaps, bridges: bridges, retry: retry, logger: logger}
}

func (r *LiveRunner) Swap(ctx context.Context, req types.SwapRequest) (types.SwapResult, error) {
	exec, ok := r.swaps[req.ChainName]
	if !ok {
		return types.SwapResult{}, fmt.Errorf("no swap executor for chain %s", req.ChainName)
	}

	var res types.SwapResult
	err := r.retry.Do(ctx, "swap:"+req.ChainName, r.logger, func() error {
		var callErr error
		res, callErr = exec.ExecuteSwap(ctx, req)
		return callErr
	})
	return res, err
}

func (r *LiveRunner) Bridge(ctx context.Context, req types.BridgeRequest) (types.BridgeResult, error) {
	exec, ok := r.bridges[req.Provider]
	if !ok {
		return types.BridgeResult{}, fmt.Errorf("no bridge executor for provider %s", req.Provider)
	}

	var res types.BridgeResult
	err := r.retry.Do(ctx, "bridge:"+string(req.Provider), r.logger, func() error {
		var callErr error
		res, callErr = exec.ExecuteBridge(ctx, req)
		return callErr
	})
	return res, err
}
