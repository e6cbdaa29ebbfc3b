package chain

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/crossfi-labs/stablearb/types"
)

// CCIPBridge carries USDC legs. Live message construction is not wired
// yet; the executor surfaces ErrNotImplemented so live runs fail the
// bridge stage cleanly after retries.
type CCIPBridge struct {
	logger *zap.Logger
}

// NewCCIPBridge returns the USDC bridge executor.
func NewCCIPBridge(logger *zap.Logger) *CCIPBridge {
	return &CCIPBridge{logger: logger}
}

func (b *CCIPBridge) ExecuteBridge(_ context.Context, req types.BridgeRequest) (types.BridgeResult, error) {
	b.logger.Warn("CCIP bridge requested but not wired",
		zap.String("from", req.FromChain),
		zap.String("to", req.ToChain),
		zap.String("amount", req.Amount.String()))
	return types.BridgeResult{}, fmt.Errorf("ccip transfer %s -> %s: %w", req.FromChain, req.ToChain, types.ErrNotImplemented)
}

// StargateBridge carries USDT legs. Same status as CCIPBridge.
type StargateBridge struct {
	logger *zap.Logger
}

// NewStargateBridge returns the USDT bridge executor.
func NewStargateBridge(logger *zap.Logger) *StargateBridge {
	return &StargateBridge{logger: logger}
}

func (b *StargateBridge) ExecuteBridge(_ context.Context, req types.BridgeRequest) (types.BridgeResult, error) {
	b.logger.Warn("Stargate bridge requested but not wired",
		zap.String("from", req.FromChain),
		zap.String("to", req.ToChain),
		zap.String("amount", req.Amount.String()))
	return types.BridgeResult{}, fmt.Errorf("stargate transfer %s -> %s: %w", req.FromChain, req.ToChain, types.ErrNotImplemented)
}
