// Package arbitrage evaluates the two round-trip directions each polling
// cycle and picks one to execute.
package arbitrage

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/crossfi-labs/stablearb/config"
	"github.com/crossfi-labs/stablearb/types"
)

// Direction labels, in evaluation order.
const (
	DirectionUSDCFirst = "USDC->USDT->USDC"
	DirectionUSDTFirst = "USDT->USDC->USDT"
)

// DirectionSimulator estimates the outcome of one round trip.
type DirectionSimulator interface {
	Simulate(types.DirectionInput) (types.DirectionResult, error)
}

// Evaluator runs both directions against fresh pool quotes and selects
// the first one whose profit exceeds the configured threshold. The order
// is fixed: the USDC-starting direction always wins a tie even when the
// USDT-starting direction is more profitable. Exactly one direction is
// ever executed per cycle.
type Evaluator struct {
	cfg    *config.Config
	sim    DirectionSimulator
	logger *zap.Logger

	startAmount  decimal.Decimal
	threshold    decimal.Decimal
	swapFeeA     decimal.Decimal
	swapFeeB     decimal.Decimal
	costUSDC     decimal.Decimal
	costUSDT     decimal.Decimal
	minOutFactor decimal.Decimal
}

// NewEvaluator creates an evaluator bound to the process configuration.
func NewEvaluator(cfg *config.Config, sim DirectionSimulator, logger *zap.Logger) *Evaluator {
	return &Evaluator{
		cfg:          cfg,
		sim:          sim,
		logger:       logger,
		startAmount:  decimal.NewFromFloat(cfg.StartAmount),
		threshold:    decimal.NewFromFloat(cfg.ProfitThreshold),
		swapFeeA:     decimal.NewFromFloat(cfg.ChainA.SwapFee),
		swapFeeB:     decimal.NewFromFloat(cfg.ChainB.SwapFee),
		costUSDC:     decimal.NewFromFloat(cfg.BridgeCostUSDC),
		costUSDT:     decimal.NewFromFloat(cfg.BridgeCostUSDT),
		minOutFactor: decimal.NewFromFloat(cfg.MinAmountOutFactor),
	}
}

// Evaluate simulates both directions and returns the selected one, or
// ok=false when neither clears the threshold.
func (e *Evaluator) Evaluate(quoteA, quoteB types.PoolQuote) (types.DirectionResult, bool, error) {
	for _, in := range e.buildDirections(quoteA, quoteB) {
		result, err := e.sim.Simulate(in)
		if err != nil {
			return types.DirectionResult{}, false, err
		}

		e.logger.Debug("Direction simulated",
			zap.String("direction", result.Label),
			zap.String("start_amount", result.StartAmount.String()),
			zap.String("final_amount", result.FinalAmount.String()),
			zap.String("profit", result.Profit.String()))

		if result.Profit.GreaterThan(e.threshold) {
			return result, true, nil
		}
	}

	return types.DirectionResult{}, false, nil
}

// buildDirections assembles the two DirectionInputs. The bridge cost per
// leg follows the token in flight: the first leg of the USDC-starting
// direction carries USDT and pays the USDT bridge cost, and vice versa.
func (e *Evaluator) buildDirections(quoteA, quoteB types.PoolQuote) []types.DirectionInput {
	chainA, chainB := &e.cfg.ChainA, &e.cfg.ChainB

	return []types.DirectionInput{
		{
			Label:              DirectionUSDCFirst,
			StartAmount:        e.startAmount,
			PoolA:              quoteA,
			PoolB:              quoteB,
			SwapFeeA:           e.swapFeeA,
			SwapFeeB:           e.swapFeeB,
			BridgeCostA:        e.costUSDT,
			BridgeCostB:        e.costUSDC,
			TokenIn:            chainA.USDCAddress(),
			TokenOut:           chainB.USDCAddress(),
			TokenInSymbol:      "USDC",
			TokenOutSymbol:     "USDC",
			MinAmountOutFactor: e.minOutFactor,
		},
		{
			Label:              DirectionUSDTFirst,
			StartAmount:        e.startAmount,
			PoolA:              quoteA,
			PoolB:              quoteB,
			SwapFeeA:           e.swapFeeA,
			SwapFeeB:           e.swapFeeB,
			BridgeCostA:        e.costUSDC,
			BridgeCostB:        e.costUSDT,
			TokenIn:            chainA.USDTAddress(),
			TokenOut:           chainB.USDTAddress(),
			TokenInSymbol:      "USDT",
			TokenOutSymbol:     "USDT",
			MinAmountOutFactor: e.minOutFactor,
		},
	}
}
