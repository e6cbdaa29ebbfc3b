// Package simulator estimates the outcome of one cross-chain round trip
// without touching the network.
package simulator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/crossfi-labs/stablearb/pricing"
	"github.com/crossfi-labs/stablearb/types"
)

// Simulator walks a DirectionInput through the four arithmetic steps of a
// round trip: swap on pool A, bridge, swap on pool B, bridge back.
type Simulator struct {
	fees *pricing.FeeModel
}

// NewSimulator creates a simulator using the given fee model.
func NewSimulator(fees *pricing.FeeModel) *Simulator {
	return &Simulator{fees: fees}
}

// Simulate produces a DirectionResult for one direction. Bridge costs are
// subtracted without clamping, so intermediate amounts may go negative;
// the evaluator's profit threshold absorbs those cases.
func (s *Simulator) Simulate(in types.DirectionInput) (types.DirectionResult, error) {
	if in.PoolA.Price.IsZero() || in.PoolB.Price.IsZero() {
		return types.DirectionResult{}, fmt.Errorf("%s: zero pool price: %w", in.Label, types.ErrArithmeticDomain)
	}

	// Swap on pool A. The token0 match decides whether the quote rate
	// multiplies or divides; there is no fallback heuristic.
	var afterSwapA decimal.Decimal
	if in.PoolA.Token0 == in.TokenIn {
		afterSwapA = s.fees.ApplyFee(in.StartAmount.Mul(in.PoolA.Price), in.SwapFeeA)
	} else {
		afterSwapA = s.fees.ApplyFee(in.StartAmount.Div(in.PoolA.Price), in.SwapFeeA)
	}

	afterBridgeA := afterSwapA.Sub(in.BridgeCostA)

	// Swap on pool B, converting back toward the output token.
	var afterSwapB decimal.Decimal
	if in.PoolB.Token0 == in.TokenOut {
		afterSwapB = s.fees.ApplyFee(afterBridgeA.Div(in.PoolB.Price), in.SwapFeeB)
	} else {
		afterSwapB = s.fees.ApplyFee(afterBridgeA.Mul(in.PoolB.Price), in.SwapFeeB)
	}

	finalAmount := afterSwapB.Sub(in.BridgeCostB)

	return types.DirectionResult{
		Label:          in.Label,
		StartAmount:    in.StartAmount,
		FinalAmount:    finalAmount,
		Profit:         finalAmount.Sub(in.StartAmount),
		MinAmountOut:   in.StartAmount.Mul(in.MinAmountOutFactor),
		TokenInSymbol:  in.TokenInSymbol,
		TokenOutSymbol: in.TokenOutSymbol,
	}, nil
}
