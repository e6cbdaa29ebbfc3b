package simulator

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crossfi-labs/stablearb/pricing"
	"github.com/crossfi-labs/stablearb/types"
)

var (
	usdcA = common.HexToAddress("0x00000000000000000000000000000000000000A1")
	usdtA = common.HexToAddress("0x00000000000000000000000000000000000000A2")
	usdcB = common.HexToAddress("0x00000000000000000000000000000000000000B1")
	usdtB = common.HexToAddress("0x00000000000000000000000000000000000000B2")
)

func newTestSimulator() *Simulator {
	return NewSimulator(pricing.NewFeeModel(decimal.NewFromFloat(0.0005)))
}

func input(priceA, priceB float64) types.DirectionInput {
	return types.DirectionInput{
		Label:       "USDC->USDT->USDC",
		StartAmount: decimal.NewFromInt(10),
		PoolA: types.PoolQuote{
			Token0: usdcA,
			Token1: usdtA,
			Price:  decimal.NewFromFloat(priceA),
		},
		PoolB: types.PoolQuote{
			Token0: usdtB,
			Token1: usdcB,
			Price:  decimal.NewFromFloat(priceB),
		},
		TokenIn:            usdcA,
		TokenOut:           usdcB,
		TokenInSymbol:      "USDC",
		TokenOutSymbol:     "USDC",
		MinAmountOutFactor: decimal.NewFromFloat(0.995),
	}
}

func TestSimulateLosslessRoundTrip(t *testing.T) {
	// Reciprocal prices, no fees, no bridge costs: the trip must return
	// exactly the start amount.
	sim := newTestSimulator()

	in := input(1.25, 0)
	in.PoolB = types.PoolQuote{Token0: usdcB, Token1: usdtB, Price: decimal.NewFromFloat(1.25)}

	result, err := sim.Simulate(in)
	require.NoError(t, err)

	assert.True(t, result.FinalAmount.Equal(in.StartAmount),
		"expected %s, got %s", in.StartAmount, result.FinalAmount)
	assert.True(t, result.Profit.IsZero())
}

func TestSimulateRegression(t *testing.T) {
	// Pinned scenario: start 10, prices 1.01 and 0.99, 0.05% fee per
	// swap, 0.1 flat bridge cost per leg.
	sim := newTestSimulator()

	in := input(1.01, 0.99)
	in.SwapFeeA = decimal.NewFromFloat(0.0005)
	in.SwapFeeB = decimal.NewFromFloat(0.0005)
	in.BridgeCostA = decimal.NewFromFloat(0.1)
	in.BridgeCostB = decimal.NewFromFloat(0.1)

	result, err := sim.Simulate(in)
	require.NoError(t, err)

	expected := decimal.NewFromFloat(9.79005299975)
	assert.True(t, result.FinalAmount.Sub(expected).Abs().LessThan(decimal.NewFromFloat(1e-9)),
		"expected %s, got %s", expected, result.FinalAmount)
	assert.True(t, result.Profit.IsNegative())
	assert.True(t, result.MinAmountOut.Equal(decimal.NewFromFloat(9.95)))
}

func TestSimulateTokenOrientation(t *testing.T) {
	// Flipping token0 on pool A switches the first swap from multiply
	// to divide.
	sim := newTestSimulator()

	mul := input(1.02, 1)
	mulResult, err := sim.Simulate(mul)
	require.NoError(t, err)

	div := input(1.02, 1)
	div.PoolA.Token0, div.PoolA.Token1 = usdtA, usdcA
	divResult, err := sim.Simulate(div)
	require.NoError(t, err)

	assert.True(t, mulResult.FinalAmount.GreaterThan(divResult.FinalAmount))
}

func TestSimulateNegativeIntermediate(t *testing.T) {
	// A bridge cost above the swapped amount goes negative instead of
	// clamping; the threshold check downstream rejects it.
	sim := newTestSimulator()

	in := input(1, 1)
	in.BridgeCostA = decimal.NewFromInt(100)

	result, err := sim.Simulate(in)
	require.NoError(t, err)
	assert.True(t, result.FinalAmount.IsNegative())
}

func TestSimulateZeroPrice(t *testing.T) {
	sim := newTestSimulator()

	in := input(0, 1)
	_, err := sim.Simulate(in)
	assert.True(t, errors.Is(err, types.ErrArithmeticDomain))
}
