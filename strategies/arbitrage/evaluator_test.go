package arbitrage

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crossfi-labs/stablearb/config"
	"github.com/crossfi-labs/stablearb/types"
)

type stubSimulator struct {
	profits map[string]decimal.Decimal
	calls   []string
	err     error
}

func (s *stubSimulator) Simulate(in types.DirectionInput) (types.DirectionResult, error) {
	s.calls = append(s.calls, in.Label)
	if s.err != nil {
		return types.DirectionResult{}, s.err
	}
	profit := s.profits[in.Label]
	return types.DirectionResult{
		Label:       in.Label,
		StartAmount: in.StartAmount,
		FinalAmount: in.StartAmount.Add(profit),
		Profit:      profit,
	}, nil
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.ProfitThreshold = 0.01
	cfg.ChainA = config.ChainConfig{
		Name:    "alpha",
		ChainID: 1,
		USDC:    "0x00000000000000000000000000000000000000A1",
		USDT:    "0x00000000000000000000000000000000000000A2",
		SwapFee: 0.0005,
	}
	cfg.ChainB = config.ChainConfig{
		Name:    "beta",
		ChainID: 2,
		USDC:    "0x00000000000000000000000000000000000000B1",
		USDT:    "0x00000000000000000000000000000000000000B2",
		SwapFee: 0.0005,
	}
	return cfg
}

func TestEvaluateFixedOrder(t *testing.T) {
	// Both directions clear the threshold but the USDC-starting one is
	// evaluated first and wins even though it is less profitable.
	sim := &stubSimulator{profits: map[string]decimal.Decimal{
		DirectionUSDCFirst: decimal.NewFromFloat(0.02),
		DirectionUSDTFirst: decimal.NewFromFloat(0.05),
	}}
	ev := NewEvaluator(testConfig(), sim, zap.NewNop())

	result, ok, err := ev.Evaluate(types.PoolQuote{}, types.PoolQuote{})
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, DirectionUSDCFirst, result.Label)
	assert.Equal(t, []string{DirectionUSDCFirst}, sim.calls)
}

func TestEvaluateFallsThroughToSecondDirection(t *testing.T) {
	sim := &stubSimulator{profits: map[string]decimal.Decimal{
		DirectionUSDCFirst: decimal.NewFromFloat(-0.3),
		DirectionUSDTFirst: decimal.NewFromFloat(0.05),
	}}
	ev := NewEvaluator(testConfig(), sim, zap.NewNop())

	result, ok, err := ev.Evaluate(types.PoolQuote{}, types.PoolQuote{})
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, DirectionUSDTFirst, result.Label)
	assert.Equal(t, []string{DirectionUSDCFirst, DirectionUSDTFirst}, sim.calls)
}

func TestEvaluateNothingClearsThreshold(t *testing.T) {
	sim := &stubSimulator{profits: map[string]decimal.Decimal{
		DirectionUSDCFirst: decimal.NewFromFloat(0.001),
		DirectionUSDTFirst: decimal.NewFromFloat(0.009),
	}}
	ev := NewEvaluator(testConfig(), sim, zap.NewNop())

	_, ok, err := ev.Evaluate(types.PoolQuote{}, types.PoolQuote{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, sim.calls, 2)
}

func TestEvaluateProfitAtThresholdIsRejected(t *testing.T) {
	// The comparison is strict: profit equal to the threshold does not
	// trigger execution.
	sim := &stubSimulator{profits: map[string]decimal.Decimal{
		DirectionUSDCFirst: decimal.NewFromFloat(0.01),
		DirectionUSDTFirst: decimal.NewFromFloat(0.01),
	}}
	ev := NewEvaluator(testConfig(), sim, zap.NewNop())

	_, ok, err := ev.Evaluate(types.PoolQuote{}, types.PoolQuote{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluatePropagatesSimulatorError(t *testing.T) {
	simErr := errors.New("boom")
	sim := &stubSimulator{err: simErr}
	ev := NewEvaluator(testConfig(), sim, zap.NewNop())

	_, ok, err := ev.Evaluate(types.PoolQuote{}, types.PoolQuote{})
	assert.False(t, ok)
	assert.ErrorIs(t, err, simErr)
}

func TestBuildDirectionsBridgeCosts(t *testing.T) {
	// The bridge cost follows the token in flight: the USDC-first
	// direction moves USDT on its first leg.
	cfg := testConfig()
	cfg.BridgeCostUSDC = 0.3
	cfg.BridgeCostUSDT = 0.7
	ev := NewEvaluator(cfg, &stubSimulator{}, zap.NewNop())

	dirs := ev.buildDirections(types.PoolQuote{}, types.PoolQuote{})
	require.Len(t, dirs, 2)

	assert.Equal(t, DirectionUSDCFirst, dirs[0].Label)
	assert.True(t, dirs[0].BridgeCostA.Equal(decimal.NewFromFloat(0.7)))
	assert.True(t, dirs[0].BridgeCostB.Equal(decimal.NewFromFloat(0.3)))
	assert.Equal(t, cfg.ChainA.USDCAddress(), dirs[0].TokenIn)

	assert.Equal(t, DirectionUSDTFirst, dirs[1].Label)
	assert.True(t, dirs[1].BridgeCostA.Equal(decimal.NewFromFloat(0.3)))
	assert.True(t, dirs[1].BridgeCostB.Equal(decimal.NewFromFloat(0.7)))
	assert.Equal(t, cfg.ChainA.USDTAddress(), dirs[1].TokenIn)
}
