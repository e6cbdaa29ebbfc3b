package types

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// ExecutionMode selects how pipeline legs are resolved.
type ExecutionMode string

const (
	// ModeSimulated resolves every leg with the deterministic arithmetic model.
	ModeSimulated ExecutionMode = "simulated"

	// ModeLive delegates every leg to the on-chain collaborators.
	ModeLive ExecutionMode = "live"
)

// Valid reports whether the mode is one of the two recognized values.
func (m ExecutionMode) Valid() bool {
	return m == ModeSimulated || m == ModeLive
}

// BridgeProvider identifies which bridge abstraction carries a leg.
// The USDT leg always rides the Stargate-style bridge and the USDC leg
// always rides the CCIP-style bridge, regardless of trade direction.
type BridgeProvider string

const (
	BridgeCCIP     BridgeProvider = "ccip"
	BridgeStargate BridgeProvider = "stargate"
)

// PoolQuote is a point-in-time snapshot of a concentrated-liquidity pool,
// produced fresh each polling cycle and never reused across cycles.
type PoolQuote struct {
	Pool      common.Address
	Token0    common.Address
	Token1    common.Address
	Decimals0 int
	Decimals1 int

	// SqrtPriceX96 is the raw sqrt(token1/token0) price in Q64.96 fixed point.
	SqrtPriceX96 *big.Int

	// Price is the decoded token1-per-token0 exchange rate.
	Price decimal.Decimal

	FetchedAt time.Time
}

// DirectionInput fully specifies one simulated round trip. It is stateless
// and consumed once.
type DirectionInput struct {
	Label       string
	StartAmount decimal.Decimal

	PoolA PoolQuote
	PoolB PoolQuote

	// Proportional swap fee per venue, in [0, 1).
	SwapFeeA decimal.Decimal
	SwapFeeB decimal.Decimal

	// Flat bridge cost per leg, in units of the token in flight.
	BridgeCostA decimal.Decimal
	BridgeCostB decimal.Decimal

	TokenIn  common.Address
	TokenOut common.Address

	TokenInSymbol  string
	TokenOutSymbol string

	// MinAmountOutFactor in (0, 1]; carried for downstream slippage guards.
	MinAmountOutFactor decimal.Decimal
}

// DirectionResult is the derived outcome of simulating one direction.
// Profit may be negative; the threshold check happens in the evaluator.
type DirectionResult struct {
	Label          string
	StartAmount    decimal.Decimal
	FinalAmount    decimal.Decimal
	Profit         decimal.Decimal
	MinAmountOut   decimal.Decimal
	TokenInSymbol  string
	TokenOutSymbol string
}

// LegKind distinguishes the two pipeline leg types.
type LegKind string

const (
	LegSwap   LegKind = "swap"
	LegBridge LegKind = "bridge"
)

// SwapRequest describes one swap leg handed to an executor. Rate is the
// direction-resolved conversion factor (output per input) the simulated
// runner fills against; live runners ignore it.
type SwapRequest struct {
	ChainName       string
	Router          common.Address
	TokenIn         common.Address
	TokenOut        common.Address
	TokenInDecimals int
	AmountIn        decimal.Decimal
	MinAmountOut    decimal.Decimal
	FeeFraction     decimal.Decimal
	Rate            decimal.Decimal
}

// SwapResult is the realized outcome of a swap leg.
type SwapResult struct {
	AmountOut decimal.Decimal
	TxRef     string
}

// BridgeRequest describes one bridge leg handed to an executor. Cost is
// the flat bridge fee the simulated runner deducts; live bridges charge
// their own fees on-chain.
type BridgeRequest struct {
	Provider  BridgeProvider
	FromChain string
	ToChain   string
	Token     common.Address
	Symbol    string
	Amount    decimal.Decimal
	Cost      decimal.Decimal
}

// BridgeResult is the realized outcome of a bridge leg.
type BridgeResult struct {
	AmountReceived decimal.Decimal
	TxRef          string
}

// ExecutionReport summarizes a completed pipeline run.
type ExecutionReport struct {
	RunID       string
	Direction   string
	StartAmount decimal.Decimal
	FinalAmount decimal.Decimal
	NetProfit   decimal.Decimal
	Mode        ExecutionMode
	StartedAt   time.Time
	FinishedAt  time.Time
}
