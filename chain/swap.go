package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/crossfi-labs/stablearb/types"
)

const routerABIJson = `[{
	"inputs": [{
		"components": [
			{"name": "tokenIn", "type": "address"},
			{"name": "tokenOut", "type": "address"},
			{"name": "fee", "type": "uint24"},
			{"name": "recipient", "type": "address"},
			{"name": "deadline", "type": "uint256"},
			{"name": "amountIn", "type": "uint256"},
			{"name": "amountOutMinimum", "type": "uint256"},
			{"name": "sqrtPriceLimitX96", "type": "uint160"}
		],
		"name": "params",
		"type": "tuple"
	}],
	"name": "exactInputSingle",
	"outputs": [{"name": "amountOut", "type": "uint256"}],
	"stateMutability": "payable",
	"type": "function"
}]`

// swapGasLimit covers a single-hop exactInputSingle with margin.
const swapGasLimit = 300_000

// feeTierDenominator converts a fractional fee to the router's
// hundredths-of-a-bip fee tier (0.0005 -> 500).
const feeTierDenominator = 1_000_000

// exactInputSingleParams mirrors the router's tuple argument.
type exactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	Fee               *big.Int
	Recipient         common.Address
	Deadline          *big.Int
	AmountIn          *big.Int
	AmountOutMinimum  *big.Int
	SqrtPriceLimitX96 *big.Int
}

// RouterSwapExecutor submits exactInputSingle swaps on one venue and
// signs them with the engine key. The realized fill is reported as the
// minimum acceptable output; reconciling the true fill from the receipt
// is left to offline accounting.
type RouterSwapExecutor struct {
	backend   Backend
	chainID   *big.Int
	chainName string
	key       *ecdsa.PrivateKey
	sender    common.Address
	routerABI abi.ABI
	logger    *zap.Logger
}

// NewRouterSwapExecutor builds a swap executor for one chain. keyHex is
// the hex-encoded signer key sourced from the environment.
func NewRouterSwapExecutor(backend Backend, chainID uint64, chainName, keyHex string, logger *zap.Logger) (*RouterSwapExecutor, error) {
	parsedABI, err := abi.JSON(strings.NewReader(routerABIJson))
	if err != nil {
		return nil, fmt.Errorf("failed to parse router ABI: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse signer key: %w", err)
	}

	return &RouterSwapExecutor{
		backend:   backend,
		chainID:   new(big.Int).SetUint64(chainID),
		chainName: chainName,
		key:       key,
		sender:    crypto.PubkeyToAddress(key.PublicKey),
		routerABI: parsedABI,
		logger:    logger,
	}, nil
}

// ExecuteSwap packs, signs and submits one swap transaction.
func (e *RouterSwapExecutor) ExecuteSwap(ctx context.Context, req types.SwapRequest) (types.SwapResult, error) {
	amountIn := toBaseUnits(req.AmountIn, req.TokenInDecimals)
	minOut := toBaseUnits(req.MinAmountOut, req.TokenInDecimals)

	feeTier := req.FeeFraction.Mul(decimal.NewFromInt(feeTierDenominator)).IntPart()
	params := exactInputSingleParams{
		TokenIn:           req.TokenIn,
		TokenOut:          req.TokenOut,
		Fee:               big.NewInt(feeTier),
		Recipient:         e.sender,
		Deadline:          big.NewInt(0),
		AmountIn:          amountIn,
		AmountOutMinimum:  minOut,
		SqrtPriceLimitX96: big.NewInt(0),
	}

	data, err := e.routerABI.Pack("exactInputSingle", params)
	if err != nil {
		return types.SwapResult{}, fmt.Errorf("failed to pack swap call: %w", err)
	}

	nonce, err := e.backend.PendingNonceAt(ctx, e.sender)
	if err != nil {
		return types.SwapResult{}, fmt.Errorf("failed to fetch nonce: %w", err)
	}
	gasPrice, err := e.backend.SuggestGasPrice(ctx)
	if err != nil {
		return types.SwapResult{}, fmt.Errorf("failed to fetch gas price: %w", err)
	}

	tx := gethtypes.NewTransaction(nonce, req.Router, big.NewInt(0), swapGasLimit, gasPrice, data)
	signedTx, err := gethtypes.SignTx(tx, gethtypes.LatestSignerForChainID(e.chainID), e.key)
	if err != nil {
		return types.SwapResult{}, fmt.Errorf("failed to sign swap transaction: %w", err)
	}

	if err := e.backend.SendTransaction(ctx, signedTx); err != nil {
		return types.SwapResult{}, fmt.Errorf("failed to submit swap transaction: %w", err)
	}

	e.logger.Info("Swap submitted",
		zap.String("chain", e.chainName),
		zap.String("tx", signedTx.Hash().Hex()),
		zap.String("token_in", req.TokenIn.Hex()),
		zap.String("token_out", req.TokenOut.Hex()),
		zap.String("amount_in", req.AmountIn.String()))

	return types.SwapResult{
		AmountOut: req.MinAmountOut,
		TxRef:     signedTx.Hash().Hex(),
	}, nil
}

func toBaseUnits(amount decimal.Decimal, decimals int) *big.Int {
	return amount.Shift(int32(decimals)).Truncate(0).BigInt()
}
