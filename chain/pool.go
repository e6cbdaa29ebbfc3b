package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	"github.com/crossfi-labs/stablearb/pricing"
	"github.com/crossfi-labs/stablearb/types"
)

// Concentrated-liquidity pool ABI, slot0 plus token metadata.
const poolABIJson = `[{
	"inputs": [],
	"name": "slot0",
	"outputs": [
		{"name": "sqrtPriceX96", "type": "uint160"},
		{"name": "tick", "type": "int24"},
		{"name": "observationIndex", "type": "uint16"},
		{"name": "observationCardinality", "type": "uint16"},
		{"name": "observationCardinalityNext", "type": "uint16"},
		{"name": "feeProtocol", "type": "uint8"},
		{"name": "unlocked", "type": "bool"}
	],
	"stateMutability": "view",
	"type": "function"
}, {
	"inputs": [],
	"name": "token0",
	"outputs": [{"name": "", "type": "address"}],
	"stateMutability": "view",
	"type": "function"
}, {
	"inputs": [],
	"name": "token1",
	"outputs": [{"name": "", "type": "address"}],
	"stateMutability": "view",
	"type": "function"
}]`

const erc20ABIJson = `[{
	"inputs": [],
	"name": "decimals",
	"outputs": [{"name": "", "type": "uint8"}],
	"stateMutability": "view",
	"type": "function"
}]`

// decimalsCacheSize bounds the token decimals cache. Two venues with
// two tokens each need four entries; the headroom costs nothing.
const decimalsCacheSize = 64

// PoolReader produces fresh PoolQuote snapshots from one venue's pool.
// Token decimals are immutable on-chain, so they are cached; everything
// else is re-fetched every cycle.
type PoolReader struct {
	backend  Backend
	pool     common.Address
	poolABI  abi.ABI
	erc20ABI abi.ABI
	decimals *lru.Cache
	logger   *zap.Logger
}

// NewPoolReader builds a reader for the pool at addr.
func NewPoolReader(backend Backend, addr common.Address, logger *zap.Logger) (*PoolReader, error) {
	poolABI, err := abi.JSON(strings.NewReader(poolABIJson))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool ABI: %w", err)
	}
	erc20ABI, err := abi.JSON(strings.NewReader(erc20ABIJson))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}
	cache, err := lru.New(decimalsCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create decimals cache: %w", err)
	}

	return &PoolReader{
		backend:  backend,
		pool:     addr,
		poolABI:  poolABI,
		erc20ABI: erc20ABI,
		decimals: cache,
		logger:   logger,
	}, nil
}

// Quote fetches slot0 and token metadata and decodes the pool price.
// Every failure is wrapped in ErrPriceFetch so the scheduler can abort
// the cycle on a single match.
func (r *PoolReader) Quote(ctx context.Context) (types.PoolQuote, error) {
	sqrtPrice, err := r.slot0(ctx)
	if err != nil {
		return types.PoolQuote{}, fmt.Errorf("%w: slot0 on pool %s: %v", types.ErrPriceFetch, r.pool.Hex(), err)
	}

	token0, err := r.tokenAt(ctx, "token0")
	if err != nil {
		return types.PoolQuote{}, fmt.Errorf("%w: token0 on pool %s: %v", types.ErrPriceFetch, r.pool.Hex(), err)
	}
	token1, err := r.tokenAt(ctx, "token1")
	if err != nil {
		return types.PoolQuote{}, fmt.Errorf("%w: token1 on pool %s: %v", types.ErrPriceFetch, r.pool.Hex(), err)
	}

	dec0, err := r.tokenDecimals(ctx, token0)
	if err != nil {
		return types.PoolQuote{}, fmt.Errorf("%w: decimals of %s: %v", types.ErrPriceFetch, token0.Hex(), err)
	}
	dec1, err := r.tokenDecimals(ctx, token1)
	if err != nil {
		return types.PoolQuote{}, fmt.Errorf("%w: decimals of %s: %v", types.ErrPriceFetch, token1.Hex(), err)
	}

	price, err := pricing.PriceFromSqrtX96(sqrtPrice, dec0, dec1)
	if err != nil {
		return types.PoolQuote{}, err
	}

	quote := types.PoolQuote{
		Pool:         r.pool,
		Token0:       token0,
		Token1:       token1,
		Decimals0:    dec0,
		Decimals1:    dec1,
		SqrtPriceX96: sqrtPrice,
		Price:        price,
		FetchedAt:    time.Now(),
	}

	r.logger.Debug("Pool quoted",
		zap.String("pool", r.pool.Hex()),
		zap.String("sqrt_price_x96", sqrtPrice.String()),
		zap.String("price", price.String()))
	return quote, nil
}

func (r *PoolReader) slot0(ctx context.Context) (*big.Int, error) {
	out, err := r.call(ctx, r.pool, r.poolABI, "slot0")
	if err != nil {
		return nil, err
	}
	sqrtPrice, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected slot0 output type %T", out[0])
	}
	return sqrtPrice, nil
}

func (r *PoolReader) tokenAt(ctx context.Context, method string) (common.Address, error) {
	out, err := r.call(ctx, r.pool, r.poolABI, method)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected %s output type %T", method, out[0])
	}
	return addr, nil
}

func (r *PoolReader) tokenDecimals(ctx context.Context, token common.Address) (int, error) {
	if cached, ok := r.decimals.Get(token); ok {
		return cached.(int), nil
	}

	out, err := r.call(ctx, token, r.erc20ABI, "decimals")
	if err != nil {
		return 0, err
	}
	dec, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals output type %T", out[0])
	}

	r.decimals.Add(token, int(dec))
	return int(dec), nil
}

func (r *PoolReader) call(ctx context.Context, to common.Address, contractABI abi.ABI, method string) ([]interface{}, error) {
	data, err := contractABI.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	raw, err := r.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s call failed: %w", method, err)
	}

	out, err := contractABI.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s returned no outputs", method)
	}
	return out, nil
}
