package chain

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crossfi-labs/stablearb/types"
)

var (
	poolAddr   = common.HexToAddress("0x00000000000000000000000000000000000000F0")
	token0     = common.HexToAddress("0x00000000000000000000000000000000000000F1")
	token1     = common.HexToAddress("0x00000000000000000000000000000000000000F2")
	sqrtOneX96 = new(big.Int).Lsh(big.NewInt(1), 96)
)

// fakeBackend answers contract calls from a canned response table keyed
// by method selector.
type fakeBackend struct {
	responses map[string][]byte
	failWith  error
	calls     map[string]int
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()

	poolABI, err := abi.JSON(strings.NewReader(poolABIJson))
	require.NoError(t, err)
	erc20ABI, err := abi.JSON(strings.NewReader(erc20ABIJson))
	require.NoError(t, err)

	slot0Out, err := poolABI.Methods["slot0"].Outputs.Pack(
		sqrtOneX96, big.NewInt(0), uint16(0), uint16(0), uint16(0), uint8(0), true)
	require.NoError(t, err)
	token0Out, err := poolABI.Methods["token0"].Outputs.Pack(token0)
	require.NoError(t, err)
	token1Out, err := poolABI.Methods["token1"].Outputs.Pack(token1)
	require.NoError(t, err)
	decimalsOut, err := erc20ABI.Methods["decimals"].Outputs.Pack(uint8(6))
	require.NoError(t, err)

	return &fakeBackend{
		responses: map[string][]byte{
			selector(poolABI, "slot0"):     slot0Out,
			selector(poolABI, "token0"):    token0Out,
			selector(poolABI, "token1"):    token1Out,
			selector(erc20ABI, "decimals"): decimalsOut,
		},
		calls: make(map[string]int),
	}
}

func selector(a abi.ABI, method string) string {
	return string(a.Methods[method].ID)
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	sel := string(msg.Data[:4])
	f.calls[sel]++
	resp, ok := f.responses[sel]
	if !ok {
		return nil, errors.New("unexpected call")
	}
	return resp, nil
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return 7, nil
}

func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (f *fakeBackend) SendTransaction(context.Context, *gethtypes.Transaction) error {
	return nil
}

func TestPoolReaderQuote(t *testing.T) {
	backend := newFakeBackend(t)
	reader, err := NewPoolReader(backend, poolAddr, zap.NewNop())
	require.NoError(t, err)

	quote, err := reader.Quote(context.Background())
	require.NoError(t, err)

	assert.Equal(t, poolAddr, quote.Pool)
	assert.Equal(t, token0, quote.Token0)
	assert.Equal(t, token1, quote.Token1)
	assert.Equal(t, 6, quote.Decimals0)
	assert.Equal(t, 6, quote.Decimals1)
	assert.Equal(t, 0, quote.SqrtPriceX96.Cmp(sqrtOneX96))
	assert.False(t, quote.FetchedAt.IsZero())

	diff := quote.Price.Sub(decimal.NewFromInt(1)).Abs()
	assert.True(t, diff.LessThan(decimal.NewFromFloat(1e-6)), "got price %s", quote.Price)
}

func TestPoolReaderCachesDecimals(t *testing.T) {
	backend := newFakeBackend(t)
	reader, err := NewPoolReader(backend, poolAddr, zap.NewNop())
	require.NoError(t, err)

	erc20ABI, err := abi.JSON(strings.NewReader(erc20ABIJson))
	require.NoError(t, err)
	decimalsSel := selector(erc20ABI, "decimals")

	_, err = reader.Quote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, backend.calls[decimalsSel])

	// Decimals are immutable, so the second quote skips those calls.
	_, err = reader.Quote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, backend.calls[decimalsSel])
}

func TestPoolReaderWrapsFetchFailures(t *testing.T) {
	backend := newFakeBackend(t)
	backend.failWith = errors.New("rpc timeout")
	reader, err := NewPoolReader(backend, poolAddr, zap.NewNop())
	require.NoError(t, err)

	_, err = reader.Quote(context.Background())
	assert.True(t, errors.Is(err, types.ErrPriceFetch), "got %v", err)
}

func TestRateLimitedBackendPassesThrough(t *testing.T) {
	backend := newFakeBackend(t)
	limited := NewRateLimitedBackend(backend, 100, 10)

	nonce, err := limited.PendingNonceAt(context.Background(), common.Address{})
	require.NoError(t, err)
	assert.Equal(t, uint64(7), nonce)

	price, err := limited.SuggestGasPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, price.Cmp(big.NewInt(1_000_000_000)))
}
