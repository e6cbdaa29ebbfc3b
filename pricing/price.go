// Package pricing converts raw pool state into decimal exchange rates and
// models proportional swap fees and slippage.
package pricing

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/crossfi-labs/stablearb/types"
)

var (
	// q192 is 2^192, the denominator after squaring a Q64.96 sqrt price.
	q192 = new(big.Int).Lsh(big.NewInt(1), 192)

	ten = big.NewInt(10)
)

// decimalPlaces is the precision kept when narrowing the big.Rat price to
// a decimal. Stablecoin rates live near 1.0, so 18 places is far beyond
// the 1e-6 accuracy the engine needs.
const decimalPlaces = 18

// PriceFromSqrtX96 decodes a Q64.96 square-root price into the
// token1-per-token0 exchange rate:
//
//	price = sqrtPriceX96^2 * 10^(decimals0-decimals1) / 2^192
//
// The multiply and exponent steps stay in arbitrary-precision integers;
// only the final division narrows to a decimal. A negative decimals
// exponent divides instead of multiplying.
func PriceFromSqrtX96(sqrtPriceX96 *big.Int, decimals0, decimals1 int) (decimal.Decimal, error) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return decimal.Zero, types.ErrArithmeticDomain
	}

	numerator := new(big.Int).Mul(sqrtPriceX96, sqrtPriceX96)
	denominator := new(big.Int).Set(q192)

	exp := decimals0 - decimals1
	switch {
	case exp > 0:
		numerator.Mul(numerator, pow10(exp))
	case exp < 0:
		denominator.Mul(denominator, pow10(-exp))
	}

	rat := new(big.Rat).SetFrac(numerator, denominator)
	return decimal.NewFromBigRat(rat, decimalPlaces), nil
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(ten, big.NewInt(int64(n)), nil)
}
