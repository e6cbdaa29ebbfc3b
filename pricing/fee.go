package pricing

import "github.com/shopspring/decimal"

// DefaultSlippage is the multiplicative slippage attenuation applied after
// the swap fee when no explicit fraction is configured.
var DefaultSlippage = decimal.NewFromFloat(0.0005)

// FeeModel applies proportional swap fees and simulated slippage.
// Fee and slippage fractions must be in [0, 1); the config layer rejects
// anything outside that range before a FeeModel is ever constructed.
type FeeModel struct {
	slippage decimal.Decimal
}

// NewFeeModel returns a FeeModel with the given slippage fraction.
// A zero slippage falls back to DefaultSlippage.
func NewFeeModel(slippage decimal.Decimal) *FeeModel {
	if slippage.IsZero() {
		slippage = DefaultSlippage
	}
	return &FeeModel{slippage: slippage}
}

// ApplyFee returns amount * (1 - feeFraction).
func (f *FeeModel) ApplyFee(amount, feeFraction decimal.Decimal) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(1).Sub(feeFraction))
}

// ApplySlippage attenuates amount by the configured slippage fraction.
func (f *FeeModel) ApplySlippage(amount decimal.Decimal) decimal.Decimal {
	return f.ApplyFee(amount, f.slippage)
}

// Slippage returns the configured slippage fraction.
func (f *FeeModel) Slippage() decimal.Decimal {
	return f.slippage
}
