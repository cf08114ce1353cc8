package fees

import (
	"fmt"
	"math/big"

	"github.com/rexeee/mai-protocol/internal/order"
	"github.com/rexeee/mai-protocol/pkg/types"
)

// FeeRateBase is the denominator for all fee and rebate rates: a rate of 250
// is 0.25% of the fee notional.
const FeeRateBase = 100000

//nolint:gochecknoglobals // shared denominator
var feeRateBase = big.NewInt(FeeRateBase)

// Fees holds the amounts owed on one settlement leg. TakerFee and MakerFee
// flow to the relayer; MakerRebate offsets the maker fee and is already
// clamped so the maker's net fee is never negative.
type Fees struct {
	TakerFee    *big.Int
	MakerFee    *big.Int
	MakerRebate *big.Int
}

// MakerNet is what the maker actually pays the relayer: fee minus rebate.
func (f *Fees) MakerNet() *big.Int {
	return new(big.Int).Sub(f.MakerFee, f.MakerRebate)
}

// Compute derives the fees for one leg. Each amount is
// notional * rate / FeeRateBase with integer division truncating toward
// zero; truncation never rounds a fee up beyond what the signed rate
// authorizes. The rebate is capped at the maker fee.
func Compute(notional *big.Int, takerFeeRate, makerFeeRate, makerRebateRate uint16) *Fees {
	f := &Fees{
		TakerFee:    scale(notional, takerFeeRate),
		MakerFee:    scale(notional, makerFeeRate),
		MakerRebate: scale(notional, makerRebateRate),
	}
	if f.MakerRebate.Cmp(f.MakerFee) > 0 {
		f.MakerRebate = new(big.Int).Set(f.MakerFee)
	}
	return f
}

func scale(notional *big.Int, rate uint16) *big.Int {
	v := new(big.Int).Mul(notional, big.NewInt(int64(rate)))
	return v.Div(v, feeRateBase)
}

// ValidateRates bounds-checks an order's fee and rebate rates. The two-byte
// metadata encoding already caps every rate below FeeRateBase, so the one
// range left to enforce is that the rebate never exceeds the maker fee it
// offsets. Called at order-validation time so a bad rate can never reach
// fee computation during settlement.
func ValidateRates(m order.Metadata) error {
	if m.MakerRebateRate > m.MakerFeeRate {
		return fmt.Errorf("%w: rebate rate %d exceeds maker fee rate %d",
			types.ErrInvalidFeeRate, m.MakerRebateRate, m.MakerFeeRate)
	}
	return nil
}
