package market

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rexeee/mai-protocol/internal/fees"
)

// Snapshot is the read-only configuration of one market instrument, fetched
// from the market contract per match call. Prices are interpreted against
// the cap/floor band; the multiplier converts price units into collateral.
type Snapshot struct {
	MarketContract common.Address
	PriceCap       *big.Int
	PriceFloor     *big.Int
	Multiplier     *big.Int
	FeeRate        *big.Int // minting fee rate, FeeRateBase denominated

	Collateral common.Address
	LongToken  common.Address
	ShortToken common.Address
}

// Source provides market snapshots. Implementations are read-only; the
// engine treats the snapshot as configuration for the duration of one call.
type Source interface {
	Snapshot(ctx context.Context, marketContract common.Address) (*Snapshot, error)
}

// ValidPrice reports whether p lies within the market's price band.
func (s *Snapshot) ValidPrice(p *big.Int) bool {
	if p == nil {
		return false
	}
	return p.Cmp(s.PriceFloor) >= 0 && p.Cmp(s.PriceCap) <= 0
}

// LongCost is the collateral backing `amount` units of long exposure at
// trade price p: amount * (p - floor) * multiplier.
func (s *Snapshot) LongCost(p, amount *big.Int) *big.Int {
	v := new(big.Int).Sub(p, s.PriceFloor)
	v.Mul(v, s.Multiplier)
	return v.Mul(v, amount)
}

// ShortCost is the collateral backing `amount` units of short exposure at
// trade price p: amount * (cap - p) * multiplier.
func (s *Snapshot) ShortCost(p, amount *big.Int) *big.Int {
	v := new(big.Int).Sub(s.PriceCap, p)
	v.Mul(v, s.Multiplier)
	return v.Mul(v, amount)
}

// MintCost is the total collateral locked when minting `amount` long/short
// pairs: amount * (cap - floor) * multiplier. Equals LongCost + ShortCost at
// any trade price.
func (s *Snapshot) MintCost(amount *big.Int) *big.Int {
	v := new(big.Int).Sub(s.PriceCap, s.PriceFloor)
	v.Mul(v, s.Multiplier)
	return v.Mul(v, amount)
}

// MidNotional is the fee notional for a fill: amount * (cap+floor)/2 *
// multiplier. Fees are charged on the mid-band notional rather than the
// trade quote so both sides of a mint pay symmetric fees.
func (s *Snapshot) MidNotional(amount *big.Int) *big.Int {
	v := new(big.Int).Add(s.PriceCap, s.PriceFloor)
	v.Mul(v, s.Multiplier)
	v.Mul(v, amount)
	return v.Div(v, big.NewInt(2))
}

// MintFee is the fee the market contract charges the relayer for minting
// `amount` pairs, on the mid notional at the market's own fee rate.
func (s *Snapshot) MintFee(amount *big.Int) *big.Int {
	v := new(big.Int).Mul(s.MidNotional(amount), s.FeeRate)
	return v.Div(v, big.NewInt(fees.FeeRateBase))
}
