package settlement

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Mode says how a leg moves position tokens. Opposite sides exchange
// existing long tokens; two buys mint a fresh long/short pair; two sells
// redeem one.
type Mode uint8

const (
	ModeExchange Mode = iota
	ModeMint
	ModeRedeem
)

func (m Mode) String() string {
	switch m {
	case ModeExchange:
		return "exchange"
	case ModeMint:
		return "mint"
	case ModeRedeem:
		return "redeem"
	}
	return "invalid"
}

// Leg is one maker-vs-taker pairing result, priced at the maker's price.
// Computed by the matching engine and consumed within the same call; never
// persisted.
type Leg struct {
	Mode Mode

	Taker          common.Address
	Maker          common.Address
	TakerOrderHash common.Hash
	MakerOrderHash common.Hash

	FillAmount *big.Int
	Price      *big.Int // maker's price, authoritative for settlement

	// Collateral amounts derived from the market band at Price.
	// Exchange: Quote moves from the buyer to the seller.
	// Mint/redeem: LongCost is the maker side, ShortCost the taker side.
	Quote        *big.Int
	LongCost     *big.Int
	ShortCost    *big.Int
	TakerIsBuyer bool // exchange only: taker pays Quote and receives long

	TakerFee    *big.Int
	MakerFee    *big.Int
	MakerRebate *big.Int
	TakerGas    *big.Int // zero unless this leg carries the taker's one-time gas fee
	MakerGas    *big.Int // zero unless this is the maker order's first fill
}
