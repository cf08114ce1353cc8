package order

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Version is the only order metadata version this engine understands.
const Version = 2

// Side is the direction of exposure an order seeks on the market instrument.
type Side uint8

const (
	// SideBuy acquires long exposure.
	SideBuy Side = iota
	// SideSell acquires short exposure (or sheds long).
	SideSell
)

func (s Side) String() string {
	if s == SideSell {
		return "sell"
	}
	return "buy"
}

// Metadata is the unpacked form of the 32-byte order data word.
type Metadata struct {
	Version         uint8
	Side            Side
	IsMarketOrder   bool
	ExpiredAt       uint64 // unix seconds, 0 = never expires, 5-byte range
	MakerFeeRate    uint16
	TakerFeeRate    uint16
	MakerRebateRate uint16
	Salt            uint64
	IsMakerOnly     bool
}

// Order is a signed intent to trade a fixed quantity of a market position at
// a fixed price. Amounts and prices are raw integer units; the market
// contract's multiplier converts price units into collateral.
type Order struct {
	Trader         common.Address
	Relayer        common.Address
	MarketContract common.Address
	Amount         *big.Int // base quantity, > 0
	Price          *big.Int // market price units, within [floor, cap]
	GasAmount      *big.Int // relayer allowance, paid once per order lifetime
	Data           [32]byte // packed Metadata
}

// Metadata unpacks the order's data word.
func (o *Order) Metadata() (Metadata, error) {
	return DecodeMetadata(o.Data)
}
