package order

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func testOrder() Order {
	data, _ := EncodeMetadata(Metadata{
		Version:      Version,
		Side:         SideBuy,
		ExpiredAt:    3500000000,
		MakerFeeRate: 250,
		TakerFeeRate: 250,
		Salt:         10000000,
	})
	return Order{
		Trader:         common.HexToAddress("0x31ebd457b999bf99759602f5ece5aa5033cb56b3"),
		Relayer:        common.HexToAddress("0x93388b4efe13b9b18ed480783c05829dd35fc7ca"),
		MarketContract: common.HexToAddress("0x04f67e8b7c39a25e100847cb167460d715215feb"),
		Amount:         big.NewInt(1000000),
		Price:          big.NewInt(8000),
		GasAmount:      big.NewInt(100000),
		Data:           data,
	}
}

func TestOrderHash_Deterministic(t *testing.T) {
	h := NewHasher("Mai Protocol", "1", big.NewInt(1), common.HexToAddress("0x1"))
	o := testOrder()

	h1 := h.OrderHash(&o)
	h2 := h.OrderHash(&o)
	if h1 != h2 {
		t.Errorf("same order hashed twice gave %s and %s", h1.Hex(), h2.Hex())
	}
}

func TestOrderHash_FieldSensitivity(t *testing.T) {
	h := NewHasher("Mai Protocol", "1", big.NewInt(1), common.HexToAddress("0x1"))
	base := h.OrderHash(&Order{})

	mutations := map[string]func(*Order){
		"trader":   func(o *Order) { o.Trader = common.HexToAddress("0x2") },
		"relayer":  func(o *Order) { o.Relayer = common.HexToAddress("0x2") },
		"market":   func(o *Order) { o.MarketContract = common.HexToAddress("0x2") },
		"amount":   func(o *Order) { o.Amount = big.NewInt(2) },
		"price":    func(o *Order) { o.Price = big.NewInt(2) },
		"gas":      func(o *Order) { o.GasAmount = big.NewInt(2) },
		"metadata": func(o *Order) { o.Data[14] = 0xff },
	}

	seen := map[common.Hash]string{base: "base"}
	for name, mutate := range mutations {
		var o Order
		mutate(&o)
		hash := h.OrderHash(&o)
		if prev, dup := seen[hash]; dup {
			t.Errorf("mutating %s collides with %s", name, prev)
		}
		seen[hash] = name
	}
}

func TestOrderHash_DomainSeparation(t *testing.T) {
	o := testOrder()

	variants := []*Hasher{
		NewHasher("Mai Protocol", "1", big.NewInt(1), common.HexToAddress("0x1")),
		NewHasher("Mai Protocol", "2", big.NewInt(1), common.HexToAddress("0x1")),
		NewHasher("Mai Protocol", "1", big.NewInt(41), common.HexToAddress("0x1")),
		NewHasher("Mai Protocol", "1", big.NewInt(1), common.HexToAddress("0x2")),
		NewHasher("Other Exchange", "1", big.NewInt(1), common.HexToAddress("0x1")),
	}

	seen := make(map[common.Hash]int)
	for i, h := range variants {
		hash := h.OrderHash(&o)
		if prev, dup := seen[hash]; dup {
			t.Errorf("domain %d and %d produce the same digest", prev, i)
		}
		seen[hash] = i
	}
}

func TestOrderHash_NilAmountsHashAsZero(t *testing.T) {
	h := NewHasher("Mai Protocol", "1", big.NewInt(1), common.HexToAddress("0x1"))

	withNil := Order{}
	withZero := Order{Amount: new(big.Int), Price: new(big.Int), GasAmount: new(big.Int)}

	if h.OrderHash(&withNil) != h.OrderHash(&withZero) {
		t.Error("nil and zero amounts should hash identically")
	}
}
