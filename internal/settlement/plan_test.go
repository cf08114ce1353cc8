package settlement

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rexeee/mai-protocol/internal/market"
)

var (
	taker      = common.HexToAddress("0x31ebd457b999bf99759602f5ece5aa5033cb56b3")
	maker      = common.HexToAddress("0x8a672715e042f6e9d9b25c2ce9f84210e8206ff1")
	relayer    = common.HexToAddress("0x93388b4efe13b9b18ed480783c05829dd35fc7ca")
	marketAddr = common.HexToAddress("0x04f67e8b7c39a25e100847cb167460d715215feb")
	collateral = common.HexToAddress("0x0a11aa11aa11aa11aa11aa11aa11aa11aa11aa11")
	longToken  = common.HexToAddress("0x0b22bb22bb22bb22bb22bb22bb22bb22bb22bb22")
	shortToken = common.HexToAddress("0x0c33cc33cc33cc33cc33cc33cc33cc33cc33cc33")
)

func testSnapshot() *market.Snapshot {
	return &market.Snapshot{
		MarketContract: marketAddr,
		PriceCap:       big.NewInt(8500),
		PriceFloor:     big.NewInt(7500),
		Multiplier:     big.NewInt(1),
		FeeRate:        big.NewInt(300),
		Collateral:     collateral,
		LongToken:      longToken,
		ShortToken:     shortToken,
	}
}

func wantTransfer(t *testing.T, a Action, token, from, to common.Address, amount int64) {
	t.Helper()
	if a.Kind != ActionTransfer {
		t.Fatalf("action kind = %d, want transfer", a.Kind)
	}
	if a.Token != token || a.From != from || a.To != to {
		t.Errorf("transfer %s %s -> %s, want %s %s -> %s",
			a.Token.Hex(), a.From.Hex(), a.To.Hex(), token.Hex(), from.Hex(), to.Hex())
	}
	if a.Amount.Cmp(big.NewInt(amount)) != 0 {
		t.Errorf("transfer amount = %s, want %d", a.Amount.String(), amount)
	}
}

func TestBuildPlan_ExchangeLeg(t *testing.T) {
	snap := testSnapshot()

	// Taker buys 0.6 at 8000: quote 300, 0.25% mid-notional fees of 12 each,
	// taker pays gas on its first fill.
	legs := []Leg{{
		Mode:         ModeExchange,
		Taker:        taker,
		Maker:        maker,
		FillAmount:   big.NewInt(600000),
		Price:        big.NewInt(8000),
		Quote:        big.NewInt(300000000),
		TakerIsBuyer: true,
		TakerFee:     big.NewInt(12000000),
		MakerFee:     big.NewInt(12000000),
		MakerRebate:  new(big.Int),
		TakerGas:     big.NewInt(100000),
		MakerGas:     new(big.Int),
	}}

	plan := BuildPlan(snap, relayer, legs)
	if len(plan) != 4 {
		t.Fatalf("plan has %d actions, want 4", len(plan))
	}

	wantTransfer(t, plan[0], collateral, taker, relayer, 12100000)
	wantTransfer(t, plan[1], collateral, maker, relayer, 12000000)
	wantTransfer(t, plan[2], collateral, taker, maker, 300000000)
	wantTransfer(t, plan[3], longToken, maker, taker, 600000)
}

func TestBuildPlan_ExchangeLeg_TakerSells(t *testing.T) {
	snap := testSnapshot()

	legs := []Leg{{
		Mode:         ModeExchange,
		Taker:        taker,
		Maker:        maker,
		FillAmount:   big.NewInt(600000),
		Price:        big.NewInt(8000),
		Quote:        big.NewInt(300000000),
		TakerIsBuyer: false,
		TakerFee:     new(big.Int),
		MakerFee:     new(big.Int),
		MakerRebate:  new(big.Int),
		TakerGas:     new(big.Int),
		MakerGas:     new(big.Int),
	}}

	plan := BuildPlan(snap, relayer, legs)
	if len(plan) != 2 {
		t.Fatalf("plan has %d actions, want 2", len(plan))
	}

	// Collateral flows from the buying maker, long tokens from the selling
	// taker.
	wantTransfer(t, plan[0], collateral, maker, taker, 300000000)
	wantTransfer(t, plan[1], longToken, taker, maker, 600000)
}

func TestBuildPlan_MintLeg(t *testing.T) {
	snap := testSnapshot()

	// Both sides buy 0.4 at 8000: each contributes 200 of collateral, each
	// pays an 8 fee plus 0.1 gas, and the relayer funds the market's 9.6
	// mint fee out of the fees it just collected.
	legs := []Leg{{
		Mode:        ModeMint,
		Taker:       taker,
		Maker:       maker,
		FillAmount:  big.NewInt(400000),
		Price:       big.NewInt(8000),
		LongCost:    big.NewInt(200000000),
		ShortCost:   big.NewInt(200000000),
		TakerFee:    big.NewInt(8000000),
		MakerFee:    big.NewInt(8000000),
		MakerRebate: new(big.Int),
		TakerGas:    big.NewInt(100000),
		MakerGas:    big.NewInt(100000),
	}}

	plan := BuildPlan(snap, relayer, legs)
	if len(plan) != 8 {
		t.Fatalf("plan has %d actions, want 8", len(plan))
	}

	wantTransfer(t, plan[0], collateral, taker, relayer, 8100000)
	wantTransfer(t, plan[1], collateral, maker, relayer, 8100000)
	wantTransfer(t, plan[2], collateral, maker, marketAddr, 200000000)
	wantTransfer(t, plan[3], collateral, taker, marketAddr, 200000000)
	wantTransfer(t, plan[4], collateral, relayer, marketAddr, 9600000)

	if plan[5].Kind != ActionMint || plan[5].Market != marketAddr || plan[5].Amount.Cmp(big.NewInt(400000)) != 0 {
		t.Errorf("expected mint of 400000 at %s, got %+v", marketAddr.Hex(), plan[5])
	}

	wantTransfer(t, plan[6], longToken, marketAddr, maker, 400000)
	wantTransfer(t, plan[7], shortToken, marketAddr, taker, 400000)
}

func TestBuildPlan_RedeemLeg(t *testing.T) {
	snap := testSnapshot()

	legs := []Leg{{
		Mode:        ModeRedeem,
		Taker:       taker,
		Maker:       maker,
		FillAmount:  big.NewInt(400000),
		Price:       big.NewInt(8000),
		LongCost:    big.NewInt(200000000),
		ShortCost:   big.NewInt(200000000),
		TakerFee:    big.NewInt(8000000),
		MakerFee:    big.NewInt(8000000),
		MakerRebate: big.NewInt(2000000),
		TakerGas:    new(big.Int),
		MakerGas:    new(big.Int),
	}}

	plan := BuildPlan(snap, relayer, legs)
	if len(plan) != 7 {
		t.Fatalf("plan has %d actions, want 7", len(plan))
	}

	wantTransfer(t, plan[0], collateral, taker, relayer, 8000000)
	wantTransfer(t, plan[1], collateral, maker, relayer, 6000000) // fee net of rebate
	wantTransfer(t, plan[2], longToken, maker, marketAddr, 400000)
	wantTransfer(t, plan[3], shortToken, taker, marketAddr, 400000)

	if plan[4].Kind != ActionRedeem || plan[4].Market != marketAddr || plan[4].Amount.Cmp(big.NewInt(400000)) != 0 {
		t.Errorf("expected redeem of 400000 at %s, got %+v", marketAddr.Hex(), plan[4])
	}

	wantTransfer(t, plan[5], collateral, marketAddr, maker, 200000000)
	wantTransfer(t, plan[6], collateral, marketAddr, taker, 200000000)
}

func TestBuildPlan_SkipsZeroAmounts(t *testing.T) {
	snap := testSnapshot()

	legs := []Leg{{
		Mode:         ModeExchange,
		Taker:        taker,
		Maker:        maker,
		FillAmount:   big.NewInt(100),
		Quote:        big.NewInt(800000),
		TakerIsBuyer: true,
		TakerFee:     new(big.Int),
		MakerFee:     new(big.Int),
		MakerRebate:  new(big.Int),
		TakerGas:     new(big.Int),
		MakerGas:     new(big.Int),
	}}

	plan := BuildPlan(snap, relayer, legs)
	for _, a := range plan {
		if a.Kind == ActionTransfer && a.Amount.Sign() == 0 {
			t.Errorf("plan contains a zero-amount transfer: %+v", a)
		}
	}
	if len(plan) != 2 {
		t.Errorf("plan has %d actions, want 2 (quote and long token only)", len(plan))
	}
}
