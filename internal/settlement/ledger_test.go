package settlement

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestLedger_Whitelist(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()

	ok, err := l.IsWhitelisted(ctx, relayer)
	if err != nil {
		t.Fatalf("whitelist check: %v", err)
	}
	if ok {
		t.Error("fresh ledger reported operator whitelisted")
	}

	l.Whitelist(relayer)
	ok, err = l.IsWhitelisted(ctx, relayer)
	if err != nil {
		t.Fatalf("whitelist check: %v", err)
	}
	if !ok {
		t.Error("expected operator whitelisted")
	}
}

func TestLedger_BalanceOfReturnsCopy(t *testing.T) {
	l := NewLedger()
	l.SetBalance(collateral, taker, big.NewInt(100))

	got := l.BalanceOf(collateral, taker)
	got.SetInt64(-5)

	if l.BalanceOf(collateral, taker).Cmp(big.NewInt(100)) != 0 {
		t.Error("caller mutation leaked into the ledger")
	}
	if l.BalanceOf(collateral, maker).Sign() != 0 {
		t.Error("unseeded account should have zero balance")
	}
}

func TestLedger_ExecuteTransfers(t *testing.T) {
	l := NewLedger()
	l.SetBalance(collateral, taker, big.NewInt(1000))

	err := l.Execute(context.Background(), []Action{
		{Kind: ActionTransfer, Token: collateral, From: taker, To: maker, Amount: big.NewInt(300)},
		{Kind: ActionTransfer, Token: collateral, From: maker, To: relayer, Amount: big.NewInt(100)},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	for _, c := range []struct {
		account common.Address
		want    int64
	}{
		{taker, 700},
		{maker, 200},
		{relayer, 100},
	} {
		if got := l.BalanceOf(collateral, c.account); got.Cmp(big.NewInt(c.want)) != 0 {
			t.Errorf("%s balance = %s, want %d", c.account.Hex(), got.String(), c.want)
		}
	}
}

// A failure anywhere in the plan must leave every balance untouched, even
// for actions that had already been applied to the working copy.
func TestLedger_ExecuteIsAtomic(t *testing.T) {
	l := NewLedger()
	l.SetBalance(collateral, taker, big.NewInt(1000))

	err := l.Execute(context.Background(), []Action{
		{Kind: ActionTransfer, Token: collateral, From: taker, To: maker, Amount: big.NewInt(300)},
		{Kind: ActionTransfer, Token: collateral, From: maker, To: relayer, Amount: big.NewInt(9999)},
	})
	if err == nil {
		t.Fatal("expected execute to fail on the underfunded transfer")
	}

	if got := l.BalanceOf(collateral, taker); got.Cmp(big.NewInt(1000)) != 0 {
		t.Errorf("taker balance = %s after failed batch, want 1000", got.String())
	}
	if got := l.BalanceOf(collateral, maker); got.Sign() != 0 {
		t.Errorf("maker balance = %s after failed batch, want 0", got.String())
	}
}

func TestLedger_MintRequiresFundedPool(t *testing.T) {
	l := NewLedger()
	l.RegisterMarket(testSnapshot())
	amount := big.NewInt(400000)

	mint := []Action{{Kind: ActionMint, Market: marketAddr, Amount: amount}}
	if err := l.Execute(context.Background(), mint); err == nil {
		t.Fatal("expected mint against an empty pool to fail")
	}

	// Pair collateral (400) plus the market's mint fee (9.6).
	l.SetBalance(collateral, marketAddr, big.NewInt(409600000))
	if err := l.Execute(context.Background(), mint); err != nil {
		t.Fatalf("funded mint: %v", err)
	}

	if got := l.BalanceOf(longToken, marketAddr); got.Cmp(amount) != 0 {
		t.Errorf("pool long tokens = %s, want %s", got.String(), amount.String())
	}
	if got := l.BalanceOf(shortToken, marketAddr); got.Cmp(amount) != 0 {
		t.Errorf("pool short tokens = %s, want %s", got.String(), amount.String())
	}
}

func TestLedger_RedeemBurnsPairs(t *testing.T) {
	l := NewLedger()
	l.RegisterMarket(testSnapshot())
	amount := big.NewInt(400000)

	redeem := []Action{{Kind: ActionRedeem, Market: marketAddr, Amount: amount}}
	if err := l.Execute(context.Background(), redeem); err == nil {
		t.Fatal("expected redeem without pairs to fail")
	}

	l.SetBalance(longToken, marketAddr, amount)
	l.SetBalance(shortToken, marketAddr, amount)
	if err := l.Execute(context.Background(), redeem); err != nil {
		t.Fatalf("redeem: %v", err)
	}

	if got := l.BalanceOf(longToken, marketAddr); got.Sign() != 0 {
		t.Errorf("pool long tokens = %s after redeem, want 0", got.String())
	}
	if got := l.BalanceOf(shortToken, marketAddr); got.Sign() != 0 {
		t.Errorf("pool short tokens = %s after redeem, want 0", got.String())
	}
	// Redeeming releases the pair collateral back into the pool.
	if got := l.BalanceOf(collateral, marketAddr); got.Cmp(big.NewInt(400000000)) != 0 {
		t.Errorf("pool collateral = %s after redeem, want 400000000", got.String())
	}
}

func TestLedger_MintUnknownMarket(t *testing.T) {
	l := NewLedger()

	err := l.Execute(context.Background(), []Action{
		{Kind: ActionMint, Market: marketAddr, Amount: big.NewInt(1)},
	})
	if err == nil {
		t.Fatal("expected mint against an unregistered market to fail")
	}
}
