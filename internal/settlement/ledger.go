package settlement

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rexeee/mai-protocol/internal/market"
)

// Ledger is an in-memory Backend for tests and paper settlement mode. It
// tracks token balances per account, honors the proxy whitelist, and applies
// plans on a working copy so a failed batch leaves no trace.
type Ledger struct {
	mu        sync.Mutex
	balances  map[common.Address]map[common.Address]*big.Int // token -> account -> balance
	whitelist map[common.Address]bool
	markets   map[common.Address]*market.Snapshot
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		balances:  make(map[common.Address]map[common.Address]*big.Int),
		whitelist: make(map[common.Address]bool),
		markets:   make(map[common.Address]*market.Snapshot),
	}
}

// Whitelist authorizes an operator, standing in for the administrative
// action that whitelists the exchange on the deployed proxy.
func (l *Ledger) Whitelist(operator common.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.whitelist[operator] = true
}

// RegisterMarket tells the ledger which tokens a market mints and redeems.
func (l *Ledger) RegisterMarket(snap *market.Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.markets[snap.MarketContract] = snap
}

// SetBalance seeds an account balance, standing in for token minting during
// test setup.
func (l *Ledger) SetBalance(token, account common.Address, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(l.balances, token, account, amount)
}

// BalanceOf returns an account's balance of token.
func (l *Ledger) BalanceOf(token, account common.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if accounts, ok := l.balances[token]; ok {
		if v, ok := accounts[account]; ok {
			return new(big.Int).Set(v)
		}
	}
	return new(big.Int)
}

// IsWhitelisted reports whether operator may move tokens.
func (l *Ledger) IsWhitelisted(_ context.Context, operator common.Address) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.whitelist[operator], nil
}

// Execute applies the plan atomically: all actions run against a copy of
// the balances, which replaces the live state only if every action
// succeeds.
func (l *Ledger) Execute(_ context.Context, actions []Action) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	working := cloneBalances(l.balances)

	for i, a := range actions {
		var err error
		switch a.Kind {
		case ActionTransfer:
			err = l.applyTransfer(working, a)
		case ActionMint:
			err = l.applyMint(working, a)
		case ActionRedeem:
			err = l.applyRedeem(working, a)
		default:
			err = fmt.Errorf("unknown action kind %d", a.Kind)
		}
		if err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
	}

	l.balances = working
	return nil
}

func (l *Ledger) applyTransfer(b map[common.Address]map[common.Address]*big.Int, a Action) error {
	from := balance(b, a.Token, a.From)
	if from.Cmp(a.Amount) < 0 {
		return fmt.Errorf("insufficient balance: %s has %s of token %s, needs %s",
			a.From.Hex(), from.String(), a.Token.Hex(), a.Amount.String())
	}
	from.Sub(from, a.Amount)
	l.credit(b, a.Token, a.To, a.Amount)
	return nil
}

func (l *Ledger) applyMint(b map[common.Address]map[common.Address]*big.Int, a Action) error {
	snap, ok := l.markets[a.Market]
	if !ok {
		return fmt.Errorf("unknown market %s", a.Market.Hex())
	}
	// Collateral backing the pair plus the mint fee must already sit in
	// the pool before the market will issue tokens.
	pool := balance(b, snap.Collateral, a.Market)
	need := new(big.Int).Add(snap.MintCost(a.Amount), snap.MintFee(a.Amount))
	if pool.Cmp(need) < 0 {
		return fmt.Errorf("pool underfunded for mint: has %s, needs %s", pool.String(), need.String())
	}
	l.credit(b, snap.LongToken, a.Market, a.Amount)
	l.credit(b, snap.ShortToken, a.Market, a.Amount)
	return nil
}

func (l *Ledger) applyRedeem(b map[common.Address]map[common.Address]*big.Int, a Action) error {
	snap, ok := l.markets[a.Market]
	if !ok {
		return fmt.Errorf("unknown market %s", a.Market.Hex())
	}
	long := balance(b, snap.LongToken, a.Market)
	short := balance(b, snap.ShortToken, a.Market)
	if long.Cmp(a.Amount) < 0 || short.Cmp(a.Amount) < 0 {
		return fmt.Errorf("pool lacks pairs to redeem %s", a.Amount.String())
	}
	long.Sub(long, a.Amount)
	short.Sub(short, a.Amount)
	l.credit(b, snap.Collateral, a.Market, snap.MintCost(a.Amount))
	return nil
}

func (l *Ledger) credit(b map[common.Address]map[common.Address]*big.Int, token, account common.Address, amount *big.Int) {
	v := balance(b, token, account)
	v.Add(v, amount)
}

func balance(b map[common.Address]map[common.Address]*big.Int, token, account common.Address) *big.Int {
	accounts, ok := b[token]
	if !ok {
		accounts = make(map[common.Address]*big.Int)
		b[token] = accounts
	}
	v, ok := accounts[account]
	if !ok {
		v = new(big.Int)
		accounts[account] = v
	}
	return v
}

func cloneBalances(b map[common.Address]map[common.Address]*big.Int) map[common.Address]map[common.Address]*big.Int {
	out := make(map[common.Address]map[common.Address]*big.Int, len(b))
	for token, accounts := range b {
		clone := make(map[common.Address]*big.Int, len(accounts))
		for acct, v := range accounts {
			clone[acct] = new(big.Int).Set(v)
		}
		out[token] = clone
	}
	return out
}

var _ Backend = (*Ledger)(nil)
