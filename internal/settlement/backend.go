package settlement

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ActionKind discriminates settlement plan actions.
type ActionKind uint8

const (
	// ActionTransfer moves tokens between accounts via the transfer proxy.
	ActionTransfer ActionKind = iota
	// ActionMint asks the market contract to mint long/short pairs into
	// its collateral pool.
	ActionMint
	// ActionRedeem burns long/short pairs held by the pool, releasing the
	// locked collateral.
	ActionRedeem
)

// Action is one step of a settlement plan. Transfer actions use Token, From,
// To and Amount; mint/redeem actions use Market and Amount.
type Action struct {
	Kind   ActionKind
	Token  common.Address
	From   common.Address
	To     common.Address
	Amount *big.Int
	Market common.Address
}

// Backend applies a settlement plan through the transfer-proxy collaborator.
// Execute is all-or-nothing: if any action cannot be applied the whole batch
// is rolled back and an error returned.
type Backend interface {
	// IsWhitelisted reports whether operator may move tokens through the
	// proxy. Whitelisting happens out-of-band at deployment time.
	IsWhitelisted(ctx context.Context, operator common.Address) (bool, error)

	// Execute atomically applies the full plan.
	Execute(ctx context.Context, actions []Action) error
}
