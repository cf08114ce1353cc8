package order

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

//nolint:gochecknoglobals // precomputed EIP-712 type hashes
var (
	domainTypeHash = crypto.Keccak256(
		[]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"),
	)
	orderTypeHash = crypto.Keccak256(
		[]byte("Order(address trader,address relayer,address marketContract,uint256 amount,uint256 price,uint256 gasAmount,bytes32 data)"),
	)
)

// Hasher computes canonical order digests bound to one deployment domain.
// Two deployments with different chain ids or exchange addresses produce
// different digests for identical orders, so signatures cannot be replayed
// across them.
type Hasher struct {
	domainSeparator common.Hash
}

// NewHasher builds a Hasher for the given deployment domain.
func NewHasher(name, version string, chainID *big.Int, exchange common.Address) *Hasher {
	sep := crypto.Keccak256Hash(
		domainTypeHash,
		crypto.Keccak256([]byte(name)),
		crypto.Keccak256([]byte(version)),
		common.LeftPadBytes(chainID.Bytes(), 32),
		common.LeftPadBytes(exchange.Bytes(), 32),
	)
	return &Hasher{domainSeparator: sep}
}

// OrderHash returns the canonical digest over every order field. It is a pure
// function of the order payload and the hasher's domain; it is the global
// identity used for fill tracking, cancellation and signature verification.
func (h *Hasher) OrderHash(o *Order) common.Hash {
	structHash := crypto.Keccak256(
		orderTypeHash,
		common.LeftPadBytes(o.Trader.Bytes(), 32),
		common.LeftPadBytes(o.Relayer.Bytes(), 32),
		common.LeftPadBytes(o.MarketContract.Bytes(), 32),
		padAmount(o.Amount),
		padAmount(o.Price),
		padAmount(o.GasAmount),
		o.Data[:],
	)
	return crypto.Keccak256Hash([]byte{0x19, 0x01}, h.domainSeparator.Bytes(), structHash)
}

func padAmount(v *big.Int) []byte {
	if v == nil {
		return make([]byte, 32)
	}
	return common.LeftPadBytes(v.Bytes(), 32)
}
