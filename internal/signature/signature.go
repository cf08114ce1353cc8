package signature

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/rexeee/mai-protocol/pkg/types"
)

// Method selects the convention the trader's wallet used to produce the
// signature. It is carried alongside v/r/s and dispatched exactly once at
// verification time.
type Method uint8

const (
	// MethodDirect signs the 32-byte order hash as-is.
	MethodDirect Method = 0
	// MethodEthSign signs the hash wrapped in the length-tagged
	// "\x19Ethereum Signed Message:\n32" header (eth_sign convention).
	MethodEthSign Method = 1
)

func (m Method) String() string {
	switch m {
	case MethodDirect:
		return "direct"
	case MethodEthSign:
		return "eth_sign"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(m))
	}
}

// Signature is a (v, r, s, method) tuple produced off-chain by a trader.
type Signature struct {
	Method Method
	V      uint8 // 27 or 28
	R      [32]byte
	S      [32]byte
}

//nolint:gochecknoglobals // fixed eth_sign wrapping prefix
var ethSignPrefix = []byte("\x19Ethereum Signed Message:\n32")

// digest returns the message that was actually signed under the method.
func digest(method Method, orderHash common.Hash) ([]byte, error) {
	switch method {
	case MethodDirect:
		return orderHash.Bytes(), nil
	case MethodEthSign:
		return crypto.Keccak256(ethSignPrefix, orderHash.Bytes()), nil
	default:
		return nil, fmt.Errorf("%w: method tag %d", types.ErrUnsupportedSignatureMethod, method)
	}
}

// Verify checks that sig over orderHash was produced by signer. It is a pure
// function: a clean mismatch returns (false, nil) so callers can distinguish
// "wrong signer" from a malformed signature, which returns an
// InvalidSignature error.
func Verify(signer common.Address, sig *Signature, orderHash common.Hash) (bool, error) {
	msg, err := digest(sig.Method, orderHash)
	if err != nil {
		return false, err
	}

	if sig.V != 27 && sig.V != 28 {
		return false, fmt.Errorf("%w: recovery id v=%d", types.ErrInvalidSignature, sig.V)
	}

	raw := make([]byte, 65)
	copy(raw[:32], sig.R[:])
	copy(raw[32:64], sig.S[:])
	raw[64] = sig.V - 27

	pub, err := crypto.SigToPub(msg, raw)
	if err != nil {
		return false, fmt.Errorf("%w: %v", types.ErrInvalidSignature, err)
	}

	return crypto.PubkeyToAddress(*pub) == signer, nil
}

// Sign produces a signature over orderHash under the given method. Used by
// the CLI and tests; the engine itself never signs.
func Sign(key *ecdsa.PrivateKey, orderHash common.Hash, method Method) (*Signature, error) {
	msg, err := digest(method, orderHash)
	if err != nil {
		return nil, err
	}

	raw, err := crypto.Sign(msg, key)
	if err != nil {
		return nil, fmt.Errorf("sign order hash: %w", err)
	}

	sig := &Signature{Method: method, V: raw[64] + 27}
	copy(sig.R[:], raw[:32])
	copy(sig.S[:], raw[32:64])
	return sig, nil
}
