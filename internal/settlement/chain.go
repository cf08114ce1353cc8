package settlement

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// Transfer proxy contract interface: whitelist lookup plus a batch entry
// point that applies a whole plan in one transaction, so on-chain settlement
// inherits transaction-level atomicity.
const proxyABI = `[
	{"constant":true,"inputs":[{"name":"operator","type":"address"}],"name":"isWhitelisted","outputs":[{"name":"","type":"bool"}],"type":"function"},
	{"constant":false,"inputs":[{"components":[
		{"name":"kind","type":"uint8"},
		{"name":"token","type":"address"},
		{"name":"from","type":"address"},
		{"name":"to","type":"address"},
		{"name":"amount","type":"uint256"},
		{"name":"market","type":"address"}
	],"name":"actions","type":"tuple[]"}],"name":"executeBatch","outputs":[],"type":"function"}
]`

const executeBatchGasLimit = 4_000_000

// ChainBackend settles through the deployed transfer-proxy contract.
type ChainBackend struct {
	rpcURL       string
	proxyAddress common.Address
	chainID      *big.Int
	key          *ecdsa.PrivateKey
	abi          abi.ABI
	logger       *zap.Logger
}

// NewChainBackend creates a Backend that submits settlement transactions
// signed with the relayer's key.
func NewChainBackend(
	rpcURL string,
	proxyAddress common.Address,
	chainID *big.Int,
	keyHex string,
	logger *zap.Logger,
) (*ChainBackend, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse relayer key: %w", err)
	}

	parsedABI, err := abi.JSON(strings.NewReader(proxyABI))
	if err != nil {
		return nil, fmt.Errorf("parse proxy ABI: %w", err)
	}

	return &ChainBackend{
		rpcURL:       rpcURL,
		proxyAddress: proxyAddress,
		chainID:      chainID,
		key:          key,
		abi:          parsedABI,
		logger:       logger,
	}, nil
}

// IsWhitelisted asks the proxy contract whether operator may move tokens.
func (c *ChainBackend) IsWhitelisted(ctx context.Context, operator common.Address) (bool, error) {
	client, err := ethclient.DialContext(ctx, c.rpcURL)
	if err != nil {
		return false, fmt.Errorf("dial RPC: %w", err)
	}
	defer client.Close()

	data, err := c.abi.Pack("isWhitelisted", operator)
	if err != nil {
		return false, fmt.Errorf("pack isWhitelisted: %w", err)
	}

	result, err := client.CallContract(ctx, ethereum.CallMsg{To: &c.proxyAddress, Data: data}, nil)
	if err != nil {
		return false, fmt.Errorf("call isWhitelisted: %w", err)
	}

	return len(result) == 32 && result[31] == 1, nil
}

// Execute submits the plan as one executeBatch transaction and waits for it
// to be mined. A reverted transaction settles nothing.
func (c *ChainBackend) Execute(ctx context.Context, actions []Action) error {
	client, err := ethclient.DialContext(ctx, c.rpcURL)
	if err != nil {
		return fmt.Errorf("dial RPC: %w", err)
	}
	defer client.Close()

	encoded := make([]struct {
		Kind   uint8
		Token  common.Address
		From   common.Address
		To     common.Address
		Amount *big.Int
		Market common.Address
	}, len(actions))
	for i, a := range actions {
		encoded[i].Kind = uint8(a.Kind)
		encoded[i].Token = a.Token
		encoded[i].From = a.From
		encoded[i].To = a.To
		encoded[i].Amount = a.Amount
		encoded[i].Market = a.Market
		if encoded[i].Amount == nil {
			encoded[i].Amount = new(big.Int)
		}
	}

	data, err := c.abi.Pack("executeBatch", encoded)
	if err != nil {
		return fmt.Errorf("pack executeBatch: %w", err)
	}

	sender := crypto.PubkeyToAddress(c.key.PublicKey)
	nonce, err := client.PendingNonceAt(ctx, sender)
	if err != nil {
		return fmt.Errorf("get nonce: %w", err)
	}

	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("get gas price: %w", err)
	}

	tx := ethtypes.NewTransaction(
		nonce,
		c.proxyAddress,
		big.NewInt(0),
		executeBatchGasLimit,
		gasPrice,
		data,
	)

	signedTx, err := ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(c.chainID), c.key)
	if err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}

	if err := client.SendTransaction(ctx, signedTx); err != nil {
		return fmt.Errorf("send transaction: %w", err)
	}

	c.logger.Info("settlement-tx-sent",
		zap.String("tx", signedTx.Hash().Hex()),
		zap.Int("actions", len(actions)))

	receipt, err := bind.WaitMined(ctx, client, signedTx)
	if err != nil {
		return fmt.Errorf("wait mined: %w", err)
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return fmt.Errorf("settlement transaction %s reverted", signedTx.Hash().Hex())
	}

	return nil
}

var _ Backend = (*ChainBackend)(nil)
