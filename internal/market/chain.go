package market

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// Constant getters exposed by the market contract.
const marketContractABI = `[
	{"constant":true,"inputs":[],"name":"PRICE_CAP","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"PRICE_FLOOR","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"QTY_MULTIPLIER","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"FEE_RATE","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"COLLATERAL_TOKEN_ADDRESS","outputs":[{"name":"","type":"address"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"LONG_POSITION_TOKEN","outputs":[{"name":"","type":"address"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"SHORT_POSITION_TOKEN","outputs":[{"name":"","type":"address"}],"type":"function"}
]`

// ChainSource reads market configuration straight from the market contract.
type ChainSource struct {
	rpcURL string
	logger *zap.Logger
	abi    abi.ABI
}

// NewChainSource creates a Source backed by an Ethereum RPC endpoint.
func NewChainSource(rpcURL string, logger *zap.Logger) (*ChainSource, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("rpcURL cannot be empty")
	}

	parsedABI, err := abi.JSON(strings.NewReader(marketContractABI))
	if err != nil {
		return nil, fmt.Errorf("parse market ABI: %w", err)
	}

	return &ChainSource{
		rpcURL: rpcURL,
		logger: logger,
		abi:    parsedABI,
	}, nil
}

// Snapshot fetches the full market configuration in one connection.
func (c *ChainSource) Snapshot(ctx context.Context, marketContract common.Address) (*Snapshot, error) {
	client, err := ethclient.DialContext(ctx, c.rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial RPC: %w", err)
	}
	defer client.Close()

	snap := &Snapshot{MarketContract: marketContract}

	for _, field := range []struct {
		method string
		num    **big.Int
		addr   *common.Address
	}{
		{method: "PRICE_CAP", num: &snap.PriceCap},
		{method: "PRICE_FLOOR", num: &snap.PriceFloor},
		{method: "QTY_MULTIPLIER", num: &snap.Multiplier},
		{method: "FEE_RATE", num: &snap.FeeRate},
		{method: "COLLATERAL_TOKEN_ADDRESS", addr: &snap.Collateral},
		{method: "LONG_POSITION_TOKEN", addr: &snap.LongToken},
		{method: "SHORT_POSITION_TOKEN", addr: &snap.ShortToken},
	} {
		result, err := c.call(ctx, client, marketContract, field.method)
		if err != nil {
			return nil, err
		}
		if field.num != nil {
			*field.num = new(big.Int).SetBytes(result)
		} else {
			*field.addr = common.BytesToAddress(result)
		}
	}

	SnapshotFetchesTotal.Inc()
	c.logger.Debug("market-snapshot-fetched",
		zap.String("market", marketContract.Hex()),
		zap.String("cap", snap.PriceCap.String()),
		zap.String("floor", snap.PriceFloor.String()))

	return snap, nil
}

func (c *ChainSource) call(
	ctx context.Context,
	client *ethclient.Client,
	contract common.Address,
	method string,
) ([]byte, error) {
	data, err := c.abi.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	msg := ethereum.CallMsg{
		To:   &contract,
		Data: data,
	}

	result, err := client.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	return result, nil
}
