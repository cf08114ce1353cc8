package cmd

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rexeee/mai-protocol/internal/order"
	"github.com/rexeee/mai-protocol/internal/signature"
	"github.com/rexeee/mai-protocol/pkg/config"
	"github.com/rexeee/mai-protocol/pkg/httpserver"
)

//nolint:gochecknoglobals // Cobra boilerplate
var signOrderCmd = &cobra.Command{
	Use:   "sign-order",
	Short: "Build and sign an order",
	Long: `Builds an order from flags, hashes it under the exchange domain from the
environment (EXCHANGE_NAME, EXCHANGE_VERSION, CHAIN_ID, EXCHANGE_ADDRESS),
signs it with TRADER_PRIVATE_KEY, and prints the wire-format JSON ready to
submit to the match or cancel API.`,
	RunE: runSignOrder,
}

//nolint:gochecknoglobals // Cobra flags
var (
	signSide        string
	signAmount      string
	signPrice       string
	signGas         string
	signMarket      string
	signRelayer     string
	signExpiresIn   time.Duration
	signMakerFee    uint16
	signTakerFee    uint16
	signMakerRebate uint16
	signMarketOrder bool
	signMakerOnly   bool
	signMethod      uint8
)

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(signOrderCmd)

	signOrderCmd.Flags().StringVar(&signSide, "side", "buy", "Order side: buy or sell")
	signOrderCmd.Flags().StringVar(&signAmount, "amount", "", "Base amount in raw units (required)")
	signOrderCmd.Flags().StringVar(&signPrice, "price", "", "Limit price in market units (required unless --market-order)")
	signOrderCmd.Flags().StringVar(&signGas, "gas", "0", "Gas allowance paid to the relayer on first fill")
	signOrderCmd.Flags().StringVar(&signMarket, "market", "", "Market contract address (required)")
	signOrderCmd.Flags().StringVar(&signRelayer, "relayer", "", "Relayer address (defaults to RELAYER_ADDRESS)")
	signOrderCmd.Flags().DurationVar(&signExpiresIn, "expires-in", 0, "Time until expiry, 0 = never")
	signOrderCmd.Flags().Uint16Var(&signMakerFee, "maker-fee-rate", 0, "Maker fee rate (parts per 100000)")
	signOrderCmd.Flags().Uint16Var(&signTakerFee, "taker-fee-rate", 0, "Taker fee rate (parts per 100000)")
	signOrderCmd.Flags().Uint16Var(&signMakerRebate, "maker-rebate-rate", 0, "Maker rebate rate (parts per 100000)")
	signOrderCmd.Flags().BoolVar(&signMarketOrder, "market-order", false, "Fill at any in-band price (taker only)")
	signOrderCmd.Flags().BoolVar(&signMakerOnly, "maker-only", false, "Order may only rest as a maker")
	signOrderCmd.Flags().Uint8Var(&signMethod, "method", 1, "Signature method: 0 = direct, 1 = eth_sign")

	_ = signOrderCmd.MarkFlagRequired("amount")
	_ = signOrderCmd.MarkFlagRequired("market")
}

func runSignOrder(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: .env file not found")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	keyHex := os.Getenv("TRADER_PRIVATE_KEY")
	if keyHex == "" {
		return fmt.Errorf("TRADER_PRIVATE_KEY not set")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
	if err != nil {
		return fmt.Errorf("parse trader key: %w", err)
	}
	trader := crypto.PubkeyToAddress(key.PublicKey)

	var side order.Side
	switch signSide {
	case "buy":
		side = order.SideBuy
	case "sell":
		side = order.SideSell
	default:
		return fmt.Errorf("--side must be buy or sell, got %q", signSide)
	}

	amount, ok := new(big.Int).SetString(signAmount, 10)
	if !ok || amount.Sign() <= 0 {
		return fmt.Errorf("--amount must be a positive decimal integer, got %q", signAmount)
	}

	price := new(big.Int)
	if signPrice != "" {
		price, ok = new(big.Int).SetString(signPrice, 10)
		if !ok {
			return fmt.Errorf("--price must be a decimal integer, got %q", signPrice)
		}
	} else if !signMarketOrder {
		return fmt.Errorf("--price is required unless --market-order is set")
	}

	gas, ok := new(big.Int).SetString(signGas, 10)
	if !ok || gas.Sign() < 0 {
		return fmt.Errorf("--gas must be a non-negative decimal integer, got %q", signGas)
	}

	if !common.IsHexAddress(signMarket) {
		return fmt.Errorf("--market must be a hex address, got %q", signMarket)
	}

	relayerHex := signRelayer
	if relayerHex == "" {
		relayerHex = cfg.RelayerAddress
	}
	if !common.IsHexAddress(relayerHex) {
		return fmt.Errorf("relayer must be a hex address, got %q", relayerHex)
	}

	var expiredAt uint64
	if signExpiresIn > 0 {
		expiredAt = uint64(time.Now().Add(signExpiresIn).Unix())
	}

	var saltBytes [8]byte
	if _, err := rand.Read(saltBytes[:]); err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}

	data, err := order.EncodeMetadata(order.Metadata{
		Version:         order.Version,
		Side:            side,
		IsMarketOrder:   signMarketOrder,
		ExpiredAt:       expiredAt,
		MakerFeeRate:    signMakerFee,
		TakerFeeRate:    signTakerFee,
		MakerRebateRate: signMakerRebate,
		Salt:            binary.BigEndian.Uint64(saltBytes[:]),
		IsMakerOnly:     signMakerOnly,
	})
	if err != nil {
		return fmt.Errorf("encode order metadata: %w", err)
	}

	o := order.Order{
		Trader:         trader,
		Relayer:        common.HexToAddress(relayerHex),
		MarketContract: common.HexToAddress(signMarket),
		Amount:         amount,
		Price:          price,
		GasAmount:      gas,
		Data:           data,
	}

	hasher := order.NewHasher(
		cfg.ExchangeName,
		cfg.ExchangeVersion,
		big.NewInt(cfg.ChainID),
		common.HexToAddress(cfg.ExchangeAddress),
	)
	hash := hasher.OrderHash(&o)

	sig, err := signature.Sign(key, hash, signature.Method(signMethod))
	if err != nil {
		return fmt.Errorf("sign order: %w", err)
	}

	dto := httpserver.OrderDTO{
		Trader:         o.Trader.Hex(),
		Relayer:        o.Relayer.Hex(),
		MarketContract: o.MarketContract.Hex(),
		Amount:         o.Amount.String(),
		Price:          o.Price.String(),
		GasAmount:      o.GasAmount.String(),
		Data:           hexutil.Encode(o.Data[:]),
		Signature: httpserver.SignatureDTO{
			Method: uint8(sig.Method),
			V:      sig.V,
			R:      hexutil.Encode(sig.R[:]),
			S:      hexutil.Encode(sig.S[:]),
		},
	}

	out, err := json.MarshalIndent(dto, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Order hash: %s\n", hash.Hex())
	fmt.Println(string(out))
	return nil
}
