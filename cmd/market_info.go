package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rexeee/mai-protocol/internal/market"
)

//nolint:gochecknoglobals // Cobra boilerplate
var marketInfoCmd = &cobra.Command{
	Use:   "market-info <market-contract>",
	Short: "Print a market's on-chain configuration",
	Long: `Reads the price band, quantity multiplier, fee rate, and token addresses
straight from the deployed market contract.`,
	Args: cobra.ExactArgs(1),
	RunE: runMarketInfo,
}

//nolint:gochecknoglobals // Cobra flags
var marketInfoRPC string

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(marketInfoCmd)

	marketInfoCmd.Flags().StringVarP(&marketInfoRPC, "rpc", "r", "http://localhost:8545", "Ethereum RPC endpoint")
}

func runMarketInfo(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil {
		// Optional for this command; RPC comes from the flag.
		_ = err
	}

	if !common.IsHexAddress(args[0]) {
		return fmt.Errorf("market contract must be a hex address, got %q", args[0])
	}
	contract := common.HexToAddress(args[0])

	logger := zap.NewNop()
	source, err := market.NewChainSource(marketInfoRPC, logger)
	if err != nil {
		return fmt.Errorf("create chain source: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	snap, err := source.Snapshot(ctx, contract)
	if err != nil {
		return fmt.Errorf("fetch market snapshot: %w", err)
	}

	fmt.Printf("=== Market %s ===\n\n", snap.MarketContract.Hex())
	fmt.Printf("Price cap:      %s\n", snap.PriceCap.String())
	fmt.Printf("Price floor:    %s\n", snap.PriceFloor.String())
	fmt.Printf("Multiplier:     %s\n", snap.Multiplier.String())
	fmt.Printf("Mint fee rate:  %s\n", snap.FeeRate.String())
	fmt.Printf("Collateral:     %s\n", snap.Collateral.Hex())
	fmt.Printf("Long token:     %s\n", snap.LongToken.Hex())
	fmt.Printf("Short token:    %s\n", snap.ShortToken.Hex())

	return nil
}
