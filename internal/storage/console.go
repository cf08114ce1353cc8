package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rexeee/mai-protocol/pkg/types"
)

// ConsoleStorage implements Storage by pretty-printing to console.
type ConsoleStorage struct {
	logger *zap.Logger
}

// NewConsoleStorage creates a new console storage.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{
		logger: logger,
	}
}

// StoreSettlement pretty-prints a settled leg to console.
func (c *ConsoleStorage) StoreSettlement(ctx context.Context, event *types.SettlementEvent) error {
	fmt.Println("\n" + "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("LEG SETTLED (%s)\n", event.Mode)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("ID:       %s\n", event.ID[:8])
	fmt.Printf("Match:    %s\n", event.MatchID[:8])
	fmt.Printf("Market:   %s\n", event.MarketContract)
	fmt.Printf("Time:     %s\n", event.SettledAt.Format("2006-01-02 15:04:05"))
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("  Taker:   %s\n", event.Taker)
	fmt.Printf("  Maker:   %s\n", event.Maker)
	fmt.Printf("  Amount:  %s @ price %s\n", event.FillAmount.String(), event.Price.String())
	fmt.Printf("  Fees:    taker %s / maker %s (rebate %s)\n",
		event.TakerFee.String(), event.MakerFee.String(), event.MakerRebate.String())
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}
