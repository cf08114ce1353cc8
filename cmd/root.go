package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "mai-protocol",
	Short: "Off-chain matching and settlement relayer for derivative position tokens",
	Long: `Relayer service that matches signed trader orders against each other and
settles them atomically through a market's position tokens.

Opposite-side orders exchange existing long tokens, two buys mint a fresh
long/short pair from collateral, and two sells redeem a pair back into
collateral. Every fill is checked against the order's signature, expiry,
cancellation state, and remaining amount before anything moves.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
