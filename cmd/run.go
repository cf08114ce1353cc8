package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rexeee/mai-protocol/internal/app"
	"github.com/rexeee/mai-protocol/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the relayer service",
	Long: `Starts the relayer service, which will:
1. Serve the match and cancel API over HTTP
2. Read market configuration from the market contracts
3. Settle matched orders atomically (paper ledger or on-chain proxy)
4. Stream settlement events to websocket subscribers`,
	RunE: runService,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
}

func runService(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
