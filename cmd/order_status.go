package cmd

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var orderStatusCmd = &cobra.Command{
	Use:   "order-status <order-hash>",
	Short: "Show an order's filled amount and cancellation state",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrderStatus,
}

//nolint:gochecknoglobals // Cobra flags
var statusRelayerURL string

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(orderStatusCmd)

	orderStatusCmd.Flags().StringVar(&statusRelayerURL, "url", "http://localhost:8080", "Relayer base URL")
}

func runOrderStatus(cmd *cobra.Command, args []string) error {
	url := strings.TrimSuffix(statusRelayerURL, "/") + "/api/v1/orders/" + args[0]
	client := &http.Client{Timeout: 10 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("query order status: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("relayer returned status %d: %s", resp.StatusCode, string(body))
	}

	fmt.Println(string(body))
	return nil
}
