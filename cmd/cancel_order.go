package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var cancelOrderCmd = &cobra.Command{
	Use:   "cancel-order",
	Short: "Cancel a signed order through a running relayer",
	Long: `Reads a signed order (the JSON printed by sign-order) from stdin or a file
and submits it to the relayer's cancel endpoint. The relayer verifies the
trader's signature before recording the cancellation.`,
	RunE: runCancelOrder,
}

//nolint:gochecknoglobals // Cobra flags
var (
	cancelOrderFile  string
	cancelRelayerURL string
)

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(cancelOrderCmd)

	cancelOrderCmd.Flags().StringVarP(&cancelOrderFile, "file", "f", "-", "Signed order JSON file, - for stdin")
	cancelOrderCmd.Flags().StringVar(&cancelRelayerURL, "url", "http://localhost:8080", "Relayer base URL")
}

func runCancelOrder(cmd *cobra.Command, args []string) error {
	var payload []byte
	var err error

	if cancelOrderFile == "-" {
		payload, err = io.ReadAll(os.Stdin)
	} else {
		payload, err = os.ReadFile(cancelOrderFile)
	}
	if err != nil {
		return fmt.Errorf("read signed order: %w", err)
	}

	url := strings.TrimSuffix(cancelRelayerURL, "/") + "/api/v1/orders/cancel"
	client := &http.Client{Timeout: 10 * time.Second}

	resp, err := client.Post(url, "application/json", strings.NewReader(string(payload)))
	if err != nil {
		return fmt.Errorf("submit cancellation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("relayer rejected cancellation: status %d: %s", resp.StatusCode, string(body))
	}

	fmt.Println("Order cancelled.")
	return nil
}
