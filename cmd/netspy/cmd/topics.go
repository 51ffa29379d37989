package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nfrund/netspy/cmd/netspy/internal/output"
	"github.com/nfrund/netspy/internal/spy"
)

var (
	topicsWait   time.Duration
	topicsFormat string
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Discover the network for a while and list its topics",
	Long: `Run discovery without the interactive console, then print every topic found.

Examples:
  netspy topics                         # wait 2s, print a table
  netspy topics --wait 10s              # give slow participants more time
  netspy topics --format json           # machine-readable output

Output formats:
  table - Human-readable table format (default)
  json  - Machine-readable JSON format with discovery counters`,
	Args: cobra.NoArgs,
	RunE: runTopics,
}

func init() {
	topicsCmd.Flags().DurationVarP(&topicsWait, "wait", "w", 2*time.Second, "how long to listen before printing")
	topicsCmd.Flags().StringVarP(&topicsFormat, "format", "f", "table", "output format: table or json")
	rootCmd.AddCommand(topicsCmd)
}

func runTopics(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(topicsFormat)
	if format != "table" && format != "json" {
		return fmt.Errorf("invalid format %q: valid formats are table, json", topicsFormat)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	tool, err := spy.New(cmd.Context(), cfg, spy.WithInput(strings.NewReader("")), spy.WithOutput(cmd.OutOrStdout()))
	if err != nil {
		return fmt.Errorf("start netspy: %w", err)
	}
	defer tool.Close()

	select {
	case <-time.After(topicsWait):
	case <-cmd.Context().Done():
		return cmd.Context().Err()
	}

	discovered := tool.Registry().List()
	if format == "json" {
		snapshot, err := tool.Metrics().Snapshot()
		if err != nil {
			return fmt.Errorf("gather metrics: %w", err)
		}
		return output.DisplayTopicsJSON(cmd.OutOrStdout(), discovered, snapshot)
	}
	output.DisplayTopicsTable(cmd.OutOrStdout(), discovered)
	return nil
}
