package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msc-search/harvester/internal/meili"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the index stats snapshot",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	index := meili.NewClient(meili.Config{
		Host:   cfg.Index.Host,
		APIKey: cfg.Index.APIKey,
		Index:  cfg.Index.Name,
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	stats, err := index.Stats(ctx)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	out, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	cmd.Println(string(out))
	return nil
}
