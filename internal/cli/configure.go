package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msc-search/harvester/internal/core/ports/driven"
	"github.com/msc-search/harvester/internal/meili"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Push attribute settings and synonyms to the index",
	Long: `Declares the index's displayed, searchable, filterable, and sortable
attribute sets and its synonym dictionary. Idempotent; typically run
once per index lifetime.`,
	RunE: runConfigure,
}

func init() {
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Index.Name == "" {
		return fmt.Errorf("missing index name")
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

	err = index.ApplySettings(ctx, driven.IndexSettings{
		Displayed:  cfg.Index.Settings.Displayed,
		Searchable: cfg.Index.Settings.Searchable,
		Filterable: cfg.Index.Settings.Filterable,
		Sortable:   cfg.Index.Settings.Sortable,
		Synonyms:   cfg.Index.Settings.Synonyms,
	})
	if err != nil {
		return fmt.Errorf("apply index settings: %w", err)
	}

	cmd.Printf("Index %q configured.\n", cfg.Index.Name)
	return nil
}
