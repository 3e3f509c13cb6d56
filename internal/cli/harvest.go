package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/msc-search/harvester/internal/core/services"
	"github.com/msc-search/harvester/internal/github"
	"github.com/msc-search/harvester/internal/meili"
	"github.com/msc-search/harvester/internal/progress"
	"github.com/msc-search/harvester/internal/state"
)

var (
	flagCursor  string
	flagResume  bool
	flagReplace bool
	flagMode    string
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Run one harvest of the repository into the index",
	Long: `Fetches every pull request of the configured repository with its
review comments, threads, and labels, and loads the resulting documents
into the search index. The last listing cursor reached is echoed and
persisted so a later run can resume.`,
	RunE: runHarvest,
}

func init() {
	harvestCmd.Flags().StringVar(&flagCursor, "cursor", "", "resume the listing from this cursor")
	harvestCmd.Flags().BoolVar(&flagResume, "resume", false, "resume from the last persisted cursor")
	harvestCmd.Flags().BoolVar(&flagReplace, "replace", false, "delete all indexed documents before harvesting")
	harvestCmd.Flags().StringVar(&flagMode, "mode", "", "write mode: batched or single (overrides config)")
	rootCmd.AddCommand(harvestCmd)
}

func runHarvest(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagMode != "" {
		cfg.Writer.Mode = flagMode
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logrus.NewEntry(logrus.StandardLogger())
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	source, err := github.NewClient(github.Config{
		Token:            cfg.GitHub.Token,
		Owner:            cfg.GitHub.Owner,
		Repo:             cfg.GitHub.Repo,
		PageSize:         cfg.GitHub.PageSize,
		MaxRetries:       cfg.GitHub.MaxRetries,
		CommentPageDelay: cfg.GitHub.CommentPageDelay.Std(),
		ProactiveRate:    cfg.GitHub.ProactiveRate,
		MinRemaining:     cfg.GitHub.MinRemaining,
	}, log)
	if err != nil {
		return fmt.Errorf("create source client: %w", err)
	}

	index := meili.NewClient(meili.Config{
		Host:   cfg.Index.Host,
		APIKey: cfg.Index.APIKey,
		Index:  cfg.Index.Name,
	})

	reporter := progress.NewLogReporter(log)
	writer := services.NewIndexWriter(index, reporter, services.WriterOptions{
		Mode:         services.WriteMode(cfg.Writer.Mode),
		ChunkSize:    cfg.Writer.ChunkSize,
		ChunkDelay:   cfg.Writer.ChunkDelay.Std(),
		PollInterval: cfg.Writer.PollInterval.Std(),
		PollAttempts: cfg.Writer.PollAttempts,
	}, log)
	harvester := services.NewHarvester(source, writer, reporter, log)

	// Run history is best-effort: a broken local store should not stop
	// a harvest.
	store, err := state.NewStore(cfg.Harvest.DataDir)
	if err != nil {
		log.WithError(err).Warn("state store unavailable, run will not be recorded")
		store = nil
	} else {
		defer store.Close()
	}

	cursor := cfg.Harvest.Cursor
	if flagCursor != "" {
		cursor = flagCursor
	}
	if flagResume && cursor == "" && store != nil {
		cursor, err = store.LatestCursor(ctx)
		if err != nil {
			return fmt.Errorf("load persisted cursor: %w", err)
		}
	}

	if flagReplace {
		task, err := index.DeleteAllDocuments(ctx)
		if err != nil {
			return fmt.Errorf("delete indexed documents: %w", err)
		}
		log.WithField("task", task).Info("index emptied for replacement harvest")
	}

	runID := uuid.NewString()
	startedAt := time.Now()
	if store != nil {
		if err := store.Begin(ctx, runID, startedAt); err != nil {
			log.WithError(err).Warn("failed to record run start")
		}
	}

	report, runErr := harvester.Run(ctx, services.HarvestOptions{
		RunID:  runID,
		Cursor: cursor,
		FanOut: cfg.Harvest.FanOut,
	})

	if store != nil && report != nil {
		if err := store.Finish(ctx, state.Run{
			ID:           report.RunID,
			StartedAt:    startedAt,
			PullRequests: report.PullRequests,
			Documents:    report.Documents,
			Dropped:      report.Dropped,
			FailedUIDs:   report.FailedUIDs,
			LastCursor:   report.LastCursor,
		}); err != nil {
			log.WithError(err).Warn("failed to record run result")
		}
	}

	printSummary(cmd, report)

	if stats, err := index.Stats(ctx); err == nil {
		cmd.Printf("Index stats: %d documents (indexing: %t)\n",
			stats.NumberOfDocuments, stats.IsIndexing)
	} else {
		log.WithError(err).Warn("failed to fetch index stats")
	}

	// Partial write failures are reported above; only a fatal
	// listing-stage failure terminates with a non-zero status.
	if runErr != nil {
		return fmt.Errorf("harvest failed: %w", runErr)
	}
	return nil
}

func printSummary(cmd *cobra.Command, report *services.Report) {
	if report == nil {
		return
	}
	cmd.Printf("Pull requests fetched: %d\n", report.PullRequests)
	cmd.Printf("Documents indexed:     %d\n", report.Documents)
	cmd.Printf("Comments processed:    %d\n", report.Comments)
	if len(report.Dropped) > 0 {
		cmd.Printf("Dropped pull requests: %v\n", report.Dropped)
	}
	if len(report.FailedUIDs) > 0 {
		cmd.Printf("Failed document uids:  %v\n", report.FailedUIDs)
	}
	cmd.Printf("Last Cursor: %s\n", report.LastCursor)
	cmd.Printf("Duration: %s\n", report.Duration.Round(time.Second))
}
