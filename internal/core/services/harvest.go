package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/msc-search/harvester/internal/core/domain"
	"github.com/msc-search/harvester/internal/core/ports/driven"
)

// DefaultFanOut bounds the concurrent per-pull-request enrichment
// within one listing page.
const DefaultFanOut = 8

// HarvestOptions tunes one harvest run.
type HarvestOptions struct {
	// RunID identifies the run in logs and the state store. A fresh
	// identifier is generated when empty.
	RunID string

	// Cursor resumes the pull-request listing from a prior run.
	Cursor string

	// FanOut bounds the concurrent document construction per page.
	FanOut int
}

// Report is the final accounting of one harvest run.
type Report struct {
	RunID        string
	PullRequests int
	Documents    int
	Comments     int

	// Dropped lists pull requests whose enrichment failed and that
	// therefore never reached the index writer.
	Dropped []int

	// FailedUIDs lists documents the index rejected or never
	// confirmed.
	FailedUIDs []int

	// LastCursor is the final cursor reached; persisting it lets the
	// next run resume the listing.
	LastCursor string

	Duration time.Duration
}

// Harvester runs the full pipeline: rate-limit gate, paginated
// pull-request retrieval, per-pull-request enrichment, document
// construction, and batched index delivery.
type Harvester struct {
	source   driven.Source
	writer   *IndexWriter
	progress driven.ProgressReporter
	log      *logrus.Entry
}

// NewHarvester wires a harvester from its collaborators.
func NewHarvester(source driven.Source, writer *IndexWriter, progress driven.ProgressReporter, log *logrus.Entry) *Harvester {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Harvester{
		source:   source,
		writer:   writer,
		progress: progress,
		log:      log.WithField("component", "harvester"),
	}
}

// Run executes one harvest. A failure on the top-level listing is
// fatal; per-pull-request enrichment failures drop only that pull
// request, and index write failures are recorded and reported. The
// run always produces a Report alongside any fatal error.
func (h *Harvester) Run(ctx context.Context, opts HarvestOptions) (*Report, error) {
	if opts.FanOut <= 0 {
		opts.FanOut = DefaultFanOut
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}

	report := &Report{
		RunID:      opts.RunID,
		LastCursor: opts.Cursor,
	}
	start := time.Now()
	defer func() { report.Duration = time.Since(start) }()

	log := h.log.WithField("run", report.RunID)
	log.Info("harvest starting")

	// No harvest without the ability to estimate cost.
	if err := h.source.AwaitQuota(ctx); err != nil {
		return report, fmt.Errorf("await quota: %w", err)
	}

	pager, err := h.source.PullRequests(opts.Cursor)
	if err != nil {
		return report, fmt.Errorf("open pull request listing: %w", err)
	}

	for {
		page, err := pager.Next(ctx)
		if err != nil {
			// A half-trusted listing page is worse than a dead run.
			return report, fmt.Errorf("list pull requests: %w", err)
		}
		if page == nil {
			break
		}

		report.PullRequests += len(page.Items)
		h.progress.Add(driven.StagePullRequests, len(page.Items))
		log.WithField("total", report.PullRequests).Info("pull requests found")

		docs := h.buildPage(ctx, page.Items, opts.FanOut, report, log)

		failed, err := h.writer.Write(ctx, docs)
		report.FailedUIDs = append(report.FailedUIDs, failed...)
		if err != nil {
			return report, fmt.Errorf("write documents: %w", err)
		}
		report.Documents += len(docs) - len(failed)

		report.LastCursor = page.Cursor
	}

	sort.Ints(report.Dropped)
	sort.Ints(report.FailedUIDs)

	log.WithFields(logrus.Fields{
		"pull_requests": report.PullRequests,
		"documents":     report.Documents,
		"dropped":       len(report.Dropped),
		"failed_writes": len(report.FailedUIDs),
		"cursor":        report.LastCursor,
	}).Info("harvest finished")

	return report, nil
}

// buildPage constructs the documents for one listing page. Enrichment
// of independent pull requests fans out with a concurrency bound and
// settle-all semantics: one item's failure never aborts its siblings,
// it only drops that pull request and records the omission.
func (h *Harvester) buildPage(ctx context.Context, items []domain.PullRequest, fanOut int, report *Report, log *logrus.Entry) []domain.Document {
	built := make([]*domain.Document, len(items))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOut)

	for i, pr := range items {
		g.Go(func() error {
			doc, comments, err := h.enrich(gctx, pr)
			if err != nil {
				log.WithField("pr", pr.Number).WithError(err).Warn("dropping pull request, enrichment failed")
				mu.Lock()
				report.Dropped = append(report.Dropped, pr.Number)
				mu.Unlock()
				return nil
			}
			built[i] = doc
			mu.Lock()
			report.Comments += comments
			mu.Unlock()
			h.progress.Add(driven.StageComments, comments)
			return nil
		})
	}
	// Closures never return an error; Wait only observes ctx.
	_ = g.Wait()

	docs := make([]domain.Document, 0, len(items))
	for _, doc := range built {
		if doc != nil {
			docs = append(docs, *doc)
		}
	}
	return docs
}

// enrich fetches one pull request's comment stream and labels and
// builds its document. The document must exist in full before it is
// handed to the writer; nothing is ever partially persisted.
func (h *Harvester) enrich(ctx context.Context, pr domain.PullRequest) (*domain.Document, int, error) {
	comments, err := h.source.Comments(ctx, pr.Number)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch comments: %w", err)
	}

	threads, freeStanding := AggregateThreads(comments)
	h.log.WithFields(logrus.Fields{
		"pr":            pr.Number,
		"threads":       len(threads),
		"free_standing": len(freeStanding),
	}).Debug("comment stream aggregated")

	labels, err := h.source.Labels(ctx, pr.Number)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch labels: %w", err)
	}

	doc := BuildDocument(pr, labels, threads, freeStanding)
	return &doc, len(comments), nil
}
