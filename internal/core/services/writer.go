package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/msc-search/harvester/internal/core/domain"
	"github.com/msc-search/harvester/internal/core/ports/driven"
)

// WriteMode selects the index delivery strategy.
type WriteMode string

const (
	// WriteBatched submits fixed-size chunks with a pacing delay
	// between successive chunks.
	WriteBatched WriteMode = "batched"

	// WriteSingle submits one document per request and polls the
	// resulting task to a terminal state.
	WriteSingle WriteMode = "single"
)

// TaskOutcome is the result of waiting on one write task.
type TaskOutcome string

const (
	// OutcomeCompleted means the task reached succeeded.
	OutcomeCompleted TaskOutcome = "completed"

	// OutcomeFailed means the task reached failed.
	OutcomeFailed TaskOutcome = "failed"

	// OutcomeTimedOut means the polling budget ran out first.
	OutcomeTimedOut TaskOutcome = "timed_out"
)

// Writer defaults.
const (
	DefaultChunkSize    = 1000
	DefaultChunkDelay   = 5 * time.Second
	DefaultPollInterval = 2 * time.Second
	DefaultPollAttempts = 30
)

// WriterOptions tunes the index writer.
type WriterOptions struct {
	Mode         WriteMode
	ChunkSize    int
	ChunkDelay   time.Duration
	PollInterval time.Duration
	PollAttempts int
}

func (o *WriterOptions) applyDefaults() {
	if o.Mode == "" {
		o.Mode = WriteBatched
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.ChunkDelay < 0 {
		o.ChunkDelay = DefaultChunkDelay
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.PollAttempts <= 0 {
		o.PollAttempts = DefaultPollAttempts
	}
}

// IndexWriter delivers documents to the search index in bounded
// batches, paces writes to respect the service's ingestion capacity,
// and records which identifiers failed. A write failure is never fatal
// to the run.
type IndexWriter struct {
	index    driven.SearchIndex
	progress driven.ProgressReporter
	opts     WriterOptions
	log      *logrus.Entry
}

// NewIndexWriter creates an index writer over the given index port.
func NewIndexWriter(index driven.SearchIndex, progress driven.ProgressReporter, opts WriterOptions, log *logrus.Entry) *IndexWriter {
	opts.applyDefaults()
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &IndexWriter{
		index:    index,
		progress: progress,
		opts:     opts,
		log:      log.WithField("component", "writer"),
	}
}

// Chunk partitions docs into slices of at most size documents, in
// order, covering every document exactly once.
func Chunk(docs []domain.Document, size int) [][]domain.Document {
	if size <= 0 {
		size = DefaultChunkSize
	}
	chunks := make([][]domain.Document, 0, (len(docs)+size-1)/size)
	for start := 0; start < len(docs); start += size {
		end := start + size
		if end > len(docs) {
			end = len(docs)
		}
		chunks = append(chunks, docs[start:end])
	}
	return chunks
}

// Write delivers docs to the index using the configured mode and
// returns the uids that could not be confirmed written. The returned
// error is non-nil only when the context is cancelled.
func (w *IndexWriter) Write(ctx context.Context, docs []domain.Document) ([]int, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	if w.opts.Mode == WriteSingle {
		return w.writeSingle(ctx, docs)
	}
	return w.writeBatched(ctx, docs)
}

// writeBatched submits fixed-size chunks, pacing successive chunk
// submissions with a fixed delay. Blunt, non-adaptive backpressure
// matching the index service's ingestion throughput.
func (w *IndexWriter) writeBatched(ctx context.Context, docs []domain.Document) ([]int, error) {
	var failed []int

	chunks := Chunk(docs, w.opts.ChunkSize)
	for i, chunk := range chunks {
		if i > 0 {
			select {
			case <-ctx.Done():
				return failed, ctx.Err()
			case <-time.After(w.opts.ChunkDelay):
			}
		}

		task, err := w.index.AddDocuments(ctx, chunk)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return failed, err
			}
			w.log.WithFields(logrus.Fields{
				"chunk": i,
				"size":  len(chunk),
			}).WithError(err).Warn("chunk write failed")
			for _, doc := range chunk {
				failed = append(failed, doc.UID)
			}
			continue
		}

		w.log.WithFields(logrus.Fields{
			"chunk": i,
			"size":  len(chunk),
			"task":  task,
		}).Debug("chunk submitted")
		w.progress.Add(driven.StageDocuments, len(chunk))
	}

	return failed, nil
}

// writeSingle submits each document individually and confirms the
// write by polling its task to a terminal state.
func (w *IndexWriter) writeSingle(ctx context.Context, docs []domain.Document) ([]int, error) {
	var failed []int

	for _, doc := range docs {
		task, err := w.index.AddDocuments(ctx, []domain.Document{doc})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return failed, err
			}
			w.log.WithField("uid", doc.UID).WithError(err).Warn("document write failed")
			failed = append(failed, doc.UID)
			continue
		}

		outcome, err := w.awaitTask(ctx, task)
		if err != nil {
			return failed, err
		}
		if outcome != OutcomeCompleted {
			w.log.WithFields(logrus.Fields{
				"uid":     doc.UID,
				"task":    task,
				"outcome": string(outcome),
			}).Warn("document write not confirmed")
			failed = append(failed, doc.UID)
			continue
		}

		w.progress.Add(driven.StageDocuments, 1)
	}

	return failed, nil
}

// awaitTask polls a write task with a bounded attempt budget and a
// fixed inter-poll delay. The returned error is non-nil only on
// context cancellation; lookup failures consume attempts.
func (w *IndexWriter) awaitTask(ctx context.Context, uid int64) (TaskOutcome, error) {
	for attempt := 0; attempt < w.opts.PollAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return OutcomeTimedOut, ctx.Err()
			case <-time.After(w.opts.PollInterval):
			}
		}

		info, err := w.index.Task(ctx, uid)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return OutcomeTimedOut, err
			}
			w.log.WithField("task", uid).WithError(err).Debug("task lookup failed")
			continue
		}

		switch info.State {
		case driven.TaskSucceeded:
			return OutcomeCompleted, nil
		case driven.TaskFailed:
			return OutcomeFailed, nil
		}
	}

	return OutcomeTimedOut, nil
}
