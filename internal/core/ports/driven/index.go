package driven

import (
	"context"

	"github.com/msc-search/harvester/internal/core/domain"
)

// TaskState is the lifecycle state of an asynchronous index write task.
type TaskState string

// Task states reported by the index service.
const (
	TaskEnqueued   TaskState = "enqueued"
	TaskProcessing TaskState = "processing"
	TaskSucceeded  TaskState = "succeeded"
	TaskFailed     TaskState = "failed"
)

// Terminal reports whether the task has finished.
func (s TaskState) Terminal() bool {
	return s == TaskSucceeded || s == TaskFailed
}

// TaskInfo describes one write task.
type TaskInfo struct {
	UID   int64
	State TaskState
	Error string
}

// IndexStats is the index service's stats snapshot.
type IndexStats struct {
	NumberOfDocuments int64
	IsIndexing        bool
	FieldDistribution map[string]int64
}

// SearchIndex is the document-write surface of the hosted search index.
type SearchIndex interface {
	// AddDocuments submits a batch of documents keyed by the declared
	// primary key and returns the identifier of the resulting task.
	AddDocuments(ctx context.Context, docs []domain.Document) (int64, error)

	// Task looks up the state of a previously submitted task.
	Task(ctx context.Context, uid int64) (*TaskInfo, error)

	// Stats retrieves the index stats snapshot.
	Stats(ctx context.Context) (*IndexStats, error)
}

// IndexSettings is the administrative attribute configuration pushed to
// the index once per index lifetime.
type IndexSettings struct {
	Displayed  []string
	Searchable []string
	Filterable []string
	Sortable   []string
	Synonyms   map[string][]string
}

// IndexAdmin is the idempotent administrative surface of the index.
type IndexAdmin interface {
	// ApplySettings declares the attribute sets and synonym dictionary.
	ApplySettings(ctx context.Context, settings IndexSettings) error

	// DeleteAllDocuments empties the index ahead of a full replacement
	// harvest and returns the task identifier.
	DeleteAllDocuments(ctx context.Context) (int64, error)
}
