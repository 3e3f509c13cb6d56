package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msc-search/harvester/internal/core/domain"
	"github.com/msc-search/harvester/internal/core/ports/driven"
	"github.com/msc-search/harvester/internal/progress"
)

// fakeIndex implements driven.SearchIndex for writer tests.
type fakeIndex struct {
	mu       sync.Mutex
	batches  [][]domain.Document
	addErrOn map[int]error                 // error by 0-based call number
	tasks    map[int64][]driven.TaskState  // state sequence per task, last repeats
	seen     map[int64]int
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{
		addErrOn: make(map[int]error),
		tasks:    make(map[int64][]driven.TaskState),
		seen:     make(map[int64]int),
	}
}

func (f *fakeIndex) AddDocuments(_ context.Context, docs []domain.Document) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := len(f.batches)
	f.batches = append(f.batches, docs)
	if err, ok := f.addErrOn[call]; ok {
		return 0, err
	}
	return int64(call + 1), nil
}

func (f *fakeIndex) Task(_ context.Context, uid int64) (*driven.TaskInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	states, ok := f.tasks[uid]
	if !ok {
		return &driven.TaskInfo{UID: uid, State: driven.TaskSucceeded}, nil
	}
	i := f.seen[uid]
	if i >= len(states) {
		i = len(states) - 1
	}
	f.seen[uid]++
	return &driven.TaskInfo{UID: uid, State: states[i]}, nil
}

func (f *fakeIndex) Stats(context.Context) (*driven.IndexStats, error) {
	return &driven.IndexStats{}, nil
}

func makeDocs(n int) []domain.Document {
	docs := make([]domain.Document, n)
	for i := range docs {
		docs[i] = domain.Document{UID: i + 1, Number: i + 1}
	}
	return docs
}

func newTestWriter(index driven.SearchIndex, opts WriterOptions) *IndexWriter {
	if opts.PollInterval == 0 {
		opts.PollInterval = time.Millisecond
	}
	return NewIndexWriter(index, progress.Nop{}, opts, nil)
}

func TestChunk(t *testing.T) {
	sizes := []int{0, 1, 999, 1000, 2500}
	for _, n := range sizes {
		docs := makeDocs(n)
		chunks := Chunk(docs, 1000)

		want := (n + 999) / 1000
		require.Len(t, chunks, want, "n=%d", n)

		var total int
		for _, chunk := range chunks {
			assert.LessOrEqual(t, len(chunk), 1000)
			total += len(chunk)
		}
		assert.Equal(t, n, total, "every document covered exactly once")

		// Order preserved across chunk boundaries.
		uid := 1
		for _, chunk := range chunks {
			for _, doc := range chunk {
				assert.Equal(t, uid, doc.UID)
				uid++
			}
		}
	}
}

func TestIndexWriter_Batched(t *testing.T) {
	t.Run("submits ceil(n/size) chunks", func(t *testing.T) {
		index := newFakeIndex()
		writer := newTestWriter(index, WriterOptions{Mode: WriteBatched, ChunkSize: 1000})

		failed, err := writer.Write(context.Background(), makeDocs(2500))

		require.NoError(t, err)
		assert.Empty(t, failed)
		require.Len(t, index.batches, 3)
		assert.Len(t, index.batches[0], 1000)
		assert.Len(t, index.batches[1], 1000)
		assert.Len(t, index.batches[2], 500)
	})

	t.Run("empty input submits nothing", func(t *testing.T) {
		index := newFakeIndex()
		writer := newTestWriter(index, WriterOptions{Mode: WriteBatched})

		failed, err := writer.Write(context.Background(), nil)

		require.NoError(t, err)
		assert.Empty(t, failed)
		assert.Empty(t, index.batches)
	})

	t.Run("a failed chunk records its uids and the run continues", func(t *testing.T) {
		index := newFakeIndex()
		index.addErrOn[0] = errors.New("index unavailable")
		writer := newTestWriter(index, WriterOptions{Mode: WriteBatched, ChunkSize: 2})

		failed, err := writer.Write(context.Background(), makeDocs(5))

		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, failed)
		require.Len(t, index.batches, 3, "later chunks still submitted")
	})

	t.Run("paces successive chunks", func(t *testing.T) {
		index := newFakeIndex()
		delay := 30 * time.Millisecond
		writer := newTestWriter(index, WriterOptions{Mode: WriteBatched, ChunkSize: 1, ChunkDelay: delay})

		start := time.Now()
		_, err := writer.Write(context.Background(), makeDocs(3))

		require.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 2*delay)
	})
}

func TestIndexWriter_Single(t *testing.T) {
	t.Run("confirms each document via its task", func(t *testing.T) {
		index := newFakeIndex()
		writer := newTestWriter(index, WriterOptions{Mode: WriteSingle})

		failed, err := writer.Write(context.Background(), makeDocs(3))

		require.NoError(t, err)
		assert.Empty(t, failed)
		require.Len(t, index.batches, 3)
		for _, batch := range index.batches {
			assert.Len(t, batch, 1)
		}
	})

	t.Run("a failed task records the uid and continues", func(t *testing.T) {
		index := newFakeIndex()
		// Second document's task (uid 2) fails.
		index.tasks[2] = []driven.TaskState{driven.TaskProcessing, driven.TaskFailed}
		writer := newTestWriter(index, WriterOptions{Mode: WriteSingle})

		docs := []domain.Document{{UID: 5}, {UID: 7}, {UID: 9}}
		failed, err := writer.Write(context.Background(), docs)

		require.NoError(t, err)
		assert.Equal(t, []int{7}, failed)
		require.Len(t, index.batches, 3, "document 7 is reported, not silently dropped")
	})

	t.Run("a task that never settles times out and records the uid", func(t *testing.T) {
		index := newFakeIndex()
		index.tasks[1] = []driven.TaskState{driven.TaskProcessing}
		writer := newTestWriter(index, WriterOptions{Mode: WriteSingle, PollAttempts: 3})

		failed, err := writer.Write(context.Background(), makeDocs(1))

		require.NoError(t, err)
		assert.Equal(t, []int{1}, failed)
	})
}
