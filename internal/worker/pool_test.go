package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thinkr-backend/internal/logger"
	"thinkr-backend/internal/models"
)

type fakeEmbedder struct {
	mu        sync.Mutex
	batches   []int
	failOnSrc string
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.batches = append(f.batches, len(texts))
	f.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, t := range texts {
		if f.failOnSrc != "" && t == f.failOnSrc {
			return nil, errors.New("quota exceeded")
		}
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}

type fakeStore struct {
	mu        sync.Mutex
	docs      map[string][]models.Document
	deleted   map[string]int
	insertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: map[string][]models.Document{}, deleted: map[string]int{}}
}

// ReplaceSource behaves like a transaction: nothing changes unless the insert succeeds.
func (s *fakeStore) ReplaceSource(ctx context.Context, source string, docs []models.Document, embeddings [][]float32) (int64, error) {
	if len(docs) != len(embeddings) {
		return 0, fmt.Errorf("mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	n := len(s.docs[source])
	s.docs[source] = append([]models.Document(nil), docs...)
	s.deleted[source]++
	return int64(n), nil
}

func runPool(t *testing.T, p *Pool, jobs ...Job) []Result {
	t.Helper()
	ctx := context.Background()
	p.Start(ctx)
	for _, j := range jobs {
		require.NoError(t, p.Submit(ctx, j))
	}
	results := p.Stop()
	sort.Slice(results, func(i, j int) bool { return results[i].Source < results[j].Source })
	return results
}

func TestPool_IngestsAllJobs(t *testing.T) {
	store := newFakeStore()
	p := NewPool(&fakeEmbedder{}, store, logger.NewNopLogger(), 3)

	results := runPool(t, p,
		Job{Source: "ace.pdf", Chunks: []string{"a", "b"}},
		Job{Source: "pca.md", Chunks: []string{"c"}},
		Job{Source: "pde.txt", Chunks: []string{"d", "e", "f"}},
	)

	require.Len(t, results, 3)
	for _, r := range results {
		assert.NoError(t, r.Err)
	}
	assert.Len(t, store.docs["pde.txt"], 3)
	assert.Equal(t, 2, store.docs["pde.txt"][2].ChunkIndex)
}

func TestPool_ReplacesPreviousChunks(t *testing.T) {
	store := newFakeStore()
	store.docs["ace.pdf"] = []models.Document{{Source: "ace.pdf"}, {Source: "ace.pdf"}, {Source: "ace.pdf"}}
	p := NewPool(&fakeEmbedder{}, store, logger.NewNopLogger(), 1)

	results := runPool(t, p, Job{Source: "ace.pdf", Chunks: []string{"new"}})

	require.Len(t, results, 1)
	assert.Equal(t, int64(3), results[0].Replaced)
	assert.Len(t, store.docs["ace.pdf"], 1)
}

func TestPool_EmbeddingFailureKeepsOldChunks(t *testing.T) {
	store := newFakeStore()
	store.docs["ace.pdf"] = []models.Document{{Source: "ace.pdf", Content: "old"}}
	p := NewPool(&fakeEmbedder{failOnSrc: "bad"}, store, logger.NewNopLogger(), 2)

	results := runPool(t, p, Job{Source: "ace.pdf", Chunks: []string{"bad"}})

	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
	assert.Zero(t, store.deleted["ace.pdf"])
	assert.Equal(t, "old", store.docs["ace.pdf"][0].Content)
}

func TestPool_InsertFailureKeepsOldChunks(t *testing.T) {
	store := newFakeStore()
	for i := 0; i < 5; i++ {
		store.docs["ace.md"] = append(store.docs["ace.md"], models.Document{Source: "ace.md", ChunkIndex: i, Content: "old"})
	}
	store.insertErr = errors.New("insert failed")
	p := NewPool(&fakeEmbedder{}, store, logger.NewNopLogger(), 1)

	results := runPool(t, p, Job{Source: "ace.md", Chunks: []string{"new 1", "new 2"}})

	require.Len(t, results, 1)
	assert.ErrorContains(t, results[0].Err, "insert failed")
	assert.Zero(t, results[0].Replaced)
	assert.Len(t, store.docs["ace.md"], 5)
	assert.Equal(t, "old", store.docs["ace.md"][0].Content)
}

func TestPool_BatchesLargeJobs(t *testing.T) {
	embedder := &fakeEmbedder{}
	chunks := make([]string, EmbedBatchSize*2+5)
	for i := range chunks {
		chunks[i] = fmt.Sprintf("chunk %d", i)
	}
	p := NewPool(embedder, newFakeStore(), logger.NewNopLogger(), 1)

	results := runPool(t, p, Job{Source: "big.pdf", Chunks: chunks})

	require.NoError(t, results[0].Err)
	assert.Equal(t, []int{EmbedBatchSize, EmbedBatchSize, 5}, embedder.batches)
}

func TestPool_EmptyJobFails(t *testing.T) {
	p := NewPool(&fakeEmbedder{}, newFakeStore(), logger.NewNopLogger(), 1)

	results := runPool(t, p, Job{Source: "empty.txt"})

	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
}
