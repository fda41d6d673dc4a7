package worker

import (
	"context"
	"fmt"
	"sync"

	"thinkr-backend/internal/logger"
	"thinkr-backend/internal/models"
)

// EmbedBatchSize is the largest number of texts sent in one embedding call.
const EmbedBatchSize = 100

type DocumentEmbedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// DocumentStore replaces all chunks of one source atomically.
type DocumentStore interface {
	ReplaceSource(ctx context.Context, source string, docs []models.Document, embeddings [][]float32) (int64, error)
}

// Job is one corpus file, already split into chunks.
type Job struct {
	Source string
	Chunks []string
}

// Result reports what happened to one Job.
type Result struct {
	Source   string
	Chunks   int
	Replaced int64
	Err      error
}

// Pool embeds and stores ingest jobs on a fixed number of goroutines.
type Pool struct {
	embedder    DocumentEmbedder
	store       DocumentStore
	log         logger.ILogger
	workerCount int

	jobs    chan Job
	wg      sync.WaitGroup
	mu      sync.Mutex
	results []Result
}

func NewPool(embedder DocumentEmbedder, store DocumentStore, log logger.ILogger, workerCount int) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Pool{
		embedder:    embedder,
		store:       store,
		log:         log,
		workerCount: workerCount,
		jobs:        make(chan Job),
	}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	p.log.Info("worker", "started ingest workers", map[string]interface{}{"count": p.workerCount})
}

// Submit blocks until a worker accepts the job or ctx is done.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop waits for in-flight jobs and returns every result in completion order.
func (p *Pool) Stop() []Result {
	close(p.jobs)
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Result(nil), p.results...)
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for job := range p.jobs {
		p.log.Debug("worker", "processing source", map[string]interface{}{"worker": id, "source": job.Source, "chunks": len(job.Chunks)})

		res := p.process(ctx, job)
		if res.Err != nil {
			p.log.Error("worker", "ingest failed", map[string]interface{}{"worker": id, "source": job.Source, "error": res.Err})
		} else {
			p.log.Info("worker", "ingested source", map[string]interface{}{"worker": id, "source": job.Source, "chunks": res.Chunks, "replaced": res.Replaced})
		}

		p.mu.Lock()
		p.results = append(p.results, res)
		p.mu.Unlock()
	}
}

func (p *Pool) process(ctx context.Context, job Job) Result {
	res := Result{Source: job.Source, Chunks: len(job.Chunks)}
	if len(job.Chunks) == 0 {
		res.Err = fmt.Errorf("no chunks to ingest")
		return res
	}

	// Embed everything before touching the store.
	embeddings := make([][]float32, 0, len(job.Chunks))
	for start := 0; start < len(job.Chunks); start += EmbedBatchSize {
		end := min(start+EmbedBatchSize, len(job.Chunks))
		vecs, err := p.embedder.EmbedDocuments(ctx, job.Chunks[start:end])
		if err != nil {
			res.Err = fmt.Errorf("embed chunks %d-%d: %w", start, end-1, err)
			return res
		}
		embeddings = append(embeddings, vecs...)
	}

	docs := make([]models.Document, len(job.Chunks))
	for i, chunk := range job.Chunks {
		docs[i] = models.Document{Source: job.Source, ChunkIndex: i, Content: chunk}
	}

	replaced, err := p.store.ReplaceSource(ctx, job.Source, docs, embeddings)
	if err != nil {
		res.Err = err
		return res
	}
	res.Replaced = replaced
	return res
}
