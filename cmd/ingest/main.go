package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"thinkr-backend/internal/config"
	"thinkr-backend/internal/database"
	"thinkr-backend/internal/ingest"
	"thinkr-backend/internal/logger"
	"thinkr-backend/internal/services"
	"thinkr-backend/internal/vectorstore"
	"thinkr-backend/internal/worker"
	"thinkr-backend/migrations"
)

var errIncomplete = errors.New("some files were not ingested")

func main() {
	dir := flag.String("dir", "docs", "directory of .txt, .md, .pdf and .docx files to index")
	deleteSource := flag.String("delete", "", "remove one previously ingested source (path relative to -dir) instead of ingesting")
	flag.Parse()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("✗ %v", err)
	}

	appLog := logger.NewZapLogger(cfg.LogFile, cfg.IsProduction())
	defer appLog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	if *deleteSource != "" {
		err = runDelete(ctx, *deleteSource, cfg, appLog)
	} else {
		err = runIngest(ctx, *dir, cfg, appLog)
	}
	if err != nil {
		appLog.Error("ingest", "ingest failed", map[string]interface{}{"error": err})
		appLog.Sync()
		os.Exit(1)
	}
}

func openStore(cfg *config.Config, appLog logger.ILogger, embedder vectorstore.QueryEmbedder) (*pgxpool.Pool, *vectorstore.Store, error) {
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	if err := database.RunMigrations(pool, migrations.FS, appLog); err != nil {
		pool.Close()
		return nil, nil, err
	}

	return pool, vectorstore.NewStore(pool, embedder, cfg.RetrievalTopK, cfg.EmbeddingDimensions), nil
}

func runDelete(ctx context.Context, source string, cfg *config.Config, appLog logger.ILogger) error {
	pool, store, err := openStore(cfg, appLog, nil)
	if err != nil {
		return err
	}
	defer pool.Close()

	removed, err := store.DeleteBySource(ctx, source)
	if err != nil {
		return err
	}
	appLog.Info("ingest", "source removed", map[string]interface{}{"source": source, "chunks": removed})

	if removed > 0 {
		purgeRetrievalCache(ctx, cfg, appLog)
	}
	return nil
}

func runIngest(ctx context.Context, dir string, cfg *config.Config, appLog logger.ILogger) error {
	// ──── Step 1: Read and Chunk the Corpus ────
	jobs, failures, err := ingest.CollectJobs(dir, cfg.IngestChunkSize, cfg.IngestChunkOverlap)
	if err != nil {
		return err
	}
	for _, f := range failures {
		appLog.Warn("ingest", "skipping unreadable file", map[string]interface{}{"source": f.Path, "error": f.Err})
	}
	appLog.Info("ingest", "corpus collected", map[string]interface{}{"dir": dir, "files": len(jobs), "failed": len(failures)})

	// ──── Step 2: Connect and Migrate ────
	geminiService, err := services.NewGeminiService(services.GeminiConfig{
		APIKey:         cfg.GeminiAPIKey,
		Model:          cfg.GeminiModel,
		Temperature:    cfg.GeminiTemperature,
		EmbeddingModel: cfg.EmbeddingModel,
		ConcurrentReqs: cfg.GeminiConcurrentReqs,
	}, appLog)
	if err != nil {
		return err
	}
	defer geminiService.Close()

	pool, store, err := openStore(cfg, appLog, geminiService)
	if err != nil {
		return err
	}
	defer pool.Close()

	// ──── Step 3: Embed and Store ────
	workerPool := worker.NewPool(geminiService, store, appLog, cfg.IngestWorkers)
	workerPool.Start(ctx)

	for _, job := range jobs {
		if err := workerPool.Submit(ctx, job); err != nil {
			appLog.Warn("ingest", "stopped submitting jobs", map[string]interface{}{"error": err})
			break
		}
	}
	results := workerPool.Stop()

	// ──── Step 4: Invalidate Cached Retrievals ────
	var chunks, failed int
	for _, res := range results {
		if res.Err != nil {
			failed++
			continue
		}
		chunks += res.Chunks
	}
	if len(results) > failed {
		purgeRetrievalCache(context.Background(), cfg, appLog)
	}

	// ──── Step 5: Summary ────
	total, err := store.Count(context.Background())
	if err != nil {
		appLog.Warn("ingest", "failed to count documents", map[string]interface{}{"error": err})
	}

	appLog.Info("ingest", "ingest finished", map[string]interface{}{
		"files":        len(results) - failed,
		"chunks":       chunks,
		"failed":       failed + len(failures),
		"not_started":  len(jobs) - len(results),
		"stored_total": total,
	})

	if failed+len(failures) > 0 || len(results) < len(jobs) {
		return errIncomplete
	}
	return nil
}

// purgeRetrievalCache drops shared cached retrievals so answers use the new
// chunks right away. A server without REDIS_URL keeps its in-memory cache
// until RETRIEVAL_CACHE_TTL runs out.
func purgeRetrievalCache(ctx context.Context, cfg *config.Config, appLog logger.ILogger) {
	if cfg.RedisURL == "" || cfg.RetrievalCacheTTL == 0 {
		appLog.Info("ingest", "no shared retrieval cache to purge", map[string]interface{}{"cache_ttl": cfg.RetrievalCacheTTL.String()})
		return
	}

	client, err := database.NewRedisClient(cfg.RedisURL, database.RedisOptions{PoolSize: 1})
	if err != nil {
		appLog.Warn("ingest", "retrieval cache not purged", map[string]interface{}{"error": err})
		return
	}
	defer client.Close()

	removed, err := vectorstore.NewRedisCache(client, cfg.RetrievalCacheTTL).Purge(ctx)
	if err != nil {
		appLog.Warn("ingest", "retrieval cache purge incomplete", map[string]interface{}{"error": err, "removed": removed})
		return
	}
	appLog.Info("ingest", "retrieval cache purged", map[string]interface{}{"removed": removed})
}
