package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"thinkr-backend/internal/config"
	"thinkr-backend/internal/database"
	"thinkr-backend/internal/handlers"
	"thinkr-backend/internal/logger"
	"thinkr-backend/internal/middleware"
	"thinkr-backend/internal/rag"
	"thinkr-backend/internal/router"
	"thinkr-backend/internal/services"
	"thinkr-backend/internal/vectorstore"
	"thinkr-backend/migrations"
)

func main() {
	log.Println("🚀 Starting Thinkr API...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("✗ %v", err)
	}

	appLog := logger.NewZapLogger(cfg.LogFile, cfg.IsProduction())
	defer appLog.Sync()
	appLog.Info("main", "configuration loaded", map[string]interface{}{"env": cfg.Env, "llm_provider": cfg.LLMProvider})

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		appLog.Error("main", "PostgreSQL connection failed", map[string]interface{}{"error": err})
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.RunMigrations(pool, migrations.FS, appLog); err != nil {
		appLog.Error("main", "database migration failed", map[string]interface{}{"error": err})
		os.Exit(1)
	}

	// ──── Step 3: Initialize Retrieval Cache ────
	var cache vectorstore.Cache
	if cfg.RetrievalCacheTTL > 0 {
		if cfg.RedisURL != "" {
			redisClient, err := database.NewRedisClient(cfg.RedisURL, database.RedisOptions{
				PoolSize: cfg.RedisPoolSize,
				Timeout:  cfg.RedisTimeout,
			})
			if err != nil {
				appLog.Error("main", "Redis connection failed", map[string]interface{}{"error": err})
				os.Exit(1)
			}
			defer redisClient.Close()
			cache = vectorstore.NewRedisCache(redisClient, cfg.RetrievalCacheTTL)
			appLog.Info("main", "retrieval cache backed by Redis", nil)
		} else {
			cache = vectorstore.NewMemoryCache(cfg.RetrievalCacheTTL)
			appLog.Info("main", "retrieval cache kept in memory", nil)
		}
	}

	// ──── Step 4: Initialize Gemini Client ────
	geminiService, err := services.NewGeminiService(services.GeminiConfig{
		APIKey:         cfg.GeminiAPIKey,
		Model:          cfg.GeminiModel,
		Temperature:    cfg.GeminiTemperature,
		EmbeddingModel: cfg.EmbeddingModel,
		ConcurrentReqs: cfg.GeminiConcurrentReqs,
	}, appLog)
	if err != nil {
		appLog.Error("main", "Gemini client initialization failed", map[string]interface{}{"error": err})
		os.Exit(1)
	}
	defer geminiService.Close()

	// ──── Step 5: Choose the Answer Generator ────
	var generator rag.Generator = geminiService
	if cfg.LLMProvider == "openai" {
		openaiService, err := services.NewOpenAIService(services.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
		})
		if err != nil {
			appLog.Error("main", "OpenAI client initialization failed", map[string]interface{}{"error": err})
			os.Exit(1)
		}
		generator = openaiService
	}
	appLog.Info("main", "generator ready", map[string]interface{}{"provider": cfg.LLMProvider})

	// ──── Step 6: Build the Retrieval Pipeline ────
	var retriever rag.Retriever = vectorstore.NewStore(pool, geminiService, cfg.RetrievalTopK, cfg.EmbeddingDimensions)
	if cache != nil {
		retriever = vectorstore.NewCachedRetriever(retriever, cache, appLog)
	}

	pipeline := rag.NewPipeline(retriever, generator, rag.Limits{
		AugmentTurnWindow:  cfg.AugmentTurnWindow,
		VagueQueryMaxWords: cfg.VagueQueryMaxWords,
		HistoryLineWindow:  cfg.HistoryLineWindow,
	})

	// ──── Step 7: Start HTTP Server ────
	var chatLimiter *middleware.RateLimiter
	if cfg.ChatRateLimit > 0 {
		chatLimiter = middleware.NewRateLimiter(cfg.ChatRateLimit, time.Minute)
		defer chatLimiter.Stop()
	}

	r := router.New(
		handlers.NewChatHandler(pipeline, appLog),
		handlers.NewHealthHandler(),
		chatLimiter,
		cfg.AllowedOrigins,
		appLog,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	idle := make(chan struct{})
	go func() {
		defer close(idle)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		appLog.Info("main", "shutting down", nil)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			appLog.Error("main", "graceful shutdown failed", map[string]interface{}{"error": err})
		}
	}()

	appLog.Info("main", "Thinkr API ready", map[string]interface{}{"addr": "http://localhost:" + cfg.Port})

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		appLog.Error("main", "server error", map[string]interface{}{"error": err})
		os.Exit(1)
	}
	<-idle
}
