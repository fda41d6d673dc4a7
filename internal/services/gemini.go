package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"thinkr-backend/internal/logger"
	"thinkr-backend/internal/rag"
)

type GeminiConfig struct {
	APIKey         string
	Model          string
	Temperature    float64
	EmbeddingModel string
	ConcurrentReqs int
}

// GeminiService generates answers and embeddings with the Gemini API.
type GeminiService struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	embedder *genai.EmbeddingModel
	log      logger.ILogger
	rateChan chan struct{} // Token bucket
}

func NewGeminiService(cfg GeminiConfig, log logger.ILogger) (*GeminiService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(float32(cfg.Temperature))
	model.SetTopP(0.95)

	concurrentReqs := cfg.ConcurrentReqs
	if concurrentReqs < 1 {
		concurrentReqs = 1
	}

	return &GeminiService{
		client:   client,
		model:    model,
		embedder: client.EmbeddingModel(cfg.EmbeddingModel),
		log:      log,
		rateChan: newRateBucket(concurrentReqs),
	}, nil
}

func (s *GeminiService) Close() {
	s.client.Close()
}

func newRateBucket(size int) chan struct{} {
	rateChan := make(chan struct{}, size)
	for i := 0; i < size; i++ {
		rateChan <- struct{}{}
	}
	return rateChan
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

// Generate answers an assembled prompt.
func (s *GeminiService) Generate(ctx context.Context, payload rag.PromptPayload) (string, error) {
	if err := s.acquireRate(ctx); err != nil {
		return "", err
	}
	defer s.releaseRate()

	resp, err := s.model.GenerateContent(ctx, genai.Text(payload.Render()))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonStop {
		s.log.Warn("gemini", "answer did not finish normally", map[string]interface{}{
			"finish_reason": resp.Candidates[0].FinishReason.String(),
			"token_count":   resp.Candidates[0].TokenCount,
		})
	}

	text := strings.TrimSpace(extractText(resp))
	if text == "" {
		return "", fmt.Errorf("Gemini returned an empty response")
	}
	return text, nil
}

// EmbedQuery embeds a search query.
func (s *GeminiService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := s.acquireRate(ctx); err != nil {
		return nil, err
	}
	defer s.releaseRate()

	em := *s.embedder
	em.TaskType = genai.TaskTypeRetrievalQuery

	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("Gemini embedding error: %w", err)
	}
	if res == nil || res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("Gemini returned an empty embedding")
	}
	return res.Embedding.Values, nil
}

// EmbedDocuments embeds corpus chunks in one batch call.
func (s *GeminiService) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := s.acquireRate(ctx); err != nil {
		return nil, err
	}
	defer s.releaseRate()

	em := *s.embedder
	em.TaskType = genai.TaskTypeRetrievalDocument

	batch := em.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}

	res, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("Gemini batch embedding error: %w", err)
	}
	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("Gemini returned %d embeddings for %d texts", len(res.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(res.Embeddings))
	for i, e := range res.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("Gemini returned an empty embedding at index %d", i)
		}
		vectors[i] = e.Values
	}
	return vectors, nil
}

// Helper functions

// extractText joins the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}
	var text strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return text.String()
}
