package rag

import (
	"context"
	"strings"

	"thinkr-backend/internal/models"
)

// Retriever returns documents relevant to a text query.
type Retriever interface {
	SimilaritySearch(ctx context.Context, query string) ([]models.Document, error)
}

// Generator turns an assembled prompt into an answer.
type Generator interface {
	Generate(ctx context.Context, payload PromptPayload) (string, error)
}

// Pipeline answers one question: augment, retrieve, format, assemble, generate.
// It holds no per-request state and is safe for concurrent use when its
// collaborators are.
type Pipeline struct {
	retriever Retriever
	generator Generator
	limits    Limits
}

func NewPipeline(retriever Retriever, generator Generator, limits Limits) *Pipeline {
	return &Pipeline{
		retriever: retriever,
		generator: generator,
		limits:    limits.withDefaults(),
	}
}

func (p *Pipeline) Ask(ctx context.Context, query string, history []models.ChatTurn) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", ErrEmptyQuery
	}

	searchQuery := AugmentQuery(query, history, p.limits)

	docs, err := p.retriever.SimilaritySearch(ctx, searchQuery)
	if err != nil {
		return "", &UpstreamError{Stage: "retrieval", Err: err}
	}

	payload := AssemblePrompt(query, JoinDocuments(docs), FormatHistory(history, p.limits))

	answer, err := p.generator.Generate(ctx, payload)
	if err != nil {
		return "", &UpstreamError{Stage: "generation", Err: err}
	}
	if strings.TrimSpace(answer) == "" {
		return "", &UpstreamError{Stage: "generation", Err: ErrEmptyAnswer}
	}

	return answer, nil
}

// JoinDocuments concatenates document contents with single spaces.
func JoinDocuments(docs []models.Document) string {
	parts := make([]string, len(docs))
	for i, d := range docs {
		parts[i] = d.Content
	}
	return strings.Join(parts, " ")
}
