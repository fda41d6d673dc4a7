package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"thinkr-backend/internal/logger"
	"thinkr-backend/internal/middleware"
	"thinkr-backend/internal/models"
	"thinkr-backend/internal/rag"
)

const maxChatBodyBytes = 1 << 20

type chatPipeline interface {
	Ask(ctx context.Context, query string, history []models.ChatTurn) (string, error)
}

type ChatHandler struct {
	pipeline chatPipeline
	log      logger.ILogger
}

func NewChatHandler(pipeline chatPipeline, log logger.ILogger) *ChatHandler {
	return &ChatHandler{
		pipeline: pipeline,
		log:      log,
	}
}

// Chat answers one question using retrieved documents and the recent chat history.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodyBytes)

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("INVALID_INPUT", "Invalid request body", r))
		return
	}

	history := models.NormalizeHistory(req.ChatHistory)

	answer, err := h.pipeline.Ask(r.Context(), req.Query, history)
	if err != nil {
		h.handleChatError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.ChatResponse{Response: answer})
}

// handleChatError keeps upstream details in the log and out of the response.
func (h *ChatHandler) handleChatError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, rag.ErrEmptyQuery) {
		writeJSON(w, http.StatusBadRequest, errorResp("INVALID_INPUT", "Query cannot be empty", r))
		return
	}

	details := map[string]interface{}{
		"error":      err,
		"request_id": middleware.GetRequestID(r.Context()),
	}
	var upstream *rag.UpstreamError
	if errors.As(err, &upstream) {
		details["stage"] = upstream.Stage
	}
	h.log.Error("chat", "failed to answer question", details)

	writeJSON(w, http.StatusInternalServerError, errorResp("UPSTREAM_FAILURE", "Failed to get AI response", r))
}
