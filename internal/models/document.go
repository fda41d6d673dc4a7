package models

import (
	"time"

	"github.com/google/uuid"
)

// Document is a chunk of the certification corpus stored in the vector store.
type Document struct {
	ID         uuid.UUID `json:"id"`
	Source     string    `json:"source"`
	ChunkIndex int       `json:"chunk_index"`
	Content    string    `json:"content"`
	Score      float64   `json:"score,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}
