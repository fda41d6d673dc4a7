package rag

import (
	"errors"
	"fmt"
)

// ErrEmptyQuery is returned when the query is empty or only whitespace.
var ErrEmptyQuery = errors.New("query cannot be empty")

// ErrEmptyAnswer is returned when the generator produced no text.
var ErrEmptyAnswer = errors.New("model returned an empty answer")

// UpstreamError wraps a failure of an external collaborator.
type UpstreamError struct {
	Stage string // "retrieval" | "generation"
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
