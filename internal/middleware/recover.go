package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"thinkr-backend/internal/logger"
)

// Recoverer turns a panic into a logged 500 with the standard error envelope.
func Recoverer(log logger.ILogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				log.Error("http", "panic while serving request", map[string]interface{}{
					"error":      fmt.Errorf("panic: %v", rec),
					"request_id": GetRequestID(r.Context()),
					"path":       r.URL.Path,
					"stack":      string(debug.Stack()),
				})

				if r.Header.Get("Connection") != "Upgrade" {
					writeError(w, http.StatusInternalServerError, "UPSTREAM_FAILURE", "Failed to get AI response", r)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
