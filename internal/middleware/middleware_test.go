package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"thinkr-backend/internal/models"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	var seenHeader, seenCtx string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenHeader = r.Header.Get(RequestIDHeader)
		seenCtx = GetRequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if seenHeader == "" {
		t.Fatal("expected generated request ID on request header")
	}
	if seenCtx != seenHeader {
		t.Errorf("context ID %q does not match header %q", seenCtx, seenHeader)
	}
	if rr.Header().Get(RequestIDHeader) != seenHeader {
		t.Errorf("expected response header %q, got %q", seenHeader, rr.Header().Get(RequestIDHeader))
	}
}

func TestRequestID_KeepsInboundID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-123")

	rr := httptest.NewRecorder()
	RequestID(okHandler).ServeHTTP(rr, req)

	if got := rr.Header().Get(RequestIDHeader); got != "req-123" {
		t.Errorf("Expected 'req-123', got %q", got)
	}
}

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()
	h := rl.Middleware(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)

		if rr.Code == http.StatusTooManyRequests {
			var body models.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if body.Error.Code != "RATE_LIMITED" {
				t.Errorf("Expected RATE_LIMITED, got %q", body.Error.Code)
			}
		}
	}

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("request %d: expected %d, got %d", i, want[i], codes[i])
		}
	}

	// different IP
	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("other client should not be limited, got %d", rr.Code)
	}
}

func TestRateLimiter_WindowResets(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()

	now := time.Now()
	rl.now = func() time.Time { return now }

	if !rl.allow("1.2.3.4") {
		t.Fatal("first request should pass")
	}
	if rl.allow("1.2.3.4") {
		t.Fatal("second request in window should be limited")
	}

	now = now.Add(2 * time.Minute)
	if !rl.allow("1.2.3.4") {
		t.Fatal("request after the window should pass")
	}
}

func TestRateLimiter_SteadyTrafficUnderLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Stop()

	now := time.Now()
	rl.now = func() time.Time { return now }

	// two requests a minute against a limit of three
	for i := 0; i < 10; i++ {
		if !rl.allow("1.2.3.4") {
			t.Fatalf("request %d at +%s was limited", i, time.Duration(i)*30*time.Second)
		}
		now = now.Add(30 * time.Second)
	}
}

func TestRateLimiter_RetriesDoNotExtendWindow(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()

	start := time.Now()
	now := start
	rl.now = func() time.Time { return now }

	if !rl.allow("1.2.3.4") {
		t.Fatal("first request should pass")
	}
	for i := 1; i <= 5; i++ {
		now = start.Add(time.Duration(i) * 10 * time.Second)
		if rl.allow("1.2.3.4") {
			t.Fatalf("retry at +%s should be limited", now.Sub(start))
		}
	}

	now = start.Add(61 * time.Second)
	if !rl.allow("1.2.3.4") {
		t.Fatal("request after the first window should pass despite retries")
	}
}

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	h := CORS([]string{"http://localhost:3000"})(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Expected allowed origin header, got %q", got)
	}
}

func TestCORS_RejectsOtherOrigin(t *testing.T) {
	h := CORS([]string{"http://localhost:3000"})(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Expected no allow-origin header, got %q", got)
	}
}
