package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRateLimiter_Allow(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute, UserRefExtractor, testLogger())
	defer limiter.Stop()

	if !limiter.Allow("user-1") {
		t.Error("first request should be allowed")
	}
	if !limiter.Allow("user-1") {
		t.Error("second request should be allowed")
	}
	if limiter.Allow("user-1") {
		t.Error("third request should be rejected")
	}
	if !limiter.Allow("user-2") {
		t.Error("another subject should not be affected")
	}
	if !limiter.Allow("") {
		t.Error("empty subject is never limited")
	}
}

func TestRateLimit_RejectsOverLimit(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute, UserRefExtractor, testLogger())
	defer limiter.Stop()

	handler := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", nil)
	first.Header.Set("X-User-Ref", "user-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}

	second := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", nil)
	second.Header.Set("X-User-Ref", "user-1")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", rec.Code)
	}
}

func TestMaxRequestSize_RejectsOversizedBody(t *testing.T) {
	handler := MaxRequestSize(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(strings.Repeat("x", 64)))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
}

func TestContentTypeValidation(t *testing.T) {
	handler := ContentTypeValidation(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name        string
		method      string
		contentType string
		wantStatus  int
	}{
		{"json post", http.MethodPost, "application/json", http.StatusOK},
		{"json with charset", http.MethodPatch, "application/json; charset=utf-8", http.StatusOK},
		{"get without content type", http.MethodGet, "", http.StatusOK},
		{"post without content type", http.MethodPost, "", http.StatusUnsupportedMediaType},
		{"post with form data", http.MethodPost, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/bookings", nil)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestIdempotency_ReplaysCachedResponse(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()

	calls := 0
	handler := Idempotency(store, "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"abc"}`))
	}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", nil)
		req.Header.Set("Idempotency-Key", "key-1")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Errorf("request %d: expected 201, got %d", i, rec.Code)
		}
		if rec.Body.String() != `{"id":"abc"}` {
			t.Errorf("request %d: unexpected body %s", i, rec.Body.String())
		}
	}

	if calls != 1 {
		t.Errorf("expected handler to run once, ran %d times", calls)
	}
}

func TestIdempotency_NoKeyRunsEveryTime(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()

	calls := 0
	handler := Idempotency(store, "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
	}

	if calls != 2 {
		t.Errorf("expected handler to run twice without a key, ran %d times", calls)
	}
}

func TestRecovery_ConvertsPanicTo500(t *testing.T) {
	handler := Recovery(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/facilities", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}
