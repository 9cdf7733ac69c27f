package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mayagift/giftbloom-backend/pkg/types"
)

type fakeRateStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newFakeRateStore() *fakeRateStore {
	return &fakeRateStore{counts: map[string]int64{}}
}

func (s *fakeRateStore) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[key]++
	return s.counts[key], nil
}

func loginAttempt(t *testing.T, handler http.Handler, email, remoteAddr string) *httptest.ResponseRecorder {
	t.Helper()

	body := strings.NewReader(`{"email":"` + email + `","password":"secret123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRateLimitAllowsUnderLimit(t *testing.T) {
	policy := NewAuthRateLimitPolicy("login", time.Minute, 10, 5)
	handler := AuthRateLimit(policy, newFakeRateStore(), nil)(okHandler())

	for i := 0; i < 5; i++ {
		rec := loginAttempt(t, handler, "asha@example.com", "10.0.0.1:1234")
		if rec.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200, got %d", i+1, rec.Code)
		}
	}
}

func TestAuthRateLimitBlocksEmailAfterLimit(t *testing.T) {
	policy := NewAuthRateLimitPolicy("login", time.Minute, 100, 3)
	handler := AuthRateLimit(policy, newFakeRateStore(), nil)(okHandler())

	for i := 0; i < 3; i++ {
		if rec := loginAttempt(t, handler, "asha@example.com", "10.0.0.1:1234"); rec.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	rec := loginAttempt(t, handler, "asha@example.com", "10.0.0.2:1234")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after email limit, got %d", rec.Code)
	}

	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.Code != "RATE_LIMITED" {
		t.Fatalf("expected RATE_LIMITED code, got %q", envelope.Error.Code)
	}

	// A different account from the same address is still fine.
	if rec := loginAttempt(t, handler, "ravi@example.com", "10.0.0.2:1234"); rec.Code != http.StatusOK {
		t.Fatalf("expected other email to pass, got %d", rec.Code)
	}
}

func TestAuthRateLimitBlocksIPAfterLimit(t *testing.T) {
	policy := NewAuthRateLimitPolicy("register", time.Minute, 2, 0)
	handler := AuthRateLimit(policy, newFakeRateStore(), nil)(okHandler())

	for i := 0; i < 2; i++ {
		if rec := loginAttempt(t, handler, "asha@example.com", "10.0.0.9:4321"); rec.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	if rec := loginAttempt(t, handler, "other@example.com", "10.0.0.9:4321"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after ip limit, got %d", rec.Code)
	}
	if rec := loginAttempt(t, handler, "other@example.com", "10.0.0.10:4321"); rec.Code != http.StatusOK {
		t.Fatalf("expected other ip to pass, got %d", rec.Code)
	}
}

func TestAuthRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	policy := NewAuthRateLimitPolicy("login", 0, 0, 0)
	handler := AuthRateLimit(policy, newFakeRateStore(), nil)(okHandler())

	for i := 0; i < 50; i++ {
		if rec := loginAttempt(t, handler, "asha@example.com", "10.0.0.1:1234"); rec.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200, got %d", i+1, rec.Code)
		}
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := clientIP(req); got != "203.0.113.7" {
		t.Fatalf("expected forwarded ip, got %q", got)
	}

	req.Header.Del("X-Forwarded-For")
	req.Header.Set("X-Real-IP", "198.51.100.4")
	if got := clientIP(req); got != "198.51.100.4" {
		t.Fatalf("expected real-ip header, got %q", got)
	}

	req.Header.Del("X-Real-IP")
	if got := clientIP(req); got != "10.0.0.1" {
		t.Fatalf("expected socket peer host, got %q", got)
	}
}
