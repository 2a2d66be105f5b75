package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestMiddlewareLimitsEvaluationRequests(t *testing.T) {
	handler := Handler{
		Limiter: Limiter{Client: testClient(t), Prefix: "ratelimit:eval:"},
		Config: Config{
			Key:    func(*http.Request) string { return "10.0.0.1" },
			Window: time.Second,
			Max:    1,
		},
	}

	guarded := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/applicable-coupons", nil)
	rr1 := httptest.NewRecorder()
	guarded.ServeHTTP(rr1, req.Clone(req.Context()))
	if rr1.Code != http.StatusOK {
		t.Fatalf("expected first request allowed, got %d", rr1.Code)
	}

	rr2 := httptest.NewRecorder()
	guarded.ServeHTTP(rr2, req.Clone(req.Context()))
	if rr2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on second request, got %d", rr2.Code)
	}
	if rr2.Header().Get("X-RateLimit-Limit") != "1" {
		t.Fatalf("unexpected limit header: %q", rr2.Header().Get("X-RateLimit-Limit"))
	}
	if rr2.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
	if !strings.Contains(rr2.Body.String(), "RATE_LIMITED") {
		t.Fatalf("expected error envelope, got %q", rr2.Body.String())
	}
}

func TestMiddlewareFailsOpenOnLimiterError(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer func() { _ = client.Close() }()
	handler := Handler{
		Limiter: Limiter{Client: client, Prefix: "ratelimit:eval:"},
		Config: Config{
			Key:    func(*http.Request) string { return "10.0.0.1" },
			Window: time.Second,
			Max:    1,
		},
	}

	called := false
	handler.OnError = func(error) { called = true }

	guarded := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/applicable-coupons", nil)
	rr := httptest.NewRecorder()
	guarded.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected evaluation to proceed on limiter error, got %d", rr.Code)
	}
	if !called {
		t.Fatal("expected OnError callback to be invoked")
	}
}

func TestMiddlewareWithoutKeyFuncPassesThrough(t *testing.T) {
	handler := Handler{Limiter: Limiter{Client: testClient(t), Prefix: "ratelimit:eval:"}}
	guarded := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rr := httptest.NewRecorder()
	guarded.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/applicable-coupons", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected pass-through without key func, got %d", rr.Code)
	}
}
