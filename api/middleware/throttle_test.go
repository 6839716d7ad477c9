package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/campusnet/campus-api/api/responses"
	pkgerrors "github.com/campusnet/campus-api/pkg/errors"
	"github.com/campusnet/campus-api/pkg/logger"
)

func TestThrottle_AllowsUnderLimit(t *testing.T) {
	store := newFakeRateStore()
	policy := NewThrottlePolicy("login", time.Minute, 2).WithBodyKey("email", 2)
	handler := Throttle(policy, store, responses.New(responses.Options{}), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if !strings.Contains(string(body), `"email":"tester@example.edu"`) {
			t.Fatalf("unexpected body: %s", string(body))
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"tester@example.edu","password":"secret"}`))
	req.RemoteAddr = "1.2.3.4:5678"
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestThrottle_BodyKeyLimitTriggers(t *testing.T) {
	store := newFakeRateStore()
	policy := NewThrottlePolicy("login", time.Minute, 0).WithBodyKey("email", 2)
	handler := Throttle(policy, store, responses.New(responses.Options{}), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		email := "Blocked@example.edu"
		if i == 1 {
			email = " blocked@example.edu "
		}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"`+email+`","password":"secret"}`))
		req.RemoteAddr = "1.2.3.4:5678"
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		switch {
		case i < 2 && rec.Code != http.StatusOK:
			t.Fatalf("expected success before limit, got %d", rec.Code)
		case i >= 2:
			if rec.Code != http.StatusTooManyRequests {
				t.Fatalf("expected 429, got %d", rec.Code)
			}
			if rec.Header().Get("Retry-After") != "60" {
				t.Fatalf("expected Retry-After 60, got %q", rec.Header().Get("Retry-After"))
			}
			var payload struct {
				Success bool `json:"success"`
				Error   struct {
					Code       string `json:"code"`
					Message    string `json:"message"`
					StatusCode int    `json:"statusCode"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if payload.Success || payload.Error.Code != string(pkgerrors.CodeRateLimit) || payload.Error.StatusCode != http.StatusTooManyRequests {
				t.Fatalf("unexpected payload: %+v", payload)
			}
			if payload.Error.Message != "Too many requests, please try again later" {
				t.Fatalf("unexpected message: %s", payload.Error.Message)
			}
		}
	}
}

func TestThrottle_IPLimitTriggers(t *testing.T) {
	store := newFakeRateStore()
	policy := NewThrottlePolicy("default", time.Minute, 1)
	handler := Throttle(policy, store, responses.New(responses.Options{}), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/public/ping", nil)
		req.Header.Set("X-Forwarded-For", "10.0.0.1, 5.6.7.8")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if i == 0 && rec.Code != http.StatusOK {
			t.Fatalf("expected success, got %d", rec.Code)
		}
		if i == 1 && rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", rec.Code)
		}
	}
	if _, ok := store.counts["ip:default:5.6.7.8"]; !ok {
		t.Fatalf("expected proxy-appended ip to be counted, got %v", store.counts)
	}
}

func TestThrottle_SpoofedForwardedForDoesNotResetCounter(t *testing.T) {
	store := newFakeRateStore()
	policy := NewThrottlePolicy("default", time.Minute, 1)
	handler := Throttle(policy, store, responses.New(responses.Options{}), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := []int{}
	for _, spoofed := range []string{"1.1.1.1", "2.2.2.2"} {
		req := httptest.NewRequest(http.MethodGet, "/api/public/ping", nil)
		req.Header.Set("X-Forwarded-For", spoofed+", 198.51.100.4")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("expected 200 then 429, got %v", codes)
	}
	if len(store.counts) != 1 || store.counts["ip:default:198.51.100.4"] != 2 {
		t.Fatalf("expected a single counter for the proxy hop, got %v", store.counts)
	}
}

func TestThrottle_StoreFailureIsServiceUnavailable(t *testing.T) {
	store := newFakeRateStore()
	store.err = errors.New("redis: connection refused")
	policy := NewThrottlePolicy("default", time.Minute, 10)
	handler := Throttle(policy, store, responses.New(responses.Options{}), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Fatalf("store error leaked: %s", rec.Body.String())
	}
}

func TestThrottle_StoreFailureIsLogged(t *testing.T) {
	store := newFakeRateStore()
	store.err = errors.New("redis: i/o timeout")
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})
	policy := NewThrottlePolicy("public", time.Minute, 10)
	handler := Throttle(policy, store, responses.New(responses.Options{Logger: logg}), logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one json log line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "throttle.store_unavailable" || entry["level"] != "warn" {
		t.Fatalf("unexpected log entry %v", entry)
	}
	if entry["policy"] != "public" || entry["error"] != "redis: i/o timeout" {
		t.Fatalf("unexpected log fields %v", entry)
	}
}

func TestThrottle_DisabledPolicyPassesThrough(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	for _, policy := range []ThrottlePolicy{
		NewThrottlePolicy("off", 0, 10),
		NewThrottlePolicy("off", time.Minute, 0),
		NewThrottlePolicy("off", time.Minute, 0).WithBodyKey("", 3),
	} {
		rec := httptest.NewRecorder()
		Throttle(policy, newFakeRateStore(), nil, nil)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected passthrough, got %d", rec.Code)
		}
	}
}

type fakeRateStore struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newFakeRateStore() *fakeRateStore {
	return &fakeRateStore{counts: map[string]int64{}}
}

func (f *fakeRateStore) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, 0, f.err
	}
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}
