package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fiszki/fiszki-go/internal/logger"
)

type stubTokens map[string]int64

func (s stubTokens) Parse(token string) (int64, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return 0, errors.New("bad token")
}

func TestJWTAuth(t *testing.T) {
	tokens := stubTokens{"good": 7}
	var gotID int64
	h := JWTAuth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer good", http.StatusNoContent},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"unknown token", "Bearer bad", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized {
				if body := strings.TrimSpace(rec.Body.String()); body != `{"error":"unauthorized"}` {
					t.Errorf("body = %s, want uniform unauthorized body", body)
				}
			} else if gotID != 7 {
				t.Errorf("user id = %d, want 7", gotID)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	rl := NewIPRateLimiter(1, 2)
	fixed := time.Unix(1000, 0)
	rl.now = func() time.Time { return fixed }

	h := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := do("10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, code)
		}
	}
	if code := do("10.0.0.1:5678"); code != http.StatusTooManyRequests {
		t.Errorf("over burst status = %d, want 429", code)
	}
	if code := do("10.0.0.2:1234"); code != http.StatusOK {
		t.Errorf("other ip status = %d, want 200", code)
	}

	fixed = fixed.Add(time.Second)
	if code := do("10.0.0.1:1234"); code != http.StatusOK {
		t.Errorf("after refill status = %d, want 200", code)
	}
}

func TestIPRateLimiter_Prune(t *testing.T) {
	rl := NewIPRateLimiter(1, 1)
	fixed := time.Unix(1000, 0)
	rl.now = func() time.Time { return fixed }

	rl.Allow("a")
	fixed = fixed.Add(visitorTTL + time.Second)
	rl.Allow("b")
	rl.Prune()

	if _, ok := rl.visitors["a"]; ok {
		t.Error("idle visitor a was not pruned")
	}
	if _, ok := rl.visitors["b"]; !ok {
		t.Error("active visitor b was pruned")
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	got := rec.Header().Get(RequestIDHeader)
	if len(got) != 21 {
		t.Errorf("generated id %q has length %d, want 21", got, len(got))
	}
	if seen != got {
		t.Errorf("context id = %q, header id = %q", seen, got)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "upstream-id" {
		t.Errorf("inbound id not reused: %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 100))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); len(got) != 21 {
		t.Errorf("oversized inbound id was kept: %q", got)
	}
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := logger.FromZap(zap.New(core))

	h := RequestID(Logger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("hello"))
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d log entries, want 2", len(entries))
	}

	ok := entries[0].ContextMap()
	if ok["status"] != int64(200) || ok["bytes"] != int64(5) || ok["path"] != "/ok" {
		t.Errorf("first entry fields = %v", ok)
	}
	if id, _ := ok["request_id"].(string); id == "" {
		t.Error("request_id missing from access log")
	}
	if entries[0].Level != zapcore.InfoLevel {
		t.Errorf("first entry level = %v, want info", entries[0].Level)
	}
	if entries[1].Level != zapcore.ErrorLevel {
		t.Errorf("5xx entry level = %v, want error", entries[1].Level)
	}
}
