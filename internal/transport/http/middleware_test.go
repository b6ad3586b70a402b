package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oumaoumag/eventvex/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestRequestLogger_LogsStatusAndPath(t *testing.T) {
	t.Parallel()

	logger, hook := test.NewNullLogger()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	rec := httptest.NewRecorder()

	RequestLogger(handler, logger).ServeHTTP(rec, req)

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected a log entry")
	}
	if entry.Level != logrus.WarnLevel {
		t.Fatalf("expected warn level for 409, got %s", entry.Level)
	}
	if entry.Data["method"] != http.MethodGet || entry.Data["path"] != "/events" || entry.Data["status"] != http.StatusConflict {
		t.Fatalf("unexpected fields %v", entry.Data)
	}
	if id := rec.Header().Get(requestIDHeader); id == "" || entry.Data["request_id"] != id {
		t.Fatalf("expected request id %q in log, got %v", id, entry.Data["request_id"])
	}
}

func TestRequestLogger_DefaultsTo200AndKeepsIncomingID(t *testing.T) {
	t.Parallel()

	logger, hook := test.NewNullLogger()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()

	RequestLogger(handler, logger).ServeHTTP(rec, req)

	entry := hook.LastEntry()
	if entry.Data["status"] != http.StatusOK || entry.Level != logrus.InfoLevel {
		t.Fatalf("expected info entry with status 200, got %s %v", entry.Level, entry.Data)
	}
	if got := rec.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("expected incoming request id kept, got %q", got)
	}
}

type staticVerifier map[string]domain.Address

func (v staticVerifier) Verify(token string) (domain.Address, error) {
	if addr, ok := v[token]; ok {
		return addr, nil
	}
	return domain.ZeroAddress, errors.New("unknown token")
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	alice := domain.MustAddress("0xa11ce00000000000000000000000000000000005")
	verifier := staticVerifier{"good": alice}

	var seen domain.Address
	var authed bool
	handler := Authenticate(verifier, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, authed = CallerFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name    string
		header  string
		status  int
		authed  bool
		carries domain.Address
	}{
		{"anonymous", "", http.StatusNoContent, false, domain.ZeroAddress},
		{"valid", "Bearer good", http.StatusNoContent, true, alice},
		{"wrong scheme", "Basic good", http.StatusUnauthorized, false, domain.ZeroAddress},
		{"unknown token", "Bearer bad", http.StatusUnauthorized, false, domain.ZeroAddress},
	}
	for _, tt := range tests {
		seen, authed = domain.ZeroAddress, false
		req := httptest.NewRequest(http.MethodPost, "/events", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req.WithContext(context.Background()))

		if rec.Code != tt.status {
			t.Fatalf("%s: expected status %d, got %d", tt.name, tt.status, rec.Code)
		}
		if authed != tt.authed || seen != tt.carries {
			t.Fatalf("%s: expected caller %s (authed %v), got %s (%v)", tt.name, tt.carries, tt.authed, seen, authed)
		}
	}
}
