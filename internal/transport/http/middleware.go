package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oumaoumag/eventvex/internal/domain"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-ID"

type ctxKey int

const (
	callerKey ctxKey = iota
	requestIDKey
)

// RequestLogger assigns a request id and logs method, path, status and
// latency once the handler returns.
func RequestLogger(next http.Handler, logger logrus.FieldLogger) http.Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey, id))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		entry := logger.WithFields(logrus.Fields{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"duration":   time.Since(start).String(),
		})
		switch {
		case rec.status >= 500:
			entry.Error("request")
		case rec.status >= 400:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// TokenVerifier resolves a bearer token to the caller's address.
type TokenVerifier interface {
	Verify(token string) (domain.Address, error)
}

// Authenticate attaches the caller of a valid bearer token to the request
// context. Requests without an Authorization header pass through
// anonymously; a malformed or invalid token is rejected.
func Authenticate(verifier TokenVerifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeError(w, http.StatusUnauthorized, codeInvalidToken, "authorization must be a bearer token")
			return
		}
		caller, err := verifier.Verify(strings.TrimSpace(token))
		if err != nil {
			writeError(w, http.StatusUnauthorized, codeInvalidToken, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey, caller)))
	})
}

// CallerFrom returns the authenticated caller, if any.
func CallerFrom(ctx context.Context) (domain.Address, bool) {
	caller, ok := ctx.Value(callerKey).(domain.Address)
	return caller, ok
}

// requireCaller writes 401 when the request is anonymous.
func requireCaller(w http.ResponseWriter, r *http.Request) (domain.Address, bool) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeMissingToken, "missing bearer token")
	}
	return caller, ok
}
