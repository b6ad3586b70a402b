package http

import (
	"net/http"
	"strings"
)

const (
	corsMethods = "GET, POST, PATCH, DELETE, OPTIONS"
	corsHeaders = "Content-Type, Authorization, X-Request-ID"
	corsMaxAge  = "600"
)

type originPolicy struct {
	any     bool
	origins map[string]bool
}

func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{origins: make(map[string]bool, len(origins))}
	for _, o := range origins {
		switch o = strings.TrimSpace(o); o {
		case "":
		case "*":
			p.any = true
		default:
			p.origins[o] = true
		}
	}
	return p
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin, or
// "" when it is not allowed.
func (p originPolicy) allowOrigin(origin string) string {
	switch {
	case p.any:
		return "*"
	case p.origins[origin]:
		return origin
	}
	return ""
}

func isPreflight(r *http.Request) bool {
	return r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
}

// CORS answers preflights for the configured origins ("*" allows any) and
// tags allowed responses. Requests from other origins reach next untagged,
// except preflights, which are refused.
func CORS(allowedOrigins []string, next http.Handler) http.Handler {
	policy := newOriginPolicy(allowedOrigins)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		allow := policy.allowOrigin(origin)
		if allow == "" {
			if isPreflight(r) {
				writeError(w, http.StatusForbidden, codeForbidden, "origin not allowed")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("Access-Control-Allow-Origin", allow)
		if allow != "*" {
			h.Add("Vary", "Origin")
		}
		if isPreflight(r) {
			h.Set("Access-Control-Allow-Methods", corsMethods)
			h.Set("Access-Control-Allow-Headers", corsHeaders)
			h.Set("Access-Control-Max-Age", corsMaxAge)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.Set("Access-Control-Expose-Headers", requestIDHeader)
		next.ServeHTTP(w, r)
	})
}
