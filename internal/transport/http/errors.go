package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/oumaoumag/eventvex/internal/domain"
	"github.com/sirupsen/logrus"
)

const (
	codeNotFound           = "not_found"
	codeInvalidRequestBody = "invalid_request_body"
	codeInvalidID          = "invalid_id"
	codeInvalidAddress     = "invalid_address"
	codeInvalidQuery       = "invalid_query"
	codeMissingToken       = "missing_token"
	codeInvalidToken       = "invalid_token"
	codeForbidden          = "forbidden"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// statusFor maps an error kind onto its HTTP status.
func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindAuthorization:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindStateConflict:
		return http.StatusConflict
	case domain.KindPayment:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError answers with the status and code of err's domain kind.
// Anything unclassified is logged and reported as an internal error.
func writeDomainError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		log.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
		return
	}
	writeError(w, statusFor(de.Kind), de.Code, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a single JSON object and rejects unknown fields. An
// empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil {
		return true
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return false
	}
	return true
}
