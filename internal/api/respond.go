package api

import (
	"context"
	"encoding/json"
	"net/http"

	"halomind/internal/services/study"
	"halomind/pkg/errors"
	"halomind/pkg/logger"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// ResultResponse wraps every successful payload. A null result means the
// model answered but the answer could not be interpreted.
type ResultResponse struct {
	Result interface{} `json:"result"`
}

func respondJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func respondResult(w http.ResponseWriter, v interface{}) {
	respondJSON(w, http.StatusOK, ResultResponse{Result: v})
}

// respondError maps err onto an HTTP status. Unknown failures are logged and
// reported with a generic message.
func respondError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	if r.Context().Err() != nil {
		// client is gone
		log.Debugw("request canceled by client", "path", r.URL.Path, "error", err)
		return
	}

	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		log.Errorw("request failed", "path", r.URL.Path, "error", err)
		msg = "internal error"
	} else {
		log.Warnw("request failed", "path", r.URL.Path, "status", code, "error", err)
	}

	respondJSON(w, code, ErrorResponse{Error: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errors.ErrInvalidInput), errors.Is(err, errors.ErrUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, errors.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, errors.ErrUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody reads a JSON body into dst and validates its tags
func decodeBody(w http.ResponseWriter, r *http.Request, maxBytes int64, dst interface{}) error {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errors.NewValidationError("body", "exceeds the size limit")
		}
		return errors.NewValidationError("body", "malformed JSON: "+err.Error())
	}
	return study.ValidateStruct(dst)
}
