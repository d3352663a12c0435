package ai

import (
	"context"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"

	"halomind/pkg/errors"
)

// Kind classifies provider failures
type Kind string

const (
	KindAuthentication Kind = "authentication"
	KindRateLimit      Kind = "rate_limit"
	KindServer         Kind = "server"
	KindInvalidRequest Kind = "invalid_request"
	KindUnsupported    Kind = "unsupported"
	KindCanceled       Kind = "canceled"
	KindUnknown        Kind = "unknown"
)

// ProviderError is a provider failure classified once at the transport boundary
type ProviderError struct {
	Provider   ProviderName
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

// Error implements error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (status %d): %s", e.Provider, e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Message)
}

// Unwrap exposes the pkg/errors sentinel for the kind and the provider's original error
func (e *ProviderError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Retryable reports whether the retry engine may try again
func (e *ProviderError) Retryable() bool {
	return e.Kind == KindRateLimit || e.Kind == KindServer
}

// HTTPStatus returns the upstream status code, 0 when there was none
func (e *ProviderError) HTTPStatus() int {
	return e.StatusCode
}

func (k Kind) sentinel() error {
	switch k {
	case KindAuthentication:
		return errors.ErrUnauthorized
	case KindRateLimit:
		return errors.ErrRateLimitExceeded
	case KindServer:
		return errors.ErrUnavailable
	case KindInvalidRequest:
		return errors.ErrInvalidInput
	case KindUnsupported:
		return errors.ErrUnsupported
	default:
		return nil
	}
}

var (
	// ErrNoCredential is returned when no primary credential is configured
	ErrNoCredential = &ProviderError{
		Provider: ProviderGemini,
		Kind:     KindAuthentication,
		Message:  "API key not set, add a Google Gemini API key in settings",
	}

	// ErrUnsupportedByFallback marks operations the fallback provider cannot serve
	ErrUnsupportedByFallback = &ProviderError{
		Provider: ProviderOpenRouter,
		Kind:     KindUnsupported,
		Message:  "operation is not supported by the fallback provider",
	}
)

// HTTPStatusError is a non-2xx response from a raw HTTP call
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}

// KindForStatus maps an HTTP status onto the taxonomy
func KindForStatus(code int) Kind {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return KindAuthentication
	case code == http.StatusTooManyRequests:
		return KindRateLimit
	case code >= 500:
		return KindServer
	case code >= 400:
		return KindInvalidRequest
	default:
		return KindUnknown
	}
}

// Classify converts a raw transport error into a *ProviderError.
// Already classified errors and nil pass through unchanged.
func Classify(provider ProviderName, err error) error {
	if err == nil {
		return nil
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}

	out := &ProviderError{Provider: provider, Kind: KindUnknown, Message: err.Error(), Err: err}

	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	var oaiErr *openai.Error
	var httpErr *HTTPStatusError

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		out.Kind = KindCanceled
	case errors.As(err, &apiErr):
		out.StatusCode, out.Message = apiErr.Code, apiErr.Message
		out.Kind = kindForGenAI(apiErr)
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		out.StatusCode, out.Message = apiErrPtr.Code, apiErrPtr.Message
		out.Kind = kindForGenAI(*apiErrPtr)
	case errors.As(err, &oaiErr):
		out.StatusCode, out.Message = oaiErr.StatusCode, oaiErr.Message
		out.Kind = KindForStatus(oaiErr.StatusCode)
	case errors.As(err, &httpErr):
		out.StatusCode, out.Message = httpErr.StatusCode, httpErr.Body
		out.Kind = KindForStatus(httpErr.StatusCode)
	}

	return out
}

func kindForGenAI(e genai.APIError) Kind {
	switch e.Status {
	case "RESOURCE_EXHAUSTED":
		return KindRateLimit
	case "UNAUTHENTICATED", "PERMISSION_DENIED":
		return KindAuthentication
	case "UNAVAILABLE", "INTERNAL", "DEADLINE_EXCEEDED":
		return KindServer
	}
	return KindForStatus(e.Code)
}

// IsRetryable reports whether err is a retryable provider failure
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	return false
}

// KindOf returns the classified kind of err, KindUnknown when unclassified
func KindOf(err error) Kind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	return KindUnknown
}
