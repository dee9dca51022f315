package apierr

import (
	"errors"
	"net/http"
	"time"

	govalidator "github.com/go-playground/validator/v10"

	"github.com/vhtruong/product-catalog/pkg/problem"
	"github.com/vhtruong/product-catalog/pkg/validator"
)

// typeBaseURL prefixes the stable type URI classifying each error kind.
const typeBaseURL = "https://example.com/problems/"

// Problem is the uniform error response body rendered by the API.
type Problem struct {
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Status    int               `json:"status"`
	Detail    string            `json:"detail"`
	Timestamp time.Time         `json:"timestamp"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// New maps any error to its Problem representation. Unclassified errors
// render a generic internal-error body; the full diagnostic is the
// caller's to log.
func New(err error) Problem {
	now := time.Now().UTC()

	var pErr problem.Error
	if errors.As(err, &pErr) {
		typeSlug, title, status := kindTriple(pErr.Kind())

		detail := pErr.Msg()
		if status == http.StatusInternalServerError {
			// never leak internals to the caller
			detail = "an unexpected error occurred"
		}

		return Problem{
			Type:      typeBaseURL + typeSlug,
			Title:     title,
			Status:    status,
			Detail:    detail,
			Timestamp: now,
			Errors:    pErr.Fields(),
		}
	}

	var vErrs govalidator.ValidationErrors
	if errors.As(err, &vErrs) {
		return Problem{
			Type:      typeBaseURL + "validation",
			Title:     "Validation error",
			Status:    http.StatusBadRequest,
			Detail:    "request validation failed",
			Timestamp: now,
			Errors:    validator.FieldErrors(vErrs),
		}
	}

	return Problem{
		Type:      typeBaseURL + "internal",
		Title:     "Internal server error",
		Status:    http.StatusInternalServerError,
		Detail:    "an unexpected error occurred",
		Timestamp: now,
	}
}

// kindTriple returns the fixed type-slug/title/status triple for a kind.
func kindTriple(kind problem.Kind) (string, string, int) {
	switch kind {
	case problem.KindBadRequest:
		return "bad-request", "Bad request", http.StatusBadRequest
	case problem.KindValidationFailed:
		return "validation", "Validation error", http.StatusBadRequest
	case problem.KindUnauthorized:
		return "unauthorized", "Unauthorized", http.StatusUnauthorized
	case problem.KindForbidden:
		return "forbidden", "Forbidden", http.StatusForbidden
	case problem.KindNotFound:
		return "not-found", "Resource not found", http.StatusNotFound
	case problem.KindConflict:
		return "conflict", "Conflict", http.StatusConflict
	default:
		return "internal", "Internal server error", http.StatusInternalServerError
	}
}
