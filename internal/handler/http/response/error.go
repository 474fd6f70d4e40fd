package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// RetryAfterSeconds is advertised when the upstream database is unreachable.
const RetryAfterSeconds = 30

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Malformed input carries the per-field validation errors
	if errors.Is(err, attendance.ErrMalformedInput) {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			BadRequest(w, "Malformed input", validationErrs.ToMap())
			return
		}
		BadRequest(w, "Malformed input", nil)
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrAccessDenied):
		Forbidden(w, err.Error())

	// Upstream errors
	case errors.Is(err, attendance.ErrUpstreamUnavailable):
		slog.Warn("Upstream database unavailable", "error", err)
		ServiceUnavailable(w, "Attendance database unavailable, retry later", RetryAfterSeconds)
	case errors.Is(err, attendance.ErrUnresolvedSchema):
		slog.Error("Upstream schema could not be resolved", "error", err)
		InternalServerError(w, "Attendance database schema not recognized")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
