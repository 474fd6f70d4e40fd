package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

// RequireReportAccess requires the admin or hr role
func RequireReportAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.HandleError(w, auth.ErrInvalidToken)
			return
		}

		roleStr, ok := claims["role"].(string)
		if !ok {
			response.HandleError(w, auth.ErrAccessDenied)
			return
		}

		if !auth.Role(roleStr).CanReadReports() {
			response.HandleError(w, auth.ErrAccessDenied)
			return
		}

		next.ServeHTTP(w, r)
	})
}
