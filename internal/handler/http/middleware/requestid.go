package middleware

import (
	"context"
	"log/slog"
	"net/http"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v3"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

// RequestID tags each request with an id, reusing a well-formed incoming
// X-Request-Id. The id is echoed in the response and added to the request log.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), chiMiddleware.RequestIDKey, id)
		w.Header().Set(requestIDHeader, id)
		httplog.SetAttrs(ctx, slog.String("request.id", id))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
