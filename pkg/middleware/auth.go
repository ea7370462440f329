package middleware

import (
	"context"
	"net/http"
	"strings"

	"medbook/pkg/auth"
	"medbook/pkg/logger"
	"medbook/pkg/model"
)

const CallerKey contextKey = "caller"

// BearerAuth resolves the Authorization header into an explicit model.Caller
// and stores it on the request context. Token issuance belongs to the
// identity service; this layer only verifies and extracts.
func BearerAuth(secret string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if raw == "" || raw == r.Header.Get("Authorization") {
				writeUnauthorized(w, "missing bearer token")
				return
			}

			caller, err := auth.ParseToken(raw, secret)
			if err != nil {
				log.Warn("Token rejected",
					"request_id", requestIDFrom(r),
					"path", r.URL.Path,
					"error", err,
				)
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), CallerKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerFromContext returns the authenticated caller placed by BearerAuth.
func CallerFromContext(ctx context.Context) (model.Caller, bool) {
	caller, ok := ctx.Value(CallerKey).(model.Caller)
	return caller, ok
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
