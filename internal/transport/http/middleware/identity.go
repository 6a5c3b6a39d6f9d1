package middleware

import (
	"context"
	"net/http"
)

type contextKey string

const identityKey contextKey = "identity_id"

// Identity extracts the caller's identity id from the X-User-Id header and
// injects it into the request context. Requests without the header are
// rejected before reaching any handler.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identityID := r.Header.Get("X-User-Id")
		if identityID == "" {
			writeJSONError(w, http.StatusUnauthorized, "user ID required")
			return
		}
		ctx := context.WithValue(r.Context(), identityKey, identityID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IdentityFromContext extracts the identity id set by the Identity middleware.
func IdentityFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(identityKey).(string)
	return v, ok
}
