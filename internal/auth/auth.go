// Package auth consumes the already-verified caller identity forwarded by the
// gateway and gates owner-scoped operations on it. Token verification itself
// happens upstream; this service only compares identities.
package auth

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/MiSArch/shoppingcart/internal/apperror"
)

// HeaderName carries the verified caller UUID, set by the gateway.
const HeaderName = "Authorized-User"

type contextKey struct{}

// WithCaller returns a context carrying the authenticated caller id.
func WithCaller(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// CallerID returns the authenticated caller id, if any.
func CallerID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok
}

// Middleware extracts the caller identity header into the request context. An
// absent or malformed header leaves the request unauthenticated rather than
// rejecting it; identity-gated operations fail closed later.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := r.Header.Get(HeaderName); raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				r = r.WithContext(WithCaller(r.Context(), id.String()))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Authorize checks that the authenticated caller is the owner. It fails closed
// with an authorization error when no identity is present or ids differ.
func Authorize(ctx context.Context, ownerID string) error {
	callerID, ok := CallerID(ctx)
	if !ok || callerID != ownerID {
		return apperror.NewUnauthorized(ownerID)
	}
	return nil
}
