package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MiSArch/shoppingcart/internal/apperror"
)

func TestMiddleware_ValidHeader(t *testing.T) {
	callerID := uuid.NewString()
	var gotID string
	var gotOK bool
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotID, gotOK = CallerID(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderName, callerID)
	Middleware(next).ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, gotOK)
	assert.Equal(t, callerID, gotID)
}

func TestMiddleware_MissingHeaderLeavesRequestUnauthenticated(t *testing.T) {
	var gotOK bool
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		_, gotOK = CallerID(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	Middleware(next).ServeHTTP(rec, req)

	assert.False(t, gotOK)
	assert.Equal(t, http.StatusOK, rec.Code, "request passes through without identity")
}

func TestMiddleware_MalformedHeaderLeavesRequestUnauthenticated(t *testing.T) {
	var gotOK bool
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		_, gotOK = CallerID(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderName, "not-a-uuid")
	Middleware(next).ServeHTTP(httptest.NewRecorder(), req)

	assert.False(t, gotOK)
}

func TestAuthorize_MatchingCaller(t *testing.T) {
	ownerID := uuid.NewString()
	ctx := WithCaller(context.Background(), ownerID)

	assert.NoError(t, Authorize(ctx, ownerID))
}

func TestAuthorize_NoIdentity(t *testing.T) {
	err := Authorize(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestAuthorize_DifferentCaller(t *testing.T) {
	ctx := WithCaller(context.Background(), uuid.NewString())
	err := Authorize(ctx, uuid.NewString())
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}
