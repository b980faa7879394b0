package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeValidator maps known token strings to user IDs.
type fakeValidator struct {
	tokens map[string]uuid.UUID
}

func (v *fakeValidator) ValidateToken(tokenString string) (UserIDGetter, error) {
	userID, ok := v.tokens[tokenString]
	if !ok {
		return nil, fmt.Errorf("invalid token")
	}
	return fakeClaims{userID}, nil
}

type fakeClaims struct{ userID uuid.UUID }

func (c fakeClaims) GetUserID() uuid.UUID { return c.userID }

func authRequest(t *testing.T, validator TokenValidator, header string) (*httptest.ResponseRecorder, *uuid.UUID) {
	t.Helper()

	var seen *uuid.UUID
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := GetUserID(r)
		require.NoError(t, err)
		seen = &id
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/jobs", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	AuthMiddleware(validator)(handler).ServeHTTP(w, req)
	return w, seen
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	userID := uuid.New()
	validator := &fakeValidator{tokens: map[string]uuid.UUID{"good-token": userID}}

	w, seen := authRequest(t, validator, "Bearer good-token")

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, seen)
	assert.Equal(t, userID, *seen)
}

func TestAuthMiddleware_CaseInsensitiveBearer(t *testing.T) {
	userID := uuid.New()
	validator := &fakeValidator{tokens: map[string]uuid.UUID{"good-token": userID}}

	for _, prefix := range []string{"bearer", "BEARER", "BeArEr"} {
		w, _ := authRequest(t, validator, prefix+" good-token")
		assert.Equal(t, http.StatusOK, w.Code, prefix)
	}
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	validator := &fakeValidator{tokens: map[string]uuid.UUID{"good-token": uuid.New()}}

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"no bearer prefix", "good-token"},
		{"bearer without token", "Bearer"},
		{"bearer with empty token", "Bearer "},
		{"unknown token", "Bearer bad-token"},
		{"wrong scheme", "Basic good-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, seen := authRequest(t, validator, tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
			assert.Nil(t, seen, "handler should not run")
		})
	}
}

func TestAuthMiddleware_NilUserID(t *testing.T) {
	// A token that validates but carries no identity must not pass.
	validator := &fakeValidator{tokens: map[string]uuid.UUID{"anon-token": uuid.Nil}}

	w, seen := authRequest(t, validator, "Bearer anon-token")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, seen)
}

func TestGetUserID(t *testing.T) {
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
	req = req.WithContext(context.WithValue(req.Context(), userIDKey, userID))

	got, err := GetUserID(req)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestGetUserID_MissingOrWrongType(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
	_, err := GetUserID(req)
	assert.Error(t, err)

	req = req.WithContext(context.WithValue(req.Context(), UserIDKey(), "not-a-uuid"))
	_, err = GetUserID(req)
	assert.Error(t, err)
}
