package capsule

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRequireCapsuleRejectsMissingToken(t *testing.T) {
	m := NewMiddleware(zap.NewNop())

	called := false
	handler := m.RequireCapsule(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodPost, "/get-tables", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized: Missing token\n", w.Body.String())
}

func TestRequireCapsulePassesTokenThroughContext(t *testing.T) {
	m := NewMiddleware(zap.NewNop())

	var got string
	handler := m.RequireCapsule(func(w http.ResponseWriter, r *http.Request) {
		token, ok := TokenFromContext(r.Context())
		require.True(t, ok)
		got = token
	})

	r := httptest.NewRequest(http.MethodPost, "/get-tables", nil)
	r.Header.Set("Authorization", "Bearer some.capsule.token")
	w := httptest.NewRecorder()
	handler(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "some.capsule.token", got)
}
