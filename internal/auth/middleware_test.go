package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGuardedEcho(t *testing.T) (http.Handler, *Service) {
	t.Helper()

	service := newTestService(t, testEmail, testPassword)
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, ok := EmailFromContext(r.Context())
		require.True(t, ok)
		w.Header().Set("X-Email", email)
		w.WriteHeader(http.StatusOK)
	})
	return Middleware(service, echo), service
}

func TestMiddlewareAllowsValidAccessToken(t *testing.T) {
	guarded, service := newGuardedEcho(t)

	token, _, err := service.codec.Mint(testEmail, KindAccess)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	guarded.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testEmail, w.Header().Get("X-Email"))
}

func TestMiddlewareRejections(t *testing.T) {
	guarded, service := newGuardedEcho(t)

	refreshToken, _, err := service.codec.Mint(testEmail, KindRefresh)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc123"},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer not.a.token"},
		{"refresh token as bearer", "Bearer " + refreshToken},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			guarded.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Empty(t, w.Header().Get("X-Email"))
		})
	}
}
