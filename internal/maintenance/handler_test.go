package maintenance

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confedit/internal/observability"
)

type fakePurger struct {
	revocations int
	lockouts    int
}

func (f *fakePurger) PurgeExpiredRevocations() int { f.revocations++; return 2 }
func (f *fakePurger) PurgeStaleLockouts(time.Time) int {
	f.lockouts++
	return 1
}

func TestCleanupRequiresCronSecret(t *testing.T) {
	purger := &fakePurger{}
	handler := NewCleanupHandler(purger, observability.NewLogger("test"), "cron-secret", time.Hour)

	req := httptest.NewRequest(http.MethodPost, "/internal/maintenance/cleanup", nil)
	w := httptest.NewRecorder()
	handler.Handle(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req.Header.Set("Authorization", "Bearer wrong-secret")
	w = httptest.NewRecorder()
	handler.Handle(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, purger.revocations)
}

func TestCleanupPurges(t *testing.T) {
	purger := &fakePurger{}
	handler := NewCleanupHandler(purger, observability.NewLogger("test"), "cron-secret", time.Hour)

	req := httptest.NewRequest(http.MethodPost, "/internal/maintenance/cleanup", nil)
	req.Header.Set("Authorization", "Bearer cron-secret")
	w := httptest.NewRecorder()
	handler.Handle(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, purger.revocations)
	assert.Equal(t, 1, purger.lockouts)
}

func TestCleanupHiddenWithoutConfiguration(t *testing.T) {
	handler := NewCleanupHandler(nil, observability.NewLogger("test"), "", time.Hour)

	req := httptest.NewRequest(http.MethodPost, "/internal/maintenance/cleanup", nil)
	req.Header.Set("Authorization", "Bearer anything")
	w := httptest.NewRecorder()
	handler.Handle(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
