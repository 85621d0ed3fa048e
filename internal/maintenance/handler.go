package maintenance

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"confedit/internal/observability"
)

// Purger drops state that is past its useful life: revocation entries for
// tokens that have expired anyway, and lockout records that went stale. The
// Redis-backed stores expire keys on their own and need no purger.
type Purger interface {
	PurgeExpiredRevocations() int
	PurgeStaleLockouts(cutoff time.Time) int
}

type CleanupHandler struct {
	purger           Purger
	logger           *observability.Logger
	cronSecret       string
	lockoutRetention time.Duration
}

func NewCleanupHandler(purger Purger, logger *observability.Logger, cronSecret string, lockoutRetention time.Duration) *CleanupHandler {
	if lockoutRetention <= 0 {
		lockoutRetention = 24 * time.Hour
	}

	return &CleanupHandler{
		purger:           purger,
		logger:           logger,
		cronSecret:       strings.TrimSpace(cronSecret),
		lockoutRetention: lockoutRetention,
	}
}

func (h *CleanupHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.cronSecret == "" || h.purger == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "not found"})
		return
	}

	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) != h.cronSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "unauthorized"})
		return
	}

	revocations := h.purger.PurgeExpiredRevocations()
	lockouts := h.purger.PurgeStaleLockouts(time.Now().UTC().Add(-h.lockoutRetention))

	h.logger.Info("auth_cleanup_completed", map[string]any{
		"purged_revocations": revocations,
		"purged_lockouts":    lockouts,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"success":            true,
		"purged_revocations": revocations,
		"purged_lockouts":    lockouts,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
