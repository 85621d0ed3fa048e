package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const (
	maxJSONBodyBytes = 1 << 20

	// RefreshCookieName carries the refresh token; it is only ever set
	// HttpOnly with SameSite=Strict and is scoped to the auth routes.
	RefreshCookieName = "refreshToken"
	refreshCookiePath = "/auth"
)

type Handler struct {
	service      *Service
	secureCookie bool
}

// NewHandler binds the service to HTTP. secureCookie turns the Secure flag
// on for the refresh cookie (on in production, off in development).
func NewHandler(service *Service, secureCookie bool) *Handler {
	return &Handler{service: service, secureCookie: secureCookie}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body loginRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	body.Email = strings.TrimSpace(body.Email)
	if !emailRegex.MatchString(body.Email) {
		writeError(w, http.StatusBadRequest, "email format is invalid")
		return
	}
	if body.Password == "" || len(body.Password) > 200 {
		writeError(w, http.StatusBadRequest, "password format is invalid")
		return
	}

	session, err := h.service.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		var lockedErr ErrAccountLocked
		if errors.As(err, &lockedErr) {
			retryAfter := int(time.Until(lockedErr.Until).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeError(w, http.StatusLocked, "too many attempts, try again later")
			return
		}

		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to login")
		return
	}

	http.SetCookie(w, h.refreshCookie(session.RefreshToken, session.RefreshMaxAge))
	writeJSON(w, http.StatusOK, sessionResponse{
		Success:     true,
		AccessToken: session.AccessToken,
		ExpiresIn:   session.ExpiresIn,
	})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil || cookie.Value == "" {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	session, err := h.service.Refresh(r.Context(), cookie.Value)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingToken),
			errors.Is(err, ErrTokenRevoked),
			errors.Is(err, ErrInvalidToken):
			// Revoked and invalid collapse into one external outcome.
			writeError(w, http.StatusUnauthorized, "invalid or expired session")
		default:
			sentry.CaptureException(err)
			writeError(w, http.StatusInternalServerError, "failed to refresh session")
		}
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		Success:     true,
		AccessToken: session.AccessToken,
		ExpiresIn:   session.ExpiresIn,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var token string
	if cookie, err := r.Cookie(RefreshCookieName); err == nil {
		token = cookie.Value
	}

	if err := h.service.Logout(r.Context(), token); err != nil {
		// Logout stays client-visible success; the failed revocation is
		// still worth reporting.
		sentry.CaptureException(err)
	}

	http.SetCookie(w, h.refreshCookie("", -1))
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "logged out",
	})
}

// Status reports the authenticated identity. It runs behind the guard, so
// reaching it at all means the access token checked out.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	email, ok := EmailFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	role := ""
	if account, err := h.service.AccountFor(r.Context(), Claims{Email: email}); err == nil {
		role = account.Role
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"email":   email,
		"role":    role,
	})
}

func (h *Handler) refreshCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     RefreshCookieName,
		Value:    value,
		Path:     refreshCookiePath,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}
