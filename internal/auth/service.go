package auth

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTokenRevoked is distinguished internally for logs; externally it
	// surfaces exactly like ErrInvalidToken.
	ErrTokenRevoked = errors.New("refresh token revoked")
)

// ErrAccountLocked rejects logins while the lockout window is open.
type ErrAccountLocked struct {
	Until time.Time
}

func (e ErrAccountLocked) Error() string {
	return "account temporarily locked"
}

// Service orchestrates login, refresh and logout over the injected stores.
// It is transport-agnostic; the HTTP handlers translate its results and
// errors into responses.
type Service struct {
	accounts    AccountStore
	lockout     LockoutStore
	revocations RevocationStore
	codec       *TokenCodec
}

func NewService(accounts AccountStore, lockout LockoutStore, revocations RevocationStore, codec *TokenCodec) *Service {
	return &Service{
		accounts:    accounts,
		lockout:     lockout,
		revocations: revocations,
		codec:       codec,
	}
}

// Login checks the lockout state before touching the password hash, verifies
// the credentials, and mints a fresh access+refresh pair. Failed attempts
// feed the lockout counter whether or not the account exists.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	locked, until, err := s.lockout.CheckLocked(ctx, email)
	if err != nil {
		return Session{}, err
	}
	if locked {
		return Session{}, ErrAccountLocked{Until: until}
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return Session{}, s.failedAttempt(ctx, email)
		}
		return Session{}, err
	}

	ok, err := VerifyPassword(password, account.PasswordHash)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, s.failedAttempt(ctx, email)
	}

	if err := s.lockout.RecordSuccess(ctx, email); err != nil {
		return Session{}, err
	}

	accessToken, _, err := s.codec.Mint(account.Email, KindAccess)
	if err != nil {
		return Session{}, err
	}
	refreshToken, _, err := s.codec.Mint(account.Email, KindRefresh)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Email:         account.Email,
		AccessToken:   accessToken,
		ExpiresIn:     int64(s.codec.AccessTTL().Seconds()),
		RefreshToken:  refreshToken,
		RefreshMaxAge: int(s.codec.RefreshTTL().Seconds()),
	}, nil
}

func (s *Service) failedAttempt(ctx context.Context, email string) error {
	lockedUntil, err := s.lockout.RecordFailure(ctx, email)
	if err != nil {
		return err
	}
	if lockedUntil != nil {
		return ErrAccountLocked{Until: *lockedUntil}
	}

	return ErrInvalidCredentials
}

// Refresh mints a new access token against a still-valid refresh token. The
// refresh token itself is not rotated: the one issued at login stays valid
// until logout or natural expiry.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return Session{}, ErrMissingToken
	}

	revoked, err := s.revocations.IsRevoked(ctx, refreshToken)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, ErrTokenRevoked
	}

	claims, err := s.codec.Verify(refreshToken, KindRefresh)
	if err != nil {
		return Session{}, err
	}

	accessToken, _, err := s.codec.Mint(claims.Email, KindAccess)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Email:       claims.Email,
		AccessToken: accessToken,
		ExpiresIn:   int64(s.codec.AccessTTL().Seconds()),
	}, nil
}

// Logout revokes the presented refresh token. It never fails the client
// flow: an absent or mangled token just means there is nothing to revoke.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil
	}

	expiresAt := time.Now().UTC().Add(s.codec.RefreshTTL())
	if claims, err := s.codec.Verify(refreshToken, KindRefresh); err == nil {
		expiresAt = claims.ExpiresAt.Time
	}

	return s.revocations.Revoke(ctx, refreshToken, expiresAt)
}

// Authenticate verifies a bearer access token and returns its claims.
func (s *Service) Authenticate(tokenString string) (Claims, error) {
	return s.codec.Verify(tokenString, KindAccess)
}

// AccountFor loads the account behind verified claims, for status reporting.
func (s *Service) AccountFor(ctx context.Context, claims Claims) (Account, error) {
	return s.accounts.GetByEmail(ctx, claims.Email)
}
