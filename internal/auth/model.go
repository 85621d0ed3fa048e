package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind distinguishes access tokens from refresh tokens. The kind is
// embedded as a claim and checked on verification, in addition to the two
// kinds being signed with different secrets.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Claims is the signed payload shared by both token kinds.
type Claims struct {
	Email string    `json:"email"`
	Kind  TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// Session is the outcome of a successful login or refresh. RefreshToken and
// RefreshMaxAge are zero on refresh: the refresh token issued at login stays
// valid for its full life and is never rotated.
type Session struct {
	Email         string
	AccessToken   string
	ExpiresIn     int64
	RefreshToken  string
	RefreshMaxAge int
}
