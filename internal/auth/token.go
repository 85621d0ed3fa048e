package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken covers bad signature, expired, malformed and
	// wrong-kind tokens. The distinction stays in the wrapped error for
	// logs; clients always see the same outcome.
	ErrInvalidToken = errors.New("invalid or expired token")

	ErrMissingToken = errors.New("missing token")
)

// TokenCodec mints and verifies signed claims. Access and refresh tokens use
// distinct secrets, so a token minted for one purpose never verifies as the
// other even before the kind claim is checked.
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenCodec(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*TokenCodec, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("token secrets must not be empty")
	}
	if len(accessSecret) == len(refreshSecret) &&
		subtle.ConstantTimeCompare([]byte(accessSecret), []byte(refreshSecret)) == 1 {
		return nil, errors.New("access and refresh token secrets must differ")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token ttls must be positive")
	}

	return &TokenCodec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

func (c *TokenCodec) AccessTTL() time.Duration  { return c.accessTTL }
func (c *TokenCodec) RefreshTTL() time.Duration { return c.refreshTTL }

// Mint signs a new token of the given kind for email.
func (c *TokenCodec) Mint(email string, kind TokenKind) (string, Claims, error) {
	secret, ttl, err := c.keyFor(kind)
	if err != nil {
		return "", Claims{}, err
	}

	// The jti makes every minted token unique even when two logins land
	// within the same second.
	now := time.Now().UTC()
	claims := Claims{
		Email: email,
		Kind:  kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	encoded, err := token.SignedString(secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign %s token: %w", kind, err)
	}

	return encoded, claims, nil
}

// Verify checks the signature, expiry and kind of token. Every failure mode
// collapses into ErrInvalidToken; the wrapped cause is for logging only.
func (c *TokenCodec) Verify(tokenString string, kind TokenKind) (Claims, error) {
	secret, _, err := c.keyFor(kind)
	if err != nil {
		return Claims{}, err
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return Claims{}, fmt.Errorf("%w: token not valid", ErrInvalidToken)
	}
	if claims.Kind != kind {
		return Claims{}, fmt.Errorf("%w: kind %q where %q expected", ErrInvalidToken, claims.Kind, kind)
	}
	if claims.Email == "" {
		return Claims{}, fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}

	return claims, nil
}

func (c *TokenCodec) keyFor(kind TokenKind) ([]byte, time.Duration, error) {
	switch kind {
	case KindAccess:
		return c.accessSecret, c.accessTTL, nil
	case KindRefresh:
		return c.refreshSecret, c.refreshTTL, nil
	default:
		return nil, 0, fmt.Errorf("unknown token kind %q", kind)
	}
}
