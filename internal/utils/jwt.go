package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"   // secure random number generation for the jti claim
	"encoding/hex"  // hex encoding of random bytes
	"errors"        // sentinel error definitions
	"time"          // expiry computation

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// Scope markers distinguish the two token kinds.  A refresh token presented
// where an access token is required (or vice versa) must be rejected even
// though both carry valid signatures.
const (
	ScopeAccess  = "access_token"
	ScopeRefresh = "refresh_token"
)

var (
	// ErrInvalidToken covers bad signatures, malformed tokens and issuer
	// mismatches.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token's exp claim is in the past.
	ErrExpiredToken = errors.New("token expired")
	// ErrWrongTokenType is returned when the scope claim does not match the
	// expected token kind.
	ErrWrongTokenType = errors.New("wrong token type")
)

// NewAccessToken builds and signs a short-lived HS256 JWT for a user.  The
// subject is the user's email; the scope claim marks it as an access token.
// A random jti makes every issued token unique even within the same second.
func NewAccessToken(secret, issuer, email string, ttlMin int) (string, error) {
	return newToken(secret, issuer, email, ScopeAccess, time.Duration(ttlMin)*time.Minute)
}

// NewRefreshToken is the long-lived counterpart of NewAccessToken, with the
// refresh scope marker.  The ttlDays parameter controls validity in days.
func NewRefreshToken(secret, issuer, email string, ttlDays int) (string, error) {
	return newToken(secret, issuer, email, ScopeRefresh, time.Duration(ttlDays)*24*time.Hour)
}

func newToken(secret, issuer, email, scope string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	jti, err := randomHex(8)
	if err != nil {
		return "", err
	}
	claims := jwt.MapClaims{
		"sub":   email,
		"iss":   issuer,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
		"scope": scope,
		"jti":   jti,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// DecodeAccessToken verifies signature, expiry, issuer and scope of an
// access token and returns the subject email.
func DecodeAccessToken(secret, issuer, token string) (string, error) {
	return decode(secret, issuer, token, ScopeAccess)
}

// DecodeRefreshToken verifies signature, expiry, issuer and scope of a
// refresh token and returns the subject email.
func DecodeRefreshToken(secret, issuer, token string) (string, error) {
	return decode(secret, issuer, token, ScopeRefresh)
}

func decode(secret, issuer, token, wantScope string) (string, error) {
	tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with anything but HMAC.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	if scope, _ := claims["scope"].(string); scope != wantScope {
		return "", ErrWrongTokenType
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

// randomHex returns a hex‑encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
