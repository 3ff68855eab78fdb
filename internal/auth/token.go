// Package auth implements the session token service: HS256-signed,
// time-limited bearer tokens plus a pluggable revocation store for
// logged-out tokens.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMissingSecret is returned when token issuance is attempted without a
// configured signing secret.  This is a server misconfiguration and must
// surface as a 500, never as a silently unsigned token.
var ErrMissingSecret = errors.New("signing secret is not configured")

// ErrInvalidToken covers every verification failure that is not a
// revocation: bad format, bad signature, wrong algorithm, expired.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the decoded content of a verified session token.
type Claims struct {
	UserID    uint64    // subject of the token
	ExpiresAt time.Time // wall-clock expiry
}

// SessionToken is a freshly issued token with its expiry.  Issuance is
// stateless signing; nothing is persisted.
type SessionToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// Issue builds and signs an HS256 session token for a user.  The JWT
// carries standard claims: subject (sub), expiration (exp) and issued at
// (iat).  The subject is encoded as a decimal string to avoid the float64
// round-trip MapClaims applies to numeric values.
func Issue(secret string, userID uint64, ttl time.Duration) (SessionToken, error) {
	if secret == "" {
		return SessionToken{}, ErrMissingSecret
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(userID, 10),
		"exp": exp.Unix(),
		"iat": now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, Exp: exp}, nil
}

// Verify parses and validates a session token.  Any failure (malformed
// token, wrong signing method, bad signature, expired) is reported as
// ErrInvalidToken; callers translate that into an unauthenticated
// response, never a server error.  Revocation is checked separately by the
// caller against a RevocationStore.
func Verify(secret, raw string) (Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	var userID uint64
	switch sub := mc["sub"].(type) {
	case string:
		userID, err = strconv.ParseUint(sub, 10, 64)
		if err != nil {
			return Claims{}, ErrInvalidToken
		}
	case float64:
		// tokens minted by older builds carried a numeric subject
		userID = uint64(sub)
	default:
		return Claims{}, ErrInvalidToken
	}
	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return Claims{}, ErrInvalidToken
	}
	return Claims{UserID: userID, ExpiresAt: exp.Time}, nil
}
