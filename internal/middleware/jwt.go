package middleware // middleware provides reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/image-search-api/internal/auth"
)

// Context keys set by JWTAuth for downstream handlers.
const (
	CtxUserID   = "user_id"   // uint64 subject of the verified token
	CtxToken    = "token"     // raw bearer string (needed by logout)
	CtxTokenExp = "token_exp" // time.Time expiry (needed to TTL the revocation entry)
)

// JWTAuth returns an Echo middleware that gates protected routes on a
// Bearer session token.  Every request runs both checks: the revocation
// store lookup and the cryptographic verification.  The three failure
// modes get distinct messages (missing vs revoked vs invalid) because the
// client surfaces them differently; none of them reveal anything
// security-sensitive.  A revocation-store outage is the only 5xx here —
// auth failures themselves are always 401.
func JWTAuth(secret string, revoked auth.RevocationStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no token provided"})
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			isRevoked, err := revoked.IsRevoked(c.Request().Context(), raw)
			if err != nil {
				c.Logger().Errorf("revocation lookup failed: %v", err)
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "service unavailable"})
			}
			if isRevoked {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token is revoked"})
			}

			claims, err := auth.Verify(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxToken, raw)
			c.Set(CtxTokenExp, claims.ExpiresAt)
			return next(c)
		}
	}
}
