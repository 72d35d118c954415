package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/andriizhk/contact-api/internal/repository"
	"github.com/andriizhk/contact-api/internal/utils"
)

// UserFinder resolves a token subject back to a stored user.  It is the
// subset of UserRepo the auth gate needs, kept as an interface so handler
// and middleware tests can substitute an in-memory implementation.
type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (repository.User, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and resolves its subject to an existing user.  Signature, expiry, issuer
// and scope are all enforced; a token whose subject no longer matches a user
// is rejected as well, so deleted accounts lose access immediately.  On
// success the user's id, email and role are stored on the context for
// handlers and downstream middleware.
func JWTAuth(secret, issuer string, users UserFinder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Not authenticated"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			email, err := utils.DecodeAccessToken(secret, issuer, raw)
			if err != nil {
				// The reason (expired, bad signature, refresh token
				// presented) is deliberately not reflected in the response.
				return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Could not validate credentials"})
			}

			u, err := users.GetByEmail(c.Request().Context(), email)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Could not validate credentials"})
			}

			c.Set("user_id", u.ID)
			c.Set("email", u.Email)
			c.Set("role", u.Role)
			return next(c)
		}
	}
}
