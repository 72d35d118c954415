package middleware

// identity.go defines helpers shared across middleware files.  The rate
// limiter and the response cache both need a stable identity segment for
// their Redis keys; authenticated requests use the email set by JWTAuth,
// anonymous requests (the auth endpoints themselves) fall back to "anon".

import "github.com/labstack/echo/v4"

// currentIdentity returns the authenticated user's email from context, or
// "anon" when no user is authenticated.
func currentIdentity(c echo.Context) string {
	if v, ok := c.Get("email").(string); ok && v != "" {
		return v
	}
	return "anon"
}
