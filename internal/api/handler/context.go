package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ctxUser extracts the authenticated user's identity injected by the Auth
// middleware. Every bearer-protected handler needs a user id to scope its
// queries; a token without one is structurally valid but operationally
// unusable, so reject with 401.
func ctxUser(c echo.Context) (userID, role string, err error) {
	userID, _ = c.Get("user_id").(string)
	if userID == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	role, _ = c.Get("role").(string)
	return userID, role, nil
}

// ctxEmail returns the token's email claim, empty when absent. Only used for
// audit logging, so absence is not an error.
func ctxEmail(c echo.Context) string {
	email, _ := c.Get("email").(string)
	return email
}
