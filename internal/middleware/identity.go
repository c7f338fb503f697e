package middleware

import "github.com/labstack/echo/v4"

// HeaderUserID lets clients name the acting user.  It is informational
// only and used to scope rate limits.
const HeaderUserID = "X-User-ID"

// userID returns the user a request acts for: the :userId route
// parameter, then the X-User-ID header, else "anon".
func userID(c echo.Context) string {
	if v := c.Param("userId"); v != "" {
		return v
	}
	if v := c.Request().Header.Get(HeaderUserID); v != "" {
		return v
	}
	return "anon"
}
