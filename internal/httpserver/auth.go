package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/kolshi/internal/session"
	"github.com/Skotchmaster/kolshi/pkg/logging"
)

const (
	ctxSessionKey = "session"
	accessCookie  = "accessToken"
	bearerPrefix  = "Bearer "
)

// RequireSession resolves the access token from the Authorization header or
// the accessToken cookie and stores the session in the echo context.
func RequireSession(sessions *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			l := logging.FromContext(c.Request().Context()).With("mw", "require.session")

			token := tokenFromRequest(c)
			if token == "" {
				l.Warn("auth_error", "status", 401, "reason", "missing token")
				return c.JSON(http.StatusUnauthorized, "missing access token")
			}

			sess, err := sessions.Authenticate(token)
			if err != nil {
				l.Warn("auth_error", "status", 401, "error", err.Error())
				return c.JSON(http.StatusUnauthorized, "invalid access token")
			}

			c.Set(ctxSessionKey, sess)
			ctx := logging.IntoContext(c.Request().Context(), logging.FromContext(c.Request().Context()).With("username", sess.User.Username))
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func tokenFromRequest(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(h, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(h, bearerPrefix))
	}
	if ck, err := c.Cookie(accessCookie); err == nil {
		return ck.Value
	}
	return ""
}

func sessionFrom(c echo.Context) (*session.Session, bool) {
	sess, ok := c.Get(ctxSessionKey).(*session.Session)
	return sess, ok && sess != nil
}
