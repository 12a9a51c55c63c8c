package middleware

import (
	"crypto/subtle"

	"github.com/deppfellow/store-metrics/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// AuthRealm is announced in the WWW-Authenticate challenge.
const AuthRealm = "store-metrics"

// AuthMiddleware holds the app Server so middleware can access shared deps
// like Logger and Config.
type AuthMiddleware struct {
	server *server.Server
}

// NewAuthMiddleware constructs an AuthMiddleware.
func NewAuthMiddleware(s *server.Server) *AuthMiddleware {
	return &AuthMiddleware{
		server: s,
	}
}

// RequireAuth enforces HTTP Basic auth against the single configured
// credential.
//
// Missing or wrong credentials end in echo's 401 with a WWW-Authenticate
// challenge; the global error handler renders it in the API error shape.
// On success the username is stored as user_id and added to the request
// logger for logs and traces.
func (auth *AuthMiddleware) RequireAuth() echo.MiddlewareFunc {
	expectedUser := []byte(auth.server.Config.Auth.Username)
	expectedPassword := []byte(auth.server.Config.Auth.Password)

	return middleware.BasicAuthWithConfig(middleware.BasicAuthConfig{
		Realm: AuthRealm,
		Validator: func(username, password string, c echo.Context) (bool, error) {
			// Both comparisons always run so timing does not reveal which part failed.
			userOK := subtle.ConstantTimeCompare([]byte(username), expectedUser)
			passwordOK := subtle.ConstantTimeCompare([]byte(password), expectedPassword)

			if userOK&passwordOK != 1 {
				GetLogger(c).Warn().
					Str("function", "RequireAuth").
					Str("request_id", GetRequestID(c)).
					Msg("rejected basic auth credentials")
				return false, nil
			}

			setUserID(c, username)
			return true, nil
		},
	})
}
