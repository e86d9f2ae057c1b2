package middleware

import (
	"net/http"

	"github.com/clerk/clerk-sdk-go/v2"
	clerkhttp "github.com/clerk/clerk-sdk-go/v2/http"
	"github.com/deppfellow/zrouter/internal/server"
	"github.com/labstack/echo/v4"
)

// AuthMiddleware verifies Clerk session tokens.
//
// Authentication never rejects a request on its own: Authenticate records the
// session when the bearer token is valid, and the router decides per route,
// through VerifyUser, whether a session is required.
type AuthMiddleware struct {
	server  *server.Server
	enabled bool
}

// NewAuthMiddleware configures the Clerk SDK when auth.secret_key is set.
func NewAuthMiddleware(s *server.Server) *AuthMiddleware {
	enabled := s.Config.Auth.SecretKey != ""
	if enabled {
		clerk.SetKey(s.Config.Auth.SecretKey)
	} else {
		s.Logger.Warn().Msg("auth.secret_key not set, protected routes accept every request")
	}

	return &AuthMiddleware{
		server:  s,
		enabled: enabled,
	}
}

// Enabled reports whether Clerk verification is configured.
func (auth *AuthMiddleware) Enabled() bool {
	return auth.enabled
}

// Authenticate parses the Authorization header with Clerk. A valid session
// puts its claims on the request context and the user id and role on the
// echo context; a missing or invalid token lets the request through
// unauthenticated.
func (auth *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	if !auth.enabled {
		return next
	}

	return func(c echo.Context) error {
		var err error

		proceed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.SetRequest(r)

			if claims, ok := clerk.SessionClaimsFromContext(r.Context()); ok {
				c.Set(UserIDKey, claims.Subject)
				c.Set(UserRoleKey, claims.ActiveOrganizationRole)
				c.Set(PermissionsKey, claims.Claims.ActiveOrganizationPermissions)
			} else if r.Header.Get(echo.HeaderAuthorization) != "" {
				auth.server.Logger.Debug().
					Str("function", "Authenticate").
					Str("request_id", GetRequestID(c)).
					Msg("invalid session token")
			}

			err = next(c)
		})

		clerkhttp.WithHeaderAuthorization(
			clerkhttp.AuthorizationFailureHandler(proceed),
		)(proceed).ServeHTTP(c.Response(), c.Request())

		return err
	}
}

// VerifyUser reports whether the request carries a verified session. With
// auth disabled every request is verified.
func (auth *AuthMiddleware) VerifyUser(c echo.Context) bool {
	if !auth.enabled {
		return true
	}

	_, ok := clerk.SessionClaimsFromContext(c.Request().Context())
	return ok
}
