package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"uk.co.dudmesh.contacts/internal/model"
)

const userContextKey = "authenticated-user"

// credentialsMessage is deliberately the same for a missing header, a bad
// token and a vanished user, so the response gives nothing away.
const credentialsMessage = "could not validate credentials"

// Authenticate resolves the bearer token into a user and stashes it on the
// request context for handlers downstream.
func Authenticate(authService AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, credentialsMessage)
			}

			user, err := authService.Resolve(c.Request().Context(), tokenString)
			if err != nil {
				if errors.Is(err, model.ErrorInvalidToken) {
					return echo.NewHTTPError(http.StatusUnauthorized, credentialsMessage)
				}
				return err
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// RequireAdmin runs after Authenticate and rejects non-admin principals.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil || user.Role != model.RoleAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "admin privileges required")
			}
			return next(c)
		}
	}
}

func CurrentUser(c echo.Context) *model.User {
	user, _ := c.Get(userContextKey).(*model.User)
	return user
}
