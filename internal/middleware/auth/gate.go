package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/repo"
	"github.com/Skotchmaster/shop_api/pkg/logging"
	loggingmw "github.com/Skotchmaster/shop_api/pkg/middleware/logging"
	"github.com/Skotchmaster/shop_api/pkg/tokens"
)

const userKey = "auth.user"

type UserFinder interface {
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
}

// Gate authenticates bearer tokens against the live user row, so a disabled
// or deleted account loses access before its token expires.
type Gate struct {
	Tokens *tokens.Issuer
	Users  UserFinder
}

func (g *Gate) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("handler", "auth.require_auth")

		raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			l.Warn("auth_failed", "status", 401, "reason", "token missing")
			return echo.NewHTTPError(http.StatusUnauthorized, "not authorized, token missing")
		}

		claims, err := g.Tokens.Verify(raw)
		if err != nil {
			l.Warn("auth_failed", "status", 401, "reason", "invalid token")
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}

		user, err := g.Users.FindUserByID(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				l.Warn("auth_failed", "status", 401, "reason", "user not found", "user_id", claims.UserID)
				return echo.NewHTTPError(http.StatusUnauthorized, "user not found")
			}
			l.Error("auth_failed", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		if !user.IsEnabled {
			l.Warn("auth_failed", "status", 403, "reason", "account disabled", "user_id", user.ID)
			return echo.NewHTTPError(http.StatusForbidden, "account disabled")
		}

		c.Set(userKey, user)
		loggingmw.With(c, "user_id", user.ID)
		return next(c)
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authorized, token missing")
			}
			for _, r := range roles {
				if user.Role == r {
					return next(c)
				}
			}
			logging.FromContext(c.Request().Context()).Warn("role_check_failed",
				"status", 403, "reason", "insufficient role", "role", user.Role)
			return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
		}
	}
}

func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return RequireRole(models.RoleAdmin)(next)
}

// CurrentUser returns the user loaded by RequireAuth, or nil.
func CurrentUser(c echo.Context) *models.User {
	u, _ := c.Get(userKey).(*models.User)
	return u
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
