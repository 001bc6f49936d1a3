package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/christianlm/todolist/internal/models"
	"github.com/christianlm/todolist/internal/token"
)

const userContextKey = "currentUser"

// Resolver turns a bearer token into the account it belongs to. Every
// failure collapses into the same 401 body so callers cannot probe which
// sub-check tripped.
type Resolver struct {
	DB     *gorm.DB
	Tokens *token.Service
}

func unauthorized() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusUnauthorized, echo.Map{"detail": "Could not validate credentials."})
}

func bearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return "", false
	}
	return raw, true
}

// RequireUser authenticates the request and stores the resolved account on
// the echo context for handlers and the ownership guard.
func (r *Resolver) RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, ok := bearerToken(c)
		if !ok {
			return unauthorized()
		}

		subject, err := r.Tokens.Validate(raw)
		if err != nil {
			return unauthorized()
		}

		var user models.User
		if err := r.DB.WithContext(c.Request().Context()).
			Where("email = ?", subject).First(&user).Error; err != nil {
			// A deleted account is indistinguishable from a bad token.
			return unauthorized()
		}

		WithUser(c, &user)
		return next(c)
	}
}

func WithUser(c echo.Context, u *models.User) {
	c.Set(userContextKey, u)
}

// CurrentUser returns the account resolved by RequireUser, or nil on routes
// that skipped it.
func CurrentUser(c echo.Context) *models.User {
	u, _ := c.Get(userContextKey).(*models.User)
	return u
}
