package transport

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
)

const tokenScheme = "token "

// AuthMiddleware resolves the API token, if any, to a user. Requests without
// a token continue anonymously; a token that matches nobody is rejected.
func (s *HTTPServer) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := tokenFromRequest(c.Request())
		if token == "" {
			return next(c)
		}

		user := db.User{}
		res := s.db.WithContext(c.Request().Context()).Where("token = ?", token).First(&user)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			return errors.Wrap(res.Error, "find user by token")
		}

		c.Set(userContextKey, &user)
		return next(c)
	}
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get(echo.HeaderAuthorization); len(h) > len(tokenScheme) &&
		strings.EqualFold(h[:len(tokenScheme)], tokenScheme) {
		return strings.TrimSpace(h[len(tokenScheme):])
	}
	return r.Header.Get("X-Token")
}

// canEdit reports whether user may change or delete the recipe.
func canEdit(user *db.User, recipe *db.Recipe) bool {
	return user.IsStaff || user.ID == recipe.AuthorID
}
