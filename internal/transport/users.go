package transport

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/models"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/service"
)

func (s *HTTPServer) UserList(c echo.Context) error {
	views, err := s.users.List(c.Request().Context(), viewerID(c))
	if err != nil {
		return err
	}

	resp := make([]models.UserResp, len(views))
	for i := range views {
		resp[i] = models.NewUserResp(&views[i].User, views[i].IsSubscribed)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) UserGet(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	view, err := s.users.Get(c.Request().Context(), viewerID(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.NewUserResp(&view.User, view.IsSubscribed))
}

func (s *HTTPServer) UserMe(c echo.Context) error {
	user, err := RequireUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.NewUserResp(user, false))
}

func (s *HTTPServer) SubscriptionList(c echo.Context) error {
	user, err := RequireUser(c)
	if err != nil {
		return err
	}
	limit, err := GetRecipesLimit(c)
	if err != nil {
		return err
	}

	summaries, err := s.subscriptions.List(c.Request().Context(), user.ID, limit)
	if err != nil {
		return err
	}

	resp := make([]models.SubscriptionResp, len(summaries))
	for i := range summaries {
		resp[i] = models.NewSubscriptionResp(&summaries[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) Subscribe(c echo.Context) error {
	authorID, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := RequireUser(c)
	if err != nil {
		return err
	}
	limit, err := GetRecipesLimit(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if _, err := s.subscriptions.Subscribe(ctx, user.ID, authorID); err != nil {
		return err
	}

	summary, err := s.subscriptions.Summary(ctx, user.ID, authorID, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, models.NewSubscriptionResp(summary))
}

// Unsubscribe reports a missing subscription as a 400, an unknown author as
// a 404.
func (s *HTTPServer) Unsubscribe(c echo.Context) error {
	authorID, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := RequireUser(c)
	if err != nil {
		return err
	}

	err = s.subscriptions.Unsubscribe(c.Request().Context(), user.ID, authorID)
	var nf *service.NotFoundError
	if errors.As(err, &nf) && nf.Entity == "subscription" {
		return c.JSON(http.StatusBadRequest, models.ErrorResp{Errors: nf.Error()})
	}
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
