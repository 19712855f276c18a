package transport

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/models"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/service"
)

func (s *HTTPServer) RecipeList(c echo.Context) error {
	views, err := s.recipes.List(c.Request().Context(), viewerID(c))
	if err != nil {
		return err
	}

	resp := make([]models.RecipeResp, len(views))
	for i := range views {
		resp[i] = models.NewRecipeResp(&views[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) RecipeGet(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	view, err := s.recipes.Get(c.Request().Context(), viewerID(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.NewRecipeResp(view))
}

func (s *HTTPServer) RecipeCreate(c echo.Context) error {
	user, err := RequireUser(c)
	if err != nil {
		return err
	}

	req := models.RecipeReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}
	if req.Image == "" {
		return &service.ValidationError{Reason: "image required"}
	}
	image, created, err := s.media.Resolve(req.Image)
	if err != nil {
		return &service.ValidationError{Reason: err.Error()}
	}

	ctx := c.Request().Context()
	recipe, err := s.composer.Create(ctx, user.ID, req.ToInput(image))
	if err != nil {
		if created {
			s.removeImage(image)
		}
		return err
	}

	view, err := s.recipes.Get(ctx, user.ID, recipe.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, models.NewRecipeResp(view))
}

func (s *HTTPServer) RecipeUpdate(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := RequireUser(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	recipe, err := s.recipes.Find(ctx, id)
	if err != nil {
		return err
	}
	if !canEdit(user, recipe) {
		return echo.NewHTTPError(http.StatusForbidden, "only the author can change this recipe")
	}

	req := models.RecipeReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}
	image, created := "", false
	if req.Image != "" {
		if image, created, err = s.media.Resolve(req.Image); err != nil {
			return &service.ValidationError{Reason: err.Error()}
		}
	}

	if _, err := s.composer.Update(ctx, recipe, req.ToInput(image)); err != nil {
		if created {
			s.removeImage(image)
		}
		return err
	}
	if created && recipe.Image != image {
		s.removeImage(recipe.Image)
	}

	view, err := s.recipes.Get(ctx, user.ID, recipe.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.NewRecipeResp(view))
}

func (s *HTTPServer) RecipeDelete(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := RequireUser(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	recipe, err := s.recipes.Find(ctx, id)
	if err != nil {
		return err
	}
	if !canEdit(user, recipe) {
		return echo.NewHTTPError(http.StatusForbidden, "only the author can delete this recipe")
	}

	if err := s.composer.Delete(ctx, recipe.ID); err != nil {
		return err
	}
	s.removeImage(recipe.Image)
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) FavoriteAdd(c echo.Context) error {
	return s.membershipAdd(c, s.favorites.Add)
}

func (s *HTTPServer) FavoriteRemove(c echo.Context) error {
	return s.membershipRemove(c, s.favorites.Remove)
}

func (s *HTTPServer) ShoppingCartAdd(c echo.Context) error {
	return s.membershipAdd(c, s.shoppingCart.Add)
}

func (s *HTTPServer) ShoppingCartRemove(c echo.Context) error {
	return s.membershipRemove(c, s.shoppingCart.Remove)
}

func (s *HTTPServer) ShoppingListDownload(c echo.Context) error {
	user, err := RequireUser(c)
	if err != nil {
		return err
	}

	text, err := s.shoppingList.Render(c.Request().Context(), user)
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+service.ShoppingListFilename)
	return c.Blob(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

func (s *HTTPServer) membershipAdd(c echo.Context, add func(ctx context.Context, userID, recipeID uint64) (*service.RecipeShort, error)) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := RequireUser(c)
	if err != nil {
		return err
	}

	short, err := add(c.Request().Context(), user.ID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, models.NewRecipeShortResp(short))
}

func (s *HTTPServer) membershipRemove(c echo.Context, remove func(ctx context.Context, userID, recipeID uint64) error) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := RequireUser(c)
	if err != nil {
		return err
	}

	if err := remove(c.Request().Context(), user.ID, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// removeImage deletes a stored image no recipe refers to any more.
func (s *HTTPServer) removeImage(handle string) {
	if err := s.media.Remove(handle); err != nil {
		s.logger.Warnw("remove image", "image", handle, "error", err)
	}
}
