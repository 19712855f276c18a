package transport

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/models"
)

func (s *HTTPServer) TagList(c echo.Context) error {
	tags, err := s.catalog.ListTags(c.Request().Context())
	if err != nil {
		return err
	}

	resp := make([]models.TagResp, len(tags))
	for i := range tags {
		resp[i] = models.NewTagResp(&tags[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) TagGet(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	tag, err := s.catalog.GetTag(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.NewTagResp(tag))
}

func (s *HTTPServer) IngredientList(c echo.Context) error {
	ingredients, err := s.catalog.ListIngredients(c.Request().Context())
	if err != nil {
		return err
	}

	resp := make([]models.IngredientResp, len(ingredients))
	for i := range ingredients {
		resp[i] = models.NewIngredientResp(&ingredients[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) IngredientGet(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}

	ingredient, err := s.catalog.GetIngredient(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.NewIngredientResp(ingredient))
}
