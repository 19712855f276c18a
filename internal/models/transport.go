package models

import (
	"strings"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/service"
)

const MediaURLPrefix = "/media/"

type (
	IngredientAmountReq struct {
		ID     uint64 `json:"id" validate:"required"`
		Amount int    `json:"amount"`
	}

	// RecipeReq leaves amounts, cooking time and ingredient presence to the
	// composer, which reports them with domain messages.
	RecipeReq struct {
		Ingredients []IngredientAmountReq `json:"ingredients" validate:"dive"`
		Tags        []uint64              `json:"tags"`
		Image       string                `json:"image"`
		Name        string                `json:"name" validate:"required,max=200"`
		Text        string                `json:"text" validate:"required"`
		CookingTime int                   `json:"cooking_time"`
	}

	TagResp struct {
		ID    uint64 `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
		Slug  string `json:"slug"`
	}

	IngredientResp struct {
		ID              uint64 `json:"id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
	}

	UserResp struct {
		ID           uint64 `json:"id"`
		Email        string `json:"email"`
		Username     string `json:"username"`
		FirstName    string `json:"first_name"`
		LastName     string `json:"last_name"`
		IsSubscribed bool   `json:"is_subscribed"`
	}

	RecipeIngredientResp struct {
		ID              uint64 `json:"id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Amount          int    `json:"amount"`
	}

	RecipeResp struct {
		ID               uint64                 `json:"id"`
		Tags             []TagResp              `json:"tags"`
		Author           UserResp               `json:"author"`
		Ingredients      []RecipeIngredientResp `json:"ingredients"`
		IsFavorited      bool                   `json:"is_favorited"`
		IsInShoppingCart bool                   `json:"is_in_shopping_cart"`
		Name             string                 `json:"name"`
		Image            string                 `json:"image"`
		Text             string                 `json:"text"`
		CookingTime      int                    `json:"cooking_time"`
	}

	RecipeShortResp struct {
		ID          uint64 `json:"id"`
		Name        string `json:"name"`
		Image       string `json:"image"`
		CookingTime int    `json:"cooking_time"`
	}

	SubscriptionResp struct {
		UserResp
		Recipes      []RecipeShortResp `json:"recipes"`
		RecipesCount int64             `json:"recipes_count"`
	}

	ErrorResp struct {
		Errors string `json:"errors"`
	}

	DetailResp struct {
		Detail string `json:"detail"`
	}
)

func (r *RecipeReq) ToInput(image string) service.RecipeInput {
	pairs := make([]service.IngredientAmount, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		pairs[i] = service.IngredientAmount{IngredientID: ing.ID, Amount: ing.Amount}
	}
	return service.RecipeInput{
		Name:        r.Name,
		Text:        r.Text,
		Image:       image,
		CookingTime: r.CookingTime,
		Ingredients: pairs,
		TagIDs:      r.Tags,
	}
}

// ImageURL maps a stored image handle to the URL it is served from.
func ImageURL(handle string) string {
	if handle == "" || strings.HasPrefix(handle, "/") || strings.Contains(handle, "://") {
		return handle
	}
	return MediaURLPrefix + handle
}

func NewTagResp(t *db.Tag) TagResp {
	return TagResp{
		ID:    t.ID,
		Name:  t.Name,
		Color: t.Color,
		Slug:  t.Slug,
	}
}

func NewIngredientResp(i *db.Ingredient) IngredientResp {
	return IngredientResp{
		ID:              i.ID,
		Name:            i.Name,
		MeasurementUnit: i.MeasurementUnit,
	}
}

func NewUserResp(u *db.User, subscribed bool) UserResp {
	return UserResp{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

func NewRecipeResp(v *service.RecipeView) RecipeResp {
	r := &v.Recipe

	tags := make([]TagResp, len(r.Tags))
	for i := range r.Tags {
		tags[i] = NewTagResp(&r.Tags[i])
	}
	ingredients := make([]RecipeIngredientResp, len(r.Ingredients))
	for i, link := range r.Ingredients {
		ingredients[i] = RecipeIngredientResp{
			ID:              link.IngredientID,
			Name:            link.Ingredient.Name,
			MeasurementUnit: link.Ingredient.MeasurementUnit,
			Amount:          link.Amount,
		}
	}

	return RecipeResp{
		ID:               r.ID,
		Tags:             tags,
		Author:           NewUserResp(&r.Author, v.AuthorFollowed),
		Ingredients:      ingredients,
		IsFavorited:      v.IsFavorited,
		IsInShoppingCart: v.IsInShoppingCart,
		Name:             r.Name,
		Image:            ImageURL(r.Image),
		Text:             r.Text,
		CookingTime:      r.CookingTime,
	}
}

func NewRecipeShortResp(r *service.RecipeShort) RecipeShortResp {
	return RecipeShortResp{
		ID:          r.ID,
		Name:        r.Name,
		Image:       ImageURL(r.Image),
		CookingTime: r.CookingTime,
	}
}

func NewSubscriptionResp(s *service.AuthorSummary) SubscriptionResp {
	recipes := make([]RecipeShortResp, len(s.Recipes))
	for i := range s.Recipes {
		recipes[i] = NewRecipeShortResp(&s.Recipes[i])
	}
	return SubscriptionResp{
		UserResp:     NewUserResp(&s.Author, s.IsSubscribed),
		Recipes:      recipes,
		RecipesCount: s.RecipesCount,
	}
}
