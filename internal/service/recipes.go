package service

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
)

type (
	// RecipeView is a recipe with its composition and the flags relative to
	// the viewing user. Flags are false for anonymous viewers.
	RecipeView struct {
		Recipe           db.Recipe
		AuthorFollowed   bool
		IsFavorited      bool
		IsInShoppingCart bool
	}

	Recipes struct {
		db     *gorm.DB
		logger *zap.SugaredLogger
	}
)

func NewRecipes(db *gorm.DB, l *zap.SugaredLogger) *Recipes {
	return &Recipes{
		db:     db,
		logger: l,
	}
}

// Find returns the bare recipe row, used for ownership checks.
func (s *Recipes) Find(ctx context.Context, recipeID uint64) (*db.Recipe, error) {
	recipe := db.Recipe{}
	if err := s.db.WithContext(ctx).First(&recipe, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("recipe", recipeID)
		}
		return nil, errors.Wrap(err, "get recipe")
	}
	return &recipe, nil
}

func (s *Recipes) Get(ctx context.Context, viewerID, recipeID uint64) (*RecipeView, error) {
	recipes := make([]db.Recipe, 0, 1)
	if err := s.withComposition(ctx).Where("recipes.id = ?", recipeID).Find(&recipes).Error; err != nil {
		return nil, errors.Wrap(err, "get recipe")
	}
	if len(recipes) == 0 {
		return nil, notFound("recipe", recipeID)
	}

	views, err := s.views(ctx, viewerID, recipes)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// List returns all recipes, newest first.
func (s *Recipes) List(ctx context.Context, viewerID uint64) ([]RecipeView, error) {
	recipes := make([]db.Recipe, 0)
	if err := s.withComposition(ctx).Order("recipes.created_at DESC, recipes.id DESC").Find(&recipes).Error; err != nil {
		return nil, errors.Wrap(err, "list recipes")
	}
	return s.views(ctx, viewerID, recipes)
}

func (s *Recipes) withComposition(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients", func(tx *gorm.DB) *gorm.DB { return tx.Order("recipe_ingredients.id") }).
		Preload("Ingredients.Ingredient")
}

func (s *Recipes) views(ctx context.Context, viewerID uint64, recipes []db.Recipe) ([]RecipeView, error) {
	views := make([]RecipeView, len(recipes))
	for i := range recipes {
		views[i].Recipe = recipes[i]
	}
	if viewerID == 0 || len(recipes) == 0 {
		return views, nil
	}

	recipeIDs := make([]uint64, len(recipes))
	authorIDs := make([]uint64, len(recipes))
	for i := range recipes {
		recipeIDs[i] = recipes[i].ID
		authorIDs[i] = recipes[i].AuthorID
	}

	tx := s.db.WithContext(ctx)
	favorited, err := pluckSet(tx.Model(&db.Favorite{}).
		Where("user_id = ? AND recipe_id IN ?", viewerID, recipeIDs), "recipe_id")
	if err != nil {
		return nil, errors.Wrap(err, "get favorites")
	}
	inCart, err := pluckSet(tx.Model(&db.ShoppingCartItem{}).
		Where("user_id = ? AND recipe_id IN ?", viewerID, recipeIDs), "recipe_id")
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}
	followed, err := pluckSet(tx.Model(&db.Subscription{}).
		Where("user_id = ? AND author_id IN ?", viewerID, uniqueIDs(authorIDs)), "author_id")
	if err != nil {
		return nil, errors.Wrap(err, "get subscriptions")
	}

	for i := range views {
		r := &views[i].Recipe
		_, views[i].IsFavorited = favorited[r.ID]
		_, views[i].IsInShoppingCart = inCart[r.ID]
		_, views[i].AuthorFollowed = followed[r.AuthorID]
	}
	return views, nil
}

func pluckSet(q *gorm.DB, column string) (map[uint64]struct{}, error) {
	ids := make([]uint64, 0)
	if err := q.Pluck(column, &ids).Error; err != nil {
		return nil, err
	}
	set := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}
