package service

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
)

type (
	// RecipeShort is the compact recipe projection returned by membership
	// toggles and subscription summaries.
	RecipeShort struct {
		ID          uint64
		Name        string
		Image       string
		CookingTime int
	}

	membershipKind struct {
		name     string
		model    func() interface{}
		newEntry func(userID, recipeID uint64) interface{}
		conflict string
		missing  string
	}

	memberships struct {
		db     *gorm.DB
		logger *zap.SugaredLogger
		kind   membershipKind
	}

	Favorites struct {
		*memberships
	}

	ShoppingCart struct {
		*memberships
	}
)

func NewFavorites(db *gorm.DB, l *zap.SugaredLogger) *Favorites {
	return &Favorites{&memberships{db: db, logger: l, kind: favoriteKind}}
}

func NewShoppingCart(db *gorm.DB, l *zap.SugaredLogger) *ShoppingCart {
	return &ShoppingCart{&memberships{db: db, logger: l, kind: cartKind}}
}

var (
	favoriteKind = membershipKind{
		name:  "favorite",
		model: func() interface{} { return &db.Favorite{} },
		newEntry: func(userID, recipeID uint64) interface{} {
			return &db.Favorite{UserID: userID, RecipeID: recipeID}
		},
		conflict: "already in favorites",
		missing:  "recipe is not in favorites",
	}

	cartKind = membershipKind{
		name:  "shopping cart",
		model: func() interface{} { return &db.ShoppingCartItem{} },
		newEntry: func(userID, recipeID uint64) interface{} {
			return &db.ShoppingCartItem{UserID: userID, RecipeID: recipeID}
		},
		conflict: "already in cart",
		missing:  "recipe is not in cart",
	}
)

// Add marks the recipe for the user. The unique (user, recipe) index is the
// authority; the lookup beforehand only produces the same error earlier.
func (s *memberships) Add(ctx context.Context, userID, recipeID uint64) (*RecipeShort, error) {
	tx := s.db.WithContext(ctx)

	short, err := shortRecipe(tx, recipeID)
	if err != nil {
		return nil, err
	}

	exists, err := s.Contains(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &ConflictError{Reason: s.kind.conflict}
	}

	if err := tx.Create(s.kind.newEntry(userID, recipeID)).Error; err != nil {
		if isUniqueViolation(err) {
			s.logger.Debugw("membership insert lost race", "kind", s.kind.name, "user_id", userID, "recipe_id", recipeID)
			return nil, &ConflictError{Reason: s.kind.conflict}
		}
		return nil, errors.Wrapf(err, "add to %s", s.kind.name)
	}

	return short, nil
}

// Remove deletes the membership. Removing an absent membership is an error,
// not a no-op.
func (s *memberships) Remove(ctx context.Context, userID, recipeID uint64) error {
	tx := s.db.WithContext(ctx)

	if _, err := shortRecipe(tx, recipeID); err != nil {
		return err
	}

	res := tx.Where("user_id = ? AND recipe_id = ?", userID, recipeID).Delete(s.kind.model())
	if res.Error != nil {
		return errors.Wrapf(res.Error, "remove from %s", s.kind.name)
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: s.kind.name, ID: recipeID, Reason: s.kind.missing}
	}
	return nil
}

func (s *memberships) Contains(ctx context.Context, userID, recipeID uint64) (bool, error) {
	var n int64
	res := s.db.WithContext(ctx).Model(s.kind.model()).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&n)
	if res.Error != nil {
		return false, errors.Wrapf(res.Error, "check %s", s.kind.name)
	}
	return n > 0, nil
}

func shortRecipe(tx *gorm.DB, recipeID uint64) (*RecipeShort, error) {
	recipe := db.Recipe{}
	res := tx.Select("id", "name", "image", "cooking_time").First(&recipe, recipeID)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, notFound("recipe", recipeID)
		}
		return nil, errors.Wrap(res.Error, "get recipe")
	}
	return toShort(&recipe), nil
}

func toShort(r *db.Recipe) *RecipeShort {
	return &RecipeShort{
		ID:          r.ID,
		Name:        r.Name,
		Image:       r.Image,
		CookingTime: r.CookingTime,
	}
}
