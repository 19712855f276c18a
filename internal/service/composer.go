package service

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/metrics"
)

const (
	msgIngredientsUnique   = "ingredients must be unique"
	msgAmountPositive      = "amount must be positive"
	msgIngredientsRequired = "at least one ingredient required"
	msgCookingTime         = "cooking time must be at least 1 minute"
	msgDuplicateName       = "you already have a recipe with this name"
)

type (
	IngredientAmount struct {
		IngredientID uint64
		Amount       int
	}

	// RecipeInput is an already authenticated, shape-checked recipe payload.
	// Image is an opaque stored-file handle; on update an empty Image keeps
	// the current one.
	RecipeInput struct {
		Name        string
		Text        string
		Image       string
		CookingTime int
		Ingredients []IngredientAmount
		TagIDs      []uint64
	}

	Composer struct {
		db     *gorm.DB
		logger *zap.SugaredLogger
	}
)

func NewComposer(db *gorm.DB, l *zap.SugaredLogger) *Composer {
	return &Composer{
		db:     db,
		logger: l,
	}
}

func (s *Composer) Create(ctx context.Context, authorID uint64, in RecipeInput) (*db.Recipe, error) {
	if err := validateComposition(in); err != nil {
		return nil, err
	}

	var recipeID uint64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var authors int64
		if err := tx.Model(&db.User{}).Where("id = ?", authorID).Count(&authors).Error; err != nil {
			return errors.Wrap(err, "get author")
		}
		if authors == 0 {
			return notFound("user", authorID)
		}
		if err := checkReferences(tx, in); err != nil {
			return err
		}
		if err := checkNameFree(tx, authorID, in.Name, 0); err != nil {
			return err
		}

		recipe := db.Recipe{
			Name:        in.Name,
			Text:        in.Text,
			Image:       in.Image,
			CookingTime: in.CookingTime,
			AuthorID:    authorID,
		}
		if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
			if isUniqueViolation(err) {
				return invalid(msgDuplicateName)
			}
			return errors.Wrap(err, "create recipe")
		}
		recipeID = recipe.ID

		return writeComposition(tx, recipe.ID, in)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecipesComposed.WithLabelValues("create").Inc()
	s.logger.Infow("recipe created", "recipe_id", recipeID, "author_id", authorID, "ingredients", len(in.Ingredients))

	return s.load(ctx, recipeID)
}

// Update replaces the composition of recipe wholesale: all ingredient links
// and tag links are dropped and rebuilt from in, inside one transaction.
func (s *Composer) Update(ctx context.Context, recipe *db.Recipe, in RecipeInput) (*db.Recipe, error) {
	if err := validateComposition(in); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkReferences(tx, in); err != nil {
			return err
		}
		if err := checkNameFree(tx, recipe.AuthorID, in.Name, recipe.ID); err != nil {
			return err
		}

		fields := map[string]interface{}{
			"name":         in.Name,
			"text":         in.Text,
			"cooking_time": in.CookingTime,
		}
		if in.Image != "" {
			fields["image"] = in.Image
		}
		res := tx.Model(&db.Recipe{}).Where("id = ?", recipe.ID).Updates(fields)
		if res.Error != nil {
			if isUniqueViolation(res.Error) {
				return invalid(msgDuplicateName)
			}
			return errors.Wrap(res.Error, "update recipe")
		}
		if res.RowsAffected == 0 {
			return notFound("recipe", recipe.ID)
		}

		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&db.RecipeIngredient{}).Error; err != nil {
			return errors.Wrap(err, "clear ingredients")
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&db.RecipeTag{}).Error; err != nil {
			return errors.Wrap(err, "clear tags")
		}

		return writeComposition(tx, recipe.ID, in)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecipesComposed.WithLabelValues("update").Inc()
	s.logger.Infow("recipe updated", "recipe_id", recipe.ID, "ingredients", len(in.Ingredients))

	return s.load(ctx, recipe.ID)
}

// Delete removes the recipe together with everything that points at it.
func (s *Composer) Delete(ctx context.Context, recipeID uint64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := []interface{}{
			&db.RecipeIngredient{},
			&db.RecipeTag{},
			&db.Favorite{},
			&db.ShoppingCartItem{},
		}
		for _, m := range owned {
			if err := tx.Where("recipe_id = ?", recipeID).Delete(m).Error; err != nil {
				return errors.Wrapf(err, "delete %T", m)
			}
		}

		res := tx.Delete(&db.Recipe{}, recipeID)
		if res.Error != nil {
			return errors.Wrap(res.Error, "delete recipe")
		}
		if res.RowsAffected == 0 {
			return notFound("recipe", recipeID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	metrics.RecipesComposed.WithLabelValues("delete").Inc()
	s.logger.Infow("recipe deleted", "recipe_id", recipeID)
	return nil
}

func (s *Composer) load(ctx context.Context, recipeID uint64) (*db.Recipe, error) {
	recipe := db.Recipe{}
	res := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients", func(tx *gorm.DB) *gorm.DB { return tx.Order("recipe_ingredients.id") }).
		Preload("Ingredients.Ingredient").
		First(&recipe, recipeID)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, notFound("recipe", recipeID)
		}
		return nil, errors.Wrap(res.Error, "load recipe")
	}
	return &recipe, nil
}

func validateComposition(in RecipeInput) error {
	if in.CookingTime < 1 {
		return invalid(msgCookingTime)
	}

	seen := make(map[uint64]struct{}, len(in.Ingredients))
	for _, pair := range in.Ingredients {
		if _, ok := seen[pair.IngredientID]; ok {
			return invalid(msgIngredientsUnique)
		}
		if pair.Amount < 1 {
			return invalid(msgAmountPositive)
		}
		seen[pair.IngredientID] = struct{}{}
	}
	if len(seen) == 0 {
		return invalid(msgIngredientsRequired)
	}
	return nil
}

func checkReferences(tx *gorm.DB, in RecipeInput) error {
	ingredientIDs := make([]uint64, len(in.Ingredients))
	for i, pair := range in.Ingredients {
		ingredientIDs[i] = pair.IngredientID
	}
	missing, err := firstMissing(tx, &db.Ingredient{}, ingredientIDs)
	if err != nil {
		return errors.Wrap(err, "check ingredients")
	}
	if missing != 0 {
		return invalid("unknown ingredient id %d", missing)
	}

	missing, err = firstMissing(tx, &db.Tag{}, uniqueIDs(in.TagIDs))
	if err != nil {
		return errors.Wrap(err, "check tags")
	}
	if missing != 0 {
		return invalid("unknown tag id %d", missing)
	}
	return nil
}

// firstMissing returns the first id in ids with no row in model's table, or 0.
func firstMissing(tx *gorm.DB, model interface{}, ids []uint64) (uint64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	found := make([]uint64, 0, len(ids))
	if err := tx.Model(model).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return 0, err
	}
	if len(found) == len(ids) {
		return 0, nil
	}
	known := make(map[uint64]struct{}, len(found))
	for _, id := range found {
		known[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return id, nil
		}
	}
	return 0, nil
}

func checkNameFree(tx *gorm.DB, authorID uint64, name string, exceptID uint64) error {
	var n int64
	q := tx.Model(&db.Recipe{}).Where("author_id = ? AND name = ?", authorID, name)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return errors.Wrap(err, "check recipe name")
	}
	if n > 0 {
		return invalid(msgDuplicateName)
	}
	return nil
}

// writeComposition inserts all ingredient links in one statement, then all
// tag links in another.
func writeComposition(tx *gorm.DB, recipeID uint64, in RecipeInput) error {
	links := make([]db.RecipeIngredient, len(in.Ingredients))
	for i, pair := range in.Ingredients {
		links[i] = db.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: pair.IngredientID,
			Amount:       pair.Amount,
		}
	}
	if err := tx.Omit(clause.Associations).Create(&links).Error; err != nil {
		if isUniqueViolation(err) {
			return invalid(msgIngredientsUnique)
		}
		return errors.Wrap(err, "create ingredient links")
	}

	tagIDs := uniqueIDs(in.TagIDs)
	if len(tagIDs) == 0 {
		return nil
	}
	tags := make([]db.RecipeTag, len(tagIDs))
	for i, id := range tagIDs {
		tags[i] = db.RecipeTag{RecipeID: recipeID, TagID: id}
	}
	if err := tx.Create(&tags).Error; err != nil {
		return errors.Wrap(err, "create tag links")
	}
	return nil
}

func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
