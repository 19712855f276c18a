package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/metrics"
)

const ShoppingListFilename = "shopping-list.txt"

type (
	Purchase struct {
		IngredientID    uint64
		Name            string
		MeasurementUnit string
		Amount          int64
	}

	ShoppingList struct {
		db     *gorm.DB
		logger *zap.SugaredLogger
		now    func() time.Time
	}
)

func NewShoppingList(db *gorm.DB, l *zap.SugaredLogger) *ShoppingList {
	return &ShoppingList{
		db:     db,
		logger: l,
		now:    time.Now,
	}
}

// Purchases sums ingredient amounts over every recipe in the user's cart,
// one entry per distinct ingredient, ordered by name then unit.
func (s *ShoppingList) Purchases(ctx context.Context, userID uint64) ([]Purchase, error) {
	recipeIDs := make([]uint64, 0)
	res := s.db.WithContext(ctx).Model(&db.ShoppingCartItem{}).
		Where("user_id = ?", userID).
		Pluck("recipe_id", &recipeIDs)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "get cart recipes")
	}
	if len(recipeIDs) == 0 {
		return []Purchase{}, nil
	}

	sql, args, err := squirrel.
		Select("i.id AS ingredient_id", "i.name", "i.measurement_unit", "SUM(ri.amount) AS amount").
		From("recipe_ingredients ri").
		Join("ingredients i ON i.id = ri.ingredient_id").
		Where(squirrel.Eq{"ri.recipe_id": recipeIDs}).
		GroupBy("i.id", "i.name", "i.measurement_unit").
		OrderBy("i.name", "i.measurement_unit").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}

	purchases := make([]Purchase, 0)
	res = s.db.WithContext(ctx).Raw(sql, args...).Scan(&purchases)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "scan")
	}
	return purchases, nil
}

// Render builds the downloadable plain-text list for user. An empty cart
// still yields both header lines.
func (s *ShoppingList) Render(ctx context.Context, user *db.User) (string, error) {
	purchases, err := s.Purchases(ctx, user.ID)
	if err != nil {
		return "", err
	}

	b := strings.Builder{}
	fmt.Fprintf(&b, "Список покупок для: %s\n\n", user.FullName())
	fmt.Fprintf(&b, "Дата: %s\n\n", s.now().Format("2006-01-02"))
	for _, p := range purchases {
		fmt.Fprintf(&b, "%s, %d %s\n", p.Name, p.Amount, p.MeasurementUnit)
	}

	metrics.ShoppingListLines.Observe(float64(len(purchases)))
	s.logger.Debugw("shopping list rendered", "user_id", user.ID, "lines", len(purchases))

	return b.String(), nil
}
