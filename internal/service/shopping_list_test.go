package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
)

func TestShoppingListRender(t *testing.T) {
	ctx := context.Background()
	gdb, fix, l := newTestDB(t)

	list := NewShoppingList(gdb, l)
	list.now = func() time.Time { return time.Date(2024, 3, 9, 18, 30, 0, 0, time.UTC) }

	cook := fix.User("cook", "Anna", "Smirnova")
	author := fix.User("author", "", "")
	flour := fix.Ingredient("flour", "g")
	egg := fix.Ingredient("egg", "pcs")
	milk := fix.Ingredient("milk", "ml")

	r1 := fix.Recipe(author, "bread", map[*db.Ingredient]int{flour: 200, egg: 2})
	r2 := fix.Recipe(author, "pancakes", map[*db.Ingredient]int{flour: 100, milk: 150})
	fix.Recipe(author, "custard", map[*db.Ingredient]int{milk: 500, egg: 4})

	t.Run("empty cart keeps header", func(t *testing.T) {
		got, err := list.Render(ctx, cook)
		require.NoError(t, err)
		assert.Equal(t, "Список покупок для: Anna Smirnova\n\nДата: 2024-03-09\n\n", got)
	})

	fix.InCart(cook, r1, r2)

	t.Run("sums per ingredient", func(t *testing.T) {
		got, err := list.Render(ctx, cook)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(got, "Список покупок для: Anna Smirnova\n\nДата: 2024-03-09\n\n"))
		lines := strings.Split(strings.TrimSuffix(strings.SplitN(got, "\n\n", 3)[2], "\n"), "\n")
		assert.ElementsMatch(t, []string{"flour, 300 g", "egg, 2 pcs", "milk, 150 ml"}, lines)
	})

	t.Run("other carts are ignored", func(t *testing.T) {
		got, err := list.Purchases(ctx, author.ID)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("additive regardless of order", func(t *testing.T) {
		other := fix.User("other", "", "")
		a := fix.Recipe(author, "a", map[*db.Ingredient]int{egg: 3})
		b := fix.Recipe(author, "b", map[*db.Ingredient]int{egg: 2})
		fix.InCart(other, b, a)

		got, err := list.Purchases(ctx, other.ID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, egg.ID, got[0].IngredientID)
		assert.Equal(t, int64(5), got[0].Amount)
	})
}

func TestShoppingListSameNameDifferentUnit(t *testing.T) {
	ctx := context.Background()
	gdb, fix, l := newTestDB(t)
	list := NewShoppingList(gdb, l)

	u := fix.User("u", "", "")
	sugarG := fix.Ingredient("sugar", "g")
	sugarSpoon := fix.Ingredient("sugar", "tbsp")
	r := fix.Recipe(u, "tea", map[*db.Ingredient]int{sugarG: 10, sugarSpoon: 2})
	fix.InCart(u, r)

	got, err := list.Purchases(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "g", got[0].MeasurementUnit)
	assert.Equal(t, "tbsp", got[1].MeasurementUnit)
}
