package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
)

func TestMemberships(t *testing.T) {
	ctx := context.Background()
	gdb, fix, l := newTestDB(t)

	user := fix.User("user", "", "")
	author := fix.User("author", "", "")
	recipe := fix.Recipe(author, "soup", nil)

	kinds := map[string]*memberships{
		"favorites": NewFavorites(gdb, l).memberships,
		"cart":      NewShoppingCart(gdb, l).memberships,
	}
	for name, m := range kinds {
		t.Run(name, func(t *testing.T) {
			short, err := m.Add(ctx, user.ID, recipe.ID)
			require.NoError(t, err)
			assert.Equal(t, &RecipeShort{ID: recipe.ID, Name: "soup", Image: recipe.Image, CookingTime: 10}, short)

			ok, err := m.Contains(ctx, user.ID, recipe.ID)
			require.NoError(t, err)
			assert.True(t, ok)

			_, err = m.Add(ctx, user.ID, recipe.ID)
			var conflict *ConflictError
			require.ErrorAs(t, err, &conflict)
			assert.Equal(t, m.kind.conflict, conflict.Reason)

			require.NoError(t, m.Remove(ctx, user.ID, recipe.ID))

			err = m.Remove(ctx, user.ID, recipe.ID)
			assert.True(t, IsNotFound(err))
			assert.EqualError(t, err, m.kind.missing)

			_, err = m.Add(ctx, user.ID, 404)
			assert.True(t, IsNotFound(err))
		})
	}

	t.Run("favorite and cart are independent", func(t *testing.T) {
		_, err := kinds["favorites"].Add(ctx, user.ID, recipe.ID)
		require.NoError(t, err)

		ok, err := kinds["cart"].Contains(ctx, user.ID, recipe.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("store rejects duplicate row", func(t *testing.T) {
		err := gdb.Create(&db.Favorite{UserID: user.ID, RecipeID: recipe.ID}).Error
		require.Error(t, err)
		assert.True(t, isUniqueViolation(err))
	})
}

func TestMembershipInsertRace(t *testing.T) {
	ctx := context.Background()
	gdb, fix, l := newTestDB(t)

	user := fix.User("user", "", "")
	recipe := fix.Recipe(fix.User("author", "", ""), "soup", nil)

	insertFirst(t, gdb, "favorites", &db.Favorite{UserID: user.ID, RecipeID: recipe.ID})

	_, err := NewFavorites(gdb, l).Add(ctx, user.ID, recipe.ID)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "already in favorites", conflict.Reason)

	insertFirst(t, gdb, "shopping_cart", &db.ShoppingCartItem{UserID: user.ID, RecipeID: recipe.ID})

	_, err = NewShoppingCart(gdb, l).Add(ctx, user.ID, recipe.ID)
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "already in cart", conflict.Reason)
}
