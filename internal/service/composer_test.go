package service

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
)

func linkAmounts(r *db.Recipe) map[uint64]int {
	out := make(map[uint64]int, len(r.Ingredients))
	for _, l := range r.Ingredients {
		out[l.IngredientID] = l.Amount
	}
	return out
}

func tagIDs(r *db.Recipe) []uint64 {
	out := make([]uint64, len(r.Tags))
	for i, tag := range r.Tags {
		out[i] = tag.ID
	}
	return out
}

func TestComposerCreate(t *testing.T) {
	ctx := context.Background()
	gdb, fix, l := newTestDB(t)
	composer := NewComposer(gdb, l)

	author := fix.User("chef", "Ivan", "Petrov")
	flour := fix.Ingredient("flour", "g")
	egg := fix.Ingredient("egg", "pcs")
	breakfast := fix.Tag("Breakfast", "breakfast")
	lunch := fix.Tag("Lunch", "lunch")

	t.Run("composition matches payload", func(t *testing.T) {
		got, err := composer.Create(ctx, author.ID, RecipeInput{
			Name:        "pancakes",
			Text:        "mix and fry",
			Image:       "recipes/p.png",
			CookingTime: 20,
			Ingredients: []IngredientAmount{{flour.ID, 200}, {egg.ID, 2}},
			TagIDs:      []uint64{breakfast.ID, lunch.ID, breakfast.ID},
		})
		require.NoError(t, err)

		assert.Equal(t, "pancakes", got.Name)
		assert.Equal(t, author.ID, got.Author.ID)
		assert.Equal(t, map[uint64]int{flour.ID: 200, egg.ID: 2}, linkAmounts(got))
		assert.ElementsMatch(t, []uint64{breakfast.ID, lunch.ID}, tagIDs(got))
		assert.Equal(t, "flour", got.Ingredients[0].Ingredient.Name)
	})

	t.Run("amount of one is accepted", func(t *testing.T) {
		got, err := composer.Create(ctx, author.ID, RecipeInput{
			Name:        "boiled egg",
			CookingTime: 1,
			Ingredients: []IngredientAmount{{egg.ID, 1}},
		})
		require.NoError(t, err)
		assert.Equal(t, map[uint64]int{egg.ID: 1}, linkAmounts(got))
		assert.Empty(t, got.Tags)
	})

	t.Run("unknown author", func(t *testing.T) {
		_, err := composer.Create(ctx, 9999, RecipeInput{
			Name:        "ghost",
			CookingTime: 5,
			Ingredients: []IngredientAmount{{egg.ID, 1}},
		})
		assert.True(t, IsNotFound(err))
	})

	cases := []struct {
		name   string
		in     RecipeInput
		reason string
	}{
		{
			name:   "duplicate ingredient",
			in:     RecipeInput{Name: "a", CookingTime: 5, Ingredients: []IngredientAmount{{flour.ID, 1}, {flour.ID, 5}}},
			reason: msgIngredientsUnique,
		},
		{
			name:   "duplicate ingredient checked before amount",
			in:     RecipeInput{Name: "a", CookingTime: 5, Ingredients: []IngredientAmount{{flour.ID, 1}, {flour.ID, 0}}},
			reason: msgIngredientsUnique,
		},
		{
			name:   "zero amount",
			in:     RecipeInput{Name: "a", CookingTime: 5, Ingredients: []IngredientAmount{{flour.ID, 0}}},
			reason: msgAmountPositive,
		},
		{
			name:   "negative amount",
			in:     RecipeInput{Name: "a", CookingTime: 5, Ingredients: []IngredientAmount{{flour.ID, -3}}},
			reason: msgAmountPositive,
		},
		{
			name:   "no ingredients",
			in:     RecipeInput{Name: "a", CookingTime: 5},
			reason: msgIngredientsRequired,
		},
		{
			name:   "zero cooking time",
			in:     RecipeInput{Name: "a", CookingTime: 0, Ingredients: []IngredientAmount{{flour.ID, 1}}},
			reason: msgCookingTime,
		},
		{
			name:   "unknown ingredient",
			in:     RecipeInput{Name: "a", CookingTime: 5, Ingredients: []IngredientAmount{{flour.ID, 1}, {4242, 1}}},
			reason: "unknown ingredient id 4242",
		},
		{
			name:   "unknown tag",
			in:     RecipeInput{Name: "a", CookingTime: 5, Ingredients: []IngredientAmount{{flour.ID, 1}}, TagIDs: []uint64{lunch.ID, 77}},
			reason: "unknown tag id 77",
		},
		{
			name:   "duplicate name for author",
			in:     RecipeInput{Name: "pancakes", CookingTime: 5, Ingredients: []IngredientAmount{{flour.ID, 1}}},
			reason: msgDuplicateName,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := composer.Create(ctx, author.ID, tc.in)
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tc.reason, verr.Reason)
		})
	}

	t.Run("same name for another author", func(t *testing.T) {
		other := fix.User("other", "", "")
		_, err := composer.Create(ctx, other.ID, RecipeInput{
			Name:        "pancakes",
			CookingTime: 5,
			Ingredients: []IngredientAmount{{flour.ID, 1}},
		})
		assert.NoError(t, err)
	})

	t.Run("failed create leaves nothing behind", func(t *testing.T) {
		var before int64
		require.NoError(t, gdb.Model(&db.Recipe{}).Count(&before).Error)

		_, err := composer.Create(ctx, author.ID, RecipeInput{
			Name:        "broken",
			CookingTime: 5,
			Ingredients: []IngredientAmount{{flour.ID, 1}},
			TagIDs:      []uint64{999},
		})
		require.Error(t, err)

		var after int64
		require.NoError(t, gdb.Model(&db.Recipe{}).Count(&after).Error)
		assert.Equal(t, before, after)
	})
}

func TestComposerUpdate(t *testing.T) {
	ctx := context.Background()
	gdb, fix, l := newTestDB(t)
	composer := NewComposer(gdb, l)

	author := fix.User("chef", "", "")
	flour := fix.Ingredient("flour", "g")
	egg := fix.Ingredient("egg", "pcs")
	milk := fix.Ingredient("milk", "ml")
	breakfast := fix.Tag("Breakfast", "breakfast")
	dinner := fix.Tag("Dinner", "dinner")

	create := func(t *testing.T, name string) *db.Recipe {
		r, err := composer.Create(ctx, author.ID, RecipeInput{
			Name:        name,
			Text:        "text",
			Image:       "recipes/original.png",
			CookingTime: 30,
			Ingredients: []IngredientAmount{{flour.ID, 200}, {egg.ID, 2}, {milk.ID, 300}},
			TagIDs:      []uint64{breakfast.ID},
		})
		require.NoError(t, err)
		return r
	}

	t.Run("replaces composition wholesale", func(t *testing.T) {
		r := create(t, "crepes")

		got, err := composer.Update(ctx, r, RecipeInput{
			Name:        "crepes",
			Text:        "new text",
			CookingTime: 15,
			Ingredients: []IngredientAmount{{milk.ID, 100}},
			TagIDs:      []uint64{dinner.ID},
		})
		require.NoError(t, err)

		assert.Equal(t, map[uint64]int{milk.ID: 100}, linkAmounts(got))
		assert.Equal(t, []uint64{dinner.ID}, tagIDs(got))
		assert.Equal(t, "new text", got.Text)
		assert.Equal(t, 15, got.CookingTime)
		assert.Equal(t, "recipes/original.png", got.Image)

		var links int64
		require.NoError(t, gdb.Model(&db.RecipeIngredient{}).Where("recipe_id = ?", r.ID).Count(&links).Error)
		assert.Equal(t, int64(1), links)
	})

	t.Run("replaces image when given", func(t *testing.T) {
		r := create(t, "waffles")

		got, err := composer.Update(ctx, r, RecipeInput{
			Name:        "waffles",
			Image:       "recipes/new.png",
			CookingTime: 15,
			Ingredients: []IngredientAmount{{egg.ID, 3}},
		})
		require.NoError(t, err)
		assert.Equal(t, "recipes/new.png", got.Image)
		assert.Empty(t, got.Tags)
	})

	t.Run("name clash with another own recipe", func(t *testing.T) {
		r := create(t, "omelette")

		_, err := composer.Update(ctx, r, RecipeInput{
			Name:        "crepes",
			CookingTime: 5,
			Ingredients: []IngredientAmount{{egg.ID, 3}},
		})
		assert.True(t, IsValidation(err))
	})

	t.Run("duplicate ingredient rejected", func(t *testing.T) {
		r := create(t, "porridge")

		_, err := composer.Update(ctx, r, RecipeInput{
			Name:        "porridge",
			CookingTime: 5,
			Ingredients: []IngredientAmount{{milk.ID, 3}, {milk.ID, 4}},
		})
		assert.True(t, IsValidation(err))
	})

	t.Run("failure mid-rebuild rolls back", func(t *testing.T) {
		r := create(t, "toast")

		require.NoError(t, gdb.Callback().Create().Before("gorm:create").Register("test:fail_recipe_tags", func(tx *gorm.DB) {
			if tx.Statement.Table == "recipe_tags" {
				_ = tx.AddError(errors.New("injected failure"))
			}
		}))
		defer gdb.Callback().Create().Remove("test:fail_recipe_tags")

		_, err := composer.Update(ctx, r, RecipeInput{
			Name:        "toast renamed",
			CookingTime: 5,
			Ingredients: []IngredientAmount{{egg.ID, 1}},
			TagIDs:      []uint64{dinner.ID},
		})
		require.Error(t, err)

		got, err := composer.load(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, "toast", got.Name)
		assert.Equal(t, map[uint64]int{flour.ID: 200, egg.ID: 2, milk.ID: 300}, linkAmounts(got))
		assert.Equal(t, []uint64{breakfast.ID}, tagIDs(got))
	})
}

func TestComposerCreateNameRace(t *testing.T) {
	ctx := context.Background()
	gdb, fix, l := newTestDB(t)
	composer := NewComposer(gdb, l)

	author := fix.User("chef", "", "")
	egg := fix.Ingredient("egg", "pcs")

	insertFirst(t, gdb, "recipes", &db.Recipe{
		Name:        "omelette",
		Text:        "first",
		Image:       "recipes/o.png",
		CookingTime: 5,
		AuthorID:    author.ID,
	})

	_, err := composer.Create(ctx, author.ID, RecipeInput{
		Name:        "omelette",
		CookingTime: 5,
		Ingredients: []IngredientAmount{{egg.ID, 3}},
	})
	assert.True(t, IsValidation(err))
	assert.EqualError(t, err, msgDuplicateName)

	var links int64
	require.NoError(t, gdb.Model(&db.RecipeIngredient{}).Count(&links).Error)
	assert.Zero(t, links)
}

func TestComposerDelete(t *testing.T) {
	ctx := context.Background()
	gdb, fix, l := newTestDB(t)
	composer := NewComposer(gdb, l)

	author := fix.User("chef", "", "")
	eater := fix.User("eater", "", "")
	egg := fix.Ingredient("egg", "pcs")
	tag := fix.Tag("Breakfast", "breakfast")

	r, err := composer.Create(ctx, author.ID, RecipeInput{
		Name:        "eggs",
		CookingTime: 5,
		Ingredients: []IngredientAmount{{egg.ID, 2}},
		TagIDs:      []uint64{tag.ID},
	})
	require.NoError(t, err)
	fix.InCart(eater, r)
	require.NoError(t, gdb.Create(&db.Favorite{UserID: eater.ID, RecipeID: r.ID}).Error)

	require.NoError(t, composer.Delete(ctx, r.ID))

	for _, m := range []interface{}{&db.RecipeIngredient{}, &db.RecipeTag{}, &db.Favorite{}, &db.ShoppingCartItem{}} {
		var n int64
		require.NoError(t, gdb.Model(m).Where("recipe_id = ?", r.ID).Count(&n).Error)
		assert.Zero(t, n, "%T", m)
	}

	err = composer.Delete(ctx, r.ID)
	assert.True(t, IsNotFound(err))
}

func TestValidateComposition(t *testing.T) {
	err := validateComposition(RecipeInput{CookingTime: 1, Ingredients: []IngredientAmount{{1, 1}, {2, 1}}})
	assert.NoError(t, err)

	err = validateComposition(RecipeInput{CookingTime: 1, Ingredients: []IngredientAmount{{1, 100}, {1, 100}}})
	assert.EqualError(t, err, msgIngredientsUnique)
}

func TestUniqueIDs(t *testing.T) {
	assert.Equal(t, []uint64{3, 1, 2}, uniqueIDs([]uint64{3, 1, 3, 2, 1}))
	assert.Equal(t, []uint64{}, uniqueIDs(nil))
}
