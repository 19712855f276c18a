package service

import (
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	items   map[string][]byte
	loadErr error
}

func (c *memoryCache) Load(_ context.Context, key string, dst interface{}) (bool, error) {
	if c.loadErr != nil {
		return false, c.loadErr
	}
	raw, ok := c.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *memoryCache) Store(_ context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.items[key] = raw
	return nil
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()
	gdb, fix, l := newTestDB(t)
	cache := &memoryCache{items: map[string][]byte{}}
	catalog := NewCatalog(gdb, cache, l)

	salt := fix.Ingredient("salt", "g")
	fix.Ingredient("apple", "pcs")
	tag := fix.Tag("Dinner", "dinner")

	t.Run("ingredients are cached", func(t *testing.T) {
		got, err := catalog.ListIngredients(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "apple", got[0].Name)
		assert.Contains(t, cache.items, IngredientsCacheKey)

		fix.Ingredient("zucchini", "pcs")
		got, err = catalog.ListIngredients(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("cache failure falls back to db", func(t *testing.T) {
		cache.loadErr = errors.New("connection refused")
		defer func() { cache.loadErr = nil }()

		got, err := catalog.ListIngredients(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("tags", func(t *testing.T) {
		got, err := catalog.ListTags(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "dinner", got[0].Slug)

		one, err := catalog.GetTag(ctx, tag.ID)
		require.NoError(t, err)
		assert.Equal(t, "Dinner", one.Name)

		_, err = catalog.GetTag(ctx, 99)
		assert.True(t, IsNotFound(err))
	})

	t.Run("get ingredient", func(t *testing.T) {
		got, err := catalog.GetIngredient(ctx, salt.ID)
		require.NoError(t, err)
		assert.Equal(t, "g", got.MeasurementUnit)

		_, err = catalog.GetIngredient(ctx, 99)
		assert.True(t, IsNotFound(err))
	})

	t.Run("without cache", func(t *testing.T) {
		got, err := NewCatalog(gdb, nil, l).ListTags(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})
}
