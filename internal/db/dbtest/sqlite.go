// Package dbtest opens throwaway in-memory stores for package tests.
package dbtest

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
)

// New returns a migrated in-memory SQLite database. The pool is pinned to a
// single connection because every new SQLite memory connection is a fresh,
// empty database.
func New(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(gdb))
	return gdb
}

type Fixtures struct {
	DB *gorm.DB
	t  *testing.T
}

func NewFixtures(t *testing.T, gdb *gorm.DB) *Fixtures {
	return &Fixtures{DB: gdb, t: t}
}

func (f *Fixtures) User(username, first, last string) *db.User {
	f.t.Helper()
	u := db.User{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: first,
		LastName:  last,
		Token:     "token-" + username,
	}
	require.NoError(f.t, f.DB.Create(&u).Error)
	return &u
}

func (f *Fixtures) Staff(username string) *db.User {
	f.t.Helper()
	u := f.User(username, "", "")
	require.NoError(f.t, f.DB.Model(u).Update("is_staff", true).Error)
	u.IsStaff = true
	return u
}

func (f *Fixtures) Ingredient(name, unit string) *db.Ingredient {
	f.t.Helper()
	i := db.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(f.t, f.DB.Create(&i).Error)
	return &i
}

func (f *Fixtures) Tag(name, slug string) *db.Tag {
	f.t.Helper()
	tag := db.Tag{Name: name, Color: "#E26C2D", Slug: slug}
	require.NoError(f.t, f.DB.Create(&tag).Error)
	return &tag
}

// Recipe inserts a recipe directly, bypassing composition validation.
func (f *Fixtures) Recipe(author *db.User, name string, amounts map[*db.Ingredient]int) *db.Recipe {
	f.t.Helper()
	r := db.Recipe{
		Name:        name,
		Text:        name + " text",
		Image:       "recipes/" + name + ".png",
		CookingTime: 10,
		AuthorID:    author.ID,
	}
	require.NoError(f.t, f.DB.Create(&r).Error)
	for ing, amount := range amounts {
		link := db.RecipeIngredient{RecipeID: r.ID, IngredientID: ing.ID, Amount: amount}
		require.NoError(f.t, f.DB.Create(&link).Error)
	}
	return &r
}

func (f *Fixtures) InCart(user *db.User, recipes ...*db.Recipe) {
	f.t.Helper()
	for _, r := range recipes {
		require.NoError(f.t, f.DB.Create(&db.ShoppingCartItem{UserID: user.ID, RecipeID: r.ID}).Error)
	}
}
