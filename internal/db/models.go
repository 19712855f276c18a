package db

import (
	"strings"
	"time"
)

type (
	GormForkedModel struct {
		ID        uint64 `gorm:"primarykey"`
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	User struct {
		GormForkedModel
		Email     string   `gorm:"unique;not null"`
		Username  string   `gorm:"unique;not null"`
		FirstName string   `gorm:"not null;default:''"`
		LastName  string   `gorm:"not null;default:''"`
		Token     string   `gorm:"unique;not null"`
		IsStaff   bool     `gorm:"not null;default:false"`
		Recipes   []Recipe `gorm:"foreignKey:AuthorID"`
	}

	Ingredient struct {
		ID              uint64 `gorm:"primarykey"`
		Name            string `gorm:"not null;size:200;uniqueIndex:uidx_ingredient_name_unit"`
		MeasurementUnit string `gorm:"not null;size:10;uniqueIndex:uidx_ingredient_name_unit"`
	}

	Tag struct {
		ID    uint64 `gorm:"primarykey"`
		Name  string `gorm:"not null;size:200"`
		Color string `gorm:"not null;size:7"`
		Slug  string `gorm:"unique;not null;size:200"`
	}

	// Recipe.CreatedAt is the publish timestamp.
	Recipe struct {
		GormForkedModel
		Name        string             `gorm:"not null;size:200;uniqueIndex:uidx_recipe_author_name"`
		Text        string             `gorm:"not null"`
		Image       string             `gorm:"not null"`
		CookingTime int                `gorm:"not null;check:chk_recipe_cooking_time,cooking_time >= 1"`
		AuthorID    uint64             `gorm:"not null;uniqueIndex:uidx_recipe_author_name"`
		Author      User               `gorm:"foreignKey:AuthorID"`
		Tags        []Tag              `gorm:"many2many:recipe_tags;"`
		Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID"`
	}

	RecipeTag struct {
		RecipeID uint64 `gorm:"primaryKey"`
		TagID    uint64 `gorm:"primaryKey"`
	}

	RecipeIngredient struct {
		ID           uint64     `gorm:"primarykey"`
		RecipeID     uint64     `gorm:"not null;uniqueIndex:uidx_recipe_ingredient"`
		IngredientID uint64     `gorm:"not null;uniqueIndex:uidx_recipe_ingredient"`
		Amount       int        `gorm:"not null;check:chk_recipe_ingredient_amount,amount >= 1"`
		Ingredient   Ingredient `gorm:"foreignKey:IngredientID"`
	}

	Favorite struct {
		ID        uint64 `gorm:"primarykey"`
		UserID    uint64 `gorm:"not null;uniqueIndex:uidx_favorite_user_recipe"`
		RecipeID  uint64 `gorm:"not null;uniqueIndex:uidx_favorite_user_recipe"`
		CreatedAt time.Time
	}

	ShoppingCartItem struct {
		ID        uint64 `gorm:"primarykey"`
		UserID    uint64 `gorm:"not null;uniqueIndex:uidx_cart_user_recipe"`
		RecipeID  uint64 `gorm:"not null;uniqueIndex:uidx_cart_user_recipe"`
		CreatedAt time.Time
	}

	Subscription struct {
		ID        uint64 `gorm:"primarykey"`
		UserID    uint64 `gorm:"not null;uniqueIndex:uidx_subscription_user_author;check:chk_subscription_not_self,user_id <> author_id"`
		AuthorID  uint64 `gorm:"not null;uniqueIndex:uidx_subscription_user_author"`
		CreatedAt time.Time
	}
)

func (ShoppingCartItem) TableName() string {
	return "shopping_cart"
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// AllModels is the AutoMigrate order; RecipeTag must follow Recipe and Tag.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Ingredient{},
		&Tag{},
		&Recipe{},
		&RecipeTag{},
		&RecipeIngredient{},
		&Favorite{},
		&ShoppingCartItem{},
		&Subscription{},
	}
}
