package service

import (
	"go.uber.org/fx"
)

var (
	Module = fx.Provide(
		NewComposer,
		NewShoppingList,
		NewFavorites,
		NewShoppingCart,
		NewSubscriptions,
		NewRecipes,
		NewCatalog,
		NewUsers,
	)
)
