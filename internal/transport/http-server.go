package transport

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/config"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/media"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/metrics"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/models"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/service"
)

const (
	userContextKey = "user"
	maxBodySize    = "10M"
)

type (
	Params struct {
		fx.In

		Config        *config.Config
		DB            *gorm.DB
		Logger        *zap.SugaredLogger
		Composer      *service.Composer
		ShoppingList  *service.ShoppingList
		Favorites     *service.Favorites
		ShoppingCart  *service.ShoppingCart
		Subscriptions *service.Subscriptions
		Recipes       *service.Recipes
		Catalog       *service.Catalog
		Users         *service.Users
		Media         *media.Store
	}

	CustomValidator struct {
		validator *validator.Validate
	}

	HTTPServer struct {
		e             *echo.Echo
		db            *gorm.DB
		logger        *zap.SugaredLogger
		composer      *service.Composer
		shoppingList  *service.ShoppingList
		favorites     *service.Favorites
		shoppingCart  *service.ShoppingCart
		subscriptions *service.Subscriptions
		recipes       *service.Recipes
		catalog       *service.Catalog
		users         *service.Users
		media         *media.Store
	}
)

func NewHTTPServer(p Params) *HTTPServer {
	e := echo.New()
	e.HideBanner = true

	instance := HTTPServer{
		e:             e,
		db:            p.DB,
		logger:        p.Logger,
		composer:      p.Composer,
		shoppingList:  p.ShoppingList,
		favorites:     p.Favorites,
		shoppingCart:  p.ShoppingCart,
		subscriptions: p.Subscriptions,
		recipes:       p.Recipes,
		catalog:       p.Catalog,
		users:         p.Users,
		media:         p.Media,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(maxBodySize))
	e.Use(middleware.CORS())
	e.Use(instance.ObserveMiddleware)
	e.Use(instance.AuthMiddleware)

	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = instance.ErrorHandler

	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	if p.Config != nil && p.Config.MediaRoot != "" {
		e.Static(models.MediaURLPrefix, p.Config.MediaRoot)
	}

	api := e.Group("/api")

	api.GET("/tags", instance.TagList)
	api.GET("/tags/:id", instance.TagGet)
	api.GET("/ingredients", instance.IngredientList)
	api.GET("/ingredients/:id", instance.IngredientGet)

	recipeG := api.Group("/recipes")
	recipeG.GET("", instance.RecipeList)
	recipeG.POST("", instance.RecipeCreate)
	recipeG.GET("/download_shopping_cart", instance.ShoppingListDownload)
	recipeG.GET("/:id", instance.RecipeGet)
	recipeG.PATCH("/:id", instance.RecipeUpdate)
	recipeG.DELETE("/:id", instance.RecipeDelete)
	recipeG.POST("/:id/favorite", instance.FavoriteAdd)
	recipeG.DELETE("/:id/favorite", instance.FavoriteRemove)
	recipeG.POST("/:id/shopping_cart", instance.ShoppingCartAdd)
	recipeG.DELETE("/:id/shopping_cart", instance.ShoppingCartRemove)

	userG := api.Group("/users")
	userG.GET("", instance.UserList)
	userG.GET("/me", instance.UserMe)
	userG.GET("/:id", instance.UserGet)
	userG.GET("/subscriptions", instance.SubscriptionList)
	userG.POST("/:id/subscribe", instance.Subscribe)
	userG.DELETE("/:id/subscribe", instance.Unsubscribe)

	return &instance
}

func RegisterLifecycle(lc fx.Lifecycle, cfg *config.Config, s *HTTPServer, logger *zap.SugaredLogger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				listen := cfg.ListenAddr()
				logger.Infow("Starting HTTP server.", "listen", listen)
				if err := s.e.Start(listen); err != nil && err != http.ErrServerClosed {
					logger.Fatalw("shutting down the server", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server.")
			return s.e.Shutdown(ctx)
		},
	})
}

func (s *HTTPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

// ObserveMiddleware logs each request and records its latency. Errors are
// rendered here so the recorded status is the one sent.
func (s *HTTPServer) ObserveMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		if err := next(c); err != nil {
			c.Error(err)
		}
		elapsed := time.Since(start)

		req, res := c.Request(), c.Response()
		metrics.ObserveHTTP(req.Method, c.Path(), res.Status, elapsed)
		s.logger.Infow("request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", res.Status,
			"latency", elapsed,
		)
		return nil
	}
}

////////

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func BindAndValidate(c echo.Context, v interface{}) error {
	var err error
	if err = c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err = c.Validate(v); err != nil {
		return err
	}
	return nil
}

func GetUserFromContext(c echo.Context) *db.User {
	user, _ := c.Get(userContextKey).(*db.User)
	return user
}

// RequireUser returns the authenticated user or a 401.
func RequireUser(c echo.Context) (*db.User, error) {
	user := GetUserFromContext(c)
	if user == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication credentials were not provided")
	}
	return user, nil
}

func viewerID(c echo.Context) uint64 {
	if user := GetUserFromContext(c); user != nil {
		return user.ID
	}
	return 0
}

func GetParam(c echo.Context, name string) (string, error) {
	value := c.Param(name)
	if value == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid path param '"+name+"'")
	}
	return value, nil
}

func GetAndParseParam(c echo.Context, name string) (uint64, error) {
	v, err := GetParam(c, name)
	if err != nil {
		return 0, err
	}
	vv, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid path param '"+name+"'")
	}
	return vv, nil
}

// GetRecipesLimit parses the optional recipes_limit query parameter.
func GetRecipesLimit(c echo.Context) (*int, error) {
	raw := c.QueryParam("recipes_limit")
	if raw == "" {
		return nil, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "recipes_limit must be a non-negative integer")
	}
	return &limit, nil
}
