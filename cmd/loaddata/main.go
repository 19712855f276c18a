package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/cache"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/config"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/service"
)

const batchSize = 500

type (
	IngredientFixture struct {
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
	}

	TagFixture struct {
		Name  string `json:"name"`
		Color string `json:"color"`
		Slug  string `json:"slug"`
	}

	UserFixture struct {
		Email     string `json:"email"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Token     string `json:"token"`
		IsStaff   bool   `json:"is_staff"`
	}

	invalidator interface {
		Invalidate(ctx context.Context, keys ...string) error
	}

	Loader struct {
		db     *gorm.DB
		cache  service.ReferenceCache
		logger *zap.SugaredLogger
	}
)

func main() {
	ingredientsPath := flag.String("ingredients", "", "JSON file with ingredients")
	tagsPath := flag.String("tags", "", "JSON file with tags")
	usersPath := flag.String("users", "", "JSON file with users")
	flag.Parse()

	var loader *Loader
	app := fx.New(
		fx.NopLogger,
		fx.Provide(
			config.NewConfig,
			func() (*zap.SugaredLogger, error) {
				l, err := zap.NewDevelopment()
				if err != nil {
					return nil, err
				}
				return l.Sugar(), nil
			},
			func(gdb *gorm.DB, rc service.ReferenceCache, l *zap.SugaredLogger) *Loader {
				return &Loader{db: gdb, cache: rc, logger: l}
			},
		),
		db.Module,
		cache.Module,
		fx.Populate(&loader),
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	err := loader.Run(ctx, *ingredientsPath, *tagsPath, *usersPath)
	if stopErr := app.Stop(ctx); stopErr != nil && err == nil {
		err = stopErr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (l *Loader) Run(ctx context.Context, ingredientsPath, tagsPath, usersPath string) error {
	var stale []string

	if ingredientsPath != "" {
		n, err := l.LoadIngredients(ctx, ingredientsPath)
		if err != nil {
			return err
		}
		l.logger.Infow("ingredients loaded", "inserted", n)
		stale = append(stale, service.IngredientsCacheKey)
	}

	if tagsPath != "" {
		n, err := l.LoadTags(ctx, tagsPath)
		if err != nil {
			return err
		}
		l.logger.Infow("tags loaded", "inserted", n)
		stale = append(stale, service.TagsCacheKey)
	}

	if usersPath != "" {
		users, err := l.LoadUsers(ctx, usersPath)
		if err != nil {
			return err
		}
		for _, u := range users {
			fmt.Printf("%s\t%s\n", u.Username, u.Token)
		}
	}

	if inv, ok := l.cache.(invalidator); ok && len(stale) > 0 {
		if err := inv.Invalidate(ctx, stale...); err != nil {
			return errors.Wrap(err, "invalidate reference cache")
		}
	}
	return nil
}

func (l *Loader) LoadIngredients(ctx context.Context, path string) (int64, error) {
	fixtures := make([]IngredientFixture, 0)
	if err := readJSON(path, &fixtures); err != nil {
		return 0, err
	}
	if len(fixtures) == 0 {
		return 0, nil
	}

	rows := make([]db.Ingredient, len(fixtures))
	for i, f := range fixtures {
		rows[i] = db.Ingredient{Name: f.Name, MeasurementUnit: f.MeasurementUnit}
	}
	return l.insert(ctx, &rows, "insert ingredients")
}

func (l *Loader) LoadTags(ctx context.Context, path string) (int64, error) {
	fixtures := make([]TagFixture, 0)
	if err := readJSON(path, &fixtures); err != nil {
		return 0, err
	}
	if len(fixtures) == 0 {
		return 0, nil
	}

	rows := make([]db.Tag, len(fixtures))
	for i, f := range fixtures {
		rows[i] = db.Tag{Name: f.Name, Color: f.Color, Slug: f.Slug}
	}
	return l.insert(ctx, &rows, "insert tags")
}

// LoadUsers returns the users actually inserted, with their tokens.
func (l *Loader) LoadUsers(ctx context.Context, path string) ([]db.User, error) {
	fixtures := make([]UserFixture, 0)
	if err := readJSON(path, &fixtures); err != nil {
		return nil, err
	}

	inserted := make([]db.User, 0, len(fixtures))
	for _, f := range fixtures {
		u := db.User{
			Email:     f.Email,
			Username:  f.Username,
			FirstName: f.FirstName,
			LastName:  f.LastName,
			Token:     f.Token,
			IsStaff:   f.IsStaff,
		}
		if u.Token == "" {
			u.Token = uuid.NewString()
		}

		res := l.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&u)
		if res.Error != nil {
			return nil, errors.Wrapf(res.Error, "insert user %s", f.Username)
		}
		if res.RowsAffected == 0 {
			l.logger.Infow("user already exists", "username", f.Username)
			continue
		}
		inserted = append(inserted, u)
	}
	return inserted, nil
}

func (l *Loader) insert(ctx context.Context, rows interface{}, what string) (int64, error) {
	res := l.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(rows, batchSize)
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, what)
	}
	return res.RowsAffected, nil
}

func readJSON(path string, dst interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}
