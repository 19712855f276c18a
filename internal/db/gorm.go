package db

import (
	"context"
	"database/sql"
	"embed"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

func NewGormClient(lc fx.Lifecycle, cfg *config.Config, l *zap.SugaredLogger) (*gorm.DB, error) {
	sqlDB, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "failed to connect database")
	}

	if err := Migrate(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	l.Info("database migrations applied")

	newLogger := logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		Colorful:                  true,
		IgnoreRecordNotFoundError: true,
	})

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         newLogger,
		TranslateError: true,
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "open gorm")
	}
	if err := Prepare(gdb); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			l.Info("Closing database connection.")
			return sqlDB.Close()
		},
	})

	return gdb, nil
}

func Migrate(sqlDB *sql.DB) error {
	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "goose set dialect")
	}
	if err := goose.Up(sqlDB, "migrations"); err != nil {
		return errors.Wrap(err, "goose up")
	}
	return nil
}

// Prepare registers RecipeTag as the recipe_tags join model so that
// preloading Recipe.Tags and writing RecipeTag rows share one table.
func Prepare(gdb *gorm.DB) error {
	if err := gdb.SetupJoinTable(&Recipe{}, "Tags", &RecipeTag{}); err != nil {
		return errors.Wrap(err, "setup recipe_tags join table")
	}
	return nil
}

// AutoMigrate builds the schema from the models. Postgres deployments use
// Migrate instead; this is for the embedded SQLite store used in tests.
func AutoMigrate(gdb *gorm.DB) error {
	if err := Prepare(gdb); err != nil {
		return err
	}
	for _, m := range AllModels() {
		if err := gdb.AutoMigrate(m); err != nil {
			return errors.Wrapf(err, "migrate %T", m)
		}
	}
	return nil
}
