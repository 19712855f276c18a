package service

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/metrics"
)

const (
	IngredientsCacheKey = "foodgram:ingredients"
	TagsCacheKey        = "foodgram:tags"
)

type (
	// ReferenceCache stores the immutable ingredient and tag lists.
	ReferenceCache interface {
		Load(ctx context.Context, key string, dst interface{}) (bool, error)
		Store(ctx context.Context, key string, v interface{}) error
	}

	Catalog struct {
		db     *gorm.DB
		cache  ReferenceCache
		logger *zap.SugaredLogger
	}
)

func NewCatalog(db *gorm.DB, cache ReferenceCache, l *zap.SugaredLogger) *Catalog {
	return &Catalog{
		db:     db,
		cache:  cache,
		logger: l,
	}
}

func (s *Catalog) ListIngredients(ctx context.Context) ([]db.Ingredient, error) {
	ingredients := make([]db.Ingredient, 0)
	err := s.cached(ctx, IngredientsCacheKey, &ingredients, func() error {
		return s.db.WithContext(ctx).Order("name, measurement_unit").Find(&ingredients).Error
	})
	if err != nil {
		return nil, errors.Wrap(err, "list ingredients")
	}
	return ingredients, nil
}

func (s *Catalog) GetIngredient(ctx context.Context, id uint64) (*db.Ingredient, error) {
	ingredient := db.Ingredient{}
	if err := s.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("ingredient", id)
		}
		return nil, errors.Wrap(err, "get ingredient")
	}
	return &ingredient, nil
}

func (s *Catalog) ListTags(ctx context.Context) ([]db.Tag, error) {
	tags := make([]db.Tag, 0)
	err := s.cached(ctx, TagsCacheKey, &tags, func() error {
		return s.db.WithContext(ctx).Order("id").Find(&tags).Error
	})
	if err != nil {
		return nil, errors.Wrap(err, "list tags")
	}
	return tags, nil
}

func (s *Catalog) GetTag(ctx context.Context, id uint64) (*db.Tag, error) {
	tag := db.Tag{}
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("tag", id)
		}
		return nil, errors.Wrap(err, "get tag")
	}
	return &tag, nil
}

// cached fills dst from the cache, or runs load and stores the result. Cache
// failures degrade to a plain database read.
func (s *Catalog) cached(ctx context.Context, key string, dst interface{}, load func() error) error {
	if s.cache != nil {
		ok, err := s.cache.Load(ctx, key, dst)
		switch {
		case err != nil:
			metrics.ReferenceCacheLookups.WithLabelValues("error").Inc()
			s.logger.Warnw("reference cache load failed", "key", key, "error", err)
		case ok:
			metrics.ReferenceCacheLookups.WithLabelValues("hit").Inc()
			return nil
		default:
			metrics.ReferenceCacheLookups.WithLabelValues("miss").Inc()
		}
	}

	if err := load(); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Store(ctx, key, dst); err != nil {
			s.logger.Warnw("reference cache store failed", "key", key, "error", err)
		}
	}
	return nil
}
