package service

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
)

const (
	msgFollowSelf       = "cannot follow self"
	msgAlreadySubscribe = "already subscribed"
	msgNoSubscription   = "no such subscription"
)

type (
	AuthorSummary struct {
		Author       db.User
		IsSubscribed bool
		RecipesCount int64
		Recipes      []RecipeShort
	}

	Subscriptions struct {
		db     *gorm.DB
		logger *zap.SugaredLogger
	}
)

func NewSubscriptions(db *gorm.DB, l *zap.SugaredLogger) *Subscriptions {
	return &Subscriptions{
		db:     db,
		logger: l,
	}
}

func (s *Subscriptions) Subscribe(ctx context.Context, userID, authorID uint64) (*db.Subscription, error) {
	tx := s.db.WithContext(ctx)

	if err := userExists(tx, authorID); err != nil {
		return nil, err
	}
	if userID == authorID {
		return nil, invalid(msgFollowSelf)
	}

	followed, err := s.IsFollowing(ctx, userID, authorID)
	if err != nil {
		return nil, err
	}
	if followed {
		return nil, invalid(msgAlreadySubscribe)
	}

	sub := db.Subscription{UserID: userID, AuthorID: authorID}
	if err := tx.Create(&sub).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, invalid(msgAlreadySubscribe)
		}
		return nil, errors.Wrap(err, "create subscription")
	}

	s.logger.Infow("subscribed", "user_id", userID, "author_id", authorID)
	return &sub, nil
}

func (s *Subscriptions) Unsubscribe(ctx context.Context, userID, authorID uint64) error {
	tx := s.db.WithContext(ctx)

	if err := userExists(tx, authorID); err != nil {
		return err
	}

	res := tx.Where("user_id = ? AND author_id = ?", userID, authorID).Delete(&db.Subscription{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete subscription")
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "subscription", ID: authorID, Reason: msgNoSubscription}
	}
	return nil
}

func (s *Subscriptions) IsFollowing(ctx context.Context, userID, authorID uint64) (bool, error) {
	var n int64
	res := s.db.WithContext(ctx).Model(&db.Subscription{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&n)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "check subscription")
	}
	return n > 0, nil
}

// List returns every author the user follows, newest subscription first. A
// nil limit keeps all of an author's recipes.
func (s *Subscriptions) List(ctx context.Context, userID uint64, limit *int) ([]AuthorSummary, error) {
	tx := s.db.WithContext(ctx)

	authors := make([]db.User, 0)
	res := tx.Model(&db.User{}).
		Select("users.*").
		Joins("JOIN subscriptions s ON s.author_id = users.id").
		Where("s.user_id = ?", userID).
		Order("s.id DESC").
		Find(&authors)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "get followed authors")
	}

	return summarize(tx, authors, limit, func(uint64) bool { return true })
}

// Summary describes a single author as seen by viewerID (0 for anonymous).
func (s *Subscriptions) Summary(ctx context.Context, viewerID, authorID uint64, limit *int) (*AuthorSummary, error) {
	tx := s.db.WithContext(ctx)

	author := db.User{}
	if err := tx.First(&author, authorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user", authorID)
		}
		return nil, errors.Wrap(err, "get author")
	}

	followed := false
	if viewerID != 0 {
		var err error
		if followed, err = s.IsFollowing(ctx, viewerID, authorID); err != nil {
			return nil, err
		}
	}

	out, err := summarize(tx, []db.User{author}, limit, func(uint64) bool { return followed })
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func summarize(tx *gorm.DB, authors []db.User, limit *int, followed func(uint64) bool) ([]AuthorSummary, error) {
	out := make([]AuthorSummary, len(authors))
	if len(authors) == 0 {
		return out, nil
	}

	ids := make([]uint64, len(authors))
	for i := range authors {
		ids[i] = authors[i].ID
	}

	counts, err := recipeCounts(tx, ids)
	if err != nil {
		return nil, err
	}

	recipes := make([]db.Recipe, 0)
	res := tx.Select("id", "name", "image", "cooking_time", "author_id", "created_at").
		Where("author_id IN ?", ids).
		Order("created_at DESC, id DESC").
		Find(&recipes)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "get author recipes")
	}
	byAuthor := make(map[uint64][]RecipeShort, len(authors))
	for i := range recipes {
		r := &recipes[i]
		if limit != nil && len(byAuthor[r.AuthorID]) >= *limit {
			continue
		}
		byAuthor[r.AuthorID] = append(byAuthor[r.AuthorID], *toShort(r))
	}

	for i := range authors {
		id := authors[i].ID
		shorts := byAuthor[id]
		if shorts == nil {
			shorts = []RecipeShort{}
		}
		out[i] = AuthorSummary{
			Author:       authors[i],
			IsSubscribed: followed(id),
			RecipesCount: counts[id],
			Recipes:      shorts,
		}
	}
	return out, nil
}

func recipeCounts(tx *gorm.DB, authorIDs []uint64) (map[uint64]int64, error) {
	sql, args, err := squirrel.
		Select("author_id", "COUNT(*) AS recipes_count").
		From("recipes").
		Where(squirrel.Eq{"author_id": authorIDs}).
		GroupBy("author_id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}

	rows := make([]struct {
		AuthorID     uint64
		RecipesCount int64
	}, 0)
	if err := tx.Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "count recipes")
	}

	counts := make(map[uint64]int64, len(rows))
	for _, row := range rows {
		counts[row.AuthorID] = row.RecipesCount
	}
	return counts, nil
}

func userExists(tx *gorm.DB, userID uint64) error {
	var n int64
	if err := tx.Model(&db.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
		return errors.Wrap(err, "get user")
	}
	if n == 0 {
		return notFound("user", userID)
	}
	return nil
}
