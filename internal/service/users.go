package service

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
)

type (
	// UserView is a user as seen by a viewer; IsSubscribed is false for
	// anonymous viewers and for the viewer themselves.
	UserView struct {
		User         db.User
		IsSubscribed bool
	}

	Users struct {
		db     *gorm.DB
		logger *zap.SugaredLogger
	}
)

func NewUsers(db *gorm.DB, l *zap.SugaredLogger) *Users {
	return &Users{
		db:     db,
		logger: l,
	}
}

func (s *Users) List(ctx context.Context, viewerID uint64) ([]UserView, error) {
	users := make([]db.User, 0)
	if err := s.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	return s.views(ctx, viewerID, users)
}

func (s *Users) Get(ctx context.Context, viewerID, userID uint64) (*UserView, error) {
	user := db.User{}
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user", userID)
		}
		return nil, errors.Wrap(err, "get user")
	}

	views, err := s.views(ctx, viewerID, []db.User{user})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *Users) views(ctx context.Context, viewerID uint64, users []db.User) ([]UserView, error) {
	views := make([]UserView, len(users))
	for i := range users {
		views[i].User = users[i]
	}
	if viewerID == 0 || len(users) == 0 {
		return views, nil
	}

	ids := make([]uint64, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}
	followed, err := pluckSet(s.db.WithContext(ctx).Model(&db.Subscription{}).
		Where("user_id = ? AND author_id IN ?", viewerID, ids), "author_id")
	if err != nil {
		return nil, errors.Wrap(err, "get subscriptions")
	}

	for i := range views {
		_, views[i].IsSubscribed = followed[views[i].User.ID]
	}
	return views, nil
}
