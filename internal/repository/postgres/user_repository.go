package postgres

import (
	"context"
	"fmt"
	"time"

	"vidShare/business/precompute"
	"vidShare/business/recommender"
	"vidShare/domain"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

var (
	_ recommender.UserRepository = (*UserRepository)(nil)
	_ precompute.UserSource      = (*UserRepository)(nil)
)

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		DB: db,
	}
}

func (r *UserRepository) UserExists(ctx context.Context, userID uint) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context error: %w", err)
	}

	var n int64
	if err := r.DB.WithContext(ctx).Model(&domain.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return n > 0, nil
}

func (r *UserRepository) SubscribedCreatorIDs(ctx context.Context, userID uint) ([]uint, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var ids []uint
	err := r.DB.WithContext(ctx).Model(&domain.Subscription{}).
		Where("subscriber_id = ?", userID).
		Pluck("creator_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	return ids, nil
}

// ActiveUserIDs lists users who logged in at or after since.
func (r *UserRepository) ActiveUserIDs(ctx context.Context, since time.Time) ([]uint, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var ids []uint
	err := r.DB.WithContext(ctx).Model(&domain.User{}).
		Where("last_login >= ?", since).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query active users: %w", err)
	}
	return ids, nil
}
