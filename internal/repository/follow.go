package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/scentboard/scentboard/internal/models"
	"gorm.io/gorm"
)

type FollowRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) *FollowRepository {
	return &FollowRepository{db: db}
}

// Create inserts the edge. The unique pair index decides races: a second
// insert returns ErrDuplicate, a self edge ErrCheckViolation, a missing user
// ErrForeignKey.
func (r *FollowRepository) Create(ctx context.Context, follow *models.Follow) error {
	if err := r.db.WithContext(ctx).Omit("Follower", "Following").Create(follow).Error; err != nil {
		if terr := translate(err); terr != err {
			return terr
		}
		return fmt.Errorf("failed to create follow: %w", err)
	}
	return nil
}

// Delete reports whether an edge was removed.
func (r *FollowRepository) Delete(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete follow: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *FollowRepository) Exists(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check follow status: %w", err)
	}
	return count > 0, nil
}

// ListFollowers returns users following userID, most recent edge first.
func (r *FollowRepository) ListFollowers(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.User, int64, error) {
	return r.listUsers(ctx, "follows.follower_id", "follows.following_id", userID, offset, limit)
}

// ListFollowing returns users that userID follows, most recent edge first.
func (r *FollowRepository) ListFollowing(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.User, int64, error) {
	return r.listUsers(ctx, "follows.following_id", "follows.follower_id", userID, offset, limit)
}

func (r *FollowRepository) listUsers(ctx context.Context, joinColumn, filterColumn string, userID uuid.UUID, offset, limit int) ([]models.User, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN follows ON "+joinColumn+" = users.id").
		Where(filterColumn+" = ?", userID)

	var users []models.User
	total, err := paginate(query, offset, limit, &users,
		orderBy("follows.created_at DESC", "users.id ASC"))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list follow edges: %w", err)
	}
	return users, total, nil
}

func (r *FollowRepository) CountFollowers(ctx context.Context, userID uuid.UUID) (int64, error) {
	return r.count(ctx, "following_id = ?", userID)
}

func (r *FollowRepository) CountFollowing(ctx context.Context, userID uuid.UUID) (int64, error) {
	return r.count(ctx, "follower_id = ?", userID)
}

func (r *FollowRepository) count(ctx context.Context, query string, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where(query, userID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count follows: %w", err)
	}
	return count, nil
}

// FollowingSubquery selects the ids userID follows, for use inside IN clauses.
func (r *FollowRepository) FollowingSubquery(ctx context.Context, userID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Select("following_id").
		Where("follower_id = ?", userID)
}
