package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/scentboard/scentboard/internal/models"
	"gorm.io/gorm"
)

type SavedRepository struct {
	db *gorm.DB
}

func NewSavedRepository(db *gorm.DB) *SavedRepository {
	return &SavedRepository{db: db}
}

func (r *SavedRepository) Save(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	created, err := insertIgnore(ctx, r.db, &models.SavedPost{PostID: postID, UserID: userID})
	if err != nil && err != ErrForeignKey {
		return false, fmt.Errorf("failed to save post: %w", err)
	}
	return created, err
}

func (r *SavedRepository) Unsave(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.SavedPost{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to unsave post: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *SavedRepository) IsSaved(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	return exists(ctx, r.db, &models.SavedPost{}, "post_id = ? AND user_id = ?", postID, userID)
}

func (r *SavedRepository) SavedBy(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	return memberSet(ctx, r.db, &models.SavedPost{}, "post_id", userID, postIDs)
}
