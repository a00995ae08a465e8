package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/scentboard/scentboard/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LikeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

// insertIgnore runs INSERT ... ON CONFLICT DO NOTHING and reports whether a
// row was actually written.
func insertIgnore(ctx context.Context, db *gorm.DB, value interface{}) (bool, error) {
	res := db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(value)
	if res.Error != nil {
		if terr := translate(res.Error); terr == ErrForeignKey {
			return false, terr
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *LikeRepository) LikePost(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	created, err := insertIgnore(ctx, r.db, &models.PostLike{PostID: postID, UserID: userID})
	if err != nil && err != ErrForeignKey {
		return false, fmt.Errorf("failed to like post: %w", err)
	}
	return created, err
}

func (r *LikeRepository) UnlikePost(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.PostLike{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to unlike post: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *LikeRepository) LikeComment(ctx context.Context, commentID, userID uuid.UUID) (bool, error) {
	created, err := insertIgnore(ctx, r.db, &models.CommentLike{CommentID: commentID, UserID: userID})
	if err != nil && err != ErrForeignKey {
		return false, fmt.Errorf("failed to like comment: %w", err)
	}
	return created, err
}

func (r *LikeRepository) UnlikeComment(ctx context.Context, commentID, userID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("comment_id = ? AND user_id = ?", commentID, userID).
		Delete(&models.CommentLike{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to unlike comment: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *LikeRepository) IsPostLiked(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	return exists(ctx, r.db, &models.PostLike{}, "post_id = ? AND user_id = ?", postID, userID)
}

func (r *LikeRepository) IsCommentLiked(ctx context.Context, commentID, userID uuid.UUID) (bool, error) {
	return exists(ctx, r.db, &models.CommentLike{}, "comment_id = ? AND user_id = ?", commentID, userID)
}

func (r *LikeRepository) PostLikeCounts(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	return countBy(ctx, r.db, &models.PostLike{}, "post_id", postIDs)
}

func (r *LikeRepository) CommentLikeCounts(ctx context.Context, commentIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	return countBy(ctx, r.db, &models.CommentLike{}, "comment_id", commentIDs)
}

// PostsLikedBy reports which of postIDs userID has liked.
func (r *LikeRepository) PostsLikedBy(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	return memberSet(ctx, r.db, &models.PostLike{}, "post_id", userID, postIDs)
}

func (r *LikeRepository) CommentsLikedBy(ctx context.Context, userID uuid.UUID, commentIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	return memberSet(ctx, r.db, &models.CommentLike{}, "comment_id", userID, commentIDs)
}

// ListPostLikers returns users who liked the post, most recent first.
func (r *LikeRepository) ListPostLikers(ctx context.Context, postID uuid.UUID, offset, limit int) ([]models.User, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN post_likes ON post_likes.user_id = users.id").
		Where("post_likes.post_id = ?", postID)

	var users []models.User
	total, err := paginate(query, offset, limit, &users,
		orderBy("post_likes.created_at DESC", "users.id ASC"))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list likers: %w", err)
	}
	return users, total, nil
}

func exists(ctx context.Context, db *gorm.DB, model interface{}, query string, args ...interface{}) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).
		Model(model).
		Where(query, args...).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return count > 0, nil
}
