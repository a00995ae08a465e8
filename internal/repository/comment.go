package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/scentboard/scentboard/internal/models"
	"gorm.io/gorm"
)

type CommentSort string

const (
	CommentSortCreated CommentSort = "created_at"
	CommentSortLikes   CommentSort = "likes"
)

type CommentOrder struct {
	Sort CommentSort
	Desc bool
}

func (o CommentOrder) clauses() []string {
	dir := "ASC"
	if o.Desc {
		dir = "DESC"
	}
	if o.Sort == CommentSortLikes {
		return []string{
			"(SELECT COUNT(*) FROM comment_likes WHERE comment_likes.comment_id = comments.id) " + dir,
			"comments.created_at " + dir,
			"comments.id " + dir,
		}
	}
	return []string{"comments.created_at " + dir, "comments.id " + dir}
}

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Omit("Author", "Post", "Parent").Create(comment).Error; err != nil {
		if terr := translate(err); terr == ErrForeignKey {
			return terr
		}
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (r *CommentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).
		Preload("Author").
		First(&comment, "comments.id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &comment, nil
}

// GetParentID returns the parent of id and whether the comment exists.
func (r *CommentRepository) GetParentID(ctx context.Context, id uuid.UUID) (*uuid.UUID, bool, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).
		Select("id", "parent_id").
		First(&comment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get comment parent: %w", err)
	}
	return comment.ParentID, true, nil
}

func (r *CommentRepository) UpdateText(ctx context.Context, comment *models.Comment, text string) error {
	if err := r.db.WithContext(ctx).
		Model(comment).
		Select("text", "updated_at").
		Updates(map[string]interface{}{"text": text}).Error; err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	comment.Text = text
	return nil
}

// Delete removes the comment only while it has no replies, and reports
// whether a row was removed.
func (r *CommentRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	replies := r.db.Model(&models.Comment{}).Select("1").Where("parent_id = ?", id)
	res := r.db.WithContext(ctx).
		Where("id = ?", id).
		Where("NOT EXISTS (?)", replies).
		Delete(&models.Comment{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete comment: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *CommentRepository) CountReplies(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("parent_id = ?", id).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count replies: %w", err)
	}
	return count, nil
}

func (r *CommentRepository) ListTopLevel(ctx context.Context, postID uuid.UUID, order CommentOrder, offset, limit int) ([]*models.Comment, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("comments.post_id = ? AND comments.parent_id IS NULL", postID)
	return r.list(query, order, offset, limit)
}

func (r *CommentRepository) ListReplies(ctx context.Context, parentID uuid.UUID, order CommentOrder, offset, limit int) ([]*models.Comment, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("comments.parent_id = ?", parentID)
	return r.list(query, order, offset, limit)
}

func (r *CommentRepository) list(query *gorm.DB, order CommentOrder, offset, limit int) ([]*models.Comment, int64, error) {
	var comments []*models.Comment
	total, err := paginate(query, offset, limit, &comments,
		orderBy(order.clauses()...),
		func(db *gorm.DB) *gorm.DB { return db.Preload("Author") })
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, total, nil
}

// ReplyCounts returns the number of direct replies for each comment id.
func (r *CommentRepository) ReplyCounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	return countBy(ctx, r.db, &models.Comment{}, "parent_id", ids)
}

// CountsByPost returns the number of comments, replies included, per post.
func (r *CommentRepository) CountsByPost(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	return countBy(ctx, r.db, &models.Comment{}, "post_id", postIDs)
}
