package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/scentboard/scentboard/internal/models"
	"gorm.io/gorm"
)

type NotificationFilter struct {
	Type       *models.NotificationType
	UnreadOnly bool
}

// NotificationKey identifies "the same" notification for de-duplication.
type NotificationKey struct {
	RecipientID uuid.UUID
	ActorID     uuid.UUID
	Type        models.NotificationType
	PostID      *uuid.UUID
	CommentID   *uuid.UUID
}

type notificationOwner struct {
	ID          uuid.UUID
	RecipientID uuid.UUID
}

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if err := r.db.WithContext(ctx).
		Omit("Recipient", "Actor", "Post", "Comment").
		Create(n).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// HasUnread reports whether an unread notification with the same key exists.
func (r *NotificationRepository) HasUnread(ctx context.Context, key NotificationKey) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND actor_id = ? AND type = ? AND read = ?",
			key.RecipientID, key.ActorID, key.Type, false)

	if key.PostID != nil {
		query = query.Where("post_id = ?", *key.PostID)
	} else {
		query = query.Where("post_id IS NULL")
	}
	if key.CommentID != nil {
		query = query.Where("comment_id = ?", *key.CommentID)
	} else {
		query = query.Where("comment_id IS NULL")
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check notification: %w", err)
	}
	return count > 0, nil
}

func (r *NotificationRepository) List(ctx context.Context, recipientID uuid.UUID, filter NotificationFilter, offset, limit int) ([]*models.Notification, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ?", recipientID)
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.UnreadOnly {
		query = query.Where("read = ?", false)
	}

	var items []*models.Notification
	total, err := paginate(query, offset, limit, &items,
		orderBy("created_at DESC", "id DESC"),
		func(db *gorm.DB) *gorm.DB { return db.Preload("Actor") })
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return items, total, nil
}

// Recipients maps each existing id to its recipient.
func (r *NotificationRepository) Recipients(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	owners := make(map[uuid.UUID]uuid.UUID, len(ids))
	if len(ids) == 0 {
		return owners, nil
	}

	var rows []notificationOwner
	if err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Select("id", "recipient_id").
		Where("id IN ?", ids).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load notification owners: %w", err)
	}
	for _, row := range rows {
		owners[row.ID] = row.RecipientID
	}
	return owners, nil
}

// MarkRead flips unread rows among ids owned by recipientID and returns how
// many changed.
func (r *NotificationRepository) MarkRead(ctx context.Context, recipientID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id IN ? AND recipient_id = ? AND read = ?", ids, recipientID, false).
		Update("read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Update("read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark all notifications read: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *NotificationRepository) Delete(ctx context.Context, id, recipientID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Delete(&models.Notification{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete notification: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}
