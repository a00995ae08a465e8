package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/scentboard/scentboard/internal/config"
	"github.com/scentboard/scentboard/internal/models"
	"github.com/scentboard/scentboard/internal/repository"
	"github.com/scentboard/scentboard/pkg/cache"
	"github.com/scentboard/scentboard/pkg/logger"
	"github.com/sirupsen/logrus"
)

type NotificationService struct {
	repo   *repository.NotificationRepository
	cache  Cache
	pages  Paginator
	cfg    config.NotificationConfig
	logger *logger.Logger
}

func NewNotificationService(repo *repository.NotificationRepository, cache Cache, pages Paginator, cfg config.NotificationConfig, logger *logger.Logger) *NotificationService {
	return &NotificationService{
		repo:   repo,
		cache:  cache,
		pages:  pages,
		cfg:    cfg,
		logger: logger,
	}
}

type EmitRequest struct {
	Type        models.NotificationType
	RecipientID uuid.UUID
	ActorID     uuid.UUID
	PostID      *uuid.UUID
	CommentID   *uuid.UUID
	Content     models.NotificationContent
	// Dedupe skips the insert when the recipient already has an identical
	// unread notification.
	Dedupe bool
}

type NotificationListFilter struct {
	Type       string `form:"type"`
	UnreadOnly bool   `form:"unread_only"`
}

// Emit stores a notification. It returns nil, nil when nothing was stored:
// the recipient is the actor, or Dedupe matched an unread duplicate.
func (s *NotificationService) Emit(ctx context.Context, req EmitRequest) (*models.Notification, error) {
	fields := logrus.Fields{
		"type":         req.Type,
		"recipient_id": req.RecipientID,
		"actor_id":     req.ActorID,
	}

	if req.RecipientID == req.ActorID {
		s.logger.WithFields(fields).Debug("Skipping self notification")
		return nil, nil
	}
	if !req.Type.Valid() {
		return nil, invalidField("type", "unknown notification type")
	}

	if req.Dedupe {
		dup, err := s.repo.HasUnread(ctx, repository.NotificationKey{
			RecipientID: req.RecipientID,
			ActorID:     req.ActorID,
			Type:        req.Type,
			PostID:      req.PostID,
			CommentID:   req.CommentID,
		})
		if err != nil {
			return nil, err
		}
		if dup {
			s.logger.WithFields(fields).Debug("Skipping duplicate notification")
			return nil, nil
		}
	}

	content := req.Content
	content.Type = req.Type
	raw, err := models.EncodeContent(content)
	if err != nil {
		return nil, fmt.Errorf("failed to encode notification content: %w", err)
	}

	n := &models.Notification{
		RecipientID: req.RecipientID,
		ActorID:     req.ActorID,
		Type:        req.Type,
		PostID:      req.PostID,
		CommentID:   req.CommentID,
		Content:     raw,
		Payload:     content,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	s.invalidateUnread(ctx, req.RecipientID)
	s.logger.WithFields(fields).WithField("notification_id", n.ID).Info("Notification created")
	return n, nil
}

// Notify is Emit for side effects of another mutation: errors are logged and
// swallowed so the triggering operation never fails because of them.
func (s *NotificationService) Notify(ctx context.Context, req EmitRequest) {
	if _, err := s.Emit(ctx, req); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"type":         req.Type,
			"recipient_id": req.RecipientID,
		}).Error("Failed to emit notification")
	}
}

func (s *NotificationService) ListForUser(ctx context.Context, userID string, filter NotificationListFilter, page PageRequest) (Page[*models.Notification], error) {
	uid, err := parseID("user_id", userID)
	if err != nil {
		return Page[*models.Notification]{}, err
	}

	var repoFilter repository.NotificationFilter
	if filter.Type != "" {
		t := models.NotificationType(filter.Type)
		if !t.Valid() {
			return Page[*models.Notification]{}, invalidField("type", "must be one of: follow like comment mention")
		}
		repoFilter.Type = &t
	}
	repoFilter.UnreadOnly = filter.UnreadOnly

	page = s.pages.Normalize(page)
	items, total, err := s.repo.List(ctx, uid, repoFilter, page.Offset(), page.PageSize)
	if err != nil {
		return Page[*models.Notification]{}, err
	}

	for _, n := range items {
		s.decode(n)
	}
	return NewPage(items, total, page), nil
}

// decode fills Payload and falls back to an empty payload on bad content.
func (s *NotificationService) decode(n *models.Notification) {
	content, err := n.DecodeContent()
	if err != nil {
		s.logger.WithError(err).WithField("notification_id", n.ID).Warn("Unreadable notification content")
		n.Payload = models.NotificationContent{}
		return
	}
	n.Payload = content
}

// MarkRead marks the caller's notifications read. If any id belongs to another
// user nothing is changed and ErrForbidden is returned. Unknown ids are
// ignored and already-read ones are left alone.
func (s *NotificationService) MarkRead(ctx context.Context, userID string, notificationIDs []string) (int64, error) {
	uid, err := parseID("user_id", userID)
	if err != nil {
		return 0, err
	}
	if len(notificationIDs) == 0 {
		return 0, invalidField("ids", "is required")
	}

	ids := make([]uuid.UUID, 0, len(notificationIDs))
	for _, raw := range notificationIDs {
		id, err := parseID("ids", raw)
		if err != nil {
			return 0, err
		}
		ids = append(ids, id)
	}

	owners, err := s.repo.Recipients(ctx, ids)
	if err != nil {
		return 0, err
	}
	for id, owner := range owners {
		if owner != uid {
			return 0, fmt.Errorf("notification %s: %w", id, ErrForbidden)
		}
	}

	changed, err := s.repo.MarkRead(ctx, uid, ids)
	if err != nil {
		return 0, err
	}
	if changed > 0 {
		s.invalidateUnread(ctx, uid)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": uid,
		"changed": changed,
	}).Info("Notifications marked read")
	return changed, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	uid, err := parseID("user_id", userID)
	if err != nil {
		return 0, err
	}

	changed, err := s.repo.MarkAllRead(ctx, uid)
	if err != nil {
		return 0, err
	}
	if changed > 0 {
		s.invalidateUnread(ctx, uid)
	}
	return changed, nil
}

// Delete removes one of the caller's notifications.
func (s *NotificationService) Delete(ctx context.Context, userID, notificationID string) error {
	uid, err := parseID("user_id", userID)
	if err != nil {
		return err
	}
	id, err := parseID("notification_id", notificationID)
	if err != nil {
		return err
	}

	owners, err := s.repo.Recipients(ctx, []uuid.UUID{id})
	if err != nil {
		return err
	}
	owner, ok := owners[id]
	if !ok {
		return notFound("notification")
	}
	if owner != uid {
		return ErrForbidden
	}

	if _, err := s.repo.Delete(ctx, id, uid); err != nil {
		return err
	}
	s.invalidateUnread(ctx, uid)
	return nil
}

// UnreadCount is cache-aside: writes delete the key, so a read racing a write
// can store a stale count that lives until UnreadCacheTTL expires.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	uid, err := parseID("user_id", userID)
	if err != nil {
		return 0, err
	}

	key := unreadKey(uid)
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			if n, perr := strconv.ParseInt(cached, 10, 64); perr == nil {
				return n, nil
			}
		case !errors.Is(err, cache.ErrMiss):
			s.logger.WithError(err).Warn("Failed to read unread count from cache")
		}
	}

	count, err := s.repo.CountUnread(ctx, uid)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, count, s.cfg.UnreadCacheTTL); err != nil {
			s.logger.WithError(err).Warn("Failed to cache unread count")
		}
	}
	return count, nil
}

func (s *NotificationService) invalidateUnread(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, unreadKey(userID)); err != nil {
		s.logger.WithError(err).Warn("Failed to invalidate unread count")
	}
}

func unreadKey(userID uuid.UUID) string {
	return "notifications:unread:" + userID.String()
}

func (s *NotificationService) excerptLength() int {
	if s.cfg.ExcerptLength <= 0 {
		return 120
	}
	return s.cfg.ExcerptLength
}

func (s *NotificationService) maxMentions() int {
	if s.cfg.MaxMentions <= 0 {
		return 10
	}
	return s.cfg.MaxMentions
}
