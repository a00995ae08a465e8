package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/scentboard/scentboard/internal/models"
	"github.com/scentboard/scentboard/internal/repository"
	"github.com/scentboard/scentboard/pkg/logger"
	"github.com/scentboard/scentboard/pkg/queue"
)

// GraphService owns follow edges between users.
type GraphService struct {
	userRepo   *repository.UserRepository
	followRepo *repository.FollowRepository
	notifier   *NotificationService
	producer   queue.Publisher
	pages      Paginator
	logger     *logger.Logger
}

func NewGraphService(userRepo *repository.UserRepository, followRepo *repository.FollowRepository, notifier *NotificationService, producer queue.Publisher, pages Paginator, logger *logger.Logger) *GraphService {
	return &GraphService{
		userRepo:   userRepo,
		followRepo: followRepo,
		notifier:   notifier,
		producer:   producer,
		pages:      pages,
		logger:     logger,
	}
}

// Follow creates the edge follower -> target. A second call returns
// ErrConflict; callers wanting idempotence can treat that as success.
func (s *GraphService) Follow(ctx context.Context, followerID, targetID string) error {
	follower, err := parseID("follower_id", followerID)
	if err != nil {
		return err
	}
	target, err := parseID("user_id", targetID)
	if err != nil {
		return err
	}
	if follower == target {
		return fmt.Errorf("users cannot follow themselves: %w", ErrInvalidOperation)
	}

	ok, err := s.userRepo.Exists(ctx, target)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("user")
	}

	follow := &models.Follow{FollowerID: follower, FollowingID: target}
	if err := s.followRepo.Create(ctx, follow); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return fmt.Errorf("already following: %w", ErrConflict)
		case errors.Is(err, repository.ErrCheckViolation):
			return ErrInvalidOperation
		case errors.Is(err, repository.ErrForeignKey):
			return notFound("user")
		}
		return err
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, EmitRequest{
			Type:        models.NotificationFollow,
			RecipientID: target,
			ActorID:     follower,
			Content:     models.NotificationContent{Action: "started following you"},
			Dedupe:      true,
		})
	}

	publish(ctx, s.producer, s.logger, follower.String(), queue.EventFollowCreated, queue.FollowEventData{
		FollowerID:  follower.String(),
		FollowingID: target.String(),
	})

	s.logger.WithFields(map[string]interface{}{
		"follower_id":  follower,
		"following_id": target,
	}).Info("User followed successfully")
	return nil
}

// Unfollow is a no-op when the edge does not exist.
func (s *GraphService) Unfollow(ctx context.Context, followerID, targetID string) error {
	follower, err := parseID("follower_id", followerID)
	if err != nil {
		return err
	}
	target, err := parseID("user_id", targetID)
	if err != nil {
		return err
	}

	removed, err := s.followRepo.Delete(ctx, follower, target)
	if err != nil {
		return err
	}
	if !removed {
		return nil
	}

	publish(ctx, s.producer, s.logger, follower.String(), queue.EventFollowDeleted, queue.FollowEventData{
		FollowerID:  follower.String(),
		FollowingID: target.String(),
	})

	s.logger.WithFields(map[string]interface{}{
		"follower_id":  follower,
		"following_id": target,
	}).Info("User unfollowed successfully")
	return nil
}

func (s *GraphService) IsFollowing(ctx context.Context, followerID, targetID string) (bool, error) {
	follower, err := parseID("follower_id", followerID)
	if err != nil {
		return false, err
	}
	target, err := parseID("user_id", targetID)
	if err != nil {
		return false, err
	}
	return s.followRepo.Exists(ctx, follower, target)
}

func (s *GraphService) ListFollowers(ctx context.Context, userID string, page PageRequest) (Page[models.User], error) {
	return s.list(ctx, userID, page, s.followRepo.ListFollowers)
}

func (s *GraphService) ListFollowing(ctx context.Context, userID string, page PageRequest) (Page[models.User], error) {
	return s.list(ctx, userID, page, s.followRepo.ListFollowing)
}

func (s *GraphService) list(ctx context.Context, userID string, page PageRequest, fetch func(context.Context, uuid.UUID, int, int) ([]models.User, int64, error)) (Page[models.User], error) {
	id, err := parseID("user_id", userID)
	if err != nil {
		return Page[models.User]{}, err
	}

	ok, err := s.userRepo.Exists(ctx, id)
	if err != nil {
		return Page[models.User]{}, err
	}
	if !ok {
		return Page[models.User]{}, notFound("user")
	}

	page = s.pages.Normalize(page)
	users, total, err := fetch(ctx, id, page.Offset(), page.PageSize)
	if err != nil {
		return Page[models.User]{}, err
	}
	return NewPage(users, total, page), nil
}
