package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/scentboard/scentboard/internal/models"
	"github.com/scentboard/scentboard/internal/repository"
	"github.com/scentboard/scentboard/pkg/logger"
	"github.com/scentboard/scentboard/pkg/queue"
	"github.com/sirupsen/logrus"
)

// InteractionService is the ledger of likes and saves. Every write is
// idempotent: repeating a like or save leaves a single row behind, and
// removing a missing one is a no-op.
type InteractionService struct {
	postRepo    *repository.PostRepository
	commentRepo *repository.CommentRepository
	likeRepo    *repository.LikeRepository
	savedRepo   *repository.SavedRepository
	notifier    *NotificationService
	producer    queue.Publisher
	pages       Paginator
	logger      *logger.Logger
}

func NewInteractionService(
	postRepo *repository.PostRepository,
	commentRepo *repository.CommentRepository,
	likeRepo *repository.LikeRepository,
	savedRepo *repository.SavedRepository,
	notifier *NotificationService,
	producer queue.Publisher,
	pages Paginator,
	logger *logger.Logger,
) *InteractionService {
	return &InteractionService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		likeRepo:    likeRepo,
		savedRepo:   savedRepo,
		notifier:    notifier,
		producer:    producer,
		pages:       pages,
		logger:      logger,
	}
}

func parseKind(kind string) (models.SubjectKind, error) {
	k := models.SubjectKind(kind)
	if !k.Valid() {
		return "", invalidField("kind", "must be one of: post comment")
	}
	return k, nil
}

func (s *InteractionService) Like(ctx context.Context, kind, subjectID, userID string) error {
	k, err := parseKind(kind)
	if err != nil {
		return err
	}
	subject, err := parseID("subject_id", subjectID)
	if err != nil {
		return err
	}
	uid, err := parseID("user_id", userID)
	if err != nil {
		return err
	}

	if k == models.SubjectPost {
		return s.likePost(ctx, subject, uid)
	}
	return s.likeComment(ctx, subject, uid)
}

func (s *InteractionService) likePost(ctx context.Context, postID, userID uuid.UUID) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return notFound("post")
	}

	created, err := s.likeRepo.LikePost(ctx, postID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return notFound("post or user")
		}
		return err
	}
	if !created {
		return nil
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, EmitRequest{
			Type:        models.NotificationLike,
			RecipientID: post.UserID,
			ActorID:     userID,
			PostID:      &post.ID,
			Content: models.NotificationContent{
				Action:    "liked your post",
				PostTitle: postTitle(post),
			},
			Dedupe: true,
		})
	}

	publish(ctx, s.producer, s.logger, postID.String(), queue.EventLikeCreated, queue.LikeEventData{
		UserID: userID.String(),
		PostID: postID.String(),
	})

	s.logger.WithFields(logrus.Fields{
		"post_id": postID,
		"user_id": userID,
	}).Info("Post liked successfully")
	return nil
}

func (s *InteractionService) likeComment(ctx context.Context, commentID, userID uuid.UUID) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment == nil {
		return notFound("comment")
	}

	created, err := s.likeRepo.LikeComment(ctx, commentID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return notFound("comment or user")
		}
		return err
	}
	if !created {
		return nil
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, EmitRequest{
			Type:        models.NotificationLike,
			RecipientID: comment.UserID,
			ActorID:     userID,
			PostID:      &comment.PostID,
			CommentID:   &comment.ID,
			Content: models.NotificationContent{
				Action:         "liked your comment",
				CommentExcerpt: excerpt(comment.Text, s.notifier.excerptLength()),
			},
			Dedupe: true,
		})
	}

	publish(ctx, s.producer, s.logger, comment.PostID.String(), queue.EventLikeCreated, queue.LikeEventData{
		UserID:    userID.String(),
		CommentID: commentID.String(),
	})

	s.logger.WithFields(logrus.Fields{
		"comment_id": commentID,
		"user_id":    userID,
	}).Info("Comment liked successfully")
	return nil
}

func (s *InteractionService) Unlike(ctx context.Context, kind, subjectID, userID string) error {
	k, err := parseKind(kind)
	if err != nil {
		return err
	}
	subject, err := parseID("subject_id", subjectID)
	if err != nil {
		return err
	}
	uid, err := parseID("user_id", userID)
	if err != nil {
		return err
	}

	var (
		removed bool
		event   = queue.LikeEventData{UserID: uid.String()}
	)
	if k == models.SubjectPost {
		removed, err = s.likeRepo.UnlikePost(ctx, subject, uid)
		event.PostID = subject.String()
	} else {
		removed, err = s.likeRepo.UnlikeComment(ctx, subject, uid)
		event.CommentID = subject.String()
	}
	if err != nil {
		return err
	}
	if !removed {
		return nil
	}

	publish(ctx, s.producer, s.logger, subject.String(), queue.EventLikeDeleted, event)
	s.logger.WithFields(logrus.Fields{
		"kind":       k,
		"subject_id": subject,
		"user_id":    uid,
	}).Info("Like removed successfully")
	return nil
}

func (s *InteractionService) IsLiked(ctx context.Context, kind, subjectID, userID string) (bool, error) {
	k, err := parseKind(kind)
	if err != nil {
		return false, err
	}
	subject, err := parseID("subject_id", subjectID)
	if err != nil {
		return false, err
	}
	uid, err := parseID("user_id", userID)
	if err != nil {
		return false, err
	}
	if k == models.SubjectPost {
		return s.likeRepo.IsPostLiked(ctx, subject, uid)
	}
	return s.likeRepo.IsCommentLiked(ctx, subject, uid)
}

func (s *InteractionService) Save(ctx context.Context, postID, userID string) error {
	pid, err := parseID("post_id", postID)
	if err != nil {
		return err
	}
	uid, err := parseID("user_id", userID)
	if err != nil {
		return err
	}

	owner, err := s.postRepo.GetOwner(ctx, pid)
	if err != nil {
		return err
	}
	if owner == uuid.Nil {
		return notFound("post")
	}

	created, err := s.savedRepo.Save(ctx, pid, uid)
	if err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return notFound("post or user")
		}
		return err
	}
	if created {
		s.logger.WithFields(logrus.Fields{
			"post_id": pid,
			"user_id": uid,
		}).Info("Post saved successfully")
	}
	return nil
}

func (s *InteractionService) Unsave(ctx context.Context, postID, userID string) error {
	pid, err := parseID("post_id", postID)
	if err != nil {
		return err
	}
	uid, err := parseID("user_id", userID)
	if err != nil {
		return err
	}
	_, err = s.savedRepo.Unsave(ctx, pid, uid)
	return err
}

func (s *InteractionService) IsSaved(ctx context.Context, postID, userID string) (bool, error) {
	pid, err := parseID("post_id", postID)
	if err != nil {
		return false, err
	}
	uid, err := parseID("user_id", userID)
	if err != nil {
		return false, err
	}
	return s.savedRepo.IsSaved(ctx, pid, uid)
}

// ListLikers returns the users who liked a post, most recent like first.
func (s *InteractionService) ListLikers(ctx context.Context, postID string, page PageRequest) (Page[models.User], error) {
	pid, err := parseID("post_id", postID)
	if err != nil {
		return Page[models.User]{}, err
	}
	owner, err := s.postRepo.GetOwner(ctx, pid)
	if err != nil {
		return Page[models.User]{}, err
	}
	if owner == uuid.Nil {
		return Page[models.User]{}, notFound("post")
	}

	page = s.pages.Normalize(page)
	users, total, err := s.likeRepo.ListPostLikers(ctx, pid, page.Offset(), page.PageSize)
	if err != nil {
		return Page[models.User]{}, err
	}
	return NewPage(users, total, page), nil
}
