package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/scentboard/scentboard/internal/models"
	"github.com/scentboard/scentboard/internal/repository"
	"github.com/scentboard/scentboard/pkg/logger"
	"github.com/scentboard/scentboard/pkg/queue"
	"github.com/sirupsen/logrus"
)

// maxAncestry bounds the parent walk in checkAncestry.
const maxAncestry = 1000

type CommentService struct {
	postRepo    *repository.PostRepository
	commentRepo *repository.CommentRepository
	userRepo    *repository.UserRepository
	likeRepo    *repository.LikeRepository
	notifier    *NotificationService
	producer    queue.Publisher
	pages       Paginator
	logger      *logger.Logger
}

func NewCommentService(
	postRepo *repository.PostRepository,
	commentRepo *repository.CommentRepository,
	userRepo *repository.UserRepository,
	likeRepo *repository.LikeRepository,
	notifier *NotificationService,
	producer queue.Publisher,
	pages Paginator,
	logger *logger.Logger,
) *CommentService {
	return &CommentService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		userRepo:    userRepo,
		likeRepo:    likeRepo,
		notifier:    notifier,
		producer:    producer,
		pages:       pages,
		logger:      logger,
	}
}

type AddCommentRequest struct {
	Text     string `json:"text"`
	ParentID string `json:"parent_id"`
}

// CommentListOptions selects the ordering of a comment page. Sort is
// created_at (default) or likes; Order is asc (default) or desc.
type CommentListOptions struct {
	Sort  string `form:"sort"`
	Order string `form:"order"`
}

func (o CommentListOptions) order() (repository.CommentOrder, error) {
	var order repository.CommentOrder
	switch strings.ToLower(o.Sort) {
	case "", "created_at":
		order.Sort = repository.CommentSortCreated
	case "likes":
		order.Sort = repository.CommentSortLikes
	default:
		return order, invalidField("sort", "must be one of: created_at likes")
	}
	switch strings.ToLower(o.Order) {
	case "", "asc":
	case "desc":
		order.Desc = true
	default:
		return order, invalidField("order", "must be one of: asc desc")
	}
	return order, nil
}

func commentText(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", invalidField("text", "is required")
	}
	if utf8.RuneCountInString(text) > models.MaxCommentLength {
		return "", invalidField("text", fmt.Sprintf("must be at most %d characters", models.MaxCommentLength))
	}
	return text, nil
}

func (s *CommentService) AddComment(ctx context.Context, postID, authorID string, req *AddCommentRequest) (*models.Comment, error) {
	pid, err := parseID("post_id", postID)
	if err != nil {
		return nil, err
	}
	author, err := parseID("author_id", authorID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, invalidField("text", "is required")
	}
	text, err := commentText(req.Text)
	if err != nil {
		return nil, err
	}

	post, err := s.postRepo.GetByID(ctx, pid)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, notFound("post")
	}

	var parent *models.Comment
	if req.ParentID != "" {
		parentID, err := parseID("parent_id", req.ParentID)
		if err != nil {
			return nil, err
		}
		parent, err = s.commentRepo.GetByID(ctx, parentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, notFound("parent comment")
		}
		if parent.PostID != pid {
			return nil, fmt.Errorf("parent comment belongs to another post: %w", ErrInvalidOperation)
		}
		if err := s.checkAncestry(ctx, parent.ID); err != nil {
			return nil, err
		}
	}

	comment := &models.Comment{
		PostID: pid,
		UserID: author,
		Text:   text,
	}
	if parent != nil {
		comment.ParentID = &parent.ID
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return nil, notFound("post, parent or author")
		}
		return nil, err
	}

	s.notifyComment(ctx, post, parent, comment)

	event := queue.CommentEventData{
		CommentID: comment.ID.String(),
		UserID:    author.String(),
		PostID:    pid.String(),
	}
	if parent != nil {
		event.ParentID = parent.ID.String()
	}
	publish(ctx, s.producer, s.logger, pid.String(), queue.EventCommentCreated, event)

	s.logger.WithFields(logrus.Fields{
		"comment_id": comment.ID,
		"post_id":    pid,
		"user_id":    author,
	}).Info("Comment created successfully")

	return s.GetComment(ctx, comment.ID.String(), authorID)
}

// checkAncestry walks up from id and fails if the chain loops back on
// itself or runs deeper than maxAncestry.
func (s *CommentService) checkAncestry(ctx context.Context, id uuid.UUID) error {
	visited := map[uuid.UUID]bool{}
	current := &id
	for depth := 0; current != nil; depth++ {
		if visited[*current] {
			return fmt.Errorf("comment ancestry contains a cycle: %w", ErrInvalidOperation)
		}
		if depth > maxAncestry {
			return fmt.Errorf("comment ancestry deeper than %d: %w", maxAncestry, ErrInvalidOperation)
		}
		visited[*current] = true

		parent, ok, err := s.commentRepo.GetParentID(ctx, *current)
		if err != nil {
			return err
		}
		if !ok {
			return notFound("parent comment")
		}
		current = parent
	}
	return nil
}

// notifyComment sends at most one notification per recipient: the post
// author first, then the parent author, then any mentioned users.
func (s *CommentService) notifyComment(ctx context.Context, post *models.Post, parent, comment *models.Comment) {
	if s.notifier == nil {
		return
	}

	notified := map[uuid.UUID]bool{comment.UserID: true}
	base := models.NotificationContent{
		PostTitle:      postTitle(post),
		CommentExcerpt: excerpt(comment.Text, s.notifier.excerptLength()),
	}
	send := func(recipient uuid.UUID, t models.NotificationType, action string) {
		if notified[recipient] {
			return
		}
		notified[recipient] = true
		content := base
		content.Action = action
		s.notifier.Notify(ctx, EmitRequest{
			Type:        t,
			RecipientID: recipient,
			ActorID:     comment.UserID,
			PostID:      &post.ID,
			CommentID:   &comment.ID,
			Content:     content,
		})
	}

	send(post.UserID, models.NotificationComment, "commented on your post")
	if parent != nil {
		send(parent.UserID, models.NotificationMention, "replied to your comment")
	}

	names := mentions(comment.Text, s.notifier.maxMentions())
	if len(names) == 0 {
		return
	}
	users, err := s.userRepo.GetByUsernames(ctx, names)
	if err != nil {
		s.logger.WithError(err).Error("Failed to resolve mentioned users")
		return
	}
	byName := make(map[string]uuid.UUID, len(users))
	for _, u := range users {
		byName[u.Username] = u.ID
	}
	for _, name := range names {
		if id, ok := byName[name]; ok {
			send(id, models.NotificationMention, "mentioned you in a comment")
		}
	}
}

func (s *CommentService) GetComment(ctx context.Context, commentID, viewerID string) (*models.Comment, error) {
	id, err := parseID("comment_id", commentID)
	if err != nil {
		return nil, err
	}
	viewer, err := parseOptionalID("viewer_id", viewerID)
	if err != nil {
		return nil, err
	}

	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, notFound("comment")
	}
	if err := s.decorate(ctx, viewer, []*models.Comment{comment}); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, commentID, actorID, rawText string) (*models.Comment, error) {
	id, err := parseID("comment_id", commentID)
	if err != nil {
		return nil, err
	}
	actor, err := parseID("actor_id", actorID)
	if err != nil {
		return nil, err
	}
	text, err := commentText(rawText)
	if err != nil {
		return nil, err
	}

	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, notFound("comment")
	}
	if comment.UserID != actor {
		return nil, ErrForbidden
	}

	if err := s.commentRepo.UpdateText(ctx, comment, text); err != nil {
		return nil, err
	}

	s.logger.WithField("comment_id", id).Info("Comment updated successfully")
	if err := s.decorate(ctx, actor, []*models.Comment{comment}); err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment removes a comment that has no replies. A comment with
// replies cannot be deleted and yields ErrConflict.
func (s *CommentService) DeleteComment(ctx context.Context, commentID, actorID string) error {
	id, err := parseID("comment_id", commentID)
	if err != nil {
		return err
	}
	actor, err := parseID("actor_id", actorID)
	if err != nil {
		return err
	}

	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if comment == nil {
		return notFound("comment")
	}
	if comment.UserID != actor {
		return ErrForbidden
	}

	removed, err := s.commentRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("comment has replies: %w", ErrConflict)
	}

	event := queue.CommentEventData{
		CommentID: id.String(),
		UserID:    actor.String(),
		PostID:    comment.PostID.String(),
	}
	if comment.ParentID != nil {
		event.ParentID = comment.ParentID.String()
	}
	publish(ctx, s.producer, s.logger, comment.PostID.String(), queue.EventCommentDeleted, event)

	s.logger.WithField("comment_id", id).Info("Comment deleted successfully")
	return nil
}

// ListTopLevel returns the root comments of a post.
func (s *CommentService) ListTopLevel(ctx context.Context, postID, viewerID string, opts CommentListOptions, page PageRequest) (Page[*models.Comment], error) {
	pid, err := parseID("post_id", postID)
	if err != nil {
		return Page[*models.Comment]{}, err
	}
	owner, err := s.postRepo.GetOwner(ctx, pid)
	if err != nil {
		return Page[*models.Comment]{}, err
	}
	if owner == uuid.Nil {
		return Page[*models.Comment]{}, notFound("post")
	}
	return s.list(ctx, pid, viewerID, opts, page, s.commentRepo.ListTopLevel)
}

// ListReplies returns the direct replies to a comment.
func (s *CommentService) ListReplies(ctx context.Context, commentID, viewerID string, opts CommentListOptions, page PageRequest) (Page[*models.Comment], error) {
	cid, err := parseID("comment_id", commentID)
	if err != nil {
		return Page[*models.Comment]{}, err
	}
	_, ok, err := s.commentRepo.GetParentID(ctx, cid)
	if err != nil {
		return Page[*models.Comment]{}, err
	}
	if !ok {
		return Page[*models.Comment]{}, notFound("comment")
	}
	return s.list(ctx, cid, viewerID, opts, page, s.commentRepo.ListReplies)
}

func (s *CommentService) list(
	ctx context.Context,
	id uuid.UUID,
	viewerID string,
	opts CommentListOptions,
	page PageRequest,
	fetch func(context.Context, uuid.UUID, repository.CommentOrder, int, int) ([]*models.Comment, int64, error),
) (Page[*models.Comment], error) {
	viewer, err := parseOptionalID("viewer_id", viewerID)
	if err != nil {
		return Page[*models.Comment]{}, err
	}
	order, err := opts.order()
	if err != nil {
		return Page[*models.Comment]{}, err
	}

	page = s.pages.Normalize(page)
	comments, total, err := fetch(ctx, id, order, page.Offset(), page.PageSize)
	if err != nil {
		return Page[*models.Comment]{}, err
	}
	if err := s.decorate(ctx, viewer, comments); err != nil {
		return Page[*models.Comment]{}, err
	}
	return NewPage(comments, total, page), nil
}

func (s *CommentService) decorate(ctx context.Context, viewer uuid.UUID, comments []*models.Comment) error {
	if len(comments) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}

	likes, err := s.likeRepo.CommentLikeCounts(ctx, ids)
	if err != nil {
		return err
	}
	replies, err := s.commentRepo.ReplyCounts(ctx, ids)
	if err != nil {
		return err
	}
	var liked map[uuid.UUID]bool
	if viewer != uuid.Nil {
		if liked, err = s.likeRepo.CommentsLikedBy(ctx, viewer, ids); err != nil {
			return err
		}
	}

	for _, c := range comments {
		c.LikesCount = likes[c.ID]
		c.RepliesCount = replies[c.ID]
		c.IsLiked = liked[c.ID]
		own := viewer != uuid.Nil && c.UserID == viewer
		c.CanEdit = own
		c.CanDelete = own
	}
	return nil
}
