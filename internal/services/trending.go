package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/scentboard/scentboard/internal/config"
	"github.com/scentboard/scentboard/internal/repository"
	"github.com/scentboard/scentboard/pkg/logger"
	"github.com/scentboard/scentboard/pkg/queue"
)

// TrendingService keeps a sorted set of post scores built from engagement
// events. Reads fall back to the popular ordering when the set is empty.
type TrendingService struct {
	ranks  RankStore
	posts  *repository.PostRepository
	cfg    config.TrendingConfig
	logger *logger.Logger
}

func NewTrendingService(ranks RankStore, posts *repository.PostRepository, cfg config.TrendingConfig, logger *logger.Logger) *TrendingService {
	if cfg.Key == "" {
		cfg.Key = "trending:posts"
	}
	if cfg.LikeWeight == 0 {
		cfg.LikeWeight = 1
	}
	if cfg.CommentWeight == 0 {
		cfg.CommentWeight = 2
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = 7
	}
	return &TrendingService{ranks: ranks, posts: posts, cfg: cfg, logger: logger}
}

// Apply folds one domain event into the scores. Events that do not affect
// trending are ignored.
func (s *TrendingService) Apply(ctx context.Context, ev queue.RawEvent) error {
	switch ev.Type {
	case queue.EventLikeCreated, queue.EventLikeDeleted:
		var data queue.LikeEventData
		if err := ev.DecodeData(&data); err != nil {
			return err
		}
		if data.CommentID != "" || data.PostID == "" {
			return nil
		}
		weight := s.cfg.LikeWeight
		if ev.Type == queue.EventLikeDeleted {
			weight = -weight
		}
		return s.bump(ctx, data.PostID, weight)

	case queue.EventCommentCreated, queue.EventCommentDeleted:
		var data queue.CommentEventData
		if err := ev.DecodeData(&data); err != nil {
			return err
		}
		if data.PostID == "" {
			return nil
		}
		weight := s.cfg.CommentWeight
		if ev.Type == queue.EventCommentDeleted {
			weight = -weight
		}
		return s.bump(ctx, data.PostID, weight)

	case queue.EventPostDeleted:
		var data queue.PostEventData
		if err := ev.DecodeData(&data); err != nil {
			return err
		}
		return s.ranks.ZRem(ctx, s.cfg.Key, data.PostID)
	}
	return nil
}

// bump adds weight to a post's score and drops the post once nothing is left
// counting for it, so an empty set still falls back to popular.
func (s *TrendingService) bump(ctx context.Context, postID string, weight float64) error {
	score, err := s.ranks.ZIncrBy(ctx, s.cfg.Key, weight, postID)
	if err != nil {
		return err
	}
	if score <= 0 {
		return s.ranks.ZRem(ctx, s.cfg.Key, postID)
	}
	return nil
}

// Page returns post ids by descending score. total is the size of the set,
// which may include posts deleted since the last rebuild.
func (s *TrendingService) Page(ctx context.Context, offset, limit int) ([]uuid.UUID, int64, error) {
	total, err := s.ranks.ZCard(ctx, s.cfg.Key)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 || int64(offset) >= total {
		return nil, total, nil
	}

	members, err := s.ranks.ZRevRange(ctx, s.cfg.Key, int64(offset), int64(offset+limit-1))
	if err != nil {
		return nil, 0, err
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			s.logger.WithField("member", m).Warn("Skipping malformed trending member")
			continue
		}
		ids = append(ids, id)
	}
	return ids, total, nil
}

// Rebuild recomputes every score from the engagement inside the configured
// window and replaces the set. It returns the number of ranked posts.
func (s *TrendingService) Rebuild(ctx context.Context) (int, error) {
	since := time.Now().AddDate(0, 0, -s.cfg.WindowDays)
	rows, err := s.posts.EngagementSince(ctx, since)
	if err != nil {
		return 0, err
	}

	scores := make(map[string]float64, len(rows))
	for _, row := range rows {
		score := float64(row.Likes)*s.cfg.LikeWeight + float64(row.Comments)*s.cfg.CommentWeight
		if score > 0 {
			scores[row.PostID.String()] = score
		}
	}

	if err := s.ranks.ReplaceSortedSet(ctx, s.cfg.Key, scores); err != nil {
		return 0, fmt.Errorf("failed to replace trending set: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"posts": len(scores),
		"since": since.Format(time.RFC3339),
	}).Info("Trending scores rebuilt")
	return len(scores), nil
}
