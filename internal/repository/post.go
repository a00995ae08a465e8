package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/scentboard/scentboard/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostSort string

const (
	PostSortRecent  PostSort = "recent"
	PostSortPopular PostSort = "popular"
)

// PostFilter narrows List. The zero value lists every post.
type PostFilter struct {
	AuthorID *uuid.UUID
	// FollowedBy restricts to authors followed by this user.
	FollowedBy *uuid.UUID
	// SavedBy restricts to posts saved by this user, newest save first.
	SavedBy *uuid.UUID
	Sort    PostSort
}

// PostUpdate lists which child collections Update should replace.
type PostUpdate struct {
	ReplaceNotes   bool
	ReplaceTags    bool
	ReplaceAccords bool
}

// PostEngagement is the per-post activity used to rebuild trending scores.
type PostEngagement struct {
	PostID   uuid.UUID
	Likes    int64
	Comments int64
}

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create writes the post and its whole fragrance aggregate in one transaction.
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return err
		}

		frag := &post.Fragrance
		frag.PostID = post.ID
		if err := tx.Omit(clause.Associations).Create(frag).Error; err != nil {
			return err
		}

		frag.Ratings.FragranceID = frag.ID
		if err := tx.Create(&frag.Ratings).Error; err != nil {
			return err
		}
		frag.Seasons.FragranceID = frag.ID
		if err := tx.Create(&frag.Seasons).Error; err != nil {
			return err
		}

		return createCollections(tx, frag, PostUpdate{ReplaceNotes: true, ReplaceTags: true, ReplaceAccords: true})
	})
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

func createCollections(tx *gorm.DB, frag *models.Fragrance, which PostUpdate) error {
	if which.ReplaceNotes && len(frag.Notes) > 0 {
		for i := range frag.Notes {
			frag.Notes[i].ID = uuid.Nil
			frag.Notes[i].FragranceID = frag.ID
		}
		if err := tx.Create(&frag.Notes).Error; err != nil {
			return err
		}
	}
	if which.ReplaceTags && len(frag.Tags) > 0 {
		for i := range frag.Tags {
			frag.Tags[i].ID = uuid.Nil
			frag.Tags[i].FragranceID = frag.ID
		}
		if err := tx.Create(&frag.Tags).Error; err != nil {
			return err
		}
	}
	if which.ReplaceAccords && len(frag.Accords) > 0 {
		for i := range frag.Accords {
			frag.Accords[i].ID = uuid.Nil
			frag.Accords[i].FragranceID = frag.ID
		}
		if err := tx.Create(&frag.Accords).Error; err != nil {
			return err
		}
	}
	return nil
}

func preloadPost(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Fragrance").
		Preload("Fragrance.Notes", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Fragrance.Tags", func(db *gorm.DB) *gorm.DB {
			return db.Order("name ASC")
		}).
		Preload("Fragrance.Accords", func(db *gorm.DB) *gorm.DB {
			return db.Order("name ASC")
		}).
		Preload("Fragrance.Ratings").
		Preload("Fragrance.Seasons")
}

func (r *PostRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).
		Scopes(preloadPost).
		First(&post, "posts.id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &post, nil
}

// GetByIDs loads posts in the order of ids, skipping ids that no longer exist.
func (r *PostRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var posts []*models.Post
	if err := r.db.WithContext(ctx).
		Scopes(preloadPost).
		Where("posts.id IN ?", ids).
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to get posts: %w", err)
	}

	byID := make(map[uuid.UUID]*models.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	ordered := make([]*models.Post, 0, len(posts))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

// GetOwner returns the author of a post, or uuid.Nil when it does not exist.
func (r *PostRepository) GetOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var owners []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		Limit(1).
		Pluck("user_id", &owners).Error; err != nil {
		return uuid.Nil, fmt.Errorf("failed to get post owner: %w", err)
	}
	if len(owners) == 0 {
		return uuid.Nil, nil
	}
	return owners[0], nil
}

// Update saves scalar fragrance fields, ratings and seasons, and replaces the
// collections selected in which.
func (r *PostRepository) Update(ctx context.Context, post *models.Post, which PostUpdate) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.Model(&models.Post{}).
			Where("id = ?", post.ID).
			UpdateColumn("updated_at", now).Error; err != nil {
			return err
		}
		post.UpdatedAt = now

		frag := &post.Fragrance
		if err := tx.Model(frag).
			Select("name", "brand", "category", "description", "occasion", "photo_url", "day_night").
			Updates(frag).Error; err != nil {
			return err
		}
		if err := tx.Model(&frag.Ratings).
			Select("overall", "longevity", "sillage", "versatility", "value").
			Updates(&frag.Ratings).Error; err != nil {
			return err
		}
		if err := tx.Model(&frag.Seasons).
			Select("spring", "summer", "fall", "winter").
			Updates(&frag.Seasons).Error; err != nil {
			return err
		}

		if which.ReplaceNotes {
			if err := tx.Where("fragrance_id = ?", frag.ID).Delete(&models.FragranceNote{}).Error; err != nil {
				return err
			}
		}
		if which.ReplaceTags {
			if err := tx.Where("fragrance_id = ?", frag.ID).Delete(&models.FragranceTag{}).Error; err != nil {
				return err
			}
		}
		if which.ReplaceAccords {
			if err := tx.Where("fragrance_id = ?", frag.ID).Delete(&models.FragranceAccord{}).Error; err != nil {
				return err
			}
		}
		return createCollections(tx, frag, which)
	})
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	return nil
}

// Delete removes the post; the fragrance, comments, likes and saves go with
// it through ON DELETE CASCADE.
func (r *PostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Post{}).Error; err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}

func (r *PostRepository) List(ctx context.Context, filter PostFilter, offset, limit int) ([]*models.Post, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Post{})
	order := []string{"posts.created_at DESC", "posts.id DESC"}

	if filter.AuthorID != nil {
		query = query.Where("posts.user_id = ?", *filter.AuthorID)
	}
	if filter.FollowedBy != nil {
		following := r.db.Model(&models.Follow{}).
			Select("following_id").
			Where("follower_id = ?", *filter.FollowedBy)
		query = query.Where("posts.user_id IN (?)", following)
	}
	if filter.SavedBy != nil {
		query = query.
			Joins("JOIN saved_posts ON saved_posts.post_id = posts.id").
			Where("saved_posts.user_id = ?", *filter.SavedBy)
		order = []string{"saved_posts.created_at DESC", "posts.id DESC"}
	}
	if filter.Sort == PostSortPopular {
		order = append([]string{
			"(SELECT COUNT(*) FROM post_likes WHERE post_likes.post_id = posts.id) DESC",
		}, order...)
	}

	var posts []*models.Post
	total, err := paginate(query, offset, limit, &posts, orderBy(order...), preloadPost)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, total, nil
}

func (r *PostRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}

// EngagementSince counts likes and comments created at or after since, per post.
func (r *PostRepository) EngagementSince(ctx context.Context, since time.Time) ([]PostEngagement, error) {
	likes, err := r.groupSince(ctx, &models.PostLike{}, since)
	if err != nil {
		return nil, err
	}
	comments, err := r.groupSince(ctx, &models.Comment{}, since)
	if err != nil {
		return nil, err
	}

	merged := make(map[uuid.UUID]*PostEngagement)
	for _, row := range likes {
		merged[row.ID] = &PostEngagement{PostID: row.ID, Likes: row.Total}
	}
	for _, row := range comments {
		e, ok := merged[row.ID]
		if !ok {
			e = &PostEngagement{PostID: row.ID}
			merged[row.ID] = e
		}
		e.Comments = row.Total
	}

	out := make([]PostEngagement, 0, len(merged))
	for _, e := range merged {
		out = append(out, *e)
	}
	return out, nil
}

func (r *PostRepository) groupSince(ctx context.Context, model interface{}, since time.Time) ([]countRow, error) {
	var rows []countRow
	if err := r.db.WithContext(ctx).
		Model(model).
		Select("post_id AS id, COUNT(*) AS total").
		Where("created_at >= ?", since).
		Group("post_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate engagement: %w", err)
	}
	return rows, nil
}
