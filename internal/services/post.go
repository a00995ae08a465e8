package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/scentboard/scentboard/internal/models"
	"github.com/scentboard/scentboard/internal/repository"
	"github.com/scentboard/scentboard/pkg/logger"
	"github.com/scentboard/scentboard/pkg/queue"
)

const (
	SortRecent   = "recent"
	SortPopular  = "popular"
	SortTrending = "trending"
)

type NoteDraft struct {
	Name     string `json:"name" validate:"required,max=100"`
	Category string `json:"category" validate:"omitempty,oneof=top middle base unspecified"`
}

// RatingsDraft fields left nil take the default score.
type RatingsDraft struct {
	Overall     *int `json:"overall" validate:"omitempty,min=0,max=10"`
	Longevity   *int `json:"longevity" validate:"omitempty,min=0,max=10"`
	Sillage     *int `json:"sillage" validate:"omitempty,min=0,max=10"`
	Versatility *int `json:"versatility" validate:"omitempty,min=0,max=10"`
	Value       *int `json:"value" validate:"omitempty,min=0,max=10"`
}

type SeasonsDraft struct {
	Spring *int `json:"spring" validate:"omitempty,min=0,max=5"`
	Summer *int `json:"summer" validate:"omitempty,min=0,max=5"`
	Fall   *int `json:"fall" validate:"omitempty,min=0,max=5"`
	Winter *int `json:"winter" validate:"omitempty,min=0,max=5"`
}

type FragranceDraft struct {
	Name        string        `json:"name" validate:"required,max=100"`
	Brand       string        `json:"brand" validate:"required,max=100"`
	Category    string        `json:"category" validate:"max=50"`
	Description string        `json:"description" validate:"max=2000"`
	Occasion    string        `json:"occasion" validate:"max=100"`
	PhotoURL    string        `json:"photo_url" validate:"omitempty,url,max=500"`
	DayNight    *int          `json:"day_night" validate:"omitempty,min=0,max=100"`
	Notes       []NoteDraft   `json:"notes" validate:"max=50,dive"`
	Tags        []string      `json:"tags" validate:"max=20,dive,max=50"`
	Accords     []string      `json:"accords" validate:"max=20,dive,max=50"`
	Ratings     *RatingsDraft `json:"ratings"`
	Seasons     *SeasonsDraft `json:"seasons"`
}

// PostPatch changes only what is present. A non-nil empty collection clears it.
type PostPatch struct {
	Name        *string       `json:"name" validate:"omitempty,max=100"`
	Brand       *string       `json:"brand" validate:"omitempty,max=100"`
	Category    *string       `json:"category" validate:"omitempty,max=50"`
	Description *string       `json:"description" validate:"omitempty,max=2000"`
	Occasion    *string       `json:"occasion" validate:"omitempty,max=100"`
	PhotoURL    *string       `json:"photo_url" validate:"omitempty,url,max=500"`
	DayNight    *int          `json:"day_night" validate:"omitempty,min=0,max=100"`
	Notes       []NoteDraft   `json:"notes" validate:"max=50,dive"`
	Tags        []string      `json:"tags" validate:"max=20,dive,max=50"`
	Accords     []string      `json:"accords" validate:"max=20,dive,max=50"`
	Ratings     *RatingsDraft `json:"ratings"`
	Seasons     *SeasonsDraft `json:"seasons"`
}

// PostService is the content store.
type PostService struct {
	postRepo    *repository.PostRepository
	likeRepo    *repository.LikeRepository
	savedRepo   *repository.SavedRepository
	commentRepo *repository.CommentRepository
	userRepo    *repository.UserRepository
	trending    *TrendingService
	producer    queue.Publisher
	pages       Paginator
	logger      *logger.Logger
}

func NewPostService(
	postRepo *repository.PostRepository,
	likeRepo *repository.LikeRepository,
	savedRepo *repository.SavedRepository,
	commentRepo *repository.CommentRepository,
	userRepo *repository.UserRepository,
	trending *TrendingService,
	producer queue.Publisher,
	pages Paginator,
	logger *logger.Logger,
) *PostService {
	return &PostService{
		postRepo:    postRepo,
		likeRepo:    likeRepo,
		savedRepo:   savedRepo,
		commentRepo: commentRepo,
		userRepo:    userRepo,
		trending:    trending,
		producer:    producer,
		pages:       pages,
		logger:      logger,
	}
}

func (s *PostService) CreatePost(ctx context.Context, authorID string, draft *FragranceDraft) (*models.Post, error) {
	author, err := parseID("author_id", authorID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, invalidField("fragrance", "is required")
	}
	if err := validateStruct(draft); err != nil {
		return nil, err
	}

	frag, err := buildFragrance(draft)
	if err != nil {
		return nil, err
	}

	ok, err := s.userRepo.Exists(ctx, author)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("user")
	}

	post := &models.Post{UserID: author, Fragrance: frag}
	if err := s.postRepo.Create(ctx, post); err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return nil, notFound("user")
		}
		return nil, err
	}

	created, err := s.postRepo.GetByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, notFound("post")
	}

	publish(ctx, s.producer, s.logger, created.ID.String(), queue.EventPostCreated, queue.PostEventData{
		PostID:    created.ID.String(),
		UserID:    author.String(),
		Fragrance: created.Fragrance.Name,
		Brand:     created.Fragrance.Brand,
		CreatedAt: created.CreatedAt.UTC().Format(time.RFC3339),
	})

	s.logger.WithFields(map[string]interface{}{
		"post_id": created.ID,
		"user_id": author,
	}).Info("Post created successfully")
	return created, nil
}

func (s *PostService) UpdatePost(ctx context.Context, postID, actorID string, patch *PostPatch) (*models.Post, error) {
	id, err := parseID("post_id", postID)
	if err != nil {
		return nil, err
	}
	actor, err := parseID("actor_id", actorID)
	if err != nil {
		return nil, err
	}
	if patch == nil {
		return nil, invalidField("patch", "is required")
	}
	if err := validateStruct(patch); err != nil {
		return nil, err
	}

	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, notFound("post")
	}
	if post.UserID != actor {
		return nil, ErrForbidden
	}

	which, err := applyPatch(&post.Fragrance, patch)
	if err != nil {
		return nil, err
	}
	if err := s.postRepo.Update(ctx, post, which); err != nil {
		return nil, err
	}

	s.logger.WithField("post_id", id).Info("Post updated successfully")
	return s.GetPost(ctx, postID, actorID)
}

func (s *PostService) DeletePost(ctx context.Context, postID, actorID string) error {
	id, err := parseID("post_id", postID)
	if err != nil {
		return err
	}
	actor, err := parseID("actor_id", actorID)
	if err != nil {
		return err
	}

	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if post == nil {
		return notFound("post")
	}
	if post.UserID != actor {
		return ErrForbidden
	}

	if err := s.postRepo.Delete(ctx, id); err != nil {
		return err
	}

	publish(ctx, s.producer, s.logger, id.String(), queue.EventPostDeleted, queue.PostEventData{
		PostID:    id.String(),
		UserID:    actor.String(),
		Fragrance: post.Fragrance.Name,
		Brand:     post.Fragrance.Brand,
	})

	s.logger.WithField("post_id", id).Info("Post deleted successfully")
	return nil
}

// GetPost returns the post with live counts. viewerID may be empty.
func (s *PostService) GetPost(ctx context.Context, postID, viewerID string) (*models.Post, error) {
	id, err := parseID("post_id", postID)
	if err != nil {
		return nil, err
	}
	viewer, err := parseOptionalID("viewer_id", viewerID)
	if err != nil {
		return nil, err
	}

	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, notFound("post")
	}
	if err := s.decorate(ctx, viewer, []*models.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) ListByAuthor(ctx context.Context, authorID, viewerID string, page PageRequest) (Page[*models.Post], error) {
	author, err := parseID("user_id", authorID)
	if err != nil {
		return Page[*models.Post]{}, err
	}
	ok, err := s.userRepo.Exists(ctx, author)
	if err != nil {
		return Page[*models.Post]{}, err
	}
	if !ok {
		return Page[*models.Post]{}, notFound("user")
	}
	return s.list(ctx, viewerID, repository.PostFilter{AuthorID: &author}, page)
}

// ListFeed returns posts by the users the caller follows, newest first.
func (s *PostService) ListFeed(ctx context.Context, userID string, page PageRequest) (Page[*models.Post], error) {
	uid, err := parseID("user_id", userID)
	if err != nil {
		return Page[*models.Post]{}, err
	}
	return s.list(ctx, userID, repository.PostFilter{FollowedBy: &uid}, page)
}

// ListSaved returns the caller's saved posts, most recently saved first.
func (s *PostService) ListSaved(ctx context.Context, userID string, page PageRequest) (Page[*models.Post], error) {
	uid, err := parseID("user_id", userID)
	if err != nil {
		return Page[*models.Post]{}, err
	}
	return s.list(ctx, userID, repository.PostFilter{SavedBy: &uid}, page)
}

// ListDiscover lists every post. sort is recent (default), popular or
// trending; trending falls back to popular while no scores exist.
func (s *PostService) ListDiscover(ctx context.Context, viewerID, sort string, page PageRequest) (Page[*models.Post], error) {
	switch sort {
	case "", SortRecent:
		return s.list(ctx, viewerID, repository.PostFilter{Sort: repository.PostSortRecent}, page)
	case SortPopular:
		return s.list(ctx, viewerID, repository.PostFilter{Sort: repository.PostSortPopular}, page)
	case SortTrending:
		if s.trending != nil {
			result, ok, err := s.listTrending(ctx, viewerID, page)
			if err != nil {
				s.logger.WithError(err).Warn("Trending unavailable, falling back to popular")
			} else if ok {
				return result, nil
			}
		}
		return s.list(ctx, viewerID, repository.PostFilter{Sort: repository.PostSortPopular}, page)
	}
	return Page[*models.Post]{}, invalidField("sort", "must be one of: recent popular trending")
}

func (s *PostService) listTrending(ctx context.Context, viewerID string, page PageRequest) (Page[*models.Post], bool, error) {
	viewer, err := parseOptionalID("viewer_id", viewerID)
	if err != nil {
		return Page[*models.Post]{}, false, err
	}

	page = s.pages.Normalize(page)
	ids, total, err := s.trending.Page(ctx, page.Offset(), page.PageSize)
	if err != nil {
		return Page[*models.Post]{}, false, err
	}
	if total == 0 {
		return Page[*models.Post]{}, false, nil
	}

	posts, err := s.postRepo.GetByIDs(ctx, ids)
	if err != nil {
		return Page[*models.Post]{}, false, err
	}
	if err := s.decorate(ctx, viewer, posts); err != nil {
		return Page[*models.Post]{}, false, err
	}
	return NewPage(posts, total, page), true, nil
}

func (s *PostService) list(ctx context.Context, viewerID string, filter repository.PostFilter, page PageRequest) (Page[*models.Post], error) {
	viewer, err := parseOptionalID("viewer_id", viewerID)
	if err != nil {
		return Page[*models.Post]{}, err
	}

	page = s.pages.Normalize(page)
	posts, total, err := s.postRepo.List(ctx, filter, page.Offset(), page.PageSize)
	if err != nil {
		return Page[*models.Post]{}, err
	}
	if err := s.decorate(ctx, viewer, posts); err != nil {
		return Page[*models.Post]{}, err
	}
	return NewPage(posts, total, page), nil
}

// decorate fills the read-time counts and, for a signed-in viewer, the
// liked and saved flags.
func (s *PostService) decorate(ctx context.Context, viewer uuid.UUID, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	likes, err := s.likeRepo.PostLikeCounts(ctx, ids)
	if err != nil {
		return err
	}
	comments, err := s.commentRepo.CountsByPost(ctx, ids)
	if err != nil {
		return err
	}

	var liked, saved map[uuid.UUID]bool
	if viewer != uuid.Nil {
		if liked, err = s.likeRepo.PostsLikedBy(ctx, viewer, ids); err != nil {
			return err
		}
		if saved, err = s.savedRepo.SavedBy(ctx, viewer, ids); err != nil {
			return err
		}
	}

	for _, p := range posts {
		p.LikesCount = likes[p.ID]
		p.CommentsCount = comments[p.ID]
		p.IsLiked = liked[p.ID]
		p.IsSaved = saved[p.ID]
	}
	return nil
}

// postTitle is the denormalized label used in notifications.
func postTitle(p *models.Post) string {
	if p.Fragrance.Brand == "" {
		return p.Fragrance.Name
	}
	return p.Fragrance.Name + " by " + p.Fragrance.Brand
}

func buildFragrance(d *FragranceDraft) (models.Fragrance, error) {
	frag := models.Fragrance{
		Name:        strings.TrimSpace(d.Name),
		Brand:       strings.TrimSpace(d.Brand),
		Category:    strings.TrimSpace(d.Category),
		Description: strings.TrimSpace(d.Description),
		Occasion:    strings.TrimSpace(d.Occasion),
		PhotoURL:    strings.TrimSpace(d.PhotoURL),
		DayNight:    intOr(d.DayNight, models.DefaultDayNight),
		Notes:       buildNotes(d.Notes),
		Tags:        buildTags(d.Tags),
		Accords:     buildAccords(d.Accords),
		Ratings: models.Ratings{
			Overall:     models.DefaultRating,
			Longevity:   models.DefaultRating,
			Sillage:     models.DefaultRating,
			Versatility: models.DefaultRating,
			Value:       models.DefaultRating,
		},
		Seasons: models.Seasons{
			Spring: models.DefaultSeason,
			Summer: models.DefaultSeason,
			Fall:   models.DefaultSeason,
			Winter: models.DefaultSeason,
		},
	}
	if frag.Name == "" {
		return frag, invalidField("name", "is required")
	}
	if frag.Brand == "" {
		return frag, invalidField("brand", "is required")
	}
	mergeRatings(&frag.Ratings, d.Ratings)
	mergeSeasons(&frag.Seasons, d.Seasons)
	return frag, nil
}

func applyPatch(frag *models.Fragrance, p *PostPatch) (repository.PostUpdate, error) {
	var which repository.PostUpdate

	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return which, invalidField("name", "is required")
		}
		frag.Name = name
	}
	if p.Brand != nil {
		brand := strings.TrimSpace(*p.Brand)
		if brand == "" {
			return which, invalidField("brand", "is required")
		}
		frag.Brand = brand
	}
	if p.Category != nil {
		frag.Category = strings.TrimSpace(*p.Category)
	}
	if p.Description != nil {
		frag.Description = strings.TrimSpace(*p.Description)
	}
	if p.Occasion != nil {
		frag.Occasion = strings.TrimSpace(*p.Occasion)
	}
	if p.PhotoURL != nil {
		frag.PhotoURL = strings.TrimSpace(*p.PhotoURL)
	}
	if p.DayNight != nil {
		frag.DayNight = *p.DayNight
	}
	if p.Notes != nil {
		frag.Notes = buildNotes(p.Notes)
		which.ReplaceNotes = true
	}
	if p.Tags != nil {
		frag.Tags = buildTags(p.Tags)
		which.ReplaceTags = true
	}
	if p.Accords != nil {
		frag.Accords = buildAccords(p.Accords)
		which.ReplaceAccords = true
	}
	mergeRatings(&frag.Ratings, p.Ratings)
	mergeSeasons(&frag.Seasons, p.Seasons)
	return which, nil
}

func buildNotes(drafts []NoteDraft) []models.FragranceNote {
	notes := make([]models.FragranceNote, 0, len(drafts))
	for _, d := range drafts {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			continue
		}
		category := models.NoteCategory(d.Category)
		if !category.Valid() {
			category = models.NoteUnspecified
		}
		notes = append(notes, models.FragranceNote{
			Name:     name,
			Category: category,
			Position: len(notes),
		})
	}
	return notes
}

// normalizeSet trims, lowercases and de-duplicates labels, keeping the first
// occurrence.
func normalizeSet(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func buildTags(values []string) []models.FragranceTag {
	names := normalizeSet(values)
	tags := make([]models.FragranceTag, len(names))
	for i, n := range names {
		tags[i] = models.FragranceTag{Name: n}
	}
	return tags
}

func buildAccords(values []string) []models.FragranceAccord {
	names := normalizeSet(values)
	accords := make([]models.FragranceAccord, len(names))
	for i, n := range names {
		accords[i] = models.FragranceAccord{Name: n}
	}
	return accords
}

func mergeRatings(r *models.Ratings, d *RatingsDraft) {
	if d == nil {
		return
	}
	r.Overall = intOr(d.Overall, r.Overall)
	r.Longevity = intOr(d.Longevity, r.Longevity)
	r.Sillage = intOr(d.Sillage, r.Sillage)
	r.Versatility = intOr(d.Versatility, r.Versatility)
	r.Value = intOr(d.Value, r.Value)
}

func mergeSeasons(s *models.Seasons, d *SeasonsDraft) {
	if d == nil {
		return
	}
	s.Spring = intOr(d.Spring, s.Spring)
	s.Summer = intOr(d.Summer, s.Summer)
	s.Fall = intOr(d.Fall, s.Fall)
	s.Winter = intOr(d.Winter, s.Winter)
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
