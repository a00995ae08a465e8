package services

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/scentboard/scentboard/internal/models"
	"github.com/scentboard/scentboard/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePostDefaultsAndOverrides(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")

	post, err := env.posts.CreatePost(ctx, alice.ID.String(), &FragranceDraft{
		Name:    "Aventus",
		Brand:   "Creed",
		Ratings: &RatingsDraft{Overall: intPtr(9)},
		Seasons: &SeasonsDraft{Fall: intPtr(5)},
		Notes: []NoteDraft{
			{Name: "Pineapple", Category: "top"},
			{Name: "Birch"},
		},
		Tags:    []string{"Fruity", "fruity ", "smoky"},
		Accords: []string{"woody"},
	})
	require.NoError(t, err)

	assert.Equal(t, alice.ID, post.UserID)
	assert.Equal(t, "Aventus", post.Fragrance.Name)
	assert.Equal(t, 9, post.Fragrance.Ratings.Overall)
	assert.Equal(t, models.DefaultRating, post.Fragrance.Ratings.Longevity)
	assert.Equal(t, 5, post.Fragrance.Seasons.Fall)
	assert.Equal(t, models.DefaultSeason, post.Fragrance.Seasons.Spring)
	assert.Equal(t, models.DefaultDayNight, post.Fragrance.DayNight)
	assert.Equal(t, int64(0), post.LikesCount)

	require.Len(t, post.Fragrance.Notes, 2)
	assert.Equal(t, models.NoteTop, post.Fragrance.Notes[0].Category)
	assert.Equal(t, models.NoteUnspecified, post.Fragrance.Notes[1].Category)
	assert.Equal(t, 1, post.Fragrance.Notes[1].Position)

	require.Len(t, post.Fragrance.Tags, 2)
	assert.Equal(t, "fruity", post.Fragrance.Tags[0].Name)
	assert.Equal(t, "smoky", post.Fragrance.Tags[1].Name)

	assert.Equal(t, []queue.EventType{queue.EventPostCreated}, env.events.types())
}

func TestCreatePostValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")

	cases := []struct {
		name  string
		draft *FragranceDraft
		field string
	}{
		{"missing name", &FragranceDraft{Brand: "Creed"}, "name"},
		{"blank name", &FragranceDraft{Name: "   ", Brand: "Creed"}, "name"},
		{"rating out of range", &FragranceDraft{Name: "A", Brand: "B", Ratings: &RatingsDraft{Overall: intPtr(11)}}, "ratings.overall"},
		{"season out of range", &FragranceDraft{Name: "A", Brand: "B", Seasons: &SeasonsDraft{Winter: intPtr(6)}}, "seasons.winter"},
		{"day night out of range", &FragranceDraft{Name: "A", Brand: "B", DayNight: intPtr(101)}, "day_night"},
		{"bad note category", &FragranceDraft{Name: "A", Brand: "B", Notes: []NoteDraft{{Name: "Rose", Category: "heart"}}}, "notes[0].category"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.posts.CreatePost(ctx, alice.ID.String(), tc.draft)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}

	count, err := env.postCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func (e *testEnv) postCount(ctx context.Context) (int64, error) {
	var n int64
	err := e.db.DB.WithContext(ctx).Model(&models.Post{}).Count(&n).Error
	return n, err
}

func TestUpdateAndDeletePostOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	post := env.post(t, alice, "Aventus")

	_, err := env.posts.UpdatePost(ctx, post.ID.String(), bob.ID.String(), &PostPatch{Name: strPtr("Stolen")})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, env.posts.DeletePost(ctx, post.ID.String(), bob.ID.String()), ErrForbidden)

	updated, err := env.posts.UpdatePost(ctx, post.ID.String(), alice.ID.String(), &PostPatch{
		Description: strPtr("Smoky pineapple"),
		Ratings:     &RatingsDraft{Value: intPtr(2)},
		Tags:        []string{"smoky"},
		Notes:       []NoteDraft{},
	})
	require.NoError(t, err)
	assert.Equal(t, "Aventus", updated.Fragrance.Name)
	assert.Equal(t, "Smoky pineapple", updated.Fragrance.Description)
	assert.Equal(t, 2, updated.Fragrance.Ratings.Value)
	assert.Equal(t, models.DefaultRating, updated.Fragrance.Ratings.Overall)
	require.Len(t, updated.Fragrance.Tags, 1)
	assert.Empty(t, updated.Fragrance.Notes)

	_, err = env.posts.UpdatePost(ctx, post.ID.String(), alice.ID.String(), &PostPatch{Name: strPtr("  ")})
	assert.ErrorIs(t, err, ErrValidationFailed)

	require.NoError(t, env.posts.DeletePost(ctx, post.ID.String(), alice.ID.String()))
	_, err = env.posts.GetPost(ctx, post.ID.String(), "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, env.posts.DeletePost(ctx, post.ID.String(), alice.ID.String()), ErrNotFound)
}

func TestFeedAndDiscover(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	carol := env.user(t, "carol")

	first := env.post(t, bob, "Aventus")
	time.Sleep(5 * time.Millisecond)
	env.post(t, carol, "Baccarat Rouge")
	time.Sleep(5 * time.Millisecond)
	latest := env.post(t, bob, "Green Irish Tweed")

	require.NoError(t, env.graph.Follow(ctx, alice.ID.String(), bob.ID.String()))

	feed, err := env.posts.ListFeed(ctx, alice.ID.String(), PageRequest{})
	require.NoError(t, err)
	require.Len(t, feed.Items, 2)
	assert.Equal(t, latest.ID, feed.Items[0].ID)
	assert.Equal(t, first.ID, feed.Items[1].ID)

	discover, err := env.posts.ListDiscover(ctx, alice.ID.String(), SortRecent, PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), discover.Total)
	assert.Equal(t, latest.ID, discover.Items[0].ID)

	require.NoError(t, env.ledger.Like(ctx, "post", first.ID.String(), alice.ID.String()))
	require.NoError(t, env.ledger.Like(ctx, "post", first.ID.String(), carol.ID.String()))

	popular, err := env.posts.ListDiscover(ctx, alice.ID.String(), SortPopular, PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, first.ID, popular.Items[0].ID)
	assert.Equal(t, int64(2), popular.Items[0].LikesCount)
	assert.True(t, popular.Items[0].IsLiked)

	mine, err := env.posts.ListByAuthor(ctx, bob.ID.String(), "", PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), mine.Total)
	assert.False(t, mine.Items[0].IsLiked)

	_, err = env.posts.ListDiscover(ctx, "", "random", PageRequest{})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestDiscoverTrending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	a := env.post(t, alice, "Aventus")
	time.Sleep(5 * time.Millisecond)
	b := env.post(t, alice, "Santal 33")

	// empty set falls back to popular, which ties on likes and then recency
	page, err := env.posts.ListDiscover(ctx, "", SortTrending, PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, b.ID, page.Items[0].ID)

	env.ranks.add(t, "trending:posts", a.ID.String(), 5)
	env.ranks.add(t, "trending:posts", b.ID.String(), 1)

	page, err = env.posts.ListDiscover(ctx, "", SortTrending, PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, a.ID, page.Items[0].ID)
	assert.Equal(t, b.ID, page.Items[1].ID)
	assert.Equal(t, int64(2), page.Total)
}

func TestSavedList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	a := env.post(t, bob, "Aventus")
	b := env.post(t, bob, "Santal 33")

	require.NoError(t, env.ledger.Save(ctx, b.ID.String(), alice.ID.String()))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, env.ledger.Save(ctx, a.ID.String(), alice.ID.String()))
	require.NoError(t, env.ledger.Save(ctx, a.ID.String(), alice.ID.String()))

	saved, err := env.posts.ListSaved(ctx, alice.ID.String(), PageRequest{})
	require.NoError(t, err)
	require.Len(t, saved.Items, 2)
	assert.Equal(t, a.ID, saved.Items[0].ID)
	assert.True(t, saved.Items[0].IsSaved)
}

func TestDiscoverSamePageTwice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")

	var ids []string
	for _, name := range []string{"Aventus", "Santal 33", "Bleu", "Oud Wood", "Tobacco Vanille"} {
		ids = append(ids, env.post(t, alice, name).ID.String())
	}
	sameTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, env.db.DB.Model(&models.Post{}).Where("user_id = ?", alice.ID).Update("created_at", sameTime).Error)
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))

	for _, order := range []string{SortRecent, SortPopular} {
		var seen []string
		for pageNum := 1; pageNum <= 3; pageNum++ {
			req := PageRequest{Page: pageNum, PageSize: 2}
			first, err := env.posts.ListDiscover(ctx, "", order, req)
			require.NoError(t, err)
			again, err := env.posts.ListDiscover(ctx, "", order, req)
			require.NoError(t, err)

			require.Equal(t, len(first.Items), len(again.Items))
			for i := range first.Items {
				assert.Equal(t, first.Items[i].ID, again.Items[i].ID)
				seen = append(seen, first.Items[i].ID.String())
			}
			assert.Equal(t, first.HasMore, again.HasMore)
			assert.Equal(t, pageNum < 3, first.HasMore)
		}
		assert.Equal(t, ids, seen, order)
	}
}

func TestFragranceTextKeptAsWritten(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")

	post, err := env.posts.CreatePost(ctx, alice.ID.String(), &FragranceDraft{
		Name:        " <Untitled> No. 1 ",
		Brand:       "Maison <Margiela>",
		Description: "smells like <ozone> after rain",
	})
	require.NoError(t, err)
	assert.Equal(t, "<Untitled> No. 1", post.Fragrance.Name)
	assert.Equal(t, "Maison <Margiela>", post.Fragrance.Brand)
	assert.Equal(t, "smells like <ozone> after rain", post.Fragrance.Description)

	desc := "dry down: <amber> & musk"
	updated, err := env.posts.UpdatePost(ctx, post.ID.String(), alice.ID.String(), &PostPatch{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, desc, updated.Fragrance.Description)
}
