package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/scentboard/scentboard/internal/models"
	"github.com/scentboard/scentboard/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	post := env.post(t, alice, "Aventus")

	for i := 0; i < 3; i++ {
		require.NoError(t, env.ledger.Like(ctx, "post", post.ID.String(), bob.ID.String()))
	}

	got, err := env.posts.GetPost(ctx, post.ID.String(), bob.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.LikesCount)
	assert.True(t, got.IsLiked)

	notes := env.notifications(t, alice)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationLike, notes[0].Type)
	assert.Equal(t, "liked your post", notes[0].Payload.Action)

	liked, err := env.ledger.IsLiked(ctx, "post", post.ID.String(), bob.ID.String())
	require.NoError(t, err)
	assert.True(t, liked)

	assert.Equal(t, []queue.EventType{queue.EventPostCreated, queue.EventLikeCreated}, env.events.types())
}

func TestLikeNotificationDedupedWhileUnread(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	post := env.post(t, alice, "Aventus")

	require.NoError(t, env.ledger.Like(ctx, "post", post.ID.String(), bob.ID.String()))
	require.NoError(t, env.ledger.Unlike(ctx, "post", post.ID.String(), bob.ID.String()))
	require.NoError(t, env.ledger.Like(ctx, "post", post.ID.String(), bob.ID.String()))
	assert.Len(t, env.notifications(t, alice), 1)

	_, err := env.notifier.MarkAllRead(ctx, alice.ID.String())
	require.NoError(t, err)

	require.NoError(t, env.ledger.Unlike(ctx, "post", post.ID.String(), bob.ID.String()))
	require.NoError(t, env.ledger.Like(ctx, "post", post.ID.String(), bob.ID.String()))
	assert.Len(t, env.notifications(t, alice), 2)
}

func TestUnlikeMissingIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	post := env.post(t, alice, "Aventus")

	require.NoError(t, env.ledger.Unlike(ctx, "post", post.ID.String(), alice.ID.String()))
	require.NoError(t, env.ledger.Unsave(ctx, post.ID.String(), alice.ID.String()))
	assert.Equal(t, []queue.EventType{queue.EventPostCreated}, env.events.types())
}

func TestLikeValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")

	err := env.ledger.Like(ctx, "story", uuid.NewString(), alice.ID.String())
	assert.ErrorIs(t, err, ErrValidationFailed)

	err = env.ledger.Like(ctx, "post", uuid.NewString(), alice.ID.String())
	assert.ErrorIs(t, err, ErrNotFound)

	err = env.ledger.Like(ctx, "comment", uuid.NewString(), alice.ID.String())
	assert.ErrorIs(t, err, ErrNotFound)

	err = env.ledger.Save(ctx, uuid.NewString(), alice.ID.String())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommentLikeAndSave(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	post := env.post(t, alice, "Aventus")
	comment, err := env.comments.AddComment(ctx, post.ID.String(), alice.ID.String(), &AddCommentRequest{Text: "self note"})
	require.NoError(t, err)

	require.NoError(t, env.ledger.Like(ctx, "comment", comment.ID.String(), bob.ID.String()))
	require.NoError(t, env.ledger.Like(ctx, "comment", comment.ID.String(), bob.ID.String()))

	got, err := env.comments.GetComment(ctx, comment.ID.String(), bob.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.LikesCount)
	assert.True(t, got.IsLiked)

	notes := env.notifications(t, alice)
	require.Len(t, notes, 1)
	assert.Equal(t, "liked your comment", notes[0].Payload.Action)
	assert.Equal(t, "self note", notes[0].Payload.CommentExcerpt)

	require.NoError(t, env.ledger.Save(ctx, post.ID.String(), bob.ID.String()))
	saved, err := env.ledger.IsSaved(ctx, post.ID.String(), bob.ID.String())
	require.NoError(t, err)
	assert.True(t, saved)

	require.NoError(t, env.ledger.Unsave(ctx, post.ID.String(), bob.ID.String()))
	saved, err = env.ledger.IsSaved(ctx, post.ID.String(), bob.ID.String())
	require.NoError(t, err)
	assert.False(t, saved)
}

func TestListLikers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	post := env.post(t, alice, "Aventus")
	for _, name := range []string{"bob", "carol", "dave"} {
		u := env.user(t, name)
		require.NoError(t, env.ledger.Like(ctx, "post", post.ID.String(), u.ID.String()))
	}

	page, err := env.ledger.ListLikers(ctx, post.ID.String(), PageRequest{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)

	_, err = env.ledger.ListLikers(ctx, uuid.NewString(), PageRequest{})
	assert.ErrorIs(t, err, ErrNotFound)
}
