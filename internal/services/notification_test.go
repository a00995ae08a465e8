package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/scentboard/scentboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestEmitDropsSelfNotification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")

	n, err := env.notifier.Emit(ctx, EmitRequest{
		Type:        models.NotificationFollow,
		RecipientID: alice.ID,
		ActorID:     alice.ID,
	})
	require.NoError(t, err)
	assert.Nil(t, n)
	assert.Empty(t, env.notifications(t, alice))
}

func TestEmitRejectsUnknownType(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")

	_, err := env.notifier.Emit(context.Background(), EmitRequest{
		Type:        "poke",
		RecipientID: alice.ID,
		ActorID:     bob.ID,
	})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestListForUserFiltersAndOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")

	require.NoError(t, env.graph.Follow(ctx, bob.ID.String(), alice.ID.String()))
	time.Sleep(5 * time.Millisecond)
	post := env.post(t, alice, "Aventus")
	require.NoError(t, env.ledger.Like(ctx, "post", post.ID.String(), bob.ID.String()))

	all, err := env.notifier.ListForUser(ctx, alice.ID.String(), NotificationListFilter{}, PageRequest{})
	require.NoError(t, err)
	require.Len(t, all.Items, 2)
	assert.Equal(t, models.NotificationLike, all.Items[0].Type)
	assert.Equal(t, models.NotificationFollow, all.Items[1].Type)
	require.NotNil(t, all.Items[0].Actor)
	assert.Equal(t, "bob", all.Items[0].Actor.Username)

	likes, err := env.notifier.ListForUser(ctx, alice.ID.String(), NotificationListFilter{Type: "like"}, PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), likes.Total)

	_, err = env.notifier.ListForUser(ctx, alice.ID.String(), NotificationListFilter{Type: "poke"}, PageRequest{})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestUnreadablePayloadFallsBackToEmpty(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")

	broken := &models.Notification{
		RecipientID: alice.ID,
		ActorID:     bob.ID,
		Type:        models.NotificationFollow,
		Content:     datatypes.JSON(`{"type":`),
	}
	require.NoError(t, env.notifRepo.Create(ctx, broken))

	notes := env.notifications(t, alice)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationContent{}, notes[0].Payload)
}

func TestMarkReadOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	carol := env.user(t, "carol")

	require.NoError(t, env.graph.Follow(ctx, bob.ID.String(), alice.ID.String()))
	require.NoError(t, env.graph.Follow(ctx, alice.ID.String(), carol.ID.String()))
	aliceNote := env.notifications(t, alice)[0]
	carolNote := env.notifications(t, carol)[0]

	_, err := env.notifier.MarkRead(ctx, alice.ID.String(), []string{aliceNote.ID.String(), carolNote.ID.String()})
	assert.ErrorIs(t, err, ErrForbidden)

	unread, err := env.notifier.UnreadCount(ctx, alice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	changed, err := env.notifier.MarkRead(ctx, alice.ID.String(), []string{aliceNote.ID.String(), uuid.NewString()})
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	changed, err = env.notifier.MarkRead(ctx, alice.ID.String(), []string{aliceNote.ID.String()})
	require.NoError(t, err)
	assert.Zero(t, changed)

	unread, err = env.notifier.UnreadCount(ctx, alice.ID.String())
	require.NoError(t, err)
	assert.Zero(t, unread)

	_, err = env.notifier.MarkRead(ctx, alice.ID.String(), nil)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestUnreadCountCacheInvalidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	carol := env.user(t, "carol")

	count, err := env.notifier.UnreadCount(ctx, alice.ID.String())
	require.NoError(t, err)
	assert.Zero(t, count)

	cached, err := env.cache.Get(ctx, unreadKey(alice.ID))
	require.NoError(t, err)
	assert.Equal(t, "0", cached)

	require.NoError(t, env.graph.Follow(ctx, bob.ID.String(), alice.ID.String()))
	require.NoError(t, env.graph.Follow(ctx, carol.ID.String(), alice.ID.String()))

	count, err = env.notifier.UnreadCount(ctx, alice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	unread, err := env.notifier.ListForUser(ctx, alice.ID.String(), NotificationListFilter{UnreadOnly: true}, PageRequest{})
	require.NoError(t, err)
	require.NoError(t, env.notifier.Delete(ctx, alice.ID.String(), unread.Items[0].ID.String()))

	count, err = env.notifier.UnreadCount(ctx, alice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	changed, err := env.notifier.MarkAllRead(ctx, alice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	count, err = env.notifier.UnreadCount(ctx, alice.ID.String())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDeleteNotificationOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")

	require.NoError(t, env.graph.Follow(ctx, bob.ID.String(), alice.ID.String()))
	note := env.notifications(t, alice)[0]

	assert.ErrorIs(t, env.notifier.Delete(ctx, bob.ID.String(), note.ID.String()), ErrForbidden)
	assert.ErrorIs(t, env.notifier.Delete(ctx, alice.ID.String(), uuid.NewString()), ErrNotFound)
	require.NoError(t, env.notifier.Delete(ctx, alice.ID.String(), note.ID.String()))
	assert.Empty(t, env.notifications(t, alice))
}
