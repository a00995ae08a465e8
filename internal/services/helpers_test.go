package services

import (
	"context"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/scentboard/scentboard/internal/config"
	"github.com/scentboard/scentboard/internal/models"
	"github.com/scentboard/scentboard/internal/repository"
	"github.com/scentboard/scentboard/pkg/cache"
	"github.com/scentboard/scentboard/pkg/logger"
	"github.com/scentboard/scentboard/pkg/queue"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string]string{}}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch v := value.(type) {
	case string:
		c.data[key] = v
	case int64:
		c.data[key] = strconv.FormatInt(v, 10)
	default:
		c.data[key] = ""
	}
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

type memoryRanks struct {
	mu   sync.Mutex
	sets map[string]map[string]float64
}

func newMemoryRanks() *memoryRanks {
	return &memoryRanks{sets: map[string]map[string]float64{}}
}

func (r *memoryRanks) set(key string) map[string]float64 {
	s, ok := r.sets[key]
	if !ok {
		s = map[string]float64{}
		r.sets[key] = s
	}
	return s
}

func (r *memoryRanks) ZIncrBy(_ context.Context, key string, increment float64, member string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.set(key)
	s[member] += increment
	return s[member], nil
}

func (r *memoryRanks) add(t *testing.T, key, member string, score float64) {
	t.Helper()
	_, err := r.ZIncrBy(context.Background(), key, score, member)
	require.NoError(t, err)
}

func (r *memoryRanks) ZRevRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.set(key)
	members := make([]string, 0, len(s))
	for m := range s {
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool {
		if s[members[i]] != s[members[j]] {
			return s[members[i]] > s[members[j]]
		}
		return members[i] > members[j]
	})
	if start >= int64(len(members)) {
		return nil, nil
	}
	if stop >= int64(len(members)) || stop < 0 {
		stop = int64(len(members)) - 1
	}
	return members[start : stop+1], nil
}

func (r *memoryRanks) ZRem(_ context.Context, key string, members ...interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.set(key)
	for _, m := range members {
		if name, ok := m.(string); ok {
			delete(s, name)
		}
	}
	return nil
}

func (r *memoryRanks) ZCard(_ context.Context, key string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.set(key))), nil
}

func (r *memoryRanks) ReplaceSortedSet(_ context.Context, key string, scores map[string]float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := make(map[string]float64, len(scores))
	for k, v := range scores {
		s[k] = v
	}
	r.sets[key] = s
	return nil
}

func (r *memoryRanks) score(key, member string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.set(key)[member]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev, ok := value.(queue.Event); ok {
		p.events = append(p.events, ev)
	}
	return nil
}

func (p *recordingPublisher) types() []queue.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]queue.EventType, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type testEnv struct {
	db        *repository.Database
	cache     *memoryCache
	ranks     *memoryRanks
	events    *recordingPublisher
	users     *UserService
	graph     *GraphService
	posts     *PostService
	comments  *CommentService
	ledger    *InteractionService
	notifier  *NotificationService
	trending  *TrendingService
	notifRepo *repository.NotificationRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "scent.db") + "?_pragma=foreign_keys(1)"
	db, err := repository.Open(sqlite.Open(dsn), false)
	require.NoError(t, err)
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	log := logger.Discard()
	pages := NewPaginator(config.PaginationConfig{DefaultPageSize: 20, MaxPageSize: 100})

	userRepo := repository.NewUserRepository(db.DB)
	followRepo := repository.NewFollowRepository(db.DB)
	tokenRepo := repository.NewRefreshTokenRepository(db.DB)
	postRepo := repository.NewPostRepository(db.DB)
	commentRepo := repository.NewCommentRepository(db.DB)
	likeRepo := repository.NewLikeRepository(db.DB)
	savedRepo := repository.NewSavedRepository(db.DB)
	notifRepo := repository.NewNotificationRepository(db.DB)

	env := &testEnv{
		db:        db,
		cache:     newMemoryCache(),
		ranks:     newMemoryRanks(),
		events:    &recordingPublisher{},
		notifRepo: notifRepo,
	}

	env.notifier = NewNotificationService(notifRepo, env.cache, pages, config.NotificationConfig{
		ExcerptLength:  40,
		UnreadCacheTTL: time.Minute,
		MaxMentions:    3,
	}, log)
	env.trending = NewTrendingService(env.ranks, postRepo, config.TrendingConfig{}, log)
	env.users = NewUserService(userRepo, followRepo, tokenRepo, time.Hour, log)
	env.graph = NewGraphService(userRepo, followRepo, env.notifier, env.events, pages, log)
	env.posts = NewPostService(postRepo, likeRepo, savedRepo, commentRepo, userRepo, env.trending, env.events, pages, log)
	env.comments = NewCommentService(postRepo, commentRepo, userRepo, likeRepo, env.notifier, env.events, pages, log)
	env.ledger = NewInteractionService(postRepo, commentRepo, likeRepo, savedRepo, env.notifier, env.events, pages, log)
	return env
}

func (e *testEnv) user(t *testing.T, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", PasswordHash: "x"}
	require.NoError(t, repository.NewUserRepository(e.db.DB).Create(context.Background(), u))
	return u
}

func (e *testEnv) post(t *testing.T, author *models.User, name string) *models.Post {
	t.Helper()
	p, err := e.posts.CreatePost(context.Background(), author.ID.String(), &FragranceDraft{
		Name:  name,
		Brand: "Creed",
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) notifications(t *testing.T, recipient *models.User) []*models.Notification {
	t.Helper()
	page, err := e.notifier.ListForUser(context.Background(), recipient.ID.String(), NotificationListFilter{}, PageRequest{PageSize: 100})
	require.NoError(t, err)
	return page.Items
}

func intPtr(v int) *int {
	return &v
}

func strPtr(s string) *string {
	return &s
}
