package services

import (
	"context"
	"math"
	"testing"

	"github.com/scentboard/scentboard/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginatorNormalize(t *testing.T) {
	p := NewPaginator(config.PaginationConfig{DefaultPageSize: 20, MaxPageSize: 100})

	assert.Equal(t, PageRequest{Page: 1, PageSize: 20}, p.Normalize(PageRequest{}))
	assert.Equal(t, PageRequest{Page: 3, PageSize: 100}, p.Normalize(PageRequest{Page: 3, PageSize: 500}))
	assert.Equal(t, PageRequest{Page: 1, PageSize: 5}, p.Normalize(PageRequest{Page: -2, PageSize: 5}))

	fallback := NewPaginator(config.PaginationConfig{DefaultPageSize: 50, MaxPageSize: 10})
	assert.Equal(t, 10, fallback.DefaultSize)
}

func TestNewPageHasMore(t *testing.T) {
	page := NewPage([]int{1, 2}, 5, PageRequest{Page: 2, PageSize: 2})
	assert.True(t, page.HasMore)

	page = NewPage([]int{5}, 5, PageRequest{Page: 3, PageSize: 2})
	assert.False(t, page.HasMore)

	empty := NewPage[int](nil, 0, PageRequest{Page: 1, PageSize: 20})
	assert.NotNil(t, empty.Items)
	assert.False(t, empty.HasMore)
	assert.Equal(t, 40, PageRequest{Page: 3, PageSize: 20}.Offset())
}

func TestPaginatorHugePageStaysPastTheEnd(t *testing.T) {
	p := NewPaginator(config.PaginationConfig{DefaultPageSize: 20, MaxPageSize: 100})

	req := p.Normalize(PageRequest{Page: math.MaxInt/20 + 2, PageSize: 20})
	assert.Equal(t, math.MaxInt/20, req.Page)
	assert.Positive(t, req.Offset())
	assert.False(t, NewPage([]int{}, 1, req).HasMore)

	assert.Equal(t, math.MaxInt, PageRequest{Page: math.MaxInt, PageSize: 20}.Offset())
	assert.Zero(t, PageRequest{Page: 0, PageSize: 20}.Offset())
}

func TestDiscoverHugePageIsEmpty(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	env.post(t, alice, "Aventus")

	page, err := env.posts.ListDiscover(ctx, "", SortRecent, PageRequest{Page: math.MaxInt/20 + 2, PageSize: 20})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(1), page.Total)
	assert.False(t, page.HasMore)
	assert.Equal(t, math.MaxInt/20, page.Page)
}
