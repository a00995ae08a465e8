package services

import (
	"math"

	"github.com/scentboard/scentboard/internal/config"
)

// PageRequest is 1-indexed.
type PageRequest struct {
	Page     int `form:"page" json:"page"`
	PageSize int `form:"page_size" json:"page_size"`
}

// Offset saturates at math.MaxInt instead of wrapping.
func (r PageRequest) Offset() int {
	if r.Page < 1 || r.PageSize < 1 {
		return 0
	}
	if r.Page-1 > math.MaxInt/r.PageSize {
		return math.MaxInt
	}
	return (r.Page - 1) * r.PageSize
}

type Page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	HasMore  bool  `json:"has_more"`
}

func NewPage[T any](items []T, total int64, req PageRequest) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:    items,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		HasMore:  int64(req.Page)*int64(req.PageSize) < total,
	}
}

// Paginator clamps caller-supplied page requests to the server limits.
type Paginator struct {
	DefaultSize int
	MaxSize     int
}

func NewPaginator(cfg config.PaginationConfig) Paginator {
	p := Paginator{DefaultSize: cfg.DefaultPageSize, MaxSize: cfg.MaxPageSize}
	if p.DefaultSize <= 0 {
		p.DefaultSize = 20
	}
	if p.MaxSize <= 0 {
		p.MaxSize = 100
	}
	if p.DefaultSize > p.MaxSize {
		p.DefaultSize = p.MaxSize
	}
	return p
}

func (p Paginator) Normalize(req PageRequest) PageRequest {
	if req.Page < 1 {
		req.Page = 1
	}
	switch {
	case req.PageSize < 1:
		req.PageSize = p.DefaultSize
	case req.PageSize > p.MaxSize:
		req.PageSize = p.MaxSize
	}
	// page*page_size must fit in an int
	if maxPage := math.MaxInt / req.PageSize; req.Page > maxPage {
		req.Page = maxPage
	}
	return req
}
