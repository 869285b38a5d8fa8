// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"backoffice/internal/core/identifier"
	"backoffice/internal/domain"
)

// ListQuery holds list query parameters.
type ListQuery struct {
	Search            string `form:"search"`
	NonSequentialOnly bool   `form:"nonSequential"`
	Family            string `form:"family"`
	OrderBy           string `form:"orderBy"`
	Limit             int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset            int    `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts query parameters to a domain filter.
func (q ListQuery) ToFilter() domain.ListFilter {
	filter := domain.DefaultListFilter()
	filter.Search = q.Search
	filter.NonSequentialOnly = q.NonSequentialOnly
	filter.Family = identifier.Key(q.Family)
	if q.OrderBy != "" {
		filter.OrderBy = q.OrderBy
	}
	if q.Limit > 0 {
		filter.Limit = q.Limit
	}
	filter.Offset = q.Offset
	return filter
}

// ListResponse wraps list results with pagination.
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// FromListResult converts a domain list result.
func FromListResult[T any](res domain.ListResult[T]) ListResponse[T] {
	items := res.Items
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{
		Items:      items,
		TotalCount: res.TotalCount,
		Limit:      res.Limit,
		Offset:     res.Offset,
	}
}
