package params

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultLimit = 20
	maxLimit     = 50
)

// Pagination describes one page of an in-memory listing, e.g.
// /v1/wishlist?page=2&limit=10.
type Pagination struct {
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
	Page       int  `json:"page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// ParsePagination reads ?limit= and ?page=. Invalid values fall back to the
// defaults and limit is capped.
func ParsePagination(q url.Values) Pagination {
	p := Pagination{Limit: defaultLimit, Page: 1}

	if s := strings.TrimSpace(q.Get("limit")); s != "" {
		if limit, err := strconv.Atoi(s); err == nil {
			switch {
			case limit <= 0:
				p.Limit = defaultLimit
			case limit > maxLimit:
				p.Limit = maxLimit
			default:
				p.Limit = limit
			}
		}
	}

	if s := strings.TrimSpace(q.Get("page")); s != "" {
		if page, err := strconv.Atoi(s); err == nil && page > 0 {
			p.Page = page
		}
	}

	p.Offset = (p.Page - 1) * p.Limit
	return p
}

// ComputeMeta fills the totals once the full size is known.
func (p *Pagination) ComputeMeta(total int) {
	p.Total = total
	if p.Limit > 0 {
		p.TotalPages = int(math.Ceil(float64(total) / float64(p.Limit)))
	}
	p.HasPrev = p.Page > 1
	p.HasNext = (p.Page * p.Limit) < total
}

// Slice returns the page of items and updates p's metadata.
func Slice[T any](items []T, p *Pagination) []T {
	p.ComputeMeta(len(items))
	if p.Offset >= len(items) {
		return []T{}
	}
	end := min(p.Offset+p.Limit, len(items))
	return items[p.Offset:end]
}
