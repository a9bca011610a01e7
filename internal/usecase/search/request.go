package search

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/stylesearch/internal/domain"
	"github.com/kailas-cloud/stylesearch/internal/domain/catalog"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/order"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/query"
)

// Request is one caller search: free text, an optional image and structured filters.
type Request struct {
	Text       string
	Image      *domain.Image
	Categories []string
	Brands     []string
	Colors     []string
	Sizes      []string
	Occasions  []string
	Price      query.PriceFilter
	MinRating  *float64
	Page       int
	PageSize   int
	Order      order.Order
}

// Validate rejects malformed caller input before any AI or store call.
func (r *Request) Validate() error {
	if n := utf8.RuneCountInString(r.Text); n > query.MaxQueryLength {
		return domain.NewValidationError("query", fmt.Sprintf("exceeds %d characters", query.MaxQueryLength))
	}
	if r.Page < 0 {
		return domain.NewValidationError("page", fmt.Sprintf("must be >= 1, got %d", r.Page))
	}
	if r.PageSize < 0 {
		return domain.NewValidationError("pageSize", fmt.Sprintf("must be >= 1, got %d", r.PageSize))
	}
	if !r.Order.IsValid() {
		return domain.NewValidationError("sort", fmt.Sprintf("unsupported value %q", r.Order))
	}
	if r.MinRating != nil && (*r.MinRating < 0 || *r.MinRating > catalog.MaxRating) {
		return domain.NewValidationError("minRating", fmt.Sprintf("must be within [0, %g]", catalog.MaxRating))
	}
	if _, err := r.Price.Resolve(); err != nil {
		return err
	}
	return nil
}

// HasText reports whether the caller typed anything.
func (r *Request) HasText() bool {
	return strings.TrimSpace(r.Text) != ""
}

func (r *Request) filters() query.Filters {
	return query.Filters{
		Categories: query.UnionFold(r.Categories),
		Brands:     query.UnionFold(r.Brands),
		Colors:     query.UnionFold(r.Colors),
		Sizes:      query.UnionFold(r.Sizes),
		Occasions:  query.UnionFold(r.Occasions),
		MinRating:  r.MinRating,
	}
}
