package query

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/stylesearch/internal/domain"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/order"
)

// Paging defaults.
const (
	DefaultPage     = 1
	DefaultPageSize = 12
	// MaxQueryLength bounds the raw free text accepted from callers.
	MaxQueryLength = 1024
)

// Filters are the structured constraints of a query. Each set is matched as
// "item field is any of"; empty sets do not constrain.
type Filters struct {
	Categories []string
	Brands     []string
	Colors     []string
	Sizes      []string
	Occasions  []string
	Price      PriceBound
	MinRating  *float64
}

// IsZero reports whether no constraint is set.
func (f Filters) IsZero() bool {
	return len(f.Categories) == 0 && len(f.Brands) == 0 && len(f.Colors) == 0 &&
		len(f.Sizes) == 0 && len(f.Occasions) == 0 && !f.Price.IsSet() && f.MinRating == nil
}

// Merge unions the sets of both filters and intersects their price bounds.
// MinRating keeps the stricter value.
func (f Filters) Merge(other Filters) Filters {
	out := Filters{
		Categories: UnionFold(f.Categories, other.Categories),
		Brands:     UnionFold(f.Brands, other.Brands),
		Colors:     UnionFold(f.Colors, other.Colors),
		Sizes:      UnionFold(f.Sizes, other.Sizes),
		Occasions:  UnionFold(f.Occasions, other.Occasions),
		Price:      f.Price.Intersect(other.Price),
		MinRating:  f.MinRating,
	}
	if other.MinRating != nil && (out.MinRating == nil || *other.MinRating > *out.MinRating) {
		v := *other.MinRating
		out.MinRating = &v
	}
	return out
}

// UnionFold merges string sets case-insensitively, keeping the first spelling seen.
// Blank values are dropped.
func UnionFold(sets ...[]string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, set := range sets {
		for _, v := range set {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			k := strings.ToLower(v)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// Query is the canonical representation of one request's search intent.
type Query struct {
	FreeText   TermSet
	ImageTerms TermSet
	// Keywords are tokens without user free text behind them, such as AI parsed
	// search terms. They drive the narrowed-keyword stage.
	Keywords     TermSet
	Filters      Filters
	RawFirstWord string
	Page         int
	PageSize     int
	Order        order.Order
}

// TextTerms returns FreeText ∪ ImageTerms.
func (q Query) TextTerms() TermSet {
	return q.FreeText.Union(q.ImageTerms)
}

// HasText reports whether relevance ranking applies.
func (q Query) HasText() bool {
	return len(q.FreeText) > 0 || len(q.ImageTerms) > 0
}

// FallbackSeed returns the token the fallback stage matches on:
// the first keyword token, else the first word of the raw query.
func (q Query) FallbackSeed() string {
	if t := q.FreeText.First(); t != "" {
		return t
	}
	if t := q.Keywords.First(); t != "" {
		return t
	}
	if t := q.ImageTerms.First(); t != "" {
		return t
	}
	return q.RawFirstWord
}

// Offset returns the number of ranked items skipped before the page starts.
func (q Query) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// WithDefaults fills unset paging with defaults.
func (q Query) WithDefaults() Query {
	if q.Page == 0 {
		q.Page = DefaultPage
	}
	if q.PageSize == 0 {
		q.PageSize = DefaultPageSize
	}
	return q
}

// Validate checks paging, ordering and the price invariant.
func (q Query) Validate() error {
	if q.Page < 1 {
		return domain.NewValidationError("page", fmt.Sprintf("must be >= 1, got %d", q.Page))
	}
	if q.PageSize < 1 {
		return domain.NewValidationError("pageSize", fmt.Sprintf("must be >= 1, got %d", q.PageSize))
	}
	if !q.Order.IsValid() {
		return domain.NewValidationError("sort", fmt.Sprintf("unsupported value %q", q.Order))
	}
	p := q.Filters.Price
	if p.Min != nil && p.Max != nil && *p.Min > *p.Max {
		return domain.NewValidationError("price", "min exceeds max")
	}
	return nil
}
