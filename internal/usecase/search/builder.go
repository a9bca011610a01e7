package search

import (
	"strings"

	"github.com/kailas-cloud/stylesearch/internal/domain/search/query"
	"github.com/kailas-cloud/stylesearch/internal/usecase/expansion"
)

// Builder defaults.
const (
	DefaultMaxPageSize = 100
	DefaultMaxKeywords = 12
)

// Builder merges caller input and AI output into one canonical query.
type Builder struct {
	maxPageSize int
	maxKeywords int
}

// NewBuilder creates a builder. Non-positive limits use the defaults.
func NewBuilder(maxPageSize, maxKeywords int) Builder {
	if maxPageSize <= 0 {
		maxPageSize = DefaultMaxPageSize
	}
	if maxKeywords <= 0 {
		maxKeywords = DefaultMaxKeywords
	}
	return Builder{maxPageSize: maxPageSize, maxKeywords: maxKeywords}
}

// Build produces the canonical query for req. caption is the image description and
// parsed the AI reading of req.Text; both may be degraded (empty) values.
//
// User tokens and AI search terms form the free text. Without usable user tokens,
// AI and image terms become keywords for the narrowed stage instead. The price
// bound is the intersection of the "under N" phrase, the caller's price object
// and the AI price.
func (b Builder) Build(req Request, caption string, parsed expansion.ParsedQuery) (query.Query, error) {
	if err := req.Validate(); err != nil {
		return query.Query{}, err
	}
	callerPrice, err := req.Price.Resolve()
	if err != nil {
		return query.Query{}, err
	}

	text := strings.TrimSpace(req.Text)
	userTerms := query.Normalize(query.StripPrice(text))
	aiTerms := query.Normalize(query.StripPrice(parsed.SearchTerms))
	imageTerms := query.Normalize(caption)

	q := query.Query{
		ImageTerms:   imageTerms.Limit(b.maxKeywords),
		RawFirstWord: query.FirstWord(query.StripPrice(text)),
		Page:         req.Page,
		PageSize:     req.PageSize,
		Order:        req.Order,
	}
	if len(userTerms) > 0 {
		q.FreeText = userTerms.Union(aiTerms).Limit(b.maxKeywords)
	} else {
		q.Keywords = aiTerms.Union(imageTerms).Limit(b.maxKeywords)
	}

	caller := req.filters()
	caller.Price = query.ExtractPrice(text).Intersect(callerPrice)
	q.Filters = caller.Merge(parsed.Filters.Filters())

	q = q.WithDefaults()
	if q.PageSize > b.maxPageSize {
		q.PageSize = b.maxPageSize
	}
	if err := q.Validate(); err != nil {
		return query.Query{}, err
	}
	return q, nil
}
