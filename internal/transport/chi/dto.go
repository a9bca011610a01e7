package chi

import (
	"github.com/kailas-cloud/stylesearch/internal/domain/catalog"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/order"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/query"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/result"
	searchuc "github.com/kailas-cloud/stylesearch/internal/usecase/search"
)

// ErrorCode is the machine readable error class of an ErrorResponse.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeNotFound         ErrorCode = "not_found"
	ErrorCodeStoreUnavailable ErrorCode = "store_unavailable"
	ErrorCodeRateLimited      ErrorCode = "rate_limited"
	ErrorCodeAIProviderError  ErrorCode = "ai_provider_error"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchFilters are the structured filters of a search body.
type SearchFilters struct {
	Categories []string          `json:"categories,omitempty"`
	Brands     []string          `json:"brands,omitempty"`
	Colors     []string          `json:"colors,omitempty"`
	Sizes      []string          `json:"sizes,omitempty"`
	Occasions  []string          `json:"occasions,omitempty"`
	Price      query.PriceFilter `json:"price"`
	MinRating  *float64          `json:"minRating,omitempty"`
}

// SearchBody is the JSON form of POST /search.
type SearchBody struct {
	Query   string        `json:"query"`
	Filters SearchFilters `json:"filters"`
	Page    int           `json:"page"`
	Limit   int           `json:"limit"`
	Sort    string        `json:"sort"`
}

func (b SearchBody) toRequest() searchuc.Request {
	return searchuc.Request{
		Text:       b.Query,
		Categories: b.Filters.Categories,
		Brands:     b.Filters.Brands,
		Colors:     b.Filters.Colors,
		Sizes:      b.Filters.Sizes,
		Occasions:  b.Filters.Occasions,
		Price:      b.Filters.Price,
		MinRating:  b.Filters.MinRating,
		Page:       b.Page,
		PageSize:   b.Limit,
		Order:      order.Order(b.Sort),
	}
}

// SearchResponse is the body of GET and POST /search.
type SearchResponse struct {
	Items           []catalog.Item `json:"items"`
	Count           int            `json:"count"`
	Page            int            `json:"page"`
	PageSize        int            `json:"pageSize"`
	Pages           int            `json:"pages"`
	Suggestions     []string       `json:"suggestions"`
	Stage           string         `json:"stage"`
	Keywords        []string       `json:"keywords"`
	Recommendations []catalog.Item `json:"recommendations"`
	Comparisons     []catalog.Item `json:"comparisons"`
}

func searchResponse(p result.Page, aug result.Augmentation) SearchResponse {
	return SearchResponse{
		Items:           nonNilItems(p.Items),
		Count:           p.TotalCount,
		Page:            p.Page,
		PageSize:        p.PageSize,
		Pages:           p.Pages(),
		Suggestions:     nonNilStrings(p.Suggestions),
		Stage:           string(p.Stage),
		Keywords:        nonNilStrings(p.Keywords),
		Recommendations: nonNilItems(aug.Recommendations),
		Comparisons:     nonNilItems(aug.Comparisons),
	}
}

// ListResponse is the body of item listings.
type ListResponse struct {
	Items []catalog.Item `json:"items"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// DetailResponse is the body of GET /items/{id}.
type DetailResponse struct {
	Item    catalog.Item   `json:"item"`
	Related []catalog.Item `json:"related"`
}

// AugmentResponse is the body of GET /items/{id}/augment.
type AugmentResponse struct {
	Recommendations []catalog.Item `json:"recommendations"`
	Comparisons     []catalog.Item `json:"comparisons"`
}

// CompareBody is the body of POST /compare.
type CompareBody struct {
	IDs []string `json:"ids"`
}

// ComparedItem is an item with its pros and cons.
type ComparedItem struct {
	catalog.Item
	Pros []string `json:"pros"`
	Cons []string `json:"cons"`
}

// CompareResponse is the body of a successful POST /compare.
type CompareResponse struct {
	Items   []ComparedItem `json:"items"`
	Summary string         `json:"summary"`
}

func compareResponse(c result.Comparison) CompareResponse {
	items := make([]ComparedItem, len(c.Items))
	for i, ci := range c.Items {
		items[i] = ComparedItem{Item: ci.Item, Pros: nonNilStrings(ci.Pros), Cons: nonNilStrings(ci.Cons)}
	}
	return CompareResponse{Items: items, Summary: c.Summary}
}

// BrandCompareBody is the body of POST /brands/compare.
type BrandCompareBody struct {
	BrandA string `json:"brandA"`
	BrandB string `json:"brandB"`
}

// BrandStats is the price profile of one brand.
type BrandStats struct {
	Brand        string  `json:"brand"`
	AveragePrice float64 `json:"averagePrice"`
	ItemCount    int     `json:"itemCount"`
}

// BrandCompareResponse is the body of POST /brands/compare.
type BrandCompareResponse struct {
	BrandA  BrandStats `json:"brandA"`
	BrandB  BrandStats `json:"brandB"`
	Verdict string     `json:"verdict"`
}

func brandStats(s result.BrandStats) BrandStats {
	return BrandStats{Brand: s.Brand, AveragePrice: s.AveragePrice, ItemCount: s.ItemCount}
}

// RecommendBody is the body of POST /recommend.
type RecommendBody struct {
	Preferences string `json:"preferences"`
}

// RecommendResponse is the body of POST /recommend.
type RecommendResponse struct {
	Suggestion string         `json:"suggestion"`
	Items      []catalog.Item `json:"items"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func nonNilItems(items []catalog.Item) []catalog.Item {
	if items == nil {
		return []catalog.Item{}
	}
	return items
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
