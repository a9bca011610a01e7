package stylesearch

import (
	"github.com/kailas-cloud/stylesearch/internal/domain"
	"github.com/kailas-cloud/stylesearch/internal/domain/catalog"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/order"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/query"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/result"
	searchuc "github.com/kailas-cloud/stylesearch/internal/usecase/search"
)

// Item is a catalog entry.
type Item = catalog.Item

// Sort orders supported by Search.
const (
	SortDefault    = ""
	SortRelevance  = string(order.Relevance)
	SortNewest     = string(order.Newest)
	SortPriceAsc   = string(order.PriceAsc)
	SortPriceDesc  = string(order.PriceDesc)
	SortRatingDesc = string(order.RatingDesc)
)

// Filters narrows a search. Empty lists and nil bounds do not filter.
type Filters struct {
	Categories []string
	Brands     []string
	Colors     []string
	Sizes      []string
	Occasions  []string
	MinPrice   *float64
	MaxPrice   *float64
	MinRating  *float64
}

// SearchRequest is one search: free text, an optional image and filters.
type SearchRequest struct {
	Query string
	// Image holds raw JPEG, PNG, GIF or WebP bytes.
	Image    []byte
	Filters  Filters
	Page     int
	PageSize int
	Sort     string
}

// SearchResult is a ranked page plus the augmentation of its first item.
type SearchResult struct {
	Items       []Item
	Total       int
	Page        int
	PageSize    int
	Pages       int
	Stage       string
	Keywords    []string
	Suggestions []string
	Augmentation
}

// Augmentation holds similar items and price alternatives for a focal item.
type Augmentation struct {
	Recommendations []Item
	Comparisons     []Item
}

// ComparedItem is an item with its AI pros and cons.
type ComparedItem struct {
	Item
	Pros []string
	Cons []string
}

// Comparison is the outcome of CompareByIDs.
type Comparison struct {
	Items   []ComparedItem
	Summary string
}

// Detail is an item with related items of the same category.
type Detail struct {
	Item    Item
	Related []Item
}

func toSearchRequest(r SearchRequest) (searchuc.Request, error) {
	req := searchuc.Request{
		Text:       r.Query,
		Categories: r.Filters.Categories,
		Brands:     r.Filters.Brands,
		Colors:     r.Filters.Colors,
		Sizes:      r.Filters.Sizes,
		Occasions:  r.Filters.Occasions,
		MinRating:  r.Filters.MinRating,
		Page:       r.Page,
		PageSize:   r.PageSize,
		Order:      order.Order(r.Sort),
	}
	if r.Filters.MinPrice != nil {
		req.Price.Min = query.AmountOf(*r.Filters.MinPrice)
	}
	if r.Filters.MaxPrice != nil {
		req.Price.Max = query.AmountOf(*r.Filters.MaxPrice)
	}
	if len(r.Image) > 0 {
		img, err := domain.NewImage(r.Image)
		if err != nil {
			return searchuc.Request{}, err
		}
		req.Image = img
	}
	return req, nil
}

func fromPage(p result.Page, aug result.Augmentation) *SearchResult {
	return &SearchResult{
		Items:        p.Items,
		Total:        p.TotalCount,
		Page:         p.Page,
		PageSize:     p.PageSize,
		Pages:        p.Pages(),
		Stage:        string(p.Stage),
		Keywords:     p.Keywords,
		Suggestions:  p.Suggestions,
		Augmentation: fromAugmentation(aug),
	}
}

func fromAugmentation(a result.Augmentation) Augmentation {
	return Augmentation{Recommendations: a.Recommendations, Comparisons: a.Comparisons}
}

func fromComparison(c result.Comparison) *Comparison {
	items := make([]ComparedItem, len(c.Items))
	for i, ci := range c.Items {
		items[i] = ComparedItem{Item: ci.Item, Pros: ci.Pros, Cons: ci.Cons}
	}
	return &Comparison{Items: items, Summary: c.Summary}
}
