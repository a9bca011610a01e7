package result

import (
	"github.com/kailas-cloud/stylesearch/internal/domain/catalog"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/stage"
)

// MaxAugmentItems caps recommendations and comparisons.
const MaxAugmentItems = 5

// Page is the ranked, paginated outcome of one search.
type Page struct {
	Items       []catalog.Item
	TotalCount  int
	Page        int
	PageSize    int
	Suggestions []string
	// Stage is the retrieval stage that produced Items, stage.None when empty.
	Stage stage.Kind
	// Keywords are the merged text terms the query ran with.
	Keywords []string
}

// Empty returns a page with no items for the given paging.
func Empty(page, pageSize int) Page {
	return Page{Items: []catalog.Item{}, Page: page, PageSize: pageSize, Stage: stage.None}
}

// Pages returns the number of pages needed for TotalCount.
func (p Page) Pages() int {
	if p.PageSize <= 0 || p.TotalCount == 0 {
		return 0
	}
	return (p.TotalCount + p.PageSize - 1) / p.PageSize
}

// Focal returns the first item, the focal item for augmentation.
func (p Page) Focal() (catalog.Item, bool) {
	if len(p.Items) == 0 {
		return catalog.Item{}, false
	}
	return p.Items[0], true
}

// Augmentation holds items derived from a focal item.
type Augmentation struct {
	Recommendations []catalog.Item
	Comparisons     []catalog.Item
}

// EmptyAugmentation has both sequences empty, never nil.
func EmptyAugmentation() Augmentation {
	return Augmentation{Recommendations: []catalog.Item{}, Comparisons: []catalog.Item{}}
}

// ComparedItem is an item with AI generated pros and cons.
type ComparedItem struct {
	Item catalog.Item
	Pros []string
	Cons []string
}

// Comparison is the narrative comparison of caller selected items.
type Comparison struct {
	Items   []ComparedItem
	Summary string
}

// Detail is a single item with related items of the same category.
type Detail struct {
	Item    catalog.Item
	Related []catalog.Item
}

// BrandStats is the price profile of one brand.
type BrandStats struct {
	Brand        string
	AveragePrice float64
	ItemCount    int
}

// BrandComparison compares the average price of two brands.
type BrandComparison struct {
	A       BrandStats
	B       BrandStats
	Verdict string
}

// Recommendation is a preference driven suggestion with matching items.
type Recommendation struct {
	Suggestion string
	Items      []catalog.Item
}
