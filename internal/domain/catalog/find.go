package catalog

import "github.com/kailas-cloud/stylesearch/internal/domain/search/filter"

// Item field names as the store indexes them.
const (
	FieldID          = "id"
	FieldName        = "name"
	FieldBrand       = "brand"
	FieldCategory    = "category"
	FieldOccasion    = "occasion"
	FieldColors      = "colors"
	FieldSizes       = "sizes"
	FieldTags        = "tags"
	FieldDescription = "description"
	FieldPrice       = "price"
	FieldRating      = "rating"
	FieldCreatedAt   = "created_at"
)

// Sort orders store results by a numeric field. The zero value keeps the store
// default: relevance score when text terms are present.
type Sort struct {
	Field string
	Desc  bool
}

// IsZero reports whether no explicit sort is requested.
func (s Sort) IsZero() bool { return s.Field == "" }

// FindQuery is one store lookup: filter AND (any of Text), sorted, windowed.
type FindQuery struct {
	Filter filter.Expression
	// Text holds free-text relevance terms. Items matching any term qualify.
	Text   []string
	Sort   Sort
	Offset int
	Limit  int
}

// Hit is an item with its store relevance score (0 without text terms).
type Hit struct {
	Item  Item
	Score float64
}

// Page is a window of hits plus the total match count of the query.
type Page struct {
	Hits  []Hit
	Total int
}

// Items returns the items of the page in order.
func (p Page) Items() []Item {
	items := make([]Item, len(p.Hits))
	for i := range p.Hits {
		items[i] = p.Hits[i].Item
	}
	return items
}

// PrefixConditions matches token as a word prefix on the name and as a tag
// prefix on every other field. Callers put the result in one OR group.
func PrefixConditions(token string, fields ...string) ([]filter.Condition, error) {
	out := make([]filter.Condition, 0, len(fields))
	for _, f := range fields {
		var (
			c   filter.Condition
			err error
		)
		if f == FieldName {
			c, err = filter.NewTextPrefix(f, token)
		} else {
			c, err = filter.NewTagPrefix(f, token)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
