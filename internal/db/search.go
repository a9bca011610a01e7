package db

import "github.com/kailas-cloud/stylesearch/internal/domain/search/filter"

// SearchQuery is the input for FT.SEARCH. Text terms are ORed and ANDed with Filters;
// with no text and no filters every document matches.
type SearchQuery struct {
	IndexName string
	// Text holds free-text terms. Drivers escape them.
	Text    []string
	Filters filter.Expression
	// SortBy names a SORTABLE field; empty keeps relevance order.
	SortBy       string
	SortDesc     bool
	Offset       int
	Limit        int
	WithScores   bool
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// Reducer is one aggregate function applied per group.
type Reducer struct {
	// Func is the reducer name, e.g. AVG or COUNT.
	Func  string
	Field string
	As    string
}

// GroupQuery is the input for FT.AGGREGATE ... GROUPBY 1 @field REDUCE ...
type GroupQuery struct {
	IndexName string
	Filters   filter.Expression
	GroupBy   string
	Reducers  []Reducer
}
