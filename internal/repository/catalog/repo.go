package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/stylesearch/internal/db"
	"github.com/kailas-cloud/stylesearch/internal/domain"
	domcat "github.com/kailas-cloud/stylesearch/internal/domain/catalog"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/result"
)

// DefaultFindLimit applies when a lookup does not set a limit.
const DefaultFindLimit = 10

// store is the consumer interface for catalog items (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, q *db.SearchQuery) (int, error)
	Aggregate(ctx context.Context, q *db.GroupQuery) ([]map[string]string, error)
	TagValues(ctx context.Context, index, field string) ([]string, error)
}

// Repo stores catalog items as hashes under "<prefix>item:<id>" indexed by "<prefix>items:idx".
type Repo struct {
	store     store
	keyPrefix string
	index     string
}

// New creates a catalog repository. prefix namespaces keys and the index.
func New(s store, prefix string) *Repo {
	return &Repo{
		store:     s,
		keyPrefix: prefix + "item:",
		index:     prefix + "items:idx",
	}
}

// IndexName returns the FT index the repository queries.
func (r *Repo) IndexName() string { return r.index }

// EnsureIndex creates the search index when it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.index)
	if err != nil {
		return storeErr("index info", err)
	}
	if exists {
		return nil
	}
	def, err := buildIndex(r.index, r.keyPrefix)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return storeErr("create index", err)
	}
	return nil
}

// RecreateIndex drops the search index, keeping the item hashes, and builds it
// again so existing items are re-indexed under the current schema.
func (r *Repo) RecreateIndex(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, r.index); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return storeErr("drop index", err)
	}
	return r.EnsureIndex(ctx)
}

// Upsert validates and writes items in one round-trip.
func (r *Repo) Upsert(ctx context.Context, items ...domcat.Item) error {
	if len(items) == 0 {
		return nil
	}
	batch := make([]db.HashSetItem, len(items))
	for i := range items {
		if err := items[i].Validate(); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrValidation, err)
		}
		batch[i] = db.HashSetItem{Key: r.key(items[i].ID), Fields: buildHashFields(&items[i])}
	}
	if err := r.store.HSetMulti(ctx, batch); err != nil {
		return storeErr("hset", err)
	}
	return nil
}

// Get returns one item or a not-found error naming its id.
func (r *Repo) Get(ctx context.Context, id string) (domcat.Item, error) {
	m, err := r.store.HGetAll(ctx, r.key(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domcat.Item{}, domain.NewNotFound(id)
		}
		return domcat.Item{}, storeErr("hgetall "+id, err)
	}
	return parseHashFields(id, m), nil
}

// GetMany returns the items found, in the order of ids, and the ids that were missing.
func (r *Repo) GetMany(ctx context.Context, ids []string) ([]domcat.Item, []string, error) {
	if len(ids) == 0 {
		return nil, nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}
	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, nil, storeErr("hgetall", err)
	}

	items := make([]domcat.Item, 0, len(ids))
	var missing []string
	for i, m := range maps {
		if m == nil {
			missing = append(missing, ids[i])
			continue
		}
		items = append(items, parseHashFields(ids[i], m))
	}
	return items, missing, nil
}

// Delete removes an item. An unknown id is a not-found error.
func (r *Repo) Delete(ctx context.Context, id string) error {
	exists, err := r.store.Exists(ctx, r.key(id))
	if err != nil {
		return storeErr("exists "+id, err)
	}
	if !exists {
		return domain.NewNotFound(id)
	}
	if err := r.store.Del(ctx, r.key(id)); err != nil {
		return storeErr("del "+id, err)
	}
	return nil
}

// Find runs one lookup. Without an explicit sort, hits carry the store relevance
// score and come back in score order.
func (r *Repo) Find(ctx context.Context, q domcat.FindQuery) (domcat.Page, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultFindLimit
	}
	sq := &db.SearchQuery{
		IndexName:  r.index,
		Text:       q.Text,
		Filters:    q.Filter,
		SortBy:     q.Sort.Field,
		SortDesc:   q.Sort.Desc,
		Offset:     q.Offset,
		Limit:      limit,
		WithScores: q.Sort.IsZero(),
	}
	res, err := r.store.Search(ctx, sq)
	if err != nil {
		return domcat.Page{}, storeErr("search", err)
	}
	if res == nil {
		return domcat.Page{Hits: []domcat.Hit{}}, nil
	}

	hits := make([]domcat.Hit, 0, len(res.Entries))
	for _, e := range res.Entries {
		hits = append(hits, domcat.Hit{
			Item:  parseHashFields(strings.TrimPrefix(e.Key, r.keyPrefix), e.Fields),
			Score: e.Score,
		})
	}
	return domcat.Page{Hits: hits, Total: res.Total}, nil
}

// Count returns the number of items matching the query's filter and text terms.
// Sort and paging are ignored.
func (r *Repo) Count(ctx context.Context, q domcat.FindQuery) (int, error) {
	n, err := r.store.SearchCount(ctx, &db.SearchQuery{IndexName: r.index, Text: q.Text, Filters: q.Filter})
	if err != nil {
		return 0, storeErr("count", err)
	}
	return n, nil
}

// Brands lists distinct brand names in catalog spelling, sorted.
func (r *Repo) Brands(ctx context.Context) ([]string, error) {
	vals, err := r.store.TagValues(ctx, r.index, attrBrandExact)
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return []string{}, nil
		}
		return nil, storeErr("tagvals", err)
	}
	sort.Strings(vals)
	return vals, nil
}

// BrandStats returns the average price and item count of one brand.
// Brand matching is case-insensitive; an unknown brand has zero items.
func (r *Repo) BrandStats(ctx context.Context, brand string) (result.BrandStats, error) {
	cond, err := filter.NewMatch(domcat.FieldBrand, brand)
	if err != nil {
		return result.BrandStats{}, domain.NewValidationError("brand", err.Error())
	}
	expr, err := filter.NewExpression([]filter.Condition{cond}, nil, nil)
	if err != nil {
		return result.BrandStats{}, fmt.Errorf("brand filter: %w", err)
	}

	rows, err := r.store.Aggregate(ctx, &db.GroupQuery{
		IndexName: r.index,
		Filters:   expr,
		Reducers: []db.Reducer{
			{Func: "AVG", Field: domcat.FieldPrice, As: "avg_price"},
			{Func: "COUNT", As: "count"},
		},
	})
	if err != nil {
		return result.BrandStats{}, storeErr("aggregate", err)
	}

	stats := result.BrandStats{Brand: brand}
	if len(rows) > 0 {
		if avg, err := strconv.ParseFloat(rows[0]["avg_price"], 64); err == nil && !math.IsNaN(avg) {
			stats.AveragePrice = avg
		}
		stats.ItemCount, _ = strconv.Atoi(rows[0]["count"])
	}
	return stats, nil
}

func (r *Repo) key(id string) string {
	return r.keyPrefix + id
}

// storeErr marks a storage failure as store unavailability for the layers above.
func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, op, err)
}
