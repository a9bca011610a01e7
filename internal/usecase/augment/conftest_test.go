package augment

import (
	"context"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/stylesearch/internal/domain"
	"github.com/kailas-cloud/stylesearch/internal/domain/catalog"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/result"
	"github.com/kailas-cloud/stylesearch/internal/usecase/expansion"
)

// memCatalog answers lookups from a fixed item list in insertion order.
type memCatalog struct {
	mu       sync.Mutex
	items    []catalog.Item
	findErr  error
	statsErr error
	finds    []catalog.FindQuery
}

func (m *memCatalog) Get(_ context.Context, id string) (catalog.Item, error) {
	for _, it := range m.items {
		if it.ID == id {
			return it, nil
		}
	}
	return catalog.Item{}, domain.NewNotFound(id)
}

func (m *memCatalog) GetMany(ctx context.Context, ids []string) ([]catalog.Item, []string, error) {
	var (
		found   []catalog.Item
		missing []string
	)
	for _, id := range ids {
		it, err := m.Get(ctx, id)
		if err != nil {
			missing = append(missing, id)
			continue
		}
		found = append(found, it)
	}
	return found, missing, nil
}

func (m *memCatalog) Find(_ context.Context, q catalog.FindQuery) (catalog.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finds = append(m.finds, q)
	if m.findErr != nil {
		return catalog.Page{}, m.findErr
	}
	var hits []catalog.Hit
	for _, it := range m.items {
		if matchExpr(it, q.Filter) {
			hits = append(hits, catalog.Hit{Item: it})
		}
	}
	total := len(hits)
	if q.Limit > 0 && len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}
	return catalog.Page{Hits: hits, Total: total}, nil
}

func (m *memCatalog) BrandStats(_ context.Context, brand string) (result.BrandStats, error) {
	if m.statsErr != nil {
		return result.BrandStats{}, m.statsErr
	}
	stats := result.BrandStats{Brand: brand}
	var sum float64
	for _, it := range m.items {
		if strings.EqualFold(it.Brand, brand) {
			sum += it.Price
			stats.ItemCount++
		}
	}
	if stats.ItemCount > 0 {
		stats.AveragePrice = sum / float64(stats.ItemCount)
	}
	return stats, nil
}

func matchExpr(it catalog.Item, e filter.Expression) bool {
	for _, c := range e.Must() {
		if !matchCond(it, c) {
			return false
		}
	}
	for _, c := range e.MustNot() {
		if matchCond(it, c) {
			return false
		}
	}
	if len(e.Should()) == 0 {
		return true
	}
	for _, c := range e.Should() {
		if matchCond(it, c) {
			return true
		}
	}
	return false
}

func matchCond(it catalog.Item, c filter.Condition) bool {
	if c.IsRange() {
		return c.Key() == catalog.FieldPrice && c.Range().Contains(it.Price)
	}
	var have []string
	switch c.Key() {
	case catalog.FieldID:
		have = []string{it.ID}
	case catalog.FieldName:
		have = strings.Fields(it.Name)
	case catalog.FieldBrand:
		have = []string{it.Brand}
	case catalog.FieldCategory:
		have = []string{it.Category}
	case catalog.FieldColors:
		have = it.Colors
	}
	for _, h := range have {
		h = strings.ToLower(h)
		for _, want := range c.Values() {
			want = strings.ToLower(want)
			if h == want || (c.Prefix() && strings.HasPrefix(h, want)) {
				return true
			}
		}
	}
	return false
}

// stubAdvisor returns a scripted comparison, or the degraded one when fail is set.
type stubAdvisor struct {
	mu         sync.Mutex
	fail       bool
	suggestion string
	compared   [][]string
}

func (s *stubAdvisor) Compare(_ context.Context, items []catalog.Item) expansion.Comparison {
	s.mu.Lock()
	s.compared = append(s.compared, catalog.IDs(items))
	s.mu.Unlock()
	if s.fail {
		return expansion.Comparison{Summary: expansion.CompareFallbackSummary, Notes: map[string]expansion.Notes{}}
	}
	notes := make(map[string]expansion.Notes, len(items))
	for _, it := range items {
		notes[it.ID] = expansion.Notes{
			Pros: []string{it.Brand + " quality", "fits " + it.Category, "good value"},
			Cons: []string{"limited sizes"},
		}
	}
	return expansion.Comparison{Summary: "Both are solid picks.", Notes: notes}
}

func (s *stubAdvisor) Suggest(_ context.Context, _ string) string {
	if s.fail {
		return ""
	}
	return s.suggestion
}

func item(id, name, brand, category string, price float64, colors ...string) catalog.Item {
	return catalog.Item{ID: id, Name: name, Brand: brand, Category: category, Price: price, Colors: colors}
}

func fixtureItems() []catalog.Item {
	return []catalog.Item{
		item("f", "Classic Shirt", "Zara", "Shirt", 200, "White"),
		item("a", "Oxford Shirt", "Uniqlo", "Shirt", 40, "Blue"),
		item("b", "Zara Blazer", "Zara", "Blazer", 350, "Black"),
		item("c", "Low Sneaker", "Nike", "Shoes", 100, "White"),
		item("d", "Trail Runner", "Nike", "Shoes", 300, "Grey"),
		item("e", "Wool Coat", "Mango", "Coat", 301, "Camel"),
		item("g", "Silk Scarf", "Hermes", "Scarf", 99.99, "Red"),
	}
}

func newTestService(t *testing.T, items []catalog.Item, adv *stubAdvisor) (*Service, *memCatalog) {
	t.Helper()
	mc := &memCatalog{items: items}
	var a Advisor
	if adv != nil {
		a = adv
	}
	return New(mc, a, Config{}, zap.NewNop()), mc
}
