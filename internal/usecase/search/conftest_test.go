package search

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/stylesearch/internal/domain"
	"github.com/kailas-cloud/stylesearch/internal/domain/catalog"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/stylesearch/internal/usecase/expansion"
)

// memCatalog evaluates find queries over an in-memory item list.
type memCatalog struct {
	mu      sync.Mutex
	items   []catalog.Item
	err     error
	counts  []catalog.FindQuery
	finds   []catalog.FindQuery
	countFn func(q catalog.FindQuery) (int, error)
}

func (m *memCatalog) Count(_ context.Context, q catalog.FindQuery) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts = append(m.counts, q)
	if m.countFn != nil {
		return m.countFn(q)
	}
	if m.err != nil {
		return 0, m.err
	}
	return len(m.match(q)), nil
}

func (m *memCatalog) Find(_ context.Context, q catalog.FindQuery) (catalog.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finds = append(m.finds, q)
	if m.err != nil {
		return catalog.Page{}, m.err
	}
	hits := m.match(q)
	total := len(hits)
	if q.Offset >= len(hits) {
		hits = nil
	} else {
		hits = hits[q.Offset:min(q.Offset+q.Limit, len(hits))]
	}
	return catalog.Page{Hits: hits, Total: total}, nil
}

func (m *memCatalog) match(q catalog.FindQuery) []catalog.Hit {
	var out []catalog.Hit
	for _, it := range m.items {
		score, ok := textScore(it, q.Text)
		if !ok || !matchExpr(it, q.Filter) {
			continue
		}
		out = append(out, catalog.Hit{Item: it, Score: score})
	}
	return out
}

func textScore(it catalog.Item, terms []string) (float64, bool) {
	if len(terms) == 0 {
		return 1, true
	}
	words := strings.Fields(strings.ToLower(strings.Join([]string{
		it.Name, it.Brand, it.Category, it.Description, strings.Join(it.Tags, " "),
	}, " ")))
	var score float64
	for _, t := range terms {
		for _, w := range words {
			if w == t {
				score++
			}
		}
	}
	return score, score > 0
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

func fieldValues(it catalog.Item, key string) []string {
	switch key {
	case catalog.FieldID:
		return []string{it.ID}
	case catalog.FieldName:
		return strings.Fields(it.Name)
	case catalog.FieldBrand:
		return []string{it.Brand}
	case catalog.FieldCategory:
		return []string{it.Category}
	case catalog.FieldOccasion:
		return []string{it.Occasion}
	case catalog.FieldColors:
		return it.Colors
	case catalog.FieldSizes:
		return it.Sizes
	case catalog.FieldTags:
		return it.Tags
	}
	return nil
}

func matchCond(it catalog.Item, c filter.Condition) bool {
	if c.IsRange() {
		var v float64
		switch c.Key() {
		case catalog.FieldPrice:
			v = it.Price
		case catalog.FieldRating:
			if it.Rating == nil {
				return false
			}
			v = *it.Rating
		}
		return c.Range().Contains(v)
	}
	for _, have := range fieldValues(it, c.Key()) {
		have = strings.ToLower(have)
		for _, want := range c.Values() {
			want = strings.ToLower(want)
			if have == want || (c.Prefix() && strings.HasPrefix(have, want)) {
				return true
			}
		}
	}
	return false
}

type stubCaptioner struct {
	caption string
	calls   int
}

func (s *stubCaptioner) DescribeImage(_ context.Context, _ *domain.Image) string {
	s.calls++
	return s.caption
}

type stubParser struct {
	parsed  expansion.ParsedQuery
	degrade bool
	calls   int
}

func (s *stubParser) ParseQuery(_ context.Context, text string) expansion.ParsedQuery {
	s.calls++
	if s.degrade {
		return expansion.ParsedQuery{SearchTerms: text, Suggestions: []string{}}
	}
	return s.parsed
}

func rating(v float64) *float64 { return &v }

var baseTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func fixtureItems() []catalog.Item {
	return []catalog.Item{
		{ID: "p01", Name: "Red Cotton Shirt", Brand: "Zara", Category: "Shirt", Occasion: "Casual", Price: 45,
			Colors: []string{"Red"}, Sizes: []string{"M", "L"}, Rating: rating(4.2), CreatedAt: baseTime.Add(1 * time.Hour)},
		{ID: "p02", Name: "Red Silk Shirt", Brand: "Biba", Category: "Shirt", Occasion: "Party", Price: 140,
			Colors: []string{"Red"}, Sizes: []string{"S"}, Rating: rating(4.8), CreatedAt: baseTime.Add(2 * time.Hour)},
		{ID: "p03", Name: "Blue Slim Jeans", Brand: "Levis", Category: "Jeans", Occasion: "Casual", Price: 60,
			Colors: []string{"Blue"}, Sizes: []string{"32"}, Rating: rating(4.0), CreatedAt: baseTime.Add(3 * time.Hour)},
		{ID: "p04", Name: "Black Skinny Jeans", Brand: "Levis", Category: "Jeans", Occasion: "Casual", Price: 95,
			Colors: []string{"Black"}, Sizes: []string{"30"}, CreatedAt: baseTime.Add(4 * time.Hour)},
		{ID: "p05", Name: "Maroon Wedding Saree", Brand: "Sabya", Category: "Saree", Occasion: "Wedding", Price: 480,
			Colors: []string{"Maroon"}, Sizes: []string{"Free"}, Rating: rating(4.9), CreatedAt: baseTime.Add(5 * time.Hour)},
		{ID: "p06", Name: "Pink Party Dress", Brand: "Zara", Category: "Dress", Occasion: "Party", Price: 85,
			Colors: []string{"Pink"}, Sizes: []string{"M"}, Rating: rating(3.9), CreatedAt: baseTime.Add(6 * time.Hour)},
		{ID: "p07", Name: "White Linen Shirt", Brand: "Uniqlo", Category: "Shirt", Occasion: "Office", Price: 55,
			Colors: []string{"White"}, Sizes: []string{"L"}, Rating: rating(4.1), CreatedAt: baseTime.Add(7 * time.Hour)},
	}
}

func newTestService(t *testing.T, items []catalog.Item, c *stubCaptioner, p *stubParser) (*Service, *memCatalog) {
	t.Helper()
	mc := &memCatalog{items: items}
	var captioner Captioner
	if c != nil {
		captioner = c
	}
	var parser Parser
	if p != nil {
		parser = p
	}
	svc := New(NewBuilder(0, 0), NewEngine(mc, 0, zap.NewNop()), captioner, parser, zap.NewNop())
	return svc, mc
}
