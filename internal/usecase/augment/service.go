package augment

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/stylesearch/internal/domain"
	"github.com/kailas-cloud/stylesearch/internal/domain/catalog"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/query"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/result"
	"github.com/kailas-cloud/stylesearch/internal/logger"
	"github.com/kailas-cloud/stylesearch/internal/usecase/expansion"
)

// Defaults for Config.
const (
	DefaultPriceBand      = 100.0
	DefaultRelatedLimit   = 4
	DefaultRecommendLimit = 10
	DefaultMaxCompareIDs  = 10
	// maxPreferenceTerms bounds the OR group built from free-form preferences.
	maxPreferenceTerms = 12
)

var preferenceFields = []string{catalog.FieldName, catalog.FieldCategory, catalog.FieldColors}

// Config tunes the augmentation lookups.
type Config struct {
	// PriceBand is the half width of the comparison price interval.
	PriceBand float64
	// Limit caps recommendations and comparisons.
	Limit          int
	RelatedLimit   int
	RecommendLimit int
	MaxCompareIDs  int
}

// DefaultConfig returns the stock augmentation settings.
func DefaultConfig() Config {
	return Config{
		PriceBand:      DefaultPriceBand,
		Limit:          result.MaxAugmentItems,
		RelatedLimit:   DefaultRelatedLimit,
		RecommendLimit: DefaultRecommendLimit,
		MaxCompareIDs:  DefaultMaxCompareIDs,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PriceBand <= 0 {
		c.PriceBand = d.PriceBand
	}
	if c.Limit <= 0 || c.Limit > result.MaxAugmentItems {
		c.Limit = d.Limit
	}
	if c.RelatedLimit <= 0 {
		c.RelatedLimit = d.RelatedLimit
	}
	if c.RecommendLimit <= 0 {
		c.RecommendLimit = d.RecommendLimit
	}
	if c.MaxCompareIDs < 2 {
		c.MaxCompareIDs = d.MaxCompareIDs
	}
	return c
}

// Service derives items and narratives around a focal item.
type Service struct {
	catalog Catalog
	advisor Advisor
	cfg     Config
	logger  *zap.Logger
}

// New creates an augmentation service. advisor can be nil, in which case every
// narrative takes its degraded form.
func New(c Catalog, advisor Advisor, cfg Config, logger *zap.Logger) *Service {
	return &Service{catalog: c, advisor: advisor, cfg: cfg.withDefaults(), logger: logger}
}

// Augment loads the item and computes its augmentation.
// A missing item is reported as ErrNotFound because it was asked for by id.
func (s *Service) Augment(ctx context.Context, id string) (result.Augmentation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return result.Augmentation{}, domain.NewValidationError("id", "is required")
	}
	focal, err := s.catalog.Get(ctx, id)
	if err != nil {
		return result.Augmentation{}, fmt.Errorf("get focal item: %w", err)
	}
	return s.ForItem(ctx, &focal)
}

// ForItem computes recommendations and comparisons for focal concurrently.
// A nil focal yields an empty augmentation.
func (s *Service) ForItem(ctx context.Context, focal *catalog.Item) (result.Augmentation, error) {
	aug := result.EmptyAugmentation()
	if focal == nil {
		return aug, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.recommendations(gctx, focal)
		if err != nil {
			return fmt.Errorf("recommendations: %w", err)
		}
		aug.Recommendations = items
		return nil
	})
	g.Go(func() error {
		items, err := s.comparisons(gctx, focal)
		if err != nil {
			return fmt.Errorf("comparisons: %w", err)
		}
		aug.Comparisons = items
		return nil
	})
	if err := g.Wait(); err != nil {
		return result.Augmentation{}, err
	}

	logger.FromContextOr(ctx, s.logger).Debug("Augmentation computed",
		zap.String("focal", focal.ID),
		zap.Int("recommendations", len(aug.Recommendations)),
		zap.Int("comparisons", len(aug.Comparisons)),
	)
	return aug, nil
}

// recommendations: same category OR same brand, store default order.
func (s *Service) recommendations(ctx context.Context, focal *catalog.Item) ([]catalog.Item, error) {
	var should []filter.Condition
	for _, m := range []struct{ field, value string }{
		{catalog.FieldCategory, focal.Category},
		{catalog.FieldBrand, focal.Brand},
	} {
		if strings.TrimSpace(m.value) == "" {
			continue
		}
		c, err := filter.NewMatch(m.field, m.value)
		if err != nil {
			return nil, err
		}
		should = append(should, c)
	}
	if len(should) == 0 {
		return []catalog.Item{}, nil
	}
	return s.findExcluding(ctx, focal.ID, nil, should, s.cfg.Limit)
}

// comparisons: price within the band around the focal price, bounds inclusive.
func (s *Service) comparisons(ctx context.Context, focal *catalog.Item) ([]catalog.Item, error) {
	band, err := PriceBand(focal.Price, s.cfg.PriceBand)
	if err != nil {
		return nil, err
	}
	return s.findExcluding(ctx, focal.ID, []filter.Condition{band}, nil, s.cfg.Limit)
}

// PriceBand builds the inclusive range [price-width, price+width] on the price field.
func PriceBand(price, width float64) (filter.Condition, error) {
	lo, hi := price-width, price+width
	r, err := filter.Between(&lo, &hi)
	if err != nil {
		return filter.Condition{}, err
	}
	return filter.NewRange(catalog.FieldPrice, r)
}

func (s *Service) findExcluding(
	ctx context.Context, id string, must, should []filter.Condition, limit int,
) ([]catalog.Item, error) {
	var mustNot []filter.Condition
	if id != "" {
		self, err := filter.NewMatch(catalog.FieldID, id)
		if err != nil {
			return nil, err
		}
		mustNot = append(mustNot, self)
	}
	expr, err := filter.NewExpression(must, should, mustNot)
	if err != nil {
		return nil, err
	}
	page, err := s.catalog.Find(ctx, catalog.FindQuery{Filter: expr, Limit: limit})
	if err != nil {
		return nil, err
	}
	items := page.Items()
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Detail returns one item with up to RelatedLimit other items of its category.
func (s *Service) Detail(ctx context.Context, id string) (result.Detail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return result.Detail{}, domain.NewValidationError("id", "is required")
	}
	it, err := s.catalog.Get(ctx, id)
	if err != nil {
		return result.Detail{}, fmt.Errorf("get item: %w", err)
	}
	sameCategory, err := filter.NewMatch(catalog.FieldCategory, it.Category)
	if err != nil {
		return result.Detail{Item: it, Related: []catalog.Item{}}, nil
	}
	related, err := s.findExcluding(ctx, it.ID, []filter.Condition{sameCategory}, nil, s.cfg.RelatedLimit)
	if err != nil {
		return result.Detail{}, fmt.Errorf("related items: %w", err)
	}
	return result.Detail{Item: it, Related: related}, nil
}

// CompareByIDs asks the advisor for a narrative over the given items.
// At least two distinct ids are required and every id must exist.
func (s *Service) CompareByIDs(ctx context.Context, ids []string) (result.Comparison, error) {
	distinct := distinctIDs(ids)
	if len(distinct) < 2 {
		return result.Comparison{}, domain.NewValidationError("ids", "at least two distinct item ids are required")
	}
	if len(distinct) > s.cfg.MaxCompareIDs {
		return result.Comparison{}, domain.NewValidationError("ids",
			fmt.Sprintf("at most %d items can be compared", s.cfg.MaxCompareIDs))
	}

	items, missing, err := s.catalog.GetMany(ctx, distinct)
	if err != nil {
		return result.Comparison{}, fmt.Errorf("load items: %w", err)
	}
	if len(missing) > 0 {
		return result.Comparison{}, domain.NewNotFound(missing...)
	}

	summary, notes := s.compare(ctx, items)
	out := result.Comparison{Summary: summary, Items: make([]result.ComparedItem, len(items))}
	for i := range items {
		n := notes[items[i].ID]
		out.Items[i] = result.ComparedItem{Item: items[i], Pros: nonNil(n.Pros), Cons: nonNil(n.Cons)}
	}
	return out, nil
}

func (s *Service) compare(ctx context.Context, items []catalog.Item) (string, map[string]expansion.Notes) {
	if s.advisor == nil {
		return expansion.CompareFallbackSummary, nil
	}
	cmp := s.advisor.Compare(ctx, items)
	return cmp.Summary, cmp.Notes
}

// BrandCompare compares the average prices of two brands.
func (s *Service) BrandCompare(ctx context.Context, brandA, brandB string) (result.BrandComparison, error) {
	brandA, brandB = strings.TrimSpace(brandA), strings.TrimSpace(brandB)
	if brandA == "" {
		return result.BrandComparison{}, domain.NewValidationError("brandA", "is required")
	}
	if brandB == "" {
		return result.BrandComparison{}, domain.NewValidationError("brandB", "is required")
	}

	var a, b result.BrandStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		a, err = s.catalog.BrandStats(gctx, brandA)
		return err
	})
	g.Go(func() (err error) {
		b, err = s.catalog.BrandStats(gctx, brandB)
		return err
	})
	if err := g.Wait(); err != nil {
		return result.BrandComparison{}, fmt.Errorf("brand stats: %w", err)
	}

	cheaper := brandB
	if a.AveragePrice < b.AveragePrice {
		cheaper = brandA
	}
	return result.BrandComparison{A: a, B: b, Verdict: cheaper + " is cheaper"}, nil
}

// Recommend returns an AI suggestion for free-form preferences and up to
// RecommendLimit items whose name, category or colors start with a preference term.
// Without usable terms the newest items are returned.
func (s *Service) Recommend(ctx context.Context, preferences string) (result.Recommendation, error) {
	preferences = strings.TrimSpace(preferences)
	if preferences == "" {
		return result.Recommendation{}, domain.NewValidationError("preferences", "is required")
	}
	if len(preferences) > query.MaxQueryLength {
		return result.Recommendation{}, domain.NewValidationError("preferences",
			fmt.Sprintf("must be at most %d bytes", query.MaxQueryLength))
	}

	var (
		suggestion string
		items      []catalog.Item
	)
	g, gctx := errgroup.WithContext(ctx)
	if s.advisor != nil {
		g.Go(func() error {
			suggestion = s.advisor.Suggest(gctx, preferences)
			return nil
		})
	}
	g.Go(func() error {
		var err error
		items, err = s.matchPreferences(gctx, query.Normalize(preferences).Limit(maxPreferenceTerms))
		return err
	})
	if err := g.Wait(); err != nil {
		return result.Recommendation{}, fmt.Errorf("match preferences: %w", err)
	}
	return result.Recommendation{Suggestion: suggestion, Items: items}, nil
}

func (s *Service) matchPreferences(ctx context.Context, terms query.TermSet) ([]catalog.Item, error) {
	var should []filter.Condition
	for _, t := range terms {
		group, err := catalog.PrefixConditions(t, preferenceFields...)
		if err != nil {
			return nil, err
		}
		should = append(should, group...)
	}
	expr, err := filter.NewExpression(nil, should, nil)
	if err != nil {
		return nil, err
	}
	q := catalog.FindQuery{Filter: expr, Limit: s.cfg.RecommendLimit}
	if len(should) == 0 {
		q.Sort = catalog.Sort{Field: catalog.FieldCreatedAt, Desc: true}
	}
	page, err := s.catalog.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	return page.Items(), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// distinctIDs trims ids and drops blanks and exact duplicates, keeping order.
func distinctIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
