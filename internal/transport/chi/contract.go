package chi

import (
	"context"

	"github.com/kailas-cloud/stylesearch/internal/domain/catalog"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/stylesearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/stylesearch/internal/usecase/search"
)

// Searcher runs the search pipeline.
type Searcher interface {
	Search(ctx context.Context, req searchuc.Request) (result.Page, error)
	ByOccasion(ctx context.Context, occasion string) (result.Page, error)
}

// Augmenter derives items and narratives around catalog items.
type Augmenter interface {
	ForItem(ctx context.Context, focal *catalog.Item) (result.Augmentation, error)
	Augment(ctx context.Context, id string) (result.Augmentation, error)
	Detail(ctx context.Context, id string) (result.Detail, error)
	CompareByIDs(ctx context.Context, ids []string) (result.Comparison, error)
	BrandCompare(ctx context.Context, brandA, brandB string) (result.BrandComparison, error)
	Recommend(ctx context.Context, preferences string) (result.Recommendation, error)
}

// BrandLister lists distinct brands.
type BrandLister interface {
	Brands(ctx context.Context) ([]string, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
