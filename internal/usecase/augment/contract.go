package augment

import (
	"context"

	"github.com/kailas-cloud/stylesearch/internal/domain/catalog"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/result"
	"github.com/kailas-cloud/stylesearch/internal/usecase/expansion"
)

// Catalog defines the storage contract for augmentation lookups.
type Catalog interface {
	Get(ctx context.Context, id string) (catalog.Item, error)
	GetMany(ctx context.Context, ids []string) ([]catalog.Item, []string, error)
	Find(ctx context.Context, q catalog.FindQuery) (catalog.Page, error)
	BrandStats(ctx context.Context, brand string) (result.BrandStats, error)
}

// Advisor produces AI narratives. Implementations degrade instead of failing.
type Advisor interface {
	Compare(ctx context.Context, items []catalog.Item) expansion.Comparison
	Suggest(ctx context.Context, preferences string) string
}
