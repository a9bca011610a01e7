package search

import (
	"context"

	"github.com/kailas-cloud/stylesearch/internal/domain"
	"github.com/kailas-cloud/stylesearch/internal/domain/catalog"
	"github.com/kailas-cloud/stylesearch/internal/usecase/expansion"
)

// Catalog defines the storage contract for retrieval.
type Catalog interface {
	Find(ctx context.Context, q catalog.FindQuery) (catalog.Page, error)
	Count(ctx context.Context, q catalog.FindQuery) (int, error)
}

// Captioner describes an image as comma-separated keywords; "" when unavailable.
type Captioner interface {
	DescribeImage(ctx context.Context, img *domain.Image) string
}

// Parser reads structured intent out of free text. It never fails.
type Parser interface {
	ParseQuery(ctx context.Context, text string) expansion.ParsedQuery
}
