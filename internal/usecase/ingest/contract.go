package ingest

import (
	"context"

	"github.com/kailas-cloud/stylesearch/internal/domain/catalog"
)

// Writer persists catalog items and owns the search index.
type Writer interface {
	EnsureIndex(ctx context.Context) error
	Upsert(ctx context.Context, items ...catalog.Item) error
}
