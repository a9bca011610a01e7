// Package ingest loads catalog items into the store.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/stylesearch/internal/domain"
	dombatch "github.com/kailas-cloud/stylesearch/internal/domain/batch"
	"github.com/kailas-cloud/stylesearch/internal/domain/catalog"
)

// DefaultBatchSize is the number of items written per store round-trip.
const DefaultBatchSize = 100

// Service writes items in batches with per-item error reporting.
type Service struct {
	writer    Writer
	batchSize int
	now       func() time.Time
	logger    *zap.Logger
}

// New creates an ingest service.
func New(w Writer, logger *zap.Logger) *Service {
	return &Service{writer: w, batchSize: DefaultBatchSize, now: time.Now, logger: logger}
}

// WithBatchSize configures the write batch size.
func (s *Service) WithBatchSize(size int) *Service {
	if size > 0 {
		s.batchSize = size
	}
	return s
}

// Load ensures the index and writes items. Items without an id get a random
// UUID, items without a creation time are stamped now. Invalid items are
// reported per item and do not stop the load; an index failure does.
func (s *Service) Load(ctx context.Context, items []catalog.Item) ([]dombatch.Result, error) {
	if err := s.writer.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("ensure index: %w", err)
	}

	results := make([]dombatch.Result, len(items))
	valid := make([]catalog.Item, 0, len(items))
	validIdx := make([]int, 0, len(items))
	now := s.now().UTC()

	for i := range items {
		it := items[i]
		if strings.TrimSpace(it.ID) == "" {
			it.ID = uuid.NewString()
		}
		if it.CreatedAt.IsZero() {
			it.CreatedAt = now
		}
		if err := it.Validate(); err != nil {
			results[i] = dombatch.NewError(it.ID, fmt.Errorf("%w: %w", domain.ErrValidation, err))
			continue
		}
		valid = append(valid, it)
		validIdx = append(validIdx, i)
	}

	for start := 0; start < len(valid); start += s.batchSize {
		end := min(start+s.batchSize, len(valid))
		err := s.writer.Upsert(ctx, valid[start:end]...)
		for k := start; k < end; k++ {
			if err != nil {
				results[validIdx[k]] = dombatch.NewError(valid[k].ID, fmt.Errorf("upsert: %w", err))
			} else {
				results[validIdx[k]] = dombatch.NewOK(valid[k].ID)
			}
		}
		if err != nil {
			s.logger.Error("Batch write failed", zap.Int("offset", start), zap.Int("size", end-start), zap.Error(err))
		}
	}

	sum := dombatch.Summarize(results)
	s.logger.Info("Catalog loaded", zap.Int("written", sum.Written), zap.Int("failed", sum.Failed))
	return results, nil
}
