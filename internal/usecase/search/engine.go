package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/stylesearch/internal/domain/catalog"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/query"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/result"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/stage"
	"github.com/kailas-cloud/stylesearch/internal/logger"
	"github.com/kailas-cloud/stylesearch/internal/metrics"
)

// DefaultCandidateWindow bounds how many ranked candidates are fetched to build a page.
const DefaultCandidateWindow = 1000

// Engine executes retrieval stages against the catalog.
type Engine struct {
	catalog Catalog
	window  int
	logger  *zap.Logger
}

// NewEngine creates a retrieval engine. A non-positive window uses the default.
func NewEngine(c Catalog, window int, logger *zap.Logger) *Engine {
	if window <= 0 {
		window = DefaultCandidateWindow
	}
	return &Engine{catalog: c, window: window, logger: logger}
}

// Execute runs the stages in order and returns the page of the first stage that
// matches anything. All stages empty is an empty page, not an error. Store
// failures abort the cascade.
func (e *Engine) Execute(ctx context.Context, q query.Query, plan stage.Plan) (result.Page, error) {
	log := logger.FromContextOr(ctx, e.logger)

	for _, st := range plan {
		fq := catalog.FindQuery{Filter: st.Filter, Text: st.Text}

		total, err := e.catalog.Count(ctx, fq)
		if err != nil {
			metrics.SearchStageTotal.WithLabelValues(string(st.Kind), "error").Inc()
			return result.Page{}, fmt.Errorf("%s stage: %w", st.Kind, err)
		}
		if total == 0 {
			metrics.SearchStageTotal.WithLabelValues(string(st.Kind), "empty").Inc()
			log.Debug("Retrieval stage empty", zap.String("stage", string(st.Kind)))
			continue
		}

		items, err := e.page(ctx, fq, q, total)
		if err != nil {
			metrics.SearchStageTotal.WithLabelValues(string(st.Kind), "error").Inc()
			return result.Page{}, fmt.Errorf("%s stage: %w", st.Kind, err)
		}
		metrics.SearchStageTotal.WithLabelValues(string(st.Kind), "hit").Inc()
		log.Debug("Retrieval stage matched",
			zap.String("stage", string(st.Kind)),
			zap.Int("total", total),
			zap.Int("returned", len(items)),
		)

		return result.Page{
			Items:      items,
			TotalCount: total,
			Page:       q.Page,
			PageSize:   q.PageSize,
			Stage:      st.Kind,
		}, nil
	}

	return result.Empty(q.Page, q.PageSize), nil
}

// page ranks the candidates of one stage and cuts the requested page out of them.
// Pages inside the candidate window are cut from the whole ranked window, so ties
// are broken over the same candidate set on every page. Deeper pages are fetched
// at their store offset and ranked locally.
func (e *Engine) page(ctx context.Context, fq catalog.FindQuery, q query.Query, total int) ([]catalog.Item, error) {
	// Narrowed and fallback stages send no text, so store scores tie and relevance
	// order reduces to the ID tie-break there.
	ord := q.Order.Resolve(q.HasText())
	fq.Sort = storeSort(ord)

	offset := q.Offset()
	end := offset + q.PageSize
	deep := end > e.window
	if deep {
		fq.Offset, fq.Limit = offset, q.PageSize
	} else {
		fq.Offset, fq.Limit = 0, max(min(e.window, total), 1)
	}

	res, err := e.catalog.Find(ctx, fq)
	if err != nil {
		return nil, err
	}
	hits := res.Hits
	rank(hits, ord)

	if !deep {
		if offset >= len(hits) {
			return []catalog.Item{}, nil
		}
		hits = hits[offset:min(end, len(hits))]
	}
	items := make([]catalog.Item, len(hits))
	for i := range hits {
		items[i] = hits[i].Item
	}
	return items, nil
}
