package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/stylesearch/internal/domain"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/result"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/stage"
	"github.com/kailas-cloud/stylesearch/internal/logger"
	"github.com/kailas-cloud/stylesearch/internal/usecase/expansion"
)

// OccasionLimit caps the items-by-occasion listing.
const OccasionLimit = 100

// Service runs the search pipeline: expansion, query building, staged retrieval.
type Service struct {
	builder   Builder
	engine    *Engine
	captioner Captioner
	parser    Parser
	logger    *zap.Logger
}

// New creates a search service. captioner and parser can be nil, which disables
// the corresponding expansion.
func New(builder Builder, engine *Engine, captioner Captioner, parser Parser, logger *zap.Logger) *Service {
	return &Service{
		builder:   builder,
		engine:    engine,
		captioner: captioner,
		parser:    parser,
		logger:    logger,
	}
}

// Search answers one caller request with a ranked page.
// Only validation and store failures are returned; AI failures degrade silently.
func (s *Service) Search(ctx context.Context, req Request) (result.Page, error) {
	if err := req.Validate(); err != nil {
		return result.Page{}, err
	}

	caption, parsed := s.expand(ctx, req)

	q, err := s.builder.Build(req, caption, parsed)
	if err != nil {
		return result.Page{}, err
	}
	plan, err := Compile(q)
	if err != nil {
		return result.Page{}, fmt.Errorf("compile stages: %w", err)
	}

	page, err := s.engine.Execute(ctx, q, plan)
	if err != nil {
		return result.Page{}, err
	}

	page.Suggestions = parsed.Suggestions
	if page.Suggestions == nil {
		page.Suggestions = []string{}
	}
	page.Keywords = q.TextTerms().Union(q.Keywords).Strings()
	if page.Keywords == nil {
		page.Keywords = []string{}
	}

	logger.FromContextOr(ctx, s.logger).Info("Search completed",
		zap.String("stage", string(page.Stage)),
		zap.Strings("stages", kindsOf(plan)),
		zap.Int("total", page.TotalCount),
		zap.Int("returned", len(page.Items)),
		zap.Bool("image", req.Image != nil),
	)
	return page, nil
}

// ByOccasion lists up to OccasionLimit newest items for one occasion.
func (s *Service) ByOccasion(ctx context.Context, occasion string) (result.Page, error) {
	occasion = strings.TrimSpace(occasion)
	if occasion == "" {
		return result.Page{}, domain.NewValidationError("occasion", "is required")
	}
	return s.Search(ctx, Request{
		Occasions: []string{occasion},
		PageSize:  OccasionLimit,
	})
}

// expand captions the image and parses the text concurrently.
func (s *Service) expand(ctx context.Context, req Request) (string, expansion.ParsedQuery) {
	var (
		caption string
		parsed  expansion.ParsedQuery
	)
	g, gctx := errgroup.WithContext(ctx)
	if req.Image != nil && s.captioner != nil {
		g.Go(func() error {
			caption = s.captioner.DescribeImage(gctx, req.Image)
			return nil
		})
	}
	if req.HasText() && s.parser != nil {
		g.Go(func() error {
			parsed = s.parser.ParseQuery(gctx, req.Text)
			return nil
		})
	}
	_ = g.Wait()
	return caption, parsed
}

func kindsOf(plan stage.Plan) []string {
	kinds := plan.Kinds()
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}
