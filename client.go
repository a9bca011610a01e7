// Package stylesearch is an embeddable fashion catalog search client: keyword,
// structured filter and image search over Redis, with optional AI query expansion.
package stylesearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	dbRedis "github.com/kailas-cloud/stylesearch/internal/db/redis"
	"github.com/kailas-cloud/stylesearch/internal/domain"
	dombatch "github.com/kailas-cloud/stylesearch/internal/domain/batch"
	"github.com/kailas-cloud/stylesearch/internal/domain/catalog"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/result"
	"github.com/kailas-cloud/stylesearch/internal/metrics"
	"github.com/kailas-cloud/stylesearch/internal/repository/captioncache"
	catalogrepo "github.com/kailas-cloud/stylesearch/internal/repository/catalog"
	openaiGen "github.com/kailas-cloud/stylesearch/internal/transport/openai"
	augmentuc "github.com/kailas-cloud/stylesearch/internal/usecase/augment"
	"github.com/kailas-cloud/stylesearch/internal/usecase/expansion"
	healthuc "github.com/kailas-cloud/stylesearch/internal/usecase/health"
	"github.com/kailas-cloud/stylesearch/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/stylesearch/internal/usecase/search"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "stylesearch:"
)

// Use case contracts, narrowed for substitution in tests.
type (
	searchUseCase interface {
		Search(ctx context.Context, req searchuc.Request) (result.Page, error)
	}
	augmentUseCase interface {
		ForItem(ctx context.Context, focal *catalog.Item) (result.Augmentation, error)
		Augment(ctx context.Context, id string) (result.Augmentation, error)
		Detail(ctx context.Context, id string) (result.Detail, error)
		CompareByIDs(ctx context.Context, ids []string) (result.Comparison, error)
	}
	ingestUseCase interface {
		Load(ctx context.Context, items []catalog.Item) ([]dombatch.Result, error)
	}
	brandLister interface {
		Brands(ctx context.Context) ([]string, error)
	}
	healthUseCase interface {
		Check(ctx context.Context) healthuc.Report
	}
)

// Client is the stylesearch SDK entry point.
type Client struct {
	store      *dbRedis.Store
	searchSvc  searchUseCase
	augmentSvc augmentUseCase
	ingestSvc  ingestUseCase
	brands     brandLister
	healthSvc  healthUseCase
	obs        *observer
}

// New connects to Redis, ensures the catalog index and wires the search pipeline.
// The provided context bounds the readiness check and index creation.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{keyPrefix: defaultKeyPrefix}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("stylesearch: database address required (use WithRedis)")
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.addrs, Password: cfg.password})
	if err != nil {
		return nil, fmt.Errorf("stylesearch: create redis store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("stylesearch: database not ready: %w", err)
	}

	repo := catalogrepo.New(store, cfg.keyPrefix)
	if err := repo.EnsureIndex(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("stylesearch: ensure index: %w", err)
	}
	return wireClient(store, repo, cfg, obs), nil
}

func wireClient(store *dbRedis.Store, repo *catalogrepo.Repo, cfg *clientConfig, obs *observer) *Client {
	logger := cfg.logger

	// Nil interfaces when no generator is configured, so AI expansion is skipped.
	var (
		captioner searchuc.Captioner
		parser    searchuc.Parser
		advisor   augmentuc.Advisor
		aiChecker healthuc.AIChecker
	)
	if gen := buildGenerator(cfg, logger); gen != nil {
		adapter := expansion.New(gen, logger)
		captioner = captioncache.New(adapter, store, cfg.keyPrefix, captioncache.DefaultTTL,
			metrics.CaptionCacheTotal, logger)
		parser = adapter
		advisor = adapter
		if hc, ok := gen.(domain.HealthChecker); ok {
			aiChecker = hc
		}
	}

	return &Client{
		store: store,
		searchSvc: searchuc.New(
			searchuc.NewBuilder(searchuc.DefaultMaxPageSize, searchuc.DefaultMaxKeywords),
			searchuc.NewEngine(repo, searchuc.DefaultCandidateWindow, logger),
			captioner, parser, logger,
		),
		augmentSvc: augmentuc.New(repo, advisor, augmentuc.DefaultConfig(), logger),
		ingestSvc:  ingest.New(repo, logger),
		brands:     repo,
		healthSvc:  healthuc.New(store, aiChecker),
		obs:        obs,
	}
}

func buildGenerator(cfg *clientConfig, logger *zap.Logger) domain.Generator {
	switch {
	case cfg.generator != nil:
		return &generatorAdapter{inner: cfg.generator}
	case cfg.openAIKey != "":
		return openaiGen.NewGenerator(&openaiGen.Config{
			APIKey:    cfg.openAIKey,
			TextModel: cfg.openAIModel,
			Logger:    logger,
		})
	default:
		return nil
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Search runs a search and augments its first item. AI failures degrade to
// keyword search; only validation and store errors are returned.
func (c *Client) Search(ctx context.Context, req SearchRequest) (_ *SearchResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	r, err := toSearchRequest(req)
	if err != nil {
		return nil, err
	}
	page, err := c.searchSvc.Search(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	aug := result.EmptyAugmentation()
	if focal, ok := page.Focal(); ok {
		if aug, err = c.augmentSvc.ForItem(ctx, &focal); err != nil {
			return nil, fmt.Errorf("augment: %w", err)
		}
	}
	return fromPage(page, aug), nil
}

// Augment returns recommendations and price comparisons for an item.
func (c *Client) Augment(ctx context.Context, id string) (_ *Augmentation, err error) {
	start := time.Now()
	defer func() { c.obs.observe("augment", start, err) }()

	aug, err := c.augmentSvc.Augment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("augment %s: %w", id, err)
	}
	out := fromAugmentation(aug)
	return &out, nil
}

// CompareByIDs compares 2 to 10 distinct items with AI pros and cons.
func (c *Client) CompareByIDs(ctx context.Context, ids []string) (_ *Comparison, err error) {
	start := time.Now()
	defer func() { c.obs.observe("compare", start, err) }()

	cmp, err := c.augmentSvc.CompareByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("compare: %w", err)
	}
	return fromComparison(cmp), nil
}

// Detail returns an item and related items of its category.
func (c *Client) Detail(ctx context.Context, id string) (_ *Detail, err error) {
	start := time.Now()
	defer func() { c.obs.observe("detail", start, err) }()

	d, err := c.augmentSvc.Detail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("detail %s: %w", id, err)
	}
	return &Detail{Item: d.Item, Related: d.Related}, nil
}

// Brands lists the distinct catalog brands.
func (c *Client) Brands(ctx context.Context) (_ []string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("brands", start, err) }()

	brands, err := c.brands.Brands(ctx)
	if err != nil {
		return nil, fmt.Errorf("brands: %w", err)
	}
	return brands, nil
}

// Load writes items to the catalog. Items without an id get one.
// It returns the number written and the joined per-item errors.
func (c *Client) Load(ctx context.Context, items []Item) (_ int, err error) {
	start := time.Now()
	defer func() { c.obs.observe("load", start, err) }()

	results, err := c.ingestSvc.Load(ctx, items)
	if err != nil {
		return 0, fmt.Errorf("load: %w", err)
	}
	sum := dombatch.Summarize(results)
	errs := make([]error, 0, len(sum.Errors))
	for _, r := range sum.Errors {
		errs = append(errs, fmt.Errorf("item %s: %w", r.ID(), r.Err()))
	}
	return sum.Written, errors.Join(errs...)
}

// HealthStatus is the aggregated component health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component -> "ok"/"error"
}

// Health checks the catalog store and, when configured, the AI provider.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{Status: string(report.Status), Checks: checks}
}

// generatorAdapter wraps the public Generator to satisfy domain.Generator.
type generatorAdapter struct {
	inner Generator
}

func (a *generatorAdapter) Generate(ctx context.Context, p domain.Prompt) (string, error) {
	var img *Image
	if p.Image != nil {
		img = &Image{Data: p.Image.Data, MIMEType: p.Image.MIMEType}
	}
	out, err := a.inner.Generate(ctx, p.Text, img)
	if err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			return "", fmt.Errorf("generate: %w", err)
		}
		return "", fmt.Errorf("generate: %w: %w", domain.ErrAIProviderError, err)
	}
	return out, nil
}
