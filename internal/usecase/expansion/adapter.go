package expansion

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/stylesearch/internal/domain"
	"github.com/kailas-cloud/stylesearch/internal/domain/catalog"
	"github.com/kailas-cloud/stylesearch/internal/logger"
	"github.com/kailas-cloud/stylesearch/internal/metrics"
)

// CompareFallbackSummary is returned when the comparison could not be generated.
const CompareFallbackSummary = "Could not generate an AI comparison at this time."

// Call labels used in logs and metrics.
const (
	CallCaption = "caption"
	CallParse   = "parse"
	CallCompare = "compare"
	CallSuggest = "suggest"
)

// Notes are the AI pros and cons for one compared item.
type Notes struct {
	Pros []string
	Cons []string
}

// Comparison is the AI verdict over a set of items, keyed by item ID.
type Comparison struct {
	Summary string
	Notes   map[string]Notes
}

// Adapter turns raw AI output into search inputs. It never returns errors:
// every call degrades to a neutral value after retries run out.
type Adapter struct {
	gen    domain.Generator
	retry  Retrier
	logger *zap.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithRetrier overrides the retry policy.
func WithRetrier(r Retrier) Option {
	return func(a *Adapter) { a.retry = r }
}

// New creates an adapter over the given generator.
func New(gen domain.Generator, logger *zap.Logger, opts ...Option) *Adapter {
	a := &Adapter{
		gen:    gen,
		retry:  NewRetrier(DefaultAttempts, DefaultBaseDelay),
		logger: logger,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// DescribeImage returns comma-separated keywords for the image, or "" when degraded.
func (a *Adapter) DescribeImage(ctx context.Context, img *domain.Image) string {
	if img == nil || len(img.Data) == 0 {
		return ""
	}
	out, err := a.generate(ctx, CallCaption, domain.Prompt{Text: captionPrompt, Image: img})
	if err != nil {
		a.degraded(ctx, CallCaption, err)
		return ""
	}
	return strings.Trim(strings.TrimSpace(out), `"'`)
}

// ParseQuery reads search terms, filters and suggestions out of free text.
// Degraded output keeps the raw text as search terms.
func (a *Adapter) ParseQuery(ctx context.Context, text string) ParsedQuery {
	text = strings.TrimSpace(text)
	if text == "" {
		return ParsedQuery{Suggestions: []string{}}
	}
	fallback := ParsedQuery{SearchTerms: text, Suggestions: []string{}}

	out, err := a.generate(ctx, CallParse, domain.Prompt{Text: parsePrompt(text)})
	if err != nil {
		a.degraded(ctx, CallParse, err)
		return fallback
	}
	parsed, err := decodeParsed(out)
	if err != nil {
		a.degraded(ctx, CallParse, err)
		return fallback
	}
	return parsed
}

// Compare asks for a summary and per-item pros and cons.
func (a *Adapter) Compare(ctx context.Context, items []catalog.Item) Comparison {
	fallback := Comparison{Summary: CompareFallbackSummary, Notes: map[string]Notes{}}

	prompt, err := comparePrompt(items)
	if err != nil {
		a.degraded(ctx, CallCompare, err)
		return fallback
	}
	out, err := a.generate(ctx, CallCompare, domain.Prompt{Text: prompt})
	if err != nil {
		a.degraded(ctx, CallCompare, err)
		return fallback
	}
	cmp, err := decodeComparison(out)
	if err != nil {
		a.degraded(ctx, CallCompare, err)
		return fallback
	}
	return cmp
}

// Suggest returns short shopping suggestions for free-form preferences, or "" when degraded.
func (a *Adapter) Suggest(ctx context.Context, preferences string) string {
	preferences = strings.TrimSpace(preferences)
	if preferences == "" {
		return ""
	}
	out, err := a.generate(ctx, CallSuggest, domain.Prompt{Text: suggestPrompt(preferences)})
	if err != nil {
		a.degraded(ctx, CallSuggest, err)
		return ""
	}
	return strings.TrimSpace(out)
}

func (a *Adapter) generate(ctx context.Context, call string, p domain.Prompt) (string, error) {
	if a.gen == nil {
		return "", domain.ErrAIProviderError
	}
	return a.retry.Do(ctx, call, func(ctx context.Context) (string, error) {
		start := time.Now()
		out, err := a.gen.Generate(ctx, p)
		metrics.AIRequestDuration.WithLabelValues(call).Observe(time.Since(start).Seconds())
		metrics.AIRequestsTotal.WithLabelValues(call, callStatus(err)).Inc()
		return out, err
	})
}

func (a *Adapter) degraded(ctx context.Context, call string, err error) {
	metrics.AIDegradedTotal.WithLabelValues(call).Inc()
	logger.FromContextOr(ctx, a.logger).Warn("AI call degraded",
		zap.String("call", call),
		zap.Error(err),
	)
}

func callStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
