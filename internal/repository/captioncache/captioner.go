package captioncache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/stylesearch/internal/db"
	"github.com/kailas-cloud/stylesearch/internal/domain"
)

// DefaultTTL applies when the configured TTL is not positive.
const DefaultTTL = 24 * time.Hour

// store is the consumer interface for the caption cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Captioner describes an image as comma-separated keywords. An empty caption means degraded.
type Captioner interface {
	DescribeImage(ctx context.Context, img *domain.Image) string
}

// CachedCaptioner caches image captions by the SHA-256 of the image bytes.
type CachedCaptioner struct {
	inner      Captioner
	store      store
	keyPrefix  string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner Captioner,
	s store,
	prefix string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedCaptioner {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedCaptioner{
		inner:      inner,
		store:      s,
		keyPrefix:  prefix + "caption:",
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// DescribeImage returns a cached caption or asks the inner captioner.
// Degraded (empty) captions are not cached.
func (c *CachedCaptioner) DescribeImage(ctx context.Context, img *domain.Image) string {
	if img == nil || len(img.Data) == 0 {
		return ""
	}
	key := c.cacheKey(img.Data)

	if caption, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return caption
	}
	c.incCache("miss")

	caption := c.inner.DescribeImage(ctx, img)
	if caption != "" {
		c.putToCache(ctx, key, caption)
	}
	return caption
}

func (c *CachedCaptioner) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedCaptioner) cacheKey(data []byte) string {
	h := sha256.Sum256(data)
	return c.keyPrefix + hex.EncodeToString(h[:])
}

func (c *CachedCaptioner) getFromCache(ctx context.Context, key string) (string, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached caption", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	if len(data) == 0 {
		return "", false
	}
	return string(data), true
}

func (c *CachedCaptioner) putToCache(ctx context.Context, key, caption string) {
	if err := c.store.SetWithTTL(ctx, key, []byte(caption), c.ttl); err != nil {
		c.logger.Warn("Failed to cache caption", zap.String("key", key), zap.Error(err))
	}
}
