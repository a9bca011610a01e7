package stylesearch

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Image is an image attached to a generation prompt.
type Image struct {
	Data     []byte
	MIMEType string
}

// Generator answers a text prompt, optionally about an image.
// Wrap rate limit failures with ErrRateLimited so they are retried.
type Generator interface {
	Generate(ctx context.Context, prompt string, image *Image) (string, error)
}

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	addrs     []string
	password  string
	keyPrefix string

	openAIKey   string
	openAIModel string
	generator   Generator

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithRedis sets the address and password of a Redis 8+ (or Redis Stack) server.
func WithRedis(addr, password string) Option {
	return func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithKeyPrefix namespaces catalog keys and the search index. Default "stylesearch:".
func WithKeyPrefix(prefix string) Option {
	return func(c *clientConfig) {
		c.keyPrefix = prefix
	}
}

// WithOpenAI enables AI expansion through the OpenAI API. An empty model
// selects the default chat model.
func WithOpenAI(apiKey, model string) Option {
	return func(c *clientConfig) {
		c.openAIKey = apiKey
		c.openAIModel = model
	}
}

// WithGenerator enables AI expansion through a custom generator.
// It takes precedence over WithOpenAI.
func WithGenerator(g Generator) Option {
	return func(c *clientConfig) {
		c.generator = g
	}
}

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithPrometheus registers SDK operation counts and durations on reg.
// Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return func(c *clientConfig) {
		c.metricsReg = reg
	}
}
