package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/stylesearch/internal/domain"
)

// Generation defaults.
const (
	DefaultTextModel   = "gpt-4o-mini"
	DefaultMaxTokens   = 512
	DefaultTemperature = 0.2
)

// Generator is a text and vision provider using the OpenAI-compatible chat API.
type Generator struct {
	client      *openai.Client
	textModel   string
	visionModel string
	maxTokens   int
	temperature float32
	limiter     *rate.Limiter
	logger      *zap.Logger
}

// Config holds the AI provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	// TextModel answers text prompts; VisionModel answers prompts with an image.
	// VisionModel defaults to TextModel.
	TextModel   string
	VisionModel string
	MaxTokens   int
	Temperature float32
	// RequestsPerSecond throttles outgoing calls client side. Zero disables throttling.
	RequestsPerSecond float64
	Burst             int
	HTTPClient        *http.Client
	Logger            *zap.Logger
}

// NewGenerator creates an OpenAI-compatible generator.
func NewGenerator(cfg *Config) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}

	g := &Generator{
		client:      openai.NewClientWithConfig(clientCfg),
		textModel:   cfg.TextModel,
		visionModel: cfg.VisionModel,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		limiter:     rate.NewLimiter(rate.Inf, 0),
		logger:      cfg.Logger,
	}
	if g.textModel == "" {
		g.textModel = DefaultTextModel
	}
	if g.visionModel == "" {
		g.visionModel = g.textModel
	}
	if g.maxTokens <= 0 {
		g.maxTokens = DefaultMaxTokens
	}
	if g.temperature <= 0 {
		g.temperature = DefaultTemperature
	}
	if cfg.RequestsPerSecond > 0 {
		burst := max(cfg.Burst, 1)
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	return g
}

// Generate implements domain.Generator. HTTP 429 maps to domain.ErrRateLimited,
// any other provider failure to domain.ErrAIProviderError.
func (g *Generator) Generate(ctx context.Context, p domain.Prompt) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("wait for rate limiter: %w", err)
	}

	req := openai.ChatCompletionRequest{
		Model:       g.textModel,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
		Messages:    []openai.ChatCompletionMessage{userMessage(p)},
	}
	if p.HasImage() {
		req.Model = g.visionModel
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("chat completion: %w", ctxErr)
		}
		return "", parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty chat completion response: %w", domain.ErrAIProviderError)
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("empty chat completion content: %w", domain.ErrAIProviderError)
	}

	g.logger.Debug("Chat completion",
		zap.String("model", req.Model),
		zap.Bool("image", p.HasImage()),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("latency", time.Since(start)),
	)
	return out, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (g *Generator) HealthCheck(ctx context.Context) error {
	if _, err := g.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func userMessage(p domain.Prompt) openai.ChatCompletionMessage {
	if !p.HasImage() {
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: p.Text}
	}
	return openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: p.Text},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    dataURL(p.Image),
					Detail: openai.ImageURLDetailLow,
				},
			},
		},
	}
}

// dataURL inlines the image as a base64 data URL.
func dataURL(img *domain.Image) string {
	return "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// parseAPIError classifies provider errors for the retry policy.
func parseAPIError(err error) error {
	status, detail := 0, ""

	var reqErr *openai.RequestError
	var apiErr *openai.APIError
	switch {
	case errors.As(err, &apiErr):
		status, detail = apiErr.HTTPStatusCode, apiErr.Message
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
		detail = extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
	default:
		return fmt.Errorf("chat request failed: %v: %w", err, domain.ErrAIProviderError)
	}

	wrap := domain.ErrAIProviderError
	if status == http.StatusTooManyRequests {
		wrap = domain.ErrRateLimited
	}
	return fmt.Errorf("chat API error %d: %s: %w", status, detail, wrap)
}

// extractDetail reads the "detail" field of a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
