package stylesearch

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/stylesearch/internal/domain"
	openaiGen "github.com/kailas-cloud/stylesearch/internal/transport/openai"
)

func TestNew_NoAddress(t *testing.T) {
	_, err := New(context.Background())
	if err == nil {
		t.Fatal("expected error when no address provided")
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &clientConfig{keyPrefix: defaultKeyPrefix}

	WithRedis("localhost:6380", "pass")(cfg)
	if len(cfg.addrs) != 1 || cfg.addrs[0] != "localhost:6380" {
		t.Errorf("addrs = %v, want [localhost:6380]", cfg.addrs)
	}
	if cfg.password != "pass" {
		t.Errorf("password = %q, want pass", cfg.password)
	}

	WithKeyPrefix("shop:")(cfg)
	if cfg.keyPrefix != "shop:" {
		t.Errorf("keyPrefix = %q, want shop:", cfg.keyPrefix)
	}

	WithOpenAI("sk-test", "gpt-4o")(cfg)
	if cfg.openAIKey != "sk-test" || cfg.openAIModel != "gpt-4o" {
		t.Errorf("openai = (%q, %q)", cfg.openAIKey, cfg.openAIModel)
	}

	l := zap.NewExample()
	WithLogger(l)(cfg)
	if cfg.logger != l {
		t.Error("logger not set")
	}

	g := &mockGenerator{}
	WithGenerator(g)(cfg)
	if cfg.generator != g {
		t.Error("generator not set")
	}

	reg := prometheus.NewRegistry()
	WithPrometheus(reg)(cfg)
	if cfg.metricsReg != reg {
		t.Error("registerer not set")
	}
}

func TestClient_Close_NilStore(t *testing.T) {
	c := &Client{store: nil}
	c.Close()
}

func TestBuildGenerator(t *testing.T) {
	if g := buildGenerator(&clientConfig{}, zap.NewNop()); g != nil {
		t.Errorf("expected no generator, got %T", g)
	}

	g := buildGenerator(&clientConfig{openAIKey: "sk-test"}, zap.NewNop())
	if _, ok := g.(*openaiGen.Generator); !ok {
		t.Errorf("expected OpenAI generator, got %T", g)
	}

	custom := &mockGenerator{}
	g = buildGenerator(&clientConfig{openAIKey: "sk-test", generator: custom}, zap.NewNop())
	if _, ok := g.(*generatorAdapter); !ok {
		t.Errorf("custom generator must take precedence, got %T", g)
	}
}

func TestGeneratorAdapter(t *testing.T) {
	mock := &mockGenerator{out: "red, dress"}
	adapter := &generatorAdapter{inner: mock}

	out, err := adapter.Generate(context.Background(), domain.Prompt{
		Text:  "describe",
		Image: &domain.Image{Data: []byte{1, 2}, MIMEType: "image/png"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "red, dress" {
		t.Errorf("out = %q", out)
	}
	if mock.prompt != "describe" {
		t.Errorf("prompt = %q", mock.prompt)
	}
	if mock.image == nil || mock.image.MIMEType != "image/png" || len(mock.image.Data) != 2 {
		t.Errorf("image = %+v", mock.image)
	}

	if _, err := adapter.Generate(context.Background(), domain.Prompt{Text: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.image != nil {
		t.Error("text prompt must not carry an image")
	}
}

func TestGeneratorAdapter_Errors(t *testing.T) {
	adapter := &generatorAdapter{inner: &mockGenerator{err: errors.New("provider down")}}
	_, err := adapter.Generate(context.Background(), domain.Prompt{Text: "x"})
	if !errors.Is(err, ErrAIProvider) {
		t.Errorf("expected ErrAIProvider, got %v", err)
	}

	adapter = &generatorAdapter{inner: &mockGenerator{err: ErrRateLimited}}
	_, err = adapter.Generate(context.Background(), domain.Prompt{Text: "x"})
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
	if errors.Is(err, ErrAIProvider) {
		t.Error("rate limit must not be reported as a provider error")
	}
}

type mockGenerator struct {
	out    string
	err    error
	prompt string
	image  *Image
}

func (m *mockGenerator) Generate(_ context.Context, prompt string, image *Image) (string, error) {
	m.prompt = prompt
	m.image = image
	return m.out, m.err
}
