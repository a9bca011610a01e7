package captioncache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/stylesearch/internal/db"
	"github.com/kailas-cloud/stylesearch/internal/domain"
)

type mockCaptioner struct {
	caption string
	calls   int
}

func (m *mockCaptioner) DescribeImage(_ context.Context, _ *domain.Image) string {
	m.calls++
	return m.caption
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func newTestCachedCaptioner(t *testing.T, inner *mockCaptioner) (*CachedCaptioner, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	cc := New(inner, ms, "stylesearch:", time.Hour, nil, zap.NewNop())
	return cc, ms
}

func testImage() *domain.Image {
	return &domain.Image{Data: []byte("\x89PNG\r\n\x1a\nfake"), MIMEType: "image/png"}
}
