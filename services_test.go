package stylesearch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/stylesearch/internal/domain"
	dombatch "github.com/kailas-cloud/stylesearch/internal/domain/batch"
	"github.com/kailas-cloud/stylesearch/internal/domain/catalog"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/result"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/stage"
	healthuc "github.com/kailas-cloud/stylesearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/stylesearch/internal/usecase/search"
)

// --- mocks ---

type mockSearchUC struct {
	fn func(ctx context.Context, req searchuc.Request) (result.Page, error)
}

func (m *mockSearchUC) Search(ctx context.Context, req searchuc.Request) (result.Page, error) {
	return m.fn(ctx, req)
}

type mockAugmentUC struct {
	focal   *catalog.Item
	forCall int
	aug     result.Augmentation
	detail  result.Detail
	cmp     result.Comparison
	err     error
}

func (m *mockAugmentUC) ForItem(_ context.Context, focal *catalog.Item) (result.Augmentation, error) {
	m.forCall++
	m.focal = focal
	return m.aug, m.err
}

func (m *mockAugmentUC) Augment(context.Context, string) (result.Augmentation, error) {
	return m.aug, m.err
}

func (m *mockAugmentUC) Detail(context.Context, string) (result.Detail, error) {
	return m.detail, m.err
}

func (m *mockAugmentUC) CompareByIDs(context.Context, []string) (result.Comparison, error) {
	return m.cmp, m.err
}

type mockIngestUC struct {
	results []dombatch.Result
	err     error
}

func (m *mockIngestUC) Load(context.Context, []catalog.Item) ([]dombatch.Result, error) {
	return m.results, m.err
}

type mockHealthUC struct{ report healthuc.Report }

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }

// --- Search ---

func TestClient_Search_AugmentsFocal(t *testing.T) {
	aug := &mockAugmentUC{aug: result.Augmentation{Comparisons: []catalog.Item{{ID: "c"}}}}
	c := &Client{
		searchSvc: &mockSearchUC{fn: func(_ context.Context, req searchuc.Request) (result.Page, error) {
			if req.Text != "red dress" {
				t.Errorf("text = %q", req.Text)
			}
			return result.Page{Items: []catalog.Item{{ID: "a"}, {ID: "b"}}, TotalCount: 2, Page: 1, PageSize: 20,
				Stage: stage.Primary}, nil
		}},
		augmentSvc: aug,
	}

	res, err := c.Search(context.Background(), SearchRequest{Query: "red dress"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if aug.focal == nil || aug.focal.ID != "a" {
		t.Errorf("focal = %v, want a", aug.focal)
	}
	if len(res.Comparisons) != 1 || res.Total != 2 || res.Stage != "primary" {
		t.Errorf("result = %+v", res)
	}
}

func TestClient_Search_EmptyPage(t *testing.T) {
	aug := &mockAugmentUC{}
	c := &Client{
		searchSvc: &mockSearchUC{fn: func(context.Context, searchuc.Request) (result.Page, error) {
			return result.Empty(1, 20), nil
		}},
		augmentSvc: aug,
	}

	res, err := c.Search(context.Background(), SearchRequest{Query: "zzz"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if aug.forCall != 0 {
		t.Error("empty page must not be augmented")
	}
	if res.Recommendations == nil || len(res.Recommendations) != 0 {
		t.Errorf("recommendations = %v, want empty", res.Recommendations)
	}
}

func TestClient_Search_Errors(t *testing.T) {
	c := &Client{
		searchSvc: &mockSearchUC{fn: func(context.Context, searchuc.Request) (result.Page, error) {
			return result.Page{}, fmt.Errorf("%w: timeout", domain.ErrStoreUnavailable)
		}},
		augmentSvc: &mockAugmentUC{},
	}
	_, err := c.Search(context.Background(), SearchRequest{Query: "x"})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}

	_, err = c.Search(context.Background(), SearchRequest{Image: []byte("text")})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for a bad image, got %v", err)
	}
}

// --- items ---

func TestClient_Detail_NotFound(t *testing.T) {
	c := &Client{augmentSvc: &mockAugmentUC{err: domain.NewNotFound("x")}}
	_, err := c.Detail(context.Background(), "x")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_CompareByIDs(t *testing.T) {
	c := &Client{augmentSvc: &mockAugmentUC{cmp: result.Comparison{
		Items:   []result.ComparedItem{{Item: catalog.Item{ID: "a"}, Pros: []string{"p"}, Cons: []string{"c"}}},
		Summary: "fine",
	}}}
	cmp, err := c.CompareByIDs(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmp.Summary != "fine" || cmp.Items[0].Pros[0] != "p" {
		t.Errorf("comparison = %+v", cmp)
	}
}

func TestClient_Augment(t *testing.T) {
	c := &Client{augmentSvc: &mockAugmentUC{aug: result.Augmentation{Recommendations: []catalog.Item{{ID: "r"}}}}}
	aug, err := c.Augment(context.Background(), "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(aug.Recommendations) != 1 {
		t.Errorf("augmentation = %+v", aug)
	}
}

func TestClient_Load(t *testing.T) {
	c := &Client{ingestSvc: &mockIngestUC{results: []dombatch.Result{
		dombatch.NewOK("a"),
		dombatch.NewError("b", fmt.Errorf("%w: name is required", domain.ErrValidation)),
		dombatch.NewOK("c"),
	}}}

	n, err := c.Load(context.Background(), make([]Item, 3))
	if n != 2 {
		t.Errorf("written = %d, want 2", n)
	}
	if !errors.Is(err, ErrValidation) || !strings.Contains(err.Error(), "item b") {
		t.Errorf("err = %v", err)
	}

	c.ingestSvc = &mockIngestUC{err: errors.New("index down")}
	if _, err := c.Load(context.Background(), nil); err == nil {
		t.Error("expected load error")
	}
}

func TestClient_Health(t *testing.T) {
	c := &Client{healthSvc: &mockHealthUC{report: healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK, "ai": healthuc.CheckError},
	}}}
	h := c.Health(context.Background())
	if h.Status != "degraded" || h.Checks["ai"] != "error" {
		t.Errorf("health = %+v", h)
	}
}

// --- observer ---

func TestClient_ObserverMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(zap.NewNop(), reg)
	if err != nil {
		t.Fatalf("observer: %v", err)
	}
	c := &Client{augmentSvc: &mockAugmentUC{err: domain.NewNotFound("x")}, obs: obs}

	_, _ = c.Detail(context.Background(), "x")
	_, _ = c.Detail(context.Background(), "x")

	if got := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("detail", "error")); got != 2 {
		t.Errorf("detail errors = %v, want 2", got)
	}

	// A second client on the same registry reuses the collectors.
	again, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("second observer: %v", err)
	}
	if again.metrics.operations != obs.metrics.operations {
		t.Error("expected the registered collector to be reused")
	}
}

func TestObserver_Nil(t *testing.T) {
	var o *observer
	o.observe("noop", time.Now(), nil)
}
