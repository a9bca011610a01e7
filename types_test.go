package stylesearch

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/stylesearch/internal/domain/catalog"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/order"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/result"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/stage"
)

func ptr(v float64) *float64 { return &v }

func TestToSearchRequest(t *testing.T) {
	req, err := toSearchRequest(SearchRequest{
		Query: "linen shirt",
		Filters: Filters{
			Categories: []string{"Shirt"},
			Colors:     []string{"White"},
			MinPrice:   ptr(10),
			MaxPrice:   ptr(99.5),
			MinRating:  ptr(4),
		},
		Page:     2,
		PageSize: 10,
		Sort:     SortPriceAsc,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Text != "linen shirt" || req.Page != 2 || req.PageSize != 10 {
		t.Errorf("request = %+v", req)
	}
	if req.Order != order.PriceAsc {
		t.Errorf("order = %q", req.Order)
	}
	bound, err := req.Price.Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if *bound.Min != 10 || *bound.Max != 99.5 {
		t.Errorf("price = %s", bound)
	}
	if req.Image != nil {
		t.Error("no image expected")
	}
	if err := req.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestToSearchRequest_Image(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)
	req, err := toSearchRequest(SearchRequest{Image: png})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Image == nil || req.Image.MIMEType != "image/png" {
		t.Errorf("image = %+v", req.Image)
	}

	_, err = toSearchRequest(SearchRequest{Image: []byte("not an image at all")})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestFromPage(t *testing.T) {
	items := []catalog.Item{{ID: "a"}, {ID: "b"}}
	got := fromPage(result.Page{
		Items: items, TotalCount: 41, Page: 1, PageSize: 20,
		Stage: stage.Narrowed, Keywords: []string{"shirt"},
	}, result.Augmentation{Recommendations: []catalog.Item{{ID: "r"}}})

	if got.Total != 41 || got.Pages != 3 {
		t.Errorf("total = %d pages = %d", got.Total, got.Pages)
	}
	if got.Stage != "narrowed" {
		t.Errorf("stage = %q", got.Stage)
	}
	if len(got.Recommendations) != 1 || got.Recommendations[0].ID != "r" {
		t.Errorf("recommendations = %v", got.Recommendations)
	}
}

func TestFromComparison(t *testing.T) {
	got := fromComparison(result.Comparison{
		Items: []result.ComparedItem{
			{Item: catalog.Item{ID: "a"}, Pros: []string{"cheap", "soft"}, Cons: []string{"thin"}},
			{Item: catalog.Item{ID: "b"}, Pros: []string{}, Cons: []string{}},
		},
		Summary: "a wins",
	})
	if got.Summary != "a wins" || len(got.Items) != 2 {
		t.Fatalf("comparison = %+v", got)
	}
	if got.Items[0].ID != "a" || len(got.Items[0].Pros) != 2 || got.Items[0].Cons[0] != "thin" {
		t.Errorf("first = %+v", got.Items[0])
	}
}
