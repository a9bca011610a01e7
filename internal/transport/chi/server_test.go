package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/stylesearch/internal/domain"
	"github.com/kailas-cloud/stylesearch/internal/domain/catalog"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/order"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/result"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/stage"
	healthuc "github.com/kailas-cloud/stylesearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/stylesearch/internal/usecase/search"
)

// --- fakes ---

type fakeSearcher struct {
	page     result.Page
	err      error
	last     searchuc.Request
	occasion string
}

func (f *fakeSearcher) Search(_ context.Context, req searchuc.Request) (result.Page, error) {
	f.last = req
	return f.page, f.err
}

func (f *fakeSearcher) ByOccasion(_ context.Context, occasion string) (result.Page, error) {
	f.occasion = occasion
	return f.page, f.err
}

type fakeAugmenter struct {
	aug       result.Augmentation
	detail    result.Detail
	cmp       result.Comparison
	brands    result.BrandComparison
	rec       result.Recommendation
	err       error
	focal     *catalog.Item
	forCalls  int
	compared  []string
	brandPair [2]string
}

func (f *fakeAugmenter) ForItem(_ context.Context, focal *catalog.Item) (result.Augmentation, error) {
	f.forCalls++
	f.focal = focal
	return f.aug, f.err
}

func (f *fakeAugmenter) Augment(_ context.Context, _ string) (result.Augmentation, error) {
	return f.aug, f.err
}

func (f *fakeAugmenter) Detail(_ context.Context, _ string) (result.Detail, error) {
	return f.detail, f.err
}

func (f *fakeAugmenter) CompareByIDs(_ context.Context, ids []string) (result.Comparison, error) {
	f.compared = ids
	return f.cmp, f.err
}

func (f *fakeAugmenter) BrandCompare(_ context.Context, a, b string) (result.BrandComparison, error) {
	f.brandPair = [2]string{a, b}
	return f.brands, f.err
}

func (f *fakeAugmenter) Recommend(_ context.Context, _ string) (result.Recommendation, error) {
	return f.rec, f.err
}

type fakeBrands struct {
	brands []string
	err    error
}

func (f *fakeBrands) Brands(context.Context) ([]string, error) { return f.brands, f.err }

type fakeHealth struct{ report healthuc.Report }

func (f *fakeHealth) Check(context.Context) healthuc.Report { return f.report }

type fixture struct {
	search  *fakeSearcher
	augment *fakeAugmenter
	brands  *fakeBrands
	health  *fakeHealth
	router  http.Handler
}

func newFixture() *fixture {
	f := &fixture{
		search:  &fakeSearcher{},
		augment: &fakeAugmenter{aug: result.EmptyAugmentation()},
		brands:  &fakeBrands{},
		health:  &fakeHealth{},
	}
	r := chi.NewRouter()
	NewServer(f.search, f.augment, f.brands, f.health, zap.NewNop()).Register(r)
	f.router = r
	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

func shirt(id string) catalog.Item {
	return catalog.Item{ID: id, Name: "Oxford Shirt", Brand: "Uniqlo", Category: "Shirt", Price: 40}
}

// --- search ---

func TestSearchGet_BindsQueryParams(t *testing.T) {
	f := newFixture()
	f.search.page = result.Page{
		Items: []catalog.Item{shirt("a")}, TotalCount: 21, Page: 2, PageSize: 10,
		Stage: stage.Primary, Keywords: []string{"shirt"},
	}
	f.augment.aug = result.Augmentation{Recommendations: []catalog.Item{shirt("r")}, Comparisons: []catalog.Item{}}

	req := httptest.NewRequest("GET",
		"/search?q=blue+shirt&category=Shirt,Polo&price_gte=10&price_lte=99.5&min_rating=4&page=2&limit=10&sort=price_asc",
		http.NoBody)
	rr := f.do(req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (%s)", rr.Code, http.StatusOK, rr.Body.String())
	}
	got := f.search.last
	if got.Text != "blue shirt" {
		t.Errorf("text: got %q", got.Text)
	}
	if len(got.Categories) != 2 || got.Categories[0] != "Shirt" || got.Categories[1] != "Polo" {
		t.Errorf("categories: got %v", got.Categories)
	}
	if got.Price.Min == nil || string(*got.Price.Min) != "10" {
		t.Errorf("price min: got %v", got.Price.Min)
	}
	if got.Price.Max == nil || string(*got.Price.Max) != "99.5" {
		t.Errorf("price max: got %v", got.Price.Max)
	}
	if got.MinRating == nil || *got.MinRating != 4 {
		t.Errorf("min rating: got %v", got.MinRating)
	}
	if got.Page != 2 || got.PageSize != 10 || got.Order != order.PriceAsc {
		t.Errorf("paging: got page=%d size=%d order=%q", got.Page, got.PageSize, got.Order)
	}

	var resp SearchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 21 || resp.Pages != 3 || resp.Stage != "primary" {
		t.Errorf("response: count=%d pages=%d stage=%q", resp.Count, resp.Pages, resp.Stage)
	}
	if len(resp.Recommendations) != 1 || resp.Recommendations[0].ID != "r" {
		t.Errorf("recommendations: got %v", resp.Recommendations)
	}
	if f.augment.focal == nil || f.augment.focal.ID != "a" {
		t.Errorf("focal: got %v, want a", f.augment.focal)
	}
}

func TestSearchGet_InvalidParam(t *testing.T) {
	f := newFixture()

	rr := f.do(httptest.NewRequest("GET", "/search?page=abc", http.NoBody))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if resp := decodeError(t, rr); resp.Code != ErrorCodeValidationFailed {
		t.Errorf("code: got %s, want %s", resp.Code, ErrorCodeValidationFailed)
	}
}

func TestSearch_EmptyPageSkipsAugmentation(t *testing.T) {
	f := newFixture()
	f.search.page = result.Empty(1, 20)

	rr := f.do(httptest.NewRequest("GET", "/search?q=zzz", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if f.augment.forCalls != 0 {
		t.Errorf("ForItem calls: got %d, want 0", f.augment.forCalls)
	}
	body := rr.Body.String()
	for _, want := range []string{`"items":[]`, `"recommendations":[]`, `"comparisons":[]`, `"suggestions":[]`} {
		if !strings.Contains(body, want) {
			t.Errorf("body %s missing %s", body, want)
		}
	}
}

func TestSearchPost_JSON(t *testing.T) {
	f := newFixture()
	f.search.page = result.Empty(1, 20)

	body := `{"query":"red dress","filters":{"colors":["Red"],"price":{"under":"100","min":20}},"sort":"newest","limit":5}`
	req := httptest.NewRequest("POST", "/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := f.do(req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d (%s)", rr.Code, rr.Body.String())
	}
	got := f.search.last
	if got.Text != "red dress" || got.Order != order.Newest || got.PageSize != 5 {
		t.Errorf("request: got %+v", got)
	}
	bound, err := got.Price.Resolve()
	if err != nil {
		t.Fatalf("resolve price: %v", err)
	}
	if bound.Min == nil || *bound.Min != 20 || bound.Max == nil || *bound.Max != 100 {
		t.Errorf("price bound: got %s", bound)
	}
}

func TestSearchPost_MalformedJSON(t *testing.T) {
	f := newFixture()

	req := httptest.NewRequest("POST", "/search", strings.NewReader(`{"query":`))
	req.Header.Set("Content-Type", "application/json")
	rr := f.do(req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if resp := decodeError(t, rr); resp.Code != ErrorCodeBadRequest {
		t.Errorf("code: got %s, want %s", resp.Code, ErrorCodeBadRequest)
	}
}

func multipartSearch(t *testing.T, fields map[string]string, image []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if image != nil {
		part, err := mw.CreateFormFile("image", "photo.png")
		if err != nil {
			t.Fatalf("create file: %v", err)
		}
		if _, err := part.Write(image); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest("POST", "/search", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestSearchPost_MultipartWithImage(t *testing.T) {
	f := newFixture()
	f.search.page = result.Empty(1, 20)

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)
	req := multipartSearch(t, map[string]string{
		"query":   "like this",
		"filters": `{"brands":["Zara"]}`,
		"page":    "3",
	}, png)
	rr := f.do(req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d (%s)", rr.Code, rr.Body.String())
	}
	got := f.search.last
	if got.Image == nil || got.Image.MIMEType != "image/png" {
		t.Fatalf("image: got %+v", got.Image)
	}
	if got.Text != "like this" || got.Page != 3 {
		t.Errorf("fields: text=%q page=%d", got.Text, got.Page)
	}
	if len(got.Brands) != 1 || got.Brands[0] != "Zara" {
		t.Errorf("brands: got %v", got.Brands)
	}
}

func TestSearchPost_MultipartRejects(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		image  []byte
	}{
		{"bad filters", map[string]string{"filters": "{"}, nil},
		{"bad page", map[string]string{"page": "two"}, nil},
		{"not an image", map[string]string{"query": "x"}, []byte("plain text, not a picture")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			rr := f.do(multipartSearch(t, tt.fields, tt.image))
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
			}
			if resp := decodeError(t, rr); resp.Code != ErrorCodeValidationFailed {
				t.Errorf("code: got %s, want %s", resp.Code, ErrorCodeValidationFailed)
			}
		})
	}
}

// --- error mapping ---

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    ErrorCode
		message string
	}{
		{"validation", domain.NewValidationError("sort", "unsupported value"), http.StatusBadRequest,
			ErrorCodeValidationFailed, "validation failed: sort: unsupported value"},
		{"not found", domain.NewNotFound("x1"), http.StatusNotFound, ErrorCodeNotFound, "not found: x1"},
		{"store", fmt.Errorf("%w: dial tcp 10.0.0.1:6379", domain.ErrStoreUnavailable),
			http.StatusServiceUnavailable, ErrorCodeStoreUnavailable, "catalog store unavailable"},
		{"rate limited", fmt.Errorf("%w: slow down", domain.ErrRateLimited),
			http.StatusTooManyRequests, ErrorCodeRateLimited, "rate limited"},
		{"ai provider", fmt.Errorf("%w: 500", domain.ErrAIProviderError),
			http.StatusBadGateway, ErrorCodeAIProviderError, "ai provider error"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ErrorCodeInternalError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.augment.err = tt.err

			rr := f.do(httptest.NewRequest("GET", "/items/x1", http.NoBody))
			if rr.Code != tt.status {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.status)
			}
			resp := decodeError(t, rr)
			if resp.Code != tt.code {
				t.Errorf("code: got %s, want %s", resp.Code, tt.code)
			}
			if resp.Message != tt.message {
				t.Errorf("message: got %q, want %q", resp.Message, tt.message)
			}
		})
	}
}

// --- items ---

func TestListItems(t *testing.T) {
	f := newFixture()
	f.search.page = result.Page{Items: []catalog.Item{shirt("a"), shirt("b")}, TotalCount: 2, Page: 1, PageSize: 20}

	rr := f.do(httptest.NewRequest("GET", "/items?brand=Uniqlo&sort=newest", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	var resp ListResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 2 || len(resp.Items) != 2 || resp.Limit != 20 {
		t.Errorf("response: %+v", resp)
	}
	if f.augment.forCalls != 0 {
		t.Errorf("listing must not augment")
	}
	if f.search.last.Order != order.Newest || f.search.last.Brands[0] != "Uniqlo" {
		t.Errorf("request: %+v", f.search.last)
	}
}

func TestGetItem(t *testing.T) {
	f := newFixture()
	f.augment.detail = result.Detail{Item: shirt("a")}

	rr := f.do(httptest.NewRequest("GET", "/items/a", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"related":[]`) {
		t.Errorf("related must be an empty array: %s", rr.Body.String())
	}
}

func TestAugmentItem(t *testing.T) {
	f := newFixture()
	f.augment.aug = result.Augmentation{Comparisons: []catalog.Item{shirt("c")}}

	rr := f.do(httptest.NewRequest("GET", "/items/a/augment", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	var resp AugmentResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Comparisons) != 1 || resp.Recommendations == nil {
		t.Errorf("response: %+v", resp)
	}
}

func TestItemsByOccasion(t *testing.T) {
	f := newFixture()
	f.search.page = result.Page{Items: []catalog.Item{shirt("a")}, TotalCount: 1, Page: 1, PageSize: 100}

	rr := f.do(httptest.NewRequest("GET", "/occasions/wedding/items", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if f.search.occasion != "wedding" {
		t.Errorf("occasion: got %q", f.search.occasion)
	}
}

// --- compare, brands, recommend ---

func TestCompareItems(t *testing.T) {
	f := newFixture()
	f.augment.cmp = result.Comparison{
		Items: []result.ComparedItem{
			{Item: shirt("a"), Pros: []string{"cheap", "soft"}, Cons: []string{"thin"}},
			{Item: shirt("b")},
		},
		Summary: "Pick a.",
	}

	rr := f.do(httptest.NewRequest("POST", "/compare", strings.NewReader(`{"ids":["a","b"]}`)))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d (%s)", rr.Code, rr.Body.String())
	}
	var resp CompareResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Summary != "Pick a." || len(resp.Items) != 2 {
		t.Fatalf("response: %+v", resp)
	}
	if resp.Items[0].ID != "a" || len(resp.Items[0].Pros) != 2 {
		t.Errorf("first item: %+v", resp.Items[0])
	}
	if resp.Items[1].Pros == nil || resp.Items[1].Cons == nil {
		t.Errorf("pros and cons must be arrays: %+v", resp.Items[1])
	}
	if len(f.augment.compared) != 2 {
		t.Errorf("compared ids: %v", f.augment.compared)
	}
}

func TestListBrands(t *testing.T) {
	f := newFixture()

	rr := f.do(httptest.NewRequest("GET", "/brands", http.NoBody))
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("empty brands: got %d %s", rr.Code, rr.Body.String())
	}

	f.brands.brands = []string{"Nike", "Zara"}
	rr = f.do(httptest.NewRequest("GET", "/brands", http.NoBody))
	var got []string
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0] != "Nike" {
		t.Errorf("brands: got %v", got)
	}
}

func TestCompareBrands(t *testing.T) {
	f := newFixture()
	f.augment.brands = result.BrandComparison{
		A:       result.BrandStats{Brand: "Nike", AveragePrice: 200, ItemCount: 2},
		B:       result.BrandStats{Brand: "Zara", AveragePrice: 275, ItemCount: 2},
		Verdict: "Nike is cheaper",
	}

	rr := f.do(httptest.NewRequest("POST", "/brands/compare", strings.NewReader(`{"brandA":"Nike","brandB":"Zara"}`)))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	var resp BrandCompareResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Verdict != "Nike is cheaper" || resp.BrandB.AveragePrice != 275 {
		t.Errorf("response: %+v", resp)
	}
	if f.augment.brandPair != [2]string{"Nike", "Zara"} {
		t.Errorf("brands passed: %v", f.augment.brandPair)
	}
}

func TestRecommend(t *testing.T) {
	f := newFixture()
	f.augment.rec = result.Recommendation{Suggestion: "Try linen."}

	rr := f.do(httptest.NewRequest("POST", "/recommend", strings.NewReader(`{"preferences":"summer"}`)))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `"suggestion":"Try linen."`) || !strings.Contains(body, `"items":[]`) {
		t.Errorf("body: %s", body)
	}
}

// --- health ---

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		status healthuc.Status
		want   int
	}{
		{healthuc.Healthy, http.StatusOK},
		{healthuc.Degraded, http.StatusOK},
		{healthuc.Unhealthy, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			f := newFixture()
			f.health.report = healthuc.Report{
				Status: tt.status,
				Checks: map[string]healthuc.CheckResult{healthuc.ComponentDatabase: healthuc.CheckOK},
			}
			rr := f.do(httptest.NewRequest("GET", "/health", http.NoBody))
			if rr.Code != tt.want {
				t.Errorf("status: got %d, want %d", rr.Code, tt.want)
			}
			var resp HealthResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != string(tt.status) || resp.Checks["database"] != "ok" {
				t.Errorf("response: %+v", resp)
			}
		})
	}
}
