package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/stylesearch/internal/domain"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/order"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/query"
	searchuc "github.com/kailas-cloud/stylesearch/internal/usecase/search"
)

// Body size limits.
const (
	maxJSONBody      = 1 << 20
	maxMultipartBody = domain.MaxImageBytes + maxJSONBody
)

// listParams are the query parameters of GET /search and GET /items.
// List parameters take comma separated values.
type listParams struct {
	Query     *string
	Category  *[]string
	Brand     *[]string
	Color     *[]string
	Size      *[]string
	Occasion  *[]string
	PriceGte  *float64
	PriceLte  *float64
	MinRating *float64
	Page      *int
	Limit     *int
	Sort      *string
}

func bindListParams(values url.Values) (listParams, error) {
	var p listParams
	binds := []struct {
		name    string
		explode bool
		dest    any
	}{
		{"q", true, &p.Query},
		{"category", false, &p.Category},
		{"brand", false, &p.Brand},
		{"color", false, &p.Color},
		{"size", false, &p.Size},
		{"occasion", false, &p.Occasion},
		{"price_gte", true, &p.PriceGte},
		{"price_lte", true, &p.PriceLte},
		{"min_rating", true, &p.MinRating},
		{"page", true, &p.Page},
		{"limit", true, &p.Limit},
		{"sort", true, &p.Sort},
	}
	for _, b := range binds {
		if err := runtime.BindQueryParameter("form", b.explode, false, b.name, values, b.dest); err != nil {
			return listParams{}, domain.NewValidationError(b.name, err.Error())
		}
	}
	return p, nil
}

func (p listParams) toRequest() searchuc.Request {
	req := searchuc.Request{
		Categories: deref(p.Category),
		Brands:     deref(p.Brand),
		Colors:     deref(p.Color),
		Sizes:      deref(p.Size),
		Occasions:  deref(p.Occasion),
		MinRating:  p.MinRating,
	}
	if p.Query != nil {
		req.Text = *p.Query
	}
	if p.PriceGte != nil {
		req.Price.Min = query.AmountOf(*p.PriceGte)
	}
	if p.PriceLte != nil {
		req.Price.Max = query.AmountOf(*p.PriceLte)
	}
	if p.Page != nil {
		req.Page = *p.Page
	}
	if p.Limit != nil {
		req.PageSize = *p.Limit
	}
	if p.Sort != nil {
		req.Order = order.Order(*p.Sort)
	}
	return req
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// searchRequestFromPost reads POST /search as multipart form (with an optional
// "image" file) or as a JSON SearchBody.
func searchRequestFromPost(w http.ResponseWriter, r *http.Request) (searchuc.Request, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var body SearchBody
		if err := decodeJSON(w, r, &body); err != nil {
			return searchuc.Request{}, err
		}
		return body.toRequest(), nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)
	if err := r.ParseMultipartForm(maxJSONBody); err != nil {
		return searchuc.Request{}, fmt.Errorf("invalid multipart body: %w", err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	body := SearchBody{Query: r.FormValue("query"), Sort: r.FormValue("sort")}
	if raw := strings.TrimSpace(r.FormValue("filters")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &body.Filters); err != nil {
			return searchuc.Request{}, domain.NewValidationError("filters", err.Error())
		}
	}
	for _, f := range []struct {
		name string
		dest *int
	}{{"page", &body.Page}, {"limit", &body.Limit}} {
		raw := strings.TrimSpace(r.FormValue(f.name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return searchuc.Request{}, domain.NewValidationError(f.name, fmt.Sprintf("%q is not an integer", raw))
		}
		*f.dest = n
	}
	req := body.toRequest()

	file, _, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return req, nil
	case err != nil:
		return searchuc.Request{}, domain.NewValidationError("image", err.Error())
	}
	img, err := readImage(file)
	if err != nil {
		return searchuc.Request{}, err
	}
	req.Image = img
	return req, nil
}

func readImage(f multipart.File) (*domain.Image, error) {
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, domain.MaxImageBytes+1))
	if err != nil {
		return nil, domain.NewValidationError("image", err.Error())
	}
	return domain.NewImage(data)
}
