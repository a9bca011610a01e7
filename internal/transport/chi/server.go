package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/stylesearch/internal/domain"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/result"
	"github.com/kailas-cloud/stylesearch/internal/logger"
	healthuc "github.com/kailas-cloud/stylesearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/stylesearch/internal/usecase/search"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the search API over chi.
type Server struct {
	search        Searcher
	augment       Augmenter
	brands        BrandLister
	health        HealthChecker
	metrics       http.Handler
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search Searcher,
	augment Augmenter,
	brands BrandLister,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:  search,
		augment: augment,
		brands:  brands,
		health:  health,
		metrics: promhttp.Handler(),
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		notFoundHandler,
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, ErrorCodeStoreUnavailable),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, ErrorCodeRateLimited),
		sentinelHandler(domain.ErrAIProviderError, http.StatusBadGateway, ErrorCodeAIProviderError),
	}
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Get("/search", s.SearchGet)
	r.Post("/search", s.SearchPost)

	r.Get("/items", s.ListItems)
	r.Get("/items/{id}", s.GetItem)
	r.Get("/items/{id}/augment", s.AugmentItem)
	r.Get("/occasions/{occasion}/items", s.ItemsByOccasion)

	r.Get("/brands", s.ListBrands)
	r.Post("/brands/compare", s.CompareBrands)

	r.Post("/compare", s.CompareItems)
	r.Post("/recommend", s.Recommend)
}

// SearchGet handles GET /search.
func (s *Server) SearchGet(w http.ResponseWriter, r *http.Request) {
	params, err := bindListParams(r.URL.Query())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.runSearch(w, r, params.toRequest())
}

// SearchPost handles POST /search with a JSON or multipart body.
func (s *Server) SearchPost(w http.ResponseWriter, r *http.Request) {
	req, err := searchRequestFromPost(w, r)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	s.runSearch(w, r, req)
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, req searchuc.Request) {
	page, err := s.search.Search(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	aug := result.EmptyAugmentation()
	if focal, ok := page.Focal(); ok {
		aug, err = s.augment.ForItem(r.Context(), &focal)
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, searchResponse(page, aug))
}

// ListItems handles GET /items: a filtered, sorted listing without augmentation.
func (s *Server) ListItems(w http.ResponseWriter, r *http.Request) {
	params, err := bindListParams(r.URL.Query())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	page, err := s.search.Search(r.Context(), params.toRequest())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{
		Items: nonNilItems(page.Items),
		Total: page.TotalCount,
		Page:  page.Page,
		Limit: page.PageSize,
	})
}

// GetItem handles GET /items/{id}.
func (s *Server) GetItem(w http.ResponseWriter, r *http.Request) {
	d, err := s.augment.Detail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DetailResponse{Item: d.Item, Related: nonNilItems(d.Related)})
}

// AugmentItem handles GET /items/{id}/augment.
func (s *Server) AugmentItem(w http.ResponseWriter, r *http.Request) {
	aug, err := s.augment.Augment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AugmentResponse{
		Recommendations: nonNilItems(aug.Recommendations),
		Comparisons:     nonNilItems(aug.Comparisons),
	})
}

// ItemsByOccasion handles GET /occasions/{occasion}/items.
func (s *Server) ItemsByOccasion(w http.ResponseWriter, r *http.Request) {
	page, err := s.search.ByOccasion(r.Context(), chi.URLParam(r, "occasion"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{
		Items: nonNilItems(page.Items),
		Total: page.TotalCount,
		Page:  page.Page,
		Limit: page.PageSize,
	})
}

// ListBrands handles GET /brands.
func (s *Server) ListBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := s.brands.Brands(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNilStrings(brands))
}

// CompareBrands handles POST /brands/compare.
func (s *Server) CompareBrands(w http.ResponseWriter, r *http.Request) {
	var body BrandCompareBody
	if err := decodeJSON(w, r, &body); err != nil {
		s.badRequest(w, r, err)
		return
	}
	cmp, err := s.augment.BrandCompare(r.Context(), body.BrandA, body.BrandB)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BrandCompareResponse{
		BrandA:  brandStats(cmp.A),
		BrandB:  brandStats(cmp.B),
		Verdict: cmp.Verdict,
	})
}

// CompareItems handles POST /compare.
func (s *Server) CompareItems(w http.ResponseWriter, r *http.Request) {
	var body CompareBody
	if err := decodeJSON(w, r, &body); err != nil {
		s.badRequest(w, r, err)
		return
	}
	cmp, err := s.augment.CompareByIDs(r.Context(), body.IDs)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, compareResponse(cmp))
}

// Recommend handles POST /recommend.
func (s *Server) Recommend(w http.ResponseWriter, r *http.Request) {
	var body RecommendBody
	if err := decodeJSON(w, r, &body); err != nil {
		s.badRequest(w, r, err)
		return
	}
	rec, err := s.augment.Recommend(r.Context(), body.Preferences)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RecommendResponse{Suggestion: rec.Suggestion, Items: nonNilItems(rec.Items)})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	s.metrics.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// validationHandler reports the rejected field; caller input is safe to echo.
func validationHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrValidation) {
		return false
	}
	msg := domain.ErrValidation.Error()
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		msg = ve.Error()
	}
	writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, msg)
	return true
}

func notFoundHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrNotFound) {
		return false
	}
	msg := domain.ErrNotFound.Error()
	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		msg = nf.Error()
	}
	writeError(w, http.StatusNotFound, ErrorCodeNotFound, msg)
	return true
}

// sentinelHandler returns an errorHandler that matches a single sentinel error
// and answers with the sentinel text only.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), s.logger)
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

// badRequest answers body decoding failures; domain validation errors keep their mapping.
func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrValidation) {
		s.handleDomainError(w, r, err)
		return
	}
	writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
}
