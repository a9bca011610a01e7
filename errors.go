package stylesearch

import "github.com/kailas-cloud/stylesearch/internal/domain"

// Errors returned by Client methods. Match them with errors.Is.
var (
	ErrNotFound         = domain.ErrNotFound
	ErrValidation       = domain.ErrValidation
	ErrStoreUnavailable = domain.ErrStoreUnavailable
	ErrRateLimited      = domain.ErrRateLimited
	ErrAIProvider       = domain.ErrAIProviderError
)
