package interfaces

import "go-cache-interceptor/internal/models"

//go:generate mockgen -package=mock -source=empty_response_factory.go -destination=mock/empty_response_factory.go

// EmptyResponseFactory supplies synthetic values when the upstream produced nothing usable
type EmptyResponseFactory interface {
	// EmptyWrapper returns the wrapper delivered when no emission passed the filter
	EmptyWrapper(token models.CacheToken) models.ResponseWrapper
	// Create returns a zero-value instance of responseType, if one can be produced
	Create(mergeOnNextOnError bool, responseType models.ResponseType) (any, bool)
}
