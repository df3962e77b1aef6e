package emptyresponse

import (
	"sync"

	"go-cache-interceptor/internal/models"
)

// CompletionType is the response type of completion-only calls. A constructor
// for it is always registered.
var CompletionType = models.ResponseTypeOf[struct{}]()

// Factory produces the synthetic values used when an upstream emits nothing usable
type Factory struct {
	mu           sync.RWMutex
	constructors map[models.ResponseType]func() any
}

// NewFactory creates a factory with only the completion constructor registered
func NewFactory() *Factory {
	f := &Factory{constructors: make(map[models.ResponseType]func() any)}
	f.Register(CompletionType, func() any { return struct{}{} })
	return f
}

// Register sets the constructor used for responseType
func (f *Factory) Register(responseType models.ResponseType, constructor func() any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[responseType] = constructor
}

// RegisterType registers constructor for the response type of T
func RegisterType[T any](f *Factory, constructor func() T) {
	f.Register(models.ResponseTypeOf[T](), func() any { return constructor() })
}

// EmptyWrapper returns a wrapper without response, carrying the empty response error
func (f *Factory) EmptyWrapper(token models.CacheToken) models.ResponseWrapper {
	responseType := token.Instruction.ResponseType
	return models.ResponseWrapper{
		ResponseType: responseType,
		Metadata: models.CacheMetadata{
			Token: token.WithStatus(models.StatusEmpty),
			Err:   models.NewEmptyResponseError(responseType),
		},
	}
}

// Create returns a fresh zero value of responseType. Completion placeholders are
// always available, other types only when merging was requested.
func (f *Factory) Create(mergeOnNextOnError bool, responseType models.ResponseType) (any, bool) {
	if !mergeOnNextOnError && responseType != CompletionType {
		return nil, false
	}

	f.mu.RLock()
	constructor, ok := f.constructors[responseType]
	f.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return constructor(), true
}
