package interceptor

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"go-cache-interceptor/internal/emptyresponse"
	"go-cache-interceptor/internal/interfaces"
	"go-cache-interceptor/internal/metrics"
	"go-cache-interceptor/internal/models"
)

const (
	outcomeValue           = "value"
	outcomeError           = "error"
	outcomeEmptyCompletion = "empty_completion"
)

// Params configures the pipeline of one call
type Params struct {
	Logger    *zap.Logger
	Clock     func() time.Time
	Factory   interfaces.EmptyResponseFactory
	Publisher interfaces.MetadataPublisher
	// Token is the instruction token of the call, it carries the consumption mode
	Token models.CacheToken
	// ResponseType is the type the call returns, used when a wrapper does not name one
	ResponseType           models.ResponseType
	AllowNonFinalForSingle bool
	// MergeOnNextOnError is the call-level default, overridden by expiring operations that set it
	MergeOnNextOnError bool
	Start              time.Time
}

// Interceptor reconciles the upstream emissions of one call with what its caller can accept
type Interceptor struct {
	params Params
	logger *zap.Logger
	now    func() time.Time
	merge  bool
}

// New creates the pipeline for one call
func New(params Params) *Interceptor {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := params.Clock
	if now == nil {
		now = time.Now
	}
	if params.ResponseType == "" {
		params.ResponseType = params.Token.Instruction.ResponseType
	}

	merge := params.MergeOnNextOnError
	if expiring, ok := models.AsExpiring(params.Token.Instruction.Operation); ok {
		merge = expiring.Policy().MergeOnNextOnError.Or(merge)
	}

	return &Interceptor{
		params: params,
		logger: logger.With(zap.String("call_id", params.Token.CallID)),
		now:    now,
		merge:  merge,
	}
}

// Apply consumes upstream and returns the emissions delivered to the caller.
// The returned channel is closed after a terminal error, an empty completion,
// the end of upstream, or cancellation of ctx.
func (i *Interceptor) Apply(ctx context.Context, upstream <-chan models.ResponseWrapper) <-chan models.Emission {
	out := make(chan models.Emission)

	go func() {
		defer close(out)

		passed := false
		for {
			select {
			case <-ctx.Done():
				return
			case wrapper, ok := <-upstream:
				if !ok {
					if !passed {
						i.deliverFallback(ctx, out)
					}
					return
				}
				if !i.passes(wrapper) {
					continue
				}
				passed = true
				if terminal := i.deliver(ctx, out, wrapper); terminal {
					go drain(upstream)
					return
				}
			}
		}
	}()

	return out
}

func (i *Interceptor) passes(wrapper models.ResponseWrapper) bool {
	status := wrapper.Metadata.Token.Status
	ok := Passes(status, i.params.Token.Instruction.Operation, i.params.Token.Mode, i.params.AllowNonFinalForSingle)
	if !ok {
		i.logger.Debug("Filtered emission", zap.String("status", status.String()))
		metrics.RecordFiltered(status.String())
	}
	return ok
}

func (i *Interceptor) deliverFallback(ctx context.Context, out chan<- models.Emission) {
	wrapper := i.params.Factory.EmptyWrapper(i.params.Token)
	wrapper.Metadata.Token = wrapper.Metadata.Token.WithStatus(models.StatusEmpty)
	i.logger.Debug("No emission passed, delivering empty fallback")
	i.deliver(ctx, out, wrapper)
}

// deliver finalizes one wrapper and sends the result. It reports whether the stream ended.
func (i *Interceptor) deliver(ctx context.Context, out chan<- models.Emission, wrapper models.ResponseWrapper) bool {
	if ctx.Err() != nil {
		return true
	}

	emission, outcome := i.process(wrapper)
	metrics.RecordEmission(wrapper.Metadata.Token.Status.String(), outcome)

	if outcome == outcomeEmptyCompletion {
		return true
	}

	select {
	case out <- emission:
	case <-ctx.Done():
		return true
	}
	// a single-result caller takes one value, the rest of upstream is drained unseen
	return outcome == outcomeError || i.params.Token.IsSingle()
}

func (i *Interceptor) process(wrapper models.ResponseWrapper) (models.Emission, string) {
	metadata := wrapper.Metadata.WithTotal(i.now().Sub(i.params.Start))
	if i.params.Publisher != nil {
		i.params.Publisher.Publish(metadata)
	}

	responseType := wrapper.ResponseType
	if responseType == "" {
		responseType = i.params.ResponseType
	}
	completable := i.params.Token.IsCompletable()

	// completion discards the value, the placeholder stands in for any type
	placeholderType := responseType
	if completable {
		placeholderType = emptyresponse.CompletionType
	}

	response := wrapper.Response
	if response == nil {
		if created, ok := i.params.Factory.Create(i.merge, placeholderType); ok {
			response = created
		}
	}

	var err error
	if response == nil {
		err = i.errorForEmpty(completable, responseType)
		if err == nil {
			err = metadata.Err
		}
		if err == nil {
			err = models.NewInternalStateError()
		}
	} else if !completable {
		if holder, ok := response.(models.MetadataHolder); ok {
			holder.SetCacheMetadata(metadata)
		} else {
			err = i.errorForEmpty(completable, responseType)
		}
	}

	if err != nil {
		i.logger.Debug("Delivering error", zap.String("status", metadata.Token.Status.String()), zap.Error(err))
		return models.Emission{Err: err}, outcomeError
	}

	if completable && metadata.Err != nil {
		if errors.Is(metadata.Err, models.ErrEmptyResponse) {
			return models.Emission{}, outcomeEmptyCompletion
		}
		return models.Emission{Err: metadata.Err}, outcomeError
	}

	return models.Emission{Response: response}, outcomeValue
}

func (i *Interceptor) errorForEmpty(completable bool, responseType models.ResponseType) error {
	if !completable && i.merge {
		return models.NewMetadataUnsupportedError(responseType)
	}
	return nil
}

func drain(upstream <-chan models.ResponseWrapper) {
	for range upstream {
	}
}
