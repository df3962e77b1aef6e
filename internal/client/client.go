package client

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"go-cache-interceptor/internal/cache/service"
	"go-cache-interceptor/internal/config"
	"go-cache-interceptor/internal/directive"
	"go-cache-interceptor/internal/interceptor"
	"go-cache-interceptor/internal/interfaces"
	"go-cache-interceptor/internal/metrics"
	"go-cache-interceptor/internal/models"
	"go-cache-interceptor/internal/resolver"
	"go-cache-interceptor/internal/upstream"
)

// Call describes one outgoing request and how its result is consumed
type Call struct {
	ResponseType models.ResponseType
	Request      models.RequestMetadata
	Mode         models.ConsumptionMode
	// Directives declared on the call. When empty, the rules are consulted.
	Directives []directive.Directive
	// Header is an encoded instruction, overriding the one found on Request
	Header string
	// Decode turns the response body into the delivered value. Nil delivers the raw bytes.
	Decode upstream.Decoder
}

// Params holds the collaborators of a Client
type Params struct {
	Config    config.CacheConfig
	Resolver  *resolver.Resolver
	Rules     interfaces.DirectiveClassifier
	Service   *service.CacheService
	Source    *upstream.Source
	Fetcher   interfaces.Fetcher
	Factory   interfaces.EmptyResponseFactory
	Publisher interfaces.MetadataPublisher
	Logger    *zap.Logger
}

// Client runs calls through instruction resolution, the cache layer and the interception pipeline
type Client struct {
	params Params
	logger *zap.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// New creates a client
func New(params Params) *Client {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		params: params,
		logger: logger,
		tracer: otel.Tracer("go-cache-interceptor/client"),
		now:    time.Now,
	}
}

// Execute runs call and returns its emissions. The channel is closed when the
// call completes, fails, or ctx is cancelled.
func (c *Client) Execute(ctx context.Context, call Call) <-chan models.Emission {
	start := c.now()
	ctx, span := c.tracer.Start(ctx, "cache.call",
		trace.WithAttributes(
			attribute.String("cache.response_type", string(call.ResponseType)),
			attribute.String("cache.mode", call.Mode.String()),
		))

	directives := call.Directives
	if len(directives) == 0 && c.params.Rules != nil {
		directives = c.params.Rules.Directives(call.Request)
	}

	instruction, source, err := c.params.Resolver.ResolveCall(resolver.Call{
		Directives:   directives,
		Mode:         call.Mode,
		ResponseType: call.ResponseType,
		Request:      call.Request,
		Header:       call.Header,
	})
	span.SetAttributes(attribute.String("cache.instruction_source", string(source)))
	if err != nil {
		span.RecordError(err)
		span.End()
		return single(models.Emission{Err: err})
	}

	if instruction == nil {
		defer span.End()
		return c.passThrough(ctx, call)
	}

	key := ""
	switch instruction.Operation.(type) {
	case models.Invalidate, models.Clear:
	default:
		key, err = c.params.Service.Key(call.ResponseType, call.Request)
		if err != nil {
			span.RecordError(err)
			span.End()
			return single(models.Emission{Err: models.NewSerialisationError("could not build request key", err)})
		}
	}

	token := models.NewInstructionToken(*instruction, call.Mode, key, call.Request.URL, start)
	span.SetAttributes(
		attribute.String("cache.call_id", token.CallID),
		attribute.String("cache.operation", string(instruction.Operation.Type())),
	)
	metrics.RecordCall(string(instruction.Operation.Type()), call.Mode.String())
	c.logger.Debug("Executing call",
		zap.String("call_id", token.CallID),
		zap.String("instruction", instruction.String()),
		zap.String("source", string(source)))

	ctx, cancel := context.WithCancel(ctx)
	wrappers := c.params.Source.Stream(ctx, upstream.Request{
		Token:        token,
		ResponseType: call.ResponseType,
		Request:      call.Request,
		Decode:       call.Decode,
	})
	emissions := interceptor.New(interceptor.Params{
		Logger:                 c.logger,
		Clock:                  c.now,
		Factory:                c.params.Factory,
		Publisher:              c.params.Publisher,
		Token:                  token,
		ResponseType:           call.ResponseType,
		AllowNonFinalForSingle: c.params.Config.AllowNonFinalForSingle,
		MergeOnNextOnError:     c.params.Config.MergeOnNextOnError,
		Start:                  start,
	}).Apply(ctx, wrappers)

	out := make(chan models.Emission)
	go func() {
		defer span.End()
		defer cancel()
		defer close(out)
		for emission := range emissions {
			select {
			case out <- emission:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// passThrough fetches without caching, interception or metadata
func (c *Client) passThrough(ctx context.Context, call Call) <-chan models.Emission {
	data, err := c.params.Fetcher.Fetch(ctx, call.Request, 0)
	if err != nil {
		return single(models.Emission{Err: models.NewUpstreamError("network call failed", err)})
	}
	if call.Decode == nil {
		return single(models.Emission{Response: data})
	}
	response, err := call.Decode(data)
	if err != nil {
		return single(models.Emission{Err: models.NewSerialisationError("could not decode response", err)})
	}
	return single(models.Emission{Response: response})
}

// Instruction encodes the instruction declared by directives for use in the
// instruction header of a request.
func (c *Client) Instruction(responseType models.ResponseType, mode models.ConsumptionMode, directives ...directive.Directive) (string, error) {
	instruction, err := c.params.Resolver.Resolve(directives, mode, responseType)
	if err != nil {
		return "", err
	}
	if instruction == nil {
		return "", nil
	}
	return resolver.Serialise(*instruction)
}

func single(emission models.Emission) <-chan models.Emission {
	out := make(chan models.Emission, 1)
	out <- emission
	close(out)
	return out
}
