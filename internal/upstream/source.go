package upstream

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"go-cache-interceptor/internal/cache/service"
	"go-cache-interceptor/internal/config"
	"go-cache-interceptor/internal/interfaces"
	"go-cache-interceptor/internal/models"
)

const tracerName = "go-cache-interceptor/upstream"

// Decoder turns a response body into the value delivered to the caller
type Decoder func(data []byte) (any, error)

// Request is one call as seen by the cache and network layer
type Request struct {
	Token models.CacheToken
	// ResponseType is the type the call returns. It differs from the instruction
	// type for Invalidate and Clear targeting another type.
	ResponseType models.ResponseType
	Request      models.RequestMetadata
	Decode       Decoder
}

// Source produces the stream of wrappers for a call according to its operation
type Source struct {
	service  *service.CacheService
	fetcher  interfaces.Fetcher
	defaults config.CacheConfig
	logger   *zap.Logger
	tracer   trace.Tracer
	group    singleflight.Group
	now      func() time.Time
}

// NewSource creates the cache and network layer
func NewSource(svc *service.CacheService, fetcher interfaces.Fetcher, defaults config.CacheConfig, logger *zap.Logger) *Source {
	return &Source{
		service:  svc,
		fetcher:  fetcher,
		defaults: defaults,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
}

// call carries the per-stream state
type call struct {
	Request
	ctx      context.Context
	out      chan<- models.ResponseWrapper
	span     trace.Span
	duration models.CallDuration
}

// Stream returns the wrappers of one call. The channel is closed once the
// operation is complete or ctx is cancelled.
func (s *Source) Stream(ctx context.Context, req Request) <-chan models.ResponseWrapper {
	out := make(chan models.ResponseWrapper)
	if req.ResponseType == "" {
		req.ResponseType = req.Token.Instruction.ResponseType
	}

	go func() {
		defer close(out)

		op := req.Token.Instruction.Operation
		ctx, span := s.tracer.Start(ctx, "cache."+string(op.Type()),
			trace.WithAttributes(
				attribute.String("cache.response_type", string(req.Token.Instruction.ResponseType)),
				attribute.String("cache.mode", req.Token.Mode.String()),
				attribute.String("cache.call_id", req.Token.CallID),
			))
		defer span.End()

		c := &call{Request: req, ctx: ctx, out: out, span: span}

		switch op := op.(type) {
		case models.DoNotCache:
			s.doNotCache(c)
		case models.Invalidate:
			s.invalidate(c)
		case models.Clear:
			s.clear(c, op)
		case models.Offline:
			s.offline(c)
		case models.Cache:
			s.cache(c, op)
		case models.Refresh:
			s.refresh(c, op)
		default:
			panic(fmt.Sprintf("unknown operation %T", op))
		}
	}()

	return out
}

func (s *Source) doNotCache(c *call) {
	data, err := s.fetch(c, 0, false)
	if err != nil {
		s.emit(c, models.StatusNotCached, nil, nil, err)
		return
	}
	response, err := s.decode(c, data)
	s.emit(c, models.StatusNotCached, response, nil, err)
}

func (s *Source) invalidate(c *call) {
	count := s.service.Invalidate(c.Token.Instruction.ResponseType)
	c.span.SetAttributes(attribute.Int("cache.entries", count))
	s.emit(c, models.StatusInvalidated, nil, nil, nil)
}

func (s *Source) clear(c *call, op models.Clear) {
	target := c.Token.Instruction.ResponseType
	if op.All {
		target = ""
	}
	count := s.service.Clear(target, op.ClearOldEntriesOnly)
	c.span.SetAttributes(attribute.Int("cache.entries", count))
	s.emit(c, models.StatusCleared, nil, nil, nil)
}

func (s *Source) offline(c *call) {
	cached, found := s.lookup(c)
	if !found {
		return
	}
	status := models.StatusStale
	if cached.Fresh {
		status = models.StatusFresh
	}
	response, err := s.decode(c, cached.Data)
	s.emit(c, status, response, &cached.Entry, err)
}

func (s *Source) cache(c *call, op models.Cache) {
	cached, found := s.lookup(c)
	if found && cached.Fresh {
		response, err := s.decode(c, cached.Data)
		if err == nil {
			s.emit(c, models.StatusFresh, response, &cached.Entry, nil)
			return
		}
		// replaced from the network below
		s.logger.Warn("Cached entry could not be decoded", zap.String("key", c.Token.RequestKey), zap.Error(err))
		found = false
	}

	opts := service.StoreOptions{Duration: op.Duration, Encrypt: op.Encrypt, Compress: op.Compress}
	if !found {
		s.fetchAndStore(c, op.ConnectivityTimeout, opts, models.StatusNetwork, nil)
		return
	}

	stale, err := s.decode(c, cached.Data)
	if err != nil {
		s.fetchAndStore(c, op.ConnectivityTimeout, opts, models.StatusNetwork, nil)
		return
	}
	if !s.emit(c, models.StatusStale, stale, &cached.Entry, nil) {
		return
	}
	s.fetchAndStore(c, op.ConnectivityTimeout, opts, models.StatusRefreshed, &fallback{response: stale, entry: cached.Entry})
}

func (s *Source) refresh(c *call, op models.Refresh) {
	var fb *fallback
	if cached, found := s.lookup(c); found {
		if stale, err := s.decode(c, cached.Data); err == nil {
			fb = &fallback{response: stale, entry: cached.Entry}
		}
	}

	opts := service.StoreOptions{Duration: op.Duration, Encrypt: s.defaults.Encrypt, Compress: s.defaults.Compress}
	s.fetchAndStore(c, op.ConnectivityTimeout, opts, models.StatusRefreshed, fb)
}

// fallback is the cached value delivered when a refresh fails
type fallback struct {
	response any
	entry    models.CacheEntry
}

func (s *Source) fetchAndStore(c *call, timeout time.Duration, opts service.StoreOptions, success models.CacheStatus, fb *fallback) {
	data, err := s.fetch(c, timeout, true)
	var response any
	if err == nil {
		response, err = s.decode(c, data)
	}

	if err != nil {
		if fb != nil {
			s.emit(c, models.StatusCouldNotRefresh, fb.response, &fb.entry, err)
			return
		}
		s.emit(c, models.StatusEmpty, nil, nil, err)
		return
	}

	start := s.now()
	entry, storeErr := s.service.Store(c.Token.RequestKey, c.Token.Instruction.ResponseType, data, opts)
	c.duration.Store += s.now().Sub(start)
	if storeErr != nil {
		s.logger.Warn("Failed to store response", zap.String("key", c.Token.RequestKey), zap.Error(storeErr))
		s.emit(c, success, response, nil, nil)
		return
	}
	s.emit(c, success, response, &entry, nil)
}

func (s *Source) lookup(c *call) (*service.Cached, bool) {
	start := s.now()
	cached, found := s.service.Lookup(c.Token.RequestKey)
	c.duration.Store += s.now().Sub(start)
	return cached, found
}

// fetch runs the network call. Concurrent fetches of the same key share one
// request, which is detached from the cancellation of any single caller.
func (s *Source) fetch(c *call, timeout time.Duration, shared bool) ([]byte, error) {
	start := s.now()
	defer func() { c.duration.Network += s.now().Sub(start) }()

	key := c.Token.RequestKey
	if !shared || key == "" {
		data, err := s.fetcher.Fetch(c.ctx, c.Request.Request, timeout)
		if err != nil {
			return nil, models.NewUpstreamError("network call failed", err)
		}
		return data, nil
	}

	fetchCtx := context.WithoutCancel(c.ctx)
	result := s.group.DoChan(key, func() (any, error) {
		return s.fetcher.Fetch(fetchCtx, c.Request.Request, timeout)
	})

	select {
	case <-c.ctx.Done():
		return nil, c.ctx.Err()
	case r := <-result:
		if r.Shared {
			s.logger.Debug("Shared in-flight fetch", zap.String("key", key))
		}
		if r.Err != nil {
			return nil, models.NewUpstreamError("network call failed", r.Err)
		}
		return r.Val.([]byte), nil
	}
}

func (s *Source) decode(c *call, data []byte) (any, error) {
	if c.Decode == nil {
		return data, nil
	}
	response, err := c.Decode(data)
	if err != nil {
		return nil, models.NewSerialisationError(fmt.Sprintf("could not decode response as %s", c.ResponseType), err)
	}
	return response, nil
}

// emit sends one wrapper and reports whether the caller is still listening
func (s *Source) emit(c *call, status models.CacheStatus, response any, entry *models.CacheEntry, err error) bool {
	token := c.Token.WithStatus(status)
	if entry != nil {
		token = token.WithDates(entry.CacheDate(), entry.ExpiryDate())
	}

	c.span.AddEvent("emission", trace.WithAttributes(attribute.String("cache.status", status.String())))
	if err != nil {
		c.span.RecordError(err)
		c.span.SetStatus(codes.Error, err.Error())
	}

	wrapper := models.ResponseWrapper{
		ResponseType: c.ResponseType,
		Response:     response,
		Metadata: models.CacheMetadata{
			Token:        token,
			Err:          err,
			CallDuration: c.duration,
		},
	}

	select {
	case c.out <- wrapper:
		return true
	case <-c.ctx.Done():
		return false
	}
}
