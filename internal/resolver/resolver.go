package resolver

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"go-cache-interceptor/internal/config"
	"go-cache-interceptor/internal/directive"
	"go-cache-interceptor/internal/metrics"
	"go-cache-interceptor/internal/models"
)

// Source names where a call's instruction came from
type Source string

const (
	SourceDirective Source = "directive"
	SourceHeader    Source = "header"
	SourceDefault   Source = "default"
	SourceNone      Source = "none"
	SourceConflict  Source = "conflict"
)

// DefaultPredicate decides whether a call without directive or header is cached
type DefaultPredicate func(responseType models.ResponseType, req models.RequestMetadata) bool

// Call is everything the resolver knows about an outgoing call
type Call struct {
	Directives   []directive.Directive
	Mode         models.ConsumptionMode
	ResponseType models.ResponseType
	Request      models.RequestMetadata
	// Header overrides the instruction header found on Request
	Header string
}

// Resolver turns per-call directives into one CacheInstruction
type Resolver struct {
	config    config.CacheConfig
	predicate DefaultPredicate
	logger    *zap.Logger
}

// NewResolver creates a resolver. A nil predicate never caches by default.
func NewResolver(cfg config.CacheConfig, predicate DefaultPredicate, logger *zap.Logger) *Resolver {
	if predicate == nil {
		predicate = func(models.ResponseType, models.RequestMetadata) bool { return false }
	}
	return &Resolver{
		config:    cfg,
		predicate: predicate,
		logger:    logger,
	}
}

// Resolve maps the declared directives to an instruction. It returns nil when
// no directive applies and fails when more than one does.
func (r *Resolver) Resolve(directives []directive.Directive, mode models.ConsumptionMode, responseType models.ResponseType) (*models.CacheInstruction, error) {
	var (
		instruction *models.CacheInstruction
		existing    directive.Directive
	)

	for _, d := range directives {
		op, target, ok := r.toOperation(d, mode)
		if !ok {
			r.logger.Debug("Ignoring unrecognised directive", zap.String("directive", fmt.Sprintf("%T", d)))
			continue
		}

		if instruction != nil {
			return nil, models.NewConflictError(responseType, string(existing.Kind()), string(d.Kind()))
		}

		instructionType := responseType
		if target != "" {
			instructionType = target
		}
		resolved := models.NewCacheInstruction(instructionType, op)
		instruction = &resolved
		existing = d
	}

	return instruction, nil
}

// ResolveCall applies the fallback chain: declared directives, then the
// instruction header, then the default predicate.
func (r *Resolver) ResolveCall(call Call) (*models.CacheInstruction, Source, error) {
	instruction, err := r.Resolve(call.Directives, call.Mode, call.ResponseType)
	if err != nil {
		metrics.RecordResolution(string(SourceConflict))
		return nil, SourceConflict, err
	}
	if instruction != nil {
		metrics.RecordResolution(string(SourceDirective))
		return instruction, SourceDirective, nil
	}

	if instruction := r.fromHeader(call); instruction != nil {
		metrics.RecordResolution(string(SourceHeader))
		return instruction, SourceHeader, nil
	}

	if r.predicate(call.ResponseType, call.Request) {
		instruction := r.DefaultInstruction(call.ResponseType)
		metrics.RecordResolution(string(SourceDefault))
		return &instruction, SourceDefault, nil
	}

	metrics.RecordResolution(string(SourceNone))
	return nil, SourceNone, nil
}

// DefaultInstruction is the Cache instruction synthesised by the default predicate
func (r *Resolver) DefaultInstruction(responseType models.ResponseType) models.CacheInstruction {
	return models.NewCacheInstruction(responseType, models.Cache{
		ExpiringPolicy: models.ExpiringPolicy{
			FreshOnly:          false,
			FilterFinal:        false,
			MergeOnNextOnError: models.OptionalBoolOf(r.config.MergeOnNextOnError),
		},
		Duration:            r.config.Duration,
		ConnectivityTimeout: r.config.ConnectivityTimeout,
		Encrypt:             r.config.Encrypt,
		Compress:            r.config.Compress,
	})
}

func (r *Resolver) fromHeader(call Call) *models.CacheInstruction {
	value := call.Header
	if value == "" && call.Request.Header != nil {
		value = call.Request.Header.Get(HeaderName)
	}
	if value == "" {
		return nil
	}

	instruction, err := Deserialise(value)
	if err != nil {
		r.logger.Warn("Ignoring malformed instruction header", zap.Error(err))
		return nil
	}
	return instruction
}

// toOperation maps one directive. The returned target overrides the call's
// response type for Invalidate and Clear.
func (r *Resolver) toOperation(d directive.Directive, mode models.ConsumptionMode) (models.Operation, models.ResponseType, bool) {
	switch d := d.(type) {
	case directive.Cache:
		return models.Cache{
			ExpiringPolicy: models.ExpiringPolicy{
				FreshOnly:          d.FreshOnly,
				FilterFinal:        FilterFinal(models.OperationCache, mode, r.config.AllowNonFinalForSingle),
				MergeOnNextOnError: d.MergeOnNextOnError,
			},
			Duration:            r.millis(d.DurationMs, r.config.Duration),
			ConnectivityTimeout: r.millis(d.ConnectivityTimeoutMs, r.config.ConnectivityTimeout),
			Encrypt:             d.Encrypt.Or(r.config.Encrypt),
			Compress:            d.Compress.Or(r.config.Compress),
		}, "", true
	case directive.Refresh:
		return models.Refresh{
			ExpiringPolicy: models.ExpiringPolicy{
				FreshOnly:          d.FreshOnly,
				FilterFinal:        FilterFinal(models.OperationRefresh, mode, r.config.AllowNonFinalForSingle),
				MergeOnNextOnError: d.MergeOnNextOnError,
			},
			Duration:            r.millis(d.DurationMs, r.config.Duration),
			ConnectivityTimeout: r.millis(d.ConnectivityTimeoutMs, r.config.ConnectivityTimeout),
		}, "", true
	case directive.Offline:
		return models.Offline{
			ExpiringPolicy: models.ExpiringPolicy{
				FreshOnly:          d.FreshOnly,
				FilterFinal:        FilterFinal(models.OperationOffline, mode, r.config.AllowNonFinalForSingle),
				MergeOnNextOnError: d.MergeOnNextOnError,
			},
		}, "", true
	case directive.Invalidate:
		return models.Invalidate{}, d.TargetType, true
	case directive.Clear:
		return models.Clear{ClearOldEntriesOnly: d.ClearOldEntriesOnly}, d.TargetType, true
	case directive.ClearAll:
		return models.Clear{All: true, ClearOldEntriesOnly: d.ClearOldEntriesOnly}, "", true
	case directive.DoNotCache:
		return models.DoNotCache{}, "", true
	default:
		return nil, "", false
	}
}

// millis converts a directive value, where the -1 sentinel falls back to def
func (r *Resolver) millis(value int64, def time.Duration) time.Duration {
	if value == directive.Default {
		return def
	}
	return time.Duration(value) * time.Millisecond
}
