package cache_rules

import (
	"fmt"
	"net/http"
	"slices"
	"time"

	"go-cache-interceptor/internal/directive"
	"go-cache-interceptor/internal/models"
)

// Directive converts the YAML declaration into a directive
func (d DirectiveSpec) Directive() (directive.Directive, error) {
	switch d.Type {
	case TypeCache:
		return directive.Cache{
			DurationMs:            millis(d.Duration),
			ConnectivityTimeoutMs: millis(d.ConnectivityTimeout),
			FreshOnly:             d.FreshOnly,
			MergeOnNextOnError:    d.MergeOnNextOnError,
			Encrypt:               d.Encrypt,
			Compress:              d.Compress,
		}, nil
	case TypeRefresh:
		return directive.Refresh{
			DurationMs:            millis(d.Duration),
			ConnectivityTimeoutMs: millis(d.ConnectivityTimeout),
			FreshOnly:             d.FreshOnly,
			MergeOnNextOnError:    d.MergeOnNextOnError,
		}, nil
	case TypeOffline:
		return directive.Offline{FreshOnly: d.FreshOnly, MergeOnNextOnError: d.MergeOnNextOnError}, nil
	case TypeInvalidate:
		return directive.Invalidate{TargetType: models.ResponseType(d.Target)}, nil
	case TypeClear:
		return directive.Clear{TargetType: models.ResponseType(d.Target), ClearOldEntriesOnly: d.ClearOldEntriesOnly}, nil
	case TypeClearAll:
		return directive.ClearAll{ClearOldEntriesOnly: d.ClearOldEntriesOnly}, nil
	case TypeDoNotCache:
		return directive.DoNotCache{}, nil
	default:
		return nil, fmt.Errorf("unknown directive type %q", d.Type)
	}
}

// directives converts every declared directive of the rule, in order
func (r Rule) directives() ([]directive.Directive, error) {
	out := make([]directive.Directive, 0, len(r.Directives))
	for i, spec := range r.Directives {
		d, err := spec.Directive()
		if err != nil {
			return nil, fmt.Errorf("rule %s directive %d: %w", r.Name, i, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// Applies reports whether calls of responseType and method are cached by default
func (d DefaultCacheRule) Applies(responseType models.ResponseType, method string) bool {
	if !d.Enabled {
		return false
	}

	methods := d.Methods
	if len(methods) == 0 {
		methods = []string{http.MethodGet}
	}
	if !slices.Contains(methods, method) {
		return false
	}

	return len(d.ResponseTypes) == 0 || slices.Contains(d.ResponseTypes, string(responseType))
}

func millis(d *time.Duration) int64 {
	if d == nil {
		return directive.Default
	}
	return d.Milliseconds()
}
