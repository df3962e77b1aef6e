package cache_rules

import (
	"time"

	"go-cache-interceptor/internal/models"
)

// Directive types accepted in the rules file
const (
	TypeCache      = "cache"
	TypeRefresh    = "refresh"
	TypeOffline    = "offline"
	TypeInvalidate = "invalidate"
	TypeClear      = "clear"
	TypeClearAll   = "clear_all"
	TypeDoNotCache = "do_not_cache"
)

// RulesConfig represents the directive rules file
type RulesConfig struct {
	DefaultCache DefaultCacheRule `yaml:"default_cache"`
	Rules        []Rule           `yaml:"rules" validate:"dive"`
}

// DefaultCacheRule drives the predicate used for calls without directive or header
type DefaultCacheRule struct {
	Enabled       bool     `yaml:"enabled"`
	Methods       []string `yaml:"methods" validate:"dive,oneof=GET HEAD POST PUT PATCH DELETE OPTIONS"`
	ResponseTypes []string `yaml:"response_types" validate:"dive,required"`
}

// Rule attaches directives to the requests matching a route
type Rule struct {
	Name       string          `yaml:"name" validate:"required"`
	Route      string          `yaml:"route" validate:"required,startswith=/"`
	Methods    []string        `yaml:"methods" validate:"dive,oneof=GET HEAD POST PUT PATCH DELETE OPTIONS"`
	Directives []DirectiveSpec `yaml:"directives" validate:"required,min=1,dive"`
}

// DirectiveSpec is the YAML form of a directive. Unset durations defer to the
// cache configuration.
type DirectiveSpec struct {
	Type                string              `yaml:"type" validate:"required,oneof=cache refresh offline invalidate clear clear_all do_not_cache"`
	Duration            *time.Duration      `yaml:"duration" validate:"omitempty,gte=0"`
	ConnectivityTimeout *time.Duration      `yaml:"connectivity_timeout" validate:"omitempty,gte=0"`
	FreshOnly           bool                `yaml:"fresh_only"`
	MergeOnNextOnError  models.OptionalBool `yaml:"merge_on_next_on_error"`
	Encrypt             models.OptionalBool `yaml:"encrypt"`
	Compress            models.OptionalBool `yaml:"compress"`
	Target              string              `yaml:"target"`
	ClearOldEntriesOnly bool                `yaml:"clear_old_entries_only"`
}
