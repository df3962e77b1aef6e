package cache_rules

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"go-cache-interceptor/internal/directive"
	"go-cache-interceptor/internal/models"
)

const validRulesYAML = `
default_cache:
  enabled: true
  methods: [GET]
  response_types: ["*users.User"]
rules:
  - name: user
    route: /users/{id}
    methods: [GET]
    directives:
      - type: cache
        duration: 10m
        connectivity_timeout: 2s
        merge_on_next_on_error: true
        compress: true
  - name: user-update
    route: /users/{id}
    methods: [PUT]
    directives:
      - type: invalidate
        target: "*users.User"
  - name: health
    route: /health
    directives:
      - type: do_not_cache
`

func createTempYAMLFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadRulesConfig_Success(t *testing.T) {
	path := createTempYAMLFile(t, validRulesYAML)

	config, err := LoadRulesConfig(path, zaptest.NewLogger(t))

	require.NoError(t, err)
	require.Len(t, config.Rules, 3)
	assert.True(t, config.DefaultCache.Enabled)
	assert.Equal(t, []string{"*users.User"}, config.DefaultCache.ResponseTypes)

	user := config.Rules[0]
	assert.Equal(t, "user", user.Name)
	assert.Equal(t, "/users/{id}", user.Route)
	require.Len(t, user.Directives, 1)
	require.NotNil(t, user.Directives[0].Duration)
	assert.Equal(t, 10*time.Minute, *user.Directives[0].Duration)
	assert.Equal(t, models.True, user.Directives[0].MergeOnNextOnError)
	assert.Equal(t, models.Unset, user.Directives[0].Encrypt)
}

func TestLoadRulesConfig_MissingFile(t *testing.T) {
	_, err := LoadRulesConfig(filepath.Join(t.TempDir(), "missing.yaml"), zaptest.NewLogger(t))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open cache rules file")
}

func TestParseRulesConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "malformed yaml",
			yaml: "rules: [",
		},
		{
			name: "unknown field",
			yaml: "rules: []\nttl_defaults: {}\n",
		},
		{
			name: "rule without name",
			yaml: "rules:\n  - route: /a\n    directives:\n      - type: cache\n",
		},
		{
			name: "relative route",
			yaml: "rules:\n  - name: a\n    route: a\n    directives:\n      - type: cache\n",
		},
		{
			name: "no directives",
			yaml: "rules:\n  - name: a\n    route: /a\n",
		},
		{
			name: "unknown directive type",
			yaml: "rules:\n  - name: a\n    route: /a\n    directives:\n      - type: forever\n",
		},
		{
			name: "unknown method",
			yaml: "rules:\n  - name: a\n    route: /a\n    methods: [FETCH]\n    directives:\n      - type: cache\n",
		},
		{
			name: "negative duration",
			yaml: "rules:\n  - name: a\n    route: /a\n    directives:\n      - type: cache\n        duration: -1s\n",
		},
		{
			name: "duplicate names",
			yaml: "rules:\n  - name: a\n    route: /a\n    directives:\n      - type: cache\n  - name: a\n    route: /b\n    directives:\n      - type: cache\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRulesConfig([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestDirectiveSpec_Directive(t *testing.T) {
	minute := time.Minute
	tests := []struct {
		name     string
		spec     DirectiveSpec
		expected directive.Directive
	}{
		{
			name:     "cache with defaults",
			spec:     DirectiveSpec{Type: TypeCache},
			expected: directive.NewCache(),
		},
		{
			name: "cache with overrides",
			spec: DirectiveSpec{Type: TypeCache, Duration: &minute, FreshOnly: true, Encrypt: models.True},
			expected: directive.Cache{
				DurationMs:            60000,
				ConnectivityTimeoutMs: directive.Default,
				FreshOnly:             true,
				Encrypt:               models.True,
			},
		},
		{
			name:     "refresh",
			spec:     DirectiveSpec{Type: TypeRefresh, ConnectivityTimeout: &minute},
			expected: directive.Refresh{DurationMs: directive.Default, ConnectivityTimeoutMs: 60000},
		},
		{
			name:     "offline",
			spec:     DirectiveSpec{Type: TypeOffline, FreshOnly: true, MergeOnNextOnError: models.False},
			expected: directive.Offline{FreshOnly: true, MergeOnNextOnError: models.False},
		},
		{
			name:     "invalidate",
			spec:     DirectiveSpec{Type: TypeInvalidate, Target: "*users.User"},
			expected: directive.Invalidate{TargetType: "*users.User"},
		},
		{
			name:     "clear",
			spec:     DirectiveSpec{Type: TypeClear, Target: "*users.User", ClearOldEntriesOnly: true},
			expected: directive.Clear{TargetType: "*users.User", ClearOldEntriesOnly: true},
		},
		{
			name:     "clear all",
			spec:     DirectiveSpec{Type: TypeClearAll},
			expected: directive.ClearAll{},
		},
		{
			name:     "do not cache",
			spec:     DirectiveSpec{Type: TypeDoNotCache},
			expected: directive.DoNotCache{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := tt.spec.Directive()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d)
		})
	}

	_, err := DirectiveSpec{Type: "forever"}.Directive()
	assert.Error(t, err)
}

func TestDefaultCacheRule_Applies(t *testing.T) {
	rule := DefaultCacheRule{Enabled: true}
	assert.True(t, rule.Applies("*users.User", "GET"))
	assert.False(t, rule.Applies("*users.User", "POST"))

	rule.ResponseTypes = []string{"*users.Profile"}
	assert.False(t, rule.Applies("*users.User", "GET"))
	assert.True(t, rule.Applies("*users.Profile", "GET"))

	rule.Methods = []string{"POST"}
	assert.True(t, rule.Applies("*users.Profile", "POST"))

	rule.Enabled = false
	assert.False(t, rule.Applies("*users.Profile", "POST"))
}
