package cache_rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"go-cache-interceptor/internal/directive"
	"go-cache-interceptor/internal/models"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	config, err := ParseRulesConfig([]byte(validRulesYAML))
	require.NoError(t, err)
	classifier, err := NewClassifier(config, zaptest.NewLogger(t))
	require.NoError(t, err)
	return classifier
}

func TestClassifier_Directives(t *testing.T) {
	classifier := newTestClassifier(t)

	tests := []struct {
		name     string
		method   string
		url      string
		expected []directive.Directive
	}{
		{
			name:   "route and method match",
			method: "GET",
			url:    "http://svc.local/users/42?expand=true",
			expected: []directive.Directive{directive.Cache{
				DurationMs:            600000,
				ConnectivityTimeoutMs: 2000,
				MergeOnNextOnError:    models.True,
				Compress:              models.True,
			}},
		},
		{
			name:     "same route other method",
			method:   "PUT",
			url:      "http://svc.local/users/42",
			expected: []directive.Directive{directive.Invalidate{TargetType: "*users.User"}},
		},
		{
			name:     "rule without methods matches any",
			method:   "POST",
			url:      "http://svc.local/health",
			expected: []directive.Directive{directive.DoNotCache{}},
		},
		{
			name:   "unmatched method",
			method: "DELETE",
			url:    "http://svc.local/users/42",
		},
		{
			name:   "unmatched path",
			method: "GET",
			url:    "http://svc.local/orders/1",
		},
		{
			name:   "invalid url",
			method: "GET",
			url:    "://bad",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifier.Directives(models.RequestMetadata{Method: tt.method, URL: tt.url})
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestClassifier_ShouldCache(t *testing.T) {
	classifier := newTestClassifier(t)

	assert.True(t, classifier.ShouldCache("*users.User", models.RequestMetadata{Method: "GET", URL: "http://x/a"}))
	assert.False(t, classifier.ShouldCache("*users.Profile", models.RequestMetadata{Method: "GET", URL: "http://x/a"}))
	assert.False(t, classifier.ShouldCache("*users.User", models.RequestMetadata{Method: "POST", URL: "http://x/a"}))
}

func TestClassifier_Empty(t *testing.T) {
	classifier, err := NewClassifier(nil, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Nil(t, classifier.Directives(models.RequestMetadata{Method: "GET", URL: "http://x/users/1"}))
	assert.False(t, classifier.ShouldCache("*users.User", models.RequestMetadata{Method: "GET"}))
}

func TestNewClassifier_InvalidRoute(t *testing.T) {
	config := &RulesConfig{Rules: []Rule{{
		Name:       "broken",
		Route:      "/users/{id",
		Directives: []DirectiveSpec{{Type: TypeCache}},
	}}}

	_, err := NewClassifier(config, zaptest.NewLogger(t))
	assert.Error(t, err)
}
