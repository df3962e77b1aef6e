package cache_rules

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"go-cache-interceptor/internal/directive"
	"go-cache-interceptor/internal/interfaces"
	"go-cache-interceptor/internal/models"
)

// Classifier matches requests against the compiled rules
type Classifier struct {
	logger       *zap.Logger
	router       *mux.Router
	directives   map[string][]directive.Directive
	defaultCache DefaultCacheRule
}

// Ensure Classifier implements the DirectiveClassifier interface
var _ interfaces.DirectiveClassifier = (*Classifier)(nil)

// NewClassifier compiles config into a route matcher
func NewClassifier(config *RulesConfig, logger *zap.Logger) (*Classifier, error) {
	if config == nil {
		config = &RulesConfig{}
	}

	c := &Classifier{
		logger:       logger,
		router:       mux.NewRouter(),
		directives:   make(map[string][]directive.Directive, len(config.Rules)),
		defaultCache: config.DefaultCache,
	}

	for _, rule := range config.Rules {
		directives, err := rule.directives()
		if err != nil {
			return nil, err
		}

		route := c.router.NewRoute().Name(rule.Name).Path(rule.Route)
		if len(rule.Methods) > 0 {
			route = route.Methods(rule.Methods...)
		}
		if err := route.GetError(); err != nil {
			return nil, fmt.Errorf("rule %s: invalid route %q: %w", rule.Name, rule.Route, err)
		}
		c.directives[rule.Name] = directives
	}

	return c, nil
}

// Directives returns the directives of the first rule matching req
func (c *Classifier) Directives(req models.RequestMetadata) []directive.Directive {
	if len(c.directives) == 0 {
		return nil
	}

	httpReq, err := http.NewRequest(req.Method, req.URL, nil)
	if err != nil {
		c.logger.Debug("Request cannot be matched against rules", zap.String("url", req.URL), zap.Error(err))
		return nil
	}

	var match mux.RouteMatch
	if !c.router.Match(httpReq, &match) || match.Route == nil {
		return nil
	}

	name := match.Route.GetName()
	c.logger.Debug("Rule matched", zap.String("rule", name), zap.String("url", req.URL))
	return c.directives[name]
}

// ShouldCache is the default predicate
func (c *Classifier) ShouldCache(responseType models.ResponseType, req models.RequestMetadata) bool {
	return c.defaultCache.Applies(responseType, req.Method)
}
