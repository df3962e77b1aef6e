package interfaces

import (
	"go-cache-interceptor/internal/directive"
	"go-cache-interceptor/internal/models"
)

//go:generate mockgen -package=mock -source=directive_classifier.go -destination=mock/directive_classifier.go

// DirectiveClassifier maps requests to the directives declared for them
type DirectiveClassifier interface {
	// Directives returns the directives declared for the request, in declaration order
	Directives(req models.RequestMetadata) []directive.Directive
	// ShouldCache is the default predicate used when no directive or header applies
	ShouldCache(responseType models.ResponseType, req models.RequestMetadata) bool
}
